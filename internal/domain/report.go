package domain

import (
	"time"

	"github.com/google/uuid"
)

// DailyReport is one run of the daily aggregation pipeline. Rows append;
// an earlier report is never overwritten. "Latest" is by GeneratedAt.
type DailyReport struct {
	ID                 uuid.UUID
	UserID             uuid.UUID
	GeneratedAt        time.Time
	PatternSummary     []string
	WhatChanged        []string
	SuggestedNextSteps []string
	TomorrowQuestions  []string
	CheckInMessage     string
	RiskLevel          RiskLevel
	MemoryPatchApplied bool
	Stats              DailyStats
}

// DailyStats holds the deterministic statistics computed before any
// provider call. An empty window yields zero counts, never an error.
type DailyStats struct {
	WindowDays   int                `json:"window_days"`
	EventCount   int                `json:"event_count"`
	TypeCounts   map[EventType]int  `json:"type_counts"`
	TagCounts    map[string]int     `json:"tag_counts"`
	CoOccurrence []TagPairCount     `json:"co_occurrence"`
	TrendDeltas  map[EventType]int  `json:"trend_deltas"`
}

// TagPairCount counts how often two tags appeared together, either on the
// same event or within the same day. Tags are stored in lexical order so
// (a,b) and (b,a) are the same pair.
type TagPairCount struct {
	TagA  string `json:"tag_a"`
	TagB  string `json:"tag_b"`
	Count int    `json:"count"`
}
