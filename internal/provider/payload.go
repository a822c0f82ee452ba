package provider

import (
	"time"

	"github.com/heartmarshall/pulsepal-backend/internal/domain"
)

// MemorySnapshot is the provider-facing view of a user's memory profile.
type MemorySnapshot struct {
	Preferences       map[string]any `json:"preferences"`
	RecurringPatterns map[string]any `json:"recurring_patterns"`
	KnownTriggers     []string       `json:"known_triggers"`
	HelpfulActions    []string       `json:"helpful_actions"`
}

// SnapshotMemory strips persistence fields from a domain.Memory.
func SnapshotMemory(m domain.Memory) MemorySnapshot {
	return MemorySnapshot{
		Preferences:       m.Preferences,
		RecurringPatterns: m.RecurringPatterns,
		KnownTriggers:     m.KnownTriggers,
		HelpfulActions:    m.HelpfulActions,
	}
}

// RecentMessage is one conversation turn included in provider context.
type RecentMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// RecentEvent is one extracted event included in provider context.
type RecentEvent struct {
	Type      string    `json:"event_type"`
	Title     string    `json:"title"`
	Severity  string    `json:"severity"`
	TimeRef   string    `json:"time_ref"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
}

// ReportSnapshot is the provider-facing view of the latest daily report.
type ReportSnapshot struct {
	GeneratedAt        time.Time `json:"generated_at"`
	PatternSummary     []string  `json:"pattern_summary"`
	WhatChanged        []string  `json:"what_changed"`
	SuggestedNextSteps []string  `json:"suggested_next_steps"`
	RiskLevel          string    `json:"risk_level"`
}

// ExtractPayload is the input for the extract operation.
type ExtractPayload struct {
	UserMessage    string          `json:"user_message"`
	Memory         MemorySnapshot  `json:"user_memory"`
	RecentEvents   []RecentEvent   `json:"recent_events"`
	RecentMessages []RecentMessage `json:"recent_messages"`
}

// RespondPayload is the input for the respond operation.
type RespondPayload struct {
	UserMessage    string          `json:"user_message"`
	Extracted      ExtractResult   `json:"extracted"`
	Memory         MemorySnapshot  `json:"user_memory"`
	RecentMessages []RecentMessage `json:"recent_messages"`
	LatestReport   *ReportSnapshot `json:"daily_report,omitempty"`
}

// FeedbackNote is one piece of user feedback included in daily context.
type FeedbackNote struct {
	Helpful   bool      `json:"helpful"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
}

// DailyPayload is the input for the daily_analyze operation.
type DailyPayload struct {
	Stats          domain.DailyStats `json:"stats"`
	Memory         MemorySnapshot    `json:"user_memory"`
	RecentEvents   []RecentEvent     `json:"recent_events"`
	RecentMessages []RecentMessage   `json:"recent_messages"`
	Feedback       []FeedbackNote    `json:"recent_feedback"`
}
