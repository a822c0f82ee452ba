package provider

import "github.com/heartmarshall/pulsepal-backend/internal/domain"

// ExtractedEvent is one structured event proposed by the extractor.
// It becomes a domain.Event only after the pipeline persists it.
type ExtractedEvent struct {
	Type     domain.EventType `json:"event_type"`
	Title    string           `json:"title"`
	Details  string           `json:"details"`
	Severity domain.Severity  `json:"severity"`
	TimeRef  string           `json:"time_ref"`
	Tags     []string         `json:"tags"`
}

// RiskFlag marks a potentially urgent phrase detected during extraction.
type RiskFlag struct {
	Flag       string                `json:"flag"`
	Confidence domain.FlagConfidence `json:"confidence"`
	Note       string                `json:"note"`
}

// ExtractResult is the validated output of the extract operation.
type ExtractResult struct {
	Events             []ExtractedEvent   `json:"events"`
	RiskFlags          []RiskFlag         `json:"risk_flags"`
	MemoryPatch        domain.MemoryPatch `json:"memory_patch"`
	NeedsClarification []string           `json:"needs_clarification"`
}

// HasHighConfidenceFlag reports whether any risk flag carries high confidence.
func (r ExtractResult) HasHighConfidenceFlag() bool {
	for _, f := range r.RiskFlags {
		if f.Confidence == domain.FlagConfidenceHigh {
			return true
		}
	}
	return false
}

// RespondResult is the validated output of the respond operation.
type RespondResult struct {
	Reply             string           `json:"reply"`
	FollowUpQuestions []string         `json:"follow_up_questions"`
	SuggestedActions  []string         `json:"suggested_actions"`
	RiskLevel         domain.RiskLevel `json:"risk_level"`
	SafetyFooter      string           `json:"safety_footer"`
}

// DailyResult is the validated output of the daily_analyze operation.
// Its narrative fields map onto domain.DailyReport.
type DailyResult struct {
	PatternSummary     []string           `json:"pattern_summary"`
	WhatChanged        []string           `json:"what_changed"`
	SuggestedNextSteps []string           `json:"suggested_next_steps"`
	TomorrowQuestions  []string           `json:"tomorrow_questions"`
	CheckInMessage     string             `json:"check_in_message"`
	RiskLevel          domain.RiskLevel   `json:"risk_level"`
	MemoryPatch        domain.MemoryPatch `json:"memory_patch"`
}
