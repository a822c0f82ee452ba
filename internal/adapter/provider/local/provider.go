// Package local is the deterministic fallback provider. It needs no
// network, no credentials, and always produces schema-valid output, so the
// gateway can terminate every fallback chain here.
package local

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/heartmarshall/pulsepal-backend/internal/domain"
	"github.com/heartmarshall/pulsepal-backend/internal/provider"
)

// Provider synthesizes results from keyword rules and aggregate stats.
type Provider struct{}

// New creates the fallback Provider.
func New() *Provider { return &Provider{} }

func (p *Provider) ID() string { return "local" }

// Invoke dispatches on operation. Payload types are fixed by the gateway
// contract; a mismatch is a programming error.
func (p *Provider) Invoke(_ context.Context, op provider.Operation, payload any) (json.RawMessage, error) {
	switch op {
	case provider.OpExtract:
		in, ok := payload.(provider.ExtractPayload)
		if !ok {
			return nil, fmt.Errorf("local: extract payload has type %T", payload)
		}
		return json.Marshal(extract(in.UserMessage))
	case provider.OpRespond:
		in, ok := payload.(provider.RespondPayload)
		if !ok {
			return nil, fmt.Errorf("local: respond payload has type %T", payload)
		}
		return json.Marshal(respond(in.Extracted))
	case provider.OpDailyAnalyze:
		in, ok := payload.(provider.DailyPayload)
		if !ok {
			return nil, fmt.Errorf("local: daily payload has type %T", payload)
		}
		return json.Marshal(daily(in.Stats))
	default:
		return nil, fmt.Errorf("local: unknown operation %s", op)
	}
}

// extract scans the message for a small set of wellness keywords. It keeps
// check-ins useful offline but makes no attempt at real understanding.
func extract(message string) provider.ExtractResult {
	lower := strings.ToLower(message)

	result := provider.ExtractResult{
		Events:             []provider.ExtractedEvent{},
		RiskFlags:          []provider.RiskFlag{},
		NeedsClarification: []string{},
	}
	var tags []string

	if containsAny(lower, "tired", "fatigue", "exhausted") {
		tags = append(tags, "fatigue")
		result.Events = append(result.Events, provider.ExtractedEvent{
			Type:     domain.EventTypeSymptom,
			Title:    "Low energy",
			Details:  "User mentioned tiredness or fatigue.",
			Severity: domain.SeverityMedium,
			TimeRef:  "today",
			Tags:     []string{"fatigue"},
		})
	}
	if containsAny(lower, "dizzy", "dizziness") {
		tags = append(tags, "dizziness")
		result.Events = append(result.Events, provider.ExtractedEvent{
			Type:     domain.EventTypeSymptom,
			Title:    "Dizziness",
			Details:  "User reported dizziness.",
			Severity: domain.SeverityMedium,
			TimeRef:  "today",
			Tags:     []string{"dizziness"},
		})
	}
	if containsAny(lower, "anxious", "stress", "stressed") {
		result.Events = append(result.Events, provider.ExtractedEvent{
			Type:     domain.EventTypeStress,
			Title:    "Stress spike",
			Details:  "User mentioned stress or anxiety.",
			Severity: domain.SeverityMedium,
			TimeRef:  "today",
			Tags:     []string{"stress"},
		})
	}
	if containsAny(lower, "can't sleep", "insomnia", "slept badly") {
		tags = append(tags, "sleep")
		result.Events = append(result.Events, provider.ExtractedEvent{
			Type:     domain.EventTypeSleep,
			Title:    "Poor sleep",
			Details:  "User reported trouble sleeping.",
			Severity: domain.SeverityMedium,
			TimeRef:  "last night",
			Tags:     []string{"sleep"},
		})
	}
	if strings.Contains(lower, "chest pain") || strings.Contains(lower, "can't breathe") {
		result.RiskFlags = append(result.RiskFlags, provider.RiskFlag{
			Flag:       "chest_pain",
			Confidence: domain.FlagConfidenceHigh,
			Note:       "Potentially urgent symptom phrase detected.",
		})
	}

	if len(tags) > 0 {
		result.MemoryPatch = domain.MemoryPatch{
			RecurringPatterns: map[string]any{"top_tags": tags},
		}
	}
	return result
}

func respond(extracted provider.ExtractResult) provider.RespondResult {
	riskLevel := domain.RiskLevelLow
	safetyFooter := ""
	if len(extracted.RiskFlags) > 0 {
		riskLevel = domain.RiskLevelHigh
		safetyFooter = "If symptoms become severe, sudden, or scary, seek urgent in-person care right away."
	}
	return provider.RespondResult{
		Reply: "Thanks for sharing this. I can't diagnose, but I can help you track likely patterns and choose a practical next step. " +
			"Want to rate your energy, stress, and sleep from 1-10 today?",
		FollowUpQuestions: []string{
			"When did this start today?",
			"Anything different with sleep, hydration, or stress this week?",
		},
		SuggestedActions: []string{
			"Drink water and have a light snack if you have not eaten recently.",
			"Do a 2-minute breathing reset and note if symptoms shift.",
		},
		RiskLevel:    riskLevel,
		SafetyFooter: safetyFooter,
	}
}

// daily builds a narrative straight from the aggregate stats. Identical
// stats always produce an identical report.
func daily(stats domain.DailyStats) provider.DailyResult {
	topTags := topCounts(stats.TagCounts, 3)
	typeNames := make(map[string]int, len(stats.TypeCounts))
	for t, c := range stats.TypeCounts {
		typeNames[t.String()] = c
	}
	topTypes := topCounts(typeNames, 3)

	summary := make([]string, 0, len(topTags))
	for _, tc := range topTags {
		summary = append(summary, fmt.Sprintf("%s showed up %d times recently", tc.name, tc.count))
	}
	if len(summary) == 0 {
		summary = []string{"Not enough data yet."}
	}

	var changed []string
	if len(topTypes) > 0 {
		parts := make([]string, 0, len(topTypes))
		for _, tc := range topTypes {
			parts = append(parts, fmt.Sprintf("%s (%d)", tc.name, tc.count))
		}
		changed = []string{"Most frequent event types: " + strings.Join(parts, ", ")}
	} else {
		changed = []string{"Still collecting baseline data over your first week."}
	}

	var patch domain.MemoryPatch
	if len(topTags) > 0 {
		names := make([]any, 0, len(topTags))
		for _, tc := range topTags {
			names = append(names, tc.name)
		}
		patch.RecurringPatterns = map[string]any{"daily_top_tags": names}
	}

	return provider.DailyResult{
		PatternSummary: summary,
		WhatChanged:    changed,
		SuggestedNextSteps: []string{
			"Keep daily check-ins brief but consistent.",
			"Track one behavior change tomorrow.",
		},
		TomorrowQuestions: []string{
			"How was your sleep quality?",
			"What was your stress peak today?",
		},
		CheckInMessage: "Quick check-in: what felt better or worse today vs yesterday?",
		RiskLevel:      domain.RiskLevelLow,
		MemoryPatch:    patch,
	}
}

type nameCount struct {
	name  string
	count int
}

// topCounts ranks by count descending, breaking ties lexically so the
// report is stable across runs.
func topCounts(counts map[string]int, limit int) []nameCount {
	ranked := make([]nameCount, 0, len(counts))
	for name, count := range counts {
		ranked = append(ranked, nameCount{name: name, count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].name < ranked[j].name
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
