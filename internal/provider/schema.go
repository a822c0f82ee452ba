package provider

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/heartmarshall/pulsepal-backend/internal/domain"
)

// Schema decodes raw provider output into a typed result and enforces
// required fields, enum membership, and array shapes. A failed decode or
// validation wraps domain.ErrSchemaViolation, which the gateway treats
// exactly like a provider failure.
type Schema interface {
	Operation() Operation
	Decode(raw json.RawMessage) (any, error)
}

// ExtractSchema validates ExtractResult payloads.
type ExtractSchema struct{}

func (ExtractSchema) Operation() Operation { return OpExtract }

func (ExtractSchema) Decode(raw json.RawMessage) (any, error) {
	var r ExtractResult
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("%w: decode extract result: %v", domain.ErrSchemaViolation, err)
	}
	for i := range r.Events {
		ev := &r.Events[i]
		if strings.TrimSpace(ev.Title) == "" {
			return nil, fmt.Errorf("%w: events[%d]: title is required", domain.ErrSchemaViolation, i)
		}
		if ev.Type == "" {
			ev.Type = domain.EventTypeOther
		}
		if !ev.Type.IsValid() {
			return nil, fmt.Errorf("%w: events[%d]: unknown event_type %q", domain.ErrSchemaViolation, i, ev.Type)
		}
		if ev.Severity == "" {
			ev.Severity = domain.SeverityLow
		}
		if !ev.Severity.IsValid() {
			return nil, fmt.Errorf("%w: events[%d]: unknown severity %q", domain.ErrSchemaViolation, i, ev.Severity)
		}
		if ev.TimeRef == "" {
			ev.TimeRef = "unknown"
		}
		ev.Tags = domain.NormalizeTags(ev.Tags)
	}
	for i, f := range r.RiskFlags {
		if strings.TrimSpace(f.Flag) == "" {
			return nil, fmt.Errorf("%w: risk_flags[%d]: flag is required", domain.ErrSchemaViolation, i)
		}
		if f.Confidence == "" {
			r.RiskFlags[i].Confidence = domain.FlagConfidenceLow
		} else if !f.Confidence.IsValid() {
			return nil, fmt.Errorf("%w: risk_flags[%d]: unknown confidence %q", domain.ErrSchemaViolation, i, f.Confidence)
		}
	}
	ensureSlices(&r)
	return r, nil
}

// RespondSchema validates RespondResult payloads.
type RespondSchema struct{}

func (RespondSchema) Operation() Operation { return OpRespond }

func (RespondSchema) Decode(raw json.RawMessage) (any, error) {
	var r RespondResult
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("%w: decode respond result: %v", domain.ErrSchemaViolation, err)
	}
	if strings.TrimSpace(r.Reply) == "" {
		return nil, fmt.Errorf("%w: reply is required", domain.ErrSchemaViolation)
	}
	if r.RiskLevel == "" {
		r.RiskLevel = domain.RiskLevelLow
	}
	if !r.RiskLevel.IsValid() {
		return nil, fmt.Errorf("%w: unknown risk_level %q", domain.ErrSchemaViolation, r.RiskLevel)
	}
	if r.FollowUpQuestions == nil {
		r.FollowUpQuestions = []string{}
	}
	if r.SuggestedActions == nil {
		r.SuggestedActions = []string{}
	}
	return r, nil
}

// DailySchema validates DailyResult payloads.
type DailySchema struct{}

func (DailySchema) Operation() Operation { return OpDailyAnalyze }

func (DailySchema) Decode(raw json.RawMessage) (any, error) {
	var r DailyResult
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("%w: decode daily result: %v", domain.ErrSchemaViolation, err)
	}
	if len(r.PatternSummary) == 0 {
		return nil, fmt.Errorf("%w: pattern_summary is required", domain.ErrSchemaViolation)
	}
	if strings.TrimSpace(r.CheckInMessage) == "" {
		return nil, fmt.Errorf("%w: check_in_message is required", domain.ErrSchemaViolation)
	}
	if r.RiskLevel == "" {
		r.RiskLevel = domain.RiskLevelLow
	}
	if !r.RiskLevel.IsValid() {
		return nil, fmt.Errorf("%w: unknown risk_level %q", domain.ErrSchemaViolation, r.RiskLevel)
	}
	if r.WhatChanged == nil {
		r.WhatChanged = []string{}
	}
	if r.SuggestedNextSteps == nil {
		r.SuggestedNextSteps = []string{}
	}
	if r.TomorrowQuestions == nil {
		r.TomorrowQuestions = []string{}
	}
	return r, nil
}

func ensureSlices(r *ExtractResult) {
	if r.Events == nil {
		r.Events = []ExtractedEvent{}
	}
	if r.RiskFlags == nil {
		r.RiskFlags = []RiskFlag{}
	}
	if r.NeedsClarification == nil {
		r.NeedsClarification = []string{}
	}
}
