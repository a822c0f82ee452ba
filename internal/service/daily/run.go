package daily

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/pulsepal-backend/internal/domain"
	"github.com/heartmarshall/pulsepal-backend/internal/provider"
)

// Result is the daily pipeline output.
type Result struct {
	Report   domain.DailyReport
	Provider string
}

// RunDaily executes the daily pipeline for one user. days below one falls
// back to the configured window. Statistics are computed before any
// provider call and survive provider failure unchanged; the report row
// always appends.
func (s *Service) RunDaily(ctx context.Context, userID uuid.UUID, days int) (*Result, error) {
	if userID == uuid.Nil {
		return nil, domain.NewValidationError("user_id", "must not be empty")
	}
	if days <= 0 {
		days = s.cfg.WindowDays
	}

	now := time.Now().UTC()
	windowStart := now.AddDate(0, 0, -days)
	priorStart := now.AddDate(0, 0, -2*days)

	// One query covers both windows; the cutoff splits them in memory.
	all, err := s.events.ListWindow(ctx, userID, priorStart, 2*s.cfg.MaxEvents)
	if err != nil {
		return nil, fmt.Errorf("daily.RunDaily: %w: load events: %v", domain.ErrContextUnavailable, err)
	}
	current, prior := splitWindow(all, windowStart)
	if len(current) > s.cfg.MaxEvents {
		current = current[len(current)-s.cfg.MaxEvents:]
	}

	msgs, err := s.messages.ListRecent(ctx, userID, recentMessagesLimit)
	if err != nil {
		return nil, fmt.Errorf("daily.RunDaily: %w: load messages: %v", domain.ErrContextUnavailable, err)
	}

	notes, err := s.feedback.ListByUser(ctx, userID, feedbackLimit)
	if err != nil {
		return nil, fmt.Errorf("daily.RunDaily: %w: load feedback: %v", domain.ErrContextUnavailable, err)
	}

	mem, err := s.loadMemory(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("daily.RunDaily: %w", err)
	}

	stats := ComputeStats(days, current, prior)

	payload := provider.DailyPayload{
		Stats:          stats,
		Memory:         provider.SnapshotMemory(mem),
		RecentEvents:   toRecentEvents(current),
		RecentMessages: toRecentMessages(msgs),
		Feedback:       toFeedbackNotes(notes),
	}

	raw, providerID, _, err := s.gateway.Invoke(ctx, domain.RunKindDaily, userID, provider.OpDailyAnalyze, payload, provider.DailySchema{})
	if err != nil {
		return nil, fmt.Errorf("daily.RunDaily: analyze: %w", err)
	}
	analysis, ok := raw.(provider.DailyResult)
	if !ok {
		return nil, fmt.Errorf("daily.RunDaily: analyze: unexpected result type %T", raw)
	}

	patchApplied := false
	if !analysis.MemoryPatch.IsZero() {
		if err := s.mergePatch(ctx, userID, analysis.MemoryPatch); err != nil {
			return nil, fmt.Errorf("daily.RunDaily: %w", err)
		}
		patchApplied = true
	}

	report := domain.DailyReport{
		ID:                 uuid.New(),
		UserID:             userID,
		GeneratedAt:        now,
		PatternSummary:     analysis.PatternSummary,
		WhatChanged:        analysis.WhatChanged,
		SuggestedNextSteps: analysis.SuggestedNextSteps,
		TomorrowQuestions:  analysis.TomorrowQuestions,
		CheckInMessage:     analysis.CheckInMessage,
		RiskLevel:          analysis.RiskLevel,
		MemoryPatchApplied: patchApplied,
		Stats:              stats,
	}
	if err := s.reports.Create(ctx, report); err != nil {
		return nil, fmt.Errorf("daily.RunDaily: %w: save report: %v", domain.ErrPersistence, err)
	}

	if strings.TrimSpace(analysis.CheckInMessage) != "" {
		checkIn := domain.Message{
			ID:        uuid.New(),
			UserID:    userID,
			Role:      domain.MessageRoleAssistant,
			Content:   analysis.CheckInMessage,
			Source:    domain.MessageSourceText,
			CreatedAt: time.Now().UTC(),
		}
		if err := s.messages.Create(ctx, checkIn); err != nil {
			// The report is already committed; losing the check-in message
			// degrades the thread, not the insight history.
			s.log.ErrorContext(ctx, "save check-in message",
				slog.String("user_id", userID.String()),
				slog.String("error", err.Error()),
			)
		}
	}

	s.log.InfoContext(ctx, "daily report generated",
		slog.String("user_id", userID.String()),
		slog.String("provider", providerID),
		slog.Int("events", stats.EventCount),
		slog.String("risk_level", report.RiskLevel.String()),
	)

	return &Result{Report: report, Provider: providerID}, nil
}

func (s *Service) loadMemory(ctx context.Context, userID uuid.UUID) (domain.Memory, error) {
	mem, err := s.memory.Get(ctx, userID)
	switch {
	case err == nil:
		return *mem, nil
	case errors.Is(err, domain.ErrNotFound):
		return domain.NewMemory(userID), nil
	default:
		return domain.Memory{}, fmt.Errorf("%w: load memory: %v", domain.ErrContextUnavailable, err)
	}
}

// mergePatch applies the analysis patch under the same per-user critical
// section the message pipeline uses.
func (s *Service) mergePatch(ctx context.Context, userID uuid.UUID, patch domain.MemoryPatch) error {
	unlock := s.locks.Lock(userID)
	defer unlock()

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		cur, err := s.memory.GetForUpdate(txCtx, userID)
		switch {
		case err == nil:
			cur.Apply(patch)
			cur.UpdatedAt = time.Now().UTC()
			return s.memory.Save(txCtx, *cur)
		case errors.Is(err, domain.ErrNotFound):
			fresh := domain.NewMemory(userID)
			fresh.Apply(patch)
			fresh.UpdatedAt = time.Now().UTC()
			return s.memory.Init(txCtx, fresh)
		default:
			return err
		}
	})
	if err != nil {
		return fmt.Errorf("%w: merge memory: %v", domain.ErrPersistence, err)
	}
	return nil
}

// splitWindow partitions chronologically ordered events at the cutoff.
func splitWindow(events []domain.Event, cutoff time.Time) (current, prior []domain.Event) {
	current = []domain.Event{}
	prior = []domain.Event{}
	for _, ev := range events {
		if ev.CreatedAt.Before(cutoff) {
			prior = append(prior, ev)
		} else {
			current = append(current, ev)
		}
	}
	return current, prior
}

func toRecentMessages(msgs []domain.Message) []provider.RecentMessage {
	out := make([]provider.RecentMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, provider.RecentMessage{
			Role:      m.Role.String(),
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		})
	}
	return out
}

func toRecentEvents(events []domain.Event) []provider.RecentEvent {
	out := make([]provider.RecentEvent, 0, len(events))
	for _, e := range events {
		out = append(out, provider.RecentEvent{
			Type:      e.Type.String(),
			Title:     e.Title,
			Severity:  e.Severity.String(),
			TimeRef:   e.TimeRef,
			Tags:      e.Tags,
			CreatedAt: e.CreatedAt,
		})
	}
	return out
}

func toFeedbackNotes(items []domain.Feedback) []provider.FeedbackNote {
	out := make([]provider.FeedbackNote, 0, len(items))
	for _, f := range items {
		out = append(out, provider.FeedbackNote{
			Helpful:   f.Helpful,
			Notes:     f.Notes,
			CreatedAt: f.CreatedAt,
		})
	}
	return out
}
