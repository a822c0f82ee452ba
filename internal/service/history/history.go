package history

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/pulsepal-backend/internal/domain"
	"github.com/heartmarshall/pulsepal-backend/pkg/ctxutil"
)

// threadLimit caps the conversation thread returned to clients.
const threadLimit = 100

const defaultTimelineLimit = 200

// Thread returns the last messages for the authenticated user, oldest
// first.
func (s *Service) Thread(ctx context.Context, limit int) ([]domain.Message, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, fmt.Errorf("history.Thread: %w", domain.ErrUnauthorized)
	}
	if limit <= 0 || limit > threadLimit {
		limit = threadLimit
	}

	msgs, err := s.messages.ListRecent(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("history.Thread: %w", err)
	}
	return msgs, nil
}

// Timeline returns the event timeline for the authenticated user, newest
// first, bounded by the filter.
func (s *Service) Timeline(ctx context.Context, filter TimelineFilter) ([]domain.Event, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, fmt.Errorf("history.Timeline: %w", domain.ErrUnauthorized)
	}

	for _, typ := range filter.Types {
		if !typ.IsValid() {
			return nil, domain.NewValidationError("type", fmt.Sprintf("unknown event type %q", typ))
		}
	}
	for _, sev := range filter.Severities {
		if !sev.IsValid() {
			return nil, domain.NewValidationError("severity", fmt.Sprintf("unknown severity %q", sev))
		}
	}
	if filter.Limit <= 0 || filter.Limit > defaultTimelineLimit {
		filter.Limit = defaultTimelineLimit
	}

	events, err := s.events.ListTimeline(ctx, userID, filter.toRepo(time.Now().UTC()))
	if err != nil {
		return nil, fmt.Errorf("history.Timeline: %w", err)
	}
	return events, nil
}

// LatestReport returns the most recent daily report for the authenticated
// user. Returns domain.ErrNotFound when none has been generated yet.
func (s *Service) LatestReport(ctx context.Context) (*domain.DailyReport, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, fmt.Errorf("history.LatestReport: %w", domain.ErrUnauthorized)
	}

	rep, err := s.reports.GetLatest(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("history.LatestReport: %w", err)
	}
	return rep, nil
}

// ListReports returns past daily reports for the authenticated user,
// newest first.
func (s *Service) ListReports(ctx context.Context, limit int) ([]domain.DailyReport, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, fmt.Errorf("history.ListReports: %w", domain.ErrUnauthorized)
	}

	reports, err := s.reports.List(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("history.ListReports: %w", err)
	}
	return reports, nil
}

// ListRuns returns recent pipeline run audit records for the
// authenticated user, newest first.
func (s *Service) ListRuns(ctx context.Context, limit int) ([]domain.PipelineRun, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, fmt.Errorf("history.ListRuns: %w", domain.ErrUnauthorized)
	}

	runs, err := s.runs.ListRecent(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("history.ListRuns: %w", err)
	}
	return runs, nil
}

// FeedbackInput scopes one piece of feedback to a reply message or a
// daily report, never both.
type FeedbackInput struct {
	MessageID     *uuid.UUID
	DailyReportID *uuid.UUID
	Helpful       bool
	Notes         string
}

// RecordFeedback stores feedback from the authenticated user.
func (s *Service) RecordFeedback(ctx context.Context, in FeedbackInput) (*domain.Feedback, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, fmt.Errorf("history.RecordFeedback: %w", domain.ErrUnauthorized)
	}

	hasMessage := in.MessageID != nil && *in.MessageID != uuid.Nil
	hasReport := in.DailyReportID != nil && *in.DailyReportID != uuid.Nil
	if hasMessage == hasReport {
		return nil, domain.NewValidationError("target", "exactly one of message_id or daily_report_id is required")
	}

	f := domain.Feedback{
		ID:        uuid.New(),
		UserID:    userID,
		Helpful:   in.Helpful,
		Notes:     strings.TrimSpace(in.Notes),
		CreatedAt: time.Now().UTC(),
	}
	if hasMessage {
		f.MessageID = in.MessageID
	} else {
		f.DailyReportID = in.DailyReportID
	}

	if err := s.feedback.Create(ctx, f); err != nil {
		return nil, fmt.Errorf("history.RecordFeedback: %w", err)
	}

	s.log.InfoContext(ctx, "feedback recorded",
		slog.String("user_id", userID.String()),
		slog.Bool("helpful", f.Helpful),
	)
	return &f, nil
}
