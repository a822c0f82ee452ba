// Package history implements the read surfaces over the append-only
// stores: the conversation thread, the event timeline, the latest daily
// report, and feedback recording.
package history

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/pulsepal-backend/internal/adapter/postgres/event"
	"github.com/heartmarshall/pulsepal-backend/internal/domain"
)

// messageRepo defines the message repository interface needed by the history service.
type messageRepo interface {
	ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Message, error)
}

// eventRepo defines the event repository interface needed by the history service.
type eventRepo interface {
	ListTimeline(ctx context.Context, userID uuid.UUID, filter event.Filter) ([]domain.Event, error)
}

// reportRepo defines the report repository interface needed by the history service.
type reportRepo interface {
	GetLatest(ctx context.Context, userID uuid.UUID) (*domain.DailyReport, error)
	List(ctx context.Context, userID uuid.UUID, limit int) ([]domain.DailyReport, error)
}

// feedbackRepo defines the feedback repository interface needed by the history service.
type feedbackRepo interface {
	Create(ctx context.Context, f domain.Feedback) error
}

// runRepo defines the pipeline run repository interface needed by the history service.
type runRepo interface {
	ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]domain.PipelineRun, error)
}

// Service implements history reads and feedback writes.
type Service struct {
	log      *slog.Logger
	messages messageRepo
	events   eventRepo
	reports  reportRepo
	feedback feedbackRepo
	runs     runRepo
}

// NewService creates a new history service instance.
func NewService(
	logger *slog.Logger,
	messages messageRepo,
	events eventRepo,
	reports reportRepo,
	feedback feedbackRepo,
	runs runRepo,
) *Service {
	return &Service{
		log:      logger.With("service", "history"),
		messages: messages,
		events:   events,
		reports:  reports,
		feedback: feedback,
		runs:     runs,
	}
}

// TimelineFilter narrows the event timeline.
type TimelineFilter struct {
	Days       int
	Types      []domain.EventType
	Severities []domain.Severity
	Limit      int
}

func (f TimelineFilter) toRepo(now time.Time) event.Filter {
	out := event.Filter{
		Types:      f.Types,
		Severities: f.Severities,
		Limit:      f.Limit,
	}
	if f.Days > 0 {
		out.Since = now.AddDate(0, 0, -f.Days)
	}
	return out
}
