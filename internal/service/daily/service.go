// Package daily implements the daily aggregation pipeline: deterministic
// statistics over a recency window, provider analysis on top of them, a
// new DailyReport row, and a check-in message. Reports append; a re-run
// never overwrites an earlier one.
package daily

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/pulsepal-backend/internal/config"
	"github.com/heartmarshall/pulsepal-backend/internal/domain"
	"github.com/heartmarshall/pulsepal-backend/internal/provider"
	"github.com/heartmarshall/pulsepal-backend/pkg/usermutex"
)

// recentMessagesLimit bounds the conversation context sent to the provider.
const recentMessagesLimit = 20

// feedbackLimit bounds the feedback notes sent to the provider.
const feedbackLimit = 20

// messageRepo defines the message repository interface needed by the daily service.
type messageRepo interface {
	Create(ctx context.Context, m domain.Message) error
	ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Message, error)
}

// eventRepo defines the event repository interface needed by the daily service.
type eventRepo interface {
	ListWindow(ctx context.Context, userID uuid.UUID, since time.Time, limit int) ([]domain.Event, error)
}

// memoryRepo defines the memory repository interface needed by the daily service.
type memoryRepo interface {
	Get(ctx context.Context, userID uuid.UUID) (*domain.Memory, error)
	GetForUpdate(ctx context.Context, userID uuid.UUID) (*domain.Memory, error)
	Init(ctx context.Context, m domain.Memory) error
	Save(ctx context.Context, m domain.Memory) error
}

// reportRepo defines the report repository interface needed by the daily service.
type reportRepo interface {
	Create(ctx context.Context, rep domain.DailyReport) error
}

// feedbackRepo defines the feedback repository interface needed by the daily service.
type feedbackRepo interface {
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Feedback, error)
}

// txManager defines the transaction manager interface needed by the daily service.
type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// providerGateway defines the gateway interface needed by the daily service.
type providerGateway interface {
	Invoke(ctx context.Context, kind domain.RunKind, userID uuid.UUID, op provider.Operation, payload any, schema provider.Schema) (any, string, domain.RunStatus, error)
}

// Service implements the daily pipeline.
type Service struct {
	log      *slog.Logger
	messages messageRepo
	events   eventRepo
	memory   memoryRepo
	reports  reportRepo
	feedback feedbackRepo
	tx       txManager
	gateway  providerGateway
	locks    *usermutex.Arena
	cfg      config.DailyConfig
}

// NewService creates a new daily service instance.
func NewService(
	logger *slog.Logger,
	messages messageRepo,
	events eventRepo,
	memory memoryRepo,
	reports reportRepo,
	feedback feedbackRepo,
	tx txManager,
	gateway providerGateway,
	locks *usermutex.Arena,
	cfg config.DailyConfig,
) *Service {
	return &Service{
		log:      logger.With("service", "daily"),
		messages: messages,
		events:   events,
		memory:   memory,
		reports:  reports,
		feedback: feedback,
		tx:       tx,
		gateway:  gateway,
		locks:    locks,
		cfg:      cfg,
	}
}
