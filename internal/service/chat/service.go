// Package chat implements the message pipeline: persist the user's
// message, extract structured events, merge the memory patch, generate a
// reply, and persist it. Provider failures never surface here; the
// gateway always hands back a schema-valid result.
package chat

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/heartmarshall/pulsepal-backend/internal/config"
	"github.com/heartmarshall/pulsepal-backend/internal/domain"
	"github.com/heartmarshall/pulsepal-backend/internal/provider"
	"github.com/heartmarshall/pulsepal-backend/pkg/usermutex"
)

// messageRepo defines the message repository interface needed by the chat service.
type messageRepo interface {
	Create(ctx context.Context, m domain.Message) error
	ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Message, error)
}

// eventRepo defines the event repository interface needed by the chat service.
type eventRepo interface {
	CreateBatch(ctx context.Context, events []domain.Event) error
	ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Event, error)
}

// memoryRepo defines the memory repository interface needed by the chat service.
type memoryRepo interface {
	Get(ctx context.Context, userID uuid.UUID) (*domain.Memory, error)
	GetForUpdate(ctx context.Context, userID uuid.UUID) (*domain.Memory, error)
	Init(ctx context.Context, m domain.Memory) error
	Save(ctx context.Context, m domain.Memory) error
}

// reportRepo defines the report repository interface needed by the chat service.
type reportRepo interface {
	GetLatest(ctx context.Context, userID uuid.UUID) (*domain.DailyReport, error)
}

// txManager defines the transaction manager interface needed by the chat service.
type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// providerGateway defines the gateway interface needed by the chat service.
type providerGateway interface {
	Invoke(ctx context.Context, kind domain.RunKind, userID uuid.UUID, op provider.Operation, payload any, schema provider.Schema) (any, string, domain.RunStatus, error)
}

// Service implements the message pipeline.
type Service struct {
	log      *slog.Logger
	messages messageRepo
	events   eventRepo
	memory   memoryRepo
	reports  reportRepo
	tx       txManager
	gateway  providerGateway
	locks    *usermutex.Arena
	cfg      config.PipelineConfig
}

// NewService creates a new chat service instance.
func NewService(
	logger *slog.Logger,
	messages messageRepo,
	events eventRepo,
	memory memoryRepo,
	reports reportRepo,
	tx txManager,
	gateway providerGateway,
	locks *usermutex.Arena,
	cfg config.PipelineConfig,
) *Service {
	return &Service{
		log:      logger.With("service", "chat"),
		messages: messages,
		events:   events,
		memory:   memory,
		reports:  reports,
		tx:       tx,
		gateway:  gateway,
		locks:    locks,
		cfg:      cfg,
	}
}
