// Package auth implements signup, login, and the demo account, issuing
// JWT access tokens.
package auth

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/heartmarshall/pulsepal-backend/internal/config"
	"github.com/heartmarshall/pulsepal-backend/internal/domain"
)

// userRepo defines the user repository interface needed by the auth service.
type userRepo interface {
	Create(ctx context.Context, u domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// memoryRepo defines the memory repository interface needed by the auth service.
type memoryRepo interface {
	Init(ctx context.Context, m domain.Memory) error
}

// txManager defines the transaction manager interface needed by the auth service.
type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// jwtManager defines the token management interface needed by the auth service.
type jwtManager interface {
	GenerateAccessToken(userID uuid.UUID) (string, error)
}

// Service implements auth operations.
type Service struct {
	log    *slog.Logger
	users  userRepo
	memory memoryRepo
	tx     txManager
	jwt    jwtManager
	cfg    config.AuthConfig
}

// NewService creates a new auth service instance.
func NewService(
	logger *slog.Logger,
	users userRepo,
	memory memoryRepo,
	tx txManager,
	jwt jwtManager,
	cfg config.AuthConfig,
) *Service {
	return &Service{
		log:    logger.With("service", "auth"),
		users:  users,
		memory: memory,
		tx:     tx,
		jwt:    jwt,
		cfg:    cfg,
	}
}

// AuthResult is a successful authentication: the signed access token and
// the account it belongs to.
type AuthResult struct {
	AccessToken string
	User        domain.User
}

// issueToken generates the access token for a user.
func (s *Service) issueToken(user domain.User) (*AuthResult, error) {
	token, err := s.jwt.GenerateAccessToken(user.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{AccessToken: token, User: user}, nil
}
