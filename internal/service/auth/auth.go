package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/heartmarshall/pulsepal-backend/internal/domain"
)

const minPasswordLength = 8

// Signup registers a new account. The starter memory row is created in
// the same transaction so every user has a profile from the first
// message on.
func (s *Service) Signup(ctx context.Context, email, password, timezone string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, domain.NewValidationError("email", "must be a valid email address")
	}
	if len(password) < minPasswordLength {
		return nil, domain.NewValidationError("password", fmt.Sprintf("must be at least %d characters", minPasswordLength))
	}
	if timezone == "" {
		timezone = "UTC"
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("auth.Signup: hash password: %w", err)
	}

	user := domain.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		Timezone:     timezone,
		CreatedAt:    time.Now().UTC(),
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.users.Create(txCtx, user); err != nil {
			return err
		}
		mem := domain.NewMemory(user.ID)
		mem.UpdatedAt = user.CreatedAt
		return s.memory.Init(txCtx, mem)
	})
	if err != nil {
		return nil, fmt.Errorf("auth.Signup: %w", err)
	}

	s.log.InfoContext(ctx, "user registered", slog.String("user_id", user.ID.String()))

	res, err := s.issueToken(user)
	if err != nil {
		return nil, fmt.Errorf("auth.Signup: %w", err)
	}
	return res, nil
}

// Login authenticates by email and password. Unknown email and wrong
// password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("auth.Login: %w", domain.ErrUnauthorized)
		}
		return nil, fmt.Errorf("auth.Login: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("auth.Login: %w", domain.ErrUnauthorized)
	}

	res, err := s.issueToken(*user)
	if err != nil {
		return nil, fmt.Errorf("auth.Login: %w", err)
	}
	return res, nil
}

// DemoLogin signs in as the shared demo account, creating it on first
// use. The demo account has an unguessable password and is only reachable
// through this entry point.
func (s *Service) DemoLogin(ctx context.Context) (*AuthResult, error) {
	if !s.cfg.DemoEnabled {
		return nil, fmt.Errorf("auth.DemoLogin: %w", domain.ErrUnauthorized)
	}

	user, err := s.users.GetByEmail(ctx, s.cfg.DemoEmail)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNotFound):
		user, err = s.createDemoUser(ctx)
		if err != nil {
			return nil, fmt.Errorf("auth.DemoLogin: %w", err)
		}
	default:
		return nil, fmt.Errorf("auth.DemoLogin: %w", err)
	}

	res, err := s.issueToken(*user)
	if err != nil {
		return nil, fmt.Errorf("auth.DemoLogin: %w", err)
	}
	return res, nil
}

func (s *Service) createDemoUser(ctx context.Context) (*domain.User, error) {
	// Random password; nobody logs into the demo account directly.
	hash, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash demo password: %w", err)
	}

	user := domain.User{
		ID:           uuid.New(),
		Email:        s.cfg.DemoEmail,
		PasswordHash: string(hash),
		Timezone:     "UTC",
		CreatedAt:    time.Now().UTC(),
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.users.Create(txCtx, user); err != nil {
			return err
		}
		mem := domain.NewMemory(user.ID)
		mem.UpdatedAt = user.CreatedAt
		return s.memory.Init(txCtx, mem)
	})
	if err != nil {
		// Lost the race against a concurrent demo login; use the winner's row.
		if errors.Is(err, domain.ErrAlreadyExists) {
			return s.users.GetByEmail(ctx, s.cfg.DemoEmail)
		}
		return nil, err
	}

	s.log.InfoContext(ctx, "demo user created", slog.String("user_id", user.ID.String()))
	return &user, nil
}
