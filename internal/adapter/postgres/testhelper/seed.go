package testhelper

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/pulsepal-backend/internal/domain"
)

// uniqueSuffix returns a short unique string for generating non-conflicting test data.
func uniqueSuffix() string {
	return uuid.New().String()[:8]
}

// SeedUser creates a user row and returns the filled domain.User.
func SeedUser(t *testing.T, pool *pgxpool.Pool) domain.User {
	t.Helper()
	ctx := context.Background()

	suffix := uniqueSuffix()
	now := time.Now().UTC().Truncate(time.Microsecond)
	user := domain.User{
		ID:           uuid.New(),
		Email:        "testuser-" + suffix + "@example.com",
		PasswordHash: "x",
		Timezone:     "UTC",
		CreatedAt:    now,
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO users (id, email, password_hash, timezone, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		user.ID, user.Email, user.PasswordHash, user.Timezone, user.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}

	return user
}

// SeedMessage creates a message row for the given user and returns it.
func SeedMessage(t *testing.T, pool *pgxpool.Pool, userID uuid.UUID) domain.Message {
	t.Helper()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	msg := domain.Message{
		ID:        uuid.New(),
		UserID:    userID,
		Role:      domain.MessageRoleUser,
		Content:   "seed message " + uniqueSuffix(),
		Source:    domain.MessageSourceText,
		CreatedAt: now,
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO messages (id, user_id, role, content, source, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		msg.ID, msg.UserID, string(msg.Role), msg.Content, string(msg.Source), msg.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed message: %v", err)
	}

	return msg
}
