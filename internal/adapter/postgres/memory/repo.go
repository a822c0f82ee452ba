// Package memory implements the per-user memory profile repository using
// PostgreSQL. The profile is a single row per user; merges happen in the
// service layer and are persisted through Save under row-level locking.
package memory

import (
	"context"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/heartmarshall/pulsepal-backend/internal/adapter/postgres"
	"github.com/heartmarshall/pulsepal-backend/internal/domain"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const columns = "user_id, preferences, recurring_patterns, known_triggers, helpful_actions, updated_at"

// Repo provides memory profile persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new memory repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Init inserts the empty profile for a new user.
func (r *Repo) Init(ctx context.Context, m domain.Memory) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := insertValues(m)
	if err != nil {
		return postgres.MapError(err, "user_memory", m.UserID)
	}

	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, "user_memory", m.UserID)
	}
	return nil
}

// Get returns the profile for the user.
func (r *Repo) Get(ctx context.Context, userID uuid.UUID) (*domain.Memory, error) {
	return r.get(ctx, userID, false)
}

// GetForUpdate returns the profile with a row-level lock. Must run inside
// a transaction; the lock holds until commit or rollback.
func (r *Repo) GetForUpdate(ctx context.Context, userID uuid.UUID) (*domain.Memory, error) {
	return r.get(ctx, userID, true)
}

func (r *Repo) get(ctx context.Context, userID uuid.UUID, forUpdate bool) (*domain.Memory, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	builder := psql.Select(columns).From("user_memory").Where(sq.Eq{"user_id": userID})
	if forUpdate {
		builder = builder.Suffix("FOR UPDATE")
	}

	sql, args, err := builder.ToSql()
	if err != nil {
		return nil, postgres.MapError(err, "user_memory", userID)
	}

	var (
		m                               domain.Memory
		prefs, patterns, triggers, acts []byte
	)
	err = q.QueryRow(ctx, sql, args...).Scan(&m.UserID, &prefs, &patterns, &triggers, &acts, &m.UpdatedAt)
	if err != nil {
		return nil, postgres.MapError(err, "user_memory", userID)
	}

	if err := decodeFields(&m, prefs, patterns, triggers, acts); err != nil {
		return nil, fmt.Errorf("user_memory %s: %w", userID, err)
	}
	return &m, nil
}

// Save overwrites the profile fields and updated_at.
func (r *Repo) Save(ctx context.Context, m domain.Memory) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	prefs, patterns, triggers, acts, err := encodeFields(m)
	if err != nil {
		return fmt.Errorf("user_memory %s: %w", m.UserID, err)
	}

	sql, args, err := psql.Update("user_memory").
		Set("preferences", prefs).
		Set("recurring_patterns", patterns).
		Set("known_triggers", triggers).
		Set("helpful_actions", acts).
		Set("updated_at", m.UpdatedAt).
		Where(sq.Eq{"user_id": m.UserID}).
		ToSql()
	if err != nil {
		return postgres.MapError(err, "user_memory", m.UserID)
	}

	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, "user_memory", m.UserID)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user_memory %s: %w", m.UserID, domain.ErrNotFound)
	}
	return nil
}

func insertValues(m domain.Memory) (string, []any, error) {
	prefs, patterns, triggers, acts, err := encodeFields(m)
	if err != nil {
		return "", nil, err
	}
	return psql.Insert("user_memory").
		Columns("user_id", "preferences", "recurring_patterns", "known_triggers", "helpful_actions", "updated_at").
		Values(m.UserID, prefs, patterns, triggers, acts, m.UpdatedAt).
		ToSql()
}

func encodeFields(m domain.Memory) (prefs, patterns, triggers, acts []byte, err error) {
	if prefs, err = json.Marshal(m.Preferences); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("encode preferences: %w", err)
	}
	if patterns, err = json.Marshal(m.RecurringPatterns); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("encode recurring_patterns: %w", err)
	}
	if triggers, err = json.Marshal(m.KnownTriggers); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("encode known_triggers: %w", err)
	}
	if acts, err = json.Marshal(m.HelpfulActions); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("encode helpful_actions: %w", err)
	}
	return prefs, patterns, triggers, acts, nil
}

func decodeFields(m *domain.Memory, prefs, patterns, triggers, acts []byte) error {
	if err := json.Unmarshal(prefs, &m.Preferences); err != nil {
		return fmt.Errorf("decode preferences: %w", err)
	}
	if err := json.Unmarshal(patterns, &m.RecurringPatterns); err != nil {
		return fmt.Errorf("decode recurring_patterns: %w", err)
	}
	if err := json.Unmarshal(triggers, &m.KnownTriggers); err != nil {
		return fmt.Errorf("decode known_triggers: %w", err)
	}
	if err := json.Unmarshal(acts, &m.HelpfulActions); err != nil {
		return fmt.Errorf("decode helpful_actions: %w", err)
	}
	return nil
}
