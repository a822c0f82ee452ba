// Package user implements the User repository using PostgreSQL.
package user

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/heartmarshall/pulsepal-backend/internal/adapter/postgres"
	"github.com/heartmarshall/pulsepal-backend/internal/domain"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const columns = "id, email, password_hash, timezone, created_at"

// Repo provides user persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new user repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Create inserts a new user.
func (r *Repo) Create(ctx context.Context, u domain.User) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := psql.Insert("users").
		Columns("id", "email", "password_hash", "timezone", "created_at").
		Values(u.ID, u.Email, u.PasswordHash, u.Timezone, u.CreatedAt).
		ToSql()
	if err != nil {
		return postgres.MapError(err, "user", u.ID)
	}

	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, "user", u.ID)
	}
	return nil
}

// GetByID returns a user by primary key.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := psql.Select(columns).From("users").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, postgres.MapError(err, "user", id)
	}

	var u domain.User
	err = q.QueryRow(ctx, sql, args...).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Timezone, &u.CreatedAt)
	if err != nil {
		return nil, postgres.MapError(err, "user", id)
	}
	return &u, nil
}

// GetByEmail returns a user by email address.
func (r *Repo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := psql.Select(columns).From("users").Where(sq.Eq{"email": email}).ToSql()
	if err != nil {
		return nil, postgres.MapError(err, "user", uuid.Nil)
	}

	var u domain.User
	err = q.QueryRow(ctx, sql, args...).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Timezone, &u.CreatedAt)
	if err != nil {
		return nil, postgres.MapError(err, "user", uuid.Nil)
	}
	return &u, nil
}

// ListIDs returns the IDs of all users, ordered by creation time. Used by
// the daily scheduler to iterate users.
func (r *Repo) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := psql.Select("id").From("users").OrderBy("created_at ASC").ToSql()
	if err != nil {
		return nil, postgres.MapError(err, "user", uuid.Nil)
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, postgres.MapError(err, "user", uuid.Nil)
	}
	defer rows.Close()

	ids := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, postgres.MapError(err, "user", uuid.Nil)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.MapError(err, "user", uuid.Nil)
	}
	return ids, nil
}
