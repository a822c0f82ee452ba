// Package message implements the conversation history repository using
// PostgreSQL. Messages are append-only; there is no update or delete.
package message

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/heartmarshall/pulsepal-backend/internal/adapter/postgres"
	"github.com/heartmarshall/pulsepal-backend/internal/domain"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const columns = "id, user_id, role, content, source, created_at"

// Repo provides message persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new message repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Create appends a message.
func (r *Repo) Create(ctx context.Context, m domain.Message) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := psql.Insert("messages").
		Columns("id", "user_id", "role", "content", "source", "created_at").
		Values(m.ID, m.UserID, m.Role, m.Content, m.Source, m.CreatedAt).
		ToSql()
	if err != nil {
		return postgres.MapError(err, "message", m.ID)
	}

	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, "message", m.ID)
	}
	return nil
}

// ListRecent returns the newest messages for the user in chronological
// order (oldest first).
func (r *Repo) ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Message, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := psql.Select(columns).
		From("messages").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, postgres.MapError(err, "message", uuid.Nil)
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, postgres.MapError(err, "message", uuid.Nil)
	}

	msgs, err := scanMessages(rows)
	if err != nil {
		return nil, postgres.MapError(err, "message", uuid.Nil)
	}

	// Newest-first from the index, reversed for chronological reading.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

func scanMessages(rows pgx.Rows) ([]domain.Message, error) {
	defer rows.Close()

	msgs := []domain.Message{}
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.UserID, &m.Role, &m.Content, &m.Source, &m.CreatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
