// Package feedback implements the feedback repository using PostgreSQL.
package feedback

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/heartmarshall/pulsepal-backend/internal/adapter/postgres"
	"github.com/heartmarshall/pulsepal-backend/internal/domain"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Repo provides feedback persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new feedback repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Create appends a feedback record.
func (r *Repo) Create(ctx context.Context, f domain.Feedback) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := psql.Insert("feedback").
		Columns("id", "user_id", "message_id", "daily_report_id", "helpful", "notes", "created_at").
		Values(f.ID, f.UserID, f.MessageID, f.DailyReportID, f.Helpful, f.Notes, f.CreatedAt).
		ToSql()
	if err != nil {
		return postgres.MapError(err, "feedback", f.ID)
	}

	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, "feedback", f.ID)
	}
	return nil
}

// ListByUser returns feedback for the user, newest first.
func (r *Repo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Feedback, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	builder := psql.Select("id, user_id, message_id, daily_report_id, helpful, notes, created_at").
		From("feedback").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC", "id DESC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	sql, args, err := builder.ToSql()
	if err != nil {
		return nil, postgres.MapError(err, "feedback", uuid.Nil)
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, postgres.MapError(err, "feedback", uuid.Nil)
	}
	defer rows.Close()

	items := []domain.Feedback{}
	for rows.Next() {
		var f domain.Feedback
		if err := rows.Scan(&f.ID, &f.UserID, &f.MessageID, &f.DailyReportID, &f.Helpful, &f.Notes, &f.CreatedAt); err != nil {
			return nil, postgres.MapError(err, "feedback", uuid.Nil)
		}
		items = append(items, f)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.MapError(err, "feedback", uuid.Nil)
	}
	return items, nil
}
