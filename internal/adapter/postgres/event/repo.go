// Package event implements the extracted-event repository using
// PostgreSQL. Events are append-only.
package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/heartmarshall/pulsepal-backend/internal/adapter/postgres"
	"github.com/heartmarshall/pulsepal-backend/internal/domain"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const columns = "id, user_id, source_message_id, event_type, title, details, severity, time_ref, tags, created_at"

// Filter narrows timeline queries. Zero values mean no constraint.
type Filter struct {
	Types      []domain.EventType
	Severities []domain.Severity
	Since      time.Time
	Limit      int
}

// Repo provides event persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new event repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Create appends one event.
func (r *Repo) Create(ctx context.Context, e domain.Event) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	tags, err := json.Marshal(e.Tags)
	if err != nil {
		return fmt.Errorf("event %s: encode tags: %w", e.ID, err)
	}

	sql, args, err := psql.Insert("events").
		Columns("id", "user_id", "source_message_id", "event_type", "title", "details", "severity", "time_ref", "tags", "created_at").
		Values(e.ID, e.UserID, e.SourceMessageID, e.Type, e.Title, e.Details, e.Severity, e.TimeRef, tags, e.CreatedAt).
		ToSql()
	if err != nil {
		return postgres.MapError(err, "event", e.ID)
	}

	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, "event", e.ID)
	}
	return nil
}

// CreateBatch appends all events. Callers run it inside a transaction when
// the whole batch must land atomically.
func (r *Repo) CreateBatch(ctx context.Context, events []domain.Event) error {
	for _, e := range events {
		if err := r.Create(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// ListRecent returns the newest events for the user in chronological order.
func (r *Repo) ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Event, error) {
	return r.list(ctx, userID, Filter{Limit: limit}, true)
}

// ListWindow returns events created at or after since, oldest first.
func (r *Repo) ListWindow(ctx context.Context, userID uuid.UUID, since time.Time, limit int) ([]domain.Event, error) {
	return r.list(ctx, userID, Filter{Since: since, Limit: limit}, true)
}

// ListTimeline returns events matching the filter, newest first.
func (r *Repo) ListTimeline(ctx context.Context, userID uuid.UUID, f Filter) ([]domain.Event, error) {
	return r.list(ctx, userID, f, false)
}

func (r *Repo) list(ctx context.Context, userID uuid.UUID, f Filter, chronological bool) ([]domain.Event, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	builder := psql.Select(columns).
		From("events").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC", "id DESC")

	if len(f.Types) > 0 {
		builder = builder.Where(sq.Eq{"event_type": f.Types})
	}
	if len(f.Severities) > 0 {
		builder = builder.Where(sq.Eq{"severity": f.Severities})
	}
	if !f.Since.IsZero() {
		builder = builder.Where(sq.GtOrEq{"created_at": f.Since})
	}
	if f.Limit > 0 {
		builder = builder.Limit(uint64(f.Limit))
	}

	sql, args, err := builder.ToSql()
	if err != nil {
		return nil, postgres.MapError(err, "event", uuid.Nil)
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, postgres.MapError(err, "event", uuid.Nil)
	}

	events, err := scanEvents(rows)
	if err != nil {
		return nil, postgres.MapError(err, "event", uuid.Nil)
	}

	if chronological {
		for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
			events[i], events[j] = events[j], events[i]
		}
	}
	return events, nil
}

func scanEvents(rows pgx.Rows) ([]domain.Event, error) {
	defer rows.Close()

	events := []domain.Event{}
	for rows.Next() {
		var (
			e       domain.Event
			rawTags []byte
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.SourceMessageID, &e.Type, &e.Title, &e.Details, &e.Severity, &e.TimeRef, &rawTags, &e.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(rawTags, &e.Tags); err != nil {
			return nil, fmt.Errorf("decode tags: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
