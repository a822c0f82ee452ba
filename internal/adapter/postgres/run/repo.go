// Package run implements the pipeline run audit repository using
// PostgreSQL. Rows are write-once.
package run

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/heartmarshall/pulsepal-backend/internal/adapter/postgres"
	"github.com/heartmarshall/pulsepal-backend/internal/domain"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const columns = "id, user_id, kind, operation, provider_used, latency_ms, status, fallback_reason, created_at"

// Repo provides pipeline run persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new run repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Create appends an audit record. ID and CreatedAt are assigned here when
// unset so the gateway does not have to care.
func (r *Repo) Create(ctx context.Context, run domain.PipelineRun) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	sql, args, err := psql.Insert("pipeline_runs").
		Columns("id", "user_id", "kind", "operation", "provider_used", "latency_ms", "status", "fallback_reason", "created_at").
		Values(run.ID, run.UserID, run.Kind, run.Operation, run.ProviderUsed, run.LatencyMS, run.Status, run.FallbackReason, run.CreatedAt).
		ToSql()
	if err != nil {
		return postgres.MapError(err, "pipeline_run", run.ID)
	}

	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, "pipeline_run", run.ID)
	}
	return nil
}

// ListRecent returns the newest runs for the user, newest first.
func (r *Repo) ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]domain.PipelineRun, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	builder := psql.Select(columns).
		From("pipeline_runs").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC", "id DESC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	sql, args, err := builder.ToSql()
	if err != nil {
		return nil, postgres.MapError(err, "pipeline_run", uuid.Nil)
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, postgres.MapError(err, "pipeline_run", uuid.Nil)
	}
	defer rows.Close()

	runs := []domain.PipelineRun{}
	for rows.Next() {
		var pr domain.PipelineRun
		if err := rows.Scan(&pr.ID, &pr.UserID, &pr.Kind, &pr.Operation, &pr.ProviderUsed, &pr.LatencyMS, &pr.Status, &pr.FallbackReason, &pr.CreatedAt); err != nil {
			return nil, postgres.MapError(err, "pipeline_run", uuid.Nil)
		}
		runs = append(runs, pr)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.MapError(err, "pipeline_run", uuid.Nil)
	}
	return runs, nil
}
