// Package report implements the daily report repository using PostgreSQL.
// Reports are append-only; a new run adds a new row.
package report

import (
	"context"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/heartmarshall/pulsepal-backend/internal/adapter/postgres"
	"github.com/heartmarshall/pulsepal-backend/internal/domain"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const columns = "id, user_id, generated_at, pattern_summary, what_changed, suggested_next_steps, tomorrow_questions, check_in_message, risk_level, memory_patch_applied, stats"

// Repo provides daily report persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new report repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Create appends a report.
func (r *Repo) Create(ctx context.Context, rep domain.DailyReport) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	summary, changed, steps, questions, stats, err := encodeFields(rep)
	if err != nil {
		return fmt.Errorf("daily_report %s: %w", rep.ID, err)
	}

	sql, args, err := psql.Insert("daily_reports").
		Columns("id", "user_id", "generated_at", "pattern_summary", "what_changed", "suggested_next_steps", "tomorrow_questions", "check_in_message", "risk_level", "memory_patch_applied", "stats").
		Values(rep.ID, rep.UserID, rep.GeneratedAt, summary, changed, steps, questions, rep.CheckInMessage, rep.RiskLevel, rep.MemoryPatchApplied, stats).
		ToSql()
	if err != nil {
		return postgres.MapError(err, "daily_report", rep.ID)
	}

	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, "daily_report", rep.ID)
	}
	return nil
}

// GetLatest returns the most recent report for the user.
// Returns domain.ErrNotFound when the user has no reports yet.
func (r *Repo) GetLatest(ctx context.Context, userID uuid.UUID) (*domain.DailyReport, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := psql.Select(columns).
		From("daily_reports").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("generated_at DESC", "id DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, postgres.MapError(err, "daily_report", uuid.Nil)
	}

	rep, err := scanReport(q.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, postgres.MapError(err, "daily_report", uuid.Nil)
	}
	return rep, nil
}

// List returns reports for the user, newest first.
func (r *Repo) List(ctx context.Context, userID uuid.UUID, limit int) ([]domain.DailyReport, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	builder := psql.Select(columns).
		From("daily_reports").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("generated_at DESC", "id DESC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	sql, args, err := builder.ToSql()
	if err != nil {
		return nil, postgres.MapError(err, "daily_report", uuid.Nil)
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, postgres.MapError(err, "daily_report", uuid.Nil)
	}
	defer rows.Close()

	reports := []domain.DailyReport{}
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, postgres.MapError(err, "daily_report", uuid.Nil)
		}
		reports = append(reports, *rep)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.MapError(err, "daily_report", uuid.Nil)
	}
	return reports, nil
}

func scanReport(row pgx.Row) (*domain.DailyReport, error) {
	var (
		rep                                      domain.DailyReport
		summary, changed, steps, questions, stats []byte
	)
	err := row.Scan(&rep.ID, &rep.UserID, &rep.GeneratedAt, &summary, &changed, &steps, &questions, &rep.CheckInMessage, &rep.RiskLevel, &rep.MemoryPatchApplied, &stats)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(summary, &rep.PatternSummary); err != nil {
		return nil, fmt.Errorf("decode pattern_summary: %w", err)
	}
	if err := json.Unmarshal(changed, &rep.WhatChanged); err != nil {
		return nil, fmt.Errorf("decode what_changed: %w", err)
	}
	if err := json.Unmarshal(steps, &rep.SuggestedNextSteps); err != nil {
		return nil, fmt.Errorf("decode suggested_next_steps: %w", err)
	}
	if err := json.Unmarshal(questions, &rep.TomorrowQuestions); err != nil {
		return nil, fmt.Errorf("decode tomorrow_questions: %w", err)
	}
	if err := json.Unmarshal(stats, &rep.Stats); err != nil {
		return nil, fmt.Errorf("decode stats: %w", err)
	}
	return &rep, nil
}

func encodeFields(rep domain.DailyReport) (summary, changed, steps, questions, stats []byte, err error) {
	if summary, err = json.Marshal(rep.PatternSummary); err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("encode pattern_summary: %w", err)
	}
	if changed, err = json.Marshal(rep.WhatChanged); err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("encode what_changed: %w", err)
	}
	if steps, err = json.Marshal(rep.SuggestedNextSteps); err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("encode suggested_next_steps: %w", err)
	}
	if questions, err = json.Marshal(rep.TomorrowQuestions); err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("encode tomorrow_questions: %w", err)
	}
	if stats, err = json.Marshal(rep.Stats); err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("encode stats: %w", err)
	}
	return summary, changed, steps, questions, stats, nil
}
