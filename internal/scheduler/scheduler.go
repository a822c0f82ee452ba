// Package scheduler triggers the daily pipeline on a cron schedule. Each
// sweep iterates all users, skips those with a fresh report, and runs the
// pipeline per user in its own goroutine so one failure never stops the
// rest.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/heartmarshall/pulsepal-backend/internal/config"
	"github.com/heartmarshall/pulsepal-backend/internal/domain"
	"github.com/heartmarshall/pulsepal-backend/internal/service/daily"
)

// userLister defines the user repository interface needed by the scheduler.
type userLister interface {
	ListIDs(ctx context.Context) ([]uuid.UUID, error)
}

// reportReader defines the report repository interface needed by the scheduler.
type reportReader interface {
	GetLatest(ctx context.Context, userID uuid.UUID) (*domain.DailyReport, error)
}

// dailyRunner defines the daily pipeline interface needed by the scheduler.
type dailyRunner interface {
	RunDaily(ctx context.Context, userID uuid.UUID, days int) (*daily.Result, error)
}

// Scheduler owns the cron loop for automatic daily runs.
type Scheduler struct {
	log     *slog.Logger
	users   userLister
	reports reportReader
	runner  dailyRunner
	cfg     config.DailyConfig
	cron    *cron.Cron
}

// New creates a Scheduler. Start must be called to begin sweeping.
func New(
	logger *slog.Logger,
	users userLister,
	reports reportReader,
	runner dailyRunner,
	cfg config.DailyConfig,
) *Scheduler {
	return &Scheduler{
		log:     logger.With("component", "scheduler"),
		users:   users,
		reports: reports,
		runner:  runner,
		cfg:     cfg,
		cron:    cron.New(),
	}
}

// Start registers the cron entry and launches the loop.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.cfg.CronSchedule, func() {
		s.Sweep(context.Background())
	})
	if err != nil {
		return fmt.Errorf("scheduler: invalid cron schedule %q: %w", s.cfg.CronSchedule, err)
	}

	s.cron.Start()
	s.log.Info("scheduler started", slog.String("schedule", s.cfg.CronSchedule))
	return nil
}

// Stop halts the cron loop and waits for in-flight sweeps to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

// Sweep runs the daily pipeline for every user due for a report. Users
// whose latest report is younger than the suppression window are skipped;
// that is the only dedup between scheduled and manual runs.
func (s *Scheduler) Sweep(ctx context.Context) {
	ids, err := s.users.ListIDs(ctx)
	if err != nil {
		s.log.ErrorContext(ctx, "list users for sweep", slog.String("error", err.Error()))
		return
	}

	now := time.Now().UTC()
	var wg sync.WaitGroup
	ran := 0
	for _, userID := range ids {
		due, err := s.isDue(ctx, userID, now)
		if err != nil {
			s.log.ErrorContext(ctx, "check report age",
				slog.String("user_id", userID.String()),
				slog.String("error", err.Error()),
			)
			continue
		}
		if !due {
			continue
		}

		ran++
		wg.Add(1)
		go func(userID uuid.UUID) {
			defer wg.Done()
			if _, err := s.runner.RunDaily(ctx, userID, 0); err != nil {
				s.log.ErrorContext(ctx, "daily run failed",
					slog.String("user_id", userID.String()),
					slog.String("error", err.Error()),
				)
			}
		}(userID)
	}
	wg.Wait()

	s.log.InfoContext(ctx, "sweep complete",
		slog.Int("users", len(ids)),
		slog.Int("ran", ran),
	)
}

func (s *Scheduler) isDue(ctx context.Context, userID uuid.UUID, now time.Time) (bool, error) {
	latest, err := s.reports.GetLatest(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return true, nil
		}
		return false, err
	}
	return now.Sub(latest.GeneratedAt) >= s.cfg.SuppressWithin, nil
}
