// Command daily runs the daily insight pipeline on demand, outside the
// in-process scheduler. Useful for backfills and debugging.
//
// Flags:
//
//	--user  user id to run for (default: all users)
//	--days  analysis window in days (default: configured window)
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/pulsepal-backend/internal/adapter/postgres"
	eventrepo "github.com/heartmarshall/pulsepal-backend/internal/adapter/postgres/event"
	feedbackrepo "github.com/heartmarshall/pulsepal-backend/internal/adapter/postgres/feedback"
	memoryrepo "github.com/heartmarshall/pulsepal-backend/internal/adapter/postgres/memory"
	messagerepo "github.com/heartmarshall/pulsepal-backend/internal/adapter/postgres/message"
	reportrepo "github.com/heartmarshall/pulsepal-backend/internal/adapter/postgres/report"
	runrepo "github.com/heartmarshall/pulsepal-backend/internal/adapter/postgres/run"
	userrepo "github.com/heartmarshall/pulsepal-backend/internal/adapter/postgres/user"
	"github.com/heartmarshall/pulsepal-backend/internal/adapter/provider/local"
	"github.com/heartmarshall/pulsepal-backend/internal/app"
	"github.com/heartmarshall/pulsepal-backend/internal/config"
	"github.com/heartmarshall/pulsepal-backend/internal/gateway"
	"github.com/heartmarshall/pulsepal-backend/internal/provider"
	"github.com/heartmarshall/pulsepal-backend/internal/service/daily"
	"github.com/heartmarshall/pulsepal-backend/pkg/usermutex"
)

func main() {
	userFlag := flag.String("user", "", "user id to run for (default: all users)")
	daysFlag := flag.Int("days", 0, "analysis window in days (default: configured window)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("daily: load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log)

	ctx := context.Background()

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Error("connect database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	users := userrepo.New(pool)
	runs := runrepo.New(pool)

	gw := gateway.New(logger, app.BuildProviders(logger, cfg.Providers), local.New(), runs, gateway.Config{
		Timeouts: map[provider.Operation]time.Duration{
			provider.OpDailyAnalyze: cfg.Daily.ProviderTimeout,
		},
	})

	svc := daily.NewService(
		logger,
		messagerepo.New(pool),
		eventrepo.New(pool),
		memoryrepo.New(pool),
		reportrepo.New(pool),
		feedbackrepo.New(pool),
		postgres.NewTxManager(pool),
		gw,
		usermutex.New(16),
		cfg.Daily,
	)

	var targets []uuid.UUID
	if *userFlag != "" {
		id, err := uuid.Parse(*userFlag)
		if err != nil {
			logger.Error("invalid --user", slog.String("error", err.Error()))
			os.Exit(1)
		}
		targets = []uuid.UUID{id}
	} else {
		targets, err = users.ListIDs(ctx)
		if err != nil {
			logger.Error("list users", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	var failed int
	for _, id := range targets {
		res, err := svc.RunDaily(ctx, id, *daysFlag)
		if err != nil {
			failed++
			logger.Error("daily run failed",
				slog.String("user_id", id.String()),
				slog.String("error", err.Error()),
			)
			continue
		}
		logger.Info("daily run complete",
			slog.String("user_id", id.String()),
			slog.String("report_id", res.Report.ID.String()),
			slog.String("provider", res.Provider),
		)
	}

	if failed > 0 {
		logger.Error("some runs failed", slog.Int("failed", failed), slog.Int("total", len(targets)))
		os.Exit(1)
	}
}
