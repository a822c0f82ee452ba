package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/heartmarshall/pulsepal-backend/internal/adapter/postgres"
	eventrepo "github.com/heartmarshall/pulsepal-backend/internal/adapter/postgres/event"
	feedbackrepo "github.com/heartmarshall/pulsepal-backend/internal/adapter/postgres/feedback"
	memoryrepo "github.com/heartmarshall/pulsepal-backend/internal/adapter/postgres/memory"
	messagerepo "github.com/heartmarshall/pulsepal-backend/internal/adapter/postgres/message"
	reportrepo "github.com/heartmarshall/pulsepal-backend/internal/adapter/postgres/report"
	runrepo "github.com/heartmarshall/pulsepal-backend/internal/adapter/postgres/run"
	userrepo "github.com/heartmarshall/pulsepal-backend/internal/adapter/postgres/user"
	"github.com/heartmarshall/pulsepal-backend/internal/adapter/provider/airia"
	"github.com/heartmarshall/pulsepal-backend/internal/adapter/provider/anthropic"
	"github.com/heartmarshall/pulsepal-backend/internal/adapter/provider/gemini"
	"github.com/heartmarshall/pulsepal-backend/internal/adapter/provider/local"
	authjwt "github.com/heartmarshall/pulsepal-backend/internal/auth"
	"github.com/heartmarshall/pulsepal-backend/internal/config"
	"github.com/heartmarshall/pulsepal-backend/internal/gateway"
	"github.com/heartmarshall/pulsepal-backend/internal/provider"
	"github.com/heartmarshall/pulsepal-backend/internal/scheduler"
	authsvc "github.com/heartmarshall/pulsepal-backend/internal/service/auth"
	"github.com/heartmarshall/pulsepal-backend/internal/service/chat"
	"github.com/heartmarshall/pulsepal-backend/internal/service/daily"
	"github.com/heartmarshall/pulsepal-backend/internal/service/history"
	"github.com/heartmarshall/pulsepal-backend/internal/transport/middleware"
	"github.com/heartmarshall/pulsepal-backend/internal/transport/rest"
	"github.com/heartmarshall/pulsepal-backend/pkg/usermutex"
)

// lockShards sizes the per-user lock arena.
const lockShards = 64

// Run is the application entry point. It loads configuration, wires the
// repositories, providers and services, starts the scheduler, and serves
// HTTP until ctx is canceled.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)

	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
	)

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("app: connect database: %w", err)
	}
	defer pool.Close()

	users := userrepo.New(pool)
	messages := messagerepo.New(pool)
	events := eventrepo.New(pool)
	memory := memoryrepo.New(pool)
	reports := reportrepo.New(pool)
	runs := runrepo.New(pool)
	feedback := feedbackrepo.New(pool)
	tx := postgres.NewTxManager(pool)

	providers := BuildProviders(logger, cfg.Providers)
	gw := gateway.New(logger, providers, local.New(), runs, gateway.Config{
		Timeouts: map[provider.Operation]time.Duration{
			provider.OpExtract:      cfg.Pipeline.ProviderTimeout,
			provider.OpRespond:      cfg.Pipeline.ProviderTimeout,
			provider.OpDailyAnalyze: cfg.Daily.ProviderTimeout,
		},
	})

	// Chat and daily share one arena so concurrent memory merges for the
	// same user serialize regardless of which pipeline they come from.
	locks := usermutex.New(lockShards)

	jwtMgr := authjwt.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.AccessTokenTTL)

	chatSvc := chat.NewService(logger, messages, events, memory, reports, tx, gw, locks, cfg.Pipeline)
	dailySvc := daily.NewService(logger, messages, events, memory, reports, feedback, tx, gw, locks, cfg.Daily)
	historySvc := history.NewService(logger, messages, events, reports, feedback, runs)
	authSvc := authsvc.NewService(logger, users, memory, tx, jwtMgr, cfg.Auth)

	sched := scheduler.New(logger, users, reports, dailySvc, cfg.Daily)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("app: start scheduler: %w", err)
	}
	defer sched.Stop()

	limiter := middleware.NewRateLimiter(time.Minute)
	defer limiter.Stop()

	router := rest.NewRouter(
		logger,
		cfg.CORS,
		jwtMgr,
		limiter,
		rest.NewAuthHandler(authSvc, logger),
		rest.NewChatHandler(chatSvc, historySvc, logger),
		rest.NewInsightsHandler(dailySvc, historySvc, logger),
		rest.NewHealthHandler(pool, BuildVersion(), providerFlags(cfg.Providers)),
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("app: http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("app: shutdown: %w", err)
	}

	return nil
}

// BuildProviders assembles the provider chain in configured order,
// skipping entries without credentials.
func BuildProviders(logger *slog.Logger, cfg config.ProvidersConfig) []gateway.Caller {
	var chain []gateway.Caller
	for _, name := range cfg.Order {
		switch name {
		case "airia":
			if !cfg.Airia.Configured() {
				logger.Warn("provider not configured, skipping", slog.String("provider", name))
				continue
			}
			chain = append(chain, airia.New(airia.Config{
				BaseURL:        cfg.Airia.BaseURL,
				APIKey:         cfg.Airia.APIKey,
				MessageAgentID: cfg.Airia.MessageAgentID,
				DailyAgentID:   cfg.Airia.DailyAgentID,
			}, logger))
		case "gemini":
			if !cfg.Gemini.Configured() {
				logger.Warn("provider not configured, skipping", slog.String("provider", name))
				continue
			}
			chain = append(chain, gemini.New(gemini.Config{
				APIKey: cfg.Gemini.APIKey,
				Model:  cfg.Gemini.Model,
			}, logger))
		case "anthropic":
			if !cfg.Anthropic.Configured() {
				logger.Warn("provider not configured, skipping", slog.String("provider", name))
				continue
			}
			chain = append(chain, anthropic.New(anthropic.Config{
				APIKey:    cfg.Anthropic.APIKey,
				Model:     cfg.Anthropic.Model,
				MaxTokens: cfg.Anthropic.MaxTokens,
			}, logger))
		default:
			logger.Warn("unknown provider in chain, skipping", slog.String("provider", name))
		}
	}
	return chain
}

// providerFlags reports which providers carry credentials, for /health.
func providerFlags(cfg config.ProvidersConfig) map[string]bool {
	return map[string]bool{
		"airia":     cfg.Airia.Configured(),
		"gemini":    cfg.Gemini.Configured(),
		"anthropic": cfg.Anthropic.Configured(),
	}
}
