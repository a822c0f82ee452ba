package rest

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/heartmarshall/pulsepal-backend/internal/config"
	"github.com/heartmarshall/pulsepal-backend/internal/transport/middleware"
)

// authRateLimit caps login attempts per IP per minute.
const authRateLimit = 20

// tokenValidator resolves bearer tokens into user ids.
type tokenValidator interface {
	ValidateAccessToken(token string) (uuid.UUID, error)
}

// NewRouter builds the HTTP handler with the full middleware chain.
// Everything under /api/v1 except auth requires a bearer token.
func NewRouter(
	logger *slog.Logger,
	corsCfg config.CORSConfig,
	validator tokenValidator,
	limiter *middleware.RateLimiter,
	authH *AuthHandler,
	chatH *ChatHandler,
	insightsH *InsightsHandler,
	healthH *HealthHandler,
) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health/live", healthH.Live)
	mux.HandleFunc("GET /health", healthH.Health)

	authLimit := limiter.Limit(authRateLimit)
	mux.Handle("POST /api/v1/auth/signup", authLimit(http.HandlerFunc(authH.Signup)))
	mux.Handle("POST /api/v1/auth/login", authLimit(http.HandlerFunc(authH.Login)))
	mux.Handle("POST /api/v1/auth/demo", authLimit(http.HandlerFunc(authH.DemoLogin)))

	protected := func(h http.HandlerFunc) http.Handler {
		return middleware.RequireAuth(h)
	}
	mux.Handle("POST /api/v1/chat/send", protected(chatH.Send))
	mux.Handle("GET /api/v1/chat/thread", protected(chatH.Thread))
	mux.Handle("POST /api/v1/daily/run", protected(insightsH.RunDaily))
	mux.Handle("GET /api/v1/insights/latest", protected(insightsH.LatestReport))
	mux.Handle("GET /api/v1/insights/reports", protected(insightsH.ListReports))
	mux.Handle("GET /api/v1/timeline", protected(insightsH.Timeline))
	mux.Handle("GET /api/v1/runs", protected(insightsH.ListRuns))
	mux.Handle("POST /api/v1/feedback", protected(insightsH.RecordFeedback))

	chain := middleware.Chain(
		middleware.RequestID,
		middleware.Logger(logger),
		middleware.Recovery(logger),
		middleware.CORS(corsCfg),
		middleware.Auth(validator),
	)
	return chain(mux)
}
