package rest

import (
	"context"
	"net/http"
	"time"
)

// dbPinger defines the minimal interface for DB health checks.
type dbPinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves health check endpoints.
type HealthHandler struct {
	db        dbPinger
	version   string
	providers map[string]bool
}

// NewHealthHandler creates a HealthHandler. providers maps provider ids
// to whether their credentials are configured, so a glance at /health
// shows which chain links are live.
func NewHealthHandler(db dbPinger, version string, providers map[string]bool) *HealthHandler {
	return &HealthHandler{db: db, version: version, providers: providers}
}

// HealthResponse is the JSON response for /health and /ready.
type HealthResponse struct {
	Status    string          `json:"status"`
	Version   string          `json:"version,omitempty"`
	Database  string          `json:"database,omitempty"`
	Providers map[string]bool `json:"providers,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Live is the liveness probe. Always returns 200.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
	})
}

// Health is the full health check: DB ping plus provider configuration
// flags.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := "ok"
	database := "ok"
	code := http.StatusOK
	if err := h.db.Ping(ctx); err != nil {
		status = "down"
		database = "down"
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, HealthResponse{
		Status:    status,
		Version:   h.version,
		Database:  database,
		Providers: h.providers,
		Timestamp: time.Now().UTC(),
	})
}
