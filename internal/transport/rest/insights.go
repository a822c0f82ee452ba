package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/pulsepal-backend/internal/domain"
	"github.com/heartmarshall/pulsepal-backend/internal/service/daily"
	"github.com/heartmarshall/pulsepal-backend/internal/service/history"
	"github.com/heartmarshall/pulsepal-backend/pkg/ctxutil"
)

// dailyService runs the daily aggregation pipeline on demand.
type dailyService interface {
	RunDaily(ctx context.Context, userID uuid.UUID, days int) (*daily.Result, error)
}

// historyService reads reports, the event timeline and run audit records,
// and stores feedback.
type historyService interface {
	Timeline(ctx context.Context, filter history.TimelineFilter) ([]domain.Event, error)
	LatestReport(ctx context.Context) (*domain.DailyReport, error)
	ListReports(ctx context.Context, limit int) ([]domain.DailyReport, error)
	ListRuns(ctx context.Context, limit int) ([]domain.PipelineRun, error)
	RecordFeedback(ctx context.Context, in history.FeedbackInput) (*domain.Feedback, error)
}

// InsightsHandler serves reports, timeline, runs and feedback endpoints.
type InsightsHandler struct {
	daily   dailyService
	history historyService
	log     *slog.Logger
}

// NewInsightsHandler creates an InsightsHandler.
func NewInsightsHandler(dailySvc dailyService, historySvc historyService, logger *slog.Logger) *InsightsHandler {
	return &InsightsHandler{
		daily:   dailySvc,
		history: historySvc,
		log:     logger.With(slog.String("handler", "insights")),
	}
}

type runDailyRequest struct {
	Days int `json:"days"`
}

type reportResponse struct {
	ID                 string           `json:"id"`
	GeneratedAt        time.Time        `json:"generated_at"`
	PatternSummary     []string         `json:"pattern_summary"`
	WhatChanged        []string         `json:"what_changed,omitempty"`
	SuggestedNextSteps []string         `json:"suggested_next_steps,omitempty"`
	TomorrowQuestions  []string         `json:"tomorrow_questions,omitempty"`
	CheckInMessage     string           `json:"check_in_message"`
	RiskLevel          string           `json:"risk_level"`
	MemoryPatchApplied bool             `json:"memory_patch_applied"`
	Stats              domain.DailyStats `json:"stats"`
}

type runResponse struct {
	ID             string    `json:"id"`
	Kind           string    `json:"kind"`
	Operation      string    `json:"operation"`
	ProviderUsed   string    `json:"provider_used"`
	LatencyMS      int64     `json:"latency_ms"`
	Status         string    `json:"status"`
	FallbackReason string    `json:"fallback_reason,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

type feedbackRequest struct {
	MessageID     string `json:"message_id"`
	DailyReportID string `json:"daily_report_id"`
	Helpful       bool   `json:"helpful"`
	Notes         string `json:"notes"`
}

type feedbackResponse struct {
	ID        string    `json:"id"`
	Helpful   bool      `json:"helpful"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toReportResponse(rep *domain.DailyReport) reportResponse {
	return reportResponse{
		ID:                 rep.ID.String(),
		GeneratedAt:        rep.GeneratedAt,
		PatternSummary:     rep.PatternSummary,
		WhatChanged:        rep.WhatChanged,
		SuggestedNextSteps: rep.SuggestedNextSteps,
		TomorrowQuestions:  rep.TomorrowQuestions,
		CheckInMessage:     rep.CheckInMessage,
		RiskLevel:          string(rep.RiskLevel),
		MemoryPatchApplied: rep.MemoryPatchApplied,
		Stats:              rep.Stats,
	}
}

// RunDaily handles POST /api/v1/daily/run. Manual runs always execute,
// regardless of when the last scheduled report was generated.
func (h *InsightsHandler) RunDaily(w http.ResponseWriter, r *http.Request) {
	userID, ok := ctxutil.UserIDFromCtx(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req runDailyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.daily.RunDaily(r.Context(), userID, req.Days)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"report":   toReportResponse(&res.Report),
		"provider": res.Provider,
	})
}

// LatestReport handles GET /api/v1/insights/latest.
func (h *InsightsHandler) LatestReport(w http.ResponseWriter, r *http.Request) {
	rep, err := h.history.LatestReport(r.Context())
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toReportResponse(rep))
}

// ListReports handles GET /api/v1/insights/reports.
func (h *InsightsHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 20)

	reports, err := h.history.ListReports(r.Context(), limit)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	out := make([]reportResponse, 0, len(reports))
	for i := range reports {
		out = append(out, toReportResponse(&reports[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"reports": out})
}

// Timeline handles GET /api/v1/timeline. Filters come from query
// parameters: days, type (repeatable), severity (repeatable), limit.
func (h *InsightsHandler) Timeline(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := history.TimelineFilter{
		Days:  queryInt(r, "days", 0),
		Limit: queryInt(r, "limit", 0),
	}
	for _, raw := range q["type"] {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				filter.Types = append(filter.Types, domain.EventType(part))
			}
		}
	}
	for _, raw := range q["severity"] {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				filter.Severities = append(filter.Severities, domain.Severity(part))
			}
		}
	}

	events, err := h.history.Timeline(r.Context(), filter)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	out := make([]eventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, toEventResponse(e))
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": out})
}

// ListRuns handles GET /api/v1/runs.
func (h *InsightsHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)

	runs, err := h.history.ListRuns(r.Context(), limit)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	out := make([]runResponse, 0, len(runs))
	for _, run := range runs {
		out = append(out, runResponse{
			ID:             run.ID.String(),
			Kind:           string(run.Kind),
			Operation:      run.Operation,
			ProviderUsed:   run.ProviderUsed,
			LatencyMS:      run.LatencyMS,
			Status:         string(run.Status),
			FallbackReason: run.FallbackReason,
			CreatedAt:      run.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": out})
}

// RecordFeedback handles POST /api/v1/feedback.
func (h *InsightsHandler) RecordFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	in := history.FeedbackInput{
		Helpful: req.Helpful,
		Notes:   req.Notes,
	}
	if req.MessageID != "" {
		id, err := uuid.Parse(req.MessageID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid message_id")
			return
		}
		in.MessageID = &id
	}
	if req.DailyReportID != "" {
		id, err := uuid.Parse(req.DailyReportID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid daily_report_id")
			return
		}
		in.DailyReportID = &id
	}

	f, err := h.history.RecordFeedback(r.Context(), in)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, feedbackResponse{
		ID:        f.ID.String(),
		Helpful:   f.Helpful,
		Notes:     f.Notes,
		CreatedAt: f.CreatedAt,
	})
}
