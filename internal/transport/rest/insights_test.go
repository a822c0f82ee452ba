package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/pulsepal-backend/internal/domain"
	"github.com/heartmarshall/pulsepal-backend/internal/service/daily"
	"github.com/heartmarshall/pulsepal-backend/internal/service/history"
	"github.com/heartmarshall/pulsepal-backend/pkg/ctxutil"
)

type dailyServiceMock struct {
	RunDailyFunc func(ctx context.Context, userID uuid.UUID, days int) (*daily.Result, error)
}

func (m *dailyServiceMock) RunDaily(ctx context.Context, userID uuid.UUID, days int) (*daily.Result, error) {
	return m.RunDailyFunc(ctx, userID, days)
}

type historyServiceMock struct {
	TimelineFunc       func(ctx context.Context, filter history.TimelineFilter) ([]domain.Event, error)
	LatestReportFunc   func(ctx context.Context) (*domain.DailyReport, error)
	ListReportsFunc    func(ctx context.Context, limit int) ([]domain.DailyReport, error)
	ListRunsFunc       func(ctx context.Context, limit int) ([]domain.PipelineRun, error)
	RecordFeedbackFunc func(ctx context.Context, in history.FeedbackInput) (*domain.Feedback, error)
}

func (m *historyServiceMock) Timeline(ctx context.Context, filter history.TimelineFilter) ([]domain.Event, error) {
	return m.TimelineFunc(ctx, filter)
}

func (m *historyServiceMock) LatestReport(ctx context.Context) (*domain.DailyReport, error) {
	return m.LatestReportFunc(ctx)
}

func (m *historyServiceMock) ListReports(ctx context.Context, limit int) ([]domain.DailyReport, error) {
	return m.ListReportsFunc(ctx, limit)
}

func (m *historyServiceMock) ListRuns(ctx context.Context, limit int) ([]domain.PipelineRun, error) {
	return m.ListRunsFunc(ctx, limit)
}

func (m *historyServiceMock) RecordFeedback(ctx context.Context, in history.FeedbackInput) (*domain.Feedback, error) {
	return m.RecordFeedbackFunc(ctx, in)
}

func authedRequest(method, target string, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	return req.WithContext(ctxutil.WithUserID(req.Context(), uuid.New()))
}

func testReport() domain.DailyReport {
	return domain.DailyReport{
		ID:             uuid.New(),
		UserID:         uuid.New(),
		GeneratedAt:    time.Now().UTC(),
		PatternSummary: []string{"sleep showed up 5 times recently"},
		CheckInMessage: "How did you sleep last night?",
		RiskLevel:      domain.RiskLevelLow,
		Stats: domain.DailyStats{
			WindowDays: 30,
			EventCount: 5,
		},
	}
}

func TestRunDaily_Success(t *testing.T) {
	t.Parallel()

	dailySvc := &dailyServiceMock{
		RunDailyFunc: func(_ context.Context, userID uuid.UUID, days int) (*daily.Result, error) {
			if userID == uuid.Nil {
				t.Error("expected user id from context")
			}
			if days != 7 {
				t.Errorf("expected days 7, got %d", days)
			}
			return &daily.Result{Report: testReport(), Provider: "local"}, nil
		},
	}
	h := NewInsightsHandler(dailySvc, &historyServiceMock{}, testLogger())

	req := authedRequest(http.MethodPost, "/api/v1/daily/run", `{"days":7}`)
	rec := httptest.NewRecorder()

	h.RunDaily(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Report   reportResponse `json:"report"`
		Provider string         `json:"provider"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Provider != "local" {
		t.Errorf("expected provider attribution, got %q", resp.Provider)
	}
	if resp.Report.Stats.WindowDays != 30 {
		t.Errorf("expected stats in response, got %+v", resp.Report.Stats)
	}
}

func TestRunDaily_EmptyBodyUsesDefaultWindow(t *testing.T) {
	t.Parallel()

	dailySvc := &dailyServiceMock{
		RunDailyFunc: func(_ context.Context, _ uuid.UUID, days int) (*daily.Result, error) {
			if days != 0 {
				t.Errorf("expected days 0 (service default), got %d", days)
			}
			return &daily.Result{Report: testReport(), Provider: "local"}, nil
		},
	}
	h := NewInsightsHandler(dailySvc, &historyServiceMock{}, testLogger())

	req := authedRequest(http.MethodPost, "/api/v1/daily/run", "")
	rec := httptest.NewRecorder()

	h.RunDaily(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rec.Code)
	}
}

func TestRunDaily_Anonymous(t *testing.T) {
	t.Parallel()

	h := NewInsightsHandler(&dailyServiceMock{}, &historyServiceMock{}, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/daily/run", nil)
	rec := httptest.NewRecorder()

	h.RunDaily(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
}

func TestLatestReport_NotFound(t *testing.T) {
	t.Parallel()

	historySvc := &historyServiceMock{
		LatestReportFunc: func(_ context.Context) (*domain.DailyReport, error) {
			return nil, fmt.Errorf("history.LatestReport: %w", domain.ErrNotFound)
		},
	}
	h := NewInsightsHandler(&dailyServiceMock{}, historySvc, testLogger())

	req := authedRequest(http.MethodGet, "/api/v1/insights/latest", "")
	rec := httptest.NewRecorder()

	h.LatestReport(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func TestTimeline_ParsesFilters(t *testing.T) {
	t.Parallel()

	historySvc := &historyServiceMock{
		TimelineFunc: func(_ context.Context, filter history.TimelineFilter) ([]domain.Event, error) {
			if filter.Days != 14 {
				t.Errorf("expected days 14, got %d", filter.Days)
			}
			if len(filter.Types) != 2 || filter.Types[0] != domain.EventTypeSymptom || filter.Types[1] != domain.EventTypeSleep {
				t.Errorf("unexpected types: %v", filter.Types)
			}
			if len(filter.Severities) != 1 || filter.Severities[0] != domain.SeverityHigh {
				t.Errorf("unexpected severities: %v", filter.Severities)
			}
			return nil, nil
		},
	}
	h := NewInsightsHandler(&dailyServiceMock{}, historySvc, testLogger())

	req := authedRequest(http.MethodGet, "/api/v1/timeline?days=14&type=symptom,sleep&severity=high", "")
	rec := httptest.NewRecorder()

	h.Timeline(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
}

func TestTimeline_UnknownTypeRejected(t *testing.T) {
	t.Parallel()

	historySvc := &historyServiceMock{
		TimelineFunc: func(_ context.Context, filter history.TimelineFilter) ([]domain.Event, error) {
			return nil, domain.NewValidationError("type", "unknown event type")
		},
	}
	h := NewInsightsHandler(&dailyServiceMock{}, historySvc, testLogger())

	req := authedRequest(http.MethodGet, "/api/v1/timeline?type=banana", "")
	rec := httptest.NewRecorder()

	h.Timeline(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestRecordFeedback_MessageScoped(t *testing.T) {
	t.Parallel()

	msgID := uuid.New()
	historySvc := &historyServiceMock{
		RecordFeedbackFunc: func(_ context.Context, in history.FeedbackInput) (*domain.Feedback, error) {
			if in.MessageID == nil || *in.MessageID != msgID {
				t.Errorf("expected message id %s, got %v", msgID, in.MessageID)
			}
			if in.DailyReportID != nil {
				t.Error("expected nil daily report id")
			}
			return &domain.Feedback{
				ID:        uuid.New(),
				MessageID: in.MessageID,
				Helpful:   in.Helpful,
				Notes:     in.Notes,
				CreatedAt: time.Now().UTC(),
			}, nil
		},
	}
	h := NewInsightsHandler(&dailyServiceMock{}, historySvc, testLogger())

	body := fmt.Sprintf(`{"message_id":%q,"helpful":true,"notes":"spot on"}`, msgID)
	req := authedRequest(http.MethodPost, "/api/v1/feedback", body)
	rec := httptest.NewRecorder()

	h.RecordFeedback(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRecordFeedback_BadUUID(t *testing.T) {
	t.Parallel()

	h := NewInsightsHandler(&dailyServiceMock{}, &historyServiceMock{}, testLogger())

	req := authedRequest(http.MethodPost, "/api/v1/feedback", `{"message_id":"not-a-uuid"}`)
	rec := httptest.NewRecorder()

	h.RecordFeedback(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestListRuns_Success(t *testing.T) {
	t.Parallel()

	historySvc := &historyServiceMock{
		ListRunsFunc: func(_ context.Context, limit int) ([]domain.PipelineRun, error) {
			return []domain.PipelineRun{{
				ID:             uuid.New(),
				Kind:           domain.RunKindMessage,
				Operation:      "extract",
				ProviderUsed:   "local",
				Status:         domain.RunStatusFallback,
				FallbackReason: "all providers failed",
				CreatedAt:      time.Now().UTC(),
			}}, nil
		},
	}
	h := NewInsightsHandler(&dailyServiceMock{}, historySvc, testLogger())

	req := authedRequest(http.MethodGet, "/api/v1/runs", "")
	rec := httptest.NewRecorder()

	h.ListRuns(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var resp struct {
		Runs []runResponse `json:"runs"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Runs) != 1 || resp.Runs[0].Status != "fallback" {
		t.Errorf("unexpected runs: %+v", resp.Runs)
	}
}
