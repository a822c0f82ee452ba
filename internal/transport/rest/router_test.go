package rest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/pulsepal-backend/internal/config"
	"github.com/heartmarshall/pulsepal-backend/internal/domain"
	"github.com/heartmarshall/pulsepal-backend/internal/transport/middleware"
	"github.com/heartmarshall/pulsepal-backend/pkg/ctxutil"
)

type routerValidatorMock struct {
	userID uuid.UUID
}

func (m *routerValidatorMock) ValidateAccessToken(token string) (uuid.UUID, error) {
	if token == "good" {
		return m.userID, nil
	}
	return uuid.Nil, errors.New("invalid token")
}

func newTestRouter(t *testing.T, userID uuid.UUID, threadSvc threadService) http.Handler {
	t.Helper()

	limiter := middleware.NewRateLimiter(time.Minute)
	t.Cleanup(limiter.Stop)

	return NewRouter(
		testLogger(),
		config.CORSConfig{AllowedOrigins: "*"},
		&routerValidatorMock{userID: userID},
		limiter,
		NewAuthHandler(&authServiceMock{}, testLogger()),
		NewChatHandler(&chatServiceMock{}, threadSvc, testLogger()),
		NewInsightsHandler(&dailyServiceMock{}, &historyServiceMock{}, testLogger()),
		NewHealthHandler(&dbPingerMock{}, "test", nil),
	)
}

func TestRouter_ProtectedRouteRequiresToken(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, uuid.New(), &threadServiceMock{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/chat/thread", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
}

func TestRouter_ProtectedRouteWithToken(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	threadSvc := &threadServiceMock{
		ThreadFunc: func(ctx context.Context, _ int) ([]domain.Message, error) {
			got, ok := ctxutil.UserIDFromCtx(ctx)
			if !ok || got != userID {
				t.Errorf("expected user %s on context, got %v (ok=%v)", userID, got, ok)
			}
			return nil, nil
		},
	}
	router := newTestRouter(t, userID, threadSvc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/chat/thread", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRouter_HealthIsPublic(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, uuid.New(), &threadServiceMock{})

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
}
