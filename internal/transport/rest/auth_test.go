package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/pulsepal-backend/internal/domain"
	"github.com/heartmarshall/pulsepal-backend/internal/service/auth"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type authServiceMock struct {
	SignupFunc    func(ctx context.Context, email, password, timezone string) (*auth.AuthResult, error)
	LoginFunc     func(ctx context.Context, email, password string) (*auth.AuthResult, error)
	DemoLoginFunc func(ctx context.Context) (*auth.AuthResult, error)
}

func (m *authServiceMock) Signup(ctx context.Context, email, password, timezone string) (*auth.AuthResult, error) {
	return m.SignupFunc(ctx, email, password, timezone)
}

func (m *authServiceMock) Login(ctx context.Context, email, password string) (*auth.AuthResult, error) {
	return m.LoginFunc(ctx, email, password)
}

func (m *authServiceMock) DemoLogin(ctx context.Context) (*auth.AuthResult, error) {
	return m.DemoLoginFunc(ctx)
}

func testAuthResult(email string) *auth.AuthResult {
	return &auth.AuthResult{
		AccessToken: "token-123",
		User: domain.User{
			ID:        uuid.New(),
			Email:     email,
			Timezone:  "UTC",
			CreatedAt: time.Now().UTC(),
		},
	}
}

func TestSignup_Success(t *testing.T) {
	t.Parallel()

	svc := &authServiceMock{
		SignupFunc: func(_ context.Context, email, password, timezone string) (*auth.AuthResult, error) {
			if email != "a@b.com" || password != "hunter22" || timezone != "Europe/Berlin" {
				t.Errorf("unexpected args: %q %q %q", email, password, timezone)
			}
			return testAuthResult(email), nil
		},
	}
	h := NewAuthHandler(svc, testLogger())

	body := `{"email":"a@b.com","password":"hunter22","timezone":"Europe/Berlin"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/signup", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Signup(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rec.Code)
	}

	var resp authResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.AccessToken != "token-123" {
		t.Errorf("expected access token, got %q", resp.AccessToken)
	}
	if resp.User.Email != "a@b.com" {
		t.Errorf("expected user email in response, got %q", resp.User.Email)
	}
}

func TestSignup_ValidationError(t *testing.T) {
	t.Parallel()

	svc := &authServiceMock{
		SignupFunc: func(_ context.Context, _, _, _ string) (*auth.AuthResult, error) {
			return nil, domain.NewValidationError("email", "must be a valid email address")
		},
	}
	h := NewAuthHandler(svc, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/signup", strings.NewReader(`{"email":"nope"}`))
	rec := httptest.NewRecorder()

	h.Signup(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestSignup_DuplicateEmail(t *testing.T) {
	t.Parallel()

	svc := &authServiceMock{
		SignupFunc: func(_ context.Context, _, _, _ string) (*auth.AuthResult, error) {
			return nil, fmt.Errorf("auth.Signup: %w", domain.ErrAlreadyExists)
		},
	}
	h := NewAuthHandler(svc, testLogger())

	body := `{"email":"a@b.com","password":"hunter22"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/signup", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Signup(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", rec.Code)
	}
}

func TestSignup_MalformedBody(t *testing.T) {
	t.Parallel()

	h := NewAuthHandler(&authServiceMock{}, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/signup", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()

	h.Signup(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	t.Parallel()

	svc := &authServiceMock{
		LoginFunc: func(_ context.Context, _, _ string) (*auth.AuthResult, error) {
			return nil, fmt.Errorf("auth.Login: %w", domain.ErrUnauthorized)
		},
	}
	h := NewAuthHandler(svc, testLogger())

	body := `{"email":"a@b.com","password":"wrong"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Login(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
}

func TestDemoLogin_Success(t *testing.T) {
	t.Parallel()

	svc := &authServiceMock{
		DemoLoginFunc: func(_ context.Context) (*auth.AuthResult, error) {
			return testAuthResult("demo@pulsepal.app"), nil
		},
	}
	h := NewAuthHandler(svc, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/demo", nil)
	rec := httptest.NewRecorder()

	h.DemoLogin(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
}
