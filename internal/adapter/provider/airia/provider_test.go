package airia

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/pulsepal-backend/internal/provider"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestProvider_Invoke_Extract(t *testing.T) {
	t.Parallel()

	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/agents/msg-agent/invoke", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"events": [], "risk_flags": []}`))
	}))
	defer server.Close()

	p := New(Config{
		BaseURL:        server.URL,
		APIKey:         "secret",
		MessageAgentID: "msg-agent",
		DailyAgentID:   "daily-agent",
	}, testLogger())

	raw, err := p.Invoke(context.Background(), provider.OpExtract, provider.ExtractPayload{UserMessage: "feeling dizzy"})
	require.NoError(t, err)
	assert.True(t, json.Valid(raw))

	assert.Equal(t, "extract", gotBody["mode"])
	assert.Equal(t, "feeling dizzy", gotBody["user_message"])
}

func TestProvider_Invoke_DailyUsesDailyAgent(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/agents/daily-agent/invoke", r.URL.Path)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	p := New(Config{
		BaseURL:        server.URL,
		APIKey:         "secret",
		MessageAgentID: "msg-agent",
		DailyAgentID:   "daily-agent",
	}, testLogger())

	_, err := p.Invoke(context.Background(), provider.OpDailyAnalyze, provider.DailyPayload{})
	require.NoError(t, err)
}

func TestProvider_Invoke_MissingAgent(t *testing.T) {
	t.Parallel()

	p := New(Config{BaseURL: "http://localhost", APIKey: "secret"}, testLogger())

	_, err := p.Invoke(context.Background(), provider.OpRespond, provider.RespondPayload{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no agent configured")
}

func TestProvider_Invoke_RetriesOn5xx(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.NotEmpty(t, body, "retry replays the request body")
		_, _ = w.Write([]byte(`{"reply": "ok"}`))
	}))
	defer server.Close()

	p := New(Config{BaseURL: server.URL, APIKey: "secret", MessageAgentID: "a"}, testLogger())

	raw, err := p.Invoke(context.Background(), provider.OpRespond, provider.RespondPayload{UserMessage: "hi"})
	require.NoError(t, err)
	assert.True(t, json.Valid(raw))
	assert.Equal(t, int32(2), calls.Load())
}

func TestProvider_Invoke_Non200(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	p := New(Config{BaseURL: server.URL, APIKey: "bad", MessageAgentID: "a"}, testLogger())

	_, err := p.Invoke(context.Background(), provider.OpExtract, provider.ExtractPayload{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestProvider_Invoke_InvalidJSONBody(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer server.Close()

	p := New(Config{BaseURL: server.URL, APIKey: "k", MessageAgentID: "a"}, testLogger())

	_, err := p.Invoke(context.Background(), provider.OpExtract, provider.ExtractPayload{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not valid json")
}
