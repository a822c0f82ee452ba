// Package airia invokes hosted Airia agents. One agent serves the message
// pipeline (extract and respond modes), a second serves daily analysis.
package airia

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/heartmarshall/pulsepal-backend/internal/provider"
)

// Config holds agent routing for the Airia platform. Operations whose
// agent ID is empty are rejected at invoke time, which lets the gateway
// fall through to the next provider.
type Config struct {
	BaseURL        string
	APIKey         string
	MessageAgentID string
	DailyAgentID   string
}

// Provider calls Airia agent invoke endpoints.
type Provider struct {
	cfg        Config
	httpClient *http.Client
	log        *slog.Logger
}

// New creates a Provider. The client timeout is a backstop; the gateway
// bounds each call through ctx.
func New(cfg Config, logger *slog.Logger) *Provider {
	return &Provider{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        logger.With("adapter", "airia"),
	}
}

func (p *Provider) ID() string { return "airia" }

// Invoke posts the payload to the agent mapped to the operation. The agent
// response body is returned as-is; schema validation happens in the gateway.
func (p *Provider) Invoke(ctx context.Context, op provider.Operation, payload any) (json.RawMessage, error) {
	if p.cfg.BaseURL == "" || p.cfg.APIKey == "" {
		return nil, fmt.Errorf("airia: not configured")
	}

	agentID, mode, err := p.route(op)
	if err != nil {
		return nil, err
	}

	body, err := encodeWithMode(payload, mode)
	if err != nil {
		return nil, fmt.Errorf("airia: encode payload: %w", err)
	}

	reqURL := strings.TrimRight(p.cfg.BaseURL, "/") + "/agents/" + url.PathEscape(agentID) + "/invoke"

	p.log.DebugContext(ctx, "airia request",
		slog.String("operation", op.String()),
		slog.String("agent_id", agentID),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("airia: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.doWithRetry(ctx, req, body)
	if err != nil {
		p.log.WarnContext(ctx, "airia request failed",
			slog.String("operation", op.String()),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("airia: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("airia: unexpected status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("airia: read body: %w", err)
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("airia: response is not valid json")
	}
	return raw, nil
}

func (p *Provider) route(op provider.Operation) (agentID, mode string, err error) {
	switch op {
	case provider.OpExtract:
		agentID, mode = p.cfg.MessageAgentID, "extract"
	case provider.OpRespond:
		agentID, mode = p.cfg.MessageAgentID, "respond"
	case provider.OpDailyAnalyze:
		agentID, mode = p.cfg.DailyAgentID, "daily"
	default:
		return "", "", fmt.Errorf("airia: unknown operation %s", op)
	}
	if agentID == "" {
		return "", "", fmt.Errorf("airia: no agent configured for %s", op)
	}
	return agentID, mode, nil
}

// doWithRetry executes the request with a single retry on 5xx or network
// errors. The request body is replayed from the buffered bytes.
func (p *Provider) doWithRetry(ctx context.Context, req *http.Request, body []byte) (*http.Response, error) {
	resp, err := p.httpClient.Do(req)

	shouldRetry := err != nil || (resp != nil && resp.StatusCode >= 500)
	if !shouldRetry {
		return resp, err
	}

	if ctx.Err() != nil {
		return resp, err
	}

	reason := "network error"
	if err == nil && resp != nil {
		reason = fmt.Sprintf("status %d", resp.StatusCode)
	}
	p.log.WarnContext(ctx, "airia retry", slog.String("reason", reason))

	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	time.Sleep(500 * time.Millisecond)

	retryReq := req.Clone(ctx)
	retryReq.Body = io.NopCloser(bytes.NewReader(body))
	return p.httpClient.Do(retryReq)
}

// encodeWithMode flattens the payload object and adds the agent mode key.
func encodeWithMode(payload any, mode string) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	fields["mode"] = mode
	return json.Marshal(fields)
}
