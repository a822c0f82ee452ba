// Package gemini calls the Google Generative Language generateContent API
// and extracts the structured JSON the model was instructed to return.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/heartmarshall/pulsepal-backend/internal/provider"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel   = "gemini-1.5-flash"
)

// Config holds API access for the Gemini provider.
type Config struct {
	APIKey string
	Model  string
}

// Provider wraps one Gemini model behind the provider call contract.
type Provider struct {
	baseURL    string
	cfg        Config
	httpClient *http.Client
	log        *slog.Logger
}

// New creates a Provider against the public API endpoint.
func New(cfg Config, logger *slog.Logger) *Provider {
	return NewWithURL(defaultBaseURL, cfg, logger)
}

// NewWithURL creates a Provider with a custom base URL (for testing).
func NewWithURL(baseURL string, cfg Config, logger *slog.Logger) *Provider {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	return &Provider{
		baseURL:    baseURL,
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        logger.With("adapter", "gemini"),
	}
}

func (p *Provider) ID() string { return "gemini" }

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Role  string `json:"role"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Invoke sends the operation prompt plus the serialized payload and returns
// the JSON object embedded in the model's text response.
func (p *Provider) Invoke(ctx context.Context, op provider.Operation, payload any) (json.RawMessage, error) {
	if p.cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: missing api key")
	}

	inputJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("gemini: encode payload: %w", err)
	}

	prompt := provider.SystemPrompt(op) + "\n\nReturn valid JSON only.\nINPUT:\n" + string(inputJSON)

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: encode request: %w", err)
	}

	reqURL := fmt.Sprintf("%s/models/%s:generateContent?key=%s", p.baseURL, p.cfg.Model, p.cfg.APIKey)

	p.log.DebugContext(ctx, "gemini request",
		slog.String("operation", op.String()),
		slog.String("model", p.cfg.Model),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("gemini: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.log.WarnContext(ctx, "gemini request failed",
			slog.String("operation", op.String()),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("gemini: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gemini: unexpected status %d", resp.StatusCode)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("gemini: read body: %w", err)
	}

	var decoded generateResponse
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return nil, fmt.Errorf("gemini: decode response: %w", err)
	}
	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("gemini: empty response")
	}

	text := decoded.Candidates[0].Content.Parts[0].Text
	jsonStr, err := extractJSON(text)
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	if !json.Valid([]byte(jsonStr)) {
		return nil, fmt.Errorf("gemini: response does not contain valid json")
	}
	return json.RawMessage(jsonStr), nil
}

// extractJSON finds the first complete JSON object in a string. Models
// sometimes wrap output in markdown fences despite the instructions.
func extractJSON(s string) (string, error) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end <= start {
		return "", fmt.Errorf("no JSON object found in response")
	}
	return s[start : end+1], nil
}
