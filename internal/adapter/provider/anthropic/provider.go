// Package anthropic backs the provider call contract with Claude via the
// official SDK.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/heartmarshall/pulsepal-backend/internal/provider"
)

const (
	defaultModel     = "claude-3-5-haiku-latest"
	defaultMaxTokens = 2048
)

// Config holds API access for the Anthropic provider.
type Config struct {
	APIKey    string
	Model     string
	MaxTokens int64
}

// Provider wraps one Claude model behind the provider call contract.
type Provider struct {
	client    anthropicsdk.Client
	model     anthropicsdk.Model
	maxTokens int64
	log       *slog.Logger
}

// New creates a Provider from the SDK client.
func New(cfg Config, logger *slog.Logger) *Provider {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	return &Provider{
		client:    anthropicsdk.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:     anthropicsdk.Model(cfg.Model),
		maxTokens: cfg.MaxTokens,
		log:       logger.With("adapter", "anthropic"),
	}
}

func (p *Provider) ID() string { return "anthropic" }

// Invoke sends the operation prompt plus the serialized payload as one user
// message and returns the JSON object embedded in the reply text.
func (p *Provider) Invoke(ctx context.Context, op provider.Operation, payload any) (json.RawMessage, error) {
	inputJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("anthropic: encode payload: %w", err)
	}

	prompt := provider.SystemPrompt(op) + "\n\nReturn valid JSON only.\nINPUT:\n" + string(inputJSON)

	p.log.DebugContext(ctx, "anthropic request",
		slog.String("operation", op.String()),
		slog.String("model", string(p.model)),
	)

	msg, err := p.client.Messages.New(ctx, anthropicsdk.MessageNewParams{
		Model:     p.model,
		MaxTokens: p.maxTokens,
		Messages: []anthropicsdk.MessageParam{
			anthropicsdk.NewUserMessage(anthropicsdk.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		p.log.WarnContext(ctx, "anthropic request failed",
			slog.String("operation", op.String()),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("anthropic: request failed: %w", err)
	}
	if len(msg.Content) == 0 {
		return nil, fmt.Errorf("anthropic: empty response")
	}

	jsonStr, err := extractJSON(msg.Content[0].Text)
	if err != nil {
		return nil, fmt.Errorf("anthropic: %w", err)
	}
	if !json.Valid([]byte(jsonStr)) {
		return nil, fmt.Errorf("anthropic: response does not contain valid json")
	}
	return json.RawMessage(jsonStr), nil
}

// extractJSON finds the first complete JSON object in a string.
func extractJSON(s string) (string, error) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end <= start {
		return "", fmt.Errorf("no JSON object found in response")
	}
	return s[start : end+1], nil
}
