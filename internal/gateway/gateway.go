// Package gateway routes capability invocations across an ordered list of
// providers with per-call timeouts, schema validation, and a deterministic
// local fallback. Provider failures never escape the gateway: the caller
// always receives a schema-valid result tagged with the provider that
// produced it.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/pulsepal-backend/internal/domain"
	"github.com/heartmarshall/pulsepal-backend/internal/provider"
)

// DefaultTimeout bounds a single provider call when no per-operation
// timeout is configured.
const DefaultTimeout = 8 * time.Second

// Caller is one configured provider. Invoke returns the raw JSON result
// for the operation or an error (transport failure, timeout via ctx).
type Caller interface {
	ID() string
	Invoke(ctx context.Context, op provider.Operation, payload any) (json.RawMessage, error)
}

// runRecorder persists PipelineRun audit records.
type runRecorder interface {
	Create(ctx context.Context, run domain.PipelineRun) error
}

// Config enumerates provider order and timeouts. It is passed in at
// construction; the gateway holds no process-wide mutable state.
type Config struct {
	// Timeouts overrides the per-call budget for specific operations.
	Timeouts map[provider.Operation]time.Duration

	// DefaultTimeout applies to operations without an override.
	// Zero means DefaultTimeout (8s).
	DefaultTimeout time.Duration
}

// Gateway invokes providers in priority order and absorbs their failures.
type Gateway struct {
	log       *slog.Logger
	providers []Caller
	fallback  Caller
	runs      runRecorder
	cfg       Config
}

// New creates a Gateway. providers may be empty; fallback must be a
// deterministic Caller that always produces schema-valid output.
func New(log *slog.Logger, providers []Caller, fallback Caller, runs runRecorder, cfg Config) *Gateway {
	return &Gateway{
		log:       log.With("component", "gateway"),
		providers: providers,
		fallback:  fallback,
		runs:      runs,
		cfg:       cfg,
	}
}

// Invoke runs the operation against each provider in order. The first
// provider that returns schema-valid output within its timeout wins. A
// provider that times out, errors, or returns malformed output is skipped
// without retry. When every provider is exhausted the local fallback
// synthesizes the result and status is RunStatusFallback.
//
// Exactly one PipelineRun record is written per call. The only returned
// errors are programming errors (nil or mismatched schema, broken
// fallback); provider failures are absorbed.
func (g *Gateway) Invoke(
	ctx context.Context,
	kind domain.RunKind,
	userID uuid.UUID,
	op provider.Operation,
	payload any,
	schema provider.Schema,
) (any, string, domain.RunStatus, error) {
	if schema == nil {
		return nil, "", domain.RunStatusError, fmt.Errorf("gateway: nil schema for operation %s", op)
	}
	if schema.Operation() != op {
		return nil, "", domain.RunStatusError, fmt.Errorf("gateway: schema for %s used with operation %s", schema.Operation(), op)
	}

	start := time.Now()
	var reasons []string

	for _, p := range g.providers {
		result, err := g.tryProvider(ctx, p, op, payload, schema)
		if err != nil {
			reasons = append(reasons, fmt.Sprintf("%s: %v", p.ID(), err))
			g.log.WarnContext(ctx, "provider failed, falling through",
				slog.String("operation", op.String()),
				slog.String("provider", p.ID()),
				slog.String("error", err.Error()),
			)
			continue
		}

		g.record(ctx, domain.PipelineRun{
			UserID:       userID,
			Kind:         kind,
			Operation:    op.String(),
			ProviderUsed: p.ID(),
			LatencyMS:    time.Since(start).Milliseconds(),
			Status:       domain.RunStatusOK,
		})
		return result, p.ID(), domain.RunStatusOK, nil
	}

	reason := strings.Join(reasons, "; ")
	if reason == "" {
		reason = "no providers configured"
	}

	raw, err := g.fallback.Invoke(ctx, op, payload)
	if err == nil {
		var result any
		result, err = schema.Decode(raw)
		if err == nil {
			g.record(ctx, domain.PipelineRun{
				UserID:         userID,
				Kind:           kind,
				Operation:      op.String(),
				ProviderUsed:   g.fallback.ID(),
				LatencyMS:      time.Since(start).Milliseconds(),
				Status:         domain.RunStatusFallback,
				FallbackReason: reason,
			})
			return result, g.fallback.ID(), domain.RunStatusFallback, nil
		}
	}

	// The fallback is deterministic local code; failing here is a bug,
	// not a provider outage.
	g.record(ctx, domain.PipelineRun{
		UserID:         userID,
		Kind:           kind,
		Operation:      op.String(),
		ProviderUsed:   g.fallback.ID(),
		LatencyMS:      time.Since(start).Milliseconds(),
		Status:         domain.RunStatusError,
		FallbackReason: reason,
	})
	return nil, g.fallback.ID(), domain.RunStatusError, fmt.Errorf("gateway: fallback for %s: %w", op, err)
}

// tryProvider issues one call under its own timeout and validates the
// result. The timeout is per provider, never cumulative across the chain.
func (g *Gateway) tryProvider(ctx context.Context, p Caller, op provider.Operation, payload any, schema provider.Schema) (any, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.timeoutFor(op))
	defer cancel()

	raw, err := p.Invoke(callCtx, op, payload)
	if err != nil {
		return nil, err
	}
	return schema.Decode(raw)
}

func (g *Gateway) timeoutFor(op provider.Operation) time.Duration {
	if d, ok := g.cfg.Timeouts[op]; ok && d > 0 {
		return d
	}
	if g.cfg.DefaultTimeout > 0 {
		return g.cfg.DefaultTimeout
	}
	return DefaultTimeout
}

// record writes the audit row. Audit failures are logged, never surfaced:
// PipelineRun is observability, not control flow.
func (g *Gateway) record(ctx context.Context, run domain.PipelineRun) {
	if err := g.runs.Create(ctx, run); err != nil {
		g.log.ErrorContext(ctx, "record pipeline run",
			slog.String("operation", run.Operation),
			slog.String("error", err.Error()),
		)
	}
}
