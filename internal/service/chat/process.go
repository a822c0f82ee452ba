package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/pulsepal-backend/internal/domain"
	"github.com/heartmarshall/pulsepal-backend/internal/provider"
	"github.com/heartmarshall/pulsepal-backend/pkg/ctxutil"
)

// retryBackoff is the pause before the single retry of a store write that
// failed after the user message was already persisted.
const retryBackoff = 250 * time.Millisecond

// staticSafetyFooter is substituted when risk resolves high but the
// responder omitted a footer. Substitution is the pipeline's job, not the
// provider's.
const staticSafetyFooter = "If symptoms become severe, sudden, or scary, seek urgent in-person care right away."

// Input is one incoming user message.
type Input struct {
	Content string
	Source  domain.MessageSource
}

// Result is the pipeline output returned to the caller. Extractor and
// responder provider attribution is always present so fallbacks are
// observable without blocking the flow.
type Result struct {
	MessageID          uuid.UUID
	ReplyID            uuid.UUID
	Reply              string
	FollowUpQuestions  []string
	SuggestedActions   []string
	RiskLevel          domain.RiskLevel
	SafetyFooter       string
	Events             []domain.Event
	RiskFlags          []provider.RiskFlag
	NeedsClarification []string
	ExtractorProvider  string
	ResponderProvider  string
}

// pipelineContext is everything loaded up front, before any write.
type pipelineContext struct {
	memory         domain.Memory
	memoryMissing  bool
	recentMessages []domain.Message
	recentEvents   []domain.Event
	latestReport   *domain.DailyReport
}

// ProcessMessage runs the full message pipeline for the authenticated user.
//
// The user message is persisted immediately after context load and before
// any provider call; it is never rolled back. Store-write failures after
// that point are retried once with backoff and then surface as
// domain.ErrPersistence. Provider failures never surface: the gateway
// falls back to deterministic local output.
func (s *Service) ProcessMessage(ctx context.Context, in Input) (*Result, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, fmt.Errorf("chat.ProcessMessage: %w", domain.ErrUnauthorized)
	}

	if strings.TrimSpace(in.Content) == "" {
		return nil, domain.NewValidationError("content", "must not be empty")
	}
	if in.Source == "" {
		in.Source = domain.MessageSourceText
	}
	if !in.Source.IsValid() {
		return nil, domain.NewValidationError("source", fmt.Sprintf("unknown source %q", in.Source))
	}

	pc, err := s.loadContext(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("chat.ProcessMessage: %w", err)
	}

	// Persist the incoming message before touching any provider so the
	// user's input survives every downstream failure.
	userMsg := domain.Message{
		ID:        uuid.New(),
		UserID:    userID,
		Role:      domain.MessageRoleUser,
		Content:   in.Content,
		Source:    in.Source,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.withRetry(ctx, func(ctx context.Context) error {
		return s.messages.Create(ctx, userMsg)
	}); err != nil {
		return nil, fmt.Errorf("chat.ProcessMessage: save user message: %w", err)
	}

	extracted, extractorID, err := s.extract(ctx, userID, in.Content, pc)
	if err != nil {
		return nil, fmt.Errorf("chat.ProcessMessage: %w", err)
	}

	events, err := s.persistEvents(ctx, userID, userMsg.ID, extracted.Events)
	if err != nil {
		return nil, fmt.Errorf("chat.ProcessMessage: %w", err)
	}

	mem, err := s.mergeMemory(ctx, userID, pc, extracted.MemoryPatch)
	if err != nil {
		return nil, fmt.Errorf("chat.ProcessMessage: %w", err)
	}

	resp, responderID, err := s.respond(ctx, userID, in.Content, extracted, mem, pc)
	if err != nil {
		return nil, fmt.Errorf("chat.ProcessMessage: %w", err)
	}

	riskLevel, footer := escalateRisk(extracted, resp)

	replyMsg := domain.Message{
		ID:        uuid.New(),
		UserID:    userID,
		Role:      domain.MessageRoleAssistant,
		Content:   resp.Reply,
		Source:    in.Source,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.withRetry(ctx, func(ctx context.Context) error {
		return s.messages.Create(ctx, replyMsg)
	}); err != nil {
		return nil, fmt.Errorf("chat.ProcessMessage: save reply: %w", err)
	}

	s.log.InfoContext(ctx, "message processed",
		slog.String("user_id", userID.String()),
		slog.String("extractor", extractorID),
		slog.String("responder", responderID),
		slog.Int("events", len(events)),
		slog.String("risk_level", riskLevel.String()),
	)

	return &Result{
		MessageID:          userMsg.ID,
		ReplyID:            replyMsg.ID,
		Reply:              resp.Reply,
		FollowUpQuestions:  resp.FollowUpQuestions,
		SuggestedActions:   resp.SuggestedActions,
		RiskLevel:          riskLevel,
		SafetyFooter:       footer,
		Events:             events,
		RiskFlags:          extracted.RiskFlags,
		NeedsClarification: extracted.NeedsClarification,
		ExtractorProvider:  extractorID,
		ResponderProvider:  responderID,
	}, nil
}

// loadContext reads memory, recent history, and the latest report. Read
// failures here are fatal for the request: no pipeline proceeds without
// context, and no writes have happened yet.
func (s *Service) loadContext(ctx context.Context, userID uuid.UUID) (*pipelineContext, error) {
	pc := &pipelineContext{}

	mem, err := s.memory.Get(ctx, userID)
	switch {
	case err == nil:
		pc.memory = *mem
	case errors.Is(err, domain.ErrNotFound):
		// Accounts created before the starter profile existed.
		pc.memory = domain.NewMemory(userID)
		pc.memoryMissing = true
	default:
		return nil, fmt.Errorf("%w: load memory: %v", domain.ErrContextUnavailable, err)
	}

	if pc.recentMessages, err = s.messages.ListRecent(ctx, userID, s.cfg.RecentMessages); err != nil {
		return nil, fmt.Errorf("%w: load messages: %v", domain.ErrContextUnavailable, err)
	}
	if pc.recentEvents, err = s.events.ListRecent(ctx, userID, s.cfg.RecentEvents); err != nil {
		return nil, fmt.Errorf("%w: load events: %v", domain.ErrContextUnavailable, err)
	}

	report, err := s.reports.GetLatest(ctx, userID)
	switch {
	case err == nil:
		pc.latestReport = report
	case errors.Is(err, domain.ErrNotFound):
		// First week of use; no report yet.
	default:
		return nil, fmt.Errorf("%w: load latest report: %v", domain.ErrContextUnavailable, err)
	}

	return pc, nil
}

func (s *Service) extract(ctx context.Context, userID uuid.UUID, content string, pc *pipelineContext) (provider.ExtractResult, string, error) {
	payload := provider.ExtractPayload{
		UserMessage:    content,
		Memory:         provider.SnapshotMemory(pc.memory),
		RecentEvents:   toRecentEvents(pc.recentEvents),
		RecentMessages: toRecentMessages(pc.recentMessages),
	}

	result, providerID, _, err := s.gateway.Invoke(ctx, domain.RunKindMessage, userID, provider.OpExtract, payload, provider.ExtractSchema{})
	if err != nil {
		return provider.ExtractResult{}, "", fmt.Errorf("extract: %w", err)
	}
	extracted, ok := result.(provider.ExtractResult)
	if !ok {
		return provider.ExtractResult{}, "", fmt.Errorf("extract: unexpected result type %T", result)
	}
	return extracted, providerID, nil
}

// persistEvents writes the extracted events in one transaction, stamped
// with the source message id. Event identity is the generated id, so
// replays append rather than conflict; content dedup is opt-in.
func (s *Service) persistEvents(ctx context.Context, userID, sourceMessageID uuid.UUID, extracted []provider.ExtractedEvent) ([]domain.Event, error) {
	if s.cfg.DedupEvents {
		extracted = dedupExtracted(extracted)
	}
	if len(extracted) == 0 {
		return []domain.Event{}, nil
	}

	now := time.Now().UTC()
	events := make([]domain.Event, 0, len(extracted))
	for _, ev := range extracted {
		events = append(events, domain.Event{
			ID:              uuid.New(),
			UserID:          userID,
			SourceMessageID: sourceMessageID,
			Type:            ev.Type,
			Title:           ev.Title,
			Details:         ev.Details,
			Severity:        ev.Severity,
			TimeRef:         ev.TimeRef,
			Tags:            domain.NormalizeTags(ev.Tags),
			CreatedAt:       now,
		})
	}

	err := s.withRetry(ctx, func(ctx context.Context) error {
		return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
			return s.events.CreateBatch(txCtx, events)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("save events: %w", err)
	}
	return events, nil
}

// mergeMemory applies the patch under a per-user critical section: the
// in-process lock orders merges between local pipelines, the row lock
// orders them against any other writer. Returns the post-merge memory.
func (s *Service) mergeMemory(ctx context.Context, userID uuid.UUID, pc *pipelineContext, patch domain.MemoryPatch) (domain.Memory, error) {
	if patch.IsZero() && !pc.memoryMissing {
		return pc.memory, nil
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	var merged domain.Memory
	err := s.withRetry(ctx, func(ctx context.Context) error {
		return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
			cur, err := s.memory.GetForUpdate(txCtx, userID)
			switch {
			case err == nil:
				cur.Apply(patch)
				cur.UpdatedAt = time.Now().UTC()
				merged = *cur
				return s.memory.Save(txCtx, merged)
			case errors.Is(err, domain.ErrNotFound):
				fresh := domain.NewMemory(userID)
				fresh.Apply(patch)
				fresh.UpdatedAt = time.Now().UTC()
				merged = fresh
				return s.memory.Init(txCtx, merged)
			default:
				return err
			}
		})
	})
	if err != nil {
		return domain.Memory{}, fmt.Errorf("merge memory: %w", err)
	}
	return merged, nil
}

func (s *Service) respond(ctx context.Context, userID uuid.UUID, content string, extracted provider.ExtractResult, mem domain.Memory, pc *pipelineContext) (provider.RespondResult, string, error) {
	payload := provider.RespondPayload{
		UserMessage:    content,
		Extracted:      extracted,
		Memory:         provider.SnapshotMemory(mem),
		RecentMessages: toRecentMessages(pc.recentMessages),
		LatestReport:   toReportSnapshot(pc.latestReport),
	}

	result, providerID, _, err := s.gateway.Invoke(ctx, domain.RunKindMessage, userID, provider.OpRespond, payload, provider.RespondSchema{})
	if err != nil {
		return provider.RespondResult{}, "", fmt.Errorf("respond: %w", err)
	}
	resp, ok := result.(provider.RespondResult)
	if !ok {
		return provider.RespondResult{}, "", fmt.Errorf("respond: unexpected result type %T", result)
	}
	return resp, providerID, nil
}

// escalateRisk resolves the final risk level and guarantees a non-empty
// safety footer whenever risk is high.
func escalateRisk(extracted provider.ExtractResult, resp provider.RespondResult) (domain.RiskLevel, string) {
	level := resp.RiskLevel
	if extracted.HasHighConfidenceFlag() {
		level = domain.RiskLevelHigh
	}

	footer := resp.SafetyFooter
	if level == domain.RiskLevelHigh && strings.TrimSpace(footer) == "" {
		footer = staticSafetyFooter
	}
	return level, footer
}

// withRetry runs fn and retries exactly once after a short backoff.
// Exhaustion wraps domain.ErrPersistence.
func (s *Service) withRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	err := fn(ctx)
	if err == nil {
		return nil
	}

	s.log.WarnContext(ctx, "store write failed, retrying once", slog.String("error", err.Error()))
	select {
	case <-time.After(retryBackoff):
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", domain.ErrPersistence, ctx.Err())
	}

	if err = fn(ctx); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	return nil
}

func dedupExtracted(events []provider.ExtractedEvent) []provider.ExtractedEvent {
	seen := make(map[string]struct{}, len(events))
	out := make([]provider.ExtractedEvent, 0, len(events))
	for _, ev := range events {
		key := strings.Join([]string{ev.Type.String(), ev.Title, ev.Details, ev.Severity.String(), ev.TimeRef}, "\x00")
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, ev)
	}
	return out
}

func toRecentMessages(msgs []domain.Message) []provider.RecentMessage {
	out := make([]provider.RecentMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, provider.RecentMessage{
			Role:      m.Role.String(),
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		})
	}
	return out
}

func toRecentEvents(events []domain.Event) []provider.RecentEvent {
	out := make([]provider.RecentEvent, 0, len(events))
	for _, e := range events {
		out = append(out, provider.RecentEvent{
			Type:      e.Type.String(),
			Title:     e.Title,
			Severity:  e.Severity.String(),
			TimeRef:   e.TimeRef,
			Tags:      e.Tags,
			CreatedAt: e.CreatedAt,
		})
	}
	return out
}

func toReportSnapshot(rep *domain.DailyReport) *provider.ReportSnapshot {
	if rep == nil {
		return nil
	}
	return &provider.ReportSnapshot{
		GeneratedAt:        rep.GeneratedAt,
		PatternSummary:     rep.PatternSummary,
		WhatChanged:        rep.WhatChanged,
		SuggestedNextSteps: rep.SuggestedNextSteps,
		RiskLevel:          rep.RiskLevel.String(),
	}
}
