package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/heartmarshall/pulsepal-backend/internal/domain"
	"github.com/heartmarshall/pulsepal-backend/internal/service/chat"
)

// chatService runs the message pipeline.
type chatService interface {
	ProcessMessage(ctx context.Context, in chat.Input) (*chat.Result, error)
}

// threadService reads the conversation thread.
type threadService interface {
	Thread(ctx context.Context, limit int) ([]domain.Message, error)
}

// ChatHandler serves the conversation endpoints.
type ChatHandler struct {
	chat   chatService
	thread threadService
	log    *slog.Logger
}

// NewChatHandler creates a ChatHandler.
func NewChatHandler(chatSvc chatService, threadSvc threadService, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{
		chat:   chatSvc,
		thread: threadSvc,
		log:    logger.With(slog.String("handler", "chat")),
	}
}

type sendMessageRequest struct {
	Content string `json:"content"`
	Source  string `json:"source"`
}

type riskFlagResponse struct {
	Flag       string `json:"flag"`
	Confidence string `json:"confidence"`
	Note       string `json:"note,omitempty"`
}

type eventResponse struct {
	ID              string    `json:"id"`
	SourceMessageID string    `json:"source_message_id"`
	Type            string    `json:"type"`
	Title           string    `json:"title"`
	Details         string    `json:"details,omitempty"`
	Severity        string    `json:"severity"`
	TimeRef         string    `json:"time_ref,omitempty"`
	Tags            []string  `json:"tags,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

type sendMessageResponse struct {
	MessageID          string             `json:"message_id"`
	ReplyID            string             `json:"reply_id"`
	Reply              string             `json:"reply"`
	FollowUpQuestions  []string           `json:"follow_up_questions,omitempty"`
	SuggestedActions   []string           `json:"suggested_actions,omitempty"`
	RiskLevel          string             `json:"risk_level"`
	SafetyFooter       string             `json:"safety_footer,omitempty"`
	Events             []eventResponse    `json:"events"`
	RiskFlags          []riskFlagResponse `json:"risk_flags,omitempty"`
	NeedsClarification []string           `json:"needs_clarification,omitempty"`
	ExtractorProvider  string             `json:"extractor_provider"`
	ResponderProvider  string             `json:"responder_provider"`
}

type messageResponse struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

func toEventResponse(e domain.Event) eventResponse {
	return eventResponse{
		ID:              e.ID.String(),
		SourceMessageID: e.SourceMessageID.String(),
		Type:            string(e.Type),
		Title:           e.Title,
		Details:         e.Details,
		Severity:        string(e.Severity),
		TimeRef:         e.TimeRef,
		Tags:            e.Tags,
		CreatedAt:       e.CreatedAt,
	}
}

// Send handles POST /api/v1/chat/send.
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.chat.ProcessMessage(r.Context(), chat.Input{
		Content: req.Content,
		Source:  domain.MessageSource(req.Source),
	})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	events := make([]eventResponse, 0, len(res.Events))
	for _, e := range res.Events {
		events = append(events, toEventResponse(e))
	}
	flags := make([]riskFlagResponse, 0, len(res.RiskFlags))
	for _, f := range res.RiskFlags {
		flags = append(flags, riskFlagResponse{
			Flag:       f.Flag,
			Confidence: string(f.Confidence),
			Note:       f.Note,
		})
	}

	writeJSON(w, http.StatusOK, sendMessageResponse{
		MessageID:          res.MessageID.String(),
		ReplyID:            res.ReplyID.String(),
		Reply:              res.Reply,
		FollowUpQuestions:  res.FollowUpQuestions,
		SuggestedActions:   res.SuggestedActions,
		RiskLevel:          string(res.RiskLevel),
		SafetyFooter:       res.SafetyFooter,
		Events:             events,
		RiskFlags:          flags,
		NeedsClarification: res.NeedsClarification,
		ExtractorProvider:  res.ExtractorProvider,
		ResponderProvider:  res.ResponderProvider,
	})
}

// Thread handles GET /api/v1/chat/thread.
func (h *ChatHandler) Thread(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 0)

	msgs, err := h.thread.Thread(r.Context(), limit)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	out := make([]messageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, messageResponse{
			ID:        m.ID.String(),
			Role:      string(m.Role),
			Content:   m.Content,
			Source:    string(m.Source),
			CreatedAt: m.CreatedAt,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"messages": out})
}

// queryInt reads an integer query parameter, falling back on absence or
// garbage.
func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
