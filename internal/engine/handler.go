package engine

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/easyscale/clinic-ai-engine/internal/dialog"
	"github.com/easyscale/clinic-ai-engine/internal/reengage"
	"github.com/easyscale/clinic-ai-engine/internal/reception"
	"github.com/easyscale/clinic-ai-engine/internal/scheduling"
	"github.com/easyscale/clinic-ai-engine/pkg/logging"
)

// Handler wires HTTP requests to the engine service. The history store
// is optional; when present and a conversation_id is supplied, the
// handler hydrates history/attempt counters from it and records the
// exchanged turns back.
type Handler struct {
	service Service
	store   *HistoryStore
	logger  *logging.Logger
}

// NewHandler creates an engine handler.
func NewHandler(service Service, store *HistoryStore, logger *logging.Logger) *Handler {
	return &Handler{
		service: service,
		store:   store,
		logger:  logger,
	}
}

// Route handles POST /v1/route.
func (h *Handler) Route(w http.ResponseWriter, r *http.Request) {
	var req RouteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode route request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.LatestMessage) == "" {
		http.Error(w, "latest_message is required", http.StatusBadRequest)
		return
	}

	if h.store != nil && req.ConversationID != "" && len(req.History) == 0 {
		if state, err := h.store.Load(r.Context(), req.ConversationID); err == nil {
			req.History = state.Turns
		} else {
			h.logger.Warn("failed to load conversation state", "conversation_id", req.ConversationID, "error", err)
		}
	}

	resp, err := h.service.Route(r.Context(), req)
	if err != nil {
		h.logger.Error("failed to route message", "error", err)
		http.Error(w, "Failed to route message", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}

type receptionTurnRequest struct {
	ConversationID string `json:"conversation_id"`
	reception.Input
}

// ReceptionTurn handles POST /v1/reception/turn.
func (h *Handler) ReceptionTurn(w http.ResponseWriter, r *http.Request) {
	var req receptionTurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode reception request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	h.hydrate(r, req.ConversationID, &req.Input.History, &req.Input.AttemptCount)

	resp, err := h.service.ReceptionTurn(r.Context(), req.Input)
	if err != nil {
		h.logger.Error("failed to process reception turn", "error", err)
		http.Error(w, "Failed to process turn", http.StatusInternalServerError)
		return
	}

	h.record(r, req.ConversationID, req.Input.LatestMessage, resp.ResponseMessage)
	h.writeJSON(w, http.StatusOK, resp)
}

type schedulingTurnRequest struct {
	ConversationID string `json:"conversation_id"`
	scheduling.Input
}

// SchedulingTurn handles POST /v1/scheduling/turn.
func (h *Handler) SchedulingTurn(w http.ResponseWriter, r *http.Request) {
	var req schedulingTurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode scheduling request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	h.hydrate(r, req.ConversationID, &req.Input.History, &req.Input.AttemptCount)

	resp, err := h.service.SchedulingTurn(r.Context(), req.Input)
	if err != nil {
		h.logger.Error("failed to process scheduling turn", "error", err)
		http.Error(w, "Failed to process turn", http.StatusInternalServerError)
		return
	}

	h.record(r, req.ConversationID, req.Input.LatestMessage, strings.Join(resp.ResponseMessages, "\n"))
	h.writeJSON(w, http.StatusOK, resp)
}

// Reengage handles POST /v1/reengage/compose.
func (h *Handler) Reengage(w http.ResponseWriter, r *http.Request) {
	var req reengage.Input
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode reengage request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	resp, err := h.service.ComposeReengagement(r.Context(), req)
	if err != nil {
		h.logger.Error("failed to compose reengagement", "error", err)
		http.Error(w, "Failed to compose message", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// hydrate fills history and attempt count from the store when the
// caller supplied a conversation id but no explicit history.
func (h *Handler) hydrate(r *http.Request, conversationID string, history *[]dialog.Turn, attemptCount *int) {
	if h.store == nil || conversationID == "" || len(*history) > 0 {
		return
	}
	state, err := h.store.Load(r.Context(), conversationID)
	if err != nil {
		h.logger.Warn("failed to load conversation state", "conversation_id", conversationID, "error", err)
		return
	}
	*history = state.Turns
	*attemptCount = state.AttemptCount
}

// record persists the exchanged turns. Store failures are logged, not
// surfaced: the reply already left the core.
func (h *Handler) record(r *http.Request, conversationID, inbound, outbound string) {
	if h.store == nil || conversationID == "" {
		return
	}
	if inbound != "" {
		if _, err := h.store.Append(r.Context(), conversationID, dialog.Turn{Role: dialog.RoleCounterpart, Content: inbound}); err != nil {
			h.logger.Warn("failed to record inbound turn", "conversation_id", conversationID, "error", err)
			return
		}
	}
	if outbound != "" {
		if _, err := h.store.Append(r.Context(), conversationID, dialog.Turn{Role: dialog.RoleAgent, Content: outbound}); err != nil {
			h.logger.Warn("failed to record outbound turn", "conversation_id", conversationID, "error", err)
		}
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", "error", err)
	}
}
