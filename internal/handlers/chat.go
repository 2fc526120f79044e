package handlers

import (
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"deskmates.dev/internal/middleware"
	"deskmates.dev/internal/models"
	"deskmates.dev/internal/services"
	"deskmates.dev/internal/session"
)

// ChatHandler relays chat messages
type ChatHandler struct {
	chatService *services.ChatService
	log         logrus.FieldLogger
}

// NewChatHandler creates a new ChatHandler
func NewChatHandler(cs *services.ChatService, log logrus.FieldLogger) *ChatHandler {
	return &ChatHandler{chatService: cs, log: log}
}

// Send handles POST /api/chat
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	reply, err := h.chatService.Send(r.Context(), req.Message)
	if err != nil {
		h.respondChatError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, models.ChatResponse{Response: reply})
}

func (h *ChatHandler) respondChatError(w http.ResponseWriter, r *http.Request, err error) {
	fields := logrus.Fields{"request_id": middleware.GetRequestID(r.Context())}
	if s, ok := session.FromContext(r.Context()); ok {
		fields["user_id"] = s.UserID
	}
	log := h.log.WithFields(fields).WithError(err)

	var upstream *services.UpstreamError
	switch {
	case errors.Is(err, services.ErrEmptyMessage):
		respondError(w, http.StatusBadRequest, "Message is required")
	case errors.As(err, &upstream):
		log.Warn("chat relay failed")
		respondError(w, upstream.Status, "Failed to get response from AI")
	case errors.Is(err, services.ErrMalformedResponse):
		log.Error("chat relay failed")
		respondError(w, http.StatusInternalServerError, "Invalid response format from AI")
	default:
		log.Error("chat relay failed")
		respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}
