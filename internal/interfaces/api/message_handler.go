package api

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/NuncEstBibendum/agrolink-api/internal/application/services"
	"github.com/NuncEstBibendum/agrolink-api/internal/auth"
	"github.com/NuncEstBibendum/agrolink-api/internal/domain"
	"github.com/NuncEstBibendum/agrolink-api/internal/telemetry"
)

type MessageHandler struct {
	svc services.MessageService
}

func NewMessageHandler(svc services.MessageService) *MessageHandler {
	return &MessageHandler{svc: svc}
}

type sendFirstMessageRequest struct {
	Title   string   `json:"title"`
	Message string   `json:"message"`
	Tags    []string `json:"tags"`
}

// SendFirstMessage opens a new conversation with its opening message.
func (h *MessageHandler) SendFirstMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
		return
	}
	var req sendFirstMessageRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Title == "" || req.Message == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "title and message are required"})
		return
	}
	tags := make([]domain.TagName, 0, len(req.Tags))
	for _, t := range req.Tags {
		tags = append(tags, domain.TagName(t))
	}
	conversation, err := h.svc.StartConversation(userID, req.Title, req.Message, tags)
	if err != nil {
		writeError(w, err)
		return
	}
	telemetry.ConversationsStarted.Inc()
	writeJSON(w, http.StatusCreated, toConversationView(*conversation))
}

type sendMessageRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversationId"`
}

func (h *MessageHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
		return
	}
	var req sendMessageRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Message == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "message is required"})
		return
	}
	conversationID, err := uuid.Parse(req.ConversationID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid conversationId"})
		return
	}
	message, err := h.svc.Reply(userID, req.Message, conversationID)
	if err != nil {
		writeError(w, err)
		return
	}
	telemetry.MessagesCreated.WithLabelValues(string(message.Author.Role)).Inc()
	writeJSON(w, http.StatusCreated, toMessageView(*message))
}

type sendReactionRequest struct {
	MessageID string `json:"messageId"`
	Reaction  *bool  `json:"reaction"`
}

func (h *MessageHandler) SendReaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
		return
	}
	var req sendReactionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	messageID, err := uuid.Parse(req.MessageID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid messageId"})
		return
	}
	message, err := h.svc.SetReaction(userID, messageID, req.Reaction)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMessageView(*message))
}
