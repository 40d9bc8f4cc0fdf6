package api

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	gorillaws "github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/NuncEstBibendum/agrolink-api/internal/apperr"
	"github.com/NuncEstBibendum/agrolink-api/internal/application/services"
	"github.com/NuncEstBibendum/agrolink-api/internal/auth"
	"github.com/NuncEstBibendum/agrolink-api/internal/infrastructure/websocket"
	"github.com/NuncEstBibendum/agrolink-api/internal/logger"
)

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict to the frontend origins once they are fixed
		return true
	},
}

type WebSocketHandler struct {
	tokens        *auth.TokenManager
	conversations services.ConversationService
	hub           *websocket.Hub
}

func NewWebSocketHandler(tokens *auth.TokenManager, conversations services.ConversationService, hub *websocket.Hub) *WebSocketHandler {
	return &WebSocketHandler{tokens: tokens, conversations: conversations, hub: hub}
}

// ServeChatWs upgrades an authenticated client onto a conversation stream.
// Visibility rules are the same as for the conversation read path: farmers
// must be participants, agronomists may watch any conversation.
func (h *WebSocketHandler) ServeChatWs(w http.ResponseWriter, r *http.Request) {
	userID, err := h.tokens.FromRequest(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conversationID, err := uuid.Parse(r.URL.Query().Get("conversation_id"))
	if err != nil {
		http.Error(w, "conversation_id is required", http.StatusBadRequest)
		return
	}

	if _, err := h.conversations.GetConversationByID(userID, conversationID); err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, apperr.ErrUnauthorized):
			http.Error(w, err.Error(), http.StatusUnauthorized)
		default:
			http.Error(w, "internal server error", http.StatusInternalServerError)
		}
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	h.hub.Subscribe(conn, userID, conversationID)
}
