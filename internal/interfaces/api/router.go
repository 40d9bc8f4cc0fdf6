package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/NuncEstBibendum/agrolink-api/internal/application/services"
	"github.com/NuncEstBibendum/agrolink-api/internal/auth"
	"github.com/NuncEstBibendum/agrolink-api/internal/infrastructure/websocket"
	"github.com/NuncEstBibendum/agrolink-api/internal/telemetry"
)

// Deps gathers everything the HTTP layer needs.
type Deps struct {
	Tokens            *auth.TokenManager
	Auth              services.AuthService
	Users             services.UserService
	Conversations     services.ConversationService
	Messages          services.MessageService
	Hub               *websocket.Hub
	AuthRatePerMinute int
}

func NewRouter(d Deps) *mux.Router {
	authHandler := NewAuthHandler(d.Auth)
	userHandler := NewUserHandler(d.Users)
	conversationHandler := NewConversationHandler(d.Conversations)
	messageHandler := NewMessageHandler(d.Messages)
	wsHandler := NewWebSocketHandler(d.Tokens, d.Conversations, d.Hub)

	limiter := newIPLimiter(d.AuthRatePerMinute)
	protected := func(h http.HandlerFunc) http.Handler {
		return d.Tokens.Require(h)
	}

	r := mux.NewRouter()
	r.Use(telemetry.Middleware)

	// auth
	r.Handle("/auth/register", limiter.wrap(authHandler.Register)).Methods(http.MethodPost)
	r.Handle("/auth/signin", limiter.wrap(authHandler.SignIn)).Methods(http.MethodPost)
	r.Handle("/auth/update/password", protected(authHandler.UpdatePassword)).Methods(http.MethodPut)
	r.HandleFunc("/auth/email-free", authHandler.EmailFree).Methods(http.MethodGet)
	r.Handle("/auth/forgotten-password", limiter.wrap(authHandler.ForgottenPassword)).Methods(http.MethodPost)
	r.HandleFunc("/auth/forgotten-password/update", authHandler.UpdatePasswordByLink).Methods(http.MethodPut)

	// users
	r.Handle("/users/me", protected(userHandler.Me)).Methods(http.MethodGet)
	r.Handle("/users/update", protected(userHandler.Update)).Methods(http.MethodPut)
	r.HandleFunc("/users", userHandler.Get).Methods(http.MethodGet)

	// conversations
	r.Handle("/conversations", protected(conversationHandler.List)).Methods(http.MethodGet)
	r.Handle("/conversations/unanswered", protected(conversationHandler.ListUnanswered)).Methods(http.MethodGet)
	r.Handle("/conversations/answered", protected(conversationHandler.ListAnswered)).Methods(http.MethodGet)
	r.Handle("/conversations/id", protected(conversationHandler.GetByID)).Methods(http.MethodGet)

	// messages
	r.Handle("/message", protected(messageHandler.SendFirstMessage)).Methods(http.MethodPost)
	r.Handle("/message/reply", protected(messageHandler.SendMessage)).Methods(http.MethodPost)
	r.Handle("/message/reaction", protected(messageHandler.SendReaction)).Methods(http.MethodPost)

	// live updates
	r.HandleFunc("/ws", wsHandler.ServeChatWs).Methods(http.MethodGet)

	// ops
	r.Handle("/metrics", telemetry.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	return r
}
