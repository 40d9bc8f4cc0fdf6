package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/NuncEstBibendum/agrolink-api/internal/domain"
)

// Conversation payloads only ever expose id, name and profession of the
// people involved; emails and account timestamps stay on the user endpoints.

type userView struct {
	ID   uuid.UUID   `json:"id"`
	Name string      `json:"name"`
	Role domain.Role `json:"profession"`
}

type messageView struct {
	ID             uuid.UUID `json:"id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	Text           string    `json:"text"`
	HasAnswer      bool      `json:"hasAnswer"`
	IsLiked        *bool     `json:"isLiked"`
	User           userView  `json:"user"`
	CreatedAt      time.Time `json:"createdAt"`
}

type conversationView struct {
	ID        uuid.UUID     `json:"id"`
	Title     string        `json:"title"`
	AuthorID  uuid.UUID     `json:"author_id"`
	Author    *userView     `json:"author,omitempty"`
	Tags      []domain.Tag  `json:"tags"`
	Users     []userView    `json:"users"`
	Messages  []messageView `json:"messages"`
	CreatedAt time.Time     `json:"created_at"`
}

func toUserView(u domain.User) userView {
	return userView{ID: u.ID, Name: u.Name, Role: u.Role}
}

func toMessageView(m domain.Message) messageView {
	return messageView{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		Text:           m.Text,
		HasAnswer:      m.HasAnswer,
		IsLiked:        m.IsLiked,
		User:           toUserView(m.Author),
		CreatedAt:      m.CreatedAt,
	}
}

func toConversationView(c domain.Conversation) conversationView {
	view := conversationView{
		ID:        c.ID,
		Title:     c.Title,
		AuthorID:  c.AuthorID,
		Tags:      make([]domain.Tag, 0, len(c.Tags)),
		Users:     make([]userView, 0, len(c.Participants)),
		Messages:  make([]messageView, 0, len(c.Messages)),
		CreatedAt: c.CreatedAt,
	}
	view.Tags = append(view.Tags, c.Tags...)
	if c.Author.ID != uuid.Nil {
		author := toUserView(c.Author)
		view.Author = &author
	}
	for _, p := range c.Participants {
		view.Users = append(view.Users, toUserView(p))
	}
	for _, m := range c.Messages {
		view.Messages = append(view.Messages, toMessageView(m))
	}
	return view
}

func toConversationViews(conversations []domain.Conversation) []conversationView {
	views := make([]conversationView, 0, len(conversations))
	for _, c := range conversations {
		views = append(views, toConversationView(c))
	}
	return views
}
