package domain

import (
	"time"

	"github.com/google/uuid"
)

type Message struct {
	ID             uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	ConversationID uuid.UUID `gorm:"column:conversation_id;not null;type:char(36)" json:"conversation_id"`
	AuthorID       uuid.UUID `gorm:"column:author_id;not null;type:char(36)" json:"-"`
	Text           string    `gorm:"column:text;type:text;not null" json:"text"`

	// HasAnswer flips to true for every message in a conversation as soon
	// as a newer message arrives; an agronomist's own message is born true.
	HasAnswer bool `gorm:"column:has_answer;not null;default:false" json:"hasAnswer"`

	// IsLiked is the farmer's reaction: nil means no reaction yet.
	IsLiked *bool `gorm:"column:is_liked" json:"isLiked"`

	Author       User         `gorm:"foreignKey:AuthorID;references:ID" json:"user"`
	Conversation Conversation `gorm:"foreignKey:ConversationID;references:ID" json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"-"`
}
