package domain

import (
	"time"

	"github.com/google/uuid"
)

type Conversation struct {
	ID       uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	Title    string    `gorm:"type:varchar(255);not null" json:"title"`
	AuthorID uuid.UUID `gorm:"column:author_id;not null;type:char(36)" json:"author_id"`

	Author       User      `gorm:"foreignKey:AuthorID;references:ID" json:"-"`
	Participants []User    `gorm:"many2many:conversation_participants" json:"users"`
	Tags         []Tag     `gorm:"many2many:conversation_tags" json:"tags"`
	Messages     []Message `gorm:"foreignKey:ConversationID" json:"messages"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"-"`
}

// HasParticipant reports whether the user is on the conversation's access
// list. Participants must be loaded by the caller.
func (c *Conversation) HasParticipant(userID uuid.UUID) bool {
	for _, p := range c.Participants {
		if p.ID == userID {
			return true
		}
	}
	return false
}
