// Package services holds the business rules of the platform: who sees which
// conversations, how replies close out open questions, and the account
// lifecycle around it.
package services

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/NuncEstBibendum/agrolink-api/internal/apperr"
	"github.com/NuncEstBibendum/agrolink-api/internal/domain"
)

// findUser resolves a caller identity or reports apperr.NotFound.
func findUser(db *gorm.DB, id uuid.UUID) (*domain.User, error) {
	var user domain.User
	if err := db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Internal("failed to load user", err)
	}
	return &user, nil
}

// unansweredConversationIDs is the subquery shared by the agronomist queues:
// ids of conversations holding at least one open message.
func unansweredConversationIDs(db *gorm.DB) *gorm.DB {
	return db.Model(&domain.Message{}).
		Select("conversation_id").
		Where("has_answer = ?", false)
}
