package services

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/NuncEstBibendum/agrolink-api/internal/apperr"
	"github.com/NuncEstBibendum/agrolink-api/internal/domain"
)

// ConversationService decides which conversations are visible to a caller.
// Farmers only ever see threads they participate in; agronomists act as a
// shared support pool and see every conversation, including the global
// unanswered/answered triage queues.
type ConversationService interface {
	ListUserConversations(userID uuid.UUID) ([]domain.Conversation, error)
	ListUnanswered(userID uuid.UUID) ([]domain.Conversation, error)
	ListAnswered(userID uuid.UUID) ([]domain.Conversation, error)
	GetConversationByID(userID, conversationID uuid.UUID) (*domain.Conversation, error)
}

type conversationService struct {
	db *gorm.DB
}

func NewConversationService(db *gorm.DB) ConversationService {
	return &conversationService{db: db}
}

func (s *conversationService) ListUserConversations(userID uuid.UUID) ([]domain.Conversation, error) {
	var conversations []domain.Conversation
	err := s.db.
		Joins("JOIN conversation_participants cp ON cp.conversation_id = conversations.id").
		Where("cp.user_id = ?", userID).
		Preload("Participants").
		Preload("Tags").
		Preload("Messages", messagesOldestFirst).
		Preload("Messages.Author").
		Find(&conversations).Error
	if err != nil {
		return nil, apperr.Internal("failed to list conversations", err)
	}
	return conversations, nil
}

func (s *conversationService) ListUnanswered(userID uuid.UUID) ([]domain.Conversation, error) {
	if err := s.requireAgronomist(userID); err != nil {
		return nil, err
	}

	var conversations []domain.Conversation
	err := s.db.
		Where("id IN (?)", unansweredConversationIDs(s.db)).
		Preload("Author").
		Preload("Participants").
		Preload("Tags").
		Preload("Messages", messagesOldestFirst).
		Preload("Messages.Author").
		Find(&conversations).Error
	if err != nil {
		return nil, apperr.Internal("failed to list unanswered conversations", err)
	}
	return conversations, nil
}

func (s *conversationService) ListAnswered(userID uuid.UUID) ([]domain.Conversation, error) {
	if err := s.requireAgronomist(userID); err != nil {
		return nil, err
	}

	var conversations []domain.Conversation
	err := s.db.
		Not("id IN (?)", unansweredConversationIDs(s.db)).
		Preload("Author").
		Preload("Participants").
		Preload("Tags").
		Preload("Messages", messagesOldestFirst).
		Preload("Messages.Author").
		Find(&conversations).Error
	if err != nil {
		return nil, apperr.Internal("failed to list answered conversations", err)
	}
	return conversations, nil
}

func (s *conversationService) GetConversationByID(userID, conversationID uuid.UUID) (*domain.Conversation, error) {
	user, err := findUser(s.db, userID)
	if err != nil {
		return nil, err
	}

	var conversation domain.Conversation
	err = s.db.
		Preload("Participants").
		Preload("Tags").
		Preload("Messages", messagesNewestFirst).
		Preload("Messages.Author").
		First(&conversation, "id = ?", conversationID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("conversation not found")
		}
		return nil, apperr.Internal("failed to load conversation", err)
	}

	if user.Role == domain.RoleFarmer && !conversation.HasParticipant(user.ID) {
		return nil, apperr.Unauthorized("user is not a participant")
	}
	return &conversation, nil
}

func (s *conversationService) requireAgronomist(userID uuid.UUID) error {
	user, err := findUser(s.db, userID)
	if err != nil {
		return err
	}
	if user.Role != domain.RoleAgronomist {
		return apperr.Unauthorized("user is not an agronomist")
	}
	return nil
}

func messagesOldestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("messages.created_at ASC")
}

func messagesNewestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("messages.created_at DESC")
}
