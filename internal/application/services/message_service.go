package services

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/NuncEstBibendum/agrolink-api/internal/apperr"
	"github.com/NuncEstBibendum/agrolink-api/internal/domain"
)

// Publisher receives messages the moment they are persisted, for live
// delivery to conversation subscribers.
type Publisher interface {
	Publish(msg *domain.Message)
}

// MessageService opens conversations, appends replies and tracks reactions,
// maintaining the answer-propagation invariant: any new message closes every
// message already in the thread, and an agronomist's message is born closed
// because it is the answer.
type MessageService interface {
	StartConversation(userID uuid.UUID, title, text string, tags []domain.TagName) (*domain.Conversation, error)
	Reply(userID uuid.UUID, text string, conversationID uuid.UUID) (*domain.Message, error)
	SetReaction(userID, messageID uuid.UUID, liked *bool) (*domain.Message, error)
}

type messageService struct {
	db  *gorm.DB
	pub Publisher
}

// NewMessageService wires the service; pub may be nil when live delivery is
// not needed (tests, one-off tools).
func NewMessageService(db *gorm.DB, pub Publisher) MessageService {
	return &messageService{db: db, pub: pub}
}

func (s *messageService) StartConversation(userID uuid.UUID, title, text string, tags []domain.TagName) (*domain.Conversation, error) {
	user, err := findUser(s.db, userID)
	if err != nil {
		return nil, err
	}

	// Unknown tag names are dropped silently; the matched set just shrinks.
	var foundTags []domain.Tag
	if len(tags) > 0 {
		if err := s.db.Where("name IN ?", tags).Find(&foundTags).Error; err != nil {
			return nil, apperr.Internal("conversation could not be created due to an internal server error", err)
		}
	}

	conversation := domain.Conversation{
		ID:           uuid.New(),
		Title:        title,
		AuthorID:     user.ID,
		Participants: []domain.User{*user},
		Tags:         foundTags,
	}

	// The conversation and its opening message stand or fall together.
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&conversation).Error; err != nil {
			return err
		}
		opening := domain.Message{
			ID:             uuid.New(),
			ConversationID: conversation.ID,
			AuthorID:       user.ID,
			Text:           text,
			HasAnswer:      false,
		}
		return tx.Create(&opening).Error
	})
	if err != nil {
		return nil, apperr.Internal("conversation could not be created due to an internal server error", err)
	}

	return s.loadConversation(conversation.ID)
}

func (s *messageService) Reply(userID uuid.UUID, text string, conversationID uuid.UUID) (*domain.Message, error) {
	user, err := findUser(s.db, userID)
	if err != nil {
		return nil, err
	}

	var conversation domain.Conversation
	err = s.db.Preload("Participants").First(&conversation, "id = ?", conversationID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("conversation not found")
		}
		return nil, apperr.Internal("failed to load conversation", err)
	}

	// A farmer outside the thread gets the same answer as for a missing
	// conversation, so existence is never confirmed to outsiders.
	if user.Role == domain.RoleFarmer && !conversation.HasParticipant(user.ID) {
		return nil, apperr.NotFound("conversation not found")
	}

	message := domain.Message{
		ID:             uuid.New(),
		ConversationID: conversation.ID,
		AuthorID:       user.ID,
		Text:           text,
		HasAnswer:      user.Role == domain.RoleAgronomist,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&domain.Message{}).
			Where("conversation_id = ?", conversation.ID).
			Update("has_answer", true).Error; err != nil {
			return err
		}
		return tx.Create(&message).Error
	})
	if err != nil {
		return nil, apperr.Internal("message could not be created", err)
	}

	created, err := s.loadMessage(message.ID)
	if err != nil {
		return nil, err
	}
	if s.pub != nil {
		s.pub.Publish(created)
	}
	return created, nil
}

func (s *messageService) SetReaction(userID, messageID uuid.UUID, liked *bool) (*domain.Message, error) {
	user, err := findUser(s.db, userID)
	if err != nil {
		return nil, err
	}
	if user.Role != domain.RoleFarmer {
		return nil, apperr.Unauthorized("user is not a farmer")
	}

	var message domain.Message
	if err := s.db.Preload("Author").First(&message, "id = ?", messageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("message not found")
		}
		return nil, apperr.Internal("failed to load message", err)
	}

	if sameReaction(message.IsLiked, liked) {
		return nil, apperr.NotFound("reaction already set")
	}

	if err := s.db.Model(&message).Update("is_liked", liked).Error; err != nil {
		return nil, apperr.Internal("failed to save reaction", err)
	}
	message.IsLiked = liked
	return &message, nil
}

// sameReaction compares the tri-state reaction values: both unset, or both
// set to the same boolean.
func sameReaction(current, requested *bool) bool {
	if current == nil || requested == nil {
		return current == nil && requested == nil
	}
	return *current == *requested
}

func (s *messageService) loadConversation(id uuid.UUID) (*domain.Conversation, error) {
	var conversation domain.Conversation
	err := s.db.
		Preload("Participants").
		Preload("Tags").
		Preload("Messages", messagesOldestFirst).
		Preload("Messages.Author").
		First(&conversation, "id = ?", id).Error
	if err != nil {
		return nil, apperr.Internal("failed to load conversation", err)
	}
	return &conversation, nil
}

func (s *messageService) loadMessage(id uuid.UUID) (*domain.Message, error) {
	var message domain.Message
	if err := s.db.Preload("Author").First(&message, "id = ?", id).Error; err != nil {
		return nil, apperr.Internal("failed to load message", err)
	}
	return &message, nil
}
