package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/NuncEstBibendum/agrolink-api/internal/apperr"
	"github.com/NuncEstBibendum/agrolink-api/internal/domain"
)

func TestStartConversation(t *testing.T) {
	db := newTestDB(t)
	svc := NewMessageService(db, nil)
	farmer := createUser(t, db, "farmer-a", domain.RoleFarmer)

	conv, err := svc.StartConversation(farmer.ID, "Pest issue", "Aphids on tomatoes",
		[]domain.TagName{domain.TagCropProtection})
	require.NoError(t, err)

	require.Len(t, conv.Messages, 1)
	assert.Equal(t, "Aphids on tomatoes", conv.Messages[0].Text)
	assert.False(t, conv.Messages[0].HasAnswer, "opening message must be open until a reply arrives")
	assert.Equal(t, farmer.ID, conv.Messages[0].Author.ID)

	require.Len(t, conv.Participants, 1)
	assert.Equal(t, farmer.ID, conv.Participants[0].ID)
	assert.Equal(t, farmer.ID, conv.AuthorID)

	require.Len(t, conv.Tags, 1)
	assert.Equal(t, domain.TagCropProtection, conv.Tags[0].Name)
}

func TestStartConversation_UnknownTagsShrinkTheSet(t *testing.T) {
	db := newTestDB(t)
	svc := NewMessageService(db, nil)
	farmer := createUser(t, db, "farmer-a", domain.RoleFarmer)

	conv, err := svc.StartConversation(farmer.ID, "Soil question", "Low nitrogen?",
		[]domain.TagName{domain.TagSoilHealth, domain.TagName("NOT_A_TAG")})
	require.NoError(t, err)

	require.Len(t, conv.Tags, 1)
	assert.Equal(t, domain.TagSoilHealth, conv.Tags[0].Name)
}

func TestStartConversation_UnknownCaller(t *testing.T) {
	db := newTestDB(t)
	svc := NewMessageService(db, nil)

	_, err := svc.StartConversation(uuid.New(), "title", "body", nil)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestReply_MarksAllPriorMessagesAnswered(t *testing.T) {
	db := newTestDB(t)
	svc := NewMessageService(db, nil)
	farmer := createUser(t, db, "farmer-a", domain.RoleFarmer)
	agronomist := createUser(t, db, "agro-b", domain.RoleAgronomist)

	conv, err := svc.StartConversation(farmer.ID, "Pest issue", "Aphids on tomatoes",
		[]domain.TagName{domain.TagCropProtection})
	require.NoError(t, err)

	reply, err := svc.Reply(agronomist.ID, "Spray neem oil", conv.ID)
	require.NoError(t, err)
	assert.True(t, reply.HasAnswer, "an agronomist's reply is the answer")
	assert.Equal(t, agronomist.ID, reply.Author.ID)

	var opening domain.Message
	require.NoError(t, db.First(&opening, "id = ?", conv.Messages[0].ID).Error)
	assert.True(t, opening.HasAnswer, "the opening message must be closed by the reply")
}

func TestReply_FarmerMessageStaysOpen(t *testing.T) {
	db := newTestDB(t)
	svc := NewMessageService(db, nil)
	farmer := createUser(t, db, "farmer-a", domain.RoleFarmer)

	conv, err := svc.StartConversation(farmer.ID, "Pest issue", "Aphids", nil)
	require.NoError(t, err)

	// A follow-up from the same farmer still closes the prior message but
	// leaves its own question open.
	reply, err := svc.Reply(farmer.ID, "They are spreading fast", conv.ID)
	require.NoError(t, err)
	assert.False(t, reply.HasAnswer)

	var opening domain.Message
	require.NoError(t, db.First(&opening, "id = ?", conv.Messages[0].ID).Error)
	assert.True(t, opening.HasAnswer)
}

func TestReply_FarmerOutsideConversation(t *testing.T) {
	db := newTestDB(t)
	svc := NewMessageService(db, nil)
	farmer := createUser(t, db, "farmer-a", domain.RoleFarmer)
	outsider := createUser(t, db, "farmer-b", domain.RoleFarmer)

	conv, err := svc.StartConversation(farmer.ID, "Pest issue", "Aphids", nil)
	require.NoError(t, err)

	_, err = svc.Reply(outsider.ID, "let me in", conv.ID)
	require.ErrorIs(t, err, apperr.ErrNotFound)
	// Non-participation must be indistinguishable from a missing conversation.
	assert.EqualError(t, err, "conversation not found")
}

func TestReply_AgronomistJoinsAnyConversation(t *testing.T) {
	db := newTestDB(t)
	svc := NewMessageService(db, nil)
	farmer := createUser(t, db, "farmer-a", domain.RoleFarmer)
	agronomist := createUser(t, db, "agro-b", domain.RoleAgronomist)

	conv, err := svc.StartConversation(farmer.ID, "Pest issue", "Aphids", nil)
	require.NoError(t, err)

	_, err = svc.Reply(agronomist.ID, "Here to help", conv.ID)
	assert.NoError(t, err)
}

func TestReply_MissingConversation(t *testing.T) {
	db := newTestDB(t)
	svc := NewMessageService(db, nil)
	farmer := createUser(t, db, "farmer-a", domain.RoleFarmer)

	_, err := svc.Reply(farmer.ID, "hello?", uuid.New())
	require.ErrorIs(t, err, apperr.ErrNotFound)
	assert.EqualError(t, err, "conversation not found")
}

func TestReply_PublishesForLiveDelivery(t *testing.T) {
	db := newTestDB(t)
	pub := &capturePublisher{}
	svc := NewMessageService(db, pub)
	farmer := createUser(t, db, "farmer-a", domain.RoleFarmer)

	conv, err := svc.StartConversation(farmer.ID, "Pest issue", "Aphids", nil)
	require.NoError(t, err)

	reply, err := svc.Reply(farmer.ID, "still there", conv.ID)
	require.NoError(t, err)

	require.Len(t, pub.messages, 1)
	assert.Equal(t, reply.ID, pub.messages[0].ID)
	assert.Equal(t, conv.ID, pub.messages[0].ConversationID)
}

// rejectMessageInserts installs a trigger that aborts any insert into the
// messages table, so a multi-write sequence fails part-way through.
func rejectMessageInserts(t *testing.T, db *gorm.DB) {
	t.Helper()
	require.NoError(t, db.Exec(
		`CREATE TRIGGER reject_message_inserts BEFORE INSERT ON messages
		 BEGIN SELECT RAISE(ABORT, 'message insert rejected'); END`).Error)
}

func TestStartConversation_PartialFailureLeavesNothing(t *testing.T) {
	db := newTestDB(t)
	svc := NewMessageService(db, nil)
	farmer := createUser(t, db, "farmer-a", domain.RoleFarmer)

	// The conversation row goes in first; the opening-message insert then
	// fails and must take the conversation down with it.
	rejectMessageInserts(t, db)

	_, err := svc.StartConversation(farmer.ID, "Pest issue", "Aphids",
		[]domain.TagName{domain.TagCropProtection})
	require.ErrorIs(t, err, apperr.ErrInternal)

	var conversations int64
	require.NoError(t, db.Model(&domain.Conversation{}).Count(&conversations).Error)
	assert.Zero(t, conversations, "a conversation must never exist without its opening message")
}

func TestReply_PartialFailureChangesNothing(t *testing.T) {
	db := newTestDB(t)
	svc := NewMessageService(db, nil)
	farmer := createUser(t, db, "farmer-a", domain.RoleFarmer)
	agronomist := createUser(t, db, "agro-b", domain.RoleAgronomist)

	conv, err := svc.StartConversation(farmer.ID, "Pest issue", "Aphids", nil)
	require.NoError(t, err)

	// Mark-all-answered succeeds, the reply insert fails: the whole
	// sequence must roll back.
	rejectMessageInserts(t, db)

	_, err = svc.Reply(agronomist.ID, "Spray neem oil", conv.ID)
	require.ErrorIs(t, err, apperr.ErrInternal)

	var opening domain.Message
	require.NoError(t, db.First(&opening, "id = ?", conv.Messages[0].ID).Error)
	assert.False(t, opening.HasAnswer, "a failed reply must not close prior messages")

	var messages int64
	require.NoError(t, db.Model(&domain.Message{}).Where("conversation_id = ?", conv.ID).Count(&messages).Error)
	assert.EqualValues(t, 1, messages)
}

func TestSetReaction(t *testing.T) {
	db := newTestDB(t)
	svc := NewMessageService(db, nil)
	farmer := createUser(t, db, "farmer-a", domain.RoleFarmer)
	agronomist := createUser(t, db, "agro-b", domain.RoleAgronomist)

	conv, err := svc.StartConversation(farmer.ID, "Pest issue", "Aphids", nil)
	require.NoError(t, err)
	reply, err := svc.Reply(agronomist.ID, "Spray neem oil", conv.ID)
	require.NoError(t, err)

	liked, err := svc.SetReaction(farmer.ID, reply.ID, boolPtr(true))
	require.NoError(t, err)
	require.NotNil(t, liked.IsLiked)
	assert.True(t, *liked.IsLiked)

	// Repeating the same reaction is rejected.
	_, err = svc.SetReaction(farmer.ID, reply.ID, boolPtr(true))
	require.ErrorIs(t, err, apperr.ErrNotFound)
	assert.EqualError(t, err, "reaction already set")

	// Flipping to the other value is fine.
	disliked, err := svc.SetReaction(farmer.ID, reply.ID, boolPtr(false))
	require.NoError(t, err)
	require.NotNil(t, disliked.IsLiked)
	assert.False(t, *disliked.IsLiked)

	// Clearing back to no reaction is a state change too.
	cleared, err := svc.SetReaction(farmer.ID, reply.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, cleared.IsLiked)

	var stored domain.Message
	require.NoError(t, db.First(&stored, "id = ?", reply.ID).Error)
	assert.Nil(t, stored.IsLiked)
}

func TestSetReaction_AgronomistForbidden(t *testing.T) {
	db := newTestDB(t)
	svc := NewMessageService(db, nil)
	farmer := createUser(t, db, "farmer-a", domain.RoleFarmer)
	agronomist := createUser(t, db, "agro-b", domain.RoleAgronomist)

	conv, err := svc.StartConversation(farmer.ID, "Pest issue", "Aphids", nil)
	require.NoError(t, err)

	_, err = svc.SetReaction(agronomist.ID, conv.Messages[0].ID, boolPtr(true))
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestSetReaction_MissingMessage(t *testing.T) {
	db := newTestDB(t)
	svc := NewMessageService(db, nil)
	farmer := createUser(t, db, "farmer-a", domain.RoleFarmer)

	_, err := svc.SetReaction(farmer.ID, uuid.New(), boolPtr(true))
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
