package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NuncEstBibendum/agrolink-api/internal/apperr"
	"github.com/NuncEstBibendum/agrolink-api/internal/domain"
)

func TestRetrieveAndUpdateUser(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)
	user := createUser(t, db, "anna", domain.RoleFarmer)

	got, err := svc.RetrieveUser(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "anna", got.Name)
	assert.Equal(t, domain.RoleFarmer, got.Role)

	require.NoError(t, svc.UpdateUser(user.ID, "Anna K."))

	got, err = svc.RetrieveUser(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Anna K.", got.Name)
	// Role never changes after registration.
	assert.Equal(t, domain.RoleFarmer, got.Role)

	_, err = svc.RetrieveUser(uuid.New())
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	err = svc.UpdateUser(uuid.New(), "ghost")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
