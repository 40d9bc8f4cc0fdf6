package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/NuncEstBibendum/agrolink-api/internal/apperr"
	"github.com/NuncEstBibendum/agrolink-api/internal/auth"
	"github.com/NuncEstBibendum/agrolink-api/internal/config"
	"github.com/NuncEstBibendum/agrolink-api/internal/domain"
)

type captureMailer struct {
	to  string
	url string
}

func (m *captureMailer) SendPasswordRecovery(_ context.Context, to, url string) error {
	m.to = to
	m.url = url
	return nil
}

func newAuthService(t *testing.T, db *gorm.DB) (AuthService, *captureMailer) {
	t.Helper()
	tokens := auth.NewTokenManager(&config.Config{
		AccessSecret:     "test-access-secret",
		RefreshSecret:    "test-refresh-secret",
		AccessExpMinutes: 60,
		RefreshExpHours:  24,
	})
	mailer := &captureMailer{}
	return NewAuthService(db, tokens, mailer, 24*time.Hour), mailer
}

func TestRegisterAndSignIn(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newAuthService(t, db)

	bundle, err := svc.Register("anna@example.com", "Anna", "Str0ng!pass", domain.RoleFarmer)
	require.NoError(t, err)
	assert.NotEmpty(t, bundle.AccessToken)
	assert.NotEmpty(t, bundle.RefreshToken)
	assert.Equal(t, domain.RoleFarmer, bundle.Role)

	signedIn, err := svc.SignIn("anna@example.com", "Str0ng!pass")
	require.NoError(t, err)
	assert.Equal(t, "anna@example.com", signedIn.Email)

	_, err = svc.SignIn("anna@example.com", "wrong-password")
	require.ErrorIs(t, err, apperr.ErrUnauthorized)
	assert.EqualError(t, err, "wrong credentials")

	_, err = svc.SignIn("nobody@example.com", "Str0ng!pass")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestRegister_EmailConflict(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newAuthService(t, db)

	_, err := svc.Register("anna@example.com", "Anna", "Str0ng!pass", domain.RoleFarmer)
	require.NoError(t, err)

	_, err = svc.Register("anna@example.com", "Imposter", "Str0ng!pass", domain.RoleAgronomist)
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestRegister_DuplicateEmailRace(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newAuthService(t, db)

	// Sneak a user with the same email in between the availability check and
	// the insert, the way a concurrent registration would.
	raced := false
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("duplicate_email_race", func(tx *gorm.DB) {
		if raced || tx.Statement.Table != "users" {
			return
		}
		raced = true
		_, err := tx.Statement.ConnPool.ExecContext(tx.Statement.Context,
			"INSERT INTO users (id, email, name, role, hashed_password) VALUES (?, ?, ?, ?, ?)",
			uuid.NewString(), "anna@example.com", "Anna", "farmer", "not-a-real-hash")
		require.NoError(t, err)
	}))

	_, err := svc.Register("anna@example.com", "Anna", "Str0ng!pass", domain.RoleFarmer)
	require.ErrorIs(t, err, apperr.ErrConflict)
	assert.EqualError(t, err, "an user already exists with email anna@example.com")
	assert.True(t, raced)
}

func TestRegister_Validation(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newAuthService(t, db)

	_, err := svc.Register("anna@example.com", "Anna", "weak", domain.RoleFarmer)
	assert.ErrorIs(t, err, apperr.ErrInvalid)

	_, err = svc.Register("anna@example.com", "Anna", "Str0ng!pass", domain.Role("admin"))
	assert.ErrorIs(t, err, apperr.ErrInvalid)
}

func TestUpdatePassword(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newAuthService(t, db)

	_, err := svc.Register("anna@example.com", "Anna", "Str0ng!pass", domain.RoleFarmer)
	require.NoError(t, err)

	var user domain.User
	require.NoError(t, db.First(&user, "email = ?", "anna@example.com").Error)

	_, err = svc.UpdatePassword(user.ID, "wrong-old", "N3w!password")
	require.ErrorIs(t, err, apperr.ErrUnauthorized)
	assert.EqualError(t, err, "wrong password")

	_, err = svc.UpdatePassword(user.ID, "Str0ng!pass", "N3w!password")
	require.NoError(t, err)

	_, err = svc.SignIn("anna@example.com", "N3w!password")
	assert.NoError(t, err)
}

func TestIsEmailFree(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newAuthService(t, db)

	_, err := svc.Register("anna@example.com", "Anna", "Str0ng!pass", domain.RoleFarmer)
	require.NoError(t, err)

	free, err := svc.IsEmailFree("anna@example.com", nil)
	require.NoError(t, err)
	assert.False(t, free)

	free, err = svc.IsEmailFree("fresh@example.com", nil)
	require.NoError(t, err)
	assert.True(t, free)

	// The owner checking their own email is not a conflict.
	var user domain.User
	require.NoError(t, db.First(&user, "email = ?", "anna@example.com").Error)
	free, err = svc.IsEmailFree("anna@example.com", &user.ID)
	require.NoError(t, err)
	assert.True(t, free)
}

func TestPasswordRecoveryFlow(t *testing.T) {
	db := newTestDB(t)
	svc, mailer := newAuthService(t, db)
	now := time.Now()

	_, err := svc.Register("anna@example.com", "Anna", "Str0ng!pass", domain.RoleFarmer)
	require.NoError(t, err)

	require.NoError(t, svc.SendPasswordRecovery(context.Background(), "anna@example.com", "https://app.example.com/reset", now))
	assert.Equal(t, "anna@example.com", mailer.to)
	require.Contains(t, mailer.url, "https://app.example.com/reset?id=")

	var user domain.User
	require.NoError(t, db.First(&user, "email = ?", "anna@example.com").Error)
	require.True(t, user.RecoveryToken.Valid)
	token := user.RecoveryToken.String
	assert.True(t, strings.HasSuffix(mailer.url, "&token="+token))

	// Wrong token, then expired token, then the real thing.
	err = svc.UpdatePasswordByLink(user.ID, "bogus", "N3w!password", now)
	require.ErrorIs(t, err, apperr.ErrUnauthorized)
	assert.EqualError(t, err, "invalid token")

	err = svc.UpdatePasswordByLink(user.ID, token, "N3w!password", now.Add(25*time.Hour))
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	require.NoError(t, svc.UpdatePasswordByLink(user.ID, token, "N3w!password", now.Add(time.Hour)))

	_, err = svc.SignIn("anna@example.com", "N3w!password")
	require.NoError(t, err)

	// Token is single use.
	err = svc.UpdatePasswordByLink(user.ID, token, "An0ther!pass", now)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestPasswordRecovery_UnknownEmailIsSilent(t *testing.T) {
	db := newTestDB(t)
	svc, mailer := newAuthService(t, db)

	err := svc.SendPasswordRecovery(context.Background(), "ghost@example.com", "https://app.example.com/reset", time.Now())
	require.NoError(t, err, "account existence must not leak")
	assert.Empty(t, mailer.to)
}

func TestUpdatePasswordByLink_UnknownUser(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newAuthService(t, db)

	err := svc.UpdatePasswordByLink(uuid.New(), "token", "N3w!password", time.Now())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
