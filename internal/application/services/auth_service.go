package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/NuncEstBibendum/agrolink-api/internal/apperr"
	"github.com/NuncEstBibendum/agrolink-api/internal/auth"
	"github.com/NuncEstBibendum/agrolink-api/internal/domain"
	"github.com/NuncEstBibendum/agrolink-api/internal/infrastructure/email"
	"github.com/NuncEstBibendum/agrolink-api/internal/logger"
)

const bcryptCost = 10

// TokenBundle is what a successful authentication returns to the client.
type TokenBundle struct {
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
	Email        string      `json:"email"`
	Role         domain.Role `json:"profession"`
}

type AuthService interface {
	Register(email, name, password string, role domain.Role) (*TokenBundle, error)
	SignIn(email, password string) (*TokenBundle, error)
	UpdatePassword(userID uuid.UUID, oldPassword, newPassword string) (*TokenBundle, error)
	IsEmailFree(email string, excludeUserID *uuid.UUID) (bool, error)
	SendPasswordRecovery(ctx context.Context, userEmail, redirectURL string, now time.Time) error
	UpdatePasswordByLink(userID uuid.UUID, token, newPassword string, now time.Time) error
}

type authService struct {
	db          *gorm.DB
	tokens      *auth.TokenManager
	mail        email.Sender
	recoveryTTL time.Duration
}

func NewAuthService(db *gorm.DB, tokens *auth.TokenManager, mail email.Sender, recoveryTTL time.Duration) AuthService {
	return &authService{db: db, tokens: tokens, mail: mail, recoveryTTL: recoveryTTL}
}

func (s *authService) Register(userEmail, name, password string, role domain.Role) (*TokenBundle, error) {
	if !role.IsValid() {
		return nil, apperr.Invalid(fmt.Sprintf("invalid profession: %s", role))
	}
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}

	free, err := s.IsEmailFree(userEmail, nil)
	if err != nil {
		return nil, err
	}
	if !free {
		return nil, apperr.Conflictf("an user already exists with email %s", userEmail)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, apperr.Internal("failed to hash password", err)
	}

	user := domain.User{
		ID:             uuid.New(),
		Email:          userEmail,
		Name:           name,
		Role:           role,
		HashedPassword: string(hashed),
	}
	if err := s.db.Create(&user).Error; err != nil {
		// Two registrations can race past the availability check; the unique
		// index on email is the arbiter then.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflictf("an user already exists with email %s", userEmail)
		}
		return nil, apperr.Internal("failed to create user", err)
	}
	return s.login(&user)
}

func (s *authService) SignIn(userEmail, password string) (*TokenBundle, error) {
	var user domain.User
	err := s.db.First(&user, "email = ?", userEmail).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Unauthorized("wrong credentials")
		}
		return nil, apperr.Internal("failed to load user", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)) != nil {
		return nil, apperr.Unauthorized("wrong credentials")
	}
	return s.login(&user)
}

func (s *authService) UpdatePassword(userID uuid.UUID, oldPassword, newPassword string) (*TokenBundle, error) {
	user, err := findUser(s.db, userID)
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(oldPassword)) != nil {
		return nil, apperr.Unauthorized("wrong password")
	}
	if err := ValidatePassword(newPassword); err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return nil, apperr.Internal("failed to hash password", err)
	}
	if err := s.db.Model(user).Update("hashed_password", string(hashed)).Error; err != nil {
		return nil, apperr.Internal("failed to update password", err)
	}
	return s.login(user)
}

func (s *authService) IsEmailFree(userEmail string, excludeUserID *uuid.UUID) (bool, error) {
	query := s.db.Model(&domain.User{}).Where("email = ?", userEmail)
	if excludeUserID != nil {
		query = query.Where("id <> ?", *excludeUserID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, apperr.Internal("failed to check email availability", err)
	}
	return count == 0, nil
}

// SendPasswordRecovery stores a fresh recovery token and emails the reset
// link. A missing account is deliberately silent so the endpoint never leaks
// whether an email is registered.
func (s *authService) SendPasswordRecovery(ctx context.Context, userEmail, redirectURL string, now time.Time) error {
	var user domain.User
	err := s.db.First(&user, "email = ?", userEmail).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Log.Debug("password recovery requested for unknown email")
			return nil
		}
		return apperr.Internal("failed to load user", err)
	}

	token := uuid.NewString()
	updates := map[string]interface{}{
		"recovery_token":      token,
		"recovery_expires_at": now.Add(s.recoveryTTL),
	}
	if err := s.db.Model(&user).Updates(updates).Error; err != nil {
		return apperr.Internal("failed to store recovery token", err)
	}

	url := fmt.Sprintf("%s?id=%s&token=%s", redirectURL, user.ID, token)
	if err := s.mail.SendPasswordRecovery(ctx, user.Email, url); err != nil {
		logger.Log.Warn("failed to send recovery email", zap.Error(err))
	}
	return nil
}

func (s *authService) UpdatePasswordByLink(userID uuid.UUID, token, newPassword string, now time.Time) error {
	user, err := findUser(s.db, userID)
	if err != nil {
		return err
	}
	if !user.RecoveryToken.Valid || user.RecoveryToken.String != token {
		return apperr.Unauthorized("invalid token")
	}
	if user.RecoveryExpiresAt.Valid && now.After(user.RecoveryExpiresAt.Time) {
		return apperr.Unauthorized("invalid token")
	}
	if err := ValidatePassword(newPassword); err != nil {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return apperr.Internal("failed to hash password", err)
	}
	updates := map[string]interface{}{
		"recovery_token":      sql.NullString{},
		"recovery_expires_at": sql.NullTime{},
		"hashed_password":     string(hashed),
	}
	if err := s.db.Model(user).Updates(updates).Error; err != nil {
		return apperr.Internal("failed to update password", err)
	}
	return nil
}

func (s *authService) login(user *domain.User) (*TokenBundle, error) {
	access, refresh, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, apperr.Internal("failed to issue tokens", err)
	}
	return &TokenBundle{
		AccessToken:  access,
		RefreshToken: refresh,
		Email:        user.Email,
		Role:         user.Role,
	}, nil
}
