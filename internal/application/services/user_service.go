package services

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/NuncEstBibendum/agrolink-api/internal/apperr"
	"github.com/NuncEstBibendum/agrolink-api/internal/domain"
)

type UserService interface {
	RetrieveUser(id uuid.UUID) (*domain.User, error)
	UpdateUser(id uuid.UUID, name string) error
}

type userService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) UserService {
	return &userService{db: db}
}

func (s *userService) RetrieveUser(id uuid.UUID) (*domain.User, error) {
	return findUser(s.db, id)
}

// UpdateUser only touches the display name; email, role and credentials are
// owned by the auth flows.
func (s *userService) UpdateUser(id uuid.UUID, name string) error {
	user, err := findUser(s.db, id)
	if err != nil {
		return err
	}
	if err := s.db.Model(user).Update("name", name).Error; err != nil {
		return apperr.Internal("failed to update user", err)
	}
	return nil
}
