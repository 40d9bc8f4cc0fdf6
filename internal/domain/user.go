package domain

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleFarmer     Role = "farmer"
	RoleAgronomist Role = "agronomist"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleFarmer, RoleAgronomist:
		return true
	}
	return false
}

type User struct {
	ID             uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	Email          string    `gorm:"type:varchar(320);unique;not null" json:"email"`
	Name           string    `gorm:"type:varchar(255);not null" json:"name"`
	Role           Role      `gorm:"type:varchar(20);not null" json:"role"`
	HashedPassword string    `gorm:"type:varchar(60);not null" json:"-"`

	// Password recovery state, set by the forgotten-password flow and
	// cleared once the link is consumed.
	RecoveryToken     sql.NullString `gorm:"column:recovery_token" json:"-"`
	RecoveryExpiresAt sql.NullTime   `gorm:"column:recovery_expires_at" json:"-"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"-"`
}

func (u *User) BeforeSave(tx *gorm.DB) (err error) {
	if !u.Role.IsValid() {
		return fmt.Errorf("invalid user role: %s", u.Role)
	}
	return nil
}
