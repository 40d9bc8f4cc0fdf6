package services

import (
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/NuncEstBibendum/agrolink-api/internal/domain"
	"github.com/NuncEstBibendum/agrolink-api/internal/infrastructure/database"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func createUser(t *testing.T, db *gorm.DB, name string, role domain.Role) *domain.User {
	t.Helper()
	user := &domain.User{
		ID:             uuid.New(),
		Email:          fmt.Sprintf("%s-%s@example.com", name, uuid.NewString()[:8]),
		Name:           name,
		Role:           role,
		HashedPassword: "not-a-real-hash",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// capturePublisher records everything published for live delivery.
type capturePublisher struct {
	messages []*domain.Message
}

func (c *capturePublisher) Publish(msg *domain.Message) {
	c.messages = append(c.messages, msg)
}

func boolPtr(b bool) *bool { return &b }
