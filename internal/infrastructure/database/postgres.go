package database

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/NuncEstBibendum/agrolink-api/internal/domain"
)

func NewPostgreSQLDB(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database DSN is empty")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// Migrate creates or updates the schema and seeds the tag vocabulary.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&domain.User{},
		&domain.Tag{},
		&domain.Conversation{},
		&domain.Message{},
	); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return SeedTags(db)
}

// SeedTags makes sure every tag of the closed vocabulary exists. Unknown
// names are never added at runtime; this is the only writer of the table.
func SeedTags(db *gorm.DB) error {
	for _, name := range domain.AllTagNames() {
		tag := domain.Tag{Name: name}
		if err := db.Where("name = ?", name).
			Attrs(domain.Tag{ID: uuid.New()}).
			FirstOrCreate(&tag).Error; err != nil {
			return fmt.Errorf("failed to seed tag %s: %w", name, err)
		}
	}
	return nil
}
