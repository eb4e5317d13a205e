package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/pranaynookala001/securedocs/internal/models"
)

// Migrate brings the schema up to date. gen_random_uuid defaults need
// pgcrypto on Postgres < 13, so the extension is ensured first.
func Migrate(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto`).Error; err != nil {
		return fmt.Errorf("db: pgcrypto: %w", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Session{},
		&models.AuditLog{},
		&models.Folder{},
		&models.Document{},
		&models.DocumentPermission{},
		&models.DocumentComment{},
		&models.Tag{},
	); err != nil {
		return fmt.Errorf("db: migrate: %w", err)
	}
	return nil
}
