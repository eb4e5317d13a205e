package db

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/pranaynookala001/securedocs/internal/models"
	"github.com/pranaynookala001/securedocs/internal/password"
)

// Seed creates the initial admin account if no admin exists. The
// password comes from the caller (flag or env), never a hardcoded
// default.
func Seed(db *gorm.DB, adminPassword string, log zerolog.Logger) error {
	if adminPassword == "" {
		return errors.New("db: seed: admin password is required")
	}

	var existing models.User
	err := db.Where("role = ?", models.RoleAdmin).First(&existing).Error
	if err == nil {
		log.Info().Str("username", existing.Username).Msg("admin account already present, skipping seed")
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("db: seed: %w", err)
	}

	hasher, err := password.New(password.DefaultParams())
	if err != nil {
		return fmt.Errorf("db: seed: %w", err)
	}
	hash, err := hasher.Hash(adminPassword)
	if err != nil {
		return fmt.Errorf("db: seed: %w", err)
	}

	admin := models.User{
		ID:            uuid.New(),
		Username:      "admin",
		Email:         "admin@securedocs.local",
		PasswordHash:  hash,
		Role:          models.RoleAdmin,
		FirstName:     "System",
		LastName:      "Administrator",
		IsActive:      true,
		EmailVerified: true,
	}
	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("db: seed: %w", err)
	}

	log.Info().Str("username", admin.Username).Msg("admin account created")
	return nil
}
