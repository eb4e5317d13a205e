package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pranaynookala001/securedocs/internal/models"
)

// Users persists account records.
type Users struct {
	db *gorm.DB
}

// NewUsers returns the account store.
func NewUsers(db *gorm.DB) *Users {
	return &Users{db: db}
}

// ByIdentifier finds an account by exact username or email match.
func (s *Users) ByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Where("username = ? OR email = ?", identifier, identifier).
		First(&user).Error
	if err != nil {
		return nil, fmt.Errorf("user by identifier: %w", translate(err))
	}
	return &user, nil
}

// ByID finds an account by primary key.
func (s *Users) ByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("user by id: %w", translate(err))
	}
	return &user, nil
}

// Create inserts a new account row.
func (s *Users) Create(ctx context.Context, user *models.User) error {
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("create user: %w", translate(err))
	}
	return nil
}

// UsernameExists reports whether a username is already taken.
func (s *Users) UsernameExists(ctx context.Context, username string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("username = ?", username).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("username exists: %w", err)
	}
	return count > 0, nil
}

// EmailExists reports whether an email is already registered.
func (s *Users) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ?", email).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("email exists: %w", err)
	}
	return count > 0, nil
}

// IncrementFailedLogins bumps the failure counter and returns the new
// value. The increment-and-read happens in one UPDATE ... RETURNING
// statement so concurrent failed attempts cannot under-count the
// lockout threshold.
func (s *Users) IncrementFailedLogins(ctx context.Context, id uuid.UUID) (int, error) {
	var count int
	err := s.db.WithContext(ctx).Raw(
		`UPDATE users
		    SET failed_login_attempts = failed_login_attempts + 1,
		        updated_at = ?
		  WHERE id = ?
		RETURNING failed_login_attempts`,
		time.Now().UTC(), id,
	).Scan(&count).Error
	if err != nil {
		return 0, fmt.Errorf("increment failed logins: %w", err)
	}
	return count, nil
}

// RecordLogin resets the failure counter and stamps the login time in
// one update.
func (s *Users) RecordLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"failed_login_attempts": 0,
			"last_login_at":         at,
		}).Error
	if err != nil {
		return fmt.Errorf("record login: %w", err)
	}
	return nil
}

// SetLock sets the lockout expiry on the account.
func (s *Users) SetLock(ctx context.Context, id uuid.UUID, until time.Time) error {
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Update("locked_until", until).Error
	if err != nil {
		return fmt.Errorf("set lock: %w", err)
	}
	return nil
}

// ClearLock removes the lockout and resets the failure counter.
func (s *Users) ClearLock(ctx context.Context, id uuid.UUID) error {
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"locked_until":          nil,
			"failed_login_attempts": 0,
		}).Error
	if err != nil {
		return fmt.Errorf("clear lock: %w", err)
	}
	return nil
}

// UpdatePasswordHash replaces the stored hash and stamps the change.
func (s *Users) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string, at time.Time) error {
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"password_hash":       hash,
			"password_changed_at": at,
		}).Error
	if err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}
	return nil
}
