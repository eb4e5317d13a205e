package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pranaynookala001/securedocs/internal/models"
)

// Sessions persists refresh-token grants.
type Sessions struct {
	db *gorm.DB
}

// NewSessions returns the session store.
func NewSessions(db *gorm.DB) *Sessions {
	return &Sessions{db: db}
}

// Create inserts a new session row.
func (s *Sessions) Create(ctx context.Context, session *models.Session) error {
	if err := s.db.WithContext(ctx).Create(session).Error; err != nil {
		return fmt.Errorf("create session: %w", translate(err))
	}
	return nil
}

// ByTokenHash finds the active session holding the presented token
// digest. Inactive and unknown tokens are indistinguishable.
func (s *Sessions) ByTokenHash(ctx context.Context, digest string) (*models.Session, error) {
	var session models.Session
	err := s.db.WithContext(ctx).
		Where("refresh_token_hash = ? AND is_active", digest).
		First(&session).Error
	if err != nil {
		return nil, fmt.Errorf("session by token: %w", translate(err))
	}
	return &session, nil
}

// Rotate swaps the token digest and expiry on the session row,
// conditioned on the old digest still being current. The WHERE clause
// is the compare-and-swap: a replayed old token, or a concurrent
// rotation that already won, matches zero rows and reports false.
func (s *Sessions) Rotate(ctx context.Context, id uuid.UUID, oldDigest, newDigest string, expiresAt, activityAt time.Time) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.Session{}).
		Where("id = ? AND refresh_token_hash = ? AND is_active", id, oldDigest).
		Updates(map[string]any{
			"refresh_token_hash": newDigest,
			"expires_at":         expiresAt,
			"last_activity_at":   activityAt,
		})
	if res.Error != nil {
		return false, fmt.Errorf("rotate session: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// Deactivate marks the account's session holding the digest inactive.
// Reports whether a session was actually revoked; revoking an already
// inactive or unknown token is a no-op, not an error.
func (s *Sessions) Deactivate(ctx context.Context, userID uuid.UUID, digest string) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.Session{}).
		Where("user_id = ? AND refresh_token_hash = ? AND is_active", userID, digest).
		Update("is_active", false)
	if res.Error != nil {
		return false, fmt.Errorf("deactivate session: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// DeactivateAll revokes every active session for the account and
// returns the revoked count.
func (s *Sessions) DeactivateAll(ctx context.Context, userID uuid.UUID) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Session{}).
		Where("user_id = ? AND is_active", userID).
		Update("is_active", false)
	if res.Error != nil {
		return 0, fmt.Errorf("deactivate all sessions: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// ListActive returns the account's active, unexpired sessions.
func (s *Sessions) ListActive(ctx context.Context, userID uuid.UUID) ([]models.Session, error) {
	var sessions []models.Session
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND is_active AND expires_at > ?", userID, time.Now().UTC()).
		Order("created_at DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}
