package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pranaynookala001/securedocs/internal/models"
)

// AuditLogs appends immutable audit rows. Rows are write-once; only
// the review annotation fields ever change after insert.
type AuditLogs struct {
	db *gorm.DB
}

// NewAuditLogs returns the audit store.
func NewAuditLogs(db *gorm.DB) *AuditLogs {
	return &AuditLogs{db: db}
}

// Append inserts one audit record.
func (s *AuditLogs) Append(ctx context.Context, record *models.AuditLog) error {
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("append audit record: %w", err)
	}
	return nil
}

// MarkReviewed sets the review annotation on a record. All other
// fields stay untouched.
func (s *AuditLogs) MarkReviewed(ctx context.Context, id, reviewer uuid.UUID, notes string) error {
	now := time.Now().UTC()
	res := s.db.WithContext(ctx).Model(&models.AuditLog{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"reviewed_at":  now,
			"reviewed_by":  reviewer,
			"review_notes": notes,
		})
	if res.Error != nil {
		return fmt.Errorf("mark reviewed: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
