package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AuditLog is an immutable activity record. Only the review annotation
// fields may be updated after the row is written.
type AuditLog struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Timestamp time.Time `gorm:"not null;index"`

	// UserID is the acting account id, or "anonymous" for
	// unauthenticated activity.
	UserID     string     `gorm:"type:text;not null;index"`
	Action     string     `gorm:"type:text;not null;index"`
	EntityType string     `gorm:"type:text;not null"`
	EntityID   *uuid.UUID `gorm:"type:uuid"`

	Severity    string `gorm:"type:text;not null;default:Info"`
	Description string `gorm:"type:text"`
	IPAddress   string `gorm:"type:text"`
	UserAgent   string `gorm:"type:text"`

	IsSecurityEvent bool `gorm:"not null;default:false;index"`
	RequiresReview  bool `gorm:"not null;default:false"`

	ReviewedAt  *time.Time
	ReviewedBy  *uuid.UUID `gorm:"type:uuid"`
	ReviewNotes string     `gorm:"type:text"`

	Metadata datatypes.JSON `gorm:"type:jsonb;default:'{}'::jsonb"`
}
