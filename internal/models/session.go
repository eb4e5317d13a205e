package models

import (
	"time"

	"github.com/google/uuid"
)

// Session tracks one refresh-token grant. Only the SHA-256 hash of the
// opaque token value is stored; the raw value exists in transit only.
type Session struct {
	ID               uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID           uuid.UUID `gorm:"type:uuid;not null;index"`
	RefreshTokenHash string    `gorm:"type:text;uniqueIndex;not null"`
	CreatedAt        time.Time `gorm:"autoCreateTime"`
	ExpiresAt        time.Time `gorm:"not null"`
	LastActivityAt   *time.Time

	IPAddress  string `gorm:"type:text"`
	UserAgent  string `gorm:"type:text"`
	DeviceInfo string `gorm:"type:text"`
	IsActive   bool   `gorm:"not null;default:true;index"`

	User User `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID"`
}

// Expired reports whether the grant has passed its expiry.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Valid reports whether the grant is active and unexpired.
func (s *Session) Valid(now time.Time) bool {
	return s.IsActive && !s.Expired(now)
}
