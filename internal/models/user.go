package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is the coarse access level assigned to a user account.
type Role string

const (
	RoleAdmin   Role = "Admin"
	RoleManager Role = "Manager"
	RoleEditor  Role = "Editor"
	RoleViewer  Role = "Viewer"
)

// Valid reports whether r is one of the four known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleEditor, RoleViewer:
		return true
	}
	return false
}

// Can reports whether the role grants the named document action
// (view, edit, comment, delete, share, admin).
func (r Role) Can(action string) bool {
	switch r {
	case RoleAdmin:
		return true
	case RoleManager:
		return action != "admin"
	case RoleEditor:
		return action == "view" || action == "edit" || action == "comment"
	case RoleViewer:
		return action == "view"
	}
	return false
}

// User is an account record. Accounts are deactivated, never deleted.
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Username     string    `gorm:"type:text;uniqueIndex;not null"`
	Email        string    `gorm:"type:text;uniqueIndex;not null"`
	PasswordHash string    `gorm:"type:text;not null"`
	Role         Role      `gorm:"type:text;not null;default:Viewer"`
	FirstName    string    `gorm:"type:text"`
	LastName     string    `gorm:"type:text"`

	IsActive         bool `gorm:"not null;default:true"`
	EmailVerified    bool `gorm:"not null;default:false"`
	TwoFactorEnabled bool `gorm:"not null;default:false"`

	// FailedLoginAttempts is mutated only through the store's atomic
	// increment/reset operations.
	FailedLoginAttempts int        `gorm:"not null;default:0"`
	LockedUntil         *time.Time `gorm:"index"`
	LastLoginAt         *time.Time
	PasswordChangedAt   *time.Time

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	Sessions  []Session  `gorm:"constraint:OnDelete:CASCADE"`
	Documents []Document `gorm:"foreignKey:OwnerID"`
}

// Locked reports whether the account is under an active lockout.
func (u *User) Locked(now time.Time) bool {
	return u.LockedUntil != nil && u.LockedUntil.After(now)
}

// FullName joins the optional name fields for display.
func (u *User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
