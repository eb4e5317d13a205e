package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Document is file metadata. Binary content lives in external storage
// referenced by StoragePath; this service never handles the bytes.
type Document struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name         string    `gorm:"type:text;not null"`
	OriginalName string    `gorm:"type:text;not null"`
	ContentType  string    `gorm:"type:text;not null"`
	Size         int64     `gorm:"not null"`
	StoragePath  string    `gorm:"type:text;not null"`
	Checksum     string    `gorm:"type:text"`
	Description  string    `gorm:"type:text"`
	Status       string    `gorm:"type:text;not null;default:Active"`
	IsEncrypted  bool      `gorm:"not null;default:false"`

	OwnerID  uuid.UUID  `gorm:"type:uuid;not null;index"`
	FolderID *uuid.UUID `gorm:"type:uuid;index"`

	Metadata datatypes.JSON `gorm:"type:jsonb;default:'{}'::jsonb"`

	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index"`

	Owner       User                 `gorm:"foreignKey:OwnerID;references:ID"`
	Folder      *Folder              `gorm:"foreignKey:FolderID;references:ID"`
	Permissions []DocumentPermission `gorm:"constraint:OnDelete:CASCADE"`
	Comments    []DocumentComment    `gorm:"constraint:OnDelete:CASCADE"`
	Tags        []Tag                `gorm:"many2many:document_tags"`
}

// Folder is a node in the folder tree. Path is the materialized
// "/a/b/c" location maintained on create.
type Folder struct {
	ID       uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name     string     `gorm:"type:text;not null"`
	Path     string     `gorm:"type:text;not null;index"`
	ParentID *uuid.UUID `gorm:"type:uuid;index"`
	OwnerID  uuid.UUID  `gorm:"type:uuid;not null;index"`

	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index"`

	Parent    *Folder    `gorm:"foreignKey:ParentID;references:ID"`
	Documents []Document `gorm:"foreignKey:FolderID"`
}

// DocumentPermission grants a user a single action on a document.
type DocumentPermission struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	DocumentID uuid.UUID `gorm:"type:uuid;not null;index:idx_doc_perm,unique"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index:idx_doc_perm,unique"`
	Permission string    `gorm:"type:text;not null;index:idx_doc_perm,unique"`
	GrantedBy  uuid.UUID `gorm:"type:uuid;not null"`
	ExpiresAt  *time.Time
	IsActive   bool      `gorm:"not null;default:true"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

// Current reports whether the grant is active and unexpired.
func (p *DocumentPermission) Current(now time.Time) bool {
	if !p.IsActive {
		return false
	}
	return p.ExpiresAt == nil || p.ExpiresAt.After(now)
}

// DocumentComment is a user comment on a document.
type DocumentComment struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	DocumentID uuid.UUID `gorm:"type:uuid;not null;index"`
	UserID     uuid.UUID `gorm:"type:uuid;not null"`
	Content    string    `gorm:"type:text;not null"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`

	User User `gorm:"foreignKey:UserID;references:ID"`
}

// Tag labels documents. Names are unique across the system.
type Tag struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string    `gorm:"type:text;uniqueIndex;not null"`
	Color     string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}
