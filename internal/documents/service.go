// Package documents implements document, folder, sharing, comment and
// tag operations on top of the relational store. Access is decided per
// action: owners and admins always pass, everyone else needs both a
// role that allows the action and a current permission grant on the
// document.
package documents

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/pranaynookala001/securedocs/internal/audit"
	"github.com/pranaynookala001/securedocs/internal/models"
)

// Sentinel errors for the handler layer.
var (
	ErrNotFound     = errors.New("document not found")
	ErrAccessDenied = errors.New("access denied")
	ErrInvalid      = errors.New("invalid request")
)

// Document actions.
const (
	ActionView    = "view"
	ActionEdit    = "edit"
	ActionComment = "comment"
	ActionDelete  = "delete"
	ActionShare   = "share"
)

// Audit action tags.
const (
	auditDocumentCreated = "Document_Created"
	auditDocumentUpdated = "Document_Updated"
	auditDocumentDeleted = "Document_Deleted"
	auditDocumentShared  = "Document_Shared"
	auditCommentAdded    = "Document_Comment_Added"
	auditFolderCreated   = "Folder_Created"
	auditFolderDeleted   = "Folder_Deleted"
)

const entityDocument = "Document"
const entityFolder = "Folder"

func validPermission(p string) bool {
	switch p {
	case ActionView, ActionEdit, ActionDelete, ActionShare:
		return true
	}
	return false
}

// Service runs document operations. Safe for concurrent use.
type Service struct {
	db    *gorm.DB
	audit *audit.Recorder
	log   zerolog.Logger
	now   func() time.Time
}

func NewService(db *gorm.DB, recorder *audit.Recorder, log zerolog.Logger) *Service {
	return &Service{db: db, audit: recorder, log: log, now: time.Now}
}

// CreateDocumentInput carries the metadata for a new document record.
type CreateDocumentInput struct {
	Name        string
	ContentType string
	Size        int64
	StoragePath string
	Checksum    string
	Description string
	FolderID    *uuid.UUID
	Tags        []string
}

// CreateDocument registers document metadata owned by the actor.
func (s *Service) CreateDocument(ctx context.Context, actor *models.User, input CreateDocumentInput) (*models.Document, error) {
	if !actor.Role.Can(ActionEdit) {
		return nil, ErrAccessDenied
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, ErrInvalid
	}
	if input.FolderID != nil {
		if _, err := s.folder(ctx, *input.FolderID); err != nil {
			return nil, err
		}
	}

	doc := &models.Document{
		ID:           uuid.New(),
		Name:         input.Name,
		OriginalName: input.Name,
		ContentType:  input.ContentType,
		Size:         input.Size,
		StoragePath:  input.StoragePath,
		Checksum:     input.Checksum,
		Description:  input.Description,
		Status:       "Active",
		OwnerID:      actor.ID,
		FolderID:     input.FolderID,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(doc).Error; err != nil {
			return err
		}
		return attachTags(tx, doc, input.Tags)
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Event{
		Actor:       actor.ID.String(),
		Action:      auditDocumentCreated,
		EntityType:  entityDocument,
		EntityID:    &doc.ID,
		Description: "document created: " + doc.Name,
	})
	return doc, nil
}

// GetDocument loads a document the actor may view.
func (s *Service) GetDocument(ctx context.Context, actor *models.User, id uuid.UUID) (*models.Document, error) {
	doc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actor, doc, ActionView); err != nil {
		return nil, err
	}
	return doc, nil
}

// ListDocuments returns documents the actor owns plus ones shared with
// them through a current permission grant.
func (s *Service) ListDocuments(ctx context.Context, actor *models.User) ([]models.Document, error) {
	var docs []models.Document
	q := s.db.WithContext(ctx).Preload("Tags").Order("created_at DESC")
	if actor.Role == models.RoleAdmin {
		err := q.Find(&docs).Error
		return docs, err
	}
	now := s.now()
	err := q.
		Where(
			"owner_id = ? OR id IN (?)",
			actor.ID,
			s.db.Model(&models.DocumentPermission{}).
				Select("document_id").
				Where("user_id = ? AND is_active AND (expires_at IS NULL OR expires_at > ?)", actor.ID, now),
		).
		Find(&docs).Error
	return docs, err
}

// UpdateDocumentInput carries the mutable metadata fields.
type UpdateDocumentInput struct {
	Name        string
	Description string
	FolderID    *uuid.UUID
	Tags        []string
}

// UpdateDocument rewrites document metadata.
func (s *Service) UpdateDocument(ctx context.Context, actor *models.User, id uuid.UUID, input UpdateDocumentInput) (*models.Document, error) {
	doc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actor, doc, ActionEdit); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, ErrInvalid
	}
	if input.FolderID != nil {
		if _, err := s.folder(ctx, *input.FolderID); err != nil {
			return nil, err
		}
	}

	doc.Name = input.Name
	doc.Description = input.Description
	doc.FolderID = input.FolderID

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(doc).Updates(map[string]any{
			"name":        doc.Name,
			"description": doc.Description,
			"folder_id":   doc.FolderID,
		}).Error; err != nil {
			return err
		}
		if input.Tags == nil {
			return nil
		}
		if err := tx.Model(doc).Association("Tags").Clear(); err != nil {
			return err
		}
		return attachTags(tx, doc, input.Tags)
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Event{
		Actor:       actor.ID.String(),
		Action:      auditDocumentUpdated,
		EntityType:  entityDocument,
		EntityID:    &doc.ID,
		Description: "document updated: " + doc.Name,
	})
	return doc, nil
}

// DeleteDocument soft-deletes the record.
func (s *Service) DeleteDocument(ctx context.Context, actor *models.User, id uuid.UUID) error {
	doc, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, actor, doc, ActionDelete); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(doc).Error; err != nil {
		return err
	}

	s.audit.Record(ctx, audit.Event{
		Actor:         actor.ID.String(),
		Action:        auditDocumentDeleted,
		EntityType:    entityDocument,
		EntityID:      &doc.ID,
		Severity:      audit.SeverityWarning,
		Description:   "document deleted: " + doc.Name,
		SecurityEvent: true,
	})
	return nil
}

// ShareDocument grants another user an action on the document. Sharing
// with the owner or re-granting an existing permission is a no-op
// refresh of the grant.
func (s *Service) ShareDocument(ctx context.Context, actor *models.User, id, targetUserID uuid.UUID, permission string, expiresAt *time.Time) error {
	if !validPermission(permission) {
		return ErrInvalid
	}
	doc, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, actor, doc, ActionShare); err != nil {
		return err
	}

	var target models.User
	if err := s.db.WithContext(ctx).First(&target, "id = ?", targetUserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalid
		}
		return err
	}
	if target.ID == doc.OwnerID {
		return nil
	}

	grant := models.DocumentPermission{
		ID:         uuid.New(),
		DocumentID: doc.ID,
		UserID:     target.ID,
		Permission: permission,
		GrantedBy:  actor.ID,
		ExpiresAt:  expiresAt,
		IsActive:   true,
	}
	err = s.db.WithContext(ctx).
		Where("document_id = ? AND user_id = ? AND permission = ?", doc.ID, target.ID, permission).
		Assign(map[string]any{"is_active": true, "expires_at": expiresAt, "granted_by": actor.ID}).
		FirstOrCreate(&grant).Error
	if err != nil {
		return err
	}

	s.audit.Record(ctx, audit.Event{
		Actor:       actor.ID.String(),
		Action:      auditDocumentShared,
		EntityType:  entityDocument,
		EntityID:    &doc.ID,
		Description: "document shared with " + target.Username + " (" + permission + ")",
		Metadata:    map[string]string{"target_user": target.ID.String(), "permission": permission},
	})
	return nil
}

// AddComment appends a comment to a document the actor may comment on.
func (s *Service) AddComment(ctx context.Context, actor *models.User, id uuid.UUID, content string) (*models.DocumentComment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrInvalid
	}
	doc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actor, doc, ActionComment); err != nil {
		return nil, err
	}

	comment := &models.DocumentComment{
		ID:         uuid.New(),
		DocumentID: doc.ID,
		UserID:     actor.ID,
		Content:    content,
	}
	if err := s.db.WithContext(ctx).Create(comment).Error; err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Event{
		Actor:      actor.ID.String(),
		Action:     auditCommentAdded,
		EntityType: entityDocument,
		EntityID:   &doc.ID,
	})
	return comment, nil
}

// ListComments returns a document's comments, oldest first.
func (s *Service) ListComments(ctx context.Context, actor *models.User, id uuid.UUID) ([]models.DocumentComment, error) {
	doc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actor, doc, ActionView); err != nil {
		return nil, err
	}

	var comments []models.DocumentComment
	err = s.db.WithContext(ctx).
		Where("document_id = ?", doc.ID).
		Order("created_at ASC").
		Find(&comments).Error
	return comments, err
}

// CreateFolder adds a folder under parent (nil parent means root). The
// materialized path is derived from the parent's.
func (s *Service) CreateFolder(ctx context.Context, actor *models.User, name string, parentID *uuid.UUID) (*models.Folder, error) {
	if !actor.Role.Can(ActionEdit) {
		return nil, ErrAccessDenied
	}
	name = strings.TrimSpace(name)
	if name == "" || strings.Contains(name, "/") {
		return nil, ErrInvalid
	}

	path := "/" + name
	if parentID != nil {
		parent, err := s.folder(ctx, *parentID)
		if err != nil {
			return nil, err
		}
		path = parent.Path + "/" + name
	}

	folder := &models.Folder{
		ID:       uuid.New(),
		Name:     name,
		Path:     path,
		ParentID: parentID,
		OwnerID:  actor.ID,
	}
	if err := s.db.WithContext(ctx).Create(folder).Error; err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Event{
		Actor:       actor.ID.String(),
		Action:      auditFolderCreated,
		EntityType:  entityFolder,
		EntityID:    &folder.ID,
		Description: "folder created: " + folder.Path,
	})
	return folder, nil
}

// ListFolders returns all folders visible to the actor (admins see
// everything, others their own).
func (s *Service) ListFolders(ctx context.Context, actor *models.User) ([]models.Folder, error) {
	var folders []models.Folder
	q := s.db.WithContext(ctx).Order("path ASC")
	if actor.Role != models.RoleAdmin {
		q = q.Where("owner_id = ?", actor.ID)
	}
	err := q.Find(&folders).Error
	return folders, err
}

// GetFolder loads one folder with its documents.
func (s *Service) GetFolder(ctx context.Context, actor *models.User, id uuid.UUID) (*models.Folder, error) {
	folder, err := s.folder(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleAdmin && folder.OwnerID != actor.ID {
		return nil, ErrAccessDenied
	}
	if err := s.db.WithContext(ctx).
		Where("folder_id = ?", folder.ID).
		Find(&folder.Documents).Error; err != nil {
		return nil, err
	}
	return folder, nil
}

// DeleteFolder soft-deletes an empty folder.
func (s *Service) DeleteFolder(ctx context.Context, actor *models.User, id uuid.UUID) error {
	folder, err := s.folder(ctx, id)
	if err != nil {
		return err
	}
	if actor.Role != models.RoleAdmin && folder.OwnerID != actor.ID {
		return ErrAccessDenied
	}

	var children int64
	if err := s.db.WithContext(ctx).Model(&models.Folder{}).
		Where("parent_id = ?", folder.ID).Count(&children).Error; err != nil {
		return err
	}
	var docs int64
	if err := s.db.WithContext(ctx).Model(&models.Document{}).
		Where("folder_id = ?", folder.ID).Count(&docs).Error; err != nil {
		return err
	}
	if children > 0 || docs > 0 {
		return ErrInvalid
	}

	if err := s.db.WithContext(ctx).Delete(folder).Error; err != nil {
		return err
	}

	s.audit.Record(ctx, audit.Event{
		Actor:       actor.ID.String(),
		Action:      auditFolderDeleted,
		EntityType:  entityFolder,
		EntityID:    &folder.ID,
		Description: "folder deleted: " + folder.Path,
	})
	return nil
}

// ListTags returns all tags, alphabetically.
func (s *Service) ListTags(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	err := s.db.WithContext(ctx).Order("name ASC").Find(&tags).Error
	return tags, err
}

// authorize decides one action on one document. Admins and owners
// always pass; otherwise the actor's role must allow the action and a
// current grant must cover it (any current grant satisfies view).
func (s *Service) authorize(ctx context.Context, actor *models.User, doc *models.Document, action string) error {
	if actor.Role == models.RoleAdmin || doc.OwnerID == actor.ID {
		return nil
	}
	if !actor.Role.Can(action) {
		return ErrAccessDenied
	}

	q := s.db.WithContext(ctx).Model(&models.DocumentPermission{}).
		Where("document_id = ? AND user_id = ? AND is_active AND (expires_at IS NULL OR expires_at > ?)",
			doc.ID, actor.ID, s.now())
	if action != ActionView && action != ActionComment {
		q = q.Where("permission = ?", action)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrAccessDenied
	}
	return nil
}

func (s *Service) load(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	var doc models.Document
	err := s.db.WithContext(ctx).Preload("Tags").First(&doc, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &doc, nil
}

func (s *Service) folder(ctx context.Context, id uuid.UUID) (*models.Folder, error) {
	var folder models.Folder
	err := s.db.WithContext(ctx).First(&folder, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &folder, nil
}

// attachTags resolves tag names to rows, creating missing ones, and
// links them to the document.
func attachTags(tx *gorm.DB, doc *models.Document, names []string) error {
	seen := map[string]bool{}
	for _, name := range names {
		name = strings.TrimSpace(strings.ToLower(name))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		tag := models.Tag{ID: uuid.New(), Name: name}
		if err := tx.Where("name = ?", name).FirstOrCreate(&tag).Error; err != nil {
			return err
		}
		if err := tx.Model(doc).Association("Tags").Append(&tag); err != nil {
			return err
		}
	}
	return nil
}
