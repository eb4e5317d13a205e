package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pranaynookala001/securedocs/internal/auth"
	"github.com/pranaynookala001/securedocs/internal/documents"
	"github.com/pranaynookala001/securedocs/internal/models"
)

// DocumentsHandler serves the /api/documents and /api/folders surface.
type DocumentsHandler struct {
	docs *documents.Service
	auth *auth.Service
	log  zerolog.Logger
}

func NewDocumentsHandler(docs *documents.Service, authSvc *auth.Service, log zerolog.Logger) *DocumentsHandler {
	return &DocumentsHandler{docs: docs, auth: authSvc, log: log}
}

// actor resolves the request identity into a full account, so document
// access checks see the current role and status rather than the
// token-issuance snapshot.
func (h *DocumentsHandler) actor(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	identity, ok := IdentityFrom(r.Context())
	if !ok {
		respondMessage(w, http.StatusUnauthorized, "authentication required")
		return nil, false
	}
	user, fail := h.auth.CurrentUser(r.Context(), identity.UserID)
	if fail != nil {
		respondFailure(w, fail)
		return nil, false
	}
	if !user.IsActive {
		respondMessage(w, http.StatusUnauthorized, "account is not active")
		return nil, false
	}
	return user, true
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}

type documentDTO struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	OwnerID     string    `json:"ownerId"`
	FolderID    *string   `json:"folderId,omitempty"`
	Tags        []string  `json:"tags"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toDocumentDTO(d *models.Document) documentDTO {
	dto := documentDTO{
		ID:          d.ID.String(),
		Name:        d.Name,
		ContentType: d.ContentType,
		Size:        d.Size,
		Description: d.Description,
		Status:      d.Status,
		OwnerID:     d.OwnerID.String(),
		Tags:        make([]string, 0, len(d.Tags)),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	if d.FolderID != nil {
		s := d.FolderID.String()
		dto.FolderID = &s
	}
	for _, tag := range d.Tags {
		dto.Tags = append(dto.Tags, tag.Name)
	}
	return dto
}

type createDocumentRequest struct {
	Name        string   `json:"name"`
	ContentType string   `json:"contentType"`
	Size        int64    `json:"size"`
	StoragePath string   `json:"storagePath"`
	Checksum    string   `json:"checksum"`
	Description string   `json:"description"`
	FolderID    *string  `json:"folderId"`
	Tags        []string `json:"tags"`
}

func (h *DocumentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	var req createDocumentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondMessage(w, http.StatusBadRequest, "malformed request body")
		return
	}
	folderID, ok := optionalID(w, req.FolderID)
	if !ok {
		return
	}

	doc, err := h.docs.CreateDocument(r.Context(), actor, documents.CreateDocumentInput{
		Name:        req.Name,
		ContentType: req.ContentType,
		Size:        req.Size,
		StoragePath: req.StoragePath,
		Checksum:    req.Checksum,
		Description: req.Description,
		FolderID:    folderID,
		Tags:        req.Tags,
	})
	if err != nil {
		respondDocumentsError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, toDocumentDTO(doc))
}

func (h *DocumentsHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	docs, err := h.docs.ListDocuments(r.Context(), actor)
	if err != nil {
		respondDocumentsError(w, h.log, err)
		return
	}
	out := make([]documentDTO, 0, len(docs))
	for i := range docs {
		out = append(out, toDocumentDTO(&docs[i]))
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *DocumentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	doc, err := h.docs.GetDocument(r.Context(), actor, id)
	if err != nil {
		respondDocumentsError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, toDocumentDTO(doc))
}

type updateDocumentRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	FolderID    *string  `json:"folderId"`
	Tags        []string `json:"tags"`
}

func (h *DocumentsHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req updateDocumentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondMessage(w, http.StatusBadRequest, "malformed request body")
		return
	}
	folderID, ok := optionalID(w, req.FolderID)
	if !ok {
		return
	}

	doc, err := h.docs.UpdateDocument(r.Context(), actor, id, documents.UpdateDocumentInput{
		Name:        req.Name,
		Description: req.Description,
		FolderID:    folderID,
		Tags:        req.Tags,
	})
	if err != nil {
		respondDocumentsError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, toDocumentDTO(doc))
}

func (h *DocumentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.docs.DeleteDocument(r.Context(), actor, id); err != nil {
		respondDocumentsError(w, h.log, err)
		return
	}
	respondMessage(w, http.StatusOK, "document deleted")
}

type shareRequest struct {
	UserID     string     `json:"userId"`
	Permission string     `json:"permission"`
	ExpiresAt  *time.Time `json:"expiresAt"`
}

func (h *DocumentsHandler) Share(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req shareRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondMessage(w, http.StatusBadRequest, "malformed request body")
		return
	}
	targetID, err := uuid.Parse(req.UserID)
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid userId")
		return
	}

	if err := h.docs.ShareDocument(r.Context(), actor, id, targetID, req.Permission, req.ExpiresAt); err != nil {
		respondDocumentsError(w, h.log, err)
		return
	}
	respondMessage(w, http.StatusOK, "document shared")
}

type commentDTO struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

type addCommentRequest struct {
	Content string `json:"content"`
}

func (h *DocumentsHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req addCommentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondMessage(w, http.StatusBadRequest, "malformed request body")
		return
	}

	comment, err := h.docs.AddComment(r.Context(), actor, id, req.Content)
	if err != nil {
		respondDocumentsError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, commentDTO{
		ID:        comment.ID.String(),
		UserID:    comment.UserID.String(),
		Content:   comment.Content,
		CreatedAt: comment.CreatedAt,
	})
}

func (h *DocumentsHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	comments, err := h.docs.ListComments(r.Context(), actor, id)
	if err != nil {
		respondDocumentsError(w, h.log, err)
		return
	}
	out := make([]commentDTO, 0, len(comments))
	for _, c := range comments {
		out = append(out, commentDTO{
			ID:        c.ID.String(),
			UserID:    c.UserID.String(),
			Content:   c.Content,
			CreatedAt: c.CreatedAt,
		})
	}
	respondJSON(w, http.StatusOK, out)
}

type folderDTO struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Path      string        `json:"path"`
	ParentID  *string       `json:"parentId,omitempty"`
	OwnerID   string        `json:"ownerId"`
	Documents []documentDTO `json:"documents,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
}

func toFolderDTO(f *models.Folder) folderDTO {
	dto := folderDTO{
		ID:        f.ID.String(),
		Name:      f.Name,
		Path:      f.Path,
		OwnerID:   f.OwnerID.String(),
		CreatedAt: f.CreatedAt,
	}
	if f.ParentID != nil {
		s := f.ParentID.String()
		dto.ParentID = &s
	}
	for i := range f.Documents {
		dto.Documents = append(dto.Documents, toDocumentDTO(&f.Documents[i]))
	}
	return dto
}

type createFolderRequest struct {
	Name     string  `json:"name"`
	ParentID *string `json:"parentId"`
}

func (h *DocumentsHandler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	var req createFolderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondMessage(w, http.StatusBadRequest, "malformed request body")
		return
	}
	parentID, ok := optionalID(w, req.ParentID)
	if !ok {
		return
	}

	folder, err := h.docs.CreateFolder(r.Context(), actor, req.Name, parentID)
	if err != nil {
		respondDocumentsError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, toFolderDTO(folder))
}

func (h *DocumentsHandler) ListFolders(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	folders, err := h.docs.ListFolders(r.Context(), actor)
	if err != nil {
		respondDocumentsError(w, h.log, err)
		return
	}
	out := make([]folderDTO, 0, len(folders))
	for i := range folders {
		out = append(out, toFolderDTO(&folders[i]))
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *DocumentsHandler) GetFolder(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	folder, err := h.docs.GetFolder(r.Context(), actor, id)
	if err != nil {
		respondDocumentsError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, toFolderDTO(folder))
}

func (h *DocumentsHandler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.docs.DeleteFolder(r.Context(), actor, id); err != nil {
		respondDocumentsError(w, h.log, err)
		return
	}
	respondMessage(w, http.StatusOK, "folder deleted")
}

type tagDTO struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

func (h *DocumentsHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.actor(w, r); !ok {
		return
	}

	tags, err := h.docs.ListTags(r.Context())
	if err != nil {
		respondDocumentsError(w, h.log, err)
		return
	}
	out := make([]tagDTO, 0, len(tags))
	for _, tag := range tags {
		out = append(out, tagDTO{ID: tag.ID.String(), Name: tag.Name, Color: tag.Color})
	}
	respondJSON(w, http.StatusOK, out)
}

func optionalID(w http.ResponseWriter, raw *string) (*uuid.UUID, bool) {
	if raw == nil || *raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(*raw)
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid id")
		return nil, false
	}
	return &id, true
}
