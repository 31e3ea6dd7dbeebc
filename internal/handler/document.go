package handler

import (
	"log/slog"
	"net/http"

	"scriptorium/internal/config"
	models "scriptorium/internal/domain/models/docsystem"
	docsysSvc "scriptorium/internal/domain/services/docsystem"
	"scriptorium/internal/httputil"
)

// DocumentHandler handles document HTTP requests
type DocumentHandler struct {
	docService docsysSvc.DocumentService
	logger     *slog.Logger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(docService docsysSvc.DocumentService, logger *slog.Logger) *DocumentHandler {
	return &DocumentHandler{
		docService: docService,
		logger:     logger,
	}
}

// saveContentBody is the wire form of a save. Title may be omitted but not null.
type saveContentBody struct {
	Content     string                  `json:"content"`
	Title       httputil.OptionalString `json:"title"`
	SaveType    models.SaveType         `json:"save_type"`
	BaseVersion *int                    `json:"base_version"`
	SaveID      string                  `json:"save_id"`
}

type addCollaboratorBody struct {
	UserID string `json:"user_id"`
}

// CreateDocument creates a document owned by the caller
// POST /api/documents
func (h *DocumentHandler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	var req docsysSvc.CreateDocumentRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.OwnerID = httputil.GetUserID(r)

	doc, err := h.docService.CreateDocument(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, doc)
}

// GetDocument retrieves the document head
// GET /api/documents/{id}
func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Document ID")
	if !ok {
		return
	}

	doc, err := h.docService.GetDocument(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, doc)
}

// DeleteDocument flags a document deleted
// DELETE /api/documents/{id}
func (h *DocumentHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Document ID")
	if !ok {
		return
	}

	if err := h.docService.DeleteDocument(r.Context(), id, httputil.GetUserID(r)); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddCollaborator grants joint editing rights
// POST /api/documents/{id}/collaborators
func (h *DocumentHandler) AddCollaborator(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Document ID")
	if !ok {
		return
	}

	var body addCollaboratorBody
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	doc, err := h.docService.AddCollaborator(r.Context(), id, body.UserID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, doc)
}

// SaveContent applies one editor save
// PUT /api/documents/{id}/content
func (h *DocumentHandler) SaveContent(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Document ID")
	if !ok {
		return
	}

	var body saveContentBody
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.Title.Present && body.Title.Value == nil {
		httputil.RespondError(w, http.StatusBadRequest, "title cannot be null")
		return
	}

	result, err := h.docService.SaveContent(r.Context(), &docsysSvc.SaveContentRequest{
		DocumentID:  id,
		ActorID:     httputil.GetUserID(r),
		Content:     body.Content,
		Title:       body.Title.Value,
		SaveType:    body.SaveType,
		BaseVersion: body.BaseVersion,
		SaveID:      body.SaveID,
	})
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}

// SubmitDocument records the final submission milestone
// POST /api/documents/{id}/submit
func (h *DocumentHandler) SubmitDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Document ID")
	if !ok {
		return
	}

	v, err := h.docService.SubmitDocument(r.Context(), id, httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, v)
}

// GetHistory pages through versions, newest first
// GET /api/documents/{id}/versions?limit=&offset=
func (h *DocumentHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Document ID")
	if !ok {
		return
	}

	limit, err := queryInt(r, "limit", config.DefaultHistoryLimit)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	versions, err := h.docService.GetHistory(r.Context(), &docsysSvc.HistoryRequest{
		DocumentID: id,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, versions)
}

// GetVersion returns one snapshot
// GET /api/documents/{id}/versions/{version}
func (h *DocumentHandler) GetVersion(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Document ID")
	if !ok {
		return
	}
	version, ok := PathInt(w, r, "version", "Version")
	if !ok {
		return
	}

	v, err := h.docService.GetVersion(r.Context(), id, version)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, v)
}

// RestoreVersion re-appends an older version at the head
// POST /api/documents/{id}/versions/{version}/restore
func (h *DocumentHandler) RestoreVersion(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Document ID")
	if !ok {
		return
	}
	version, ok := PathInt(w, r, "version", "Version")
	if !ok {
		return
	}

	result, err := h.docService.RestoreVersion(r.Context(), id, version, httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, result)
}

// ListMilestones returns milestone snapshots
// GET /api/documents/{id}/milestones
func (h *DocumentHandler) ListMilestones(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Document ID")
	if !ok {
		return
	}

	versions, err := h.docService.ListMilestones(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, versions)
}

// CompareVersions classifies the change between two snapshots
// GET /api/documents/{id}/compare?from=&to=
func (h *DocumentHandler) CompareVersions(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Document ID")
	if !ok {
		return
	}

	from, err := queryInt(r, "from", 0)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	to, err := queryInt(r, "to", 0)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	diff, err := h.docService.CompareVersions(r.Context(), id, from, to)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, diff)
}

// GetActiveEditors lists users editing within the idle window and the last activity time
// GET /api/documents/{id}/editors
func (h *DocumentHandler) GetActiveEditors(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Document ID")
	if !ok {
		return
	}

	presence, err := h.docService.GetActiveEditors(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, presence)
}

// RecordComment counts a comment by the caller
// POST /api/documents/{id}/comments
func (h *DocumentHandler) RecordComment(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Document ID")
	if !ok {
		return
	}

	if err := h.docService.RecordComment(r.Context(), id, httputil.GetUserID(r)); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetAnalytics returns the analytics read model
// GET /api/documents/{id}/analytics
func (h *DocumentHandler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Document ID")
	if !ok {
		return
	}

	analytics, err := h.docService.GetAnalytics(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, analytics)
}
