package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"scriptorium/internal/config"
	models "scriptorium/internal/domain/models/docsystem"
	docsysSvc "scriptorium/internal/domain/services/docsystem"
	"scriptorium/internal/httputil"
)

// ImportHandler creates documents from uploaded files
type ImportHandler struct {
	importService docsysSvc.ImportService
	logger        *slog.Logger
}

// NewImportHandler creates a new import handler
func NewImportHandler(importService docsysSvc.ImportService, logger *slog.Logger) *ImportHandler {
	return &ImportHandler{
		importService: importService,
		logger:        logger,
	}
}

// ImportDocument converts an uploaded .txt, .md or .html file into a new document
// POST /api/documents/import (multipart: file, title?, kind?)
func (h *ImportHandler) ImportDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, config.MaxImportFileBytes+1<<20)

	if err := r.ParseMultipartForm(config.MaxImportFileBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			httputil.RespondError(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		httputil.RespondError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, config.MaxImportFileBytes+1))
	if err != nil {
		h.logger.Error("failed to read upload", "filename", header.Filename, "error", err)
		httputil.RespondError(w, http.StatusBadRequest, "Failed to read file")
		return
	}
	if len(data) > config.MaxImportFileBytes {
		httputil.RespondError(w, http.StatusRequestEntityTooLarge, "file too large")
		return
	}

	doc, err := h.importService.ImportDocument(r.Context(), &docsysSvc.ImportDocumentRequest{
		OwnerID:  httputil.GetUserID(r),
		Filename: header.Filename,
		Data:     data,
		Title:    r.FormValue("title"),
		Kind:     models.DocumentKind(r.FormValue("kind")),
	})
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, doc)
}

// SupportedFormats lists the accepted file extensions
// GET /api/documents/import/formats
func (h *ImportHandler) SupportedFormats(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"extensions": h.importService.SupportedExtensions(),
	})
}
