package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	docsysSvc "scriptorium/internal/domain/services/docsystem"
	"scriptorium/internal/httputil"
)

// SessionHandler handles writing session HTTP requests
type SessionHandler struct {
	sessionService docsysSvc.SessionService
	logger         *slog.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessionService docsysSvc.SessionService, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		sessionService: sessionService,
		logger:         logger,
	}
}

// StartSession opens a session for the caller
// POST /api/documents/{id}/sessions
func (h *SessionHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	documentID, ok := PathParam(w, r, "id", "Document ID")
	if !ok {
		return
	}

	session, err := h.sessionService.StartSession(r.Context(), documentID, httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, session)
}

// EndSession closes the caller's session
// POST /api/sessions/{id}/end
func (h *SessionHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := PathParam(w, r, "id", "Session ID")
	if !ok {
		return
	}

	// An empty body closes the session without activity counters
	var req docsysSvc.EndSessionRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.SessionID = sessionID
	req.ActorID = httputil.GetUserID(r)

	result, err := h.sessionService.EndSession(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}

// GetSession retrieves a session
// GET /api/sessions/{id}
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := PathParam(w, r, "id", "Session ID")
	if !ok {
		return
	}

	session, err := h.sessionService.GetSession(r.Context(), sessionID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, session)
}
