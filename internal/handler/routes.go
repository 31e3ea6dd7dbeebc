package handler

import "net/http"

// NewRouter registers every document and session route (Go 1.22+ patterns)
func NewRouter(docs *DocumentHandler, sessions *SessionHandler, imports *ImportHandler, health *HealthHandler) *http.ServeMux {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", health.HealthCheck)

	// Document routes
	mux.HandleFunc("POST /api/documents", docs.CreateDocument)
	mux.HandleFunc("POST /api/documents/import", imports.ImportDocument)
	mux.HandleFunc("GET /api/documents/import/formats", imports.SupportedFormats)
	mux.HandleFunc("GET /api/documents/{id}", docs.GetDocument)
	mux.HandleFunc("DELETE /api/documents/{id}", docs.DeleteDocument)
	mux.HandleFunc("POST /api/documents/{id}/collaborators", docs.AddCollaborator)
	mux.HandleFunc("PUT /api/documents/{id}/content", docs.SaveContent)
	mux.HandleFunc("POST /api/documents/{id}/submit", docs.SubmitDocument)
	mux.HandleFunc("POST /api/documents/{id}/comments", docs.RecordComment)
	mux.HandleFunc("GET /api/documents/{id}/editors", docs.GetActiveEditors)
	mux.HandleFunc("GET /api/documents/{id}/analytics", docs.GetAnalytics)

	// Version routes
	mux.HandleFunc("GET /api/documents/{id}/versions", docs.GetHistory)
	mux.HandleFunc("GET /api/documents/{id}/versions/{version}", docs.GetVersion)
	mux.HandleFunc("POST /api/documents/{id}/versions/{version}/restore", docs.RestoreVersion)
	mux.HandleFunc("GET /api/documents/{id}/milestones", docs.ListMilestones)
	mux.HandleFunc("GET /api/documents/{id}/compare", docs.CompareVersions)

	// Session routes
	mux.HandleFunc("POST /api/documents/{id}/sessions", sessions.StartSession)
	mux.HandleFunc("GET /api/sessions/{id}", sessions.GetSession)
	mux.HandleFunc("POST /api/sessions/{id}/end", sessions.EndSession)

	return mux
}
