package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	models "scriptorium/internal/domain/models/docsystem"
	docsysRepo "scriptorium/internal/domain/repositories/docsystem"
	docsysSvc "scriptorium/internal/domain/services/docsystem"
	"scriptorium/internal/middleware"
	"scriptorium/internal/policy"
	"scriptorium/internal/presence"
	"scriptorium/internal/repository/sqlite"
	sqliteDocsys "scriptorium/internal/repository/sqlite/docsystem"
	serviceDocsys "scriptorium/internal/service/docsystem"
)

func setupTestServer(t *testing.T) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "handler.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	registry, err := policy.NewRegistry()
	if err != nil {
		t.Fatalf("Failed to load policy registry: %v", err)
	}

	cfg := &sqlite.RepositoryConfig{DB: db, Logger: logger}
	services := serviceDocsys.SetupServices(&docsysRepo.Repositories{
		Documents: sqliteDocsys.NewDocumentRepository(cfg),
		Versions:  sqliteDocsys.NewVersionRepository(cfg),
		Sessions:  sqliteDocsys.NewSessionRepository(cfg),
		Analytics: sqliteDocsys.NewAnalyticsRepository(cfg),
		Tx:        sqlite.NewTransactionManager(db, logger),
	}, registry, presence.NewMemoryTracker(), logger)

	mux := NewRouter(
		NewDocumentHandler(services.Documents, logger),
		NewSessionHandler(services.Sessions, logger),
		NewImportHandler(services.Imports, logger),
		NewHealthHandler(logger, map[string]HealthCheckFunc{"database": db.PingContext}),
	)
	return middleware.AuthMiddleware(nil, logger)(mux)
}

func do(t *testing.T, h http.Handler, method, path, user string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set(middleware.DevUserHeader, user)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
	return out
}

func createDocument(t *testing.T, h http.Handler) *models.Document {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/api/documents", "owner", map[string]interface{}{
		"title":   "Essay",
		"content": "",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", rec.Code, rec.Body.String())
	}
	doc := decode[models.Document](t, rec)
	return &doc
}

func TestHealthCheck_NoIdentityRequired(t *testing.T) {
	h := setupTestServer(t)

	rec := do(t, h, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestMissingIdentity(t *testing.T) {
	h := setupTestServer(t)

	rec := do(t, h, http.MethodGet, "/api/documents/abc", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestSaveAndRestoreFlow(t *testing.T) {
	h := setupTestServer(t)
	doc := createDocument(t, h)
	base := fmt.Sprintf("/api/documents/%s", doc.ID)

	rec := do(t, h, http.MethodPut, base+"/content", "owner", map[string]interface{}{
		"content":   "one two three four five six seven eight nine ten eleven",
		"save_type": "auto",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("save status = %d, body = %s", rec.Code, rec.Body.String())
	}
	saved := decode[docsysSvc.SaveContentResult](t, rec)
	if !saved.VersionCreated || saved.CurrentVersion != 2 || saved.Diff.AddedWords != 11 {
		t.Errorf("save result = %+v", saved)
	}

	rec = do(t, h, http.MethodPost, base+"/versions/1/restore", "owner", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("restore status = %d, body = %s", rec.Code, rec.Body.String())
	}
	restored := decode[docsysSvc.RestoreResult](t, rec)
	if restored.NewVersion != 3 || restored.Version.Content != "" {
		t.Errorf("restore result = %+v", restored)
	}

	rec = do(t, h, http.MethodGet, base+"/versions?limit=2", "owner", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("history status = %d", rec.Code)
	}
	history := decode[[]models.DocumentVersion](t, rec)
	if len(history) != 2 || history[0].Version != 3 || history[1].Version != 2 {
		t.Errorf("history = %+v", history)
	}

	rec = do(t, h, http.MethodGet, base+"/compare?from=1&to=2", "owner", nil)
	diff := decode[models.VersionDiff](t, rec)
	if rec.Code != http.StatusOK || diff.NetWordChange != 11 {
		t.Errorf("compare status = %d, diff = %+v", rec.Code, diff)
	}

	rec = do(t, h, http.MethodGet, base+"/milestones", "owner", nil)
	milestones := decode[[]models.DocumentVersion](t, rec)
	if len(milestones) != 1 || milestones[0].MilestoneDescription != "Restored from version 1" {
		t.Errorf("milestones = %+v", milestones)
	}
}

func TestSaveContent_StaleBaseVersion(t *testing.T) {
	h := setupTestServer(t)
	doc := createDocument(t, h)
	path := fmt.Sprintf("/api/documents/%s/content", doc.ID)

	rec := do(t, h, http.MethodPut, path, "owner", map[string]interface{}{"content": "a", "save_type": "manual"})
	if rec.Code != http.StatusOK {
		t.Fatalf("first save status = %d", rec.Code)
	}

	rec = do(t, h, http.MethodPut, path, "alice", map[string]interface{}{"content": "b", "base_version": 1})
	if rec.Code != http.StatusConflict {
		t.Fatalf("stale save status = %d, body = %s", rec.Code, rec.Body.String())
	}
	problem := decode[map[string]interface{}](t, rec)
	if problem["expected_version"] != float64(1) || problem["actual_version"] != float64(2) {
		t.Errorf("problem = %v", problem)
	}
}

func TestBadRequests(t *testing.T) {
	h := setupTestServer(t)
	doc := createDocument(t, h)
	base := fmt.Sprintf("/api/documents/%s", doc.ID)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		want   int
	}{
		{name: "null title", method: http.MethodPut, path: base + "/content", body: map[string]interface{}{"content": "x", "title": nil}, want: http.StatusBadRequest},
		{name: "unknown save type", method: http.MethodPut, path: base + "/content", body: map[string]interface{}{"content": "x", "save_type": "sometimes"}, want: http.StatusBadRequest},
		{name: "non-numeric version", method: http.MethodGet, path: base + "/versions/latest", want: http.StatusBadRequest},
		{name: "page too large", method: http.MethodGet, path: base + "/versions?limit=1000", want: http.StatusBadRequest},
		{name: "negative offset", method: http.MethodGet, path: base + "/versions?offset=-1", want: http.StatusBadRequest},
		{name: "missing compare bounds", method: http.MethodGet, path: base + "/compare", want: http.StatusBadRequest},
		{name: "unknown document", method: http.MethodGet, path: "/api/documents/nope", want: http.StatusNotFound},
		{name: "unknown version", method: http.MethodGet, path: base + "/versions/9", want: http.StatusNotFound},
		{name: "restore unknown version", method: http.MethodPost, path: base + "/versions/9/restore", want: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.path, "owner", tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d, body = %s", rec.Code, tt.want, rec.Body.String())
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/problem+json" {
				t.Errorf("Content-Type = %q, want problem+json", ct)
			}
		})
	}
}

func TestSessionLifecycle(t *testing.T) {
	h := setupTestServer(t)
	doc := createDocument(t, h)

	rec := do(t, h, http.MethodPost, fmt.Sprintf("/api/documents/%s/sessions", doc.ID), "owner", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("start status = %d, body = %s", rec.Code, rec.Body.String())
	}
	session := decode[models.WritingSession](t, rec)
	endPath := fmt.Sprintf("/api/sessions/%s/end", session.ID)

	rec = do(t, h, http.MethodPost, endPath, "mallory", map[string]interface{}{"final_word_count": 3})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("foreign end status = %d, want 400", rec.Code)
	}

	rec = do(t, h, http.MethodPost, endPath, "owner", map[string]interface{}{"final_word_count": 3})
	if rec.Code != http.StatusOK {
		t.Fatalf("end status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodPost, endPath, "owner", nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("second end status = %d, want 409", rec.Code)
	}

	rec = do(t, h, http.MethodGet, fmt.Sprintf("/api/sessions/%s", session.ID), "owner", nil)
	got := decode[models.WritingSession](t, rec)
	if got.EndTime == nil || got.Activity.WordCountAtEnd != 3 {
		t.Errorf("session = %+v", got)
	}

	rec = do(t, h, http.MethodGet, fmt.Sprintf("/api/documents/%s/analytics", doc.ID), "owner", nil)
	analytics := decode[models.DocumentAnalytics](t, rec)
	if rec.Code != http.StatusOK || analytics.SessionCount != 1 || analytics.VersionCount != 1 {
		t.Errorf("analytics = %+v", analytics)
	}
}

func TestCollaboratorsAndComments(t *testing.T) {
	h := setupTestServer(t)
	doc := createDocument(t, h)
	base := fmt.Sprintf("/api/documents/%s", doc.ID)

	rec := do(t, h, http.MethodPost, base+"/collaborators", "owner", map[string]string{"user_id": "alice"})
	if rec.Code != http.StatusOK {
		t.Fatalf("add collaborator status = %d, body = %s", rec.Code, rec.Body.String())
	}
	updated := decode[models.Document](t, rec)
	if !updated.IsCollaborator("alice") {
		t.Errorf("collaborators = %v", updated.Collaborators)
	}

	rec = do(t, h, http.MethodPost, base+"/comments", "alice", nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("comment status = %d", rec.Code)
	}

	rec = do(t, h, http.MethodGet, base+"/editors", "alice", nil)
	presence := decode[models.Presence](t, rec)
	if len(presence.ActiveEditors) != 1 || presence.ActiveEditors[0] != "owner" {
		t.Errorf("active editors = %v", presence.ActiveEditors)
	}
	if presence.LastActivityAt == nil {
		t.Error("last_activity_at missing")
	}

	rec = do(t, h, http.MethodDelete, base, "owner", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = do(t, h, http.MethodPut, base+"/content", "owner", map[string]string{"content": "late"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("save after delete status = %d, want 400", rec.Code)
	}
}

func TestHealthCheck_ReportsFailingDependency(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHealthHandler(logger, map[string]HealthCheckFunc{
		"database": func(context.Context) error { return nil },
		"presence": func(context.Context) error { return fmt.Errorf("connection refused") },
	})

	rec := httptest.NewRecorder()
	h.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	body := decode[map[string]interface{}](t, rec)
	checks, _ := body["checks"].(map[string]interface{})
	if body["status"] != "degraded" || checks["database"] != "ok" || checks["presence"] != "unavailable" {
		t.Errorf("body = %v", body)
	}
}

func upload(t *testing.T, h http.Handler, filename, content string, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if filename != "" {
		part, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write([]byte(content)); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/documents/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set(middleware.DevUserHeader, "owner")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestImportDocument(t *testing.T) {
	h := setupTestServer(t)

	t.Run("text file becomes version 1", func(t *testing.T) {
		rec := upload(t, h, "field notes.txt", "one two three\r\n", nil)
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		doc := decode[models.Document](t, rec)
		if doc.Title != "field notes" {
			t.Errorf("title = %q, want %q", doc.Title, "field notes")
		}
		if doc.WordCount != 3 || doc.CurrentVersion != 1 || doc.OwnerID != "owner" {
			t.Errorf("doc = %+v", doc)
		}
	})

	t.Run("html with explicit title and kind", func(t *testing.T) {
		rec := upload(t, h, "essay.html", "<p>Hello <em>there</em></p><script>x()</script>",
			map[string]string{"title": "Final", "kind": string(models.DocumentKindSubmission)})
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		doc := decode[models.Document](t, rec)
		if doc.Title != "Final" || doc.Kind != models.DocumentKindSubmission {
			t.Errorf("doc = %+v", doc)
		}
		if doc.WordCount != 2 {
			t.Errorf("word_count = %d, want 2 (content %q)", doc.WordCount, doc.Content)
		}
	})

	t.Run("unsupported type", func(t *testing.T) {
		rec := upload(t, h, "scan.pdf", "%PDF-1.4", nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		rec := upload(t, h, "", "", map[string]string{"title": "x"})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("formats", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/api/documents/import/formats", "owner", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		body := decode[map[string][]string](t, rec)
		if len(body["extensions"]) == 0 {
			t.Errorf("extensions = %v", body)
		}
	})
}
