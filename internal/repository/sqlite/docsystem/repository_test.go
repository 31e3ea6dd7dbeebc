package docsystem

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"scriptorium/internal/domain"
	models "scriptorium/internal/domain/models/docsystem"
	"scriptorium/internal/repository/sqlite"
)

func setupTestDB(t *testing.T) *sqlite.RepositoryConfig {
	t.Helper()
	db, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return &sqlite.RepositoryConfig{
		DB:     db,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func seedDocument(t *testing.T, cfg *sqlite.RepositoryConfig, id string) *models.Document {
	t.Helper()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	doc := &models.Document{
		ID:             id,
		OwnerID:        "owner",
		Kind:           models.DocumentKindDraft,
		Status:         models.DocumentStatusActive,
		Title:          "Essay",
		Content:        "hello world",
		WordCount:      2,
		CurrentVersion: 1,
		LastEditedBy:   "owner",
		LastEditedAt:   now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := NewDocumentRepository(cfg).Create(context.Background(), doc); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return doc
}

func TestDocumentRepository_UpdateHead(t *testing.T) {
	cfg := setupTestDB(t)
	repo := NewDocumentRepository(cfg)
	ctx := context.Background()
	seedDocument(t, cfg, "doc-1")

	upd := &models.HeadUpdate{
		DocumentID:      "doc-1",
		ExpectedVersion: 1,
		NewVersion:      2,
		Title:           "Essay",
		Content:         "hello brave new world",
		WordCount:       4,
		EditedBy:        "owner",
		EditedAt:        time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	if err := repo.UpdateHead(ctx, upd); err != nil {
		t.Fatalf("UpdateHead() error = %v", err)
	}

	// Same expected version again loses the race
	err := repo.UpdateHead(ctx, upd)
	var conflict *domain.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("second UpdateHead() error = %v, want ConflictError", err)
	}
	if conflict.ActualVersion != 2 || conflict.ExpectedVersion != 1 {
		t.Errorf("conflict = %+v, want expected 1 actual 2", conflict)
	}

	upd.DocumentID = "missing"
	if err := repo.UpdateHead(ctx, upd); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("UpdateHead(missing) error = %v, want ErrNotFound", err)
	}

	doc, err := repo.GetByID(ctx, "doc-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if doc.CurrentVersion != 2 || doc.WordCount != 4 || doc.Status != models.DocumentStatusActive {
		t.Errorf("head = %+v", doc)
	}
	if !doc.LastEditedAt.Equal(upd.EditedAt) {
		t.Errorf("LastEditedAt = %v, want %v", doc.LastEditedAt, upd.EditedAt)
	}
}

func TestDocumentRepository_UpdateHeadRejectsDeleted(t *testing.T) {
	cfg := setupTestDB(t)
	repo := NewDocumentRepository(cfg)
	ctx := context.Background()
	seedDocument(t, cfg, "doc-1")

	if err := repo.SetStatus(ctx, "doc-1", models.DocumentStatusDeleted); err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}

	err := repo.UpdateHead(ctx, &models.HeadUpdate{
		DocumentID:      "doc-1",
		ExpectedVersion: 1,
		NewVersion:      2,
		Title:           "Essay",
		Content:         "revived",
		WordCount:       1,
		EditedBy:        "owner",
		EditedAt:        time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Status:          models.DocumentStatusSubmitted,
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("UpdateHead(deleted) error = %v, want ErrValidation", err)
	}

	doc, err := repo.GetByID(ctx, "doc-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if doc.Status != models.DocumentStatusDeleted || doc.CurrentVersion != 1 || doc.Content != "hello world" {
		t.Errorf("head = %+v", doc)
	}
}

func TestDocumentRepository_Collaborators(t *testing.T) {
	cfg := setupTestDB(t)
	repo := NewDocumentRepository(cfg)
	ctx := context.Background()
	seedDocument(t, cfg, "doc-1")

	for _, user := range []string{"alice", "bob", "alice"} {
		if err := repo.AddCollaborator(ctx, "doc-1", user); err != nil {
			t.Fatalf("AddCollaborator(%s) error = %v", user, err)
		}
	}

	doc, err := repo.GetByID(ctx, "doc-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if len(doc.Collaborators) != 2 || !doc.IsCollaborator("alice") || !doc.IsCollaborator("bob") {
		t.Errorf("Collaborators = %v", doc.Collaborators)
	}

	if err := repo.AddCollaborator(ctx, "missing", "alice"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("AddCollaborator(missing) error = %v, want ErrNotFound", err)
	}
}

func TestVersionRepository_AppendOnly(t *testing.T) {
	cfg := setupTestDB(t)
	repo := NewVersionRepository(cfg)
	ctx := context.Background()
	seedDocument(t, cfg, "doc-1")

	for i := 1; i <= 3; i++ {
		v := &models.DocumentVersion{
			ID:          "v" + string(rune('0'+i)),
			DocumentID:  "doc-1",
			Version:     i,
			Title:       "Essay",
			Content:     "body",
			AuthorID:    "owner",
			IsMilestone: i == 2,
			CreatedAt:   time.Date(2026, 3, 1, 9, i, 0, 0, time.UTC),
		}
		if i == 2 {
			v.MilestoneDescription = models.RestoredMilestone(1)
		}
		if err := repo.Insert(ctx, v); err != nil {
			t.Fatalf("Insert(%d) error = %v", i, err)
		}
	}

	dup := &models.DocumentVersion{ID: "v-dup", DocumentID: "doc-1", Version: 3, AuthorID: "owner", CreatedAt: time.Now()}
	if err := repo.Insert(ctx, dup); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("Insert(duplicate) error = %v, want ErrConflict", err)
	}

	orphan := &models.DocumentVersion{ID: "v-orphan", DocumentID: "nope", Version: 1, AuthorID: "owner", CreatedAt: time.Now()}
	if err := repo.Insert(ctx, orphan); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Insert(orphan) error = %v, want ErrNotFound", err)
	}

	list, err := repo.List(ctx, "doc-1", 2, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 2 || list[0].Version != 3 || list[1].Version != 2 {
		t.Errorf("List() versions = %+v, want [3 2]", list)
	}

	milestones, err := repo.ListMilestones(ctx, "doc-1")
	if err != nil {
		t.Fatalf("ListMilestones() error = %v", err)
	}
	if len(milestones) != 1 || milestones[0].MilestoneDescription != "Restored from version 1" {
		t.Errorf("ListMilestones() = %+v", milestones)
	}

	count, err := repo.Count(ctx, "doc-1")
	if err != nil || count != 3 {
		t.Errorf("Count() = %d, %v; want 3", count, err)
	}

	if _, err := repo.Get(ctx, "doc-1", 9); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Get(9) error = %v, want ErrNotFound", err)
	}
}

func TestVersionRepository_SaveID(t *testing.T) {
	cfg := setupTestDB(t)
	repo := NewVersionRepository(cfg)
	ctx := context.Background()
	seedDocument(t, cfg, "doc-1")

	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i, saveID := range []string{"", "", "save-a"} {
		v := &models.DocumentVersion{
			ID:         "v" + string(rune('1'+i)),
			DocumentID: "doc-1",
			Version:    i + 1,
			Title:      "Essay",
			AuthorID:   "owner",
			SaveID:     saveID,
			CreatedAt:  at,
		}
		if err := repo.Insert(ctx, v); err != nil {
			t.Fatalf("Insert(%d) error = %v", i+1, err)
		}
	}

	v, err := repo.GetBySaveID(ctx, "doc-1", "save-a")
	if err != nil || v.Version != 3 || v.SaveID != "save-a" {
		t.Errorf("GetBySaveID(save-a) = %+v, %v; want version 3", v, err)
	}
	if _, err := repo.GetBySaveID(ctx, "doc-1", ""); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetBySaveID(empty) error = %v, want ErrNotFound", err)
	}

	reused := &models.DocumentVersion{ID: "v-reuse", DocumentID: "doc-1", Version: 4, AuthorID: "owner", SaveID: "save-a", CreatedAt: at}
	if err := repo.Insert(ctx, reused); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("Insert(reused save id) error = %v, want ErrConflict", err)
	}
}

func TestSessionRepository_CloseOnce(t *testing.T) {
	cfg := setupTestDB(t)
	repo := NewSessionRepository(cfg)
	ctx := context.Background()
	seedDocument(t, cfg, "doc-1")

	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for _, id := range []string{"s1", "s2"} {
		if err := repo.Create(ctx, &models.WritingSession{ID: id, DocumentID: "doc-1", UserID: "owner", StartTime: start}); err != nil {
			t.Fatalf("Create(%s) error = %v", id, err)
		}
	}

	end := start.Add(45 * time.Minute)
	activity := models.ActivityCounters{Keystrokes: 900, PauseCount: 3, RevisionCount: 2, WordCountAtEnd: 350}
	if err := repo.Close(ctx, "s1", end, 45, activity); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := repo.Close(ctx, "s1", end, 45, activity); !errors.Is(err, domain.ErrAlreadyClosed) {
		t.Errorf("second Close() error = %v, want ErrAlreadyClosed", err)
	}
	if err := repo.Close(ctx, "missing", end, 1, activity); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Close(missing) error = %v, want ErrNotFound", err)
	}

	s, err := repo.GetByID(ctx, "s1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if !s.IsClosed() || s.DurationMinutes != 45 || s.Activity != activity {
		t.Errorf("session = %+v", s)
	}

	totals, err := repo.Totals(ctx, "doc-1")
	if err != nil {
		t.Fatalf("Totals() error = %v", err)
	}
	want := models.SessionTotals{SessionCount: 2, ClosedCount: 1, TotalMinutes: 45}
	if *totals != want {
		t.Errorf("Totals() = %+v, want %+v", *totals, want)
	}
}

func TestAnalyticsRepository_Upserts(t *testing.T) {
	cfg := setupTestDB(t)
	repo := NewAnalyticsRepository(cfg)
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	claimed, err := repo.ClaimEvent(ctx, "doc-1", "save:a")
	if err != nil || !claimed {
		t.Fatalf("first ClaimEvent() = %v, %v; want true", claimed, err)
	}
	claimed, err = repo.ClaimEvent(ctx, "doc-1", "save:a")
	if err != nil || claimed {
		t.Fatalf("second ClaimEvent() = %v, %v; want false", claimed, err)
	}

	deltas := []models.ContributorDelta{
		{DocumentID: "doc-1", UserID: "alice", Words: 10, Edits: 1, At: at},
		{DocumentID: "doc-1", UserID: "bob", Words: 30, Edits: 1, At: at},
		{DocumentID: "doc-1", UserID: "alice", Words: 5, Edits: 1, Comments: 1, At: at.Add(time.Hour)},
	}
	for _, d := range deltas {
		if err := repo.AddContributor(ctx, d); err != nil {
			t.Fatalf("AddContributor() error = %v", err)
		}
	}

	stats, err := repo.ListContributors(ctx, "doc-1")
	if err != nil {
		t.Fatalf("ListContributors() error = %v", err)
	}
	if len(stats) != 2 || stats[0].UserID != "bob" {
		t.Fatalf("ListContributors() = %+v, want bob first", stats)
	}
	alice := stats[1]
	if alice.WordsContributed != 15 || alice.EditsCount != 2 || alice.CommentsCount != 1 {
		t.Errorf("alice = %+v", alice)
	}

	for _, d := range []models.DailyDelta{
		{DocumentID: "doc-1", Date: "2026-03-02", Words: 4, Revisions: 1},
		{DocumentID: "doc-1", Date: "2026-03-01", Words: 6, Revisions: 1},
		{DocumentID: "doc-1", Date: "2026-03-01", Minutes: 30},
	} {
		if err := repo.AddDaily(ctx, d); err != nil {
			t.Fatalf("AddDaily() error = %v", err)
		}
	}

	daily, err := repo.ListDaily(ctx, "doc-1")
	if err != nil {
		t.Fatalf("ListDaily() error = %v", err)
	}
	if len(daily) != 2 || daily[0].Date != "2026-03-01" {
		t.Fatalf("ListDaily() = %+v", daily)
	}
	if daily[0].WordsWritten != 6 || daily[0].TimeSpentMinutes != 30 || daily[0].RevisionsCount != 1 {
		t.Errorf("first day = %+v", daily[0])
	}
}
