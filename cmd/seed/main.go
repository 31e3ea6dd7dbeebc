package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"scriptorium/internal/config"
	models "scriptorium/internal/domain/models/docsystem"
	docsysSvc "scriptorium/internal/domain/services/docsystem"
	"scriptorium/internal/policy"
	"scriptorium/internal/presence"
	"scriptorium/internal/repository/store"
	serviceDocsys "scriptorium/internal/service/docsystem"
)

// seedDraft is a short essay written in several saves by two students
var seedDraft = []struct {
	actor    string
	content  string
	saveType models.SaveType
}{
	{actor: "student-1", content: "Rivers shape the cities built beside them.", saveType: models.SaveTypeAuto},
	{actor: "student-1", content: "Rivers shape the cities built beside them. Trade follows the water, and so do floods.", saveType: models.SaveTypeAuto},
	{actor: "student-2", content: "Rivers shape the cities built beside them. Trade follows the water, and so do floods. Planners have spent centuries negotiating with both.", saveType: models.SaveTypeManual},
	{actor: "student-1", content: "Rivers shape the cities built beside them. Trade follows the water.", saveType: models.SaveTypeAuto},
}

func main() {
	reset := flag.Bool("reset", false, "Drop and recreate all tables before seeding")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't seed documents")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()
	cfg.AutoMigrate = true

	if cfg.Environment == "prod" && *reset {
		log.Fatalf("BLOCKED: cannot run --reset in production environment")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	ctx := context.Background()
	st, err := store.Open(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer st.Close()

	if *reset {
		log.Println("Dropping and recreating tables...")
		if err := st.Reset(ctx); err != nil {
			log.Fatalf("Failed to reset tables: %v", err)
		}
	}

	if *schemaOnly {
		log.Println("Schema setup complete (schema-only mode)")
		return
	}

	thresholds, err := policy.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to load versioning policy: %v", err)
	}
	services := serviceDocsys.SetupServices(st.Repositories, thresholds, presence.NewMemoryTracker(), logger)

	if err := seed(ctx, services); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	log.Println("Seeding complete")
}

func seed(ctx context.Context, services *serviceDocsys.Services) error {
	doc, err := services.Documents.CreateDocument(ctx, &docsysSvc.CreateDocumentRequest{
		OwnerID:       "student-1",
		Title:         "Rivers and Cities",
		Kind:          models.DocumentKindDraft,
		Collaborators: []string{"student-2"},
	})
	if err != nil {
		return err
	}
	log.Printf("Created document %s", doc.ID)

	session, err := services.Sessions.StartSession(ctx, doc.ID, "student-1")
	if err != nil {
		return err
	}

	for i, step := range seedDraft {
		result, err := services.Documents.SaveContent(ctx, &docsysSvc.SaveContentRequest{
			DocumentID: doc.ID,
			ActorID:    step.actor,
			Content:    step.content,
			SaveType:   step.saveType,
		})
		if err != nil {
			return err
		}
		log.Printf("Save %d/%d by %s: version %d (created=%v)",
			i+1, len(seedDraft), step.actor, result.CurrentVersion, result.VersionCreated)
	}

	if _, err := services.Sessions.EndSession(ctx, &docsysSvc.EndSessionRequest{
		SessionID:      session.ID,
		ActorID:        "student-1",
		FinalWordCount: 11,
	}); err != nil {
		return err
	}

	restored, err := services.Documents.RestoreVersion(ctx, doc.ID, 2, "student-1")
	if err != nil {
		return err
	}
	log.Printf("Restored version 2 as version %d", restored.NewVersion)

	if err := services.Documents.RecordComment(ctx, doc.ID, "student-2"); err != nil {
		return err
	}
	return nil
}
