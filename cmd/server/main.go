package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"scriptorium/internal/auth"
	"scriptorium/internal/config"
	docsysSvc "scriptorium/internal/domain/services/docsystem"
	"scriptorium/internal/handler"
	"scriptorium/internal/middleware"
	"scriptorium/internal/observability"
	"scriptorium/internal/policy"
	"scriptorium/internal/presence"
	"scriptorium/internal/repository/store"
	serviceDocsys "scriptorium/internal/service/docsystem"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}

	out, closeLog, err := config.LogWriter(cfg.LogDir, cfg.LogMaxFiles)
	if err != nil {
		log.Fatalf("Failed to set up log file: %v", err)
	}
	defer closeLog()

	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"driver", cfg.DatabaseDriver,
		"table_prefix", cfg.TablePrefix,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing := observability.InitOTel(ctx, logger, observability.OTelConfig{
		Enabled:     cfg.OTelEnabled,
		ServiceName: "scriptorium",
		Environment: cfg.Environment,
		Endpoint:    cfg.OTelEndpoint,
		Headers:     cfg.OTelHeaders,
		Insecure:    cfg.OTelInsecure,
		SampleRatio: cfg.OTelSampleRatio,
	})

	// Storage backend
	st, err := store.Open(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer st.Close()

	// Snapshot thresholds
	var thresholds *policy.Registry
	if cfg.PolicyFile != "" {
		thresholds, err = policy.NewRegistryFromFile(cfg.PolicyFile)
	} else {
		thresholds, err = policy.NewRegistry()
	}
	if err != nil {
		log.Fatalf("Failed to load versioning policy: %v", err)
	}
	logger.Info("versioning policy loaded", "kinds", thresholds.Kinds(), "file", cfg.PolicyFile)

	// Presence tracker
	tracker, closeTracker, err := setupTracker(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to set up presence tracker: %v", err)
	}
	defer closeTracker()

	// Identity
	var verifier auth.JWTVerifier
	if cfg.JWKSURL != "" {
		verifier, err = auth.NewJWTVerifier(cfg.JWKSURL, logger)
		if err != nil {
			log.Fatalf("Failed to create JWT verifier: %v", err)
		}
		defer verifier.Close()
	} else {
		if cfg.Environment == "prod" {
			log.Fatalf("JWKS_URL is required in production")
		}
		logger.Warn("JWKS_URL not set - trusting " + middleware.DevUserHeader + " header (dev only)")
	}

	services := serviceDocsys.SetupServices(st.Repositories, thresholds, tracker, logger)
	logger.Info("services initialized")

	checks := map[string]handler.HealthCheckFunc{"database": st.Ping}
	if pinger, ok := tracker.(interface{ Ping(context.Context) error }); ok {
		checks["presence"] = pinger.Ping
	}

	mux := handler.NewRouter(
		handler.NewDocumentHandler(services.Documents, logger),
		handler.NewSessionHandler(services.Sessions, logger),
		handler.NewImportHandler(services.Imports, logger),
		handler.NewHealthHandler(logger, checks),
	)

	// Order: CORS → Recovery → Auth → Routes
	var h http.Handler = mux
	h = middleware.AuthMiddleware(verifier, logger)(h)
	h = middleware.Recovery(logger)(h)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.DevUserHeader},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("tracing shutdown failed", "error", err)
	}

	logger.Info("server stopped")
}

// setupTracker returns the Redis tracker when REDIS_URL is set, else the in-process one
func setupTracker(ctx context.Context, cfg *config.Config, logger *slog.Logger) (docsysSvc.CollaborationTracker, func() error, error) {
	opts := []presence.Option{presence.WithIdleWindow(cfg.PresenceIdleWindow)}

	if cfg.RedisURL == "" {
		logger.Info("presence tracker initialized", "backend", "memory", "idle_window", cfg.PresenceIdleWindow)
		return presence.NewMemoryTracker(opts...), func() error { return nil }, nil
	}

	client, err := presence.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}

	tracker := presence.NewRedisTracker(client, logger, opts...)
	logger.Info("presence tracker initialized", "backend", "redis", "idle_window", cfg.PresenceIdleWindow)
	return tracker, tracker.Close, nil
}
