// Package store opens the configured storage backend and exposes its repositories.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"scriptorium/internal/config"
	docsysRepo "scriptorium/internal/domain/repositories/docsystem"
	"scriptorium/internal/repository/postgres"
	postgresDocsys "scriptorium/internal/repository/postgres/docsystem"
	"scriptorium/internal/repository/sqlite"
	sqliteDocsys "scriptorium/internal/repository/sqlite/docsystem"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Store is an open backend. Exactly one of pool or db is set.
type Store struct {
	Driver       string
	Repositories *docsysRepo.Repositories

	pool   *pgxpool.Pool
	db     *sql.DB
	tables *postgres.TableNames
}

// Open connects to the backend selected by cfg.DatabaseDriver and, when
// cfg.AutoMigrate is set, creates missing tables.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Store, error) {
	switch cfg.DatabaseDriver {
	case DriverPostgres:
		return openPostgres(ctx, cfg, logger)
	case DriverSQLite:
		return openSQLite(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unknown DATABASE_DRIVER %q", cfg.DatabaseDriver)
	}
}

func openPostgres(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Store, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required for the postgres driver")
	}

	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	tables := postgres.NewTableNames(cfg.TablePrefix)
	if cfg.AutoMigrate {
		if err := postgres.EnsureSchema(ctx, pool, tables); err != nil {
			pool.Close()
			return nil, err
		}
	}

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}

	logger.Info("database connected", "driver", DriverPostgres, "table_prefix", cfg.TablePrefix)

	return &Store{
		Driver: DriverPostgres,
		Repositories: &docsysRepo.Repositories{
			Documents: postgresDocsys.NewDocumentRepository(repoConfig),
			Versions:  postgresDocsys.NewVersionRepository(repoConfig),
			Sessions:  postgresDocsys.NewSessionRepository(repoConfig),
			Analytics: postgresDocsys.NewAnalyticsRepository(repoConfig),
			Tx:        postgres.NewTransactionManager(pool, logger),
		},
		pool:   pool,
		tables: tables,
	}, nil
}

func openSQLite(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Store, error) {
	db, err := sqlite.Open(ctx, cfg.SQLitePath)
	if err != nil {
		return nil, err
	}

	repoConfig := &sqlite.RepositoryConfig{DB: db, Logger: logger}

	logger.Info("database connected", "driver", DriverSQLite, "path", cfg.SQLitePath)

	return &Store{
		Driver: DriverSQLite,
		Repositories: &docsysRepo.Repositories{
			Documents: sqliteDocsys.NewDocumentRepository(repoConfig),
			Versions:  sqliteDocsys.NewVersionRepository(repoConfig),
			Sessions:  sqliteDocsys.NewSessionRepository(repoConfig),
			Analytics: sqliteDocsys.NewAnalyticsRepository(repoConfig),
			Tx:        sqlite.NewTransactionManager(db, logger),
		},
		db: db,
	}, nil
}

// Ping checks the backend connection
func (s *Store) Ping(ctx context.Context) error {
	if s.pool != nil {
		return s.pool.Ping(ctx)
	}
	return s.db.PingContext(ctx)
}

// Reset drops and recreates every engine table
func (s *Store) Reset(ctx context.Context) error {
	if s.pool != nil {
		if err := postgres.DropSchema(ctx, s.pool, s.tables); err != nil {
			return err
		}
		return postgres.EnsureSchema(ctx, s.pool, s.tables)
	}
	if err := sqlite.DropSchema(ctx, s.db); err != nil {
		return err
	}
	return sqlite.EnsureSchema(ctx, s.db)
}

// Close releases the backend connection
func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
		return nil
	}
	return s.db.Close()
}
