package docsystem

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"scriptorium/internal/domain"
	models "scriptorium/internal/domain/models/docsystem"
	docsysRepo "scriptorium/internal/domain/repositories/docsystem"

	"scriptorium/internal/repository/postgres"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresSessionRepository implements the SessionRepository interface
type PostgresSessionRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewSessionRepository creates a new writing session repository
func NewSessionRepository(config *postgres.RepositoryConfig) docsysRepo.SessionRepository {
	return &PostgresSessionRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create inserts an open session
func (r *PostgresSessionRepository) Create(ctx context.Context, s *models.WritingSession) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, document_id, user_id, start_time)
		VALUES ($1, $2, $3, $4)
	`, r.tables.WritingSessions)

	executor := postgres.GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, s.ID, s.DocumentID, s.UserID, s.StartTime); err != nil {
		if postgres.IsPgForeignKeyError(err) {
			return domain.NewNotFound("document", s.DocumentID)
		}
		return fmt.Errorf("create session: %w", err)
	}

	return nil
}

// GetByID retrieves a session
func (r *PostgresSessionRepository) GetByID(ctx context.Context, id string) (*models.WritingSession, error) {
	query := fmt.Sprintf(`
		SELECT id, document_id, user_id, start_time, end_time, duration_minutes,
			keystrokes, pause_count, revision_count, word_count_at_end
		FROM %s
		WHERE id = $1
	`, r.tables.WritingSessions)

	var s models.WritingSession
	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id).Scan(
		&s.ID,
		&s.DocumentID,
		&s.UserID,
		&s.StartTime,
		&s.EndTime,
		&s.DurationMinutes,
		&s.Activity.Keystrokes,
		&s.Activity.PauseCount,
		&s.Activity.RevisionCount,
		&s.Activity.WordCountAtEnd,
	)
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, domain.NewNotFound("session", id)
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	return &s, nil
}

// Close ends an open session; the end_time IS NULL predicate makes it one-shot
func (r *PostgresSessionRepository) Close(ctx context.Context, id string, end time.Time, durationMinutes int, activity models.ActivityCounters) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET end_time = $2,
		    duration_minutes = $3,
		    keystrokes = $4,
		    pause_count = $5,
		    revision_count = $6,
		    word_count_at_end = $7
		WHERE id = $1 AND end_time IS NULL
	`, r.tables.WritingSessions)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		id,
		end,
		durationMinutes,
		activity.Keystrokes,
		activity.PauseCount,
		activity.RevisionCount,
		activity.WordCountAtEnd,
	)
	if err != nil {
		return fmt.Errorf("close session: %w", err)
	}

	if result.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return &domain.AlreadyClosedError{SessionID: id}
	}

	return nil
}

// Totals counts sessions and sums closed-session minutes
func (r *PostgresSessionRepository) Totals(ctx context.Context, documentID string) (*models.SessionTotals, error) {
	query := fmt.Sprintf(`
		SELECT COUNT(*),
		       COUNT(end_time),
		       COALESCE(SUM(duration_minutes) FILTER (WHERE end_time IS NOT NULL), 0)
		FROM %s
		WHERE document_id = $1
	`, r.tables.WritingSessions)

	var totals models.SessionTotals
	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, documentID).Scan(
		&totals.SessionCount,
		&totals.ClosedCount,
		&totals.TotalMinutes,
	)
	if err != nil {
		return nil, fmt.Errorf("session totals: %w", err)
	}

	return &totals, nil
}
