package docsystem

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"scriptorium/internal/domain"
	models "scriptorium/internal/domain/models/docsystem"
	docsysRepo "scriptorium/internal/domain/repositories/docsystem"

	"scriptorium/internal/repository/sqlite"
)

// SQLiteSessionRepository implements the SessionRepository interface
type SQLiteSessionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSessionRepository creates a new writing session repository
func NewSessionRepository(config *sqlite.RepositoryConfig) docsysRepo.SessionRepository {
	return &SQLiteSessionRepository{db: config.DB, logger: config.Logger}
}

// Create inserts an open session
func (r *SQLiteSessionRepository) Create(ctx context.Context, s *models.WritingSession) error {
	_, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, `
		INSERT INTO writing_sessions (id, document_id, user_id, start_time)
		VALUES (?, ?, ?, ?)`,
		s.ID, s.DocumentID, s.UserID, sqlite.ToMillis(s.StartTime))
	if err != nil {
		if sqlite.IsForeignKeyError(err) {
			return domain.NewNotFound("document", s.DocumentID)
		}
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// GetByID retrieves a session
func (r *SQLiteSessionRepository) GetByID(ctx context.Context, id string) (*models.WritingSession, error) {
	var (
		s     models.WritingSession
		start int64
		end   sql.NullInt64
	)

	err := sqlite.GetExecutor(ctx, r.db).QueryRowContext(ctx, `
		SELECT id, document_id, user_id, start_time, end_time, duration_minutes,
			keystrokes, pause_count, revision_count, word_count_at_end
		FROM writing_sessions
		WHERE id = ?`, id).Scan(
		&s.ID,
		&s.DocumentID,
		&s.UserID,
		&start,
		&end,
		&s.DurationMinutes,
		&s.Activity.Keystrokes,
		&s.Activity.PauseCount,
		&s.Activity.RevisionCount,
		&s.Activity.WordCountAtEnd,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFound("session", id)
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	s.StartTime = sqlite.FromMillis(start)
	if end.Valid {
		t := sqlite.FromMillis(end.Int64)
		s.EndTime = &t
	}

	return &s, nil
}

// Close ends an open session; the end_time IS NULL predicate makes it one-shot
func (r *SQLiteSessionRepository) Close(ctx context.Context, id string, end time.Time, durationMinutes int, activity models.ActivityCounters) error {
	result, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, `
		UPDATE writing_sessions
		SET end_time = ?,
		    duration_minutes = ?,
		    keystrokes = ?,
		    pause_count = ?,
		    revision_count = ?,
		    word_count_at_end = ?
		WHERE id = ? AND end_time IS NULL`,
		sqlite.ToMillis(end),
		durationMinutes,
		activity.Keystrokes,
		activity.PauseCount,
		activity.RevisionCount,
		activity.WordCountAtEnd,
		id,
	)
	if err != nil {
		return fmt.Errorf("close session: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	if affected == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return &domain.AlreadyClosedError{SessionID: id}
	}

	return nil
}

// Totals counts sessions and sums closed-session minutes
func (r *SQLiteSessionRepository) Totals(ctx context.Context, documentID string) (*models.SessionTotals, error) {
	var totals models.SessionTotals
	err := sqlite.GetExecutor(ctx, r.db).QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(end_time),
		       COALESCE(SUM(CASE WHEN end_time IS NOT NULL THEN duration_minutes END), 0)
		FROM writing_sessions
		WHERE document_id = ?`, documentID).Scan(
		&totals.SessionCount,
		&totals.ClosedCount,
		&totals.TotalMinutes,
	)
	if err != nil {
		return nil, fmt.Errorf("session totals: %w", err)
	}
	return &totals, nil
}
