package docsystem

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	models "scriptorium/internal/domain/models/docsystem"
	docsysRepo "scriptorium/internal/domain/repositories/docsystem"

	"scriptorium/internal/repository/postgres"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresAnalyticsRepository implements the AnalyticsRepository interface
type PostgresAnalyticsRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewAnalyticsRepository creates a new analytics repository
func NewAnalyticsRepository(config *postgres.RepositoryConfig) docsysRepo.AnalyticsRepository {
	return &PostgresAnalyticsRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// ClaimEvent inserts the event key; a conflicting insert means it was already applied
func (r *PostgresAnalyticsRepository) ClaimEvent(ctx context.Context, documentID, eventKey string) (bool, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (document_id, event_key)
		VALUES ($1, $2)
		ON CONFLICT (document_id, event_key) DO NOTHING
	`, r.tables.AnalyticsEvents)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, documentID, eventKey)
	if err != nil {
		return false, fmt.Errorf("claim analytics event: %w", err)
	}

	return result.RowsAffected() == 1, nil
}

// AddContributor upserts a contributor row and increments its counters
func (r *PostgresAnalyticsRepository) AddContributor(ctx context.Context, delta models.ContributorDelta) error {
	query := fmt.Sprintf(`
		INSERT INTO %[1]s AS c (document_id, user_id, words_contributed, edits_count, comments_count, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (document_id, user_id) DO UPDATE
		SET words_contributed = c.words_contributed + EXCLUDED.words_contributed,
		    edits_count = c.edits_count + EXCLUDED.edits_count,
		    comments_count = c.comments_count + EXCLUDED.comments_count,
		    updated_at = GREATEST(c.updated_at, EXCLUDED.updated_at)
	`, r.tables.ContributorStats)

	executor := postgres.GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		delta.DocumentID,
		delta.UserID,
		delta.Words,
		delta.Edits,
		delta.Comments,
		delta.At,
	)
	if err != nil {
		return fmt.Errorf("upsert contributor stat: %w", err)
	}

	return nil
}

// AddDaily upserts a daily pattern row and increments its counters
func (r *PostgresAnalyticsRepository) AddDaily(ctx context.Context, delta models.DailyDelta) error {
	query := fmt.Sprintf(`
		INSERT INTO %[1]s AS d (document_id, date, words_written, time_spent_minutes, revisions_count)
		VALUES ($1, $2::date, $3, $4, $5)
		ON CONFLICT (document_id, date) DO UPDATE
		SET words_written = d.words_written + EXCLUDED.words_written,
		    time_spent_minutes = d.time_spent_minutes + EXCLUDED.time_spent_minutes,
		    revisions_count = d.revisions_count + EXCLUDED.revisions_count
	`, r.tables.DailyPatterns)

	executor := postgres.GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		delta.DocumentID,
		delta.Date,
		delta.Words,
		delta.Minutes,
		delta.Revisions,
	)
	if err != nil {
		return fmt.Errorf("upsert daily pattern: %w", err)
	}

	return nil
}

// ListContributors returns contributor stats ordered by words contributed
func (r *PostgresAnalyticsRepository) ListContributors(ctx context.Context, documentID string) ([]models.ContributorStat, error) {
	query := fmt.Sprintf(`
		SELECT document_id, user_id, words_contributed, edits_count, comments_count, updated_at
		FROM %s
		WHERE document_id = $1
		ORDER BY words_contributed DESC, user_id ASC
	`, r.tables.ContributorStats)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("list contributor stats: %w", err)
	}
	defer rows.Close()

	stats := []models.ContributorStat{}
	for rows.Next() {
		var s models.ContributorStat
		if err := rows.Scan(&s.DocumentID, &s.UserID, &s.WordsContributed, &s.EditsCount, &s.CommentsCount, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan contributor stat: %w", err)
		}
		stats = append(stats, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contributor stats: %w", err)
	}

	return stats, nil
}

// ListDaily returns daily patterns ordered by date
func (r *PostgresAnalyticsRepository) ListDaily(ctx context.Context, documentID string) ([]models.DailyWritingPattern, error) {
	query := fmt.Sprintf(`
		SELECT document_id, date, words_written, time_spent_minutes, revisions_count
		FROM %s
		WHERE document_id = $1
		ORDER BY date ASC
	`, r.tables.DailyPatterns)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("list daily patterns: %w", err)
	}
	defer rows.Close()

	patterns := []models.DailyWritingPattern{}
	for rows.Next() {
		var p models.DailyWritingPattern
		var date time.Time
		if err := rows.Scan(&p.DocumentID, &date, &p.WordsWritten, &p.TimeSpentMinutes, &p.RevisionsCount); err != nil {
			return nil, fmt.Errorf("scan daily pattern: %w", err)
		}
		p.Date = date.Format(models.DateLayout)
		patterns = append(patterns, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily patterns: %w", err)
	}

	return patterns, nil
}
