package docsystem

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	models "scriptorium/internal/domain/models/docsystem"
	docsysRepo "scriptorium/internal/domain/repositories/docsystem"

	"scriptorium/internal/repository/sqlite"
)

// SQLiteAnalyticsRepository implements the AnalyticsRepository interface
type SQLiteAnalyticsRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewAnalyticsRepository creates a new analytics repository
func NewAnalyticsRepository(config *sqlite.RepositoryConfig) docsysRepo.AnalyticsRepository {
	return &SQLiteAnalyticsRepository{db: config.DB, logger: config.Logger}
}

// ClaimEvent inserts the event key; an ignored insert means it was already applied
func (r *SQLiteAnalyticsRepository) ClaimEvent(ctx context.Context, documentID, eventKey string) (bool, error) {
	result, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx,
		`INSERT OR IGNORE INTO analytics_events (document_id, event_key) VALUES (?, ?)`,
		documentID, eventKey)
	if err != nil {
		return false, fmt.Errorf("claim analytics event: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim analytics event: %w", err)
	}
	return affected == 1, nil
}

// AddContributor upserts a contributor row and increments its counters
func (r *SQLiteAnalyticsRepository) AddContributor(ctx context.Context, delta models.ContributorDelta) error {
	_, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, `
		INSERT INTO contributor_stats (document_id, user_id, words_contributed, edits_count, comments_count, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (document_id, user_id) DO UPDATE
		SET words_contributed = words_contributed + excluded.words_contributed,
		    edits_count = edits_count + excluded.edits_count,
		    comments_count = comments_count + excluded.comments_count,
		    updated_at = MAX(updated_at, excluded.updated_at)`,
		delta.DocumentID,
		delta.UserID,
		delta.Words,
		delta.Edits,
		delta.Comments,
		sqlite.ToMillis(delta.At),
	)
	if err != nil {
		return fmt.Errorf("upsert contributor stat: %w", err)
	}
	return nil
}

// AddDaily upserts a daily pattern row and increments its counters
func (r *SQLiteAnalyticsRepository) AddDaily(ctx context.Context, delta models.DailyDelta) error {
	_, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, `
		INSERT INTO daily_writing_patterns (document_id, date, words_written, time_spent_minutes, revisions_count)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (document_id, date) DO UPDATE
		SET words_written = words_written + excluded.words_written,
		    time_spent_minutes = time_spent_minutes + excluded.time_spent_minutes,
		    revisions_count = revisions_count + excluded.revisions_count`,
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
func (r *SQLiteAnalyticsRepository) ListContributors(ctx context.Context, documentID string) ([]models.ContributorStat, error) {
	rows, err := sqlite.GetExecutor(ctx, r.db).QueryContext(ctx, `
		SELECT document_id, user_id, words_contributed, edits_count, comments_count, updated_at
		FROM contributor_stats
		WHERE document_id = ?
		ORDER BY words_contributed DESC, user_id ASC`, documentID)
	if err != nil {
		return nil, fmt.Errorf("list contributor stats: %w", err)
	}
	defer rows.Close()

	stats := []models.ContributorStat{}
	for rows.Next() {
		var (
			s       models.ContributorStat
			updated int64
		)
		if err := rows.Scan(&s.DocumentID, &s.UserID, &s.WordsContributed, &s.EditsCount, &s.CommentsCount, &updated); err != nil {
			return nil, fmt.Errorf("scan contributor stat: %w", err)
		}
		s.UpdatedAt = sqlite.FromMillis(updated)
		stats = append(stats, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contributor stats: %w", err)
	}
	return stats, nil
}

// ListDaily returns daily patterns ordered by date
func (r *SQLiteAnalyticsRepository) ListDaily(ctx context.Context, documentID string) ([]models.DailyWritingPattern, error) {
	rows, err := sqlite.GetExecutor(ctx, r.db).QueryContext(ctx, `
		SELECT document_id, date, words_written, time_spent_minutes, revisions_count
		FROM daily_writing_patterns
		WHERE document_id = ?
		ORDER BY date ASC`, documentID)
	if err != nil {
		return nil, fmt.Errorf("list daily patterns: %w", err)
	}
	defer rows.Close()

	patterns := []models.DailyWritingPattern{}
	for rows.Next() {
		var p models.DailyWritingPattern
		if err := rows.Scan(&p.DocumentID, &p.Date, &p.WordsWritten, &p.TimeSpentMinutes, &p.RevisionsCount); err != nil {
			return nil, fmt.Errorf("scan daily pattern: %w", err)
		}
		patterns = append(patterns, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily patterns: %w", err)
	}
	return patterns, nil
}
