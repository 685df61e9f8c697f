package postgres

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ascend-study/ascend-api/internal/domain"
	"github.com/ascend-study/ascend-api/internal/platform/logger"
	"github.com/ascend-study/ascend-api/internal/store"
)

// PostgresReviewStore implements the store.ReviewStore interface
// using a PostgreSQL database as the storage backend.
type PostgresReviewStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresReviewStore creates a new PostgreSQL implementation of the
// ReviewStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresReviewStore(db store.DBTX, logger *slog.Logger) *PostgresReviewStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresReviewStore{
		db:     db,
		logger: logger.With(slog.String("component", "review_store")),
	}
}

// Ensure PostgresReviewStore implements store.ReviewStore interface
var _ store.ReviewStore = (*PostgresReviewStore)(nil)

// WithTx implements store.ReviewStore.WithTx
func (s *PostgresReviewStore) WithTx(tx *sql.Tx) store.ReviewStore {
	return &PostgresReviewStore{
		db:     tx,
		logger: s.logger,
	}
}

// Append implements store.ReviewStore.Append
// Entries are immutable once written; this is the only write on the table.
func (s *PostgresReviewStore) Append(ctx context.Context, entry *domain.ReviewEntry) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := entry.Validate(); err != nil {
		log.Warn("review entry validation failed",
			slog.String("error", err.Error()),
			slog.String("topic_id", entry.TopicID.String()))
		return err
	}

	query := `
		INSERT INTO review_entries
			(id, topic_id, reviewed_at, from_column, to_column, understanding_score, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		entry.ID,
		entry.TopicID,
		entry.ReviewedAt,
		entry.FromColumn,
		entry.ToColumn,
		entry.UnderstandingScore,
		entry.Note,
	)
	if err != nil {
		log.Error("failed to append review entry",
			slog.String("error", err.Error()),
			slog.String("topic_id", entry.TopicID.String()))
		return MapError(err)
	}

	log.Debug("review entry appended",
		slog.String("topic_id", entry.TopicID.String()),
		slog.String("to_column", string(entry.ToColumn)))
	return nil
}

// ListByTopic implements store.ReviewStore.ListByTopic
// It returns a page of the topic's history, newest first, plus the total count.
func (s *PostgresReviewStore) ListByTopic(
	ctx context.Context,
	topicID uuid.UUID,
	limit, offset int,
) ([]*domain.ReviewEntry, int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM review_entries WHERE topic_id = $1`
	if err := s.db.QueryRowContext(ctx, countQuery, topicID).Scan(&total); err != nil {
		log.Error("failed to count review entries",
			slog.String("error", err.Error()),
			slog.String("topic_id", topicID.String()))
		return nil, 0, MapError(err)
	}

	query := `
		SELECT id, topic_id, reviewed_at, from_column, to_column, understanding_score, note
		FROM review_entries
		WHERE topic_id = $1
		ORDER BY reviewed_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := s.db.QueryContext(ctx, query, topicID, limit, offset)
	if err != nil {
		log.Error("failed to query review entries",
			slog.String("error", err.Error()),
			slog.String("topic_id", topicID.String()))
		return nil, 0, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var entries []*domain.ReviewEntry
	for rows.Next() {
		var entry domain.ReviewEntry
		err := rows.Scan(
			&entry.ID,
			&entry.TopicID,
			&entry.ReviewedAt,
			&entry.FromColumn,
			&entry.ToColumn,
			&entry.UnderstandingScore,
			&entry.Note,
		)
		if err != nil {
			log.Error("failed to scan review entry row", slog.String("error", err.Error()))
			return nil, 0, MapError(err)
		}
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		log.Error("error after scanning review entry rows", slog.String("error", err.Error()))
		return nil, 0, MapError(err)
	}

	if entries == nil {
		entries = []*domain.ReviewEntry{}
	}

	return entries, total, nil
}
