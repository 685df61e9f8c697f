package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ascend-study/ascend-api/internal/domain"
	"github.com/ascend-study/ascend-api/internal/platform/logger"
	"github.com/ascend-study/ascend-api/internal/store"
)

// topicColumns is the select list shared by every topic read.
const topicColumns = `id, user_id, subject_id, unit_id, title, difficulty, importance,
	pipeline_column, mastery_count, next_review_at,
	cost_sapphire, cost_emerald, cost_ruby, cost_diamond,
	purchased, discount_sapphire, discount_emerald, discount_ruby, discount_diamond,
	created_at, updated_at`

// PostgresTopicStore implements the store.TopicStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTopicStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTopicStore creates a new PostgreSQL implementation of the
// TopicStore interface. It accepts a database connection or transaction that
// should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresTopicStore(db store.DBTX, logger *slog.Logger) *PostgresTopicStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTopicStore{
		db:     db,
		logger: logger.With(slog.String("component", "topic_store")),
	}
}

// Ensure PostgresTopicStore implements store.TopicStore interface
var _ store.TopicStore = (*PostgresTopicStore)(nil)

// WithTx implements store.TopicStore.WithTx
func (s *PostgresTopicStore) WithTx(tx *sql.Tx) store.TopicStore {
	return &PostgresTopicStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.TopicStore.Create
// It saves a new topic to the database, handling domain validation.
func (s *PostgresTopicStore) Create(ctx context.Context, topic *domain.Topic) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := topic.Validate(); err != nil {
		log.Warn("topic validation failed during create",
			slog.String("error", err.Error()),
			slog.String("topic_id", topic.ID.String()))
		return err
	}

	query := `
		INSERT INTO topics (` + topicColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		topic.ID,
		topic.UserID,
		topic.SubjectID,
		topic.UnitID,
		topic.Title,
		topic.Difficulty,
		topic.Importance,
		topic.Column,
		topic.MasteryCount,
		topic.NextReviewAt,
		topic.GemCost[0], topic.GemCost[1], topic.GemCost[2], topic.GemCost[3],
		topic.Purchased,
		topic.PurchaseDiscount[0], topic.PurchaseDiscount[1],
		topic.PurchaseDiscount[2], topic.PurchaseDiscount[3],
		topic.CreatedAt,
		topic.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create topic",
			slog.String("error", err.Error()),
			slog.String("topic_id", topic.ID.String()))
		return MapError(err)
	}

	log.Info("topic created",
		slog.String("topic_id", topic.ID.String()),
		slog.String("unit_id", topic.UnitID.String()))
	return nil
}

// GetByID implements store.TopicStore.GetByID
// Returns store.ErrTopicNotFound if the topic does not exist.
func (s *PostgresTopicStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Topic, error) {
	query := `SELECT ` + topicColumns + ` FROM topics WHERE id = $1`
	return s.getTopic(ctx, query, id)
}

// GetForUpdate implements store.TopicStore.GetForUpdate
// It locks the topic row for the duration of the surrounding transaction so
// concurrent per-topic mutations serialize.
// Returns store.ErrTopicNotFound if the topic does not exist.
func (s *PostgresTopicStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Topic, error) {
	query := `SELECT ` + topicColumns + ` FROM topics WHERE id = $1 FOR UPDATE`
	return s.getTopic(ctx, query, id)
}

// getTopic runs a single-row topic query and scans the result.
func (s *PostgresTopicStore) getTopic(
	ctx context.Context,
	query string,
	id uuid.UUID,
) (*domain.Topic, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var topic domain.Topic
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&topic.ID,
		&topic.UserID,
		&topic.SubjectID,
		&topic.UnitID,
		&topic.Title,
		&topic.Difficulty,
		&topic.Importance,
		&topic.Column,
		&topic.MasteryCount,
		&topic.NextReviewAt,
		&topic.GemCost[0], &topic.GemCost[1], &topic.GemCost[2], &topic.GemCost[3],
		&topic.Purchased,
		&topic.PurchaseDiscount[0], &topic.PurchaseDiscount[1],
		&topic.PurchaseDiscount[2], &topic.PurchaseDiscount[3],
		&topic.CreatedAt,
		&topic.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("topic not found", slog.String("topic_id", id.String()))
			return nil, store.ErrTopicNotFound
		}
		log.Error("failed to get topic",
			slog.String("error", err.Error()),
			slog.String("topic_id", id.String()))
		return nil, MapError(err)
	}

	return &topic, nil
}

// Update implements store.TopicStore.Update
// It applies a typed partial update, writing only the fields present.
// Returns store.ErrTopicNotFound if the topic does not exist.
func (s *PostgresTopicStore) Update(
	ctx context.Context,
	id uuid.UUID,
	update store.TopicUpdate,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := update.Validate(); err != nil {
		log.Warn("topic update validation failed",
			slog.String("error", err.Error()),
			slog.String("topic_id", id.String()))
		return err
	}

	var (
		setClauses []string
		args       []any
	)
	addSet := func(column string, value any) {
		args = append(args, value)
		setClauses = append(setClauses, column+" = $"+strconv.Itoa(len(args)))
	}

	if update.Column != nil {
		addSet("pipeline_column", *update.Column)
	}
	if update.MasteryCount != nil {
		addSet("mastery_count", *update.MasteryCount)
	}
	if update.NextReviewAt != nil {
		addSet("next_review_at", *update.NextReviewAt)
	}
	if update.ClearNextReview {
		setClauses = append(setClauses, "next_review_at = NULL")
	}
	if update.Purchased != nil {
		addSet("purchased", *update.Purchased)
	}
	if update.PurchaseDiscount != nil {
		d := *update.PurchaseDiscount
		addSet("discount_sapphire", d[0])
		addSet("discount_emerald", d[1])
		addSet("discount_ruby", d[2])
		addSet("discount_diamond", d[3])
	}
	addSet("updated_at", time.Now().UTC())

	args = append(args, id)
	query := "UPDATE topics SET " + strings.Join(setClauses, ", ") +
		" WHERE id = $" + strconv.Itoa(len(args))

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to update topic",
			slog.String("error", err.Error()),
			slog.String("topic_id", id.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "topic"); err != nil {
		return err
	}

	log.Debug("topic updated", slog.String("topic_id", id.String()))
	return nil
}

// ListDueForReview implements store.TopicStore.ListDueForReview
// It returns IDs of reviewing-column topics due at or before now, oldest first.
func (s *PostgresTopicStore) ListDueForReview(
	ctx context.Context,
	now time.Time,
	limit int,
) ([]uuid.UUID, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if limit <= 0 {
		limit = 500
	}

	query := `
		SELECT id
		FROM topics
		WHERE pipeline_column = $1 AND next_review_at <= $2
		ORDER BY next_review_at ASC
		LIMIT $3
	`

	rows, err := s.db.QueryContext(ctx, query, domain.ColumnReviewing, now, limit)
	if err != nil {
		log.Error("failed to query due topics", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			log.Error("failed to scan due topic row", slog.String("error", err.Error()))
			return nil, MapError(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		log.Error("error after scanning due topic rows", slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	return ids, nil
}

// CountMasteredPurchasedBySubject implements store.TopicStore.CountMasteredPurchasedBySubject
func (s *PostgresTopicStore) CountMasteredPurchasedBySubject(
	ctx context.Context,
	userID, subjectID uuid.UUID,
) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT COUNT(*)
		FROM topics
		WHERE user_id = $1 AND subject_id = $2
		  AND pipeline_column = $3 AND purchased = TRUE
	`

	var count int
	err := s.db.QueryRowContext(ctx, query, userID, subjectID, domain.ColumnMastered).
		Scan(&count)
	if err != nil {
		log.Error("failed to count mastered purchased topics",
			slog.String("error", err.Error()),
			slog.String("subject_id", subjectID.String()))
		return 0, MapError(err)
	}

	return count, nil
}

// UnitProgress implements store.TopicStore.UnitProgress
// It returns mastered/total topic counts grouped by unit for the user.
func (s *PostgresTopicStore) UnitProgress(
	ctx context.Context,
	userID uuid.UUID,
) ([]store.UnitMastery, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT unit_id,
			COUNT(*) FILTER (WHERE pipeline_column = $2) AS mastered_count,
			COUNT(*) AS total_count
		FROM topics
		WHERE user_id = $1
		GROUP BY unit_id
		ORDER BY unit_id
	`

	rows, err := s.db.QueryContext(ctx, query, userID, domain.ColumnMastered)
	if err != nil {
		log.Error("failed to query unit progress",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var progress []store.UnitMastery
	for rows.Next() {
		var entry store.UnitMastery
		if err := rows.Scan(&entry.UnitID, &entry.MasteredCount, &entry.TotalCount); err != nil {
			log.Error("failed to scan unit progress row", slog.String("error", err.Error()))
			return nil, MapError(err)
		}
		progress = append(progress, entry)
	}
	if err := rows.Err(); err != nil {
		log.Error("error after scanning unit progress rows", slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	if progress == nil {
		progress = []store.UnitMastery{}
	}

	return progress, nil
}
