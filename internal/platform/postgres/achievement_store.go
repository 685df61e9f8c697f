package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ascend-study/ascend-api/internal/domain"
	"github.com/ascend-study/ascend-api/internal/platform/logger"
	"github.com/ascend-study/ascend-api/internal/store"
)

// PostgresAchievementStore implements the store.AchievementStore interface
// using a PostgreSQL database as the storage backend.
type PostgresAchievementStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresAchievementStore creates a new PostgreSQL implementation of the
// AchievementStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresAchievementStore(db store.DBTX, logger *slog.Logger) *PostgresAchievementStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresAchievementStore{
		db:     db,
		logger: logger.With(slog.String("component", "achievement_store")),
	}
}

// Ensure PostgresAchievementStore implements store.AchievementStore interface
var _ store.AchievementStore = (*PostgresAchievementStore)(nil)

// WithTx implements store.AchievementStore.WithTx
func (s *PostgresAchievementStore) WithTx(tx *sql.Tx) store.AchievementStore {
	return &PostgresAchievementStore{
		db:     tx,
		logger: s.logger,
	}
}

// ListKeys implements store.AchievementStore.ListKeys
func (s *PostgresAchievementStore) ListKeys(
	ctx context.Context,
	userID uuid.UUID,
) (map[string]struct{}, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT achievement_key FROM achievements WHERE user_id = $1`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		log.Error("failed to query achievement keys",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	keys := make(map[string]struct{})
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			log.Error("failed to scan achievement key row", slog.String("error", err.Error()))
			return nil, MapError(err)
		}
		keys[key] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		log.Error("error after scanning achievement key rows", slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	return keys, nil
}

// Insert implements store.AchievementStore.Insert
// The insert is guarded by the (user_id, achievement_key) uniqueness
// constraint with ON CONFLICT DO NOTHING, so a duplicate unlock attempt is a
// no-op reported as (false, nil). This property is what makes the rule engine
// idempotent under concurrent evaluation.
func (s *PostgresAchievementStore) Insert(
	ctx context.Context,
	achievement *domain.Achievement,
) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := achievement.Validate(); err != nil {
		log.Warn("achievement validation failed",
			slog.String("error", err.Error()),
			slog.String("user_id", achievement.UserID.String()),
			slog.String("key", achievement.Key))
		return false, err
	}

	query := `
		INSERT INTO achievements (id, user_id, achievement_key, unlocked_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, achievement_key) DO NOTHING
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		achievement.ID,
		achievement.UserID,
		achievement.Key,
		achievement.UnlockedAt,
	)
	if err != nil {
		log.Error("failed to insert achievement",
			slog.String("error", err.Error()),
			slog.String("user_id", achievement.UserID.String()),
			slog.String("key", achievement.Key))
		return false, MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, MapError(err)
	}

	if rowsAffected == 0 {
		log.Debug("achievement already unlocked",
			slog.String("user_id", achievement.UserID.String()),
			slog.String("key", achievement.Key))
		return false, nil
	}

	log.Info("achievement unlocked",
		slog.String("user_id", achievement.UserID.String()),
		slog.String("key", achievement.Key))
	return true, nil
}

// Snapshot implements store.AchievementStore.Snapshot
// It aggregates the per-user state the unlock predicates read. Review counts
// join through topics because review entries are keyed by topic only.
func (s *PostgresAchievementStore) Snapshot(
	ctx context.Context,
	userID uuid.UUID,
) (*store.ProgressSnapshot, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var snapshot store.ProgressSnapshot

	reviewQuery := `
		SELECT
			COUNT(*) FILTER (WHERE r.understanding_score IS NOT NULL),
			COUNT(*) FILTER (WHERE r.understanding_score = $2)
		FROM review_entries r
		JOIN topics t ON t.id = r.topic_id
		WHERE t.user_id = $1
	`
	err := s.db.QueryRowContext(ctx, reviewQuery, userID, domain.MaxUnderstandingScore).
		Scan(&snapshot.ReviewCount, &snapshot.PerfectReviewCount)
	if err != nil {
		log.Error("failed to aggregate review counts",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}

	topicQuery := `
		SELECT
			COUNT(*) FILTER (WHERE pipeline_column = $2),
			COUNT(*) FILTER (WHERE purchased)
		FROM topics
		WHERE user_id = $1
	`
	err = s.db.QueryRowContext(ctx, topicQuery, userID, domain.ColumnMastered).
		Scan(&snapshot.MasteredTopicCount, &snapshot.PurchasedTopicCount)
	if err != nil {
		log.Error("failed to aggregate topic counts",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}

	statsQuery := `
		SELECT total_xp, current_streak, longest_streak, prestige_points
		FROM user_stats
		WHERE user_id = $1
	`
	err = s.db.QueryRowContext(ctx, statsQuery, userID).Scan(
		&snapshot.TotalXp,
		&snapshot.CurrentStreak,
		&snapshot.LongestStreak,
		&snapshot.PrestigePoints,
	)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		log.Error("failed to load stats for snapshot",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}

	return &snapshot, nil
}
