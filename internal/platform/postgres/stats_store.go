package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ascend-study/ascend-api/internal/domain"
	"github.com/ascend-study/ascend-api/internal/platform/logger"
	"github.com/ascend-study/ascend-api/internal/store"
)

// PostgresStatsStore implements the store.StatsStore interface
// using a PostgreSQL database as the storage backend.
type PostgresStatsStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresStatsStore creates a new PostgreSQL implementation of the
// StatsStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresStatsStore(db store.DBTX, logger *slog.Logger) *PostgresStatsStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresStatsStore{
		db:     db,
		logger: logger.With(slog.String("component", "stats_store")),
	}
}

// Ensure PostgresStatsStore implements store.StatsStore interface
var _ store.StatsStore = (*PostgresStatsStore)(nil)

// WithTx implements store.StatsStore.WithTx
func (s *PostgresStatsStore) WithTx(tx *sql.Tx) store.StatsStore {
	return &PostgresStatsStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.StatsStore.Create
// Returns store.ErrDuplicate if a stats row already exists for the user.
func (s *PostgresStatsStore) Create(ctx context.Context, stats *domain.UserStats) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := stats.Validate(); err != nil {
		log.Warn("user stats validation failed during create",
			slog.String("error", err.Error()),
			slog.String("user_id", stats.UserID.String()))
		return err
	}

	query := `
		INSERT INTO user_stats
			(user_id, total_xp, current_streak, longest_streak, last_study_date,
			 prestige_points, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		stats.UserID,
		stats.TotalXp,
		stats.CurrentStreak,
		stats.LongestStreak,
		stats.LastStudyDate,
		stats.PrestigePoints,
		stats.CreatedAt,
		stats.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create user stats",
			slog.String("error", err.Error()),
			slog.String("user_id", stats.UserID.String()))
		return MapError(err)
	}

	log.Info("user stats created", slog.String("user_id", stats.UserID.String()))
	return nil
}

// Get implements store.StatsStore.Get
// Returns store.ErrUserStatsNotFound if the row does not exist.
func (s *PostgresStatsStore) Get(ctx context.Context, userID uuid.UUID) (*domain.UserStats, error) {
	query := `
		SELECT user_id, total_xp, current_streak, longest_streak, last_study_date,
			prestige_points, created_at, updated_at
		FROM user_stats
		WHERE user_id = $1
	`
	return s.getStats(ctx, query, userID)
}

// GetForUpdate implements store.StatsStore.GetForUpdate
// Returns store.ErrUserStatsNotFound if the row does not exist.
func (s *PostgresStatsStore) GetForUpdate(
	ctx context.Context,
	userID uuid.UUID,
) (*domain.UserStats, error) {
	query := `
		SELECT user_id, total_xp, current_streak, longest_streak, last_study_date,
			prestige_points, created_at, updated_at
		FROM user_stats
		WHERE user_id = $1
		FOR UPDATE
	`
	return s.getStats(ctx, query, userID)
}

// getStats runs a single-row stats query and scans the result.
func (s *PostgresStatsStore) getStats(
	ctx context.Context,
	query string,
	userID uuid.UUID,
) (*domain.UserStats, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var stats domain.UserStats
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&stats.UserID,
		&stats.TotalXp,
		&stats.CurrentStreak,
		&stats.LongestStreak,
		&stats.LastStudyDate,
		&stats.PrestigePoints,
		&stats.CreatedAt,
		&stats.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("user stats not found", slog.String("user_id", userID.String()))
			return nil, store.ErrUserStatsNotFound
		}
		log.Error("failed to get user stats",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}

	return &stats, nil
}

// Update implements store.StatsStore.Update
// Returns store.ErrUserStatsNotFound if the row does not exist.
func (s *PostgresStatsStore) Update(ctx context.Context, stats *domain.UserStats) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := stats.Validate(); err != nil {
		log.Warn("user stats validation failed during update",
			slog.String("error", err.Error()),
			slog.String("user_id", stats.UserID.String()))
		return err
	}

	query := `
		UPDATE user_stats
		SET total_xp = $1, current_streak = $2, longest_streak = $3,
			last_study_date = $4, prestige_points = $5, updated_at = $6
		WHERE user_id = $7
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		stats.TotalXp,
		stats.CurrentStreak,
		stats.LongestStreak,
		stats.LastStudyDate,
		stats.PrestigePoints,
		time.Now().UTC(),
		stats.UserID,
	)
	if err != nil {
		log.Error("failed to update user stats",
			slog.String("error", err.Error()),
			slog.String("user_id", stats.UserID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "user stats"); err != nil {
		return err
	}

	log.Debug("user stats updated", slog.String("user_id", stats.UserID.String()))
	return nil
}

// AppendXpLog implements store.StatsStore.AppendXpLog
// XP log rows are immutable once written.
func (s *PostgresStatsStore) AppendXpLog(ctx context.Context, entry *domain.XpLogEntry) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := entry.Validate(); err != nil {
		log.Warn("xp log entry validation failed",
			slog.String("error", err.Error()),
			slog.String("user_id", entry.UserID.String()))
		return err
	}

	query := `
		INSERT INTO xp_log (id, user_id, amount, reason, reference_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		entry.ID,
		entry.UserID,
		entry.Amount,
		entry.Reason,
		entry.ReferenceID,
		entry.CreatedAt,
	)
	if err != nil {
		log.Error("failed to append xp log entry",
			slog.String("error", err.Error()),
			slog.String("user_id", entry.UserID.String()),
			slog.String("reason", entry.Reason))
		return MapError(err)
	}

	log.Debug("xp log entry appended",
		slog.String("user_id", entry.UserID.String()),
		slog.Int("amount", entry.Amount),
		slog.String("reason", entry.Reason))
	return nil
}
