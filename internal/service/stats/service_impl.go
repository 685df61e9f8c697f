package stats

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ascend-study/ascend-api/internal/domain"
	"github.com/ascend-study/ascend-api/internal/platform/logger"
	"github.com/ascend-study/ascend-api/internal/store"
	"github.com/google/uuid"
)

// Verify interface compliance at compile time
var _ StatsService = (*statsServiceImpl)(nil)

// statsServiceImpl implements the StatsService interface.
type statsServiceImpl struct {
	txRunner   store.TxRunner
	statsStore store.StatsStore
	logger     *slog.Logger
}

// NewStatsService creates a new StatsService implementation.
func NewStatsService(
	txRunner store.TxRunner,
	statsStore store.StatsStore,
	logger *slog.Logger,
) StatsService {
	if txRunner == nil {
		panic("txRunner cannot be nil")
	}
	if statsStore == nil {
		panic("statsStore cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &statsServiceImpl{
		txRunner:   txRunner,
		statsStore: statsStore,
		logger:     logger.With(slog.String("component", "stats_service")),
	}
}

// GrantXp implements StatsService.GrantXp.
func (s *statsServiceImpl) GrantXp(
	ctx context.Context,
	userID uuid.UUID,
	amount int,
	reason string,
	referenceID *uuid.UUID,
) (*domain.UserStats, error) {
	var updated *domain.UserStats
	err := s.txRunner.RunInTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var txErr error
		updated, txErr = s.GrantXpInTx(ctx, s.statsStore.WithTx(tx), userID, amount, reason, referenceID)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// GrantXpInTx implements StatsService.GrantXpInTx.
func (s *statsServiceImpl) GrantXpInTx(
	ctx context.Context,
	statsStore store.StatsStore,
	userID uuid.UUID,
	amount int,
	reason string,
	referenceID *uuid.UUID,
) (*domain.UserStats, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if amount <= 0 {
		return nil, ErrInvalidXpAmount
	}

	userStats, err := ensureStatsForUpdate(ctx, statsStore, userID)
	if err != nil {
		return nil, &ServiceError{
			Operation: "grant_xp",
			Message:   "failed to load user stats",
			Err:       err,
		}
	}

	userStats.TotalXp += amount
	userStats.UpdatedAt = time.Now().UTC()

	if err := statsStore.Update(ctx, userStats); err != nil {
		return nil, &ServiceError{
			Operation: "grant_xp",
			Message:   "failed to update user stats",
			Err:       err,
		}
	}

	entry, err := domain.NewXpLogEntry(userID, amount, reason, referenceID)
	if err != nil {
		return nil, &ServiceError{
			Operation: "grant_xp",
			Message:   "invalid xp log entry",
			Err:       err,
		}
	}
	if err := statsStore.AppendXpLog(ctx, entry); err != nil {
		return nil, &ServiceError{
			Operation: "grant_xp",
			Message:   "failed to append xp log entry",
			Err:       err,
		}
	}

	log.Debug("granted xp",
		slog.String("user_id", userID.String()),
		slog.Int("amount", amount),
		slog.String("reason", reason),
		slog.Int("total_xp", userStats.TotalXp))
	return userStats, nil
}

// AddPrestigeInTx implements StatsService.AddPrestigeInTx.
func (s *statsServiceImpl) AddPrestigeInTx(
	ctx context.Context,
	statsStore store.StatsStore,
	userID uuid.UUID,
	points int,
) (*domain.UserStats, error) {
	if points <= 0 {
		return nil, ErrInvalidPrestigeAmount
	}

	userStats, err := ensureStatsForUpdate(ctx, statsStore, userID)
	if err != nil {
		return nil, &ServiceError{
			Operation: "add_prestige",
			Message:   "failed to load user stats",
			Err:       err,
		}
	}

	userStats.PrestigePoints += points
	userStats.UpdatedAt = time.Now().UTC()

	if err := statsStore.Update(ctx, userStats); err != nil {
		return nil, &ServiceError{
			Operation: "add_prestige",
			Message:   "failed to update user stats",
			Err:       err,
		}
	}
	return userStats, nil
}

// TouchStreak implements StatsService.TouchStreak.
func (s *statsServiceImpl) TouchStreak(
	ctx context.Context,
	userID uuid.UUID,
	at time.Time,
) (*domain.UserStats, error) {
	var updated *domain.UserStats
	err := s.txRunner.RunInTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var txErr error
		updated, txErr = s.TouchStreakInTx(ctx, s.statsStore.WithTx(tx), userID, at)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// TouchStreakInTx implements StatsService.TouchStreakInTx.
func (s *statsServiceImpl) TouchStreakInTx(
	ctx context.Context,
	statsStore store.StatsStore,
	userID uuid.UUID,
	at time.Time,
) (*domain.UserStats, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	userStats, err := ensureStatsForUpdate(ctx, statsStore, userID)
	if err != nil {
		return nil, &ServiceError{
			Operation: "touch_streak",
			Message:   "failed to load user stats",
			Err:       err,
		}
	}

	day := at.UTC()
	if userStats.LastStudyDate != nil && domain.SameStudyDay(*userStats.LastStudyDate, day) {
		// Already counted today.
		return userStats, nil
	}

	if userStats.LastStudyDate != nil && domain.IsPreviousStudyDay(*userStats.LastStudyDate, day) {
		userStats.CurrentStreak++
	} else {
		userStats.CurrentStreak = 1
	}
	if userStats.CurrentStreak > userStats.LongestStreak {
		userStats.LongestStreak = userStats.CurrentStreak
	}
	userStats.LastStudyDate = &day
	userStats.UpdatedAt = time.Now().UTC()

	if err := statsStore.Update(ctx, userStats); err != nil {
		return nil, &ServiceError{
			Operation: "touch_streak",
			Message:   "failed to update user stats",
			Err:       err,
		}
	}

	log.Debug("touched streak",
		slog.String("user_id", userID.String()),
		slog.Int("current_streak", userStats.CurrentStreak),
		slog.Int("longest_streak", userStats.LongestStreak))
	return userStats, nil
}

// Get implements StatsService.Get.
func (s *statsServiceImpl) Get(ctx context.Context, userID uuid.UUID) (*domain.UserStats, error) {
	userStats, err := s.statsStore.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrUserStatsNotFound) {
			fresh, newErr := domain.NewUserStats(userID)
			if newErr != nil {
				return nil, newErr
			}
			if createErr := s.statsStore.Create(ctx, fresh); createErr != nil {
				// A concurrent first access may have created the row already.
				if errors.Is(createErr, store.ErrDuplicate) {
					return s.statsStore.Get(ctx, userID)
				}
				return nil, fmt.Errorf("failed to create user stats: %w", createErr)
			}
			return fresh, nil
		}
		return nil, fmt.Errorf("failed to get user stats: %w", err)
	}
	return userStats, nil
}

// ensureStatsForUpdate locks the user's stats row, creating a zeroed row on
// first access so every user lazily gets a ledger.
func ensureStatsForUpdate(
	ctx context.Context,
	statsStore store.StatsStore,
	userID uuid.UUID,
) (*domain.UserStats, error) {
	userStats, err := statsStore.GetForUpdate(ctx, userID)
	if err == nil {
		return userStats, nil
	}
	if !errors.Is(err, store.ErrUserStatsNotFound) {
		return nil, err
	}

	fresh, newErr := domain.NewUserStats(userID)
	if newErr != nil {
		return nil, newErr
	}
	if createErr := statsStore.Create(ctx, fresh); createErr != nil {
		if errors.Is(createErr, store.ErrDuplicate) {
			return statsStore.GetForUpdate(ctx, userID)
		}
		return nil, createErr
	}
	return statsStore.GetForUpdate(ctx, userID)
}
