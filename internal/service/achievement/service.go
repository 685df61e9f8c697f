package achievement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ascend-study/ascend-api/internal/domain"
	"github.com/ascend-study/ascend-api/internal/platform/logger"
	"github.com/ascend-study/ascend-api/internal/store"
	"github.com/google/uuid"
)

// KeyProgress pairs a registry key with its current evaluation for a user.
type KeyProgress struct {
	Key string `json:"key"`
	Evaluation
}

// AchievementService evaluates the predicate registry against a user's
// aggregated progress and records unlocks.
//
// Evaluate is idempotent: unlock rows are guarded by a uniqueness constraint
// and a duplicate insert is absorbed, so callers may invoke it after every
// review, purchase, or session without coordination, including concurrently.
type AchievementService interface {
	// Evaluate runs every not-yet-unlocked predicate for the user and records
	// the ones now satisfied. Returns the keys newly unlocked by this call;
	// repeat calls return an empty slice.
	Evaluate(ctx context.Context, userID uuid.UUID) ([]string, error)

	// Progress evaluates the full registry without writing anything,
	// reporting each key's unlocked state and progress toward its target.
	Progress(ctx context.Context, userID uuid.UUID) ([]KeyProgress, error)
}

// ErrDuplicateKey indicates the registry was built with two predicates
// sharing a key.
var ErrDuplicateKey = errors.New("duplicate achievement key in registry")

// Verify interface compliance at compile time
var _ AchievementService = (*achievementServiceImpl)(nil)

// achievementServiceImpl implements the AchievementService interface.
type achievementServiceImpl struct {
	achievementStore store.AchievementStore
	registry         []Predicate
	logger           *slog.Logger
}

// NewAchievementService creates a new AchievementService over the given
// predicate registry. Returns ErrDuplicateKey if two predicates share a key.
func NewAchievementService(
	achievementStore store.AchievementStore,
	registry []Predicate,
	logger *slog.Logger,
) (AchievementService, error) {
	if achievementStore == nil {
		panic("achievementStore cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	seen := make(map[string]struct{}, len(registry))
	for _, p := range registry {
		if _, dup := seen[p.Key]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateKey, p.Key)
		}
		seen[p.Key] = struct{}{}
	}

	return &achievementServiceImpl{
		achievementStore: achievementStore,
		registry:         registry,
		logger:           logger.With(slog.String("component", "achievement_service")),
	}, nil
}

// Evaluate implements AchievementService.Evaluate.
func (s *achievementServiceImpl) Evaluate(
	ctx context.Context,
	userID uuid.UUID,
) ([]string, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	unlocked, err := s.achievementStore.ListKeys(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list unlocked keys: %w", err)
	}

	pending := make([]Predicate, 0, len(s.registry))
	for _, p := range s.registry {
		if _, done := unlocked[p.Key]; !done {
			pending = append(pending, p)
		}
	}
	if len(pending) == 0 {
		return nil, nil
	}

	snapshot, err := s.achievementStore.Snapshot(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load progress snapshot: %w", err)
	}

	var newlyUnlocked []string
	for _, p := range pending {
		if !p.Evaluate(snapshot).Unlocked {
			continue
		}

		record, err := domain.NewAchievement(userID, p.Key)
		if err != nil {
			return nil, fmt.Errorf("failed to build achievement: %w", err)
		}
		inserted, err := s.achievementStore.Insert(ctx, record)
		if err != nil {
			return nil, fmt.Errorf("failed to record achievement %q: %w", p.Key, err)
		}
		// A concurrent evaluation may have written the row first; only the
		// call that actually inserted reports the key as new.
		if inserted {
			newlyUnlocked = append(newlyUnlocked, p.Key)
		}
	}

	if len(newlyUnlocked) > 0 {
		log.Info("achievements unlocked",
			slog.String("user_id", userID.String()),
			slog.Any("keys", newlyUnlocked))
	}
	return newlyUnlocked, nil
}

// Progress implements AchievementService.Progress.
func (s *achievementServiceImpl) Progress(
	ctx context.Context,
	userID uuid.UUID,
) ([]KeyProgress, error) {
	snapshot, err := s.achievementStore.Snapshot(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load progress snapshot: %w", err)
	}

	result := make([]KeyProgress, 0, len(s.registry))
	for _, p := range s.registry {
		result = append(result, KeyProgress{Key: p.Key, Evaluation: p.Evaluate(snapshot)})
	}
	return result, nil
}
