package achievement_test

import (
	"context"
	"database/sql"
	"log/slog"
	"testing"

	"github.com/ascend-study/ascend-api/internal/domain"
	"github.com/ascend-study/ascend-api/internal/service/achievement"
	"github.com/ascend-study/ascend-api/internal/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAchievementStore is an in-memory AchievementStore with a mutable
// snapshot per user.
type fakeAchievementStore struct {
	unlocked  map[uuid.UUID]map[string]struct{}
	snapshots map[uuid.UUID]*store.ProgressSnapshot
	inserts   int
	// phantom keys collide on insert but are invisible to ListKeys, standing
	// in for a concurrent evaluation that committed between the two reads.
	phantom map[string]struct{}
}

func newFakeAchievementStore() *fakeAchievementStore {
	return &fakeAchievementStore{
		unlocked:  make(map[uuid.UUID]map[string]struct{}),
		snapshots: make(map[uuid.UUID]*store.ProgressSnapshot),
		phantom:   make(map[string]struct{}),
	}
}

func (s *fakeAchievementStore) ListKeys(
	ctx context.Context,
	userID uuid.UUID,
) (map[string]struct{}, error) {
	keys := make(map[string]struct{}, len(s.unlocked[userID]))
	for key := range s.unlocked[userID] {
		keys[key] = struct{}{}
	}
	return keys, nil
}

func (s *fakeAchievementStore) Insert(
	ctx context.Context,
	record *domain.Achievement,
) (bool, error) {
	s.inserts++
	if _, dup := s.phantom[record.Key]; dup {
		return false, nil
	}
	keys, ok := s.unlocked[record.UserID]
	if !ok {
		keys = make(map[string]struct{})
		s.unlocked[record.UserID] = keys
	}
	if _, dup := keys[record.Key]; dup {
		return false, nil
	}
	keys[record.Key] = struct{}{}
	return true, nil
}

func (s *fakeAchievementStore) Snapshot(
	ctx context.Context,
	userID uuid.UUID,
) (*store.ProgressSnapshot, error) {
	snapshot, ok := s.snapshots[userID]
	if !ok {
		return &store.ProgressSnapshot{}, nil
	}
	copied := *snapshot
	return &copied, nil
}

func (s *fakeAchievementStore) WithTx(tx *sql.Tx) store.AchievementStore {
	return s
}

func newService(t *testing.T, achievementStore store.AchievementStore) achievement.AchievementService {
	t.Helper()

	svc, err := achievement.NewAchievementService(
		achievementStore, achievement.DefaultRegistry(), slog.Default(),
	)
	require.NoError(t, err)
	return svc
}

func TestNewAchievementService(t *testing.T) {
	t.Parallel()

	t.Run("rejects duplicate keys", func(t *testing.T) {
		registry := []achievement.Predicate{
			{Key: "first_review"},
			{Key: "first_review"},
		}
		_, err := achievement.NewAchievementService(
			newFakeAchievementStore(), registry, slog.Default(),
		)
		assert.ErrorIs(t, err, achievement.ErrDuplicateKey)
	})

	t.Run("default registry has unique keys", func(t *testing.T) {
		_, err := achievement.NewAchievementService(
			newFakeAchievementStore(), achievement.DefaultRegistry(), slog.Default(),
		)
		assert.NoError(t, err)
	})
}

func TestEvaluate(t *testing.T) {
	t.Parallel()

	t.Run("unlocks satisfied predicates", func(t *testing.T) {
		achievementStore := newFakeAchievementStore()
		svc := newService(t, achievementStore)
		userID := uuid.New()
		achievementStore.snapshots[userID] = &store.ProgressSnapshot{
			ReviewCount:        12,
			PerfectReviewCount: 1,
			TotalXp:            150,
		}

		unlocked, err := svc.Evaluate(context.Background(), userID)
		require.NoError(t, err)

		assert.ElementsMatch(t,
			[]string{"first_review", "reviews_10", "first_perfect", "xp_100"},
			unlocked)
	})

	t.Run("second call reports nothing new", func(t *testing.T) {
		achievementStore := newFakeAchievementStore()
		svc := newService(t, achievementStore)
		userID := uuid.New()
		achievementStore.snapshots[userID] = &store.ProgressSnapshot{ReviewCount: 1}

		first, err := svc.Evaluate(context.Background(), userID)
		require.NoError(t, err)
		require.Contains(t, first, "first_review")

		second, err := svc.Evaluate(context.Background(), userID)
		require.NoError(t, err)
		assert.Empty(t, second)
	})

	t.Run("skips already unlocked keys without inserting", func(t *testing.T) {
		achievementStore := newFakeAchievementStore()
		svc := newService(t, achievementStore)
		userID := uuid.New()
		achievementStore.unlocked[userID] = map[string]struct{}{"first_review": {}}
		achievementStore.snapshots[userID] = &store.ProgressSnapshot{ReviewCount: 5}

		unlocked, err := svc.Evaluate(context.Background(), userID)
		require.NoError(t, err)
		assert.Empty(t, unlocked)
		assert.Zero(t, achievementStore.inserts)
	})

	t.Run("lost insert race is not reported as new", func(t *testing.T) {
		achievementStore := newFakeAchievementStore()
		svc := newService(t, achievementStore)
		userID := uuid.New()
		achievementStore.snapshots[userID] = &store.ProgressSnapshot{ReviewCount: 1}
		achievementStore.phantom["first_review"] = struct{}{}

		unlocked, err := svc.Evaluate(context.Background(), userID)
		require.NoError(t, err)
		assert.NotContains(t, unlocked, "first_review")
	})

	t.Run("unlocks nothing for an empty snapshot", func(t *testing.T) {
		achievementStore := newFakeAchievementStore()
		svc := newService(t, achievementStore)

		unlocked, err := svc.Evaluate(context.Background(), uuid.New())
		require.NoError(t, err)
		assert.Empty(t, unlocked)
	})
}

func TestProgress(t *testing.T) {
	t.Parallel()

	achievementStore := newFakeAchievementStore()
	svc := newService(t, achievementStore)
	userID := uuid.New()
	achievementStore.snapshots[userID] = &store.ProgressSnapshot{
		ReviewCount:    37,
		LongestStreak:  3,
		PrestigePoints: 4,
	}

	progress, err := svc.Progress(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, progress, len(achievement.DefaultRegistry()))

	byKey := make(map[string]achievement.KeyProgress, len(progress))
	for _, kp := range progress {
		byKey[kp.Key] = kp
	}

	reviews50 := byKey["reviews_50"]
	assert.False(t, reviews50.Unlocked)
	assert.Equal(t, 37, reviews50.Progress)
	assert.Equal(t, 50, reviews50.Target)

	streak3 := byKey["streak_3"]
	assert.True(t, streak3.Unlocked)
	assert.Equal(t, 3, streak3.Progress)

	// Progress clamps at the target even when the counter runs past it.
	reviews10 := byKey["reviews_10"]
	assert.True(t, reviews10.Unlocked)
	assert.Equal(t, 10, reviews10.Progress)

	// Progress is read-only.
	assert.Zero(t, achievementStore.inserts)
	assert.Empty(t, achievementStore.unlocked[userID])
}
