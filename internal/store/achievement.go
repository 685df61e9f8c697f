package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/ascend-study/ascend-api/internal/domain"
)

// ProgressSnapshot is the aggregated read the achievement predicates evaluate
// against. All counts are scoped to a single user.
type ProgressSnapshot struct {
	ReviewCount         int // scored review entries
	PerfectReviewCount  int // scored review entries with a perfect score
	MasteredTopicCount  int
	PurchasedTopicCount int
	TotalXp             int
	CurrentStreak       int
	LongestStreak       int
	PrestigePoints      int
}

// AchievementStore defines the interface for achievement persistence and the
// aggregated reads the rule engine evaluates.
type AchievementStore interface {
	// ListKeys returns the set of achievement keys the user has unlocked.
	ListKeys(ctx context.Context, userID uuid.UUID) (map[string]struct{}, error)

	// Insert saves an unlock row guarded by the (user_id, key) uniqueness
	// constraint. A duplicate insert is a no-op: it returns false, nil rather
	// than an error, which is what makes the evaluator safe to call
	// repeatedly and concurrently.
	Insert(ctx context.Context, achievement *domain.Achievement) (bool, error)

	// Snapshot loads the aggregated per-user state predicates read.
	Snapshot(ctx context.Context, userID uuid.UUID) (*ProgressSnapshot, error)

	// WithTx returns a new AchievementStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) AchievementStore
}
