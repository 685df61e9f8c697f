package achievement

import (
	"github.com/ascend-study/ascend-api/internal/store"
)

// Evaluation is one predicate's verdict over a user's progress snapshot.
// Progress and Target let clients render "37/50" style meters for locked
// achievements.
type Evaluation struct {
	Unlocked bool `json:"unlocked"`
	Progress int  `json:"progress"`
	Target   int  `json:"target"`
}

// Predicate is a named, pure read over aggregated user state. Predicates must
// be monotonic: once satisfied for a user they stay satisfied, which is what
// lets the evaluator skip keys that are already unlocked.
type Predicate struct {
	Key      string
	Evaluate func(snapshot *store.ProgressSnapshot) Evaluation
}

// counterPredicate builds a predicate satisfied when a snapshot counter
// reaches target.
func counterPredicate(key string, target int, counter func(*store.ProgressSnapshot) int) Predicate {
	return Predicate{
		Key: key,
		Evaluate: func(snapshot *store.ProgressSnapshot) Evaluation {
			progress := counter(snapshot)
			if progress > target {
				progress = target
			}
			return Evaluation{
				Unlocked: progress >= target,
				Progress: progress,
				Target:   target,
			}
		},
	}
}

// DefaultRegistry returns the built-in achievement predicates.
func DefaultRegistry() []Predicate {
	reviews := func(s *store.ProgressSnapshot) int { return s.ReviewCount }
	perfect := func(s *store.ProgressSnapshot) int { return s.PerfectReviewCount }
	mastered := func(s *store.ProgressSnapshot) int { return s.MasteredTopicCount }
	purchased := func(s *store.ProgressSnapshot) int { return s.PurchasedTopicCount }
	xp := func(s *store.ProgressSnapshot) int { return s.TotalXp }
	streak := func(s *store.ProgressSnapshot) int { return s.LongestStreak }
	prestige := func(s *store.ProgressSnapshot) int { return s.PrestigePoints }

	return []Predicate{
		counterPredicate("first_review", 1, reviews),
		counterPredicate("reviews_10", 10, reviews),
		counterPredicate("reviews_50", 50, reviews),
		counterPredicate("reviews_250", 250, reviews),
		counterPredicate("first_perfect", 1, perfect),
		counterPredicate("perfect_10", 10, perfect),
		counterPredicate("perfect_50", 50, perfect),
		counterPredicate("first_mastery", 1, mastered),
		counterPredicate("mastered_5", 5, mastered),
		counterPredicate("mastered_25", 25, mastered),
		counterPredicate("first_purchase", 1, purchased),
		counterPredicate("purchases_10", 10, purchased),
		counterPredicate("xp_100", 100, xp),
		counterPredicate("xp_1000", 1000, xp),
		counterPredicate("xp_10000", 10000, xp),
		counterPredicate("streak_3", 3, streak),
		counterPredicate("streak_7", 7, streak),
		counterPredicate("streak_30", 30, streak),
		counterPredicate("prestige_10", 10, prestige),
	}
}
