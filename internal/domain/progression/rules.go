package progression

import (
	"fmt"
	"time"

	"github.com/ascend-study/ascend-api/internal/domain"
)

// Transition is the computed outcome of a scored review: the column the topic
// moves to, its new mastery count, and the next scheduled review time (nil
// exactly when the topic reaches mastered).
type Transition struct {
	ToColumn     domain.Column
	MasteryCount int
	NextReviewAt *time.Time
}

// intervalDays returns the review interval for a score, falling back to
// DefaultIntervalDays for scores outside the table.
func intervalDays(score int, params *Params) int {
	if days, ok := params.IntervalDays[score]; ok {
		return days
	}
	return DefaultIntervalDays
}

// calculateTransition computes the scored-review transition.
//
// A perfect score extends the mastery streak; anything else resets it to zero.
// Reaching the mastery threshold promotes the topic to mastered and clears the
// schedule; otherwise the topic goes to reviewing with the next review
// scheduled interval(score) days from now.
func calculateTransition(priorMasteryCount, score int, now time.Time, params *Params) Transition {
	newCount := 0
	if score == domain.MaxUnderstandingScore {
		newCount = priorMasteryCount + 1
	}

	if newCount >= params.MasteryThreshold {
		return Transition{
			ToColumn:     domain.ColumnMastered,
			MasteryCount: newCount,
			NextReviewAt: nil,
		}
	}

	next := now.UTC().AddDate(0, 0, intervalDays(score, params))
	return Transition{
		ToColumn:     domain.ColumnReviewing,
		MasteryCount: newCount,
		NextReviewAt: &next,
	}
}

// deriveCost looks up the base gem cost for a difficulty/importance pair.
func deriveCost(
	difficulty domain.Difficulty,
	importance domain.Importance,
	params *Params,
) (domain.GemCost, error) {
	row, ok := params.CostTable[difficulty]
	if !ok {
		return domain.ZeroGemCost, fmt.Errorf("%w: %q", domain.ErrInvalidDifficulty, difficulty)
	}
	cost, ok := row[importance]
	if !ok {
		return domain.ZeroGemCost, fmt.Errorf("%w: %q", domain.ErrInvalidImportance, importance)
	}
	return cost, nil
}

// difficultyOrder and importanceOrder define the axes the cost table must be
// monotonic along, from cheapest to most expensive.
var (
	difficultyOrder = []domain.Difficulty{
		domain.DifficultyLow,
		domain.DifficultyMedium,
		domain.DifficultyHigh,
	}
	importanceOrder = []domain.Importance{
		domain.ImportanceLow,
		domain.ImportanceMedium,
		domain.ImportanceHigh,
	}
)

// validateCostTable checks that the table is complete and monotonic: raising
// difficulty or importance never strictly lowers any gem kind's amount.
func validateCostTable(
	table map[domain.Difficulty]map[domain.Importance]domain.GemCost,
) error {
	for _, d := range difficultyOrder {
		row, ok := table[d]
		if !ok {
			return fmt.Errorf("cost table missing difficulty %q", d)
		}
		for _, i := range importanceOrder {
			cost, ok := row[i]
			if !ok {
				return fmt.Errorf("cost table missing importance %q for difficulty %q", i, d)
			}
			if err := cost.Validate(); err != nil {
				return fmt.Errorf("cost table entry (%s, %s): %w", d, i, err)
			}
		}
	}

	for di, d := range difficultyOrder {
		for ii, i := range importanceOrder {
			cost := table[d][i]
			if di+1 < len(difficultyOrder) {
				if err := checkNotCheaper(cost, table[difficultyOrder[di+1]][i]); err != nil {
					return fmt.Errorf("cost table not monotonic in difficulty at (%s, %s): %w", d, i, err)
				}
			}
			if ii+1 < len(importanceOrder) {
				if err := checkNotCheaper(cost, table[d][importanceOrder[ii+1]]); err != nil {
					return fmt.Errorf("cost table not monotonic in importance at (%s, %s): %w", d, i, err)
				}
			}
		}
	}

	return nil
}

// checkNotCheaper returns an error if higher is strictly cheaper than lower
// in any gem kind.
func checkNotCheaper(lower, higher domain.GemCost) error {
	for k := range lower {
		if higher[k] < lower[k] {
			return fmt.Errorf("%s drops from %d to %d", domain.GemKinds[k], lower[k], higher[k])
		}
	}
	return nil
}
