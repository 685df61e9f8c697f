// Package progression holds the pure, tuning-table driven rules of the
// mastery pipeline: review interval scheduling, the mastery threshold,
// the gem cost table, and XP/prestige award amounts. Everything here is
// deterministic and side-effect free; services own persistence.
package progression

import (
	"github.com/ascend-study/ascend-api/internal/domain"
)

// DefaultIntervalDays is used when a score has no entry in the interval
// table. The review service validates scores before scheduling, so this
// fallback is only reachable through direct use of the pure functions.
const DefaultIntervalDays = 1

// Params defines all configurable parameters for the progression rules.
// The values are a tuning table, not a structural contract: deployments may
// override any of them through configuration, subject to the monotonicity
// requirement on the cost table.
type Params struct {
	// MasteryThreshold is the consecutive perfect-score streak that promotes
	// a topic to mastered.
	MasteryThreshold int

	// IntervalDays maps an understanding score to the number of days until
	// the next scheduled review.
	IntervalDays map[int]int

	// CostTable maps difficulty and importance to a topic's base gem cost.
	// Must be monotonic: raising difficulty or importance never lowers any
	// gem kind's amount.
	CostTable map[domain.Difficulty]map[domain.Importance]domain.GemCost

	// XP awards.
	ReviewXp   int // scored review that does not reach mastery
	MasteryXp  int // scored review that promotes to mastered
	PurchaseXp int // purchase-to-mastery shortcut
	SessionXp  int // completed study session

	// Prestige awards for purchases.
	PrestigeBase                int
	PrestigeHighDifficultyBonus int
}

// ParamsConfig allows overriding individual default parameters.
type ParamsConfig struct {
	MasteryThreshold int
	IntervalDays     map[int]int

	ReviewXp   int
	MasteryXp  int
	PurchaseXp int
	SessionXp  int

	PrestigeBase                int
	PrestigeHighDifficultyBonus int
}

// NewDefaultParams creates a Params instance with the default tuning table.
func NewDefaultParams() *Params {
	return &Params{
		MasteryThreshold: domain.MasteryThreshold,

		IntervalDays: map[int]int{
			1: 1,
			2: 2,
			3: 4,
			4: 10,
			5: 30,
		},

		CostTable: map[domain.Difficulty]map[domain.Importance]domain.GemCost{
			domain.DifficultyLow: {
				domain.ImportanceLow:    {1, 0, 0, 0},
				domain.ImportanceMedium: {2, 0, 0, 0},
				domain.ImportanceHigh:   {3, 1, 0, 0},
			},
			domain.DifficultyMedium: {
				domain.ImportanceLow:    {2, 1, 0, 0},
				domain.ImportanceMedium: {3, 1, 0, 0},
				domain.ImportanceHigh:   {4, 2, 0, 0},
			},
			domain.DifficultyHigh: {
				domain.ImportanceLow:    {3, 2, 1, 0},
				domain.ImportanceMedium: {4, 2, 1, 0},
				domain.ImportanceHigh:   {5, 3, 2, 1},
			},
		},

		ReviewXp:   10,
		MasteryXp:  30,
		PurchaseXp: 20,
		SessionXp:  15,

		PrestigeBase:                1,
		PrestigeHighDifficultyBonus: 1,
	}
}

// NewParams creates a Params instance with the defaults overridden by any
// positive values in config. The cost table is not overridable field-by-field
// here; deployments that retune pricing replace the whole table via
// SetCostTable so the monotonicity check runs against the complete table.
func NewParams(config ParamsConfig) *Params {
	params := NewDefaultParams()

	if config.MasteryThreshold > 0 {
		params.MasteryThreshold = config.MasteryThreshold
	}
	if len(config.IntervalDays) > 0 {
		params.IntervalDays = config.IntervalDays
	}

	if config.ReviewXp > 0 {
		params.ReviewXp = config.ReviewXp
	}
	if config.MasteryXp > 0 {
		params.MasteryXp = config.MasteryXp
	}
	if config.PurchaseXp > 0 {
		params.PurchaseXp = config.PurchaseXp
	}
	if config.SessionXp > 0 {
		params.SessionXp = config.SessionXp
	}

	if config.PrestigeBase > 0 {
		params.PrestigeBase = config.PrestigeBase
	}
	if config.PrestigeHighDifficultyBonus > 0 {
		params.PrestigeHighDifficultyBonus = config.PrestigeHighDifficultyBonus
	}

	return params
}

// SetCostTable replaces the cost table after validating monotonicity.
func (p *Params) SetCostTable(
	table map[domain.Difficulty]map[domain.Importance]domain.GemCost,
) error {
	if err := validateCostTable(table); err != nil {
		return err
	}
	p.CostTable = table
	return nil
}
