package progression

import (
	"errors"
	"time"

	"github.com/ascend-study/ascend-api/internal/domain"
)

// Common errors
var (
	ErrInvalidScore = errors.New("understanding score must be between 1 and 5")
)

// Service defines the interface for progression rule evaluation.
type Service interface {
	// CalculateTransition computes the outcome of a scored review from the
	// topic's prior mastery count. Rejects scores outside 1..5.
	CalculateTransition(priorMasteryCount, score int, now time.Time) (Transition, error)

	// DeriveCost returns the base gem cost for a difficulty/importance pair
	// from the configured cost table.
	DeriveCost(difficulty domain.Difficulty, importance domain.Importance) (domain.GemCost, error)

	// MasteryThreshold returns the configured consecutive-perfect threshold.
	MasteryThreshold() int

	// XpForTransition returns the XP awarded for a scored review that lands
	// in the given column.
	XpForTransition(toColumn domain.Column) int

	// PurchaseXp returns the XP awarded for a purchase-to-mastery shortcut.
	PurchaseXp() int

	// SessionXp returns the XP awarded for a completed study session.
	SessionXp() int

	// PrestigeForPurchase returns the prestige points awarded when a topic of
	// the given difficulty is purchased.
	PrestigeForPurchase(difficulty domain.Difficulty) int
}

// defaultService is the standard implementation of the Service interface.
type defaultService struct {
	params *Params
}

// NewDefaultService creates a progression service with default parameters.
func NewDefaultService() Service {
	return &defaultService{params: NewDefaultParams()}
}

// NewServiceWithParams creates a progression service with custom parameters.
func NewServiceWithParams(params *Params) Service {
	return &defaultService{params: params}
}

// CalculateTransition implements Service.CalculateTransition.
func (s *defaultService) CalculateTransition(
	priorMasteryCount, score int,
	now time.Time,
) (Transition, error) {
	if !domain.IsValidUnderstandingScore(score) {
		return Transition{}, ErrInvalidScore
	}
	return calculateTransition(priorMasteryCount, score, now, s.params), nil
}

// DeriveCost implements Service.DeriveCost.
func (s *defaultService) DeriveCost(
	difficulty domain.Difficulty,
	importance domain.Importance,
) (domain.GemCost, error) {
	return deriveCost(difficulty, importance, s.params)
}

// MasteryThreshold implements Service.MasteryThreshold.
func (s *defaultService) MasteryThreshold() int {
	return s.params.MasteryThreshold
}

// XpForTransition implements Service.XpForTransition.
func (s *defaultService) XpForTransition(toColumn domain.Column) int {
	if toColumn == domain.ColumnMastered {
		return s.params.MasteryXp
	}
	return s.params.ReviewXp
}

// PurchaseXp implements Service.PurchaseXp.
func (s *defaultService) PurchaseXp() int {
	return s.params.PurchaseXp
}

// SessionXp implements Service.SessionXp.
func (s *defaultService) SessionXp() int {
	return s.params.SessionXp
}

// PrestigeForPurchase implements Service.PrestigeForPurchase.
func (s *defaultService) PrestigeForPurchase(difficulty domain.Difficulty) int {
	award := s.params.PrestigeBase
	if difficulty == domain.DifficultyHigh {
		award += s.params.PrestigeHighDifficultyBonus
	}
	return award
}
