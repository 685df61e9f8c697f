package economy

import (
	"context"
	"errors"
	"fmt"

	"github.com/ascend-study/ascend-api/internal/domain"
	"github.com/google/uuid"
)

// CostBreakdown is the priced view of a topic: its frozen base cost, the
// caller's current subject discount, and the effective cost after applying it.
type CostBreakdown struct {
	BaseCost      domain.GemCost `json:"base_cost"`
	Discount      domain.GemCost `json:"discount"`
	EffectiveCost domain.GemCost `json:"effective_cost"`
}

// PurchaseOutcome reports what a purchase-to-mastery debit changed.
type PurchaseOutcome struct {
	Topic           *domain.Topic     `json:"topic"`
	EffectiveCost   domain.GemCost    `json:"effective_cost"`
	Wallet          *domain.GemWallet `json:"wallet"`
	XpAwarded       int               `json:"xp_awarded"`
	PrestigeAwarded int               `json:"prestige_awarded"`
}

// EconomyService owns the gem wallet, the transaction ledger, and the
// purchase-to-mastery shortcut.
//
// The discount rule: a user's count of mastered-and-purchased topics within
// the topic's subject is subtracted, in full, from the first gem kind in
// canonical order (sapphire). Per-slot amounts floor at zero.
type EconomyService interface {
	// GetEffectiveCost prices a topic for the user without modifying anything.
	//
	// Returns:
	//   - (*CostBreakdown, nil): The pricing breakdown
	//   - (nil, ErrTopicNotFound / ErrTopicNotOwned): Lookup failures
	GetEffectiveCost(ctx context.Context, userID, topicID uuid.UUID) (*CostBreakdown, error)

	// Purchase buys a topic straight to mastery. Within one transaction it:
	//  1. Locks the topic, verifies ownership and that it is still purchasable
	//  2. Recomputes the discount and effective cost under the lock
	//  3. Locks the wallet and re-checks the balance covers the cost
	//  4. Debits the wallet and appends one ledger row per non-zero gem kind
	//  5. Promotes the topic to mastered with the discount snapshot frozen on it
	//  6. Awards prestige points and purchase XP
	//
	// Returns:
	//   - (*PurchaseOutcome, nil): What changed
	//   - (nil, ErrTopicNotFound / ErrTopicNotOwned): Lookup failures
	//   - (nil, ErrAlreadyMastered): Topic already mastered or purchased
	//   - (nil, ErrInsufficientGems): Wallet cannot cover the effective cost
	Purchase(ctx context.Context, userID, topicID uuid.UUID) (*PurchaseOutcome, error)

	// Earn credits the user's wallet. This is the entry point external reward
	// flows (quests, daily bonuses) call; the engine itself never mints gems.
	// Amount must be positive; the balance update and the ledger row are
	// written in one transaction.
	//
	// Returns:
	//   - (*domain.GemWallet, nil): The updated wallet
	//   - (nil, ErrInvalidGemAmount): Non-positive amount
	//   - (nil, ErrUnknownGemKind): Unrecognized gem kind
	Earn(
		ctx context.Context,
		userID uuid.UUID,
		kind domain.GemKind,
		amount int,
		reason string,
		referenceID *uuid.UUID,
	) (*domain.GemWallet, error)

	// GetWallet returns the user's wallet, creating an empty one on first
	// access.
	GetWallet(ctx context.Context, userID uuid.UUID) (*domain.GemWallet, error)

	// ListTransactions returns a page of the user's gem ledger, newest first,
	// with the total row count.
	ListTransactions(
		ctx context.Context,
		userID uuid.UUID,
		limit, offset int,
	) ([]*domain.GemTransaction, int, error)
}

// Common error types for EconomyService
var (
	// ErrTopicNotFound indicates that the topic does not exist.
	ErrTopicNotFound = errors.New("topic not found")

	// ErrTopicNotOwned indicates that the user does not own the topic.
	ErrTopicNotOwned = errors.New("unauthorized access: topic not owned by user")

	// ErrAlreadyMastered indicates the topic cannot be purchased because it is
	// already mastered or was already purchased.
	ErrAlreadyMastered = errors.New("topic is already mastered")

	// ErrInsufficientGems indicates the wallet cannot cover the effective cost.
	ErrInsufficientGems = errors.New("insufficient gem balance")

	// ErrInvalidGemAmount indicates a non-positive earn amount.
	ErrInvalidGemAmount = errors.New("gem amount must be positive")

	// ErrUnknownGemKind indicates an unrecognized gem kind.
	ErrUnknownGemKind = errors.New("unknown gem kind")
)

// ServiceError wraps errors from the economy service with additional context.
type ServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}
