package stats

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ascend-study/ascend-api/internal/domain"
	"github.com/ascend-study/ascend-api/internal/store"
	"github.com/google/uuid"
)

// StatsService maintains the per-user XP ledger and study streak.
//
// XP is append-only: every grant increments the running total and writes an
// xp_log row in the same transaction, so the total is always reconstructible
// from the log.
type StatsService interface {
	// GrantXp atomically adds amount XP to the user's total and appends an
	// xp_log entry, running in its own transaction.
	//
	// Returns:
	//   - (*domain.UserStats, nil): The updated stats row
	//   - (nil, ErrInvalidXpAmount): If amount is not positive
	//   - (nil, error): Any other error from the store layer
	GrantXp(
		ctx context.Context,
		userID uuid.UUID,
		amount int,
		reason string,
		referenceID *uuid.UUID,
	) (*domain.UserStats, error)

	// GrantXpInTx is the same operation scoped to a caller-managed
	// transaction; statsStore must already be bound to that transaction
	// via WithTx. Callers that grant XP as part of a larger atomic
	// operation (review submission, purchase) use this variant.
	GrantXpInTx(
		ctx context.Context,
		statsStore store.StatsStore,
		userID uuid.UUID,
		amount int,
		reason string,
		referenceID *uuid.UUID,
	) (*domain.UserStats, error)

	// AddPrestigeInTx adds prestige points to the user's stats row inside a
	// caller-managed transaction. Prestige has no separate audit log; the gem
	// ledger rows of the purchase that awarded it serve as the trail.
	AddPrestigeInTx(
		ctx context.Context,
		statsStore store.StatsStore,
		userID uuid.UUID,
		points int,
	) (*domain.UserStats, error)

	// TouchStreak records study activity for the given instant and updates
	// the streak counters:
	//   - same UTC day as the last recorded activity: no-op
	//   - the day immediately after: current streak + 1
	//   - any longer gap (or first activity ever): streak resets to 1
	//
	// LongestStreak is raised whenever the current streak passes it.
	TouchStreak(ctx context.Context, userID uuid.UUID, at time.Time) (*domain.UserStats, error)

	// TouchStreakInTx is TouchStreak scoped to a caller-managed transaction.
	TouchStreakInTx(
		ctx context.Context,
		statsStore store.StatsStore,
		userID uuid.UUID,
		at time.Time,
	) (*domain.UserStats, error)

	// Get returns the user's stats row, creating a zeroed one on first access.
	Get(ctx context.Context, userID uuid.UUID) (*domain.UserStats, error)
}

// Common error types for StatsService
var (
	// ErrInvalidXpAmount indicates a non-positive XP grant.
	ErrInvalidXpAmount = errors.New("xp amount must be positive")

	// ErrInvalidPrestigeAmount indicates a non-positive prestige grant.
	ErrInvalidPrestigeAmount = errors.New("prestige amount must be positive")
)

// ServiceError wraps errors from the stats service with the operation that
// failed, so callers can log a stable operation name alongside the cause.
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
