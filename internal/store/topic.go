package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ascend-study/ascend-api/internal/domain"
)

// TopicUpdate is a typed partial update for a topic. Only non-nil fields are
// written; ClearNextReview explicitly nulls the schedule, which a plain *time.Time
// cannot express. Validate before submitting.
type TopicUpdate struct {
	Column           *domain.Column
	MasteryCount     *int
	NextReviewAt     *time.Time
	ClearNextReview  bool
	Purchased        *bool
	PurchaseDiscount *domain.GemCost
}

// Common TopicUpdate validation errors.
var (
	ErrEmptyUpdate           = errors.New("topic update contains no fields")
	ErrConflictingNextReview = errors.New("topic update cannot both set and clear next review time")
)

// Validate checks the update for internal consistency.
func (u TopicUpdate) Validate() error {
	if u.Column == nil && u.MasteryCount == nil && u.NextReviewAt == nil &&
		!u.ClearNextReview && u.Purchased == nil && u.PurchaseDiscount == nil {
		return ErrEmptyUpdate
	}
	if u.NextReviewAt != nil && u.ClearNextReview {
		return ErrConflictingNextReview
	}
	if u.Column != nil && !domain.IsValidColumn(*u.Column) {
		return fmt.Errorf("%w: %q", domain.ErrInvalidColumn, *u.Column)
	}
	if u.MasteryCount != nil && *u.MasteryCount < 0 {
		return domain.ErrNegativeMastery
	}
	if u.PurchaseDiscount != nil {
		if err := u.PurchaseDiscount.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// UnitMastery is the per-unit progress projection: how many of the unit's
// topics are mastered.
type UnitMastery struct {
	UnitID        uuid.UUID `json:"unit_id"`
	MasteredCount int       `json:"mastered_count"`
	TotalCount    int       `json:"total_count"`
}

// TopicStore defines the interface for topic persistence.
type TopicStore interface {
	// Create saves a new topic. It handles domain validation internally.
	Create(ctx context.Context, topic *domain.Topic) error

	// GetByID retrieves a topic by its unique ID.
	// Returns ErrTopicNotFound if the topic does not exist.
	// NOTE: This method does NOT provide any row locking, so it should not be
	// used when you plan to update the row and need concurrency protection.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Topic, error)

	// GetForUpdate retrieves a topic with a row-level lock using
	// SELECT FOR UPDATE. Use inside the transaction that will update the row
	// so a concurrent sweep and a concurrent scored review serialize.
	// Returns ErrTopicNotFound if the topic does not exist.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Topic, error)

	// Update applies a typed partial update to the topic.
	// Returns ErrTopicNotFound if the topic does not exist.
	Update(ctx context.Context, id uuid.UUID, update TopicUpdate) error

	// ListDueForReview returns the IDs of topics in the reviewing column whose
	// scheduled review time is at or before now, oldest first.
	ListDueForReview(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error)

	// CountMasteredPurchasedBySubject counts the user's topics in the subject
	// that are both mastered and purchased. This is the discount base.
	CountMasteredPurchasedBySubject(
		ctx context.Context,
		userID, subjectID uuid.UUID,
	) (int, error)

	// UnitProgress returns mastered/total counts per unit for the user.
	UnitProgress(ctx context.Context, userID uuid.UUID) ([]UnitMastery, error)

	// WithTx returns a new TopicStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) TopicStore
}
