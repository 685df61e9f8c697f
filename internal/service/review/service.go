package review

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ascend-study/ascend-api/internal/domain"
	"github.com/ascend-study/ascend-api/internal/store"
	"github.com/google/uuid"
)

// ReviewOutcome is the result of a scored review: where the topic landed and
// what the attempt earned.
type ReviewOutcome struct {
	Topic     *domain.Topic `json:"topic"`
	XpAwarded int           `json:"xp_awarded"`
	Mastered  bool          `json:"mastered"`
}

// ReviewService drives topics through the pipeline: intake, assignment to the
// today column, scored reviews, overdue resurfacing, and progress projections.
type ReviewService interface {
	// CreateTopic registers a new topic in the backlog column. The gem cost is
	// derived from the difficulty/importance cost table at intake and frozen
	// onto the topic.
	//
	// Returns:
	//   - (*domain.Topic, nil): The created topic
	//   - (nil, error): Validation or store errors
	CreateTopic(
		ctx context.Context,
		userID, subjectID, unitID uuid.UUID,
		title string,
		difficulty domain.Difficulty,
		importance domain.Importance,
	) (*domain.Topic, error)

	// AssignToToday moves a backlog topic into the today column.
	//
	// Returns:
	//   - (*domain.Topic, nil): The updated topic
	//   - (nil, ErrTopicNotFound): If the topic does not exist
	//   - (nil, ErrTopicNotOwned): If the user does not own the topic
	//   - (nil, ErrInvalidTransition): If the topic is not in the backlog
	AssignToToday(ctx context.Context, userID, topicID uuid.UUID) (*domain.Topic, error)

	// SubmitReview records a scored review for a topic currently in the today
	// or reviewing column. Within a single transaction it:
	//  1. Locks the topic row and verifies ownership and the expected column
	//  2. Applies the progression rules (mastery streak, scheduling, promotion)
	//  3. Appends the review audit entry
	//  4. Grants review or mastery XP
	//
	// Streak bookkeeping is deliberately not tied to individual reviews; it
	// runs once per study session via the stats service.
	//
	// fromColumn is the column the caller believes the topic is in; a mismatch
	// (for example the sweeper moved it first) fails with ErrStaleColumn so
	// the client can refresh.
	//
	// Returns:
	//   - (*ReviewOutcome, nil): The transition outcome
	//   - (nil, ErrTopicNotFound / ErrTopicNotOwned): Lookup failures
	//   - (nil, ErrInvalidScore): Score outside 1..5
	//   - (nil, ErrInvalidTransition): Topic not in a reviewable column
	//   - (nil, ErrStaleColumn): fromColumn no longer matches
	SubmitReview(
		ctx context.Context,
		userID, topicID uuid.UUID,
		fromColumn domain.Column,
		score int,
		note string,
	) (*ReviewOutcome, error)

	// ResurfaceOverdue moves a single overdue reviewing topic back to today,
	// appending an unscored audit entry, in its own transaction. It returns
	// false without error when the topic turns out not to be overdue anymore
	// (a concurrent review moved it first).
	ResurfaceOverdue(ctx context.Context, topicID uuid.UUID, now time.Time) (bool, error)

	// SweepOverdue resurfaces every reviewing topic whose scheduled time has
	// passed, one short transaction per topic so a large backlog never holds
	// a long-lived lock. Honors ctx cancellation between topics. Returns the
	// number of topics moved.
	SweepOverdue(ctx context.Context, now time.Time) (int, error)

	// ListReviews returns a page of the topic's audit trail, newest first,
	// with the total entry count.
	ListReviews(
		ctx context.Context,
		userID, topicID uuid.UUID,
		limit, offset int,
	) ([]*domain.ReviewEntry, int, error)

	// UnitProgress returns mastered/total topic counts per unit for the user.
	UnitProgress(ctx context.Context, userID uuid.UUID) ([]store.UnitMastery, error)
}

// Common error types for ReviewService
var (
	// ErrTopicNotFound indicates that the topic does not exist.
	ErrTopicNotFound = errors.New("topic not found")

	// ErrTopicNotOwned indicates that the user does not own the topic.
	ErrTopicNotOwned = errors.New("unauthorized access: topic not owned by user")

	// ErrInvalidScore indicates an understanding score outside 1..5.
	ErrInvalidScore = errors.New("understanding score must be between 1 and 5")

	// ErrInvalidTransition indicates the topic's column does not allow the
	// requested operation.
	ErrInvalidTransition = errors.New("topic column does not allow this transition")

	// ErrStaleColumn indicates the caller's view of the topic's column is out
	// of date.
	ErrStaleColumn = errors.New("topic moved since it was loaded")
)

// ServiceError wraps errors from the review service with additional context,
// so consumers can differentiate failures with errors.As instead of string
// matching.
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
