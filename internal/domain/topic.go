package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Difficulty rates how hard a topic is to master.
type Difficulty string

// Possible difficulty values
const (
	DifficultyHigh   Difficulty = "high"
	DifficultyMedium Difficulty = "medium"
	DifficultyLow    Difficulty = "low"
)

// Importance rates how central a topic is to its unit.
type Importance string

// Possible importance values
const (
	ImportanceHigh   Importance = "high"
	ImportanceMedium Importance = "medium"
	ImportanceLow    Importance = "low"
)

// Column is the topic's current stage in the review pipeline.
type Column string

// Possible column values. Mastered is terminal unless a purchase overrides it
// earlier in the pipeline.
const (
	ColumnBacklog   Column = "backlog"
	ColumnToday     Column = "today"
	ColumnReviewing Column = "reviewing"
	ColumnMastered  Column = "mastered"
)

// MasteryThreshold is the consecutive perfect-score streak that promotes a
// topic to mastered.
const MasteryThreshold = 3

// Common validation errors for Topic.
var (
	ErrEmptyTopicID        = errors.New("topic ID cannot be empty")
	ErrEmptyTopicUserID    = errors.New("topic user ID cannot be empty")
	ErrEmptyTopicSubjectID = errors.New("topic subject ID cannot be empty")
	ErrEmptyTopicUnitID    = errors.New("topic unit ID cannot be empty")
	ErrInvalidDifficulty   = errors.New("invalid topic difficulty")
	ErrInvalidImportance   = errors.New("invalid topic importance")
	ErrInvalidColumn       = errors.New("invalid topic column")
	ErrNegativeMastery     = errors.New("topic mastery count cannot be negative")
	ErrReviewScheduleState = errors.New("next review time must be set exactly when column is reviewing")
)

// Topic is one study topic moving through the review pipeline. The scheduling
// invariant is strict: NextReviewAt is non-nil iff Column is reviewing.
type Topic struct {
	ID               uuid.UUID  `json:"id"`
	UserID           uuid.UUID  `json:"user_id"`
	SubjectID        uuid.UUID  `json:"subject_id"`
	UnitID           uuid.UUID  `json:"unit_id"`
	Title            string     `json:"title"`
	Difficulty       Difficulty `json:"difficulty"`
	Importance       Importance `json:"importance"`
	Column           Column     `json:"column"`
	MasteryCount     int        `json:"mastery_count"`
	NextReviewAt     *time.Time `json:"next_review_at,omitempty"`
	GemCost          GemCost    `json:"gem_cost"`
	Purchased        bool       `json:"purchased"`
	PurchaseDiscount GemCost    `json:"purchase_discount"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// NewTopic creates a topic in the backlog column with the given base cost.
// Topics are created by the content-assignment flow; the engine only mutates
// them afterwards.
func NewTopic(
	userID, subjectID, unitID uuid.UUID,
	title string,
	difficulty Difficulty,
	importance Importance,
	gemCost GemCost,
) (*Topic, error) {
	now := time.Now().UTC()
	topic := &Topic{
		ID:           uuid.New(),
		UserID:       userID,
		SubjectID:    subjectID,
		UnitID:       unitID,
		Title:        title,
		Difficulty:   difficulty,
		Importance:   importance,
		Column:       ColumnBacklog,
		MasteryCount: 0,
		NextReviewAt: nil,
		GemCost:      gemCost,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := topic.Validate(); err != nil {
		return nil, err
	}

	return topic, nil
}

// Validate checks if the Topic has valid data and satisfies the pipeline
// invariants. Returns an error describing the first violation found.
func (t *Topic) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyTopicID
	}
	if t.UserID == uuid.Nil {
		return ErrEmptyTopicUserID
	}
	if t.SubjectID == uuid.Nil {
		return ErrEmptyTopicSubjectID
	}
	if t.UnitID == uuid.Nil {
		return ErrEmptyTopicUnitID
	}
	if !IsValidDifficulty(t.Difficulty) {
		return fmt.Errorf("%w: %q", ErrInvalidDifficulty, t.Difficulty)
	}
	if !IsValidImportance(t.Importance) {
		return fmt.Errorf("%w: %q", ErrInvalidImportance, t.Importance)
	}
	if !IsValidColumn(t.Column) {
		return fmt.Errorf("%w: %q", ErrInvalidColumn, t.Column)
	}
	if t.MasteryCount < 0 {
		return ErrNegativeMastery
	}
	if err := t.GemCost.Validate(); err != nil {
		return fmt.Errorf("topic gem cost: %w", err)
	}
	if err := t.PurchaseDiscount.Validate(); err != nil {
		return fmt.Errorf("topic purchase discount: %w", err)
	}

	// NextReviewAt is non-nil iff the topic is in the reviewing column.
	if (t.Column == ColumnReviewing) != (t.NextReviewAt != nil) {
		return ErrReviewScheduleState
	}

	return nil
}

// IsMasterable reports whether the topic may still be purchased to mastery.
func (t *Topic) IsMasterable() bool {
	return !t.Purchased && t.Column != ColumnMastered
}

// IsValidDifficulty reports whether the value is a known difficulty.
func IsValidDifficulty(d Difficulty) bool {
	switch d {
	case DifficultyHigh, DifficultyMedium, DifficultyLow:
		return true
	default:
		return false
	}
}

// IsValidImportance reports whether the value is a known importance.
func IsValidImportance(i Importance) bool {
	switch i {
	case ImportanceHigh, ImportanceMedium, ImportanceLow:
		return true
	default:
		return false
	}
}

// IsValidColumn reports whether the value is a known column.
func IsValidColumn(c Column) bool {
	switch c {
	case ColumnBacklog, ColumnToday, ColumnReviewing, ColumnMastered:
		return true
	default:
		return false
	}
}
