package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Understanding score bounds for a scored review.
const (
	MinUnderstandingScore = 1
	MaxUnderstandingScore = 5
)

// Common validation errors for ReviewEntry.
var (
	ErrEmptyReviewTopicID        = errors.New("review entry topic ID cannot be empty")
	ErrInvalidUnderstandingScore = errors.New("understanding score must be between 1 and 5")
)

// ReviewEntry is one row of the append-only audit trail of topic transitions.
// Scored reviews carry an UnderstandingScore; transitions produced by the
// overdue rescheduler carry none, which is how automatic resurfacing is told
// apart from a real review.
type ReviewEntry struct {
	ID                 uuid.UUID `json:"id"`
	TopicID            uuid.UUID `json:"topic_id"`
	ReviewedAt         time.Time `json:"reviewed_at"`
	FromColumn         Column    `json:"from_column"`
	ToColumn           Column    `json:"to_column"`
	UnderstandingScore *int      `json:"understanding_score,omitempty"`
	Note               string    `json:"note,omitempty"`
}

// NewReviewEntry creates an audit row for a scored review.
func NewReviewEntry(
	topicID uuid.UUID,
	fromColumn, toColumn Column,
	score int,
	note string,
) (*ReviewEntry, error) {
	entry := &ReviewEntry{
		ID:                 uuid.New(),
		TopicID:            topicID,
		ReviewedAt:         time.Now().UTC(),
		FromColumn:         fromColumn,
		ToColumn:           toColumn,
		UnderstandingScore: &score,
		Note:               note,
	}
	if err := entry.Validate(); err != nil {
		return nil, err
	}
	return entry, nil
}

// NewReschedulerEntry creates an audit row for an automatic resurfacing.
// It carries no understanding score.
func NewReschedulerEntry(topicID uuid.UUID, fromColumn Column) (*ReviewEntry, error) {
	entry := &ReviewEntry{
		ID:         uuid.New(),
		TopicID:    topicID,
		ReviewedAt: time.Now().UTC(),
		FromColumn: fromColumn,
		ToColumn:   ColumnToday,
	}
	if err := entry.Validate(); err != nil {
		return nil, err
	}
	return entry, nil
}

// Validate checks if the ReviewEntry has valid data.
func (e *ReviewEntry) Validate() error {
	if e.TopicID == uuid.Nil {
		return ErrEmptyReviewTopicID
	}
	if !IsValidColumn(e.FromColumn) {
		return fmt.Errorf("%w: from column %q", ErrInvalidColumn, e.FromColumn)
	}
	if !IsValidColumn(e.ToColumn) {
		return fmt.Errorf("%w: to column %q", ErrInvalidColumn, e.ToColumn)
	}
	if e.UnderstandingScore != nil {
		if !IsValidUnderstandingScore(*e.UnderstandingScore) {
			return fmt.Errorf("%w: got %d", ErrInvalidUnderstandingScore, *e.UnderstandingScore)
		}
	}
	return nil
}

// IsValidUnderstandingScore reports whether the score is within 1..5.
func IsValidUnderstandingScore(score int) bool {
	return score >= MinUnderstandingScore && score <= MaxUnderstandingScore
}
