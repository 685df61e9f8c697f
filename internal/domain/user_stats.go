package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for UserStats and XpLogEntry.
var (
	ErrEmptyStatsUserID = errors.New("user stats user ID cannot be empty")
	ErrNegativeXp       = errors.New("XP amount cannot be negative")
	ErrEmptyXpReason    = errors.New("XP log reason cannot be empty")
	ErrNegativeStreak   = errors.New("streak cannot be negative")
)

// XP grant reason strings written to the XP log.
const (
	XpReasonReview           = "topic_reviewed"
	XpReasonMastered         = "topic_mastered"
	XpReasonPurchase         = "card_purchased"
	XpReasonSessionCompleted = "session_completed"
)

// UserStats is the per-user progression record: accumulated XP, the daily
// streak pair, and prestige points earned through purchases.
type UserStats struct {
	UserID         uuid.UUID  `json:"user_id"`
	TotalXp        int        `json:"total_xp"`
	CurrentStreak  int        `json:"current_streak"`
	LongestStreak  int        `json:"longest_streak"`
	LastStudyDate  *time.Time `json:"last_study_date,omitempty"` // date precision, UTC
	PrestigePoints int        `json:"prestige_points"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// NewUserStats creates an empty stats record for the given user.
func NewUserStats(userID uuid.UUID) (*UserStats, error) {
	if userID == uuid.Nil {
		return nil, ErrEmptyStatsUserID
	}
	now := time.Now().UTC()
	return &UserStats{
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Validate checks if the UserStats has valid data.
func (s *UserStats) Validate() error {
	if s.UserID == uuid.Nil {
		return ErrEmptyStatsUserID
	}
	if s.TotalXp < 0 {
		return ErrNegativeXp
	}
	if s.CurrentStreak < 0 || s.LongestStreak < 0 {
		return ErrNegativeStreak
	}
	return nil
}

// XpLogEntry is one append-only audit row recording a single XP grant.
type XpLogEntry struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	Amount      int        `json:"amount"`
	Reason      string     `json:"reason"`
	ReferenceID *uuid.UUID `json:"reference_id,omitempty"` // topic or session that earned it
	CreatedAt   time.Time  `json:"created_at"`
}

// NewXpLogEntry creates an XP audit row. Amount must be non-negative.
func NewXpLogEntry(
	userID uuid.UUID,
	amount int,
	reason string,
	referenceID *uuid.UUID,
) (*XpLogEntry, error) {
	entry := &XpLogEntry{
		ID:          uuid.New(),
		UserID:      userID,
		Amount:      amount,
		Reason:      reason,
		ReferenceID: referenceID,
		CreatedAt:   time.Now().UTC(),
	}
	if err := entry.Validate(); err != nil {
		return nil, err
	}
	return entry, nil
}

// Validate checks if the XpLogEntry has valid data.
func (e *XpLogEntry) Validate() error {
	if e.UserID == uuid.Nil {
		return ErrEmptyStatsUserID
	}
	if e.Amount < 0 {
		return ErrNegativeXp
	}
	if e.Reason == "" {
		return ErrEmptyXpReason
	}
	return nil
}

// SameStudyDay reports whether two timestamps fall on the same UTC calendar day.
func SameStudyDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// IsPreviousStudyDay reports whether prev falls on the UTC calendar day
// immediately before next.
func IsPreviousStudyDay(prev, next time.Time) bool {
	return SameStudyDay(prev.UTC().AddDate(0, 0, 1), next)
}
