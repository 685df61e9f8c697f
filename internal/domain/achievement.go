package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for Achievement.
var (
	ErrEmptyAchievementUserID = errors.New("achievement user ID cannot be empty")
	ErrEmptyAchievementKey    = errors.New("achievement key cannot be empty")
)

// Achievement records that a user unlocked a named achievement. Rows are
// created exactly once per (user, key) pair, guarded by a database uniqueness
// constraint, and are never deleted.
type Achievement struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	Key        string    `json:"key"`
	UnlockedAt time.Time `json:"unlocked_at"`
}

// NewAchievement creates an unlock record for the given user and key.
func NewAchievement(userID uuid.UUID, key string) (*Achievement, error) {
	a := &Achievement{
		ID:         uuid.New(),
		UserID:     userID,
		Key:        key,
		UnlockedAt: time.Now().UTC(),
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// Validate checks if the Achievement has valid data.
func (a *Achievement) Validate() error {
	if a.UserID == uuid.Nil {
		return ErrEmptyAchievementUserID
	}
	if a.Key == "" {
		return ErrEmptyAchievementKey
	}
	return nil
}
