package domain_test

import (
	"testing"
	"time"

	"github.com/ascend-study/ascend-api/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSameStudyDay(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 3, 14, 23, 50, 0, 0, time.UTC)

	assert.True(t, domain.SameStudyDay(base, base.Add(5*time.Minute)))
	assert.False(t, domain.SameStudyDay(base, base.Add(15*time.Minute)))

	// Comparison is on the UTC calendar day, not the local one.
	loc := time.FixedZone("UTC+5", 5*60*60)
	assert.True(t, domain.SameStudyDay(base, base.In(loc)))
}

func TestIsPreviousStudyDay(t *testing.T) {
	t.Parallel()

	day := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	assert.True(t, domain.IsPreviousStudyDay(day, day.AddDate(0, 0, 1)))
	assert.True(t, domain.IsPreviousStudyDay(day, day.Add(20*time.Hour)))
	assert.False(t, domain.IsPreviousStudyDay(day, day))
	assert.False(t, domain.IsPreviousStudyDay(day, day.AddDate(0, 0, 2)))
}

func TestNewXpLogEntry(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	topicID := uuid.New()

	t.Run("valid entry", func(t *testing.T) {
		t.Parallel()

		entry, err := domain.NewXpLogEntry(userID, 10, domain.XpReasonReview, &topicID)
		require.NoError(t, err)
		assert.Equal(t, 10, entry.Amount)
		assert.Equal(t, &topicID, entry.ReferenceID)
	})

	t.Run("rejects negative amount", func(t *testing.T) {
		t.Parallel()

		_, err := domain.NewXpLogEntry(userID, -5, domain.XpReasonReview, nil)
		assert.ErrorIs(t, err, domain.ErrNegativeXp)
	})

	t.Run("rejects empty reason", func(t *testing.T) {
		t.Parallel()

		_, err := domain.NewXpLogEntry(userID, 10, "", nil)
		assert.ErrorIs(t, err, domain.ErrEmptyXpReason)
	})
}

func TestUserStatsValidate(t *testing.T) {
	t.Parallel()

	stats, err := domain.NewUserStats(uuid.New())
	require.NoError(t, err)
	assert.NoError(t, stats.Validate())

	stats.CurrentStreak = -1
	assert.ErrorIs(t, stats.Validate(), domain.ErrNegativeStreak)
}
