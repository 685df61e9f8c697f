package domain_test

import (
	"testing"

	"github.com/ascend-study/ascend-api/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReviewEntry(t *testing.T) {
	t.Parallel()

	topicID := uuid.New()

	t.Run("scored entry", func(t *testing.T) {
		t.Parallel()

		entry, err := domain.NewReviewEntry(
			topicID,
			domain.ColumnToday,
			domain.ColumnReviewing,
			4,
			"getting there",
		)
		require.NoError(t, err)
		require.NotNil(t, entry.UnderstandingScore)
		assert.Equal(t, 4, *entry.UnderstandingScore)
		assert.Equal(t, "getting there", entry.Note)
	})

	t.Run("rejects score out of range", func(t *testing.T) {
		t.Parallel()

		for _, score := range []int{0, 6, -1} {
			_, err := domain.NewReviewEntry(
				topicID,
				domain.ColumnToday,
				domain.ColumnReviewing,
				score,
				"",
			)
			assert.ErrorIs(t, err, domain.ErrInvalidUnderstandingScore)
		}
	})

	t.Run("rejects empty topic ID", func(t *testing.T) {
		t.Parallel()

		_, err := domain.NewReviewEntry(
			uuid.Nil,
			domain.ColumnToday,
			domain.ColumnReviewing,
			3,
			"",
		)
		assert.ErrorIs(t, err, domain.ErrEmptyReviewTopicID)
	})
}

func TestNewReschedulerEntry(t *testing.T) {
	t.Parallel()

	entry, err := domain.NewReschedulerEntry(uuid.New(), domain.ColumnReviewing)
	require.NoError(t, err)

	// Unscored is what distinguishes automatic resurfacing in the trail.
	assert.Nil(t, entry.UnderstandingScore)
	assert.Equal(t, domain.ColumnReviewing, entry.FromColumn)
	assert.Equal(t, domain.ColumnToday, entry.ToColumn)
}
