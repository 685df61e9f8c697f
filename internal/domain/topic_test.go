package domain_test

import (
	"testing"
	"time"

	"github.com/ascend-study/ascend-api/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTopic(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	subjectID := uuid.New()
	unitID := uuid.New()

	t.Run("creates backlog topic with frozen cost", func(t *testing.T) {
		t.Parallel()

		cost := domain.GemCost{3, 1, 0, 0}
		topic, err := domain.NewTopic(
			userID, subjectID, unitID,
			"Binary search trees",
			domain.DifficultyMedium,
			domain.ImportanceHigh,
			cost,
		)
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, topic.ID)
		assert.Equal(t, domain.ColumnBacklog, topic.Column)
		assert.Equal(t, 0, topic.MasteryCount)
		assert.Nil(t, topic.NextReviewAt)
		assert.Equal(t, cost, topic.GemCost)
		assert.False(t, topic.Purchased)
	})

	t.Run("rejects empty user ID", func(t *testing.T) {
		t.Parallel()

		_, err := domain.NewTopic(
			uuid.Nil, subjectID, unitID,
			"Title",
			domain.DifficultyLow,
			domain.ImportanceLow,
			domain.ZeroGemCost,
		)
		assert.ErrorIs(t, err, domain.ErrEmptyTopicUserID)
	})

	t.Run("rejects unknown difficulty", func(t *testing.T) {
		t.Parallel()

		_, err := domain.NewTopic(
			userID, subjectID, unitID,
			"Title",
			domain.Difficulty("extreme"),
			domain.ImportanceLow,
			domain.ZeroGemCost,
		)
		assert.ErrorIs(t, err, domain.ErrInvalidDifficulty)
	})

	t.Run("rejects unknown importance", func(t *testing.T) {
		t.Parallel()

		_, err := domain.NewTopic(
			userID, subjectID, unitID,
			"Title",
			domain.DifficultyLow,
			domain.Importance("critical"),
			domain.ZeroGemCost,
		)
		assert.ErrorIs(t, err, domain.ErrInvalidImportance)
	})

	t.Run("rejects negative gem cost", func(t *testing.T) {
		t.Parallel()

		_, err := domain.NewTopic(
			userID, subjectID, unitID,
			"Title",
			domain.DifficultyLow,
			domain.ImportanceLow,
			domain.GemCost{-1, 0, 0, 0},
		)
		assert.ErrorIs(t, err, domain.ErrNegativeGemAmount)
	})
}

func TestTopicValidate_ReviewScheduleInvariant(t *testing.T) {
	t.Parallel()

	newValid := func() *domain.Topic {
		topic, err := domain.NewTopic(
			uuid.New(), uuid.New(), uuid.New(),
			"Title",
			domain.DifficultyLow,
			domain.ImportanceLow,
			domain.ZeroGemCost,
		)
		require.NoError(t, err)
		return topic
	}

	t.Run("reviewing requires a schedule", func(t *testing.T) {
		t.Parallel()

		topic := newValid()
		topic.Column = domain.ColumnReviewing
		topic.NextReviewAt = nil
		assert.ErrorIs(t, topic.Validate(), domain.ErrReviewScheduleState)
	})

	t.Run("schedule requires reviewing", func(t *testing.T) {
		t.Parallel()

		topic := newValid()
		next := time.Now().UTC().Add(24 * time.Hour)
		topic.Column = domain.ColumnToday
		topic.NextReviewAt = &next
		assert.ErrorIs(t, topic.Validate(), domain.ErrReviewScheduleState)
	})

	t.Run("reviewing with schedule is valid", func(t *testing.T) {
		t.Parallel()

		topic := newValid()
		next := time.Now().UTC().Add(24 * time.Hour)
		topic.Column = domain.ColumnReviewing
		topic.NextReviewAt = &next
		assert.NoError(t, topic.Validate())
	})
}

func TestTopicIsMasterable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		column    domain.Column
		purchased bool
		want      bool
	}{
		{"backlog topic", domain.ColumnBacklog, false, true},
		{"today topic", domain.ColumnToday, false, true},
		{"reviewing topic", domain.ColumnReviewing, false, true},
		{"mastered topic", domain.ColumnMastered, false, false},
		{"purchased topic", domain.ColumnMastered, true, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			topic := &domain.Topic{Column: tc.column, Purchased: tc.purchased}
			assert.Equal(t, tc.want, topic.IsMasterable())
		})
	}
}
