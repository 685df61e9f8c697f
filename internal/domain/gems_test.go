package domain_test

import (
	"testing"

	"github.com/ascend-study/ascend-api/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGemCostSubFloorZero(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		cost     domain.GemCost
		discount domain.GemCost
		want     domain.GemCost
	}{
		{
			name:     "zero discount leaves cost unchanged",
			cost:     domain.GemCost{3, 1, 0, 0},
			discount: domain.ZeroGemCost,
			want:     domain.GemCost{3, 1, 0, 0},
		},
		{
			name:     "partial discount subtracts per slot",
			cost:     domain.GemCost{3, 2, 1, 0},
			discount: domain.GemCost{1, 1, 0, 0},
			want:     domain.GemCost{2, 1, 1, 0},
		},
		{
			name:     "discount larger than cost floors at zero",
			cost:     domain.GemCost{2, 0, 0, 0},
			discount: domain.GemCost{5, 0, 0, 0},
			want:     domain.ZeroGemCost,
		},
		{
			name:     "floor applies per slot not in aggregate",
			cost:     domain.GemCost{1, 3, 0, 0},
			discount: domain.GemCost{4, 1, 0, 0},
			want:     domain.GemCost{0, 2, 0, 0},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, tc.cost.SubFloorZero(tc.discount))
		})
	}
}

func TestGemCostAdd(t *testing.T) {
	t.Parallel()

	a := domain.GemCost{1, 2, 0, 0}
	b := domain.GemCost{3, 0, 1, 0}
	assert.Equal(t, domain.GemCost{4, 2, 1, 0}, a.Add(b))
}

func TestGemKindIndex(t *testing.T) {
	t.Parallel()

	t.Run("canonical order", func(t *testing.T) {
		t.Parallel()

		for i, kind := range domain.GemKinds {
			idx, err := domain.GemKindIndex(kind)
			require.NoError(t, err)
			assert.Equal(t, i, idx)
		}
	})

	t.Run("sapphire is the discount slot", func(t *testing.T) {
		t.Parallel()

		idx, err := domain.GemKindIndex(domain.GemSapphire)
		require.NoError(t, err)
		assert.Equal(t, 0, idx)
	})

	t.Run("unknown kind", func(t *testing.T) {
		t.Parallel()

		_, err := domain.GemKindIndex(domain.GemKind("opal"))
		assert.ErrorIs(t, err, domain.ErrUnknownGemKind)
	})
}

func TestGemWalletCovers(t *testing.T) {
	t.Parallel()

	wallet := &domain.GemWallet{
		UserID:   uuid.New(),
		Balances: domain.GemCost{5, 2, 0, 0},
	}

	assert.True(t, wallet.Covers(domain.GemCost{5, 2, 0, 0}))
	assert.True(t, wallet.Covers(domain.GemCost{1, 0, 0, 0}))
	assert.True(t, wallet.Covers(domain.ZeroGemCost))
	assert.False(t, wallet.Covers(domain.GemCost{6, 0, 0, 0}))
	assert.False(t, wallet.Covers(domain.GemCost{0, 0, 1, 0}))
}

func TestNewGemWallet(t *testing.T) {
	t.Parallel()

	t.Run("starts empty", func(t *testing.T) {
		t.Parallel()

		wallet, err := domain.NewGemWallet(uuid.New())
		require.NoError(t, err)
		assert.True(t, wallet.Balances.IsZero())
	})

	t.Run("rejects empty user ID", func(t *testing.T) {
		t.Parallel()

		_, err := domain.NewGemWallet(uuid.Nil)
		assert.ErrorIs(t, err, domain.ErrEmptyWalletUserID)
	})
}

func TestNewGemTransaction(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	topicID := uuid.New()

	t.Run("negative amount records a spend", func(t *testing.T) {
		t.Parallel()

		txn, err := domain.NewGemTransaction(
			userID,
			domain.GemSapphire,
			-3,
			domain.GemReasonPurchase,
			&topicID,
		)
		require.NoError(t, err)
		assert.Equal(t, -3, txn.Amount)
		assert.Equal(t, &topicID, txn.ReferenceID)
	})

	t.Run("rejects zero amount", func(t *testing.T) {
		t.Parallel()

		_, err := domain.NewGemTransaction(userID, domain.GemRuby, 0, "quest_reward", nil)
		assert.ErrorIs(t, err, domain.ErrZeroTransactionAmount)
	})

	t.Run("rejects unknown kind", func(t *testing.T) {
		t.Parallel()

		_, err := domain.NewGemTransaction(userID, domain.GemKind("opal"), 1, "quest_reward", nil)
		assert.ErrorIs(t, err, domain.ErrUnknownGemKind)
	})

	t.Run("rejects empty reason", func(t *testing.T) {
		t.Parallel()

		_, err := domain.NewGemTransaction(userID, domain.GemRuby, 1, "", nil)
		assert.ErrorIs(t, err, domain.ErrEmptyTransactionReason)
	})
}
