package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ascend-study/ascend-api/internal/domain"
	"github.com/ascend-study/ascend-api/internal/service/economy"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockEconomyService is a mock implementation of the EconomyService interface
type mockEconomyService struct {
	getCostFn  func(ctx context.Context, userID, topicID uuid.UUID) (*economy.CostBreakdown, error)
	purchaseFn func(ctx context.Context, userID, topicID uuid.UUID) (*economy.PurchaseOutcome, error)
	earnFn     func(ctx context.Context, userID uuid.UUID, kind domain.GemKind, amount int, reason string, referenceID *uuid.UUID) (*domain.GemWallet, error)
	walletFn   func(ctx context.Context, userID uuid.UUID) (*domain.GemWallet, error)
	listFn     func(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.GemTransaction, int, error)
	earnCalls  int
}

func (m *mockEconomyService) GetEffectiveCost(
	ctx context.Context,
	userID, topicID uuid.UUID,
) (*economy.CostBreakdown, error) {
	return m.getCostFn(ctx, userID, topicID)
}

func (m *mockEconomyService) Purchase(
	ctx context.Context,
	userID, topicID uuid.UUID,
) (*economy.PurchaseOutcome, error) {
	return m.purchaseFn(ctx, userID, topicID)
}

func (m *mockEconomyService) Earn(
	ctx context.Context,
	userID uuid.UUID,
	kind domain.GemKind,
	amount int,
	reason string,
	referenceID *uuid.UUID,
) (*domain.GemWallet, error) {
	m.earnCalls++
	return m.earnFn(ctx, userID, kind, amount, reason, referenceID)
}

func (m *mockEconomyService) GetWallet(
	ctx context.Context,
	userID uuid.UUID,
) (*domain.GemWallet, error) {
	return m.walletFn(ctx, userID)
}

func (m *mockEconomyService) ListTransactions(
	ctx context.Context,
	userID uuid.UUID,
	limit, offset int,
) ([]*domain.GemTransaction, int, error) {
	return m.listFn(ctx, userID, limit, offset)
}

func testWallet(userID uuid.UUID, balances domain.GemCost) *domain.GemWallet {
	now := time.Now().UTC()
	return &domain.GemWallet{
		UserID:    userID,
		Balances:  balances,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestGetCostHandler(t *testing.T) {
	userID := uuid.New()
	topicID := uuid.New()

	t.Run("prices a topic", func(t *testing.T) {
		service := &mockEconomyService{
			getCostFn: func(ctx context.Context, uid, tid uuid.UUID) (*economy.CostBreakdown, error) {
				return &economy.CostBreakdown{
					BaseCost:      domain.GemCost{4, 2, 0, 0},
					Discount:      domain.GemCost{1, 0, 0, 0},
					EffectiveCost: domain.GemCost{3, 2, 0, 0},
				}, nil
			},
		}
		handler := NewEconomyHandler(service, &mockEventEmitter{}, slog.Default())

		rr := httptest.NewRecorder()
		req := newRequestWithUser(http.MethodGet, "/api/topics/x/cost", nil, userID, &topicID)
		handler.GetCost(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var resp CostResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Equal(t, 4, resp.BaseCost["sapphire"])
		assert.Equal(t, 1, resp.Discount["sapphire"])
		assert.Equal(t, 3, resp.EffectiveCost["sapphire"])
		assert.Equal(t, 2, resp.EffectiveCost["emerald"])
	})

	t.Run("maps a foreign topic to 403", func(t *testing.T) {
		service := &mockEconomyService{
			getCostFn: func(ctx context.Context, uid, tid uuid.UUID) (*economy.CostBreakdown, error) {
				return nil, economy.ErrTopicNotOwned
			},
		}
		handler := NewEconomyHandler(service, &mockEventEmitter{}, slog.Default())

		rr := httptest.NewRecorder()
		req := newRequestWithUser(http.MethodGet, "/api/topics/x/cost", nil, userID, &topicID)
		handler.GetCost(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})
}

func TestPurchaseHandler(t *testing.T) {
	userID := uuid.New()

	t.Run("returns the purchase outcome and requests evaluation", func(t *testing.T) {
		topic := testTopic(userID)
		topic.Column = domain.ColumnMastered
		topic.Purchased = true
		service := &mockEconomyService{
			purchaseFn: func(ctx context.Context, uid, tid uuid.UUID) (*economy.PurchaseOutcome, error) {
				return &economy.PurchaseOutcome{
					Topic:           topic,
					EffectiveCost:   domain.GemCost{4, 2, 0, 0},
					Wallet:          testWallet(userID, domain.GemCost{6, 8, 10, 10}),
					XpAwarded:       20,
					PrestigeAwarded: 1,
				}, nil
			},
		}
		emitter := &mockEventEmitter{}
		handler := NewEconomyHandler(service, emitter, slog.Default())

		rr := httptest.NewRecorder()
		req := newRequestWithUser(http.MethodPost, "/api/topics/x/purchase", nil, userID, &topic.ID)
		handler.Purchase(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var resp PurchaseResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Equal(t, "mastered", resp.Topic.Column)
		assert.True(t, resp.Topic.Purchased)
		assert.Equal(t, 20, resp.XpAwarded)
		assert.Equal(t, 1, resp.PrestigeAwarded)
		assert.Equal(t, 6, resp.Wallet.Balances["sapphire"])

		require.Len(t, emitter.events, 1)
	})

	t.Run("maps an empty wallet to 422", func(t *testing.T) {
		service := &mockEconomyService{
			purchaseFn: func(ctx context.Context, uid, tid uuid.UUID) (*economy.PurchaseOutcome, error) {
				return nil, economy.ErrInsufficientGems
			},
		}
		emitter := &mockEventEmitter{}
		handler := NewEconomyHandler(service, emitter, slog.Default())

		topicID := uuid.New()
		rr := httptest.NewRecorder()
		req := newRequestWithUser(http.MethodPost, "/api/topics/x/purchase", nil, userID, &topicID)
		handler.Purchase(rr, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		assert.Empty(t, emitter.events)
	})

	t.Run("maps an already mastered topic to 409", func(t *testing.T) {
		service := &mockEconomyService{
			purchaseFn: func(ctx context.Context, uid, tid uuid.UUID) (*economy.PurchaseOutcome, error) {
				return nil, economy.ErrAlreadyMastered
			},
		}
		handler := NewEconomyHandler(service, &mockEventEmitter{}, slog.Default())

		topicID := uuid.New()
		rr := httptest.NewRecorder()
		req := newRequestWithUser(http.MethodPost, "/api/topics/x/purchase", nil, userID, &topicID)
		handler.Purchase(rr, req)

		assert.Equal(t, http.StatusConflict, rr.Code)
	})
}

func TestGetWalletHandler(t *testing.T) {
	userID := uuid.New()

	service := &mockEconomyService{
		walletFn: func(ctx context.Context, uid uuid.UUID) (*domain.GemWallet, error) {
			return testWallet(uid, domain.GemCost{1, 2, 3, 4}), nil
		},
	}
	handler := NewEconomyHandler(service, &mockEventEmitter{}, slog.Default())

	rr := httptest.NewRecorder()
	req := newRequestWithUser(http.MethodGet, "/api/wallet", nil, userID, nil)
	handler.GetWallet(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp WalletResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, map[string]int{"sapphire": 1, "emerald": 2, "ruby": 3, "diamond": 4}, resp.Balances)
}

func TestListTransactionsHandler(t *testing.T) {
	userID := uuid.New()
	refID := uuid.New()

	service := &mockEconomyService{
		listFn: func(ctx context.Context, uid uuid.UUID, limit, offset int) ([]*domain.GemTransaction, int, error) {
			return []*domain.GemTransaction{
				{
					ID:          uuid.New(),
					UserID:      uid,
					Kind:        domain.GemSapphire,
					Amount:      -4,
					Reason:      domain.GemReasonPurchase,
					ReferenceID: &refID,
					CreatedAt:   time.Now().UTC(),
				},
			}, 1, nil
		},
	}
	handler := NewEconomyHandler(service, &mockEventEmitter{}, slog.Default())

	rr := httptest.NewRecorder()
	req := newRequestWithUser(http.MethodGet, "/api/wallet/transactions", nil, userID, nil)
	handler.ListTransactions(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp TransactionListResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, 1, resp.Total)
	require.Len(t, resp.Transactions, 1)
	assert.Equal(t, "sapphire", resp.Transactions[0].Kind)
	assert.Equal(t, -4, resp.Transactions[0].Amount)
	require.NotNil(t, resp.Transactions[0].ReferenceID)
	assert.Equal(t, refID.String(), *resp.Transactions[0].ReferenceID)
}

func TestEarnHandler(t *testing.T) {
	userID := uuid.New()

	t.Run("credits the wallet", func(t *testing.T) {
		refID := uuid.New().String()
		body, _ := json.Marshal(EarnRequest{
			Kind:        "emerald",
			Amount:      5,
			Reason:      "daily_quest",
			ReferenceID: &refID,
		})
		service := &mockEconomyService{
			earnFn: func(ctx context.Context, uid uuid.UUID, kind domain.GemKind, amount int, reason string, referenceID *uuid.UUID) (*domain.GemWallet, error) {
				assert.Equal(t, domain.GemEmerald, kind)
				assert.Equal(t, 5, amount)
				assert.Equal(t, "daily_quest", reason)
				require.NotNil(t, referenceID)
				assert.Equal(t, refID, referenceID.String())
				return testWallet(uid, domain.GemCost{0, 5, 0, 0}), nil
			},
		}
		handler := NewEconomyHandler(service, &mockEventEmitter{}, slog.Default())

		rr := httptest.NewRecorder()
		req := newRequestWithUser(http.MethodPost, "/api/wallet/earn", body, userID, nil)
		handler.Earn(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var resp WalletResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Equal(t, 5, resp.Balances["emerald"])
	})

	t.Run("rejects an unknown kind before calling the service", func(t *testing.T) {
		body, _ := json.Marshal(EarnRequest{Kind: "opal", Amount: 5, Reason: "quest"})
		service := &mockEconomyService{}
		handler := NewEconomyHandler(service, &mockEventEmitter{}, slog.Default())

		rr := httptest.NewRecorder()
		req := newRequestWithUser(http.MethodPost, "/api/wallet/earn", body, userID, nil)
		handler.Earn(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Zero(t, service.earnCalls)
	})

	t.Run("rejects a non-positive amount", func(t *testing.T) {
		body, _ := json.Marshal(EarnRequest{Kind: "ruby", Amount: 0, Reason: "quest"})
		handler := NewEconomyHandler(&mockEconomyService{}, &mockEventEmitter{}, slog.Default())

		rr := httptest.NewRecorder()
		req := newRequestWithUser(http.MethodPost, "/api/wallet/earn", body, userID, nil)
		handler.Earn(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}
