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
	"github.com/ascend-study/ascend-api/internal/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockStatsService is a mock implementation of the StatsService interface
type mockStatsService struct {
	getFn         func(ctx context.Context, userID uuid.UUID) (*domain.UserStats, error)
	touchStreakFn func(ctx context.Context, userID uuid.UUID, at time.Time) (*domain.UserStats, error)
	grantXpFn     func(ctx context.Context, userID uuid.UUID, amount int, reason string, referenceID *uuid.UUID) (*domain.UserStats, error)
	grantXpCalls  int
}

func (m *mockStatsService) GrantXp(
	ctx context.Context,
	userID uuid.UUID,
	amount int,
	reason string,
	referenceID *uuid.UUID,
) (*domain.UserStats, error) {
	m.grantXpCalls++
	return m.grantXpFn(ctx, userID, amount, reason, referenceID)
}

func (m *mockStatsService) GrantXpInTx(
	ctx context.Context,
	statsStore store.StatsStore,
	userID uuid.UUID,
	amount int,
	reason string,
	referenceID *uuid.UUID,
) (*domain.UserStats, error) {
	return m.GrantXp(ctx, userID, amount, reason, referenceID)
}

func (m *mockStatsService) AddPrestigeInTx(
	ctx context.Context,
	statsStore store.StatsStore,
	userID uuid.UUID,
	points int,
) (*domain.UserStats, error) {
	return nil, nil
}

func (m *mockStatsService) TouchStreak(
	ctx context.Context,
	userID uuid.UUID,
	at time.Time,
) (*domain.UserStats, error) {
	return m.touchStreakFn(ctx, userID, at)
}

func (m *mockStatsService) TouchStreakInTx(
	ctx context.Context,
	statsStore store.StatsStore,
	userID uuid.UUID,
	at time.Time,
) (*domain.UserStats, error) {
	return m.touchStreakFn(ctx, userID, at)
}

func (m *mockStatsService) Get(
	ctx context.Context,
	userID uuid.UUID,
) (*domain.UserStats, error) {
	return m.getFn(ctx, userID)
}

func testStats(userID uuid.UUID) *domain.UserStats {
	lastStudy := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	return &domain.UserStats{
		UserID:         userID,
		TotalXp:        120,
		CurrentStreak:  4,
		LongestStreak:  9,
		LastStudyDate:  &lastStudy,
		PrestigePoints: 3,
	}
}

func TestGetStatsHandler(t *testing.T) {
	userID := uuid.New()

	t.Run("returns the stats row", func(t *testing.T) {
		service := &mockStatsService{
			getFn: func(ctx context.Context, uid uuid.UUID) (*domain.UserStats, error) {
				return testStats(uid), nil
			},
		}
		handler := NewStatsHandler(service, &mockEventEmitter{}, 15, slog.Default())

		rr := httptest.NewRecorder()
		req := newRequestWithUser(http.MethodGet, "/api/stats", nil, userID, nil)
		handler.GetStats(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var resp StatsResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Equal(t, 120, resp.TotalXp)
		assert.Equal(t, 4, resp.CurrentStreak)
		assert.Equal(t, 9, resp.LongestStreak)
		assert.Equal(t, 3, resp.PrestigePoints)
	})

	t.Run("requires an authenticated user", func(t *testing.T) {
		handler := NewStatsHandler(&mockStatsService{}, &mockEventEmitter{}, 15, slog.Default())

		rr := httptest.NewRecorder()
		req := newRequestWithUser(http.MethodGet, "/api/stats", nil, uuid.Nil, nil)
		handler.GetStats(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestCompleteSessionHandler(t *testing.T) {
	userID := uuid.New()

	t.Run("touches the streak, awards xp, and requests evaluation", func(t *testing.T) {
		touched := testStats(userID)
		granted := *touched
		granted.TotalXp += 15

		service := &mockStatsService{
			touchStreakFn: func(ctx context.Context, uid uuid.UUID, at time.Time) (*domain.UserStats, error) {
				assert.WithinDuration(t, time.Now().UTC(), at, time.Minute)
				return touched, nil
			},
			grantXpFn: func(ctx context.Context, uid uuid.UUID, amount int, reason string, referenceID *uuid.UUID) (*domain.UserStats, error) {
				assert.Equal(t, 15, amount)
				assert.Equal(t, domain.XpReasonSessionCompleted, reason)
				assert.Nil(t, referenceID)
				return &granted, nil
			},
		}
		emitter := &mockEventEmitter{}
		handler := NewStatsHandler(service, emitter, 15, slog.Default())

		rr := httptest.NewRecorder()
		req := newRequestWithUser(http.MethodPost, "/api/sessions/complete", nil, userID, nil)
		handler.CompleteSession(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var resp SessionResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Equal(t, 15, resp.XpAwarded)
		assert.Equal(t, 135, resp.Stats.TotalXp)

		require.Len(t, emitter.events, 1)
	})

	t.Run("zero session xp skips the grant", func(t *testing.T) {
		service := &mockStatsService{
			touchStreakFn: func(ctx context.Context, uid uuid.UUID, at time.Time) (*domain.UserStats, error) {
				return testStats(uid), nil
			},
		}
		handler := NewStatsHandler(service, &mockEventEmitter{}, 0, slog.Default())

		rr := httptest.NewRecorder()
		req := newRequestWithUser(http.MethodPost, "/api/sessions/complete", nil, userID, nil)
		handler.CompleteSession(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var resp SessionResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Zero(t, resp.XpAwarded)
		assert.Zero(t, service.grantXpCalls)
	})
}
