package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ascend-study/ascend-api/internal/api/shared"
	"github.com/ascend-study/ascend-api/internal/domain"
	"github.com/ascend-study/ascend-api/internal/events"
	"github.com/ascend-study/ascend-api/internal/service/review"
	"github.com/ascend-study/ascend-api/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockReviewService is a mock implementation of the ReviewService interface
type mockReviewService struct {
	createTopicFn   func(ctx context.Context, userID, subjectID, unitID uuid.UUID, title string, difficulty domain.Difficulty, importance domain.Importance) (*domain.Topic, error)
	assignFn        func(ctx context.Context, userID, topicID uuid.UUID) (*domain.Topic, error)
	submitReviewFn  func(ctx context.Context, userID, topicID uuid.UUID, fromColumn domain.Column, score int, note string) (*review.ReviewOutcome, error)
	sweepFn         func(ctx context.Context, now time.Time) (int, error)
	listReviewsFn   func(ctx context.Context, userID, topicID uuid.UUID, limit, offset int) ([]*domain.ReviewEntry, int, error)
	unitProgressFn  func(ctx context.Context, userID uuid.UUID) ([]store.UnitMastery, error)
	submitCallCount int
}

func (m *mockReviewService) CreateTopic(
	ctx context.Context,
	userID, subjectID, unitID uuid.UUID,
	title string,
	difficulty domain.Difficulty,
	importance domain.Importance,
) (*domain.Topic, error) {
	return m.createTopicFn(ctx, userID, subjectID, unitID, title, difficulty, importance)
}

func (m *mockReviewService) AssignToToday(
	ctx context.Context,
	userID, topicID uuid.UUID,
) (*domain.Topic, error) {
	return m.assignFn(ctx, userID, topicID)
}

func (m *mockReviewService) SubmitReview(
	ctx context.Context,
	userID, topicID uuid.UUID,
	fromColumn domain.Column,
	score int,
	note string,
) (*review.ReviewOutcome, error) {
	m.submitCallCount++
	return m.submitReviewFn(ctx, userID, topicID, fromColumn, score, note)
}

func (m *mockReviewService) ResurfaceOverdue(
	ctx context.Context,
	topicID uuid.UUID,
	now time.Time,
) (bool, error) {
	return false, nil
}

func (m *mockReviewService) SweepOverdue(ctx context.Context, now time.Time) (int, error) {
	return m.sweepFn(ctx, now)
}

func (m *mockReviewService) ListReviews(
	ctx context.Context,
	userID, topicID uuid.UUID,
	limit, offset int,
) ([]*domain.ReviewEntry, int, error) {
	return m.listReviewsFn(ctx, userID, topicID, limit, offset)
}

func (m *mockReviewService) UnitProgress(
	ctx context.Context,
	userID uuid.UUID,
) ([]store.UnitMastery, error) {
	return m.unitProgressFn(ctx, userID)
}

// mockEventEmitter records emitted events.
type mockEventEmitter struct {
	events  []*events.TaskRequestEvent
	emitErr error
}

func (m *mockEventEmitter) EmitEvent(ctx context.Context, event *events.TaskRequestEvent) error {
	if m.emitErr != nil {
		return m.emitErr
	}
	m.events = append(m.events, event)
	return nil
}

func testTopic(userID uuid.UUID) *domain.Topic {
	now := time.Now().UTC()
	return &domain.Topic{
		ID:         uuid.New(),
		UserID:     userID,
		SubjectID:  uuid.New(),
		UnitID:     uuid.New(),
		Title:      "Dijkstra's algorithm",
		Difficulty: domain.DifficultyMedium,
		Importance: domain.ImportanceHigh,
		Column:     domain.ColumnBacklog,
		GemCost:    domain.GemCost{4, 2, 0, 0},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// newRequestWithUser builds a request carrying the authenticated user and,
// when id is non-nil, a chi route context with the {id} path parameter.
func newRequestWithUser(
	method, target string,
	body []byte,
	userID uuid.UUID,
	id *uuid.UUID,
) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}

	ctx := req.Context()
	if userID != uuid.Nil {
		ctx = context.WithValue(ctx, shared.UserIDContextKey, userID)
	}
	if id != nil {
		routeCtx := chi.NewRouteContext()
		routeCtx.URLParams.Add("id", id.String())
		ctx = context.WithValue(ctx, chi.RouteCtxKey, routeCtx)
	}
	return req.WithContext(ctx)
}

func TestCreateTopicHandler(t *testing.T) {
	userID := uuid.New()

	validBody := func() []byte {
		body, _ := json.Marshal(CreateTopicRequest{
			SubjectID:  uuid.New().String(),
			UnitID:     uuid.New().String(),
			Title:      "Dijkstra's algorithm",
			Difficulty: "medium",
			Importance: "high",
		})
		return body
	}

	t.Run("creates a topic", func(t *testing.T) {
		topic := testTopic(userID)
		service := &mockReviewService{
			createTopicFn: func(ctx context.Context, uid, subjectID, unitID uuid.UUID, title string, difficulty domain.Difficulty, importance domain.Importance) (*domain.Topic, error) {
				assert.Equal(t, userID, uid)
				assert.Equal(t, domain.DifficultyMedium, difficulty)
				return topic, nil
			},
		}
		handler := NewTopicHandler(service, &mockEventEmitter{}, slog.Default())

		rr := httptest.NewRecorder()
		req := newRequestWithUser(http.MethodPost, "/api/topics", validBody(), userID, nil)
		handler.CreateTopic(rr, req)

		require.Equal(t, http.StatusCreated, rr.Code)
		var resp TopicResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Equal(t, topic.ID.String(), resp.ID)
		assert.Equal(t, "backlog", resp.Column)
		assert.Equal(t, map[string]int{"sapphire": 4, "emerald": 2, "ruby": 0, "diamond": 0}, resp.GemCost)
	})

	t.Run("rejects an unknown difficulty", func(t *testing.T) {
		body, _ := json.Marshal(CreateTopicRequest{
			SubjectID:  uuid.New().String(),
			UnitID:     uuid.New().String(),
			Title:      "Dijkstra's algorithm",
			Difficulty: "impossible",
			Importance: "high",
		})
		handler := NewTopicHandler(&mockReviewService{}, &mockEventEmitter{}, slog.Default())

		rr := httptest.NewRecorder()
		handler.CreateTopic(rr, newRequestWithUser(http.MethodPost, "/api/topics", body, userID, nil))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("rejects malformed json", func(t *testing.T) {
		handler := NewTopicHandler(&mockReviewService{}, &mockEventEmitter{}, slog.Default())

		rr := httptest.NewRecorder()
		handler.CreateTopic(rr, newRequestWithUser(http.MethodPost, "/api/topics", []byte("{"), userID, nil))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("requires an authenticated user", func(t *testing.T) {
		handler := NewTopicHandler(&mockReviewService{}, &mockEventEmitter{}, slog.Default())

		rr := httptest.NewRecorder()
		handler.CreateTopic(rr, newRequestWithUser(http.MethodPost, "/api/topics", validBody(), uuid.Nil, nil))

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestAssignToTodayHandler(t *testing.T) {
	userID := uuid.New()

	t.Run("assigns a backlog topic", func(t *testing.T) {
		topic := testTopic(userID)
		topic.Column = domain.ColumnToday
		service := &mockReviewService{
			assignFn: func(ctx context.Context, uid, topicID uuid.UUID) (*domain.Topic, error) {
				return topic, nil
			},
		}
		handler := NewTopicHandler(service, &mockEventEmitter{}, slog.Default())

		rr := httptest.NewRecorder()
		req := newRequestWithUser(http.MethodPost, "/api/topics/x/assign", nil, userID, &topic.ID)
		handler.AssignToToday(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var resp TopicResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Equal(t, "today", resp.Column)
	})

	t.Run("maps a non-backlog topic to 409", func(t *testing.T) {
		service := &mockReviewService{
			assignFn: func(ctx context.Context, uid, topicID uuid.UUID) (*domain.Topic, error) {
				return nil, review.ErrInvalidTransition
			},
		}
		handler := NewTopicHandler(service, &mockEventEmitter{}, slog.Default())

		topicID := uuid.New()
		rr := httptest.NewRecorder()
		req := newRequestWithUser(http.MethodPost, "/api/topics/x/assign", nil, userID, &topicID)
		handler.AssignToToday(rr, req)

		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("rejects a malformed topic id", func(t *testing.T) {
		handler := NewTopicHandler(&mockReviewService{}, &mockEventEmitter{}, slog.Default())

		req := httptest.NewRequest(http.MethodPost, "/api/topics/not-a-uuid/assign", nil)
		routeCtx := chi.NewRouteContext()
		routeCtx.URLParams.Add("id", "not-a-uuid")
		ctx := context.WithValue(req.Context(), shared.UserIDContextKey, userID)
		ctx = context.WithValue(ctx, chi.RouteCtxKey, routeCtx)

		rr := httptest.NewRecorder()
		handler.AssignToToday(rr, req.WithContext(ctx))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestSubmitReviewHandler(t *testing.T) {
	userID := uuid.New()

	validBody := func(score int) []byte {
		body, _ := json.Marshal(SubmitReviewRequest{
			FromColumn: "today",
			Score:      score,
			Note:       "solid recall",
		})
		return body
	}

	t.Run("returns the outcome and requests evaluation", func(t *testing.T) {
		topic := testTopic(userID)
		topic.Column = domain.ColumnReviewing
		service := &mockReviewService{
			submitReviewFn: func(ctx context.Context, uid, topicID uuid.UUID, fromColumn domain.Column, score int, note string) (*review.ReviewOutcome, error) {
				assert.Equal(t, domain.ColumnToday, fromColumn)
				assert.Equal(t, 5, score)
				return &review.ReviewOutcome{Topic: topic, XpAwarded: 10}, nil
			},
		}
		emitter := &mockEventEmitter{}
		handler := NewTopicHandler(service, emitter, slog.Default())

		rr := httptest.NewRecorder()
		req := newRequestWithUser(http.MethodPost, "/api/topics/x/review", validBody(5), userID, &topic.ID)
		handler.SubmitReview(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var resp SubmitReviewResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Equal(t, 10, resp.XpAwarded)
		assert.False(t, resp.Mastered)

		require.Len(t, emitter.events, 1)
		var payload struct {
			UserID uuid.UUID `json:"user_id"`
		}
		require.NoError(t, emitter.events[0].UnmarshalPayload(&payload))
		assert.Equal(t, userID, payload.UserID)
	})

	t.Run("maps a stale column to 409", func(t *testing.T) {
		service := &mockReviewService{
			submitReviewFn: func(ctx context.Context, uid, topicID uuid.UUID, fromColumn domain.Column, score int, note string) (*review.ReviewOutcome, error) {
				return nil, review.ErrStaleColumn
			},
		}
		emitter := &mockEventEmitter{}
		handler := NewTopicHandler(service, emitter, slog.Default())

		topicID := uuid.New()
		rr := httptest.NewRecorder()
		req := newRequestWithUser(http.MethodPost, "/api/topics/x/review", validBody(3), userID, &topicID)
		handler.SubmitReview(rr, req)

		assert.Equal(t, http.StatusConflict, rr.Code)
		assert.Empty(t, emitter.events)
	})

	t.Run("rejects an out-of-range score before calling the service", func(t *testing.T) {
		service := &mockReviewService{}
		handler := NewTopicHandler(service, &mockEventEmitter{}, slog.Default())

		topicID := uuid.New()
		rr := httptest.NewRecorder()
		req := newRequestWithUser(http.MethodPost, "/api/topics/x/review", validBody(6), userID, &topicID)
		handler.SubmitReview(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Zero(t, service.submitCallCount)
	})

	t.Run("emit failure does not fail the request", func(t *testing.T) {
		topic := testTopic(userID)
		service := &mockReviewService{
			submitReviewFn: func(ctx context.Context, uid, topicID uuid.UUID, fromColumn domain.Column, score int, note string) (*review.ReviewOutcome, error) {
				return &review.ReviewOutcome{Topic: topic, XpAwarded: 10}, nil
			},
		}
		emitter := &mockEventEmitter{emitErr: errors.New("no handlers registered")}
		handler := NewTopicHandler(service, emitter, slog.Default())

		rr := httptest.NewRecorder()
		req := newRequestWithUser(http.MethodPost, "/api/topics/x/review", validBody(4), userID, &topic.ID)
		handler.SubmitReview(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})
}

func TestListReviewsHandler(t *testing.T) {
	userID := uuid.New()
	topicID := uuid.New()

	t.Run("returns a page of entries", func(t *testing.T) {
		score := 4
		entries := []*domain.ReviewEntry{
			{
				ID:                 uuid.New(),
				TopicID:            topicID,
				ReviewedAt:         time.Now().UTC(),
				FromColumn:         domain.ColumnToday,
				ToColumn:           domain.ColumnReviewing,
				UnderstandingScore: &score,
			},
			{
				ID:         uuid.New(),
				TopicID:    topicID,
				ReviewedAt: time.Now().UTC().Add(-time.Hour),
				FromColumn: domain.ColumnReviewing,
				ToColumn:   domain.ColumnToday,
			},
		}
		service := &mockReviewService{
			listReviewsFn: func(ctx context.Context, uid, tid uuid.UUID, limit, offset int) ([]*domain.ReviewEntry, int, error) {
				assert.Equal(t, 20, limit)
				assert.Equal(t, 0, offset)
				return entries, 2, nil
			},
		}
		handler := NewTopicHandler(service, &mockEventEmitter{}, slog.Default())

		rr := httptest.NewRecorder()
		req := newRequestWithUser(http.MethodGet, "/api/topics/x/reviews", nil, userID, &topicID)
		handler.ListReviews(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var resp ReviewListResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Equal(t, 2, resp.Total)
		require.Len(t, resp.Reviews, 2)
		assert.False(t, resp.Reviews[0].Automatic)
		// The unscored rescheduler entry reads as automatic.
		assert.True(t, resp.Reviews[1].Automatic)
	})

	t.Run("respects pagination query parameters", func(t *testing.T) {
		service := &mockReviewService{
			listReviewsFn: func(ctx context.Context, uid, tid uuid.UUID, limit, offset int) ([]*domain.ReviewEntry, int, error) {
				assert.Equal(t, 5, limit)
				assert.Equal(t, 10, offset)
				return nil, 0, nil
			},
		}
		handler := NewTopicHandler(service, &mockEventEmitter{}, slog.Default())

		rr := httptest.NewRecorder()
		req := newRequestWithUser(
			http.MethodGet, "/api/topics/x/reviews?limit=5&offset=10", nil, userID, &topicID,
		)
		handler.ListReviews(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})
}

func TestUnitProgressHandler(t *testing.T) {
	userID := uuid.New()
	unitID := uuid.New()

	service := &mockReviewService{
		unitProgressFn: func(ctx context.Context, uid uuid.UUID) ([]store.UnitMastery, error) {
			return []store.UnitMastery{
				{UnitID: unitID, MasteredCount: 3, TotalCount: 10},
			}, nil
		},
	}
	handler := NewTopicHandler(service, &mockEventEmitter{}, slog.Default())

	rr := httptest.NewRecorder()
	req := newRequestWithUser(http.MethodGet, "/api/progress/units", nil, userID, nil)
	handler.UnitProgress(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp UnitProgressResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.Len(t, resp.Units, 1)
	assert.Equal(t, unitID.String(), resp.Units[0].UnitID)
	assert.Equal(t, 3, resp.Units[0].MasteredCount)
	assert.Equal(t, 10, resp.Units[0].TotalCount)
}
