package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ascend-study/ascend-api/internal/api/shared"
	"github.com/ascend-study/ascend-api/internal/domain"
	"github.com/ascend-study/ascend-api/internal/events"
	"github.com/ascend-study/ascend-api/internal/platform/logger"
	"github.com/ascend-study/ascend-api/internal/service/review"
	"github.com/ascend-study/ascend-api/internal/task"
	"github.com/google/uuid"
)

// TopicHandler handles topic pipeline HTTP requests
type TopicHandler struct {
	reviewService review.ReviewService
	eventEmitter  events.EventEmitter
	logger        *slog.Logger
}

// NewTopicHandler creates a new TopicHandler
func NewTopicHandler(
	reviewService review.ReviewService,
	eventEmitter events.EventEmitter,
	logger *slog.Logger,
) *TopicHandler {
	if reviewService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("reviewService cannot be nil for TopicHandler")
	}
	if eventEmitter == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("eventEmitter cannot be nil for TopicHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for TopicHandler")
	}

	return &TopicHandler{
		reviewService: reviewService,
		eventEmitter:  eventEmitter,
		logger:        logger.With(slog.String("component", "topic_handler")),
	}
}

// CreateTopicRequest represents the request body for registering a topic
type CreateTopicRequest struct {
	SubjectID  string `json:"subject_id" validate:"required,uuid"`
	UnitID     string `json:"unit_id"    validate:"required,uuid"`
	Title      string `json:"title"      validate:"required,max=500"`
	Difficulty string `json:"difficulty" validate:"required,oneof=high medium low"`
	Importance string `json:"importance" validate:"required,oneof=high medium low"`
}

// CreateTopic handles POST /topics requests. The topic starts in the backlog
// column with its gem cost derived from the difficulty/importance table.
func (h *TopicHandler) CreateTopic(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req CreateTopicRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("failed to decode create topic request", slog.String("error", err.Error()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	// Validated as UUIDs above, so parsing cannot fail here.
	subjectID, _ := uuid.Parse(req.SubjectID)
	unitID, _ := uuid.Parse(req.UnitID)

	topic, err := h.reviewService.CreateTopic(
		r.Context(),
		userID,
		subjectID,
		unitID,
		req.Title,
		domain.Difficulty(req.Difficulty),
		domain.Importance(req.Importance),
	)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create topic")
		return
	}

	log.Debug("topic created",
		slog.String("user_id", userID.String()),
		slog.String("topic_id", topic.ID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, topicToResponse(topic))
}

// AssignToToday handles POST /topics/{id}/assign requests, moving a backlog
// topic into the today column.
func (h *TopicHandler) AssignToToday(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, topicID, ok := requireUserAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	topic, err := h.reviewService.AssignToToday(r.Context(), userID, topicID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to assign topic")
		return
	}

	log.Debug("topic assigned to today",
		slog.String("user_id", userID.String()),
		slog.String("topic_id", topicID.String()))
	shared.RespondWithJSON(w, r, http.StatusOK, topicToResponse(topic))
}

// SubmitReviewRequest represents the request body for a scored review
type SubmitReviewRequest struct {
	FromColumn string `json:"from_column" validate:"required,oneof=today reviewing"`
	Score      int    `json:"score"       validate:"required,min=1,max=5"`
	Note       string `json:"note"        validate:"max=2000"`
}

// SubmitReviewResponse represents the response body for a scored review
type SubmitReviewResponse struct {
	Topic     TopicResponse `json:"topic"`
	XpAwarded int           `json:"xp_awarded"`
	Mastered  bool          `json:"mastered"`
}

// SubmitReview handles POST /topics/{id}/review requests. The request carries
// the column the client last saw so a concurrent move (e.g. the overdue
// rescheduler) surfaces as a 409 instead of a silent double transition.
func (h *TopicHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, topicID, ok := requireUserAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	var req SubmitReviewRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("failed to decode review request", slog.String("error", err.Error()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	outcome, err := h.reviewService.SubmitReview(
		r.Context(),
		userID,
		topicID,
		domain.Column(req.FromColumn),
		req.Score,
		req.Note,
	)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to submit review")
		return
	}

	requestAchievementEvaluation(r.Context(), h.eventEmitter, userID, log)

	log.Debug("review submitted",
		slog.String("user_id", userID.String()),
		slog.String("topic_id", topicID.String()),
		slog.Int("score", req.Score),
		slog.Bool("mastered", outcome.Mastered))
	shared.RespondWithJSON(w, r, http.StatusOK, SubmitReviewResponse{
		Topic:     topicToResponse(outcome.Topic),
		XpAwarded: outcome.XpAwarded,
		Mastered:  outcome.Mastered,
	})
}

// ReviewListResponse represents a page of a topic's audit trail
type ReviewListResponse struct {
	Reviews []ReviewEntryResponse `json:"reviews"`
	Total   int                   `json:"total"`
	Limit   int                   `json:"limit"`
	Offset  int                   `json:"offset"`
}

// ListReviews handles GET /topics/{id}/reviews requests, returning the
// topic's audit trail newest first.
func (h *TopicHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	userID, topicID, ok := requireUserAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	limit, offset := parseLimitOffset(r)

	entries, total, err := h.reviewService.ListReviews(r.Context(), userID, topicID, limit, offset)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list reviews")
		return
	}

	reviews := make([]ReviewEntryResponse, 0, len(entries))
	for _, entry := range entries {
		reviews = append(reviews, reviewEntryToResponse(entry))
	}

	shared.RespondWithJSON(w, r, http.StatusOK, ReviewListResponse{
		Reviews: reviews,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
	})
}

// UnitProgressResponse represents per-unit mastery counts
type UnitProgressResponse struct {
	Units []UnitMasteryResponse `json:"units"`
}

// UnitMasteryResponse represents one unit's mastered/total counts
type UnitMasteryResponse struct {
	UnitID        string `json:"unit_id"`
	MasteredCount int    `json:"mastered_count"`
	TotalCount    int    `json:"total_count"`
}

// UnitProgress handles GET /progress/units requests.
func (h *TopicHandler) UnitProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	progress, err := h.reviewService.UnitProgress(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get unit progress")
		return
	}

	units := make([]UnitMasteryResponse, 0, len(progress))
	for _, u := range progress {
		units = append(units, UnitMasteryResponse{
			UnitID:        u.UnitID.String(),
			MasteredCount: u.MasteredCount,
			TotalCount:    u.TotalCount,
		})
	}

	shared.RespondWithJSON(w, r, http.StatusOK, UnitProgressResponse{Units: units})
}

// requestAchievementEvaluation emits an achievement evaluation request for
// the user. Emission failures are logged and swallowed: the write that
// triggered the evaluation already committed, and the next trigger
// re-evaluates the full registry anyway.
func requestAchievementEvaluation(
	ctx context.Context,
	emitter events.EventEmitter,
	userID uuid.UUID,
	log *slog.Logger,
) {
	event, err := events.NewTaskRequestEvent(
		task.TaskTypeAchievementEvaluation,
		map[string]string{"user_id": userID.String()},
	)
	if err != nil {
		log.Warn("failed to build achievement evaluation event",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
		return
	}

	if err := emitter.EmitEvent(ctx, event); err != nil {
		log.Warn("failed to emit achievement evaluation event",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
	}
}
