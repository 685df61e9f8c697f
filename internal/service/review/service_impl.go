package review

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ascend-study/ascend-api/internal/domain"
	"github.com/ascend-study/ascend-api/internal/domain/progression"
	"github.com/ascend-study/ascend-api/internal/platform/logger"
	"github.com/ascend-study/ascend-api/internal/service/stats"
	"github.com/ascend-study/ascend-api/internal/store"
	"github.com/google/uuid"
)

// Verify interface compliance at compile time
var _ ReviewService = (*reviewServiceImpl)(nil)

// reviewServiceImpl implements the ReviewService interface.
type reviewServiceImpl struct {
	txRunner        store.TxRunner
	topicStore      store.TopicStore
	reviewStore     store.ReviewStore
	statsStore      store.StatsStore
	statsService    stats.StatsService
	progression     progression.Service
	sweepBatchLimit int
	logger          *slog.Logger
}

// DefaultSweepBatchLimit bounds one sweep pass when no limit is configured;
// the next tick picks up the rest.
const DefaultSweepBatchLimit = 500

// NewReviewService creates a new ReviewService implementation.
// sweepBatchLimit caps how many overdue topics a single sweep pass touches;
// zero or negative selects DefaultSweepBatchLimit.
func NewReviewService(
	txRunner store.TxRunner,
	topicStore store.TopicStore,
	reviewStore store.ReviewStore,
	statsStore store.StatsStore,
	statsService stats.StatsService,
	progressionService progression.Service,
	sweepBatchLimit int,
	logger *slog.Logger,
) ReviewService {
	if txRunner == nil {
		panic("txRunner cannot be nil")
	}
	if topicStore == nil {
		panic("topicStore cannot be nil")
	}
	if reviewStore == nil {
		panic("reviewStore cannot be nil")
	}
	if statsStore == nil {
		panic("statsStore cannot be nil")
	}
	if statsService == nil {
		panic("statsService cannot be nil")
	}
	if progressionService == nil {
		panic("progressionService cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	if sweepBatchLimit <= 0 {
		sweepBatchLimit = DefaultSweepBatchLimit
	}

	return &reviewServiceImpl{
		txRunner:        txRunner,
		topicStore:      topicStore,
		reviewStore:     reviewStore,
		statsStore:      statsStore,
		statsService:    statsService,
		progression:     progressionService,
		sweepBatchLimit: sweepBatchLimit,
		logger:          logger.With(slog.String("component", "review_service")),
	}
}

// CreateTopic implements ReviewService.CreateTopic.
func (s *reviewServiceImpl) CreateTopic(
	ctx context.Context,
	userID, subjectID, unitID uuid.UUID,
	title string,
	difficulty domain.Difficulty,
	importance domain.Importance,
) (*domain.Topic, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	cost, err := s.progression.DeriveCost(difficulty, importance)
	if err != nil {
		return nil, &ServiceError{
			Operation: "create_topic",
			Message:   "failed to derive gem cost",
			Err:       err,
		}
	}

	topic, err := domain.NewTopic(userID, subjectID, unitID, title, difficulty, importance, cost)
	if err != nil {
		return nil, &ServiceError{
			Operation: "create_topic",
			Message:   "invalid topic",
			Err:       err,
		}
	}

	if err := s.topicStore.Create(ctx, topic); err != nil {
		log.Error("failed to create topic",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, &ServiceError{
			Operation: "create_topic",
			Message:   "failed to save topic",
			Err:       err,
		}
	}

	log.Debug("created topic",
		slog.String("topic_id", topic.ID.String()),
		slog.String("user_id", userID.String()),
		slog.String("difficulty", string(difficulty)),
		slog.String("importance", string(importance)))
	return topic, nil
}

// AssignToToday implements ReviewService.AssignToToday.
func (s *reviewServiceImpl) AssignToToday(
	ctx context.Context,
	userID, topicID uuid.UUID,
) (*domain.Topic, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var updated *domain.Topic
	err := s.txRunner.RunInTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		topicStore := s.topicStore.WithTx(tx)

		topic, err := s.lockOwnedTopic(ctx, topicStore, userID, topicID)
		if err != nil {
			return err
		}

		// Only backlog topics can be picked for today.
		if topic.Column != domain.ColumnBacklog {
			return fmt.Errorf("%w: cannot assign from %q", ErrInvalidTransition, topic.Column)
		}

		toColumn := domain.ColumnToday
		if err := topicStore.Update(ctx, topicID, store.TopicUpdate{Column: &toColumn}); err != nil {
			return fmt.Errorf("failed to update topic: %w", err)
		}

		topic.Column = toColumn
		topic.UpdatedAt = time.Now().UTC()
		updated = topic
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Debug("assigned topic to today",
		slog.String("topic_id", topicID.String()),
		slog.String("user_id", userID.String()))
	return updated, nil
}

// SubmitReview implements ReviewService.SubmitReview.
func (s *reviewServiceImpl) SubmitReview(
	ctx context.Context,
	userID, topicID uuid.UUID,
	fromColumn domain.Column,
	score int,
	note string,
) (*ReviewOutcome, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !domain.IsValidUnderstandingScore(score) {
		return nil, ErrInvalidScore
	}
	if fromColumn != domain.ColumnToday && fromColumn != domain.ColumnReviewing {
		return nil, fmt.Errorf("%w: cannot review from %q", ErrInvalidTransition, fromColumn)
	}

	now := time.Now().UTC()
	var outcome *ReviewOutcome
	err := s.txRunner.RunInTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		topicStore := s.topicStore.WithTx(tx)

		topic, err := s.lockOwnedTopic(ctx, topicStore, userID, topicID)
		if err != nil {
			return err
		}

		// The sweeper or another device may have moved the topic since the
		// client loaded it.
		if topic.Column != fromColumn {
			return fmt.Errorf("%w: expected %q, found %q", ErrStaleColumn, fromColumn, topic.Column)
		}

		transition, err := s.progression.CalculateTransition(topic.MasteryCount, score, now)
		if err != nil {
			if errors.Is(err, progression.ErrInvalidScore) {
				return ErrInvalidScore
			}
			return fmt.Errorf("failed to calculate transition: %w", err)
		}

		update := store.TopicUpdate{
			Column:          &transition.ToColumn,
			MasteryCount:    &transition.MasteryCount,
			NextReviewAt:    transition.NextReviewAt,
			ClearNextReview: transition.NextReviewAt == nil,
		}
		if err := topicStore.Update(ctx, topicID, update); err != nil {
			return fmt.Errorf("failed to update topic: %w", err)
		}

		entry, err := domain.NewReviewEntry(topicID, fromColumn, transition.ToColumn, score, note)
		if err != nil {
			return fmt.Errorf("failed to build review entry: %w", err)
		}
		if err := s.reviewStore.WithTx(tx).Append(ctx, entry); err != nil {
			return fmt.Errorf("failed to append review entry: %w", err)
		}

		mastered := transition.ToColumn == domain.ColumnMastered
		xp := s.progression.XpForTransition(transition.ToColumn)
		reason := domain.XpReasonReview
		if mastered {
			reason = domain.XpReasonMastered
		}
		if _, err := s.statsService.GrantXpInTx(
			ctx, s.statsStore.WithTx(tx), userID, xp, reason, &topicID,
		); err != nil {
			return fmt.Errorf("failed to grant xp: %w", err)
		}

		topic.Column = transition.ToColumn
		topic.MasteryCount = transition.MasteryCount
		topic.NextReviewAt = transition.NextReviewAt
		topic.UpdatedAt = now
		outcome = &ReviewOutcome{
			Topic:     topic,
			XpAwarded: xp,
			Mastered:  mastered,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("review submitted",
		slog.String("topic_id", topicID.String()),
		slog.String("user_id", userID.String()),
		slog.Int("score", score),
		slog.String("to_column", string(outcome.Topic.Column)),
		slog.Bool("mastered", outcome.Mastered))
	return outcome, nil
}

// ResurfaceOverdue implements ReviewService.ResurfaceOverdue.
func (s *reviewServiceImpl) ResurfaceOverdue(
	ctx context.Context,
	topicID uuid.UUID,
	now time.Time,
) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	moved := false
	err := s.txRunner.RunInTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		topicStore := s.topicStore.WithTx(tx)

		topic, err := topicStore.GetForUpdate(ctx, topicID)
		if err != nil {
			if errors.Is(err, store.ErrTopicNotFound) {
				// Deleted between listing and locking; nothing to do.
				return nil
			}
			return fmt.Errorf("failed to lock topic: %w", err)
		}

		// Re-check under the lock: a concurrent review may have already moved
		// or rescheduled the topic.
		if topic.Column != domain.ColumnReviewing ||
			topic.NextReviewAt == nil || topic.NextReviewAt.After(now) {
			return nil
		}

		toColumn := domain.ColumnToday
		update := store.TopicUpdate{Column: &toColumn, ClearNextReview: true}
		if err := topicStore.Update(ctx, topicID, update); err != nil {
			return fmt.Errorf("failed to update topic: %w", err)
		}

		entry, err := domain.NewReschedulerEntry(topicID, domain.ColumnReviewing)
		if err != nil {
			return fmt.Errorf("failed to build rescheduler entry: %w", err)
		}
		if err := s.reviewStore.WithTx(tx).Append(ctx, entry); err != nil {
			return fmt.Errorf("failed to append rescheduler entry: %w", err)
		}

		moved = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if moved {
		log.Debug("resurfaced overdue topic", slog.String("topic_id", topicID.String()))
	}
	return moved, nil
}

// SweepOverdue implements ReviewService.SweepOverdue.
func (s *reviewServiceImpl) SweepOverdue(ctx context.Context, now time.Time) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	due, err := s.topicStore.ListDueForReview(ctx, now, s.sweepBatchLimit)
	if err != nil {
		return 0, &ServiceError{
			Operation: "sweep_overdue",
			Message:   "failed to list due topics",
			Err:       err,
		}
	}

	moved := 0
	for _, topicID := range due {
		// One short transaction per topic; stop cleanly on shutdown.
		if err := ctx.Err(); err != nil {
			log.Info("sweep interrupted",
				slog.Int("moved", moved),
				slog.Int("remaining", len(due)-moved))
			return moved, err
		}

		ok, err := s.ResurfaceOverdue(ctx, topicID, now)
		if err != nil {
			// Keep sweeping; one contended row must not stall the rest.
			log.Warn("failed to resurface topic",
				slog.String("topic_id", topicID.String()),
				slog.String("error", err.Error()))
			continue
		}
		if ok {
			moved++
		}
	}

	if moved > 0 {
		log.Info("overdue sweep complete",
			slog.Int("due", len(due)),
			slog.Int("moved", moved))
	}
	return moved, nil
}

// ListReviews implements ReviewService.ListReviews.
func (s *reviewServiceImpl) ListReviews(
	ctx context.Context,
	userID, topicID uuid.UUID,
	limit, offset int,
) ([]*domain.ReviewEntry, int, error) {
	topic, err := s.topicStore.GetByID(ctx, topicID)
	if err != nil {
		if errors.Is(err, store.ErrTopicNotFound) {
			return nil, 0, ErrTopicNotFound
		}
		return nil, 0, fmt.Errorf("failed to get topic: %w", err)
	}
	if topic.UserID != userID {
		return nil, 0, ErrTopicNotOwned
	}

	entries, total, err := s.reviewStore.ListByTopic(ctx, topicID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list reviews: %w", err)
	}
	return entries, total, nil
}

// UnitProgress implements ReviewService.UnitProgress.
func (s *reviewServiceImpl) UnitProgress(
	ctx context.Context,
	userID uuid.UUID,
) ([]store.UnitMastery, error) {
	progress, err := s.topicStore.UnitProgress(ctx, userID)
	if err != nil {
		return nil, &ServiceError{
			Operation: "unit_progress",
			Message:   "failed to aggregate unit progress",
			Err:       err,
		}
	}
	return progress, nil
}

// lockOwnedTopic locks the topic row and verifies ownership, mapping store
// errors to service errors.
func (s *reviewServiceImpl) lockOwnedTopic(
	ctx context.Context,
	topicStore store.TopicStore,
	userID, topicID uuid.UUID,
) (*domain.Topic, error) {
	topic, err := topicStore.GetForUpdate(ctx, topicID)
	if err != nil {
		if errors.Is(err, store.ErrTopicNotFound) {
			return nil, ErrTopicNotFound
		}
		return nil, fmt.Errorf("failed to lock topic: %w", err)
	}
	if topic.UserID != userID {
		return nil, ErrTopicNotOwned
	}
	return topic, nil
}
