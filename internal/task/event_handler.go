package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ascend-study/ascend-api/internal/events"
)

// TaskSubmitter is the slice of the runner the event handler needs.
type TaskSubmitter interface {
	// Submit persists and queues a task for background execution
	Submit(ctx context.Context, task Task) error
}

// AchievementEventHandler turns achievement-evaluation request events into
// persisted background tasks. API handlers emit events instead of talking to
// the runner directly, which keeps request handling decoupled from task
// plumbing.
type AchievementEventHandler struct {
	factory   *AchievementTaskFactory
	submitter TaskSubmitter
	logger    *slog.Logger
}

// Ensure AchievementEventHandler implements events.EventHandler
var _ events.EventHandler = (*AchievementEventHandler)(nil)

// NewAchievementEventHandler creates an event handler that builds evaluation
// tasks with the given factory and submits them to the runner.
func NewAchievementEventHandler(
	factory *AchievementTaskFactory,
	submitter TaskSubmitter,
	logger *slog.Logger,
) *AchievementEventHandler {
	return &AchievementEventHandler{
		factory:   factory,
		submitter: submitter,
		logger:    logger.With("component", "achievement_event_handler"),
	}
}

// HandleEvent processes achievement evaluation request events. Events of any
// other type are ignored so additional handlers can share the emitter.
func (h *AchievementEventHandler) HandleEvent(
	ctx context.Context,
	event *events.TaskRequestEvent,
) error {
	if event.Type != TaskTypeAchievementEvaluation {
		h.logger.Debug("ignoring event with unsupported type",
			"event_type", event.Type,
			"event_id", event.ID)
		return nil
	}

	var payload achievementEvaluationPayload
	if err := event.UnmarshalPayload(&payload); err != nil {
		h.logger.Error("failed to unmarshal payload", "error", err, "event_id", event.ID)
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	t, err := h.factory.NewTask(payload.UserID)
	if err != nil {
		h.logger.Error("failed to create task", "error", err, "event_id", event.ID)
		return fmt.Errorf("failed to create task: %w", err)
	}

	if err := h.submitter.Submit(ctx, t); err != nil {
		h.logger.Error("failed to submit task",
			"error", err,
			"event_id", event.ID,
			"task_id", t.ID())
		return fmt.Errorf("failed to submit task: %w", err)
	}

	h.logger.Debug("achievement evaluation task submitted",
		"event_id", event.ID,
		"task_id", t.ID(),
		"user_id", payload.UserID)
	return nil
}
