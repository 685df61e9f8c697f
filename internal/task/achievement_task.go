package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrNilEvaluator = errors.New("achievement evaluator cannot be nil")
	ErrNilLogger    = errors.New("logger cannot be nil")
	ErrEmptyUserID  = errors.New("user ID cannot be empty")
	ErrUnknownType  = errors.New("unknown task type")
	ErrBadPayload   = errors.New("task payload does not parse")
)

// AchievementEvaluator is the slice of the achievement service the task needs.
// Evaluation is idempotent, which is what makes at-least-once task delivery
// safe here.
type AchievementEvaluator interface {
	// Evaluate records newly satisfied achievements for the user and returns
	// the keys unlocked by this call.
	Evaluate(ctx context.Context, userID uuid.UUID) ([]string, error)
}

// achievementEvaluationPayload is the serialized data stored in the task row
type achievementEvaluationPayload struct {
	UserID uuid.UUID `json:"user_id"`
}

// AchievementEvaluationTask implements the Task interface for re-running the
// achievement rule engine for one user.
type AchievementEvaluationTask struct {
	id        uuid.UUID
	userID    uuid.UUID
	evaluator AchievementEvaluator
	logger    *slog.Logger
	status    TaskStatus
}

// NewAchievementEvaluationTask creates a new achievement evaluation task
func NewAchievementEvaluationTask(
	userID uuid.UUID,
	evaluator AchievementEvaluator,
	logger *slog.Logger,
) (*AchievementEvaluationTask, error) {
	if evaluator == nil {
		return nil, ErrNilEvaluator
	}
	if logger == nil {
		return nil, ErrNilLogger
	}
	if userID == uuid.Nil {
		return nil, ErrEmptyUserID
	}

	return &AchievementEvaluationTask{
		id:        uuid.New(),
		userID:    userID,
		evaluator: evaluator,
		logger:    logger.With("task_type", TaskTypeAchievementEvaluation, "user_id", userID),
		status:    TaskStatusPending,
	}, nil
}

// ID returns the task's unique identifier
func (t *AchievementEvaluationTask) ID() uuid.UUID {
	return t.id
}

// Type returns the task type identifier
func (t *AchievementEvaluationTask) Type() string {
	return TaskTypeAchievementEvaluation
}

// Payload returns the serialized task data
func (t *AchievementEvaluationTask) Payload() []byte {
	payload := achievementEvaluationPayload{UserID: t.userID}
	data, err := json.Marshal(payload)
	if err != nil {
		// Marshaling a single UUID cannot fail; keep the interface non-erroring.
		t.logger.Error("failed to marshal payload", "error", err)
		return nil
	}
	return data
}

// Status returns the current task status
func (t *AchievementEvaluationTask) Status() TaskStatus {
	return t.status
}

// Execute runs the achievement evaluation
func (t *AchievementEvaluationTask) Execute(ctx context.Context) error {
	t.status = TaskStatusProcessing

	unlocked, err := t.evaluator.Evaluate(ctx, t.userID)
	if err != nil {
		t.status = TaskStatusFailed
		return fmt.Errorf("achievement evaluation failed: %w", err)
	}

	t.status = TaskStatusCompleted
	if len(unlocked) > 0 {
		t.logger.Info("achievement evaluation unlocked keys", "keys", unlocked)
	}
	return nil
}

// AchievementTaskFactory builds achievement evaluation tasks, both for fresh
// submissions and for rows recovered from the task store.
type AchievementTaskFactory struct {
	evaluator AchievementEvaluator
	logger    *slog.Logger
}

// Ensure the factory can rehydrate persisted rows
var _ Hydrator = (*AchievementTaskFactory)(nil)

// NewAchievementTaskFactory creates a new AchievementTaskFactory
func NewAchievementTaskFactory(
	evaluator AchievementEvaluator,
	logger *slog.Logger,
) (*AchievementTaskFactory, error) {
	if evaluator == nil {
		return nil, ErrNilEvaluator
	}
	if logger == nil {
		return nil, ErrNilLogger
	}
	return &AchievementTaskFactory{evaluator: evaluator, logger: logger}, nil
}

// NewTask creates a fresh evaluation task for the given user
func (f *AchievementTaskFactory) NewTask(userID uuid.UUID) (*AchievementEvaluationTask, error) {
	return NewAchievementEvaluationTask(userID, f.evaluator, f.logger)
}

// Hydrate implements Hydrator for achievement evaluation rows.
func (f *AchievementTaskFactory) Hydrate(
	id uuid.UUID,
	taskType string,
	payload []byte,
	status TaskStatus,
) (Task, error) {
	if taskType != TaskTypeAchievementEvaluation {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, taskType)
	}

	var decoded achievementEvaluationPayload
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}

	t, err := NewAchievementEvaluationTask(decoded.UserID, f.evaluator, f.logger)
	if err != nil {
		return nil, err
	}
	t.id = id
	t.status = status
	return t, nil
}
