package api

import (
	"log/slog"
	"net/http"

	"github.com/ascend-study/ascend-api/internal/api/shared"
	"github.com/ascend-study/ascend-api/internal/platform/logger"
	"github.com/ascend-study/ascend-api/internal/service/achievement"
)

// AchievementHandler handles achievement HTTP requests
type AchievementHandler struct {
	achievementService achievement.AchievementService
	logger             *slog.Logger
}

// NewAchievementHandler creates a new AchievementHandler
func NewAchievementHandler(
	achievementService achievement.AchievementService,
	logger *slog.Logger,
) *AchievementHandler {
	if achievementService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("achievementService cannot be nil for AchievementHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for AchievementHandler")
	}

	return &AchievementHandler{
		achievementService: achievementService,
		logger:             logger.With(slog.String("component", "achievement_handler")),
	}
}

// AchievementProgressResponse represents one registry entry's state for a user
type AchievementProgressResponse struct {
	Key      string `json:"key"`
	Unlocked bool   `json:"unlocked"`
	Progress int    `json:"progress"`
	Target   int    `json:"target"`
}

// AchievementListResponse represents the full registry's state for a user
type AchievementListResponse struct {
	Achievements []AchievementProgressResponse `json:"achievements"`
}

// GetProgress handles GET /achievements requests, reporting every registry
// key's unlocked state and progress without writing anything.
func (h *AchievementHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	progress, err := h.achievementService.Progress(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get achievement progress")
		return
	}

	achievements := make([]AchievementProgressResponse, 0, len(progress))
	for _, kp := range progress {
		achievements = append(achievements, AchievementProgressResponse{
			Key:      kp.Key,
			Unlocked: kp.Unlocked,
			Progress: kp.Progress,
			Target:   kp.Target,
		})
	}

	shared.RespondWithJSON(w, r, http.StatusOK, AchievementListResponse{
		Achievements: achievements,
	})
}

// EvaluateResponse represents the keys newly unlocked by a synchronous
// evaluation
type EvaluateResponse struct {
	Unlocked []string `json:"unlocked"`
}

// Evaluate handles POST /achievements/evaluate requests. Most evaluation runs
// in the background off review and purchase events; this endpoint runs it
// synchronously so clients can force a refresh.
func (h *AchievementHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	unlocked, err := h.achievementService.Evaluate(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to evaluate achievements")
		return
	}

	if len(unlocked) > 0 {
		log.Info("achievements unlocked",
			slog.String("user_id", userID.String()),
			slog.Any("keys", unlocked))
	}
	if unlocked == nil {
		unlocked = []string{}
	}
	shared.RespondWithJSON(w, r, http.StatusOK, EvaluateResponse{Unlocked: unlocked})
}
