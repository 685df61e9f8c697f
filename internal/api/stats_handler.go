package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/ascend-study/ascend-api/internal/api/shared"
	"github.com/ascend-study/ascend-api/internal/domain"
	"github.com/ascend-study/ascend-api/internal/events"
	"github.com/ascend-study/ascend-api/internal/platform/logger"
	"github.com/ascend-study/ascend-api/internal/service/stats"
)

// StatsHandler handles progression stats and study session HTTP requests
type StatsHandler struct {
	statsService stats.StatsService
	eventEmitter events.EventEmitter
	sessionXp    int
	logger       *slog.Logger
}

// NewStatsHandler creates a new StatsHandler. sessionXp is the XP award for
// completing a study session; zero disables the award.
func NewStatsHandler(
	statsService stats.StatsService,
	eventEmitter events.EventEmitter,
	sessionXp int,
	logger *slog.Logger,
) *StatsHandler {
	if statsService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("statsService cannot be nil for StatsHandler")
	}
	if eventEmitter == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("eventEmitter cannot be nil for StatsHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for StatsHandler")
	}

	return &StatsHandler{
		statsService: statsService,
		eventEmitter: eventEmitter,
		sessionXp:    sessionXp,
		logger:       logger.With(slog.String("component", "stats_handler")),
	}
}

// GetStats handles GET /stats requests.
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	userStats, err := h.statsService.Get(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get stats")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, statsToResponse(userStats))
}

// SessionResponse represents the outcome of completing a study session
type SessionResponse struct {
	Stats     StatsResponse `json:"stats"`
	XpAwarded int           `json:"xp_awarded"`
}

// CompleteSession handles POST /sessions/complete requests. Streak
// bookkeeping happens here, once per session, rather than on individual
// reviews: the streak counts days studied, not answers given.
func (h *StatsHandler) CompleteSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	userStats, err := h.statsService.TouchStreak(r.Context(), userID, time.Now().UTC())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to record session")
		return
	}

	xpAwarded := 0
	if h.sessionXp > 0 {
		userStats, err = h.statsService.GrantXp(
			r.Context(),
			userID,
			h.sessionXp,
			domain.XpReasonSessionCompleted,
			nil,
		)
		if err != nil {
			HandleAPIError(w, r, err, "Failed to award session XP")
			return
		}
		xpAwarded = h.sessionXp
	}

	requestAchievementEvaluation(r.Context(), h.eventEmitter, userID, log)

	log.Debug("session completed",
		slog.String("user_id", userID.String()),
		slog.Int("current_streak", userStats.CurrentStreak),
		slog.Int("xp_awarded", xpAwarded))
	shared.RespondWithJSON(w, r, http.StatusOK, SessionResponse{
		Stats:     statsToResponse(userStats),
		XpAwarded: xpAwarded,
	})
}
