package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/ascend-study/ascend-api/internal/api/shared"
	"github.com/ascend-study/ascend-api/internal/platform/logger"
	"github.com/ascend-study/ascend-api/internal/service/review"
)

// AdminHandler handles operational HTTP requests
type AdminHandler struct {
	reviewService review.ReviewService
	logger        *slog.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(reviewService review.ReviewService, logger *slog.Logger) *AdminHandler {
	if reviewService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("reviewService cannot be nil for AdminHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for AdminHandler")
	}

	return &AdminHandler{
		reviewService: reviewService,
		logger:        logger.With(slog.String("component", "admin_handler")),
	}
}

// SweepResponse reports how many overdue topics a sweep resurfaced
type SweepResponse struct {
	Resurfaced int `json:"resurfaced"`
}

// Sweep handles POST /admin/sweep requests, running the overdue sweep
// immediately instead of waiting for the background interval.
func (h *AdminHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	moved, err := h.reviewService.SweepOverdue(r.Context(), time.Now().UTC())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to sweep overdue topics")
		return
	}

	log.Info("manual overdue sweep completed", slog.Int("resurfaced", moved))
	shared.RespondWithJSON(w, r, http.StatusOK, SweepResponse{Resurfaced: moved})
}
