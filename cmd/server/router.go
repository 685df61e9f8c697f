package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ascend-study/ascend-api/internal/api"
	apiMiddleware "github.com/ascend-study/ascend-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes
// and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	topicHandler := api.NewTopicHandler(app.reviewService, app.eventEmitter, app.logger)
	economyHandler := api.NewEconomyHandler(app.economyService, app.eventEmitter, app.logger)
	statsHandler := api.NewStatsHandler(
		app.statsService,
		app.eventEmitter,
		app.progressionService.SessionXp(),
		app.logger,
	)
	achievementHandler := api.NewAchievementHandler(app.achievementService, app.logger)
	adminHandler := api.NewAdminHandler(app.reviewService, app.logger)

	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			// Topic pipeline endpoints
			r.Post("/topics", topicHandler.CreateTopic)
			r.Post("/topics/{id}/assign", topicHandler.AssignToToday)
			r.Post("/topics/{id}/review", topicHandler.SubmitReview)
			r.Get("/topics/{id}/reviews", topicHandler.ListReviews)
			r.Get("/progress/units", topicHandler.UnitProgress)

			// Economy endpoints
			r.Get("/topics/{id}/cost", economyHandler.GetCost)
			r.Post("/topics/{id}/purchase", economyHandler.Purchase)
			r.Get("/wallet", economyHandler.GetWallet)
			r.Get("/wallet/transactions", economyHandler.ListTransactions)
			r.Post("/wallet/earn", economyHandler.Earn)

			// Stats and session endpoints
			r.Get("/stats", statsHandler.GetStats)
			r.Post("/sessions/complete", statsHandler.CompleteSession)

			// Achievement endpoints
			r.Get("/achievements", achievementHandler.GetProgress)
			r.Post("/achievements/evaluate", achievementHandler.Evaluate)

			// Operational endpoints
			r.Post("/admin/sweep", adminHandler.Sweep)
		})
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
