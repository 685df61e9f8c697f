package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/ascend-study/ascend-api/internal/config"
	"github.com/ascend-study/ascend-api/internal/domain/progression"
	"github.com/ascend-study/ascend-api/internal/events"
	"github.com/ascend-study/ascend-api/internal/platform/postgres"
	"github.com/ascend-study/ascend-api/internal/service/achievement"
	"github.com/ascend-study/ascend-api/internal/service/auth"
	"github.com/ascend-study/ascend-api/internal/service/economy"
	"github.com/ascend-study/ascend-api/internal/service/review"
	"github.com/ascend-study/ascend-api/internal/service/stats"
	"github.com/ascend-study/ascend-api/internal/store"
	"github.com/ascend-study/ascend-api/internal/task"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	// Stores
	topicStore       store.TopicStore
	reviewStore      store.ReviewStore
	walletStore      store.WalletStore
	statsStore       store.StatsStore
	achievementStore store.AchievementStore
	taskStore        task.TaskStore

	// Services
	jwtService         auth.JWTService
	progressionService progression.Service
	statsService       stats.StatsService
	reviewService      review.ReviewService
	economyService     economy.EconomyService
	achievementService achievement.AchievementService

	// Event system
	eventEmitter events.EventEmitter

	// Background processing
	taskRunner *task.TaskRunner
	sweeper    *task.Sweeper
}

// newApplication creates a new application instance with all dependencies
// initialized. It accepts core dependencies like configuration, logger, and
// database connection that must be established before initialization.
func newApplication(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	db *sql.DB,
) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}

	// Progression tuning: defaults overridden by config.
	params := progression.NewParams(progression.ParamsConfig{
		MasteryThreshold:            cfg.Progression.MasteryThreshold,
		ReviewXp:                    cfg.Progression.ReviewXp,
		MasteryXp:                   cfg.Progression.MasteryXp,
		PurchaseXp:                  cfg.Progression.PurchaseXp,
		SessionXp:                   cfg.Progression.SessionXp,
		PrestigeBase:                cfg.Progression.PrestigeBase,
		PrestigeHighDifficultyBonus: cfg.Progression.PrestigeHighDifficultyBonus,
	})
	app.progressionService = progression.NewServiceWithParams(params)

	// Stores
	app.topicStore = postgres.NewPostgresTopicStore(db, logger)
	app.reviewStore = postgres.NewPostgresReviewStore(db, logger)
	app.walletStore = postgres.NewPostgresWalletStore(db, logger)
	app.statsStore = postgres.NewPostgresStatsStore(db, logger)
	app.achievementStore = postgres.NewPostgresAchievementStore(db, logger)

	txRunner := store.NewSQLRunner(db)

	// Services
	app.statsService = stats.NewStatsService(txRunner, app.statsStore, logger)
	app.reviewService = review.NewReviewService(
		txRunner,
		app.topicStore,
		app.reviewStore,
		app.statsStore,
		app.statsService,
		app.progressionService,
		cfg.Sweep.BatchLimit,
		logger,
	)
	app.economyService = economy.NewEconomyService(
		txRunner,
		app.topicStore,
		app.walletStore,
		app.statsStore,
		app.statsService,
		app.progressionService,
		logger,
	)
	app.achievementService, err = achievement.NewAchievementService(
		app.achievementStore,
		achievement.DefaultRegistry(),
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create achievement service: %w", err)
	}

	// Background achievement evaluation: the task store rehydrates persisted
	// rows through the factory, and the event handler bridges emitted events
	// to the runner.
	taskFactory, err := task.NewAchievementTaskFactory(app.achievementService, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create task factory: %w", err)
	}
	app.taskStore = postgres.NewPostgresTaskStore(db, taskFactory)

	app.taskRunner = task.NewTaskRunner(app.taskStore, task.TaskRunnerConfig{
		WorkerCount:            cfg.Task.WorkerCount,
		QueueSize:              cfg.Task.QueueSize,
		StuckTaskAge:           cfg.Task.StuckTaskAge,
		StuckTaskCheckInterval: cfg.Task.StuckTaskCheckInterval,
	}, logger)
	if err := app.taskRunner.Start(); err != nil {
		return nil, fmt.Errorf("failed to start task runner: %w", err)
	}

	emitter := events.NewInMemoryEventEmitter(logger)
	emitter.RegisterHandler(task.NewAchievementEventHandler(taskFactory, app.taskRunner, logger))
	app.eventEmitter = emitter

	// Overdue rescheduler
	app.sweeper = task.NewSweeper(app.reviewService, cfg.Sweep.Interval, logger)
	app.sweeper.Start()

	logger.Info("Application initialized successfully")
	return app, nil
}

// Run starts the application server, handling lifecycle and cleanup.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.sweeper != nil {
		app.sweeper.Stop()
	}

	if app.taskRunner != nil {
		app.taskRunner.Stop()
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
