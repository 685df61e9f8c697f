package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"      validate:"required"`
	Database    DatabaseConfig    `mapstructure:"database"    validate:"required"`
	Auth        AuthConfig        `mapstructure:"auth"        validate:"required"`
	Sweep       SweepConfig       `mapstructure:"sweep"`
	Task        TaskConfig        `mapstructure:"task"`
	Progression ProgressionConfig `mapstructure:"progression"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// AuthConfig contains token verification settings for the API middleware.
// The engine only verifies bearer tokens issued elsewhere; it has no
// registration or login surface.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" validate:"required,min=32"`
}

// SweepConfig controls the overdue rescheduler.
type SweepConfig struct {
	// Interval between sweep runs. Zero means the default (5 minutes).
	Interval time.Duration `mapstructure:"interval"`

	// BatchLimit caps how many due topics a single run will move.
	// Zero means the default (500).
	BatchLimit int `mapstructure:"batch_limit" validate:"gte=0"`
}

// TaskConfig controls the background task runner.
type TaskConfig struct {
	WorkerCount            int           `mapstructure:"worker_count"              validate:"gte=0"`
	QueueSize              int           `mapstructure:"queue_size"                validate:"gte=0"`
	StuckTaskAge           time.Duration `mapstructure:"stuck_task_age"`
	StuckTaskCheckInterval time.Duration `mapstructure:"stuck_task_check_interval"`
}

// ProgressionConfig overrides the default progression tuning table.
// Zero values keep the defaults.
type ProgressionConfig struct {
	MasteryThreshold int `mapstructure:"mastery_threshold" validate:"gte=0"`

	ReviewXp   int `mapstructure:"review_xp"   validate:"gte=0"`
	MasteryXp  int `mapstructure:"mastery_xp"  validate:"gte=0"`
	PurchaseXp int `mapstructure:"purchase_xp" validate:"gte=0"`
	SessionXp  int `mapstructure:"session_xp"  validate:"gte=0"`

	PrestigeBase                int `mapstructure:"prestige_base"                 validate:"gte=0"`
	PrestigeHighDifficultyBonus int `mapstructure:"prestige_high_difficulty_bonus" validate:"gte=0"`
}
