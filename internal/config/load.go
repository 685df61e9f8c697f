package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads configuration from environment variables and an optional config
// file. Environment variables (prefixed ASCEND_, nested keys joined with _)
// take precedence over file values. Returns a populated Config or an error
// if loading or validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Optional config file: ./config.yaml, overridable via ASCEND_CONFIG_PATH.
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if path := v.GetString("config_path"); path != "" {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("ASCEND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine; env-only deployments are supported.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers default values so viper knows every key exists,
// which is what makes AutomaticEnv pick the keys up without binding each one.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("database.url", "")

	v.SetDefault("auth.jwt_secret", "")

	v.SetDefault("sweep.interval", "5m")
	v.SetDefault("sweep.batch_limit", 500)

	v.SetDefault("task.worker_count", 2)
	v.SetDefault("task.queue_size", 100)
	v.SetDefault("task.stuck_task_age", "30m")
	v.SetDefault("task.stuck_task_check_interval", "5m")

	v.SetDefault("progression.mastery_threshold", 0)
	v.SetDefault("progression.review_xp", 0)
	v.SetDefault("progression.mastery_xp", 0)
	v.SetDefault("progression.purchase_xp", 0)
	v.SetDefault("progression.session_xp", 0)
	v.SetDefault("progression.prestige_base", 0)
	v.SetDefault("progression.prestige_high_difficulty_bonus", 0)
}
