package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-jwt-secret-that-is-32-chars-long"

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ASCEND_DATABASE_URL", "postgres://localhost:5432/ascend_test")
	t.Setenv("ASCEND_AUTH_JWT_SECRET", testSecret)
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, 5*time.Minute, cfg.Sweep.Interval)
	assert.Equal(t, 500, cfg.Sweep.BatchLimit)
	assert.Equal(t, 2, cfg.Task.WorkerCount)
	assert.Equal(t, 100, cfg.Task.QueueSize)
	// Progression zeros keep the built-in tuning defaults.
	assert.Zero(t, cfg.Progression.MasteryThreshold)
	assert.Zero(t, cfg.Progression.SessionXp)
}

func TestLoadEnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ASCEND_SERVER_PORT", "9090")
	t.Setenv("ASCEND_SERVER_LOG_LEVEL", "debug")
	t.Setenv("ASCEND_SWEEP_INTERVAL", "30s")
	t.Setenv("ASCEND_SWEEP_BATCH_LIMIT", "50")
	t.Setenv("ASCEND_PROGRESSION_SESSION_XP", "25")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.Sweep.Interval)
	assert.Equal(t, 50, cfg.Sweep.BatchLimit)
	assert.Equal(t, 25, cfg.Progression.SessionXp)
}

func TestLoadValidation(t *testing.T) {
	t.Run("missing database url", func(t *testing.T) {
		t.Setenv("ASCEND_AUTH_JWT_SECRET", testSecret)

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("short jwt secret", func(t *testing.T) {
		t.Setenv("ASCEND_DATABASE_URL", "postgres://localhost:5432/ascend_test")
		t.Setenv("ASCEND_AUTH_JWT_SECRET", "too-short")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("unknown log level", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("ASCEND_SERVER_LOG_LEVEL", "verbose")

		_, err := Load()
		assert.Error(t, err)
	})
}
