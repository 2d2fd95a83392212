package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.APIPort)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, "localhost", cfg.RedisHost)
	assert.Equal(t, 6379, cfg.RedisPort)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL())
	assert.Equal(t, "http", cfg.PneumaEngine)
	assert.Equal(t, "default", cfg.PneumaDefaultIndex)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "query_events", cfg.RabbitQueue)
	assert.True(t, cfg.EnableMetrics)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SESSION_EXPIRE_HOURS", "2")
	t.Setenv("REDIS_HOST", "redis.internal")
	t.Setenv("PNEUMA_ENGINE", " Fixture ")
	t.Setenv("API_PREFIX", "/v2/")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 2*time.Hour, cfg.SessionTTL())
	assert.Equal(t, "redis.internal", cfg.RedisHost)
	assert.Equal(t, "fixture", cfg.PneumaEngine)
	assert.Equal(t, "/v2", cfg.APIPrefix)
}

func TestLoad_ClampsInvalidValues(t *testing.T) {
	t.Setenv("SESSION_EXPIRE_HOURS", "-1")
	t.Setenv("PNEUMA_WORKERS", "1000")
	t.Setenv("WORKER_CONCURRENCY", "80")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 24, cfg.SessionExpireHours)
	assert.Equal(t, 4, cfg.PneumaWorkers)
	assert.Equal(t, 50, cfg.WorkerConcurrency)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pneuma.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_port: 9100\npneuma_default_index: chicago_data\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.APIPort)
	assert.Equal(t, "chicago_data", cfg.PneumaDefaultIndex)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
