package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "english", cfg.Extraction.Language)
	assert.Equal(t, 4, cfg.Extraction.MinLength)
	assert.Equal(t, 2, cfg.Extraction.MaxWords)
	assert.Equal(t, 100, cfg.Extraction.DefaultTopK)
	assert.Equal(t, "extract-request", cfg.Kafka.Topics.ExtractRequest)
}

func TestLoadYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte(`
server:
  port: 9000
extraction:
  defaultTopK: 25
  timeout: 5s
redis:
  enabled: false
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 25, cfg.Extraction.DefaultTopK)
	assert.Equal(t, 5*time.Second, cfg.Extraction.Timeout)
	assert.False(t, cfg.Redis.Enabled)
	// untouched sections keep their defaults
	assert.Equal(t, 2, cfg.Extraction.MaxWords)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("KE_SERVER_PORT", "7070")
	t.Setenv("KE_REDIS_ENABLED", "false")
	t.Setenv("KE_KAFKA_BROKERS", "a:9092,b:9092")
	t.Setenv("KE_EXTRACTION_TIMEOUT", "2s")
	t.Setenv("KE_SERVER_CORS_ORIGINS", " https://app.example.com , ,http://localhost:3000")
	t.Setenv("KE_SERVER_RATE_LIMIT_PER_MINUTE", "0")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 2*time.Second, cfg.Extraction.Timeout)
	assert.Equal(t, []string{"https://app.example.com", "http://localhost:3000"}, cfg.Server.CORSOrigins)
	assert.Zero(t, cfg.Server.RateLimitPerMinute)
}

func TestValidateRejectsBadExtractionSettings(t *testing.T) {
	cfg := defaultConfig()
	cfg.Extraction.MaxWords = 0
	cfg.Extraction.MaxUploadBytes = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "maxWords")
	assert.Contains(t, err.Error(), "maxUploadBytes")
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("KE_LOGGING_FILE=/tmp/extractor.log\n"), 0o644))
	t.Chdir(dir)
	t.Cleanup(func() { os.Unsetenv("KE_LOGGING_FILE") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/extractor.log", cfg.Logging.File)
}
