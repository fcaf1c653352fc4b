package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable LoadFromEnv reads so defaults apply.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"S3_ENDPOINT", "S3_KEY_ID", "S3_SECRET", "S3_REGION", "S3_BUCKET",
		"S3_USE_SSL", "DB_PATH", "PARENT_TABLE", "STAGING_TABLE",
		"STAGE_PREFIX", "POLL_INTERVAL", "RETRY_ATTEMPTS", "RETRY_DELAY",
		"LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "localhost:9000", cfg.S3Endpoint)
	assert.Equal(t, "etl-bucket", cfg.S3Bucket)
	assert.Equal(t, "us-east-1", cfg.S3Region)
	assert.Equal(t, "PARENT_EVENTS", cfg.ParentTable)
	assert.Equal(t, "STAGING_EVENTS", cfg.StagingTable)
	assert.Equal(t, "stage/", cfg.StagePrefix)
	assert.Equal(t, 60*time.Second, cfg.PollInterval)
	assert.Equal(t, 3, cfg.RetryAttempts)
	assert.Equal(t, 5*time.Second, cfg.RetryDelay)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadFromEnv_DefaultCredentialWarnings(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Len(t, cfg.Warnings, 2)
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("S3_ENDPOINT", "minio.internal:9000")
	t.Setenv("S3_KEY_ID", "key")
	t.Setenv("S3_SECRET", "secret")
	t.Setenv("S3_BUCKET", "ingest")
	t.Setenv("POLL_INTERVAL", "30s")
	t.Setenv("RETRY_ATTEMPTS", "5")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "minio.internal:9000", cfg.S3Endpoint)
	assert.Equal(t, "ingest", cfg.S3Bucket)
	assert.Equal(t, 30*time.Second, cfg.PollInterval)
	assert.Equal(t, 5, cfg.RetryAttempts)
	assert.Empty(t, cfg.Warnings)
}

func TestLoadFromEnv_BadDuration(t *testing.T) {
	t.Setenv("POLL_INTERVAL", "sometimes")
	_, err := LoadFromEnv()
	assert.Error(t, err)
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			cfg := &Config{LogLevel: tt.level}
			assert.Equal(t, tt.want, cfg.SlogLevel())
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "# comment\nDOTENV_TEST_A=hello\nDOTENV_TEST_B=\"quoted\"\n\nnot a pair\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv("DOTENV_TEST_A", "")
	t.Setenv("DOTENV_TEST_B", "")

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "hello", os.Getenv("DOTENV_TEST_A"))
	assert.Equal(t, "quoted", os.Getenv("DOTENV_TEST_B"))
}

func TestLoadDotEnv_EnvTakesPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("DOTENV_TEST_C=fromfile\n"), 0o644))

	t.Setenv("DOTENV_TEST_C", "fromenv")
	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "fromenv", os.Getenv("DOTENV_TEST_C"))
}

func TestLoadDotEnv_MissingFile(t *testing.T) {
	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "nope.env")))
}
