// Package config handles application configuration and environment loading.
package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the configuration for the pipeline, watcher, and view tool.
// It is loaded once at process start and passed to every component at
// construction; components never read the environment themselves.
type Config struct {
	// Object store (S3-compatible, e.g. MinIO).
	S3Endpoint string // host:port, no scheme
	S3KeyID    string
	S3Secret   string
	S3Region   string
	S3Bucket   string
	S3UseSSL   bool

	// DuckDB database file. Empty means in-memory.
	DBPath string

	// Table naming defaults; callers may override per run.
	ParentTable  string
	StagingTable string
	StagePrefix  string // object-store prefix acting as the load stage

	// Watcher polling interval.
	PollInterval time.Duration

	// Retry policy for object-store operations.
	RetryAttempts int
	RetryDelay    time.Duration

	LogLevel string // debug, info, warn, error (default "info")

	// Warnings collects non-fatal warnings generated during config loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LoadFromEnv loads configuration from environment variables, applying
// defaults that match a local MinIO + DuckDB setup.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		S3Endpoint:   os.Getenv("S3_ENDPOINT"),
		S3KeyID:      os.Getenv("S3_KEY_ID"),
		S3Secret:     os.Getenv("S3_SECRET"),
		S3Region:     os.Getenv("S3_REGION"),
		S3Bucket:     os.Getenv("S3_BUCKET"),
		DBPath:       os.Getenv("DB_PATH"),
		ParentTable:  os.Getenv("PARENT_TABLE"),
		StagingTable: os.Getenv("STAGING_TABLE"),
		StagePrefix:  os.Getenv("STAGE_PREFIX"),
		LogLevel:     os.Getenv("LOG_LEVEL"),
	}

	if strings.EqualFold(os.Getenv("S3_USE_SSL"), "true") {
		cfg.S3UseSSL = true
	}

	if v := os.Getenv("POLL_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("parse POLL_INTERVAL: %w", err)
		}
		cfg.PollInterval = d
	}
	if v := os.Getenv("RETRY_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("parse RETRY_ATTEMPTS: %w", err)
		}
		cfg.RetryAttempts = n
	}
	if v := os.Getenv("RETRY_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("parse RETRY_DELAY: %w", err)
		}
		cfg.RetryDelay = d
	}

	// Defaults
	if cfg.S3Endpoint == "" {
		cfg.S3Endpoint = "localhost:9000"
	}
	if cfg.S3KeyID == "" {
		cfg.S3KeyID = "minioadmin"
		cfg.Warnings = append(cfg.Warnings, "S3_KEY_ID not set — using local development default")
	}
	if cfg.S3Secret == "" {
		cfg.S3Secret = "minioadmin"
		cfg.Warnings = append(cfg.Warnings, "S3_SECRET not set — using local development default")
	}
	if cfg.S3Region == "" {
		cfg.S3Region = "us-east-1"
	}
	if cfg.S3Bucket == "" {
		cfg.S3Bucket = "etl-bucket"
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "lakeflow.duckdb"
	}
	if cfg.ParentTable == "" {
		cfg.ParentTable = "PARENT_EVENTS"
	}
	if cfg.StagingTable == "" {
		cfg.StagingTable = "STAGING_EVENTS"
	}
	if cfg.StagePrefix == "" {
		cfg.StagePrefix = "stage/"
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 60 * time.Second
	}
	if cfg.RetryAttempts == 0 {
		cfg.RetryAttempts = 3
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 5 * time.Second
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	return cfg, nil
}

// LoadDotEnv reads a .env file and sets any variables not already in the
// environment. Lines must be in KEY=VALUE format. Comments (#) and blank
// lines are skipped.
func LoadDotEnv(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // .env not found is not an error
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = stripQuotes(strings.TrimSpace(value))
		// Env vars take precedence over the .env file.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("setenv %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}

// stripQuotes removes surrounding double or single quotes from a value.
// Only strips if both the first and last characters are matching quotes.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
