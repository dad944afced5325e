// Package config loads skyrecords server settings from SKR_* environment
// variables.
package config

import (
	"fmt"
	"os"
	"time"
)

// Supported backends.
const (
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

type Config struct {
	Backend      string // SKR_BACKEND (postgres|sqlite, default "sqlite")
	DatabaseURL  string // SKR_DATABASE_URL (required for postgres)
	SQLitePath   string // SKR_SQLITE_PATH (default "skyrecords.db")
	StorageGroup string // SKR_STORAGE_GROUP (default "root.skywalking")

	GRPCAddr  string // SKR_GRPC_ADDR (default ":9090")
	HTTPAddr  string // SKR_HTTP_ADDR (default ":8080")
	NATSURL   string // SKR_NATS_URL (optional, empty = no events)
	AuthToken string // SKR_AUTH_TOKEN (optional, empty = auth disabled)

	HealthInterval time.Duration // SKR_HEALTH_INTERVAL (default 15s)

	// Sync settings
	SyncInterval    time.Duration // SKR_SYNC_INTERVAL (default 0 = disabled)
	SyncAliasWindow time.Duration // SKR_SYNC_ALIAS_WINDOW (default 1h)
	SyncS3Bucket    string        // SKR_SYNC_S3_BUCKET (enables S3 when set)
	SyncS3Endpoint  string        // SKR_SYNC_S3_ENDPOINT (custom endpoint for MinIO)
	SyncS3Region    string        // SKR_SYNC_S3_REGION (default "us-east-1")
	SyncS3Key       string        // SKR_SYNC_S3_KEY (default "skyrecords/backup.jsonl")
	SyncGitRepo     string        // SKR_SYNC_GIT_REPO (enables git when set; path to clone)
	SyncGitFile     string        // SKR_SYNC_GIT_FILE (default "skyrecords.jsonl")
	SyncGitBranch   string        // SKR_SYNC_GIT_BRANCH (default "main")

	LogLevel  string // SKR_LOG_LEVEL (debug|info|warn|error, default "info")
	LogFormat string // SKR_LOG_FORMAT (text|json, default "text")
}

func Load() (*Config, error) {
	c := &Config{
		Backend:        envOrDefault("SKR_BACKEND", BackendSQLite),
		DatabaseURL:    os.Getenv("SKR_DATABASE_URL"),
		SQLitePath:     envOrDefault("SKR_SQLITE_PATH", "skyrecords.db"),
		StorageGroup:   envOrDefault("SKR_STORAGE_GROUP", "root.skywalking"),
		GRPCAddr:       envOrDefault("SKR_GRPC_ADDR", ":9090"),
		HTTPAddr:       envOrDefault("SKR_HTTP_ADDR", ":8080"),
		NATSURL:        os.Getenv("SKR_NATS_URL"),
		AuthToken:      os.Getenv("SKR_AUTH_TOKEN"),
		SyncS3Bucket:   os.Getenv("SKR_SYNC_S3_BUCKET"),
		SyncS3Endpoint: os.Getenv("SKR_SYNC_S3_ENDPOINT"),
		SyncS3Region:   envOrDefault("SKR_SYNC_S3_REGION", "us-east-1"),
		SyncS3Key:      envOrDefault("SKR_SYNC_S3_KEY", "skyrecords/backup.jsonl"),
		SyncGitRepo:    os.Getenv("SKR_SYNC_GIT_REPO"),
		SyncGitFile:    envOrDefault("SKR_SYNC_GIT_FILE", "skyrecords.jsonl"),
		SyncGitBranch:  envOrDefault("SKR_SYNC_GIT_BRANCH", "main"),
		LogLevel:       envOrDefault("SKR_LOG_LEVEL", "info"),
		LogFormat:      envOrDefault("SKR_LOG_FORMAT", "text"),
	}

	switch c.Backend {
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return nil, fmt.Errorf("SKR_DATABASE_URL is required when SKR_BACKEND=postgres")
		}
	case BackendSQLite:
	default:
		return nil, fmt.Errorf("SKR_BACKEND: unknown backend %q (want postgres or sqlite)", c.Backend)
	}

	var err error
	if c.HealthInterval, err = durationEnv("SKR_HEALTH_INTERVAL", "15s"); err != nil {
		return nil, err
	}
	if c.HealthInterval <= 0 {
		return nil, fmt.Errorf("SKR_HEALTH_INTERVAL must be positive")
	}
	if c.SyncInterval, err = durationEnv("SKR_SYNC_INTERVAL", "0"); err != nil {
		return nil, err
	}
	if c.SyncAliasWindow, err = durationEnv("SKR_SYNC_ALIAS_WINDOW", "1h"); err != nil {
		return nil, err
	}

	if _, err := ParseLevel(c.LogLevel); err != nil {
		return nil, fmt.Errorf("SKR_LOG_LEVEL: %w", err)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return nil, fmt.Errorf("SKR_LOG_FORMAT: unknown format %q (want text or json)", c.LogFormat)
	}

	return c, nil
}

func durationEnv(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
