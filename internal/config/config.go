// Package config handles environment variable loading for ports, store
// backends, pipeline tuning, etc.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Store backend selectors for STORE_BACKEND.
const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// Config holds all configuration values for the application.
type Config struct {
	// HTTP server port for the API
	HTTPPort int

	// Base URL of the Enterprise Core service
	CoreBaseURL string

	// Per-request timeout against Core
	CoreTimeout time.Duration

	// Total attempts per Core batch request
	RetryAttempts int

	// Upload limits and pipeline tuning
	MaxFileSizeMB            int
	BatchSize                int
	FailFastThresholdPercent float64
	FailFastSampleSize       int

	// TTLs and retention
	JobStateTTL        time.Duration
	ValidationCacheTTL time.Duration
	FileRetention      time.Duration
	PresignedURLExpiry time.Duration

	// Job store backend: memory, redis, or postgres
	StoreBackend string
	RedisAddr    string
	DatabaseURL  string

	// Directory for uploaded files and error reports
	StorageDir string

	// Optional YAML file replacing the built-in error mapping table
	ErrorMappingsFile string

	// Identification algorithm for the static rules profile
	RulesAlgorithm string

	// When set, unauthenticated requests get a mock identity. Development
	// convenience only.
	MockIdentity bool
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		CoreBaseURL:       os.Getenv("CORE_BASE_URL"),
		StoreBackend:      envOrDefault("STORE_BACKEND", StoreMemory),
		RedisAddr:         envOrDefault("REDIS_ADDR", "localhost:6379"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		StorageDir:        envOrDefault("STORAGE_DIR", "./data"),
		ErrorMappingsFile: os.Getenv("ERROR_MAPPINGS_FILE"),
		RulesAlgorithm:    os.Getenv("RULES_ALGORITHM"),
		MockIdentity:      os.Getenv("MOCK_IDENTITY") == "true",
	}

	if cfg.CoreBaseURL == "" {
		return nil, fmt.Errorf("CORE_BASE_URL is required")
	}

	switch cfg.StoreBackend {
	case StoreMemory, StoreRedis:
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for the postgres store backend")
		}
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}

	var err error
	if cfg.HTTPPort, err = intEnv("HTTP_PORT", 8080); err != nil {
		return nil, err
	}
	if cfg.RetryAttempts, err = intEnv("RETRY_ATTEMPTS", 3); err != nil {
		return nil, err
	}
	if cfg.MaxFileSizeMB, err = intEnv("MAX_FILE_SIZE_MB", 10); err != nil {
		return nil, err
	}
	if cfg.BatchSize, err = intEnv("BATCH_SIZE", 500); err != nil {
		return nil, err
	}
	if cfg.FailFastSampleSize, err = intEnv("FAIL_FAST_SAMPLE_SIZE", 100); err != nil {
		return nil, err
	}
	if cfg.FailFastThresholdPercent, err = floatEnv("FAIL_FAST_THRESHOLD_PERCENT", 10); err != nil {
		return nil, err
	}

	coreTimeoutSecs, err := intEnv("CORE_TIMEOUT_SECONDS", 30)
	if err != nil {
		return nil, err
	}
	cfg.CoreTimeout = time.Duration(coreTimeoutSecs) * time.Second

	jobTTLHours, err := intEnv("JOB_STATE_TTL_HOURS", 24)
	if err != nil {
		return nil, err
	}
	cfg.JobStateTTL = time.Duration(jobTTLHours) * time.Hour

	cacheTTLDays, err := intEnv("VALIDATION_CACHE_TTL_DAYS", 7)
	if err != nil {
		return nil, err
	}
	cfg.ValidationCacheTTL = time.Duration(cacheTTLDays) * 24 * time.Hour

	retentionDays, err := intEnv("FILE_RETENTION_DAYS", 7)
	if err != nil {
		return nil, err
	}
	cfg.FileRetention = time.Duration(retentionDays) * 24 * time.Hour

	presignedMins, err := intEnv("PRESIGNED_URL_EXPIRATION_MINUTES", 15)
	if err != nil {
		return nil, err
	}
	cfg.PresignedURLExpiry = time.Duration(presignedMins) * time.Minute

	if cfg.BatchSize < 1 {
		return nil, fmt.Errorf("BATCH_SIZE must be at least 1")
	}
	if cfg.FailFastThresholdPercent < 0 || cfg.FailFastThresholdPercent > 100 {
		return nil, fmt.Errorf("FAIL_FAST_THRESHOLD_PERCENT must be between 0 and 100")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func floatEnv(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}
