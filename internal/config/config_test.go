package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CORE_BASE_URL", "http://core.local")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.HTTPPort != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.HTTPPort)
	}
	if cfg.BatchSize != 500 {
		t.Errorf("expected default batch size 500, got %d", cfg.BatchSize)
	}
	if cfg.FailFastThresholdPercent != 10 {
		t.Errorf("expected default threshold 10, got %v", cfg.FailFastThresholdPercent)
	}
	if cfg.FailFastSampleSize != 100 {
		t.Errorf("expected default sample 100, got %d", cfg.FailFastSampleSize)
	}
	if cfg.JobStateTTL != 24*time.Hour {
		t.Errorf("expected job TTL 24h, got %v", cfg.JobStateTTL)
	}
	if cfg.ValidationCacheTTL != 7*24*time.Hour {
		t.Errorf("expected cache TTL 7d, got %v", cfg.ValidationCacheTTL)
	}
	if cfg.FileRetention != 7*24*time.Hour {
		t.Errorf("expected retention 7d, got %v", cfg.FileRetention)
	}
	if cfg.PresignedURLExpiry != 15*time.Minute {
		t.Errorf("expected presigned expiry 15m, got %v", cfg.PresignedURLExpiry)
	}
	if cfg.CoreTimeout != 30*time.Second {
		t.Errorf("expected core timeout 30s, got %v", cfg.CoreTimeout)
	}
	if cfg.MaxFileSizeMB != 10 {
		t.Errorf("expected max file size 10MB, got %d", cfg.MaxFileSizeMB)
	}
	if cfg.StoreBackend != StoreMemory {
		t.Errorf("expected memory backend, got %s", cfg.StoreBackend)
	}
}

func TestLoadRequiresCoreBaseURL(t *testing.T) {
	t.Setenv("CORE_BASE_URL", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error without CORE_BASE_URL")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CORE_BASE_URL", "http://core.local")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("BATCH_SIZE", "100")
	t.Setenv("FAIL_FAST_THRESHOLD_PERCENT", "25.5")
	t.Setenv("STORE_BACKEND", "redis")
	t.Setenv("MOCK_IDENTITY", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPPort != 9090 || cfg.BatchSize != 100 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.FailFastThresholdPercent != 25.5 {
		t.Errorf("expected threshold 25.5, got %v", cfg.FailFastThresholdPercent)
	}
	if cfg.StoreBackend != StoreRedis {
		t.Errorf("expected redis backend, got %s", cfg.StoreBackend)
	}
	if !cfg.MockIdentity {
		t.Error("expected mock identity enabled")
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"HTTP_PORT", "not-a-number"},
		{"BATCH_SIZE", "0"},
		{"FAIL_FAST_THRESHOLD_PERCENT", "150"},
		{"STORE_BACKEND", "etcd"},
	}
	for _, tc := range tests {
		t.Run(tc.key, func(t *testing.T) {
			t.Setenv("CORE_BASE_URL", "http://core.local")
			t.Setenv(tc.key, tc.value)
			if _, err := Load(); err == nil {
				t.Errorf("expected error for %s=%s", tc.key, tc.value)
			}
		})
	}
}

func TestLoadPostgresRequiresDatabaseURL(t *testing.T) {
	t.Setenv("CORE_BASE_URL", "http://core.local")
	t.Setenv("STORE_BACKEND", "postgres")
	t.Setenv("DATABASE_URL", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error without DATABASE_URL")
	}
}
