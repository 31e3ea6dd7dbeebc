package config

import (
	"testing"
	"time"
)

func TestGetTablePrefix(t *testing.T) {
	tests := []struct {
		name     string
		env      string
		override string
		want     string
	}{
		{name: "prod", env: "prod", want: "prod_"},
		{name: "test", env: "test", want: "test_"},
		{name: "dev", env: "dev", want: "dev_"},
		{name: "unknown falls back to dev", env: "staging", want: "dev_"},
		{name: "explicit override wins", env: "prod", override: "custom_", want: "custom_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TABLE_PREFIX", tt.override)
			if got := getTablePrefix(tt.env); got != tt.want {
				t.Errorf("getTablePrefix(%q) = %q, want %q", tt.env, got, tt.want)
			}
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"ENVIRONMENT", "DATABASE_DRIVER", "PRESENCE_IDLE_WINDOW", "REDIS_URL", "TABLE_PREFIX", "DEBUG"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Environment != "dev" {
		t.Errorf("Environment = %s, want dev", cfg.Environment)
	}
	if cfg.DatabaseDriver != "postgres" {
		t.Errorf("DatabaseDriver = %s, want postgres", cfg.DatabaseDriver)
	}
	if cfg.PresenceIdleWindow != 5*time.Minute {
		t.Errorf("PresenceIdleWindow = %v, want 5m", cfg.PresenceIdleWindow)
	}
	if cfg.RedisURL != "" {
		t.Errorf("RedisURL = %q, want empty", cfg.RedisURL)
	}
	if !cfg.Debug {
		t.Error("Debug should default to true outside prod")
	}
}

func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{name: "unset uses default", value: "", want: time.Minute},
		{name: "valid duration", value: "90s", want: 90 * time.Second},
		{name: "garbage uses default", value: "soon", want: time.Minute},
		{name: "negative uses default", value: "-5m", want: time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SCRIPTORIUM_TEST_DURATION", tt.value)
			if got := getEnvDuration("SCRIPTORIUM_TEST_DURATION", time.Minute); got != tt.want {
				t.Errorf("getEnvDuration = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetEnvRatio(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  float64
	}{
		{name: "unset uses default", value: "", want: 0.1},
		{name: "in range", value: "0.5", want: 0.5},
		{name: "clamped high", value: "3", want: 1},
		{name: "clamped low", value: "-1", want: 0},
		{name: "garbage uses default", value: "half", want: 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SCRIPTORIUM_TEST_RATIO", tt.value)
			if got := getEnvRatio("SCRIPTORIUM_TEST_RATIO", 0.1); got != tt.want {
				t.Errorf("getEnvRatio = %v, want %v", got, tt.want)
			}
		})
	}
}
