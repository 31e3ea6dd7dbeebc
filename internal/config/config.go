package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds process configuration read from the environment
type Config struct {
	Port        string
	Environment string
	CORSOrigins string
	TablePrefix string
	// Storage
	DatabaseDriver string // "postgres" or "sqlite"
	DatabaseURL    string
	SQLitePath     string
	AutoMigrate    bool
	// Collaboration presence
	RedisURL           string // empty = in-process tracker
	PresenceIdleWindow time.Duration
	// Versioning policy
	PolicyFile string // optional YAML overriding embedded thresholds
	// Identity
	JWKSURL string // empty = trust X-User-ID header (dev only)
	// Logging
	LogDir      string
	LogMaxFiles int
	// Tracing
	OTelEnabled     bool
	OTelEndpoint    string // empty = stdout exporter
	OTelHeaders     string // "k=v,k2=v2"
	OTelInsecure    bool
	OTelSampleRatio float64
	// Debug flags
	Debug bool
}

// Load reads configuration from environment variables
func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")

	return &Config{
		Port:               getEnv("PORT", "8080"),
		Environment:        env,
		CORSOrigins:        getEnv("CORS_ORIGINS", "http://localhost:3000"),
		TablePrefix:        getTablePrefix(env),
		DatabaseDriver:     getEnv("DATABASE_DRIVER", "postgres"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		SQLitePath:         getEnv("SQLITE_PATH", "./data/scriptorium.db"),
		AutoMigrate:        getEnv("AUTO_MIGRATE", "true") == "true",
		RedisURL:           getEnv("REDIS_URL", ""),
		PresenceIdleWindow: getEnvDuration("PRESENCE_IDLE_WINDOW", 5*time.Minute),
		PolicyFile:         getEnv("POLICY_FILE", ""),
		JWKSURL:            getEnv("JWKS_URL", ""),
		LogDir:             getEnv("LOG_DIR", ""),
		LogMaxFiles:        getEnvInt("LOG_MAX_FILES", 10),
		OTelEnabled:        getEnvBool("OTEL_ENABLED", false),
		OTelEndpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTelHeaders:        getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""),
		OTelInsecure:       getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", false),
		OTelSampleRatio:    getEnvRatio("OTEL_SAMPLER_RATIO", 0.1),
		// Debug flags - default to true in dev/test, false in production
		Debug: getEnv("DEBUG", getDefaultDebug(env)) == "true",
	}
}

// getDefaultDebug returns the default debug setting based on environment
func getDefaultDebug(env string) string {
	if env == "prod" {
		return "false"
	}
	return "true"
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvBool(key string, defaultValue bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "":
		return defaultValue
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// getEnvRatio parses a float and clamps it to [0, 1]
func getEnvRatio(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return min(max(parsed, 0), 1)
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		return defaultValue
	}
	return parsed
}
