package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Issuer            string // Issuer claim for tokens (default: sentinel)
	AccessSigningKey  string // Required: HS256 key for access tokens (min 32 bytes)
	RefreshSigningKey string // Required: HS256 key for refresh tokens (min 32 bytes)
	RefreshTTL        time.Duration

	LockoutThreshold int           // Failed attempts before lock (default: 5)
	LockoutDuration  time.Duration // Lock duration once engaged (default: 15m)

	GateSharedSecret string        // Required for gate toggles
	GateCodeTTL      time.Duration // Passcode validity window (default: 5m)

	DatabaseFile         string        // Path to SQLite database file (default: ./sentinel.db)
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

func LoadConfig() Config {
	return Config{
		Issuer:            getEnvOrDefault("SENTINEL_ISSUER", "sentinel"),
		AccessSigningKey:  os.Getenv("SENTINEL_ACCESS_SIGNING_KEY"),
		RefreshSigningKey: os.Getenv("SENTINEL_REFRESH_SIGNING_KEY"),
		RefreshTTL:        getEnvDurationOrDefault("SENTINEL_REFRESH_TTL", 7*24*time.Hour),

		LockoutThreshold: getEnvIntOrDefault("SENTINEL_LOCKOUT_THRESHOLD", 5),
		LockoutDuration:  getEnvDurationOrDefault("SENTINEL_LOCKOUT_DURATION", 15*time.Minute),

		GateSharedSecret: os.Getenv("SENTINEL_GATE_SHARED_SECRET"),
		GateCodeTTL:      getEnvDurationOrDefault("SENTINEL_GATE_CODE_TTL", 5*time.Minute),

		DatabaseFile:         getEnvOrDefault("SENTINEL_DATABASE_FILE", "sentinel.db"),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are taken as minutes.
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
