package utils

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// IsProduction checks if the application is running in production mode.
func IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(os.Getenv("OMVSETUP_ENV")))
	return env == "production" || env == "prod"
}

// IsDevelopment checks if the application is running in development mode.
func IsDevelopment() bool {
	env := strings.ToLower(strings.TrimSpace(os.Getenv("OMVSETUP_ENV")))
	return env == "dev" || env == "development"
}

// GetEnv returns the value of key or fallback when unset or blank.
func GetEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// GetEnvInt parses key as a positive integer, returning fallback otherwise.
func GetEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

// GetEnvDuration accepts Go durations ("15s") or a bare number of seconds.
func GetEnvDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
