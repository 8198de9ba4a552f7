package utils

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// GetEnv returns the trimmed value of key, or fallback when unset or blank.
func GetEnv(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

// GetEnvInt parses key as an int, falling back on absence or parse failure.
func GetEnvInt(key string, fallback int) int {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

// GetEnvInt64 parses key as an int64, falling back on absence or parse failure.
func GetEnvInt64(key string, fallback int64) int64 {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			return i
		}
	}
	return fallback
}

// GetEnvBool parses key with strconv.ParseBool semantics.
func GetEnvBool(key string, fallback bool) bool {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

// GetEnvDuration parses key as a time.Duration ("90s", "2m").
func GetEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}

// GetEnvFloat parses key as a float64, falling back on absence or parse failure.
func GetEnvFloat(key string, fallback float64) float64 {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return fallback
}
