package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Simulated save round trip applied to every store mutation
	SaveLatency time.Duration

	// Seeding
	SeedMode  string // "none", "demo" or "random"
	SeedCount int    // transactions generated in random mode

	// Logging
	LogLevel  string
	LogFormat string // "text" or "json"

	// Derived-view cache
	CacheTTL  time.Duration
	CacheSize int

	// Rate limiting (mutations only)
	RateLimitRPM int
}

func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		SaveLatency: getEnvDuration("SAVE_LATENCY", 400*time.Millisecond),

		SeedMode:  getEnv("SEED_MODE", "demo"),
		SeedCount: getEnvInt("SEED_COUNT", 50),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		CacheTTL:  getEnvDuration("CACHE_TTL", 5*time.Minute),
		CacheSize: getEnvInt("CACHE_SIZE", 128),

		RateLimitRPM: getEnvInt("RATE_LIMIT_RPM", 60),
	}
}

// Validate checks the configuration and returns every problem at once.
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.SaveLatency < 0 {
		errs = append(errs, fmt.Sprintf("invalid save latency %v: must not be negative", c.SaveLatency))
	} else if c.SaveLatency > 5*time.Second {
		errs = append(errs, fmt.Sprintf("invalid save latency %v: must be at most 5 seconds", c.SaveLatency))
	}

	switch c.SeedMode {
	case "none", "demo", "random":
	default:
		errs = append(errs, fmt.Sprintf("invalid seed mode '%s': must be one of [none demo random]", c.SeedMode))
	}
	if c.SeedCount < 1 || c.SeedCount > 10000 {
		errs = append(errs, fmt.Sprintf("invalid seed count %d: must be between 1 and 10000", c.SeedCount))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("invalid log level '%s': must be one of [debug info warn error]", c.LogLevel))
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	if c.CacheTTL < time.Second {
		errs = append(errs, fmt.Sprintf("invalid cache TTL %v: must be at least 1 second", c.CacheTTL))
	}
	if c.CacheSize < 1 {
		errs = append(errs, fmt.Sprintf("invalid cache size %d: must be at least 1", c.CacheSize))
	}

	if c.RateLimitRPM < 1 {
		errs = append(errs, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitRPM))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
