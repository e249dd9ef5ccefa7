// Package config loads application configuration from environment variables.
// All variables use the PLACE_ prefix.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration.
type Config struct {
	Server            ServerConfig
	Cache             CacheConfig
	Log               LogConfig
	QuestionnairePath string
	PolicyPath        string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int
	Host string
}

// CacheConfig holds Dragonfly/Redis connection settings.
// An empty URL disables the cache and rate limiting.
type CacheConfig struct {
	URL                string
	RateLimitPerMinute int
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables with PLACE_ prefix.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("PLACE_SERVER_PORT", 8080),
			Host: envStr("PLACE_SERVER_HOST", "0.0.0.0"),
		},
		Cache: CacheConfig{
			URL:                envStr("PLACE_CACHE_URL", ""),
			RateLimitPerMinute: envInt("PLACE_RATE_LIMIT_PER_MINUTE", 30),
		},
		Log: LogConfig{
			Level:  strings.ToLower(envStr("PLACE_LOG_LEVEL", "info")),
			Format: strings.ToLower(envStr("PLACE_LOG_FORMAT", "json")),
		},
		QuestionnairePath: envStr("PLACE_QUESTIONNAIRE_PATH", ""),
		PolicyPath:        envStr("PLACE_POLICY_PATH", ""),
	}

	return cfg, nil
}

// Validate checks that configuration values are usable.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("PLACE_SERVER_PORT must be within 1..65535, got %d", c.Server.Port)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("PLACE_LOG_LEVEL must be one of debug, info, warn, error; got %q", c.Log.Level)
	}

	if c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("PLACE_LOG_FORMAT must be 'json' or 'text', got %q", c.Log.Format)
	}

	if c.Cache.RateLimitPerMinute < 0 {
		return fmt.Errorf("PLACE_RATE_LIMIT_PER_MINUTE must not be negative, got %d", c.Cache.RateLimitPerMinute)
	}

	return nil
}

// RateLimited returns true when submissions should be throttled through the cache.
func (c *Config) RateLimited() bool {
	return c.Cache.URL != "" && c.Cache.RateLimitPerMinute > 0
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
