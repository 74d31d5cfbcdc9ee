// Package config loads application configuration from environment variables.
// All variables use the AVES_ prefix.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Content  ContentConfig
	Engine   EngineConfig
	Log      LogConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int
	Host string
}

// DatabaseConfig holds PostgreSQL connection settings. An empty URL
// selects the in-memory store.
type DatabaseConfig struct {
	URL      string
	MaxConns int
	MinConns int
}

// CacheConfig holds Redis connection settings. An empty URL disables
// the exercise cache.
type CacheConfig struct {
	URL                string
	ExerciseTTLMinutes int
}

// ContentConfig holds annotation content sources.
type ContentConfig struct {
	Dir      string // directory of YAML annotation sets
	Workbook string // optional XLSX import, loaded in addition to Dir
}

// EngineConfig holds exercise engine settings.
type EngineConfig struct {
	Seed int64 // 0 seeds the generator from the clock
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables with AVES_ prefix.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("AVES_SERVER_PORT", 8080),
			Host: envStr("AVES_SERVER_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			URL:      envStr("AVES_DATABASE_URL", ""),
			MaxConns: envInt("AVES_DATABASE_MAX_CONNS", 25),
			MinConns: envInt("AVES_DATABASE_MIN_CONNS", 5),
		},
		Cache: CacheConfig{
			URL:                envStr("AVES_CACHE_URL", ""),
			ExerciseTTLMinutes: envInt("AVES_CACHE_EXERCISE_TTL_MINUTES", 60),
		},
		Content: ContentConfig{
			Dir:      envStr("AVES_CONTENT_DIR", "./content"),
			Workbook: envStr("AVES_CONTENT_WORKBOOK", ""),
		},
		Engine: EngineConfig{
			Seed: envInt64("AVES_ENGINE_SEED", 0),
		},
		Log: LogConfig{
			Level:  envStr("AVES_LOG_LEVEL", "info"),
			Format: envStr("AVES_LOG_FORMAT", "json"),
		},
	}

	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.Content.Dir == "" && c.Content.Workbook == "" {
		return fmt.Errorf("AVES_CONTENT_DIR or AVES_CONTENT_WORKBOOK is required")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("AVES_SERVER_PORT must be a valid port, got %d", c.Server.Port)
	}

	if c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("AVES_LOG_FORMAT must be 'json' or 'text', got %q", c.Log.Format)
	}

	return nil
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

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return fallback
}
