// Package config loads ragdex configuration and sets up logging.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration values.
type Config struct {
	// File search service
	ServerURL      string        `yaml:"server_url"`
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// Client-side rate limiting
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	RequestBurst      int     `yaml:"request_burst"`

	// Durable client state (active store, tracked operations)
	DataDir string `yaml:"data_dir"`

	// Query defaults
	MaxChunks   int     `yaml:"max_chunks"`
	Temperature float64 `yaml:"temperature"`

	// Logging
	LogFile string `yaml:"log_file"`
	// LogLevelName is the raw level from file/env; parsed into LogLevel.
	LogLevelName string     `yaml:"log_level"`
	LogLevel     slog.Level `yaml:"-"`
}

// Load reads configuration from an optional YAML file overlaid by
// environment variables. Environment variables always win.
func Load() Config {
	cfg := defaults()

	if path := configFilePath(); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			// A broken config file should not prevent startup.
			fmt.Fprintf(os.Stderr, "Warning: ignoring config file %s: %v\n", path, err)
		}
	}

	applyEnv(&cfg)
	cfg.LogLevel = parseLogLevel(cfg.LogLevelName)
	return cfg
}

func defaults() Config {
	dataDir := ""
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".ragdex")
	}
	return Config{
		ServerURL:         "http://localhost:8000",
		RequestTimeout:    60 * time.Second,
		RequestsPerSecond: 5.0,
		RequestBurst:      10,
		DataDir:           dataDir,
		MaxChunks:         16,
		Temperature:       0.3,
		LogFile:           filepath.Join(os.TempDir(), "ragdex.log"),
		LogLevelName:      "INFO",
	}
}

// configFilePath returns the config file location, or "" if none exists.
// RAGDEX_CONFIG overrides the default ~/.config/ragdex/config.yaml.
func configFilePath() string {
	if path := os.Getenv("RAGDEX_CONFIG"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	path := filepath.Join(home, ".config", "ragdex", "config.yaml")
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func applyEnv(cfg *Config) {
	cfg.ServerURL = getEnv("RAGDEX_SERVER_URL", cfg.ServerURL)
	cfg.DataDir = getEnv("RAGDEX_DATA_DIR", cfg.DataDir)
	cfg.LogFile = getEnv("RAGDEX_LOG_FILE", cfg.LogFile)
	cfg.LogLevelName = getEnv("RAGDEX_LOG_LEVEL", cfg.LogLevelName)

	if v := os.Getenv("RAGDEX_REQUEST_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.RequestTimeout = d
		}
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
