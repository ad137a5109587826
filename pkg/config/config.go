// Package config loads the server configuration from an optional YAML file.
package config

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all server options.
type Config struct {
	// Addr is the listen address of the HTTP server.
	Addr string `yaml:"addr"`

	// SessionRoot is the base directory for per-user session storage.
	SessionRoot string `yaml:"session_root"`

	// User is the fixed identity every request acts as. Real
	// authentication is out of scope; login always returns this value.
	User string `yaml:"user"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Addr:        ":8080",
		SessionRoot: "sessions",
		User:        "testuser",
		LogLevel:    "info",
	}
}

// Load reads the YAML file at path over the defaults. An empty path or a
// missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// SlogLevel maps the configured level name to a slog.Level, defaulting to
// info for unknown names.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
