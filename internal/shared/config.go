package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
//
// Values may be overridden with MARQUEE_* environment variables.
type Config struct {
	API      APIConfig      `toml:"api"`
	Session  SessionConfig  `toml:"session"`
	Database DatabaseConfig `toml:"database"`
	Search   SearchConfig   `toml:"search"`
	Log      LogConfig      `toml:"log"`
}

// APIConfig describes how to reach the catalog backend.
type APIConfig struct {
	BaseURL        string  `toml:"base_url" env:"MARQUEE_API_URL" validate:"required,url"`
	TimeoutSeconds int     `toml:"timeout_seconds" env:"MARQUEE_API_TIMEOUT" validate:"min=0,max=300"`
	RateLimit      float64 `toml:"rate_limit" env:"MARQUEE_RATE_LIMIT" validate:"gte=0"`
	RateBurst      int     `toml:"rate_burst" env:"MARQUEE_RATE_BURST" validate:"gte=0"`
}

// SessionConfig selects where the session token is persisted.
type SessionConfig struct {
	Backend string `toml:"backend" env:"MARQUEE_SESSION_BACKEND" validate:"required,oneof=sqlite file memory"`
	Path    string `toml:"path" env:"MARQUEE_SESSION_PATH" validate:"required_if=Backend file"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path" env:"MARQUEE_DB_PATH" validate:"required"`
	MaxOpenConns int    `toml:"max_open_conns" validate:"gte=0"`
	MaxIdleConns int    `toml:"max_idle_conns" validate:"gte=0"`
}

// SearchConfig controls the interactive search pipeline.
type SearchConfig struct {
	DebounceMS   int    `toml:"debounce_ms" env:"MARQUEE_DEBOUNCE_MS" validate:"min=0,max=5000"`
	DefaultGenre string `toml:"default_genre"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level" env:"MARQUEE_LOG_LEVEL" validate:"omitempty,oneof=debug info warn error"`
	File  string `toml:"file" env:"MARQUEE_LOG_FILE"`
}

// Timeout returns the configured per-request timeout.
func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Debounce returns the configured debounce window.
func (c SearchConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the values of [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// Load resolves the effective configuration: the file at path when present, otherwise defaults,
// then environment overrides, then validation.
func Load(path string) (*Config, error) {
	config := DefaultConfig()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if config, err = LoadConfig(path); err != nil {
				return nil, err
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
	}

	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("%w: parse env: %v", ErrInvalidConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks struct constraints on the configuration.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ExpandHome replaces a leading "~/" with the current user's home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
