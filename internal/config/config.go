// Package config loads application configuration from a YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Spotify  SpotifyConfig  `yaml:"spotify"`
	Quiz     QuizConfig     `yaml:"quiz"`
	Live     LiveConfig     `yaml:"live"`
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// SpotifyConfig holds music service credentials. AccessToken short-circuits
// the client-credentials flow when set; useful for user-scoped endpoints.
type SpotifyConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	AccessToken  string `yaml:"access_token"`
	BaseURL      string `yaml:"base_url"`
}

// QuizConfig holds gameplay settings.
type QuizConfig struct {
	Rounds              int    `yaml:"rounds"`
	PreviewClipSeconds  int    `yaml:"preview_clip_seconds"`
	RoundTimeoutSeconds int    `yaml:"round_timeout_seconds"`
	Calibration         string `yaml:"calibration"`
	Source              string `yaml:"source"`
}

// LiveConfig holds live-playback polling settings.
type LiveConfig struct {
	PollIntervalSeconds int `yaml:"poll_interval_seconds"`
	MaxPollFailures     int `yaml:"max_poll_failures"`
}

// DatabaseConfig holds SQLite settings. An empty path disables the cache.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig holds HTTP server settings (web variant only).
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Quiz: QuizConfig{
			Rounds:              5,
			PreviewClipSeconds:  15,
			RoundTimeoutSeconds: 30,
			Calibration:         "classic",
			Source:              "discover",
		},
		Live: LiveConfig{
			PollIntervalSeconds: 2,
			MaxPollFailures:     5,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads config from a YAML file (if it exists) and overrides with
// environment variables. Environment variables take precedence.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFromFile(path); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	cfg.loadFromEnv()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, c)
}

func (c *Config) loadFromEnv() {
	if v := os.Getenv("ENCORE_SPOTIFY_CLIENT_ID"); v != "" {
		c.Spotify.ClientID = v
	}
	if v := os.Getenv("ENCORE_SPOTIFY_CLIENT_SECRET"); v != "" {
		c.Spotify.ClientSecret = v
	}
	if v := os.Getenv("ENCORE_SPOTIFY_ACCESS_TOKEN"); v != "" {
		c.Spotify.AccessToken = v
	}
	if v := os.Getenv("ENCORE_SPOTIFY_BASE_URL"); v != "" {
		c.Spotify.BaseURL = v
	}
	if v := os.Getenv("ENCORE_ROUNDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Quiz.Rounds = n
		}
	}
	if v := os.Getenv("ENCORE_CLIP_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Quiz.PreviewClipSeconds = n
		}
	}
	if v := os.Getenv("ENCORE_ROUND_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Quiz.RoundTimeoutSeconds = n
		}
	}
	if v := os.Getenv("ENCORE_CALIBRATION"); v != "" {
		c.Quiz.Calibration = v
	}
	if v := os.Getenv("ENCORE_SOURCE"); v != "" {
		c.Quiz.Source = v
	}
	if v := os.Getenv("ENCORE_POLL_INTERVAL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Live.PollIntervalSeconds = n
		}
	}
	if v := os.Getenv("ENCORE_MAX_POLL_FAILURES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Live.MaxPollFailures = n
		}
	}
	if v := os.Getenv("ENCORE_DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("ENCORE_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("ENCORE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("ENCORE_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
}

func (c *Config) validate() error {
	if c.Quiz.Rounds < 1 {
		return fmt.Errorf("invalid round count: %d", c.Quiz.Rounds)
	}
	if c.Quiz.PreviewClipSeconds < 1 || c.Quiz.PreviewClipSeconds > 30 {
		return fmt.Errorf("preview clip must be 1-30 seconds, got %d", c.Quiz.PreviewClipSeconds)
	}
	if c.Quiz.RoundTimeoutSeconds < 1 {
		return fmt.Errorf("invalid round timeout: %d", c.Quiz.RoundTimeoutSeconds)
	}
	switch c.Quiz.Source {
	case "top", "discover":
	case "cache":
		if c.Database.Path == "" {
			return fmt.Errorf("quiz source %q requires database.path", c.Quiz.Source)
		}
	default:
		return fmt.Errorf("invalid quiz source: %q", c.Quiz.Source)
	}
	if c.Live.PollIntervalSeconds < 1 {
		return fmt.Errorf("invalid poll interval: %d", c.Live.PollIntervalSeconds)
	}
	if c.Live.MaxPollFailures < 1 {
		return fmt.Errorf("invalid poll failure budget: %d", c.Live.MaxPollFailures)
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server addr cannot be empty")
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format: %q", c.Logging.Format)
	}
	return nil
}

// NewLogger builds the process logger from the logging section.
func (c *Config) NewLogger() *slog.Logger {
	var level slog.Level
	switch strings.ToLower(c.Logging.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.ToLower(c.Logging.Format) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}
