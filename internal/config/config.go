package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/abelbrown/ytsummary/internal/fetch"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment overrides. Values found here win over the config file.
const (
	EnvConfigFile = "YTSUMMARY_CONFIG"
	EnvAPIURL     = "YTSUMMARY_API_URL"
	EnvChannel    = "YTSUMMARY_CHANNEL"
	EnvLogLevel   = "YTSUMMARY_LOG_LEVEL"
	EnvLimit      = "YTSUMMARY_LIMIT"
)

// Config is the persistent client configuration
type Config struct {
	API APIConfig `yaml:"api"`
	UI  UIConfig  `yaml:"ui"`
	Log LogConfig `yaml:"log"`
}

// APIConfig describes how the feed endpoint is reached
type APIConfig struct {
	BaseURL     string        `yaml:"base_url"`     // empty means the local API origin
	Limit       int           `yaml:"limit"`        // 0 leaves the server default
	Timeout     time.Duration `yaml:"timeout"`      // 0 means no client-side timeout
	MinInterval time.Duration `yaml:"min_interval"` // minimum spacing between fetches
}

// UIConfig holds presentation preferences
type UIConfig struct {
	ChannelName   string `yaml:"channel_name"`
	SkeletonCount int    `yaml:"skeleton_count"`
	DateLayout    string `yaml:"date_layout"` // Go reference-time layout
	Timezone      string `yaml:"timezone"`    // IANA name, "Local" or "UTC"
	Mouse         bool   `yaml:"mouse"`
}

// LogConfig controls the diagnostic and event logs
type LogConfig struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir"` // empty means <data dir>/logs
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:     "",
			Limit:       0,
			Timeout:     0,
			MinInterval: time.Second,
		},
		UI: UIConfig{
			ChannelName:   "@noiehoie",
			SkeletonCount: 6,
			DateLayout:    "2 Jan 2006",
			Timezone:      "Local",
			Mouse:         true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// DataDir returns the per-user directory holding config, logs and events.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ytsummary"
	}
	return filepath.Join(home, ".ytsummary")
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	if p := os.Getenv(EnvConfigFile); p != "" {
		return p
	}
	return filepath.Join(DataDir(), "config.yaml")
}

// LogDir returns the directory for the diagnostic log.
func (c *Config) LogDir() string {
	if c.Log.Dir != "" {
		return c.Log.Dir
	}
	return filepath.Join(DataDir(), "logs")
}

// EventsPath returns the JSONL event log path.
func (c *Config) EventsPath() string {
	return filepath.Join(DataDir(), "events.jsonl")
}

// Load reads config from path, or returns defaults when the file does not
// exist. An empty path means ConfigPath(). A .env file in the working
// directory is loaded first so its values take part in environment overrides.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	if path == "" {
		path = ConfigPath()
	}

	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overlays environment overrides.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvAPIURL); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv(EnvChannel); v != "" {
		c.UI.ChannelName = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvLimit); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvLimit, v, err)
		}
		c.API.Limit = n
	}
	return nil
}

// Validate checks that the config can drive the client.
func (c *Config) Validate() error {
	if _, err := fetch.BuildEndpoint(c.API.BaseURL, c.API.Limit); err != nil {
		return fmt.Errorf("api.base_url: %w", err)
	}
	if c.API.Limit < 0 {
		return fmt.Errorf("api.limit must not be negative (got %d)", c.API.Limit)
	}
	if c.API.Timeout < 0 || c.API.MinInterval < 0 {
		return errors.New("api.timeout and api.min_interval must not be negative")
	}
	if c.UI.SkeletonCount < 1 {
		return fmt.Errorf("ui.skeleton_count must be at least 1 (got %d)", c.UI.SkeletonCount)
	}
	if c.UI.DateLayout == "" {
		return errors.New("ui.date_layout is required")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("ui.timezone: %w", err)
	}
	return nil
}

// Location resolves UI.Timezone. Empty means local time.
func (c *Config) Location() (*time.Location, error) {
	if c.UI.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.UI.Timezone)
}

// Save writes config to path, creating parent directories.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ConfigPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
