package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AppName names the per-user data directory.
const AppName = "weather"

// File names inside the data directory.
const (
	ConfigFileName  = "config.yaml"
	CitiesFileName  = "cities.json"
	CacheDirName    = "cache"
	HistoryLogName  = "history.log"
	LastRunLogName  = "weather.log"
	MetricsFileName = "metrics.prom"
)

// DefaultWeatherAPIURL is the provider's base URL; endpoint paths are appended to it.
const DefaultWeatherAPIURL = "https://api.openweathermap.org/data/2.5"

// Config holds CLI configuration loaded from the data directory and env.
type Config struct {
	DataDir string

	WeatherAPIURL     string
	WeatherAPITimeout time.Duration

	CacheTTL time.Duration

	// LogLevel overrides the -v/-q screen verbosity when set.
	LogLevel string

	MetricsEnabled bool
}

type fileConfig struct {
	WeatherAPI struct {
		BaseURL string `yaml:"base_url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"weather_api"`

	Cache struct {
		TTL string `yaml:"ttl"`
	} `yaml:"cache"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Metrics struct {
		Enabled *bool `yaml:"enabled"`
	} `yaml:"metrics"`
}

// DefaultDataDir returns WEATHER_DATA_DIR when set, otherwise the platform's
// per-user config directory joined with AppName.
func DefaultDataDir() (string, error) {
	if dir := strings.TrimSpace(os.Getenv("WEATHER_DATA_DIR")); dir != "" {
		return dir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config: locate user config directory: %w", err)
	}
	return filepath.Join(base, AppName), nil
}

// Load creates dataDir if needed and reads the optional config.yaml inside it.
// A missing file means defaults. WEATHER_API_URL, WEATHER_API_TIMEOUT and
// LOG_LEVEL override the file.
func Load(dataDir string) (*Config, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("config: data directory is required")
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("config: create data directory: %w", err)
	}

	var fc fileConfig
	configPath := filepath.Join(dataDir, ConfigFileName)
	data, err := os.ReadFile(configPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", configPath, err)
		}
	}

	cfg := &Config{DataDir: dataDir, MetricsEnabled: true}

	cfg.WeatherAPIURL = strings.TrimSpace(os.Getenv("WEATHER_API_URL"))
	if cfg.WeatherAPIURL == "" {
		cfg.WeatherAPIURL = strings.TrimSpace(fc.WeatherAPI.BaseURL)
	}
	if cfg.WeatherAPIURL == "" {
		cfg.WeatherAPIURL = DefaultWeatherAPIURL
	}
	cfg.WeatherAPIURL = strings.TrimRight(cfg.WeatherAPIURL, "/")

	timeout := os.Getenv("WEATHER_API_TIMEOUT")
	if strings.TrimSpace(timeout) == "" {
		timeout = fc.WeatherAPI.Timeout
	}
	cfg.WeatherAPITimeout = parseDurationOrZero(timeout, 10*time.Second)

	cfg.CacheTTL = parseDuration(fc.Cache.TTL, 600*time.Second)

	cfg.LogLevel = strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = strings.TrimSpace(fc.Log.Level)
	}

	if fc.Metrics.Enabled != nil {
		cfg.MetricsEnabled = *fc.Metrics.Enabled
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// CacheDir holds one record per (location, endpoint).
func (c *Config) CacheDir() string { return filepath.Join(c.DataDir, CacheDirName) }

// CitiesPath is the city identifier table.
func (c *Config) CitiesPath() string { return filepath.Join(c.DataDir, CitiesFileName) }

// HistoryLogPath accumulates log records across runs.
func (c *Config) HistoryLogPath() string { return filepath.Join(c.DataDir, HistoryLogName) }

// LastRunLogPath holds only the most recent run's log records.
func (c *Config) LastRunLogPath() string { return filepath.Join(c.DataDir, LastRunLogName) }

// MetricsPath is the prometheus textfile written at the end of a run.
func (c *Config) MetricsPath() string { return filepath.Join(c.DataDir, MetricsFileName) }

// parseDuration parses a duration string and returns defaultVal if parsing fails or result is <= 0.
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	d := parseDurationOrZero(s, defaultVal)
	if d <= 0 {
		return defaultVal
	}
	return d
}

// parseDurationOrZero parses a duration string, returning defaultVal on empty string or parse error.
// Returns zero or negative durations as-is (caller should handle fallback).
func parseDurationOrZero(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultVal
	}
	return d
}

// validate performs post-load validation of configuration values.
func validate(cfg *Config) error {
	if cfg.WeatherAPITimeout <= 0 {
		return fmt.Errorf("weather_api.timeout must be positive")
	}
	u, err := url.Parse(cfg.WeatherAPIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("weather_api.base_url must be an http(s) URL, got %q", cfg.WeatherAPIURL)
	}
	return nil
}
