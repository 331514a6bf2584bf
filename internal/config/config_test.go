package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// clearEnv unsets every variable Load consults so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"WEATHER_API_URL", "WEATHER_API_TIMEOUT", "LOG_LEVEL", "WEATHER_DATA_DIR"} {
		t.Setenv(k, "")
	}
}

func writeConfigFile(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
}

// TestLoad_DefaultsWithoutFile verifies that a missing config.yaml is not an
// error and every field takes its default.
func TestLoad_DefaultsWithoutFile(t *testing.T) {
	clearEnv(t)
	dir := filepath.Join(t.TempDir(), "weather")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("Load() did not create data dir: %v", err)
	}
	if cfg.WeatherAPIURL != DefaultWeatherAPIURL {
		t.Errorf("WeatherAPIURL = %q, want default", cfg.WeatherAPIURL)
	}
	if cfg.WeatherAPITimeout != 10*time.Second {
		t.Errorf("WeatherAPITimeout = %v, want 10s", cfg.WeatherAPITimeout)
	}
	if cfg.CacheTTL != 600*time.Second {
		t.Errorf("CacheTTL = %v, want 600s", cfg.CacheTTL)
	}
	if !cfg.MetricsEnabled {
		t.Error("MetricsEnabled = false, want true by default")
	}
	if cfg.LogLevel != "" {
		t.Errorf("LogLevel = %q, want empty", cfg.LogLevel)
	}
}

func TestLoad_FromFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeConfigFile(t, dir, `
weather_api:
  base_url: "http://localhost:9999/data/2.5/"
  timeout: "3s"
cache:
  ttl: "5m"
log:
  level: debug
metrics:
  enabled: false
`)
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.WeatherAPIURL != "http://localhost:9999/data/2.5" {
		t.Errorf("WeatherAPIURL = %q, want trailing slash trimmed", cfg.WeatherAPIURL)
	}
	if cfg.WeatherAPITimeout != 3*time.Second {
		t.Errorf("WeatherAPITimeout = %v, want 3s", cfg.WeatherAPITimeout)
	}
	if cfg.CacheTTL != 5*time.Minute {
		t.Errorf("CacheTTL = %v, want 5m", cfg.CacheTTL)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if cfg.MetricsEnabled {
		t.Error("MetricsEnabled = true, want false from file")
	}
}

// TestLoad_EnvOverridesFile verifies that env variables win over config.yaml.
func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeConfigFile(t, dir, `
weather_api:
  base_url: "https://file.example.com"
  timeout: "3s"
log:
  level: warn
`)
	t.Setenv("WEATHER_API_URL", "https://env.example.com/api")
	t.Setenv("WEATHER_API_TIMEOUT", "7s")
	t.Setenv("LOG_LEVEL", "error")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.WeatherAPIURL != "https://env.example.com/api" {
		t.Errorf("WeatherAPIURL = %q, want env value", cfg.WeatherAPIURL)
	}
	if cfg.WeatherAPITimeout != 7*time.Second {
		t.Errorf("WeatherAPITimeout = %v, want 7s", cfg.WeatherAPITimeout)
	}
	if cfg.LogLevel != "error" {
		t.Errorf("LogLevel = %q, want error", cfg.LogLevel)
	}
}

func TestLoad_InvalidDurationFallsBackToDefault(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeConfigFile(t, dir, `
weather_api:
  timeout: "soon"
cache:
  ttl: "invalid"
`)
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.WeatherAPITimeout != 10*time.Second {
		t.Errorf("WeatherAPITimeout = %v, want default", cfg.WeatherAPITimeout)
	}
	if cfg.CacheTTL != 600*time.Second {
		t.Errorf("CacheTTL = %v, want default", cfg.CacheTTL)
	}
}

func TestLoad_ValidationFailsWhenWeatherAPITimeoutZero(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeConfigFile(t, dir, "weather_api:\n  timeout: \"0s\"\n")

	cfg, err := Load(dir)
	if err == nil {
		t.Fatal("Load() expected error when timeout is zero, got nil")
	}
	if cfg != nil {
		t.Fatalf("Load() expected nil config on error, got %+v", cfg)
	}
	if !strings.Contains(err.Error(), "timeout") {
		t.Errorf("Load() error = %v, want message about timeout", err)
	}
}

func TestLoad_ValidationFailsForBadURL(t *testing.T) {
	clearEnv(t)
	for _, u := range []string{"ftp://example.com", "not a url", "http://"} {
		t.Setenv("WEATHER_API_URL", u)
		if _, err := Load(t.TempDir()); err == nil {
			t.Errorf("Load() with base_url %q expected error", u)
		}
	}
}

func TestLoad_InvalidConfigYAML(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeConfigFile(t, dir, "not: valid: yaml: [[[")

	cfg, err := Load(dir)
	if err == nil {
		t.Fatal("Load() expected error for invalid config YAML, got nil")
	}
	if cfg != nil {
		t.Fatalf("Load() expected nil config on error, got %+v", cfg)
	}
	if !strings.Contains(err.Error(), "parse") {
		t.Errorf("Load() error = %v, want message about parse", err)
	}
}

func TestLoad_RequiresDataDir(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Fatal("Load(\"\") expected error")
	}
}

func TestDefaultDataDir(t *testing.T) {
	t.Setenv("WEATHER_DATA_DIR", "/tmp/weather-test-data")
	got, err := DefaultDataDir()
	if err != nil || got != "/tmp/weather-test-data" {
		t.Errorf("DefaultDataDir() = %q, %v; want env value", got, err)
	}

	t.Setenv("WEATHER_DATA_DIR", "")
	got, err = DefaultDataDir()
	if err != nil {
		t.Skipf("no user config dir on this host: %v", err)
	}
	if filepath.Base(got) != AppName {
		t.Errorf("DefaultDataDir() = %q, want it to end in %q", got, AppName)
	}
}

func TestConfig_Paths(t *testing.T) {
	cfg := &Config{DataDir: "/data"}
	tests := map[string]string{
		cfg.CacheDir():       filepath.Join("/data", "cache"),
		cfg.CitiesPath():     filepath.Join("/data", "cities.json"),
		cfg.HistoryLogPath(): filepath.Join("/data", "history.log"),
		cfg.LastRunLogPath(): filepath.Join("/data", "weather.log"),
		cfg.MetricsPath():    filepath.Join("/data", "metrics.prom"),
	}
	for got, want := range tests {
		if got != want {
			t.Errorf("path = %q, want %q", got, want)
		}
	}
}
