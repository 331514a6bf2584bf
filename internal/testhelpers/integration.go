//go:build integration
// +build integration

package testhelpers

import (
	"os"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/kjstillabower/weather-cli/internal/cache"
	"github.com/kjstillabower/weather-cli/internal/cities"
	"github.com/kjstillabower/weather-cli/internal/client"
	"github.com/kjstillabower/weather-cli/internal/config"
	"github.com/kjstillabower/weather-cli/internal/credential"
	"github.com/kjstillabower/weather-cli/internal/service"
)

// IntegrationTestConfig holds configuration for integration tests.
type IntegrationTestConfig struct {
	APIKey string
	APIURL string
}

// GetIntegrationConfig loads integration test configuration from environment.
// Skips test if WEATHER_API_KEY is not set.
func GetIntegrationConfig(t *testing.T) IntegrationTestConfig {
	t.Helper()
	apiKey := os.Getenv(credential.EnvVar)
	if apiKey == "" {
		t.Skip("WEATHER_API_KEY not set, skipping integration test")
	}
	if err := credential.Validate(apiKey); err != nil {
		t.Fatalf("API key format validation failed: %v", err)
	}

	apiURL := os.Getenv("WEATHER_API_URL")
	if apiURL == "" {
		apiURL = config.DefaultWeatherAPIURL
	}
	return IntegrationTestConfig{APIKey: apiKey, APIURL: apiURL}
}

// SetupIntegrationService creates a service against the live API with a file
// cache in a temporary directory. Returns the service and its cache.
func SetupIntegrationService(t *testing.T, cfg IntegrationTestConfig) (*service.WeatherService, *cache.FileCache) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	store := cache.NewFileCache(t.TempDir(), cache.DefaultTTL)
	svc := service.NewWeatherService(
		client.NewOpenWeatherClient(cfg.APIURL, 5*time.Second, logger),
		store,
		service.StaticCities(cities.New()),
		func() (string, error) { return cfg.APIKey, nil },
		logger,
	)
	return svc, store
}
