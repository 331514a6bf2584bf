//go:build integration
// +build integration

package client

import (
	"context"
	"errors"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/kjstillabower/weather-cli/internal/config"
	"github.com/kjstillabower/weather-cli/internal/credential"
)

func liveParams(t *testing.T, location string) url.Values {
	t.Helper()
	apiKey := os.Getenv(credential.EnvVar)
	if apiKey == "" {
		t.Skip("WEATHER_API_KEY not set, skipping integration test")
	}
	if err := credential.Validate(apiKey); err != nil {
		t.Fatalf("API key format validation failed: %v", err)
	}
	v := url.Values{}
	v.Set("appid", apiKey)
	v.Set("units", "imperial")
	v.Set("q", location)
	return v
}

func TestOpenWeatherClient_Current_Integration(t *testing.T) {
	p := liveParams(t, "London,GB")
	c := NewOpenWeatherClient(config.DefaultWeatherAPIURL, 5*time.Second, nil)

	raw, err := c.Get(context.Background(), EndpointCurrent, p)
	if err != nil {
		t.Fatalf("Get() error = %v (API key may not be activated yet)", err)
	}
	if len(raw) == 0 {
		t.Error("Get() returned empty document")
	}
}

func TestOpenWeatherClient_Forecast_Integration(t *testing.T) {
	p := liveParams(t, "London,GB")
	c := NewOpenWeatherClient(config.DefaultWeatherAPIURL, 5*time.Second, nil)

	if _, err := c.Get(context.Background(), EndpointForecast, p); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
}

func TestOpenWeatherClient_UnknownCity_Integration(t *testing.T) {
	p := liveParams(t, "Qqqqzzzzxxxx")
	c := NewOpenWeatherClient(config.DefaultWeatherAPIURL, 5*time.Second, nil)

	_, err := c.Get(context.Background(), EndpointCurrent, p)
	if !errors.Is(err, ErrLocationNotFound) {
		t.Errorf("Get() error = %v, want ErrLocationNotFound", err)
	}
}
