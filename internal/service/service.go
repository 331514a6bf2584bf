package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-cli/internal/cache"
	"github.com/kjstillabower/weather-cli/internal/client"
	"github.com/kjstillabower/weather-cli/internal/observability"
	"github.com/kjstillabower/weather-cli/internal/query"
)

// KeyFunc returns the API key. It is only called when a request must go to
// the network, so cached answers work without a configured key.
type KeyFunc func() (string, error)

// CitiesFunc returns the city table. Like KeyFunc it is only called on a cache
// miss.
type CitiesFunc func() (query.CityResolver, error)

// StaticCities returns a CitiesFunc for a table that is already loaded.
func StaticCities(table query.CityResolver) CitiesFunc {
	return func() (query.CityResolver, error) { return table, nil }
}

// WeatherService fetches provider documents using the cache-aside pattern.
type WeatherService struct {
	client client.Fetcher
	cache  cache.Cache
	cities CitiesFunc
	apiKey KeyFunc
	logger *zap.Logger
}

// NewWeatherService creates a WeatherService. cities may be nil; logger may be nil.
func NewWeatherService(c client.Fetcher, store cache.Cache, cities CitiesFunc, apiKey KeyFunc, logger *zap.Logger) *WeatherService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WeatherService{
		client: c,
		cache:  store,
		cities: cities,
		apiKey: apiKey,
		logger: logger,
	}
}

// Fetch returns the document for (endpoint, location). A fresh cache record is
// returned without touching the network. Otherwise the provider is queried and
// a successful answer is cached; nothing is cached on error.
func (s *WeatherService) Fetch(ctx context.Context, endpoint client.Endpoint, location string) (json.RawMessage, error) {
	if endpoint.Path() == "" {
		return nil, fmt.Errorf("%w: %q", client.ErrInvalidEndpoint, string(endpoint))
	}
	location = strings.TrimSpace(location)
	start := time.Now()
	log := s.logger.With(zap.String("location", location), zap.String("endpoint", string(endpoint)))

	cached, ok, err := s.cache.Get(ctx, location, string(endpoint))
	switch {
	case err != nil:
		observability.CacheErrorsTotal.WithLabelValues("get").Inc()
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		log.Debug("cache read failed, fetching upstream", zap.Error(err))
	case ok:
		observability.CacheHitsTotal.WithLabelValues(string(endpoint)).Inc()
		log.Info("returning cached copy")
		return cached, nil
	default:
		log.Debug("cache miss, fetching upstream")
	}
	observability.CacheMissesTotal.WithLabelValues(string(endpoint)).Inc()

	key, err := s.apiKey()
	if err != nil {
		return nil, err
	}
	var table query.CityResolver
	if s.cities != nil {
		if table, err = s.cities(); err != nil {
			return nil, err
		}
	}
	params := query.Build(key, location, table)

	data, err := s.client.Get(ctx, endpoint, params)
	if err != nil {
		return nil, fmt.Errorf("fetch %s for %s: %w", endpoint, location, err)
	}

	if setErr := s.cache.Set(ctx, location, string(endpoint), data); setErr != nil {
		observability.CacheErrorsTotal.WithLabelValues("set").Inc()
		log.Warn("cache set failed", zap.Error(setErr))
	}
	log.Debug("weather served", zap.Bool("cached", false), zap.Duration("duration", time.Since(start)))
	return data, nil
}
