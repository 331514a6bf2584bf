package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registry *prometheus.Registry

	// OpenWeatherMap API call count by outcome. Watch for: error vs success ratio.
	WeatherAPICallsTotal *prometheus.CounterVec

	// External API latency per request. Watch for: p95 > 2s (upstream degradation).
	WeatherAPIDuration *prometheus.HistogramVec

	// Failed API calls by client.ErrorCategory. Watch for: invalid_api_key (bad key) or network spikes.
	WeatherAPIErrorsTotal *prometheus.CounterVec

	// Fresh cache records served, per endpoint.
	CacheHitsTotal *prometheus.CounterVec

	// Lookups that had to go to the network, per endpoint.
	CacheMissesTotal *prometheus.CounterVec

	// Cache read/write failures. Reads fall back to the network.
	CacheErrorsTotal *prometheus.CounterVec

	// Invocations per CLI command.
	WeatherQueriesTotal *prometheus.CounterVec

	// Unix time at which the textfile was written.
	LastRunTimestamp prometheus.Gauge
)

func init() {
	registry = prometheus.NewRegistry()

	WeatherAPICallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherApiCallsTotal",
			Help: "OpenWeatherMap API calls made by the last run",
		},
		[]string{"status"},
	)
	WeatherAPIDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "weatherApiDurationSeconds",
			Help:    "OpenWeatherMap API latency in seconds for the last run's requests",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"status"},
	)
	WeatherAPIErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherApiErrorsTotal",
			Help: "Failed OpenWeatherMap API calls in the last run by error category",
		},
		[]string{"category"},
	)
	CacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cacheHitsTotal",
			Help: "Fresh cache records served by the last run",
		},
		[]string{"endpoint"},
	)
	CacheMissesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cacheMissesTotal",
			Help: "Cache lookups in the last run that required an API call",
		},
		[]string{"endpoint"},
	)
	CacheErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cacheErrorsTotal",
			Help: "Cache read or write failures in the last run",
		},
		[]string{"operation"},
	)
	WeatherQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherQueriesTotal",
			Help: "Command executed by the last run",
		},
		[]string{"command"},
	)

	LastRunTimestamp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "weatherLastRunTimestampSeconds",
			Help: "Unix time at which the last run wrote these metrics",
		},
	)

	registry.MustRegister(
		WeatherAPICallsTotal, WeatherAPIDuration, WeatherAPIErrorsTotal,
		CacheHitsTotal, CacheMissesTotal, CacheErrorsTotal,
		WeatherQueriesTotal, LastRunTimestamp,
	)
}

// RecordWeatherQuery counts one invocation of command.
func RecordWeatherQuery(command string) {
	WeatherQueriesTotal.WithLabelValues(command).Inc()
}

// WriteTextfile writes every registered metric to path in the text exposition
// format read by node_exporter's textfile collector. The file is replaced
// atomically, so it always describes a single run: counters start at zero in
// each process and are not carried over. Aggregate across runs with
// weatherLastRunTimestampSeconds, for example by scraping after every run.
func WriteTextfile(path string) error {
	LastRunTimestamp.SetToCurrentTime()
	if err := prometheus.WriteToTextfile(path, registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
