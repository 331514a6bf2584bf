package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/kjstillabower/weather-cli/internal/models"
	"github.com/kjstillabower/weather-cli/internal/observability"
)

// DefaultTimeout bounds a single provider request.
const DefaultTimeout = 10 * time.Second

// Endpoint names a provider document.
type Endpoint string

const (
	EndpointCurrent  Endpoint = "current"
	EndpointForecast Endpoint = "forecast"
)

// Path is the URL path segment for the endpoint below the base URL.
func (e Endpoint) Path() string {
	switch e {
	case EndpointCurrent:
		return "weather"
	case EndpointForecast:
		return "forecast"
	}
	return ""
}

// ParseEndpoint returns the Endpoint named s.
func ParseEndpoint(s string) (Endpoint, error) {
	switch e := Endpoint(s); e {
	case EndpointCurrent, EndpointForecast:
		return e, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidEndpoint, s)
}

// Fetcher retrieves one provider document.
type Fetcher interface {
	Get(ctx context.Context, endpoint Endpoint, params url.Values) (json.RawMessage, error)
}

var (
	ErrInvalidEndpoint   = errors.New("invalid endpoint")
	ErrTransport         = errors.New("weather API unreachable")
	ErrMalformedResponse = errors.New("malformed weather API response")

	// Matched through APIError.Unwrap.
	ErrInvalidAPIKey    = errors.New("invalid API key")
	ErrLocationNotFound = errors.New("location not found")
	ErrRateLimited      = errors.New("rate limited")
	ErrUpstreamFailure  = errors.New("upstream failure")
)

// APIError is a response whose embedded "cod" is not 200. Message is the
// provider's text, shown to the user verbatim.
type APIError struct {
	Code    string
	Message string
	// HTTPStatus is the transport status, which the provider usually mirrors in Code.
	HTTPStatus int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap maps well-known codes onto the package sentinels.
func (e *APIError) Unwrap() error {
	switch code := models.Code(e.Code).Int(); {
	case code == 401:
		return ErrInvalidAPIKey
	case code == 404:
		return ErrLocationNotFound
	case code == 429:
		return ErrRateLimited
	case code >= 500:
		return ErrUpstreamFailure
	}
	return nil
}

// OpenWeatherClient talks to the OpenWeatherMap 2.5 API. It never retries;
// one invocation makes at most one request.
type OpenWeatherClient struct {
	http   *resty.Client
	logger *zap.Logger
}

// NewOpenWeatherClient returns a client for baseURL, for example
// "https://api.openweathermap.org/data/2.5". A non-positive timeout uses DefaultTimeout.
func NewOpenWeatherClient(baseURL string, timeout time.Duration, logger *zap.Logger) *OpenWeatherClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OpenWeatherClient{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetRetryCount(0).
			SetHeader("Accept", "application/json"),
		logger: logger,
	}
}

// envelope is the part of every provider document that reports status.
type envelope struct {
	Cod     json.RawMessage `json:"cod"`
	Message json.RawMessage `json:"message"`
}

// Get requests endpoint with params and returns the raw document once its
// embedded status is 200.
func (c *OpenWeatherClient) Get(ctx context.Context, endpoint Endpoint, params url.Values) (json.RawMessage, error) {
	path := endpoint.Path()
	if path == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidEndpoint, string(endpoint))
	}

	c.logger.Debug("calling weather API",
		zap.String("endpoint", string(endpoint)),
		zap.String("query", redact(params)),
	)

	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParamsFromValues(params).
		Get(path)
	duration := time.Since(start).Seconds()
	if err != nil {
		observability.WeatherAPICallsTotal.WithLabelValues("error").Inc()
		observability.WeatherAPIDuration.WithLabelValues("error").Observe(duration)
		err = fmt.Errorf("%w: %w", ErrTransport, err)
		observability.WeatherAPIErrorsTotal.WithLabelValues(string(CategorizeError(err))).Inc()
		return nil, err
	}

	status := statusLabel(resp.StatusCode())
	observability.WeatherAPICallsTotal.WithLabelValues(status).Inc()
	observability.WeatherAPIDuration.WithLabelValues(status).Observe(duration)
	c.logger.Debug("weather API responded",
		zap.String("endpoint", string(endpoint)),
		zap.Int("status", resp.StatusCode()),
		zap.Int("bytes", len(resp.Body())),
		zap.Duration("duration", resp.Time()),
	)

	body, err := checkStatus(resp.Body(), resp.StatusCode())
	if err != nil {
		observability.WeatherAPIErrorsTotal.WithLabelValues(string(CategorizeError(err))).Inc()
		return nil, err
	}
	return body, nil
}

// checkStatus decodes the embedded status of body. The HTTP status only
// enriches errors; the provider's "cod" decides success.
func checkStatus(body []byte, httpStatus int) (json.RawMessage, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: HTTP %d: %v", ErrMalformedResponse, httpStatus, err)
	}
	if len(env.Cod) == 0 || bytes.Equal(env.Cod, []byte("null")) {
		return nil, fmt.Errorf("%w: HTTP %d: no status code", ErrMalformedResponse, httpStatus)
	}
	var code models.Code
	if err := json.Unmarshal(env.Cod, &code); err != nil {
		return nil, fmt.Errorf("%w: status code: %v", ErrMalformedResponse, err)
	}
	if !code.OK() {
		return nil, &APIError{Code: string(code), Message: message(env.Message), HTTPStatus: httpStatus}
	}
	return json.RawMessage(body), nil
}

// message returns a JSON string as text and any other value as its JSON form.
func message(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(raw))
}

// redact encodes params without the API key.
func redact(params url.Values) string {
	safe := url.Values{}
	for k, v := range params {
		if k == "appid" {
			continue
		}
		safe[k] = v
	}
	return safe.Encode()
}

func statusLabel(statusCode int) string {
	if statusCode >= 200 && statusCode < 300 {
		return "success"
	}
	if statusCode == 429 {
		return "rate_limited"
	}
	if statusCode >= 400 && statusCode < 500 {
		return "client_error"
	}
	if statusCode >= 500 {
		return "server_error"
	}
	return "error"
}
