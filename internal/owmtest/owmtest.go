// Package owmtest serves a fake OpenWeatherMap 2.5 API for tests.
package owmtest

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/gorilla/mux"
)

// APIKey is a well-formed key accepted by the fake server.
const APIKey = "0123456789abcdef0123456789abcdef"

// CurrentLondon is a current-conditions document: 100°F with a 90 to 110 range,
// 81% humidity, light rain, sunrise 08:00 and sunset 19:00 local (UTC+1).
const CurrentLondon = `{
  "coord": {"lon": -0.1257, "lat": 51.5085},
  "weather": [{"id": 500, "main": "Rain", "description": "light rain", "icon": "10d"}],
  "base": "stations",
  "main": {"temp": 100, "feels_like": 104.2, "temp_min": 90, "temp_max": 110, "pressure": 1012, "humidity": 81},
  "visibility": 10000,
  "wind": {"speed": 4.61, "deg": 250},
  "clouds": {"all": 75},
  "dt": 1709290800,
  "sys": {"type": 2, "id": 2075535, "country": "GB", "sunrise": 1709276400, "sunset": 1709316000},
  "timezone": 3600,
  "id": 2643743,
  "name": "London",
  "cod": 200
}`

// ForecastLondon is a forecast document covering two UTC days. 2024-03-01 is
// dry with a 38/55 range and "clear, rain"; 2024-03-02 totals 3.5mm from
// samples of 1.5mm and 2.0mm plus one sample without rain data.
const ForecastLondon = `{
  "cod": "200",
  "message": 0,
  "cnt": 6,
  "list": [
    {"dt": 1709283600, "main": {"temp": 45, "temp_min": 40, "temp_max": 50}, "weather": [{"id": 800, "main": "Clear", "description": "clear"}], "dt_txt": "2024-03-01 09:00:00"},
    {"dt": 1709294400, "main": {"temp": 47, "temp_min": 38, "temp_max": 55}, "weather": [{"id": 800, "main": "Clear", "description": "clear"}], "dt_txt": "2024-03-01 12:00:00"},
    {"dt": 1709305200, "main": {"temp": 45, "temp_min": 42, "temp_max": 49}, "weather": [{"id": 500, "main": "Rain", "description": "rain"}], "dt_txt": "2024-03-01 15:00:00"},
    {"dt": 1709380800, "main": {"temp": 40, "temp_min": 30, "temp_max": 45}, "weather": [{"id": 500, "main": "Rain", "description": "light rain"}], "rain": {"3h": 1.5}, "dt_txt": "2024-03-02 12:00:00"},
    {"dt": 1709391600, "main": {"temp": 41, "temp_min": 35, "temp_max": 44}, "weather": [{"id": 500, "main": "Rain", "description": "light rain"}], "rain": {"3h": 2.0}, "dt_txt": "2024-03-02 15:00:00"},
    {"dt": 1709402400, "main": {"temp": 38, "temp_min": 33, "temp_max": 39}, "weather": [{"id": 804, "main": "Clouds", "description": "overcast clouds"}], "dt_txt": "2024-03-02 18:00:00"}
  ],
  "city": {"id": 2643743, "name": "London", "country": "GB", "timezone": 0}
}`

// NotFound is the provider's reply for an unknown location.
const NotFound = `{"cod":"404","message":"city not found"}`

// Unauthorized is the provider's reply for a rejected key.
const Unauthorized = `{"cod":401, "message": "Invalid API key. Please see https://openweathermap.org/faq#error401 for more info."}`

type response struct {
	status int
	body   string
}

// Server is an httptest server routed like api.openweathermap.org. Each
// endpoint ("weather", "forecast") answers with its configured response and
// counts hits.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	responses map[string]response
	hits      map[string]int
	queries   map[string]url.Values
}

// NewServer starts a server answering CurrentLondon and ForecastLondon. It is
// closed when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		responses: map[string]response{
			"weather":  {http.StatusOK, CurrentLondon},
			"forecast": {http.StatusOK, ForecastLondon},
		},
		hits:    make(map[string]int),
		queries: make(map[string]url.Values),
	}

	router := mux.NewRouter()
	router.HandleFunc("/data/2.5/{endpoint}", s.handle).Methods(http.MethodGet)
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, `{"cod":"404","message":"Internal error"}`)
	})

	s.Server = httptest.NewServer(router)
	t.Cleanup(s.Close)
	return s
}

// BaseURL is the value to use as the weather API base URL.
func (s *Server) BaseURL() string {
	return s.URL + "/data/2.5"
}

// Respond sets the reply for endpoint ("weather" or "forecast").
func (s *Server) Respond(endpoint string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[endpoint] = response{status, body}
}

// Hits returns how many requests endpoint has served.
func (s *Server) Hits(endpoint string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[endpoint]
}

// TotalHits returns the number of requests across all endpoints.
func (s *Server) TotalHits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, h := range s.hits {
		n += h
	}
	return n
}

// LastQuery returns the query parameters of the most recent request to endpoint.
func (s *Server) LastQuery(endpoint string) url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queries[endpoint]
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	endpoint := mux.Vars(r)["endpoint"]

	s.mu.Lock()
	resp, ok := s.responses[endpoint]
	s.hits[endpoint]++
	s.queries[endpoint] = r.URL.Query()
	s.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, `{"cod":"404","message":"Internal error"}`)
		return
	}
	if r.URL.Query().Get("appid") == "" {
		writeJSON(w, http.StatusUnauthorized, Unauthorized)
		return
	}
	writeJSON(w, resp.status, resp.body)
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
