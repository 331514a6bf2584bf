package report

import (
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/kjstillabower/weather-cli/internal/models"
	"github.com/kjstillabower/weather-cli/internal/owmtest"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func londonNow(t *testing.T) models.CurrentWeather {
	t.Helper()
	var w models.CurrentWeather
	if err := json.Unmarshal([]byte(owmtest.CurrentLondon), &w); err != nil {
		t.Fatal(err)
	}
	return w
}

func londonForecast(t *testing.T) models.Forecast {
	t.Helper()
	var f models.Forecast
	if err := json.Unmarshal([]byte(owmtest.ForecastLondon), &f); err != nil {
		t.Fatal(err)
	}
	return f
}

func TestCurrentAndHumidity(t *testing.T) {
	w := londonNow(t)
	if got, want := Current("London", w), "The weather in London right now: light rain."; got != want {
		t.Errorf("Current() = %q, want %q", got, want)
	}
	if got, want := Humidity("london", w), "The humidity in london right now: 81%."; got != want {
		t.Errorf("Humidity() = %q, want %q", got, want)
	}
}

// TestTemperature verifies "F" shows literal values and any other unit converts
// to Celsius with one decimal.
func TestTemperature(t *testing.T) {
	w := londonNow(t)
	tests := []struct {
		unit string
		want string
	}{
		{"F", "Current Temperature is 100°F with a range of 90°F to 110°F"},
		{"C", "Current Temperature is 37.8°C with a range of 32.2°C to 43.3°C"},
		{"K", "Current Temperature is 37.8°C with a range of 32.2°C to 43.3°C"},
		{"f", "Current Temperature is 37.8°C with a range of 32.2°C to 43.3°C"},
	}
	for _, tt := range tests {
		if got := Temperature(w, tt.unit); got != tt.want {
			t.Errorf("Temperature(%q) = %q, want %q", tt.unit, got, tt.want)
		}
	}
}

func TestToCelsius(t *testing.T) {
	tests := map[float64]float64{100: 37.8, 90: 32.2, 110: 43.3, 32: 0, 212: 100, -40: -40}
	for in, want := range tests {
		if got := ToCelsius(in); got != want {
			t.Errorf("ToCelsius(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestDaylight(t *testing.T) {
	w := londonNow(t)
	want := "Daylight Hours in London timezone: 08:00 AM - 07:00 PM"
	if got := Daylight("London", w); got != want {
		t.Errorf("Daylight() = %q, want %q", got, want)
	}

	w.Timezone = -5 * 3600
	want = "Daylight Hours in London timezone: 02:00 AM - 01:00 PM"
	if got := Daylight("London", w); got != want {
		t.Errorf("Daylight() with negative offset = %q, want %q", got, want)
	}
}

func TestForecast(t *testing.T) {
	got, err := Forecast(londonForecast(t))
	if err != nil {
		t.Fatalf("Forecast() error = %v", err)
	}
	want := "2024-03-01 38.00 55.00 clear, rain\n" +
		"2024-03-02 30.00 45.00 light rain, overcast clouds"
	if got != want {
		t.Errorf("Forecast() =\n%s\nwant\n%s", got, want)
	}
}

func TestForecast_BadTimestamp(t *testing.T) {
	f := models.Forecast{List: []models.ForecastEntry{{DtTxt: "tomorrow"}}}
	if _, err := Forecast(f); err == nil {
		t.Fatal("Forecast() expected error for unparseable dt_txt")
	}
}

// TestRain verifies dry days are omitted, the day total sums only samples with
// rain data and the grand total is converted to inches with 3 decimals.
func TestRain(t *testing.T) {
	got, err := Rain(londonForecast(t))
	if err != nil {
		t.Fatalf("Rain() error = %v", err)
	}
	want := "Sat 03/02  3.50mm (0.14 inches)\n" +
		"Total: 3.50mm (0.138 inches)"
	if got != want {
		t.Errorf("Rain() =\n%s\nwant\n%s", got, want)
	}
}

func TestRain_NoRain(t *testing.T) {
	got, err := Rain(models.Forecast{})
	if err != nil {
		t.Fatalf("Rain() error = %v", err)
	}
	if got != "Total: 0.00mm (0.000 inches)" {
		t.Errorf("Rain() = %q", got)
	}
}

func TestDump(t *testing.T) {
	got, err := Dump(json.RawMessage(`{"cod":200,"main":{"temp":71.6}}`))
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	want := "{\n    \"cod\": 200,\n    \"main\": {\n        \"temp\": 71.6\n    }\n}"
	if got != want {
		t.Errorf("Dump() =\n%s\nwant\n%s", got, want)
	}
	if _, err := Dump(json.RawMessage(`{`)); err == nil {
		t.Error("Dump() expected error for invalid JSON")
	}
}

// unstyled returns the visible text that follows an SGR reset with no new
// style applied before it.
func unstyled(s string) string {
	var out strings.Builder
	styled := false
	for i := 0; i < len(s); i++ {
		if strings.HasPrefix(s[i:], "\x1b[") {
			end := strings.IndexByte(s[i:], 'm')
			if end < 0 {
				break
			}
			styled = s[i+2:i+end] != "0"
			i += end
			continue
		}
		if !styled {
			out.WriteByte(s[i])
		}
	}
	return out.String()
}

// TestColoredLinesKeepStyle verifies no part of a colored line, including the
// text after a highlighted word or number, is left without a style.
func TestColoredLinesKeepStyle(t *testing.T) {
	color.NoColor = false
	defer func() { color.NoColor = true }()

	w := londonNow(t)
	for name, got := range map[string]string{
		"current":     Current("London", w),
		"temperature": Temperature(w, "C"),
		"daylight":    Daylight("London", w),
	} {
		if !strings.Contains(got, "\x1b[") {
			t.Errorf("%s: no escape codes in %q", name, got)
		}
		if rest := unstyled(got); rest != "" {
			t.Errorf("%s: unstyled text %q in %q", name, rest, got)
		}
	}
	if got := Current("London", w); !strings.HasSuffix(got, accent.Sprint(".")) {
		t.Errorf("Current() = %q, want the closing period accented", got)
	}
}

// TestEmphasize_Colored verifies digits are styled separately when color is on.
func TestEmphasize_Colored(t *testing.T) {
	color.NoColor = false
	defer func() { color.NoColor = true }()

	got := emphasize("at 10.5")
	if !strings.Contains(got, "\x1b[") || strings.Contains(got, "10.5") {
		t.Errorf("emphasize() = %q, want escape codes around each number part", got)
	}
}
