// Package report renders provider documents as terminal text.
//
// Styling goes through fatih/color and disappears when color.NoColor is set,
// so every function's plain-text output is stable for tests and pipes.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/kjstillabower/weather-cli/internal/models"
)

// MmToInches converts precipitation millimeters to inches.
const MmToInches = 0.03937

// UnitFahrenheit selects literal provider values; every other unit is Celsius.
const UnitFahrenheit = "F"

var (
	accent    = color.New(color.FgCyan, color.Bold, color.Italic)
	highlight = color.New(color.FgCyan, color.Bold, color.Italic, color.Underline)
	totalMm   = color.New(color.FgCyan, color.Bold)
	totalIn   = color.New(color.FgGreen)
	dumpColor = color.New(color.FgCyan)

	numberPattern = regexp.MustCompile(`\d+|\.`)
)

// emphasize underlines digits and periods inside an accented line. Each run of
// text is styled on its own because every styled run ends with a full reset.
func emphasize(text string) string {
	if color.NoColor {
		return text
	}
	var b strings.Builder
	last := 0
	for _, m := range numberPattern.FindAllStringIndex(text, -1) {
		if m[0] > last {
			b.WriteString(accent.Sprint(text[last:m[0]]))
		}
		b.WriteString(highlight.Sprint(text[m[0]:m[1]]))
		last = m[1]
	}
	if last < len(text) {
		b.WriteString(accent.Sprint(text[last:]))
	}
	return b.String()
}

// Current reports the first weather description for location.
func Current(location string, w models.CurrentWeather) string {
	return accent.Sprintf("The weather in %s right now: ", location) +
		highlight.Sprint(w.Description()) +
		accent.Sprint(".")
}

// Humidity reports the relative humidity for location.
func Humidity(location string, w models.CurrentWeather) string {
	return accent.Sprintf("The humidity in %s right now: %d%%.", location, w.Main.Humidity)
}

// Temperature reports the current temperature and the day's range. Unit "F"
// shows the provider's Fahrenheit values as they are; anything else converts
// to Celsius rounded to one decimal.
func Temperature(w models.CurrentWeather, unit string) string {
	symbol := "°F"
	format := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	if unit != UnitFahrenheit {
		symbol = "°C"
		format = func(v float64) string { return strconv.FormatFloat(ToCelsius(v), 'f', 1, 64) }
	}
	return emphasize(fmt.Sprintf("Current Temperature is %s%s with a range of %s%s to %s%s",
		format(w.Main.Temp), symbol,
		format(w.Main.TempMin), symbol,
		format(w.Main.TempMax), symbol,
	))
}

// ToCelsius converts Fahrenheit to Celsius rounded to one decimal.
func ToCelsius(f float64) float64 {
	return math.Round((f-32)*5/9*10) / 10
}

// Daylight reports sunrise and sunset in the location's own UTC offset.
func Daylight(location string, w models.CurrentWeather) string {
	return emphasize(fmt.Sprintf("Daylight Hours in %s timezone: %s - %s",
		location,
		localClock(w.Sys.Sunrise, w.Timezone),
		localClock(w.Sys.Sunset, w.Timezone),
	))
}

func localClock(epoch int64, offsetSeconds int) string {
	return time.Unix(epoch, 0).UTC().Add(time.Duration(offsetSeconds) * time.Second).Format("03:04 PM")
}

// Forecast lists, per local day in ascending order, the lowest minimum, the
// highest maximum and the descriptions with consecutive repeats merged.
func Forecast(f models.Forecast) (string, error) {
	days, err := f.DailySummaries()
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, d := range days {
		fmt.Fprintf(&b, "%s %5.2f %5.2f %s\n",
			d.Date.Format("2006-01-02"), d.MinTemp, d.MaxTemp, strings.Join(d.Descriptions, ", "))
	}
	return strings.TrimSuffix(b.String(), "\n"), nil
}

// Rain lists the rain total of every day that reports rain, followed by the
// grand total in millimeters and inches.
func Rain(f models.Forecast) (string, error) {
	days, err := f.DailyRain()
	if err != nil {
		return "", err
	}
	var b strings.Builder
	var total float64
	for _, d := range days {
		total += d.TotalMm
		fmt.Fprintf(&b, "%s %5.2fmm (%.2f inches)\n", d.Date.Format("Mon 01/02"), d.TotalMm, d.TotalMm*MmToInches)
	}
	fmt.Fprintf(&b, "Total: %smm (%s inches)",
		totalMm.Sprintf("%.2f", total),
		totalIn.Sprintf("%.3f", total*MmToInches),
	)
	return b.String(), nil
}

// Dump re-indents the raw document without altering any value.
func Dump(raw json.RawMessage) (string, error) {
	var b bytes.Buffer
	if err := json.Indent(&b, raw, "", "    "); err != nil {
		return "", fmt.Errorf("indent document: %w", err)
	}
	return dumpColor.Sprint(b.String()), nil
}
