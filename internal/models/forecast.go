package models

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// ForecastTimeLayout is the layout of ForecastEntry.DtTxt. The provider sends it in UTC.
const ForecastTimeLayout = "2006-01-02 15:04:05"

// Forecast is the subset of the 5-day/3-hour forecast document the reports use.
type Forecast struct {
	Cod  Code            `json:"cod"`
	List []ForecastEntry `json:"list"`
	City struct {
		ID       int64  `json:"id"`
		Name     string `json:"name"`
		Country  string `json:"country"`
		Timezone int    `json:"timezone"`
	} `json:"city"`
}

// ForecastEntry is a single 3-hourly forecast sample.
type ForecastEntry struct {
	Dt    int64  `json:"dt"`
	DtTxt string `json:"dt_txt"`
	Main  struct {
		Temp    float64 `json:"temp"`
		TempMin float64 `json:"temp_min"`
		TempMax float64 `json:"temp_max"`
	} `json:"main"`
	Weather []Condition    `json:"weather"`
	Rain    *Precipitation `json:"rain,omitempty"`
}

// Precipitation holds the volume that fell in the sample's bucket, in millimeters.
type Precipitation struct {
	ThreeHour float64 `json:"3h"`
}

// Description returns the first weather description of the sample.
func (e ForecastEntry) Description() string {
	if len(e.Weather) == 0 {
		return ""
	}
	return e.Weather[0].Description
}

// DaySummary aggregates the samples of one calendar day.
type DaySummary struct {
	Date         time.Time
	MinTemp      float64
	MaxTemp      float64
	Descriptions []string // consecutive duplicates merged
}

// DayRainTotal is the precipitation summed over one calendar day.
type DayRainTotal struct {
	Date    time.Time
	TotalMm float64
}

// localDate parses the sample timestamp, shifts it into the location's UTC offset
// and returns midnight of that calendar day.
func (e ForecastEntry) localDate(offsetSeconds int) (time.Time, error) {
	var ts time.Time
	if e.DtTxt != "" {
		t, err := time.Parse(ForecastTimeLayout, e.DtTxt)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse dt_txt %q: %w", e.DtTxt, err)
		}
		ts = t
	} else {
		ts = time.Unix(e.Dt, 0).UTC()
	}
	ts = ts.Add(time.Duration(offsetSeconds) * time.Second)
	y, m, d := ts.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}

// DailySummaries groups the samples by local calendar date, in ascending order.
func (f Forecast) DailySummaries() ([]DaySummary, error) {
	byDay := make(map[time.Time]*DaySummary)
	for _, e := range f.List {
		day, err := e.localDate(f.City.Timezone)
		if err != nil {
			return nil, err
		}
		s, ok := byDay[day]
		if !ok {
			s = &DaySummary{Date: day, MinTemp: math.Inf(1), MaxTemp: math.Inf(-1)}
			byDay[day] = s
		}
		s.MinTemp = math.Min(s.MinTemp, e.Main.TempMin)
		s.MaxTemp = math.Max(s.MaxTemp, e.Main.TempMax)
		desc := e.Description()
		if n := len(s.Descriptions); n == 0 || s.Descriptions[n-1] != desc {
			s.Descriptions = append(s.Descriptions, desc)
		}
	}

	out := make([]DaySummary, 0, len(byDay))
	for _, s := range byDay {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// DailyRain sums rain per local calendar date. Only samples carrying a rain
// object contribute, and only days with at least one such sample are returned.
func (f Forecast) DailyRain() ([]DayRainTotal, error) {
	byDay := make(map[time.Time]float64)
	for _, e := range f.List {
		if e.Rain == nil {
			continue
		}
		day, err := e.localDate(f.City.Timezone)
		if err != nil {
			return nil, err
		}
		byDay[day] += e.Rain.ThreeHour
	}

	out := make([]DayRainTotal, 0, len(byDay))
	for day, mm := range byDay {
		out = append(out, DayRainTotal{Date: day, TotalMm: mm})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}
