package models

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Code is the provider's embedded status code. The current-conditions endpoint
// sends it as a number and the forecast endpoint as a string.
type Code string

// UnmarshalJSON accepts both 200 and "200".
func (c *Code) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = Code(s)
		return nil
	}
	if bytes.Equal(data, []byte("null")) {
		*c = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*c = Code(n.String())
	return nil
}

// OK reports whether the code means success.
func (c Code) OK() bool {
	return c == "200"
}

// Int returns the numeric code, or 0 when it is not a number.
func (c Code) Int() int {
	n, err := strconv.Atoi(string(c))
	if err != nil {
		return 0
	}
	return n
}

// Condition is one entry of the provider's "weather" array.
type Condition struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
}

// CurrentWeather is the subset of the current conditions document the reports use.
type CurrentWeather struct {
	Cod      Code        `json:"cod"`
	ID       int64       `json:"id"`
	Name     string      `json:"name"`
	Timezone int         `json:"timezone"` // offset from UTC in seconds
	Weather  []Condition `json:"weather"`
	Main     struct {
		Temp     float64 `json:"temp"`
		TempMin  float64 `json:"temp_min"`
		TempMax  float64 `json:"temp_max"`
		Humidity int     `json:"humidity"`
	} `json:"main"`
	Sys struct {
		Country string `json:"country"`
		Sunrise int64  `json:"sunrise"`
		Sunset  int64  `json:"sunset"`
	} `json:"sys"`
}

// Description returns the first weather description, or "" when there is none.
func (w CurrentWeather) Description() string {
	if len(w.Weather) == 0 {
		return ""
	}
	return w.Weather[0].Description
}
