package query

import (
	"net/url"
	"strings"
)

// Units is the only unit system requested from the provider. Metric values are
// derived locally from these imperial readings.
const Units = "imperial"

// CityResolver resolves a known city name to its provider identifier.
type CityResolver interface {
	Lookup(name string) (string, bool)
}

// Build returns the query parameters for a provider request. The location is
// resolved in order: an all-digit string is sent as a raw identifier, a name
// known to cities (ignoring case) is replaced by its stored identifier, and
// anything else is sent as a free-text query. cities may be nil.
func Build(apiKey, location string, cities CityResolver) url.Values {
	params := url.Values{}
	params.Set("appid", apiKey)
	params.Set("units", Units)

	location = strings.TrimSpace(location)
	switch {
	case IsNumericID(location):
		params.Set("id", location)
	default:
		if cities != nil {
			if id, ok := cities.Lookup(location); ok {
				params.Set("id", id)
				return params
			}
		}
		params.Set("q", location)
	}
	return params
}

// IsNumericID reports whether location consists only of ASCII digits.
func IsNumericID(location string) bool {
	if location == "" {
		return false
	}
	for _, r := range location {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
