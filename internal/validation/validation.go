package validation

import (
	"errors"
	"strings"
	"unicode"
)

// Default location length bounds, in runes.
const (
	DefaultLocationMinLength = 1
	DefaultLocationMaxLength = 100
)

// ErrLocationEmpty is returned when location is empty or whitespace-only after trim.
var ErrLocationEmpty = errors.New("location is required")

// ErrLocationTooShort is returned when location length is below the minimum.
var ErrLocationTooShort = errors.New("location too short")

// ErrLocationTooLong is returned when location length exceeds the maximum.
var ErrLocationTooLong = errors.New("location too long")

// ErrLocationInvalidChars is returned when location contains disallowed characters.
var ErrLocationInvalidChars = errors.New("location contains invalid characters")

// ErrUnitEmpty is returned when no temperature unit is given.
var ErrUnitEmpty = errors.New("temperature unit is required")

// ErrUnitInvalid is returned in strict mode for units other than F and C.
var ErrUnitInvalid = errors.New("temperature unit must be F or C")

// ValidateLocation trims the input, enforces length bounds (minLen, maxLen in runes),
// and restricts to allowed characters: letters (Unicode), digits, space, comma,
// hyphen, period, apostrophe. Returns the trimmed string.
// Case is left untouched; city lookups and cache keys handle it.
func ValidateLocation(input string, minLen, maxLen int) (string, error) {
	s := strings.TrimSpace(input)
	r := []rune(s)
	n := len(r)
	if n == 0 {
		return "", ErrLocationEmpty
	}
	if minLen > 0 && n < minLen {
		return "", ErrLocationTooShort
	}
	if maxLen > 0 && n > maxLen {
		return "", ErrLocationTooLong
	}
	for _, c := range r {
		if !isAllowedLocationRune(c) {
			return "", ErrLocationInvalidChars
		}
	}
	return s, nil
}

// isAllowedLocationRune returns true for letters (Unicode), digits, space, comma, hyphen, period, apostrophe.
func isAllowedLocationRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsMark(r) {
		return true
	}
	switch r {
	case ' ', ',', '-', '.', '\'':
		return true
	}
	return false
}

// ValidateUnit checks a temperature unit argument. Outside strict mode any
// non-empty value is accepted: "F" displays Fahrenheit and everything else is
// converted to Celsius. Strict mode accepts only "F" and "C".
func ValidateUnit(unit string, strict bool) (string, error) {
	u := strings.TrimSpace(unit)
	if u == "" {
		return "", ErrUnitEmpty
	}
	if strict && u != "F" && u != "C" {
		return "", ErrUnitInvalid
	}
	return u, nil
}
