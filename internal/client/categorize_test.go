package client

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

// TestCategorizeError verifies that CategorizeError maps errors to the correct ErrorCategory
// for metrics labeling, including API errors, wrapped sentinels and message-based heuristics.
func TestCategorizeError(t *testing.T) {
	// name: test case description; err: input error; want: expected ErrorCategory.
	tests := []struct {
		name string
		err  error
		want ErrorCategory
	}{
		{"nil", nil, ""},
		{"timeout context", context.DeadlineExceeded, ErrorCategoryTimeout},
		{"canceled context", context.Canceled, ErrorCategoryTimeout},
		{"transport timeout", fmt.Errorf("%w: %w", ErrTransport, context.DeadlineExceeded), ErrorCategoryTimeout},
		{"invalid API key", &APIError{Code: "401", Message: "Invalid API key"}, ErrorCategoryInvalidAPIKey},
		{"wrapped invalid API key", fmt.Errorf("fetch: %w", &APIError{Code: "401"}), ErrorCategoryInvalidAPIKey},
		{"location not found", &APIError{Code: "404", Message: "city not found"}, ErrorCategoryLocationNotFound},
		{"rate limited", &APIError{Code: "429"}, ErrorCategoryRateLimited},
		{"upstream failure", &APIError{Code: "502"}, ErrorCategoryUpstream5xx},
		{"other api error", &APIError{Code: "400", Message: "Nothing to geocode"}, ErrorCategoryAPI},
		{"malformed", fmt.Errorf("%w: no status code", ErrMalformedResponse), ErrorCategoryParsing},
		{"transport", fmt.Errorf("%w: dial tcp: refused", ErrTransport), ErrorCategoryNetwork},
		{"network in message", errors.New("connection refused"), ErrorCategoryNetwork},
		{"parse in message", errors.New("parse response: invalid json"), ErrorCategoryParsing},
		{"validation in message", errors.New("invalid location"), ErrorCategoryValidation},
		{"cache in message", errors.New("cache get failed"), ErrorCategoryCache},
		{"unknown", errors.New("something else"), ErrorCategoryUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CategorizeError(tt.err)
			if got != tt.want {
				t.Errorf("CategorizeError() = %v, want %v", got, tt.want)
			}
		})
	}
}
