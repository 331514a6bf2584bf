package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/kjstillabower/weather-cli/internal/cities"
	"github.com/kjstillabower/weather-cli/internal/client"
	"github.com/kjstillabower/weather-cli/internal/credential"
	"github.com/kjstillabower/weather-cli/internal/validation"
)

// Process exit codes.
const (
	ExitOK        = 0
	ExitAPIError  = 1
	ExitUsage     = 2
	ExitTransport = 3
)

// ExitError carries an explicit exit code for err.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

func usageErrorf(format string, args ...any) error {
	return &ExitError{Code: ExitUsage, Err: fmt.Errorf(format, args...)}
}

// exitCodeFor maps err onto the process exit code.
func exitCodeFor(err error) int {
	if err == nil {
		return ExitOK
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return ExitAPIError
	}
	if isUserInput(err) {
		return ExitUsage
	}
	var pathErr *fs.PathError
	if errors.Is(err, client.ErrTransport) ||
		errors.Is(err, cities.ErrCorruptTable) ||
		errors.Is(err, client.ErrMalformedResponse) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.As(err, &pathErr) {
		return ExitTransport
	}
	return ExitAPIError
}

func isUserInput(err error) bool {
	for _, target := range []error{
		credential.ErrMissing,
		credential.ErrInvalidFormat,
		validation.ErrLocationEmpty,
		validation.ErrLocationTooShort,
		validation.ErrLocationTooLong,
		validation.ErrLocationInvalidChars,
		validation.ErrUnitEmpty,
		validation.ErrUnitInvalid,
		cities.ErrEmptyName,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
