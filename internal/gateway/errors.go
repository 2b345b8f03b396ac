package gateway

import (
	"errors"
	"fmt"
)

// Error wraps a failed backend call with operation context.
// StatusCode is 0 when no HTTP response was received.
// Err is a *errors.Error from the domain errors package, so errors.Is
// against its sentinels works through Unwrap.
type Error struct {
	Op         string // e.g. "create-event", "search"
	Method     string
	Path       string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("gateway %s [%s %s] %d: %v", e.Op, e.Method, e.Path, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("gateway %s [%s %s]: %v", e.Op, e.Method, e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status of a failed call, or 0 when err did not
// come from a backend response.
func StatusCode(err error) int {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr.StatusCode
	}
	return 0
}
