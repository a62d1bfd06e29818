package smoke

import (
	"errors"
	"fmt"
)

// Sentinel kinds for this package.
var (
	ErrUnhealthy     = errors.New("service unhealthy")
	ErrRosterTooThin = errors.New("roster too small")
	ErrMismatch      = errors.New("hydrated setup differs from commit")
	ErrFailures      = errors.New("smoke sessions failed")
)

// StatusError reports an unexpected HTTP status.
type StatusError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, e.Body)
}
