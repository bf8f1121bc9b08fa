package commerce

import (
	"errors"
	"fmt"
)

// ErrUnavailable marks any failed call against the commerce backend:
// network faults, auth failures, and non-success statuses alike. Callers
// treat it as retryable by repeating the action that triggered the call.
var ErrUnavailable = errors.New("commerce backend unavailable")

// APIError reports a non-success HTTP status from the backend.
type APIError struct {
	Endpoint string
	Status   int
	Body     string
}

func (e *APIError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("commerce: %s returned %d: %s", e.Endpoint, e.Status, e.Body)
	}
	return fmt.Sprintf("commerce: %s returned %d", e.Endpoint, e.Status)
}

// Unwrap maps every API error onto ErrUnavailable.
func (e *APIError) Unwrap() error { return ErrUnavailable }

func unavailable(endpoint string, err error) error {
	return fmt.Errorf("commerce: %s: %w: %w", endpoint, ErrUnavailable, err)
}
