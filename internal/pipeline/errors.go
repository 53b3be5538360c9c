package pipeline

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	// ErrUnauthorized is returned when the service rejects the session
	// token and re-authentication did not resolve it.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrEmptyResponse is returned when the service closes the response
	// with no body at all.
	ErrEmptyResponse = errors.New("empty server response")

	// ErrInvalidJSON is returned when the response body is not a valid
	// JSON envelope.
	ErrInvalidJSON = errors.New("invalid json response")
)

// ServiceUnavailableError reports a 5xx response. Certain statuses mark
// the service as degraded rather than merely erroring on one request.
type ServiceUnavailableError struct {
	StatusCode int
}

func (e *ServiceUnavailableError) Error() string {
	return fmt.Sprintf("service unavailable (status %d)", e.StatusCode)
}

// Degraded reports whether the status indicates a service-wide outage.
func (e *ServiceUnavailableError) Degraded() bool {
	switch e.StatusCode {
	case 503, 521, 525:
		return true
	}
	return false
}

// UnknownAPIError reports an error title the client has no mapping for.
type UnknownAPIError struct {
	Title string
}

func (e *UnknownAPIError) Error() string {
	return fmt.Sprintf("unknown api error: %s", e.Title)
}
