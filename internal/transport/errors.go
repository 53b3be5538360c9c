package transport

import "errors"

// Sentinel kinds for transport failures. Callers distinguish "timeout" from
// "other" with errors.Is.
var (
	ErrTimeout = errors.New("request timed out")
	ErrNetwork = errors.New("network error")
)
