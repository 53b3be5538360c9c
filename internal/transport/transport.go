// Package transport defines the request/response primitive the pipeline
// sends traffic through, plus the default net/http implementation.
//
// The pipeline treats the Transport as a capability: anything that can carry
// a method, URL, parameters, headers and a timeout, and hand back a status
// code with a raw body, will do.
package transport

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// Request describes one outgoing call.
type Request struct {
	Method string
	URL    string
	// Query parameters appended to the URL.
	Query url.Values
	// Form, when non-nil, is sent urlencoded as the request body.
	Form url.Values
	// Header entries set on the request verbatim.
	Header http.Header
	// Timeout bounds the whole call; zero means no bound.
	Timeout time.Duration
}

// Response is a completed call: a status code plus the raw body.
type Response struct {
	StatusCode int
	Body       []byte
}

// Transport performs one request. Failures are distinguishable as timeout
// (errors.Is ErrTimeout) versus other network errors (ErrNetwork).
type Transport interface {
	Send(ctx context.Context, req Request) (Response, error)
}
