package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const (
	defaultUserAgent = "riff/0.1"
	headerRequestID  = "X-Request-Id"
)

// Option applies a configuration option to the HTTPTransport.
type Option func(*HTTPTransport)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(t *HTTPTransport) {
		if c != nil {
			t.client = c
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(t *HTTPTransport) {
		if ua != "" {
			t.userAgent = ua
		}
	}
}

// HTTPTransport implements Transport on net/http. Every request gets a
// fresh X-Request-Id so log lines and server traces can be correlated.
type HTTPTransport struct {
	client    *http.Client
	userAgent string
}

// NewHTTPTransport creates an HTTPTransport with configuration options.
func NewHTTPTransport(opts ...Option) *HTTPTransport {
	t := &HTTPTransport{
		client:    &http.Client{},
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Send performs the request and slurps the body. Per-request timeouts come
// from req.Timeout via the context; expiry surfaces as ErrTimeout.
func (t *HTTPTransport) Send(ctx context.Context, req Request) (Response, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	target := req.URL
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Form != nil {
		body = strings.NewReader(req.Form.Encode())
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return Response{}, fmt.Errorf("%w: building request: %v", ErrNetwork, err)
	}

	httpReq.Header.Set("User-Agent", t.userAgent)
	httpReq.Header.Set(headerRequestID, uuid.NewString())
	if req.Form != nil {
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for key, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return Response{}, classify(err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, classify(err)
	}

	return Response{StatusCode: resp.StatusCode, Body: payload}, nil
}

// classify buckets a net/http failure into the two kinds callers care about.
func classify(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrNetwork, err)
}
