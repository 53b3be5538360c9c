// Package pipeline implements the shared request path: rate limiting,
// bearer injection, envelope decoding and transparent re-authentication.
package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/okian/riff/internal/auth"
	"github.com/okian/riff/internal/ratelimit"
	"github.com/okian/riff/internal/transport"
	"github.com/okian/riff/pkg/logger"
	"github.com/okian/riff/pkg/metrics"
)

// A request is replayed at most once after a token refresh.
const maxAuthRetries = 1

// ErrorMapper translates an error title from the response envelope into
// a domain error. A nil return means the title is not recognised.
type ErrorMapper func(title string) error

// Call describes one API invocation.
type Call struct {
	Method string
	URL    string
	Query  url.Values
	Form   url.Values

	// Authorized requests carry the session token and are eligible for
	// re-authentication. Login itself must leave this false.
	Authorized bool

	// Timeout overrides the pipeline default when positive.
	Timeout time.Duration
}

// envelope is the wire shape every response shares.
type envelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []envelopeError `json:"errors"`
}

type envelopeError struct {
	Title string `json:"title"`
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithTimeout sets the default per-request deadline.
func WithTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		p.timeout = d
	}
}

// WithErrorMapper installs the domain error table.
func WithErrorMapper(m ErrorMapper) Option {
	return func(p *Pipeline) {
		p.mapTitle = m
	}
}

// Pipeline funnels every request through one rate gate and one session.
type Pipeline struct {
	gate     *ratelimit.Gate
	tr       transport.Transport
	auth     *auth.Manager
	login    auth.LoginFunc
	mapTitle ErrorMapper
	timeout  time.Duration
	log      logger.Logger
}

// New creates a pipeline over the given transport and rate gate.
//
// The package logger must be initialized first (logger.Init or
// logger.InitWithWriter); New resolves its named logger eagerly and
// panics otherwise.
func New(tr transport.Transport, gate *ratelimit.Gate, mgr *auth.Manager, opts ...Option) *Pipeline {
	p := &Pipeline{
		gate:    gate,
		tr:      tr,
		auth:    mgr,
		timeout: 30 * time.Second,
		log:     logger.Named("pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SetLogin installs the login routine used for re-authentication. It is
// set after construction because login itself is issued through the
// pipeline.
func (p *Pipeline) SetLogin(fn auth.LoginFunc) {
	p.login = fn
}

// Authenticate performs an explicit login, sharing the single-flight
// refresh with any concurrent re-authentication.
func (p *Pipeline) Authenticate(ctx context.Context) error {
	return p.auth.Refresh(ctx, p.login)
}

// Do executes one call and returns the envelope's data payload.
//
// On an "Unauthorized" error title the session token is refreshed and
// the call replayed once; concurrent callers share a single refresh.
func (p *Pipeline) Do(ctx context.Context, call Call) (json.RawMessage, error) {
	retries := 0
	for {
		data, retry, err := p.attempt(ctx, call, retries)
		if err != nil {
			return nil, err
		}
		if !retry {
			return data, nil
		}
		retries++
		metrics.RecordReauthRetry()
		if err := p.auth.Refresh(ctx, p.login); err != nil {
			return nil, err
		}
	}
}

// attempt performs a single round trip. retry=true asks the caller to
// refresh the token and go again.
func (p *Pipeline) attempt(ctx context.Context, call Call, retries int) (json.RawMessage, bool, error) {
	waited := p.gate.Wait()
	metrics.RecordRateGateWait(waited.Seconds())

	req := transport.Request{
		Method:  call.Method,
		URL:     call.URL,
		Query:   call.Query,
		Form:    call.Form,
		Timeout: p.timeout,
	}
	if call.Timeout > 0 {
		req.Timeout = call.Timeout
	}
	if call.Authorized {
		if cred, ok := p.auth.Snapshot(); ok {
			req.Header = http.Header{}
			req.Header.Set("Authorization", "Bearer "+string(cred))
		}
	}

	start := time.Now()
	resp, err := p.tr.Send(ctx, req)
	metrics.RecordRequestDuration(call.Method, time.Since(start).Seconds())
	if err != nil {
		kind := "network"
		if isTimeout(err) {
			kind = "timeout"
		}
		metrics.RecordTransportError(kind)
		return nil, false, err
	}
	metrics.RecordRequest(call.Method, statusClass(resp.StatusCode))

	if resp.StatusCode >= 500 {
		return nil, false, &ServiceUnavailableError{StatusCode: resp.StatusCode}
	}
	if resp.StatusCode != 200 {
		p.log.Warn(ctx, "unexpected response status",
			logger.String("method", call.Method),
			logger.String("url", call.URL),
			logger.Int("status", resp.StatusCode),
		)
	}

	if len(bytes.TrimSpace(resp.Body)) == 0 {
		metrics.RecordEmptyResponse()
		return nil, false, ErrEmptyResponse
	}

	var env envelope
	if err := json.Unmarshal(resp.Body, &env); err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}

	for _, apiErr := range env.Errors {
		if apiErr.Title == "Unauthorized" {
			if !call.Authorized || p.login == nil || retries >= maxAuthRetries {
				return nil, false, ErrUnauthorized
			}
			p.log.Info(ctx, "session token rejected, re-authenticating",
				logger.String("url", call.URL),
			)
			return nil, true, nil
		}
		if p.mapTitle != nil {
			if mapped := p.mapTitle(apiErr.Title); mapped != nil {
				return nil, false, mapped
			}
		}
		return nil, false, &UnknownAPIError{Title: apiErr.Title}
	}

	return env.Data, false, nil
}

func isTimeout(err error) bool {
	return errors.Is(err, transport.ErrTimeout)
}

func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	case code >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
