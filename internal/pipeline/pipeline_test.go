package pipeline

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/riff/internal/auth"
	"github.com/okian/riff/internal/ratelimit"
	"github.com/okian/riff/internal/transport"
	"github.com/okian/riff/pkg/logger"
)

func TestMain(m *testing.M) {
	_ = logger.InitWithWriter(io.Discard)
	m.Run()
}

// scriptedTransport replays canned responses and records requests.
type scriptedTransport struct {
	mu        sync.Mutex
	responses []transport.Response
	errs      []error
	requests  []transport.Request
}

func (s *scriptedTransport) Send(_ context.Context, req transport.Request) (transport.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	if len(s.responses) == 0 {
		return transport.Response{}, errors.New("script exhausted")
	}
	resp, err := s.responses[0], s.errs[0]
	s.responses, s.errs = s.responses[1:], s.errs[1:]
	return resp, err
}

func (s *scriptedTransport) push(resp transport.Response, err error) {
	s.responses = append(s.responses, resp)
	s.errs = append(s.errs, err)
}

func ok(body string) transport.Response {
	return transport.Response{StatusCode: 200, Body: []byte(body)}
}

func newTestPipeline(tr transport.Transport, opts ...Option) (*Pipeline, *auth.Manager) {
	mgr := auth.NewManager()
	p := New(tr, ratelimit.New(0), mgr, opts...)
	return p, mgr
}

func TestDoSuccess(t *testing.T) {
	Convey("Given a service that answers with a data payload", t, func() {
		tr := &scriptedTransport{}
		tr.push(ok(`{"data": {"username": "kangalio"}}`), nil)
		p, _ := newTestPipeline(tr)

		Convey("When the call is executed", func() {
			data, err := p.Do(context.Background(), Call{Method: "GET", URL: "https://x.test/user"})

			Convey("Then the raw data payload is returned", func() {
				So(err, ShouldBeNil)
				So(string(data), ShouldEqual, `{"username": "kangalio"}`)
			})
		})
	})
}

func TestDoFailureModes(t *testing.T) {
	Convey("Given the shared request path", t, func() {
		Convey("When the service answers with a 5xx status", func() {
			tr := &scriptedTransport{}
			tr.push(transport.Response{StatusCode: 503, Body: []byte("oops")}, nil)
			p, _ := newTestPipeline(tr)

			_, err := p.Do(context.Background(), Call{Method: "GET", URL: "https://x.test"})

			Convey("Then a service unavailable error carries the status", func() {
				var unavail *ServiceUnavailableError
				So(errors.As(err, &unavail), ShouldBeTrue)
				So(unavail.StatusCode, ShouldEqual, 503)
				So(unavail.Degraded(), ShouldBeTrue)
			})
		})

		Convey("When the service answers 500", func() {
			tr := &scriptedTransport{}
			tr.push(transport.Response{StatusCode: 500}, nil)
			p, _ := newTestPipeline(tr)

			_, err := p.Do(context.Background(), Call{Method: "GET", URL: "https://x.test"})

			var unavail *ServiceUnavailableError
			So(errors.As(err, &unavail), ShouldBeTrue)
			So(unavail.Degraded(), ShouldBeFalse)
		})

		Convey("When the body is empty", func() {
			tr := &scriptedTransport{}
			tr.push(transport.Response{StatusCode: 200, Body: []byte("  ")}, nil)
			p, _ := newTestPipeline(tr)

			_, err := p.Do(context.Background(), Call{Method: "GET", URL: "https://x.test"})

			So(errors.Is(err, ErrEmptyResponse), ShouldBeTrue)
		})

		Convey("When the body is not a JSON envelope", func() {
			tr := &scriptedTransport{}
			tr.push(ok("<html>not json</html>"), nil)
			p, _ := newTestPipeline(tr)

			_, err := p.Do(context.Background(), Call{Method: "GET", URL: "https://x.test"})

			So(errors.Is(err, ErrInvalidJSON), ShouldBeTrue)
		})

		Convey("When the transport fails", func() {
			tr := &scriptedTransport{}
			boom := errors.New("connection reset")
			tr.push(transport.Response{}, boom)
			p, _ := newTestPipeline(tr)

			_, err := p.Do(context.Background(), Call{Method: "GET", URL: "https://x.test"})

			So(errors.Is(err, boom), ShouldBeTrue)
		})

		Convey("When a non-200 but non-error status arrives with a valid body", func() {
			tr := &scriptedTransport{}
			tr.push(transport.Response{StatusCode: 201, Body: []byte(`{"data": true}`)}, nil)
			p, _ := newTestPipeline(tr)

			data, err := p.Do(context.Background(), Call{Method: "POST", URL: "https://x.test"})

			Convey("Then processing continues", func() {
				So(err, ShouldBeNil)
				So(string(data), ShouldEqual, "true")
			})
		})
	})
}

func TestDoErrorMapping(t *testing.T) {
	errScoreNotFound := errors.New("score not found")
	mapper := func(title string) error {
		if title == "Score not found" {
			return errScoreNotFound
		}
		return nil
	}

	Convey("Given a pipeline with a domain error table", t, func() {
		Convey("When the envelope carries a mapped error title", func() {
			tr := &scriptedTransport{}
			tr.push(ok(`{"errors": [{"title": "Score not found"}]}`), nil)
			p, _ := newTestPipeline(tr, WithErrorMapper(mapper))

			_, err := p.Do(context.Background(), Call{Method: "GET", URL: "https://x.test"})

			Convey("Then the mapped sentinel is returned", func() {
				So(errors.Is(err, errScoreNotFound), ShouldBeTrue)
			})
		})

		Convey("When the envelope carries an unmapped title", func() {
			tr := &scriptedTransport{}
			tr.push(ok(`{"errors": [{"title": "Mystery failure"}]}`), nil)
			p, _ := newTestPipeline(tr, WithErrorMapper(mapper))

			_, err := p.Do(context.Background(), Call{Method: "GET", URL: "https://x.test"})

			Convey("Then an unknown api error carries the title", func() {
				var unknown *UnknownAPIError
				So(errors.As(err, &unknown), ShouldBeTrue)
				So(unknown.Title, ShouldEqual, "Mystery failure")
			})
		})
	})
}

func TestDoReauthentication(t *testing.T) {
	Convey("Given a session whose token has expired", t, func() {
		Convey("When an authorized call is rejected once", func() {
			tr := &scriptedTransport{}
			tr.push(ok(`{"errors": [{"title": "Unauthorized"}]}`), nil)
			tr.push(ok(`{"data": 42}`), nil)
			p, mgr := newTestPipeline(tr)

			logins := 0
			p.SetLogin(func(ctx context.Context) (auth.Credential, error) {
				logins++
				return auth.Credential("fresh-token"), nil
			})

			data, err := p.Do(context.Background(), Call{
				Method:     "GET",
				URL:        "https://x.test/scores",
				Authorized: true,
			})

			Convey("Then it re-authenticates and replays the call once", func() {
				So(err, ShouldBeNil)
				So(string(data), ShouldEqual, "42")
				So(logins, ShouldEqual, 1)
				So(len(tr.requests), ShouldEqual, 2)
				So(tr.requests[1].Header.Get("Authorization"), ShouldEqual, "Bearer fresh-token")

				cred, has := mgr.Snapshot()
				So(has, ShouldBeTrue)
				So(cred, ShouldEqual, auth.Credential("fresh-token"))
			})
		})

		Convey("When the rejection persists after a fresh token", func() {
			tr := &scriptedTransport{}
			tr.push(ok(`{"errors": [{"title": "Unauthorized"}]}`), nil)
			tr.push(ok(`{"errors": [{"title": "Unauthorized"}]}`), nil)
			p, _ := newTestPipeline(tr)

			logins := 0
			p.SetLogin(func(ctx context.Context) (auth.Credential, error) {
				logins++
				return auth.Credential("fresh-token"), nil
			})

			_, err := p.Do(context.Background(), Call{
				Method:     "GET",
				URL:        "https://x.test/scores",
				Authorized: true,
			})

			Convey("Then exactly one retry happens before giving up", func() {
				So(errors.Is(err, ErrUnauthorized), ShouldBeTrue)
				So(logins, ShouldEqual, 1)
				So(len(tr.requests), ShouldEqual, 2)
			})
		})

		Convey("When an unauthorized title arrives on the login call itself", func() {
			tr := &scriptedTransport{}
			tr.push(ok(`{"errors": [{"title": "Unauthorized"}]}`), nil)
			p, _ := newTestPipeline(tr)

			logins := 0
			p.SetLogin(func(ctx context.Context) (auth.Credential, error) {
				logins++
				return auth.Credential("x"), nil
			})

			_, err := p.Do(context.Background(), Call{
				Method: "POST",
				URL:    "https://x.test/login",
			})

			Convey("Then it fails without re-authenticating", func() {
				So(errors.Is(err, ErrUnauthorized), ShouldBeTrue)
				So(logins, ShouldEqual, 0)
			})
		})

		Convey("When the re-authentication itself fails", func() {
			tr := &scriptedTransport{}
			tr.push(ok(`{"errors": [{"title": "Unauthorized"}]}`), nil)
			p, _ := newTestPipeline(tr)

			boom := errors.New("bad password")
			p.SetLogin(func(ctx context.Context) (auth.Credential, error) {
				return "", boom
			})

			_, err := p.Do(context.Background(), Call{
				Method:     "GET",
				URL:        "https://x.test/scores",
				Authorized: true,
			})

			Convey("Then the login failure propagates", func() {
				So(errors.Is(err, boom), ShouldBeTrue)
			})
		})
	})
}

func TestDoRateSpacing(t *testing.T) {
	Convey("Given a pipeline with a real cooldown", t, func() {
		tr := &scriptedTransport{}
		tr.push(ok(`{"data": 1}`), nil)
		tr.push(ok(`{"data": 2}`), nil)
		mgr := auth.NewManager()
		p := New(tr, ratelimit.New(60*time.Millisecond), mgr)

		Convey("When two calls run back to back", func() {
			start := time.Now()
			_, err1 := p.Do(context.Background(), Call{Method: "GET", URL: "https://x.test"})
			_, err2 := p.Do(context.Background(), Call{Method: "GET", URL: "https://x.test"})
			elapsed := time.Since(start)

			Convey("Then the second waits out the cooldown", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(elapsed, ShouldBeGreaterThanOrEqualTo, 60*time.Millisecond)
			})
		})
	})
}
