package ratelimit_test

import (
	"sync"
	"testing"
	"time"

	ratelimit "github.com/okian/riff/internal/ratelimit"
	. "github.com/smartystreets/goconvey/convey"
)

// fakeClock advances its notion of now by exactly the slept duration.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestGateSpacing(t *testing.T) {
	Convey("Given a gate with a 100ms cooldown on a fake clock", t, func() {
		clock := newFakeClock()
		gate := ratelimit.New(100*time.Millisecond, ratelimit.WithClock(clock))

		Convey("When the first request arrives", func() {
			waited := gate.Wait()

			Convey("Then it passes immediately", func() {
				So(waited, ShouldEqual, 0)
			})
		})

		Convey("When requests arrive back to back", func() {
			first := gate.Wait()
			second := gate.Wait()
			third := gate.Wait()

			Convey("Then each subsequent request waits out the cooldown", func() {
				So(first, ShouldEqual, 0)
				So(second, ShouldEqual, 100*time.Millisecond)
				So(third, ShouldEqual, 100*time.Millisecond)
			})
		})

		Convey("When a request arrives after the cooldown already passed", func() {
			gate.Wait()
			clock.Sleep(250 * time.Millisecond)
			waited := gate.Wait()

			Convey("Then it passes without waiting", func() {
				So(waited, ShouldEqual, 0)
			})
		})
	})
}

func TestGateConcurrency(t *testing.T) {
	Convey("Given a gate with a real clock and a short cooldown", t, func() {
		const (
			cooldown = 10 * time.Millisecond
			callers  = 5
		)
		gate := ratelimit.New(cooldown)

		Convey("When several callers contend for it", func() {
			start := time.Now()
			var wg sync.WaitGroup
			for i := 0; i < callers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					gate.Wait()
				}()
			}
			wg.Wait()
			elapsed := time.Since(start)

			Convey("Then the stream is spaced at least the cooldown apart", func() {
				So(elapsed, ShouldBeGreaterThanOrEqualTo, (callers-1)*cooldown)
			})
		})
	})
}
