// Package ratelimit serializes outgoing requests so that no two of them
// start closer together than a configured cooldown.
//
// The gate is a deliberate backpressure valve, not a bounded queue: it never
// fails, it only delays, potentially indefinitely if callers arrive faster
// than they drain.
package ratelimit

import (
	"sync"
	"time"
)

// Clock is the monotonic instant source used for rate-limit bookkeeping.
// Injectable so tests run without real sleeps.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type systemClock struct{}

func (systemClock) Now() time.Time        { return time.Now() }
func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }

// Option applies a configuration option to the Gate.
type Option func(*Gate)

// WithClock replaces the system clock.
func WithClock(c Clock) Option {
	return func(g *Gate) {
		if c != nil {
			g.clock = c
		}
	}
}

// Gate tracks the instant of the last admitted request and spaces callers a
// minimum interval apart, globally across all goroutines sharing it.
type Gate struct {
	mu       sync.Mutex
	last     time.Time
	interval time.Duration
	clock    Clock
}

// New creates a Gate with the given minimum cooldown between requests. The
// cooldown is fixed at construction; it is not runtime-adjustable.
func New(minInterval time.Duration, opts ...Option) *Gate {
	g := &Gate{
		interval: minInterval,
		clock:    systemClock{},
	}
	for _, opt := range opts {
		opt(g)
	}
	// Let the first request through immediately.
	g.last = g.clock.Now().Add(-minInterval)
	return g
}

// Wait blocks the caller until the cooldown since the previous request has
// elapsed, and returns how long it waited.
//
// The slot reservation (last = max(now, last+interval)) happens atomically
// with the wait decision inside one critical section, so N concurrent
// callers are serialized into a stream spaced at least the cooldown apart,
// never fewer. An in-progress wait runs to completion; there is no
// cancellation.
func (g *Gate) Wait() time.Duration {
	g.mu.Lock()
	now := g.clock.Now()
	next := g.last.Add(g.interval)

	var wait time.Duration
	if now.Before(next) {
		wait = next.Sub(now)
		g.last = next
	} else {
		g.last = now
	}
	g.mu.Unlock()

	if wait > 0 {
		g.clock.Sleep(wait)
	}
	return wait
}
