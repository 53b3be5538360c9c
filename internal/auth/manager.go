// Package auth holds the current bearer credential and coordinates
// at-most-one concurrent login.
//
// The credential cell is written only inside Refresh; nowhere else. Readers
// take an immutable snapshot for the duration of one request's Authorization
// header and must not hold onto anything longer-lived.
package auth

import (
	"context"
	"sync"
)

// Credential is an opaque bearer-token string.
type Credential string

// LoginFunc performs the actual authentication call and returns a fresh
// credential, or fails.
type LoginFunc func(ctx context.Context) (Credential, error)

// Manager guards the credential behind a read/write lock and serializes
// refresh decisions so that concurrent expiry detections collapse into a
// single login.
type Manager struct {
	// refreshGate serializes decisions about whether to refresh; only one
	// goroutine at a time gets to inspect the credential lock's state.
	refreshGate sync.Mutex

	mu            sync.RWMutex
	credential    Credential
	hasCredential bool
}

// NewManager creates a Manager with no credential set (pre-login).
func NewManager() *Manager {
	return &Manager{}
}

// Snapshot returns a copy of the current credential. The copy is immutable,
// so unlike a guard it can be carried through the request without blocking
// refreshers. The second return is false before the first successful login.
func (m *Manager) Snapshot() (Credential, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.credential, m.hasCredential
}

// Refresh obtains a fresh credential through login, unless another
// goroutine's refresh is already in flight, in which case it waits for that
// one and reuses its work.
//
// Election: under refreshGate, a non-blocking shared read on the credential
// succeeding means no refresh is executing, so this caller becomes the
// leader; it takes the write lock (still under the gate, so no other caller
// can win in between), releases the gate and performs the login. A caller
// whose non-blocking read fails has found a leader mid-login; it blocks on a
// plain shared read until the leader finishes, then returns.
//
// A login failure propagates only to the leader that triggered it.
// Piggybacked callers return nil and will independently detect continued
// failure on their next request against the unchanged credential.
func (m *Manager) Refresh(ctx context.Context, login LoginFunc) error {
	m.refreshGate.Lock()

	if !m.mu.TryRLock() {
		// A refresh is executing right now; wait for it to finish and
		// reuse its result.
		m.refreshGate.Unlock()
		m.mu.RLock()
		//nolint:staticcheck // empty critical section: the acquisition itself is the wait
		m.mu.RUnlock()
		return nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	m.refreshGate.Unlock()

	cred, err := login(ctx)
	if err != nil {
		m.mu.Unlock()
		return err
	}

	m.credential = cred
	m.hasCredential = true
	m.mu.Unlock()
	return nil
}
