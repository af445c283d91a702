package inbox

import (
	"context"
	"errors"
	"sync"
)

// ErrNoIdentity is returned when a login carries no user ID.
var ErrNoIdentity = errors.New("inbox: user id is required")

// Manager keeps exactly one session alive, for the currently signed-in
// identity. Changing identity closes the previous session entirely before
// the new one starts, so no state leaks between users.
type Manager struct {
	deps Deps
	opts Options

	mu      sync.Mutex
	current *Session
}

// NewManager creates a manager with no active session.
func NewManager(deps Deps, opts Options) *Manager {
	return &Manager{deps: deps, opts: opts}
}

// Login returns the session for the identity, starting a new one when the
// identity differs from the current session's. The returned error reports a
// failed initial refresh; the session is still usable in that case.
func (m *Manager) Login(ctx context.Context, userID, credential string) (*Session, error) {
	if userID == "" {
		return nil, ErrNoIdentity
	}

	identity := Identity{UserID: userID, Credential: credential}

	m.mu.Lock()
	if m.current != nil && m.current.Identity() == identity {
		s := m.current
		m.mu.Unlock()
		return s, nil
	}

	prev := m.current
	s := NewSession(identity, m.deps, m.opts)
	m.current = s
	m.mu.Unlock()

	if prev != nil {
		prev.Close()
	}

	return s, s.Start(ctx)
}

// Logout closes the current session, if any.
func (m *Manager) Logout() {
	m.mu.Lock()
	s := m.current
	m.current = nil
	m.mu.Unlock()

	if s != nil {
		s.Close()
	}
}

// Current returns the active session or nil.
func (m *Manager) Current() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}
