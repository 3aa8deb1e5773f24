package http

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// session tracks one logged-in user.
type session struct {
	username  string
	expiresAt time.Time
}

// SessionManager issues and resolves opaque session tokens for the command
// endpoint. Sessions live in memory only; a restart logs everyone out.
type SessionManager struct {
	mu         sync.Mutex
	sessions   map[string]session
	expiration time.Duration
	now        func() time.Time
}

// NewSessionManager creates a SessionManager with the given session lifetime.
func NewSessionManager(expiration time.Duration) *SessionManager {
	return &SessionManager{
		sessions:   make(map[string]session),
		expiration: expiration,
		now:        time.Now,
	}
}

// Create issues a new session token for the username.
func (m *SessionManager) Create(username string) (token string, expiresAt time.Time) {
	token = uuid.NewString()
	expiresAt = m.now().Add(m.expiration)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.purgeExpiredLocked()
	m.sessions[token] = session{username: username, expiresAt: expiresAt}
	return token, expiresAt
}

// Resolve returns the username behind a token. Expired tokens are removed
// and treated as unknown.
func (m *SessionManager) Resolve(token string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[token]
	if !ok {
		return "", false
	}
	if m.now().After(s.expiresAt) {
		delete(m.sessions, token)
		return "", false
	}
	return s.username, true
}

// Revoke removes a session token. Unknown tokens are a no-op.
func (m *SessionManager) Revoke(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, token)
}

// RevokeUser removes every session belonging to the username. Called when a
// user is deleted or demoted so stale sessions cannot outlive the change.
func (m *SessionManager) RevokeUser(username string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for token, s := range m.sessions {
		if s.username == username {
			delete(m.sessions, token)
		}
	}
}

func (m *SessionManager) purgeExpiredLocked() {
	now := m.now()
	for token, s := range m.sessions {
		if now.After(s.expiresAt) {
			delete(m.sessions, token)
		}
	}
}
