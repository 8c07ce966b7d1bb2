// Package client is a typed HTTP client for the portfolio API, used by the
// cvctl command. Authentication is carried by an explicit Session that a
// BearerTransport reads on every request.
package client

import (
	"sync"
	"time"
)

// SessionState is the serializable part of a Session.
type SessionState struct {
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Session holds the current credentials. It is safe for concurrent use.
type Session struct {
	mu    sync.RWMutex
	state SessionState
}

func NewSession(st SessionState) *Session { return &Session{state: st} }

func (s *Session) Set(st SessionState) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *Session) Clear() { s.Set(SessionState{}) }

func (s *Session) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Token returns the bearer token, or "" when logged out.
func (s *Session) Token() string { return s.State().Token }

// Expired reports whether the token's known expiry has passed. A session
// without an expiry is never considered expired locally; the server decides.
func (s *Session) Expired(now time.Time) bool {
	st := s.State()
	return st.Token != "" && !st.ExpiresAt.IsZero() && !now.Before(st.ExpiresAt)
}
