package session

import "sync"

// Store holds the current session and its derived user projection. All
// mutation funnels through Replace and Clear; external components read
// through Current and User only.
//
// The orchestrator is the sole writer. The mutex exists because reads from
// the UI layer may arrive on other goroutines.
type Store struct {
	mu      sync.RWMutex
	session *Session
	user    *User
}

// NewStore describes the newstore operation and its observable behavior.
func NewStore() *Store {
	return &Store{}
}

// Replace installs the incoming session, replacing any prior one wholesale,
// and recomputes the derived user. A nil session clears the store.
func (s *Store) Replace(sess *Session) *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = sess
	s.user = Project(sess)
	return s.user
}

// Clear drops the session and derived user.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = nil
	s.user = nil
}

// Current returns the stored session, or nil when unauthenticated.
func (s *Store) Current() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// User returns the derived user projection, or nil when unauthenticated.
func (s *Store) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Authenticated reports whether the store holds an authenticated session.
func (s *Store) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.Authenticated()
}
