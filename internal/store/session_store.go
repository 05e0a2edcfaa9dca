package store

import (
	"sync"

	"github.com/example/paygate/internal/models"
)

// SessionStore maps order IDs to pending payment sessions. It is the
// single source of truth for "a payment was started".
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]models.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]models.Session)}
}

// Put creates or overwrites the session for orderID.
func (s *SessionStore) Put(orderID, token, expiration string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[orderID] = models.Session{
		OrderID:    orderID,
		Token:      token,
		Expiration: expiration,
	}
}

// TakeByOrderID returns the session for orderID and removes it in the
// same critical section, so concurrent resolvers for the same order see
// the token at most once. Absence is a normal outcome.
func (s *SessionStore) TakeByOrderID(orderID string) (models.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[orderID]
	if ok {
		delete(s.sessions, orderID)
	}
	return session, ok
}

// Len reports the number of pending sessions.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
