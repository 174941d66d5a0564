// Package tickets mirrors the server-owned ticket lists. Status transitions
// are server-authoritative: the store applies what the backend or a realtime
// event reports, it never invents state.
package tickets

import (
	"sort"
	"sync"

	"github.com/bekzodm/murojaat-desk/internal/domain"
)

type Store struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]domain.Session)}
}

// Merge inserts a session only if its UUID is not already held. Realtime
// delivery is at-least-once, so a repeated session.created must be a no-op.
// Returns whether the session was new.
func (s *Store) Merge(session domain.Session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[session.UUID]; exists {
		return false
	}
	s.sessions[session.UUID] = session
	return true
}

// Apply upserts a session with fresh server state. Used for optimistic
// reconciliation after an action response and for assigned/escalated/
// rerouted events.
func (s *Store) Apply(session domain.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.UUID] = session
}

// Replace swaps in a freshly fetched page for one status bucket, keeping
// sessions of other statuses untouched.
func (s *Store) Replace(status domain.SessionStatus, sessions []domain.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for uuid, existing := range s.sessions {
		if existing.Status == status {
			delete(s.sessions, uuid)
		}
	}
	for _, session := range sessions {
		s.sessions[session.UUID] = session
	}
}

func (s *Store) Get(uuid string) (domain.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[uuid]
	return session, ok
}

func (s *Store) Remove(uuid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, uuid)
}

// ByStatus returns the sessions in one status bucket, newest first.
func (s *Store) ByStatus(status domain.SessionStatus) []domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Session
	for _, session := range s.sessions {
		if session.Status == status {
			out = append(out, session)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
