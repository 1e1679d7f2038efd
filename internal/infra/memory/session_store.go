package memory

import (
	"context"
	"sync"

	"github.com/1KHA/daralhikmajudge/internal/domain"
)

// SessionStore is an in-memory implementation of app.SessionStore with
// optimistic concurrency on the session version.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]domain.Session)}
}

func (s *SessionStore) Create(_ context.Context, sess domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	return nil
}

func (s *SessionStore) Get(_ context.Context, id string) (domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return sess, nil
}

func (s *SessionStore) Latest(_ context.Context) (domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest domain.Session
	found := false
	for _, sess := range s.sessions {
		if sess.Completed() {
			continue
		}
		if !found || sess.CreatedAt.After(latest.CreatedAt) {
			latest = sess
			found = true
		}
	}
	if !found {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return latest, nil
}

func (s *SessionStore) Update(_ context.Context, sess domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.sessions[sess.ID]
	if !ok {
		return domain.ErrSessionNotFound
	}
	if stored.Version != sess.Version-1 {
		return domain.ErrVersionConflict
	}
	s.sessions[sess.ID] = sess
	return nil
}

func (s *SessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}
