package memory

import (
	"context"
	"sync"

	"github.com/1KHA/daralhikmajudge/internal/domain"
)

type resultKey struct {
	session string
	team    string
}

// ResultStore is an in-memory implementation of app.ResultStore. Upserting
// the same (session, team) pair overwrites the existing row.
type ResultStore struct {
	mu      sync.RWMutex
	results map[resultKey]domain.SessionResult
	order   []resultKey
}

func NewResultStore() *ResultStore {
	return &ResultStore{results: make(map[resultKey]domain.SessionResult)}
}

func (s *ResultStore) Upsert(_ context.Context, r domain.SessionResult) error {
	key := resultKey{r.SessionID, r.TeamName}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.results[key]; !ok {
		s.order = append(s.order, key)
	}
	s.results[key] = r
	return nil
}

func (s *ResultStore) BySession(_ context.Context, sessionID string) ([]domain.SessionResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.SessionResult
	for _, key := range s.order {
		if key.session == sessionID {
			out = append(out, s.results[key])
		}
	}
	return out, nil
}
