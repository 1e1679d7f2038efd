package memory

import (
	"context"
	"sync"

	"github.com/1KHA/daralhikmajudge/internal/domain"
)

// JudgeStore is an in-memory implementation of app.JudgeStore.
type JudgeStore struct {
	mu      sync.RWMutex
	byToken map[string]domain.Judge
}

func NewJudgeStore() *JudgeStore {
	return &JudgeStore{byToken: make(map[string]domain.Judge)}
}

func (s *JudgeStore) Put(_ context.Context, j domain.Judge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byToken[j.Token] = j
	return nil
}

func (s *JudgeStore) ByToken(_ context.Context, token string) (domain.Judge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	judge, ok := s.byToken[token]
	if !ok {
		return domain.Judge{}, domain.ErrJudgeNotFound
	}
	return judge, nil
}

func (s *JudgeStore) ByNameSession(_ context.Context, name, sessionID string) (domain.Judge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, judge := range s.byToken {
		if judge.Name == name && judge.SessionID == sessionID {
			return judge, nil
		}
	}
	return domain.Judge{}, domain.ErrJudgeNotFound
}
