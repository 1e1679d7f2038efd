package memory

import (
	"context"
	"sync"

	"github.com/1KHA/daralhikmajudge/internal/domain"
)

type answerKey struct {
	session  string
	judge    string
	question string
	team     string
}

// AnswerStore keeps one answer per (session, judge, question, team).
// Insertion order is preserved so leaderboard tie-breaks stay stable across
// reads.
type AnswerStore struct {
	mu      sync.RWMutex
	answers map[answerKey]domain.Answer
	order   []answerKey
}

func NewAnswerStore() *AnswerStore {
	return &AnswerStore{answers: make(map[answerKey]domain.Answer)}
}

func (s *AnswerStore) Upsert(_ context.Context, a domain.Answer) error {
	key := answerKey{a.SessionID, a.JudgeToken, a.QuestionID, a.TeamName}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.answers[key]; !ok {
		s.order = append(s.order, key)
	}
	s.answers[key] = a
	return nil
}

func (s *AnswerStore) BySession(_ context.Context, sessionID string) ([]domain.Answer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Answer
	for _, key := range s.order {
		if key.session == sessionID {
			out = append(out, s.answers[key])
		}
	}
	return out, nil
}

func (s *AnswerStore) ByJudgeTeam(_ context.Context, sessionID, judgeToken, teamName string) ([]domain.Answer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Answer
	for _, key := range s.order {
		if key.session == sessionID && key.judge == judgeToken && key.team == teamName {
			out = append(out, s.answers[key])
		}
	}
	return out, nil
}
