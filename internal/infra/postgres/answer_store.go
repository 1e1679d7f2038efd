package postgres

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/1KHA/daralhikmajudge/internal/domain"
)

// AnswerStore persists answers with a single atomic upsert keyed on
// (session, judge, question, team), so replacing an answer never leaves a
// window where the old row is gone and the new one not yet visible.
type AnswerStore struct {
	db *bun.DB
}

func NewAnswerStore(db *bun.DB) *AnswerStore {
	return &AnswerStore{db: db}
}

func (s *AnswerStore) Upsert(ctx context.Context, a domain.Answer) error {
	row := answerToRow(a)
	_, err := s.db.NewInsert().Model(&row).
		On("CONFLICT (session_id, judge_token, question_id, team_name) DO UPDATE").
		Set("choice = EXCLUDED.choice").
		Set("points = EXCLUDED.points").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("upsert answer: %w", err)
	}
	return nil
}

func (s *AnswerStore) BySession(ctx context.Context, sessionID string) ([]domain.Answer, error) {
	var rows []answerRow
	err := s.db.NewSelect().Model(&rows).
		Where("session_id = ?", sessionID).
		OrderExpr("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select answers: %w", err)
	}
	out := make([]domain.Answer, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (s *AnswerStore) ByJudgeTeam(ctx context.Context, sessionID, judgeToken, teamName string) ([]domain.Answer, error) {
	var rows []answerRow
	err := s.db.NewSelect().Model(&rows).
		Where("session_id = ?", sessionID).
		Where("judge_token = ?", judgeToken).
		Where("team_name = ?", teamName).
		OrderExpr("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select judge answers: %w", err)
	}
	out := make([]domain.Answer, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
