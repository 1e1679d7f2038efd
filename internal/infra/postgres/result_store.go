package postgres

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/1KHA/daralhikmajudge/internal/domain"
)

// ResultStore persists finalized totals, one row per (session, team).
// Upserting makes End idempotent: a second finalize rewrites the same rows.
type ResultStore struct {
	db *bun.DB
}

func NewResultStore(db *bun.DB) *ResultStore {
	return &ResultStore{db: db}
}

func (s *ResultStore) Upsert(ctx context.Context, r domain.SessionResult) error {
	row, err := resultToRow(r)
	if err != nil {
		return err
	}
	_, err = s.db.NewInsert().Model(&row).
		On("CONFLICT (session_id, team_name) DO UPDATE").
		Set("total = EXCLUDED.total").
		Set("answers = EXCLUDED.answers").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("upsert session result: %w", err)
	}
	return nil
}

func (s *ResultStore) BySession(ctx context.Context, sessionID string) ([]domain.SessionResult, error) {
	var rows []resultRow
	err := s.db.NewSelect().Model(&rows).
		Where("session_id = ?", sessionID).
		OrderExpr("total DESC, team_name ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select session results: %w", err)
	}
	out := make([]domain.SessionResult, 0, len(rows))
	for _, row := range rows {
		result, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, result)
	}
	return out, nil
}
