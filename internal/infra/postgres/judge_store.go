package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/1KHA/daralhikmajudge/internal/domain"
)

// JudgeStore is the durable implementation of app.JudgeStore. The token is
// the primary key; (name, session_id) is unique so a rename collision within
// one session is impossible.
type JudgeStore struct {
	db *bun.DB
}

func NewJudgeStore(db *bun.DB) *JudgeStore {
	return &JudgeStore{db: db}
}

func (s *JudgeStore) Put(ctx context.Context, j domain.Judge) error {
	row := judgeRow{Token: j.Token, Name: j.Name, SessionID: j.SessionID}
	_, err := s.db.NewInsert().Model(&row).
		On("CONFLICT (token) DO UPDATE").
		Set("name = EXCLUDED.name").
		Set("session_id = EXCLUDED.session_id").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("upsert judge: %w", err)
	}
	return nil
}

func (s *JudgeStore) ByToken(ctx context.Context, token string) (domain.Judge, error) {
	var row judgeRow
	err := s.db.NewSelect().Model(&row).Where("token = ?", token).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Judge{}, domain.ErrJudgeNotFound
	}
	if err != nil {
		return domain.Judge{}, fmt.Errorf("select judge: %w", err)
	}
	return domain.Judge{Token: row.Token, Name: row.Name, SessionID: row.SessionID}, nil
}

func (s *JudgeStore) ByNameSession(ctx context.Context, name, sessionID string) (domain.Judge, error) {
	var row judgeRow
	err := s.db.NewSelect().Model(&row).
		Where("name = ?", name).
		Where("session_id = ?", sessionID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Judge{}, domain.ErrJudgeNotFound
	}
	if err != nil {
		return domain.Judge{}, fmt.Errorf("select judge by name: %w", err)
	}
	return domain.Judge{Token: row.Token, Name: row.Name, SessionID: row.SessionID}, nil
}
