package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/1KHA/daralhikmajudge/internal/domain"
)

// SessionStore is the durable implementation of app.SessionStore. Optimistic
// concurrency rides on the version column: an update only lands when the
// stored version is the one the caller read.
type SessionStore struct {
	db *bun.DB
}

func NewSessionStore(db *bun.DB) *SessionStore {
	return &SessionStore{db: db}
}

func (s *SessionStore) Create(ctx context.Context, sess domain.Session) error {
	row, err := sessionToRow(sess)
	if err != nil {
		return err
	}
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, id string) (domain.Session, error) {
	var row sessionRow
	err := s.db.NewSelect().Model(&row).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("select session: %w", err)
	}
	return row.toDomain()
}

func (s *SessionStore) Latest(ctx context.Context) (domain.Session, error) {
	var row sessionRow
	err := s.db.NewSelect().Model(&row).
		Where("active_team != ?", domain.CompletedTeam).
		OrderExpr("created_at DESC").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("select latest session: %w", err)
	}
	return row.toDomain()
}

func (s *SessionStore) Update(ctx context.Context, sess domain.Session) error {
	row, err := sessionToRow(sess)
	if err != nil {
		return err
	}
	res, err := s.db.NewUpdate().Model(&row).
		WherePK().
		Where("version = ?", sess.Version-1).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if affected == 0 {
		return domain.ErrVersionConflict
	}
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.NewDelete().Model((*sessionRow)(nil)).Where("id = ?", id).Exec(ctx); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
