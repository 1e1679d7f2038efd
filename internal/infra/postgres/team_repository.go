package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/1KHA/daralhikmajudge/internal/domain"
)

// TeamRepository is the durable implementation of app.TeamRepository.
type TeamRepository struct {
	db *bun.DB
}

func NewTeamRepository(db *bun.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

func (r *TeamRepository) Create(ctx context.Context, t domain.Team) (domain.Team, error) {
	row := teamRow{Name: t.Name, Position: t.Position}
	_, err := r.db.NewInsert().Model(&row).Returning("id").Exec(ctx)
	if isUniqueViolation(err) {
		return domain.Team{}, domain.ErrDuplicateTeam
	}
	if err != nil {
		return domain.Team{}, fmt.Errorf("insert team: %w", err)
	}
	t.ID = row.ID
	return t, nil
}

func (r *TeamRepository) List(ctx context.Context) ([]domain.Team, error) {
	var rows []teamRow
	err := r.db.NewSelect().Model(&rows).OrderExpr("position ASC, id ASC").Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select teams: %w", err)
	}
	out := make([]domain.Team, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.Team{ID: row.ID, Name: row.Name, Position: row.Position})
	}
	return out, nil
}

func (r *TeamRepository) Update(ctx context.Context, t domain.Team) error {
	row := teamRow{ID: t.ID, Name: t.Name, Position: t.Position}
	res, err := r.db.NewUpdate().Model(&row).WherePK().Exec(ctx)
	if isUniqueViolation(err) {
		return domain.ErrDuplicateTeam
	}
	if err != nil {
		return fmt.Errorf("update team: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update team: %w", err)
	}
	if affected == 0 {
		return domain.ErrTeamNotFound
	}
	return nil
}

func (r *TeamRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.NewDelete().Model((*teamRow)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete team: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete team: %w", err)
	}
	if affected == 0 {
		return domain.ErrTeamNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	return errors.As(err, &pgErr) && pgErr.Field('C') == "23505"
}
