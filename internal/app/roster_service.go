package app

import (
	"context"

	"github.com/1KHA/daralhikmajudge/internal/domain"
)

// TeamRepository stores the host's team roster. Name is unique.
type TeamRepository interface {
	Create(ctx context.Context, t domain.Team) (domain.Team, error)
	List(ctx context.Context) ([]domain.Team, error)
	Update(ctx context.Context, t domain.Team) error
	Delete(ctx context.Context, id int64) error
}

// BankRepository loads question banks (from cache/backing store).
type BankRepository interface {
	GetBank(ctx context.Context, bankID string) (domain.QuestionBank, error)
}

// RosterService covers the host's setup concerns: teams and question banks.
type RosterService struct {
	teams TeamRepository
	banks BankRepository
}

func NewRosterService(teams TeamRepository, banks BankRepository) *RosterService {
	return &RosterService{teams: teams, banks: banks}
}

func (s *RosterService) CreateTeam(ctx context.Context, t domain.Team) (domain.Team, error) {
	if t.Name == "" {
		return domain.Team{}, domain.ErrEmptyTeamName
	}
	return s.teams.Create(ctx, t)
}

func (s *RosterService) ListTeams(ctx context.Context) ([]domain.Team, error) {
	return s.teams.List(ctx)
}

func (s *RosterService) UpdateTeam(ctx context.Context, t domain.Team) error {
	if t.Name == "" {
		return domain.ErrEmptyTeamName
	}
	return s.teams.Update(ctx, t)
}

func (s *RosterService) DeleteTeam(ctx context.Context, id int64) error {
	return s.teams.Delete(ctx, id)
}

func (s *RosterService) GetBank(ctx context.Context, bankID string) (domain.QuestionBank, error) {
	return s.banks.GetBank(ctx, bankID)
}
