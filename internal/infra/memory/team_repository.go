package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/1KHA/daralhikmajudge/internal/domain"
)

// TeamRepository is an in-memory implementation of app.TeamRepository.
type TeamRepository struct {
	mu     sync.RWMutex
	nextID int64
	teams  map[int64]domain.Team
}

func NewTeamRepository() *TeamRepository {
	return &TeamRepository{nextID: 1, teams: make(map[int64]domain.Team)}
}

func (r *TeamRepository) Create(_ context.Context, t domain.Team) (domain.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.teams {
		if existing.Name == t.Name {
			return domain.Team{}, domain.ErrDuplicateTeam
		}
	}
	t.ID = r.nextID
	r.nextID++
	r.teams[t.ID] = t
	return t, nil
}

func (r *TeamRepository) List(_ context.Context) ([]domain.Team, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Team, 0, len(r.teams))
	for _, t := range r.teams {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *TeamRepository) Update(_ context.Context, t domain.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.teams[t.ID]; !ok {
		return domain.ErrTeamNotFound
	}
	for id, existing := range r.teams {
		if id != t.ID && existing.Name == t.Name {
			return domain.ErrDuplicateTeam
		}
	}
	r.teams[t.ID] = t
	return nil
}

func (r *TeamRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.teams[id]; !ok {
		return domain.ErrTeamNotFound
	}
	delete(r.teams, id)
	return nil
}
