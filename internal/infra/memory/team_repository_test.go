package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/1KHA/daralhikmajudge/internal/domain"
)

func TestTeamRepositoryLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewTeamRepository()

	created, err := repo.Create(ctx, domain.Team{Name: "X", Position: 2})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == 0 {
		t.Fatalf("expected assigned id")
	}

	if _, err := repo.Create(ctx, domain.Team{Name: "X"}); !errors.Is(err, domain.ErrDuplicateTeam) {
		t.Fatalf("expected ErrDuplicateTeam, got %v", err)
	}

	_, _ = repo.Create(ctx, domain.Team{Name: "A", Position: 1})
	teams, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(teams) != 2 || teams[0].Name != "A" {
		t.Fatalf("expected position ordering, got %+v", teams)
	}

	created.Name = "X2"
	if err := repo.Update(ctx, created); err != nil {
		t.Fatalf("update: %v", err)
	}

	if err := repo.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete(ctx, created.ID); !errors.Is(err, domain.ErrTeamNotFound) {
		t.Fatalf("expected ErrTeamNotFound, got %v", err)
	}
}
