package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/1KHA/daralhikmajudge/internal/domain"
)

func TestSessionStoreUpdateChecksVersion(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()

	sess, err := domain.NewSession("s1", "secret", []string{"X"}, 0, time.Now())
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if err := store.Create(ctx, sess); err != nil {
		t.Fatalf("create: %v", err)
	}

	sess.Version = 2
	if err := store.Update(ctx, sess); err != nil {
		t.Fatalf("update: %v", err)
	}

	// A writer still holding version 1 must lose the race.
	stale := sess
	stale.Version = 2
	if err := store.Update(ctx, stale); !errors.Is(err, domain.ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}
}

func TestSessionStoreLatestSkipsCompleted(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()

	old, _ := domain.NewSession("s1", "secret", []string{"X"}, 0, time.Now().Add(-time.Hour))
	newer, _ := domain.NewSession("s2", "secret", []string{"X"}, 0, time.Now())
	newer.Complete()
	_ = store.Create(ctx, old)
	_ = store.Create(ctx, newer)

	latest, err := store.Latest(ctx)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest.ID != "s1" {
		t.Fatalf("expected completed session skipped, got %s", latest.ID)
	}
}

func TestSessionStoreLatestEmpty(t *testing.T) {
	store := NewSessionStore()
	if _, err := store.Latest(context.Background()); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}
