package memory

import (
	"context"
	"testing"

	"github.com/1KHA/daralhikmajudge/internal/domain"
)

func TestBroadcasterDeliversToSubscribers(t *testing.T) {
	ctx := context.Background()
	b := NewBroadcaster()

	ch, cancel, err := b.Subscribe(ctx, "s1")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	if err := b.Publish(ctx, "s1", domain.Event{Type: domain.EventTeam, SessionID: "s1", ActiveTeam: "X"}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	ev := <-ch
	if ev.Type != domain.EventTeam || ev.ActiveTeam != "X" {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestBroadcasterIsolatesSessions(t *testing.T) {
	ctx := context.Background()
	b := NewBroadcaster()

	ch, cancel, _ := b.Subscribe(ctx, "s1")
	defer cancel()

	_ = b.Publish(ctx, "s2", domain.Event{Type: domain.EventTeam, SessionID: "s2"})

	select {
	case ev := <-ch:
		t.Fatalf("expected no event for other session, got %+v", ev)
	default:
	}
}

func TestBroadcasterDropsOldestWhenSlow(t *testing.T) {
	ctx := context.Background()
	b := NewBroadcaster()

	ch, cancel, _ := b.Subscribe(ctx, "s1")
	defer cancel()

	// Overflow the subscriber buffer; publish must not block.
	for i := 0; i < 20; i++ {
		_ = b.Publish(ctx, "s1", domain.Event{Type: domain.EventTeam, SessionID: "s1", Version: int64(i)})
	}

	var last domain.Event
	for {
		select {
		case ev := <-ch:
			last = ev
			continue
		default:
		}
		break
	}
	if last.Version != 19 {
		t.Fatalf("expected newest event retained, got version %d", last.Version)
	}
}
