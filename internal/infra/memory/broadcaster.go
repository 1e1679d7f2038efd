package memory

import (
	"context"
	"sync"

	"github.com/1KHA/daralhikmajudge/internal/domain"
)

// Broadcaster is an in-process implementation of app.Broadcaster: a
// per-session set of buffered subscriber channels.
type Broadcaster struct {
	mu   sync.Mutex
	subs map[string]map[chan domain.Event]struct{}
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[string]map[chan domain.Event]struct{})}
}

func (b *Broadcaster) Publish(_ context.Context, sessionID string, ev domain.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs[sessionID] {
		select {
		case ch <- ev:
		default:
			// Drop the oldest queued event so a slow judge cannot block the host.
			select {
			case <-ch:
			default:
			}
			ch <- ev
		}
	}
	return nil
}

func (b *Broadcaster) Subscribe(_ context.Context, sessionID string) (<-chan domain.Event, func(), error) {
	ch := make(chan domain.Event, 8)

	b.mu.Lock()
	if b.subs[sessionID] == nil {
		b.subs[sessionID] = make(map[chan domain.Event]struct{})
	}
	b.subs[sessionID][ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if set, ok := b.subs[sessionID]; ok {
			if _, ok := set[ch]; ok {
				delete(set, ch)
				close(ch)
			}
			if len(set) == 0 {
				delete(b.subs, sessionID)
			}
		}
		b.mu.Unlock()
	}
	return ch, cancel, nil
}
