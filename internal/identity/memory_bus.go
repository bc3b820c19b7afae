package identity

import (
	"context"
	"log/slog"
	"sync"
)

// MemoryBus is an in-process Bus.
type MemoryBus struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan SessionEvent
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[int]chan SessionEvent)}
}

func (b *MemoryBus) Publish(ctx context.Context, event SessionEvent) error {
	err := ctx.Err()
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for id, ch := range b.subs {
		select {
		case ch <- event:
		default:
			slog.Warn("session event dropped", "subscriber", id, "kind", event.Kind, "user_id", event.UserID)
		}
	}
	return nil
}

func (b *MemoryBus) Subscribe(ctx context.Context) (<-chan SessionEvent, func()) {
	ch := make(chan SessionEvent, subscriberBuffer)
	done := make(chan struct{})

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			if _, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(ch)
			}
			b.mu.Unlock()
			close(done)
		})
	}

	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-done:
		}
	}()

	return ch, cancel
}

// Close drops every subscriber and closes their channels.
func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
	return nil
}
