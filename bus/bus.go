package bus

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/namezys/hass-home-script/entity"
)

// Handler consumes one state-change notification. The bus calls handlers
// serially; a handler must not block for long.
type Handler func(ctx context.Context, change entity.StateChange)

// Bus is a source of entity state-change notifications.
type Bus interface {
	// Subscribe registers the handler and starts delivery. The returned
	// function cancels the subscription.
	Subscribe(ctx context.Context, handler Handler) (func(), error)
}

// Memory is an in-process bus. Publish delivers to every subscriber on the
// calling goroutine, so notification order is the publish order.
type Memory struct {
	logger *slog.Logger

	mu       sync.Mutex
	nextID   int
	handlers map[int]Handler
}

// NewMemory creates an empty in-process bus.
func NewMemory() *Memory {
	return &Memory{
		logger:   slog.Default().With("component", "memory-bus"),
		handlers: make(map[int]Handler),
	}
}

// Subscribe registers the handler until the returned function is called.
func (b *Memory) Subscribe(_ context.Context, handler Handler) (func(), error) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = handler
	b.mu.Unlock()

	b.logger.Debug("subscribe", "subscription", id)
	return func() {
		b.mu.Lock()
		delete(b.handlers, id)
		b.mu.Unlock()
		b.logger.Debug("unsubscribe", "subscription", id)
	}, nil
}

// Publish delivers one notification to every current subscriber, in
// subscription order, on the calling goroutine.
func (b *Memory) Publish(ctx context.Context, change entity.StateChange) {
	b.mu.Lock()
	ids := make([]int, 0, len(b.handlers))
	for id := range b.handlers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	handlers := make([]Handler, 0, len(ids))
	for _, id := range ids {
		handlers = append(handlers, b.handlers[id])
	}
	b.mu.Unlock()

	for _, handler := range handlers {
		handler(ctx, change)
	}
}
