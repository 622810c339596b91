package eventbus

import (
	"context"
	"log/slog"
	"sync"
)

// Handler consumes a published event payload.
type Handler func(ctx context.Context, routingKey string, payload []byte)

// InProcessBus is an in-memory publisher for single-process runs. Handlers
// are invoked synchronously in registration order; a handler that panics or
// misbehaves does not fail the publish.
type InProcessBus struct {
	logger   *slog.Logger
	mu       sync.Mutex
	handlers []Handler
}

// NewInProcessBus creates a new in-process event bus.
func NewInProcessBus(logger *slog.Logger) *InProcessBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &InProcessBus{logger: logger}
}

// Subscribe registers a handler for all published events.
func (b *InProcessBus) Subscribe(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

// Publish dispatches an event to every registered handler.
func (b *InProcessBus) Publish(ctx context.Context, routingKey string, payload []byte) error {
	b.mu.Lock()
	handlers := make([]Handler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.Unlock()

	for _, h := range handlers {
		h(ctx, routingKey, payload)
	}

	b.logger.Debug("event dispatched",
		"routing_key", routingKey,
		"handlers", len(handlers),
	)
	return nil
}

// Close is a no-op for the in-process bus.
func (b *InProcessBus) Close() error {
	return nil
}
