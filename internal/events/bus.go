package events

import (
	"sync"
	"time"

	"convoke/pkg/logging"
)

// Handler receives published events. Handlers run synchronously on the
// publishing goroutine and must not block.
type Handler func(Event)

// Bus fans run events out to subscribers. A zero subscriber list makes
// Publish a cheap no-op beyond the debug log line.
type Bus struct {
	mu       sync.RWMutex
	handlers []Handler
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a handler for every subsequent event.
func (b *Bus) Subscribe(handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, handler)
}

// Publish stamps the event and delivers it to every subscriber in
// subscription order.
func (b *Bus) Publish(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	logging.Debug("Events", "%s event %s: %s",
		TypeOf(event.Reason), event.Reason, event.Describe())

	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	for _, handler := range handlers {
		handler(event)
	}
}
