package remote

import (
	"log/slog"
	"sync"
)

// hub fans values out to subscribers. Slow subscribers lose values instead of
// blocking the publisher.
type hub[T any] struct {
	name        string
	buffer      int
	subscribers map[int]chan T
	nextID      int
	closed      bool
	logger      *slog.Logger

	mu sync.RWMutex
}

func newHub[T any](name string, buffer int, logger *slog.Logger) *hub[T] {
	return &hub[T]{
		name:        name,
		buffer:      buffer,
		subscribers: make(map[int]chan T),
		logger:      logger,
	}
}

// subscribe returns a channel of published values and a function that cancels
// the subscription. The channel is closed on cancel or when the hub closes.
func (h *hub[T]) subscribe() (<-chan T, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan T, h.buffer)
	if h.closed {
		close(ch)
		return ch, func() {}
	}

	id := h.nextID
	h.nextID++
	h.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if sub, ok := h.subscribers[id]; ok {
				close(sub)
				delete(h.subscribers, id)
			}
		})
	}
}

func (h *hub[T]) publish(v T) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, ch := range h.subscribers {
		select {
		case ch <- v:
		default:
			h.logger.Warn("subscriber too slow, dropping value", "hub", h.name, "subscriber", id)
		}
	}
}

func (h *hub[T]) close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subscribers {
		close(ch)
		delete(h.subscribers, id)
	}
}
