package uploadkit

import (
	"log/slog"
	"sync"
)

// Handler receives an event payload. The payload's concrete type depends on
// the event name (e.g. a TrackedFile for "file:added", a map with "file"
// and "error" keys for "file:error").
type Handler func(payload any)

// EventBus is a minimalist subject:action pub/sub. Delivery is synchronous
// with respect to the emitter: Emit returns only after every subscriber
// registered at call time has been invoked. There are no wildcards and no
// priorities; handlers for the same event run in registration order.
//
// A panicking handler is recovered and logged so it cannot abort delivery
// to the remaining subscribers, mirroring how the plugin runner contains a
// single plugin's failure.
type EventBus struct {
	mu       sync.Mutex
	handlers map[string][]*subscription
	seq      uint64
	logger   *slog.Logger
}

type subscription struct {
	id      uint64
	handler Handler
}

// NewEventBus constructs an EventBus that logs handler panics via logger.
func NewEventBus(logger *slog.Logger) *EventBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventBus{
		handlers: make(map[string][]*subscription),
		logger:   logger,
	}
}

// On subscribes handler to event, which may be a canonical core event
// (e.g. "file:added") or a fully-qualified plugin-scoped event
// (e.g. "thumbnailer:skip"). It returns an unsubscribe function.
func (b *EventBus) On(event string, handler Handler) (unsubscribe func()) {
	b.mu.Lock()
	b.seq++
	id := b.seq
	sub := &subscription{id: id, handler: handler}
	b.handlers[event] = append(b.handlers[event], sub)
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.handlers[event]
		for i, s := range subs {
			if s.id == id {
				b.handlers[event] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
	}
}

// Emit delivers payload synchronously to every handler currently subscribed
// to event, in registration order. A handler's panic is recovered and
// logged; it never prevents delivery to subsequent handlers.
func (b *EventBus) Emit(event string, payload any) {
	b.mu.Lock()
	subs := make([]*subscription, len(b.handlers[event]))
	copy(subs, b.handlers[event])
	b.mu.Unlock()

	for _, sub := range subs {
		b.invoke(event, sub.handler, payload)
	}
}

func (b *EventBus) invoke(event string, handler Handler, payload any) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked", "event", event, "recover", r)
		}
	}()
	handler(payload)
}
