package event

import (
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// Handler is a function that handles an event.
type Handler func(Event)

// PanicHandler is told about a subscriber that panicked while handling an
// event. The bus recovers the panic either way.
type PanicHandler func(eventType string, recovered any, stack []byte)

const wildcard = "*"

type subscription struct {
	id      string
	handler Handler
}

// Bus is a synchronous pub-sub event bus. The orchestrator publishes task
// lifecycle events on it; the console reporter and metrics subscribe.
type Bus struct {
	mu            sync.RWMutex
	subscriptions map[string][]subscription // eventType -> subscriptions
	nextID        atomic.Uint64
	onPanic       PanicHandler
}

// NewBus creates a new event bus.
func NewBus() *Bus {
	return &Bus{
		subscriptions: make(map[string][]subscription),
	}
}

// OnPanic installs a callback for panicking handlers. Passing nil restores
// the default, which drops the panic silently after recovery.
func (b *Bus) OnPanic(fn PanicHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onPanic = fn
}

// Subscribe registers a handler for one event type and returns an ID for
// Unsubscribe.
func (b *Bus) Subscribe(eventType string, handler Handler) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := fmt.Sprintf("sub-%d", b.nextID.Add(1))
	b.subscriptions[eventType] = append(b.subscriptions[eventType], subscription{id: id, handler: handler})
	return id
}

// SubscribeAll registers a handler that receives every published event.
func (b *Bus) SubscribeAll(handler Handler) string {
	return b.Subscribe(wildcard, handler)
}

// Unsubscribe removes a subscription by ID.
// Returns true if the subscription was found and removed.
func (b *Bus) Unsubscribe(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for eventType, subs := range b.subscriptions {
		for i, sub := range subs {
			if sub.id == id {
				b.subscriptions[eventType] = append(subs[:i:i], subs[i+1:]...)
				return true
			}
		}
	}
	return false
}

// Publish dispatches an event to its type's handlers, then to wildcard
// handlers, each group in registration order. Publish may be called from
// several goroutines at once (tasks of a concurrent group do), so handlers
// must be safe for concurrent use.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	eventType := event.EventType()
	specific := append([]subscription(nil), b.subscriptions[eventType]...)
	all := append([]subscription(nil), b.subscriptions[wildcard]...)
	onPanic := b.onPanic
	b.mu.RUnlock()

	for _, sub := range specific {
		safeCall(sub.handler, event, onPanic)
	}
	for _, sub := range all {
		safeCall(sub.handler, event, onPanic)
	}
}

func safeCall(handler Handler, event Event, onPanic PanicHandler) {
	defer func() {
		if r := recover(); r != nil && onPanic != nil {
			onPanic(event.EventType(), r, debug.Stack())
		}
	}()
	handler(event)
}

// SubscriptionCount returns the total number of active subscriptions.
func (b *Bus) SubscriptionCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	count := 0
	for _, subs := range b.subscriptions {
		count += len(subs)
	}
	return count
}
