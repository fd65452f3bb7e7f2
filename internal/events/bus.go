package events

import (
	"github.com/kelindar/event"
)

// Bus wraps kelindar/event dispatcher for event broadcasting.
// Every subscriber gets its own queue and goroutine, so Publish never runs
// subscriber code on the caller's stack and a slow subscriber cannot block others.
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a new event bus
func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// Publish publishes an event to all subscribers
// Usage: bus.Publish(PinValueChangedEvent{...})
func (b *Bus) Publish(ev Event) {
	switch e := ev.(type) {
	case PinValueChangedEvent:
		event.Publish(b.dispatcher, e)
	case PinAddedEvent:
		event.Publish(b.dispatcher, e)
	case PinRemovedEvent:
		event.Publish(b.dispatcher, e)
	case PinRenamedEvent:
		event.Publish(b.dispatcher, e)
	case PinInputChangedEvent:
		event.Publish(b.dispatcher, e)
	case LogEntryEvent:
		event.Publish(b.dispatcher, e)
		return
	default:
		return
	}
	// Queues are per subscriber and per type; the envelope gives SubscribePins
	// one queue and therefore cross-type ordering.
	event.Publish(b.dispatcher, pinChange{ev.(PinEvent)})
}

// Subscribe subscribes to events with a handler function
// The handler type determines which events it receives
// Returns an unsubscribe function
// Usage: unsub := bus.Subscribe(func(e PinAddedEvent) { ... })
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(PinValueChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(PinAddedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(PinRemovedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(PinRenamedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(PinInputChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(LogEntryEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		// Return a no-op function if handler type is not recognized
		return func() {}
	}
}

// SubscribePins subscribes fn to every pin-* event family.
// fn sees events in publish order across all pin event types.
func (b *Bus) SubscribePins(fn func(PinEvent)) func() {
	return event.Subscribe(b.dispatcher, func(e pinChange) { fn(e.PinEvent) })
}
