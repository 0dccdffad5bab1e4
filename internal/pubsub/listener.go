package pubsub

import "context"

// Listener reads events from one subscription.
type Listener[T any] struct {
	ch <-chan Event[T]
}

// NewListener subscribes to broker. The subscription ends when ctx is cancelled.
func NewListener[T any](ctx context.Context, broker Subscriber[T]) *Listener[T] {
	return &Listener[T]{ch: broker.Subscribe(ctx)}
}

// Next blocks until an event arrives. It returns false when ctx is done or the
// subscription is closed.
func (l *Listener[T]) Next(ctx context.Context) (Event[T], bool) {
	select {
	case <-ctx.Done():
		return Event[T]{}, false
	case event, ok := <-l.ch:
		return event, ok
	}
}

// Drain returns the events that are already buffered without blocking.
func (l *Listener[T]) Drain() []Event[T] {
	var events []Event[T]
	for {
		select {
		case event, ok := <-l.ch:
			if !ok {
				return events
			}
			events = append(events, event)
		default:
			return events
		}
	}
}
