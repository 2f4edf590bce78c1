package interaction

// Subscription identifies a listener registered on an Event.
type Subscription uint64

type listener[T any] struct {
	sub Subscription
	fn  func(T)
}

// Event is a synchronous observer list. Listeners run in subscription order on the
// goroutine that calls Emit.
type Event[T any] struct {
	listeners []listener[T]
	nextSub   Subscription
}

// Subscribe registers fn and returns a handle for Unsubscribe.
func (e *Event[T]) Subscribe(fn func(T)) Subscription {
	e.nextSub++
	e.listeners = append(e.listeners, listener[T]{sub: e.nextSub, fn: fn})
	return e.nextSub
}

// Unsubscribe removes the listener registered under sub. Unknown handles are ignored.
func (e *Event[T]) Unsubscribe(sub Subscription) {
	for i, l := range e.listeners {
		if l.sub != sub {
			continue
		}
		// copy so an Emit in progress keeps iterating its own snapshot
		next := make([]listener[T], 0, len(e.listeners)-1)
		next = append(next, e.listeners[:i]...)
		e.listeners = append(next, e.listeners[i+1:]...)
		return
	}
}

// Emit delivers v to every listener. Listeners added during Emit are not called for v.
func (e *Event[T]) Emit(v T) {
	listeners := e.listeners
	for _, l := range listeners {
		l.fn(v)
	}
}

// Len returns the number of registered listeners.
func (e *Event[T]) Len() int {
	return len(e.listeners)
}

// Signal is an Event without a payload.
type Signal = Event[struct{}]

func emitSignal(s *Signal) {
	s.Emit(struct{}{})
}
