// Package notify provides a synchronous observer list.
//
// Listeners run on the goroutine that calls Notify, in subscription order.
// Subscribing or unsubscribing from inside a listener is allowed; the change
// takes effect from the next Notify.
package notify

import "sync"

// List holds the listeners for one kind of notification
type List[T any] struct {
	mu        sync.Mutex
	nextID    uint64
	listeners []listener[T]
}

type listener[T any] struct {
	id uint64
	fn func(T)
}

// Subscribe registers fn and returns a function that removes it.
// The returned function is idempotent.
func (l *List[T]) Subscribe(fn func(T)) func() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextID++
	id := l.nextID
	l.listeners = append(l.listeners, listener[T]{id: id, fn: fn})

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		for i, ln := range l.listeners {
			if ln.id == id {
				// copy so an in-flight Notify keeps its snapshot intact
				next := make([]listener[T], 0, len(l.listeners)-1)
				next = append(next, l.listeners[:i]...)
				l.listeners = append(next, l.listeners[i+1:]...)
				return
			}
		}
	}
}

// Notify calls every listener with v
func (l *List[T]) Notify(v T) {
	l.mu.Lock()
	snapshot := l.listeners
	l.mu.Unlock()

	for _, ln := range snapshot {
		ln.fn(v)
	}
}

// Len returns the number of registered listeners
func (l *List[T]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.listeners)
}
