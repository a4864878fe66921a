package eventbus

import (
	"log/slog"
	"runtime/debug"
	"sync"

	"sharppad/internal/domain"
)

// Re-export domain types for convenience
type DomainEvent = domain.DomainEvent
type EventType = domain.EventType

// Event type constants
const (
	EventError            = domain.EventError
	EventTaskStarted      = domain.EventTaskStarted
	EventTaskCompleted    = domain.EventTaskCompleted
	EventSearchCompleted  = domain.EventSearchCompleted
	EventSearchFaulted    = domain.EventSearchFaulted
	EventDocumentLoaded   = domain.EventDocumentLoaded
	EventDocumentSaved    = domain.EventDocumentSaved
	EventDocumentReloaded = domain.EventDocumentReloaded
	EventExternalChange   = domain.EventExternalChange
	EventConfigLoaded     = domain.EventConfigLoaded
	EventConfigSaved      = domain.EventConfigSaved
)

// Re-export domain event types
type ErrorEvent = domain.ErrorEvent
type TaskStartedEvent = domain.TaskStartedEvent
type TaskCompletedEvent = domain.TaskCompletedEvent
type SearchCompletedEvent = domain.SearchCompletedEvent
type SearchFaultedEvent = domain.SearchFaultedEvent
type DocumentLoadedEvent = domain.DocumentLoadedEvent
type DocumentSavedEvent = domain.DocumentSavedEvent
type DocumentReloadedEvent = domain.DocumentReloadedEvent
type ExternalChangeEvent = domain.ExternalChangeEvent
type ConfigLoadedEvent = domain.ConfigLoadedEvent
type ConfigSavedEvent = domain.ConfigSavedEvent

// EventHandler is a function that handles domain events
type EventHandler func(DomainEvent)

// EventBus is the interface for the event bus
type EventBus interface {
	Publish(event DomainEvent)
	Subscribe(eventType EventType, handler EventHandler) func()
	Close()
}

type subscription struct {
	id      uint64
	handler EventHandler
}

// bus is the concrete implementation of EventBus
type bus struct {
	mu        sync.RWMutex
	handlers  map[EventType][]subscription
	nextID    uint64
	eventChan chan DomainEvent
	wg        sync.WaitGroup
	inflight  sync.WaitGroup
	quit      chan struct{}
	closeOnce sync.Once
	logger    *slog.Logger
}

// Option configures the bus
type Option func(*bus)

// WithLogger sets the logger used for publish tracing and handler panics
func WithLogger(logger *slog.Logger) Option {
	return func(b *bus) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithBuffer sets the capacity of the event queue
func WithBuffer(size int) Option {
	return func(b *bus) {
		if size > 0 {
			b.eventChan = make(chan DomainEvent, size)
		}
	}
}

// New creates a new event bus
func New(opts ...Option) EventBus {
	b := &bus{
		handlers:  make(map[EventType][]subscription),
		eventChan: make(chan DomainEvent, 1000),
		quit:      make(chan struct{}),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}

	b.wg.Add(1)
	go b.dispatch()

	return b
}

// Publish publishes an event to all subscribers.
// It never blocks: when the queue is full the event is dropped and logged.
func (b *bus) Publish(event DomainEvent) {
	select {
	case <-b.quit:
		return
	default:
	}

	switch event.Type() {
	case EventTaskStarted, EventTaskCompleted:
		// too frequent to be useful at debug level
	default:
		b.logger.Debug("eventbus: publishing event", "type", event.Type())
	}

	select {
	case b.eventChan <- event:
	default:
		b.logger.Warn("eventbus: channel full, dropping event", "type", event.Type())
	}
}

// Subscribe subscribes to events of a specific type.
// Returns an unsubscribe function.
func (b *bus) Subscribe(eventType EventType, handler EventHandler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.handlers[eventType] = append(b.handlers[eventType], subscription{id: id, handler: handler})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		subs := b.handlers[eventType]
		for i, s := range subs {
			if s.id == id {
				next := make([]subscription, 0, len(subs)-1)
				next = append(next, subs[:i]...)
				b.handlers[eventType] = append(next, subs[i+1:]...)
				break
			}
		}
	}
}

// Close stops dispatching, drops queued events and waits for running handlers
func (b *bus) Close() {
	b.closeOnce.Do(func() {
		close(b.quit)
	})
	b.wg.Wait()
	b.inflight.Wait()
}

// dispatch handles event distribution to subscribers
func (b *bus) dispatch() {
	defer b.wg.Done()

	for {
		select {
		case event := <-b.eventChan:
			b.mu.RLock()
			subs := b.handlers[event.Type()]
			b.mu.RUnlock()

			for _, s := range subs {
				// handlers run on their own goroutine so a slow subscriber
				// cannot stall the queue
				b.inflight.Add(1)
				go func(h EventHandler, eventType EventType) {
					defer b.inflight.Done()
					defer func() {
						if r := recover(); r != nil {
							b.logger.Error("eventbus: handler panic",
								"type", eventType,
								"panic", r,
								"stack", string(debug.Stack()),
							)
						}
					}()
					h(event)
				}(s.handler, event.Type())
			}

		case <-b.quit:
			for {
				select {
				case <-b.eventChan:
				default:
					return
				}
			}
		}
	}
}
