// Package dispatch marshals work onto an owning goroutine and rate-limits
// callbacks that are requested in bursts.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
)

// ErrClosed is returned when work is submitted to a stopped dispatcher
var ErrClosed = errors.New("dispatcher closed")

// Dispatcher runs functions on a single owning goroutine.
//
// Invoke must not be called from the owning goroutine itself.
type Dispatcher interface {
	// Invoke runs fn on the owner and waits for it to return
	Invoke(ctx context.Context, fn func()) error
	// Post queues fn on the owner without waiting
	Post(fn func()) error
}

type job struct {
	fn   func()
	done chan struct{}
}

// Loop is a Dispatcher backed by a dedicated goroutine. Jobs run in the
// order they were submitted.
type Loop struct {
	jobs      chan job
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	logger    *slog.Logger

	mu      sync.Mutex
	closed  bool
	senders sync.WaitGroup // submits past the closed check
}

// NewLoop starts the owner goroutine
func NewLoop(logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Loop{
		jobs:   make(chan job, 256),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
		logger: logger,
	}
	go l.run()
	return l
}

func (l *Loop) run() {
	defer close(l.done)
	for {
		select {
		case j := <-l.jobs:
			l.exec(j)
		case <-l.quit:
			// finish what was already queued so Invoke callers are released
			for {
				select {
				case j := <-l.jobs:
					l.exec(j)
				default:
					return
				}
			}
		}
	}
}

func (l *Loop) exec(j job) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("dispatch: job panic", "panic", r, "stack", string(debug.Stack()))
		}
		if j.done != nil {
			close(j.done)
		}
	}()
	j.fn()
}

// Invoke runs fn on the loop goroutine and waits for it
func (l *Loop) Invoke(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	if err := l.submit(ctx, job{fn: fn, done: done}); err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("invoke: %w", ctx.Err())
	}
}

// Post queues fn on the loop goroutine
func (l *Loop) Post(fn func()) error {
	return l.submit(context.Background(), job{fn: fn})
}

func (l *Loop) submit(ctx context.Context, j job) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrClosed
	}
	l.senders.Add(1)
	l.mu.Unlock()
	defer l.senders.Done()

	select {
	case l.jobs <- j:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("submit: %w", ctx.Err())
	}
}

// Close stops the loop after draining queued jobs. Every job accepted
// before Close runs.
func (l *Loop) Close() {
	l.closeOnce.Do(func() {
		l.mu.Lock()
		l.closed = true
		l.mu.Unlock()

		// the loop keeps running until in-flight submits have queued
		l.senders.Wait()
		close(l.quit)
	})
	<-l.done
}
