package ui

import (
	"context"
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"sharppad/internal/dispatch"
)

// ProgramDispatcher is a dispatch.Dispatcher whose owner goroutine is the
// bubbletea update loop. Work is delivered as messages, in submission
// order, and run by Model.Update.
type ProgramDispatcher struct {
	mu      sync.Mutex
	pending []tea.Msg
	closed  bool
	wake    chan struct{}
	quit    chan struct{}
	done    chan struct{}
	started bool
}

var _ dispatch.Dispatcher = (*ProgramDispatcher)(nil)

// NewProgramDispatcher creates a dispatcher; Start connects it to a program
func NewProgramDispatcher() *ProgramDispatcher {
	return &ProgramDispatcher{
		wake: make(chan struct{}, 1),
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// Start forwards queued messages to send, usually tea.Program.Send
func (d *ProgramDispatcher) Start(send func(tea.Msg)) {
	d.mu.Lock()
	if d.started {
		d.mu.Unlock()
		return
	}
	d.started = true
	d.mu.Unlock()

	go d.forward(send)
}

func (d *ProgramDispatcher) forward(send func(tea.Msg)) {
	defer close(d.done)
	for {
		select {
		case <-d.wake:
		case <-d.quit:
			return
		}
		for {
			d.mu.Lock()
			if len(d.pending) == 0 {
				d.mu.Unlock()
				break
			}
			msg := d.pending[0]
			d.pending = d.pending[1:]
			d.mu.Unlock()

			send(msg)
		}
	}
}

// Send queues an arbitrary message behind earlier work
func (d *ProgramDispatcher) Send(msg tea.Msg) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return dispatch.ErrClosed
	}
	d.pending = append(d.pending, msg)
	select {
	case d.wake <- struct{}{}:
	default:
	}
	return nil
}

// Invoke runs fn in Update and waits for it. It must not be called from Update.
func (d *ProgramDispatcher) Invoke(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	if err := d.Send(invokeMsg{fn: fn, done: done}); err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-d.quit:
		return dispatch.ErrClosed
	case <-ctx.Done():
		return fmt.Errorf("invoke: %w", ctx.Err())
	}
}

// Post queues fn to run in Update. Safe to call from Update.
func (d *ProgramDispatcher) Post(fn func()) error {
	return d.Send(invokeMsg{fn: fn})
}

// Close stops forwarding. Waiting Invoke calls return dispatch.ErrClosed.
func (d *ProgramDispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.pending = nil
	started := d.started
	d.mu.Unlock()

	close(d.quit)
	if started {
		<-d.done
	}
}
