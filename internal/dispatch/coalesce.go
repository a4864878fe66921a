package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

type actionState uint8

const (
	stateRunning          actionState = 1 << iota // worker goroutine alive
	stateContinue                                 // a run is requested and not started
	stateExecuting                                // callback is executing
	stateContinueCritical                         // requested while executing
)

// CoalescedAction turns bursts of RequestRun calls into at most one callback
// execution per MinimumInterval. A request that arrives while the callback
// is executing always produces one more run.
type CoalescedAction struct {
	fn       func(ctx context.Context) error
	interval time.Duration
	onError  func(error)
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	state   actionState
	lastRun time.Time
	idle    chan struct{} // closed when the worker exits
	closed  bool
	wg      sync.WaitGroup
}

// CoalesceOption configures a CoalescedAction
type CoalesceOption func(*CoalescedAction)

// WithErrorHandler sets the handler for callback failures. It is invoked on
// its own goroutine.
func WithErrorHandler(fn func(error)) CoalesceOption {
	return func(a *CoalescedAction) {
		a.onError = fn
	}
}

// WithActionLogger sets the logger used by the default error handler
func WithActionLogger(logger *slog.Logger) CoalesceOption {
	return func(a *CoalescedAction) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewCoalescedAction creates an idle action. fn receives a context that is
// cancelled by Close.
func NewCoalescedAction(interval time.Duration, fn func(ctx context.Context) error, opts ...CoalesceOption) *CoalescedAction {
	ctx, cancel := context.WithCancel(context.Background())
	idle := make(chan struct{})
	close(idle)

	a := &CoalescedAction{
		fn:       fn,
		interval: interval,
		logger:   slog.Default(),
		ctx:      ctx,
		cancel:   cancel,
		idle:     idle,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.onError == nil {
		a.onError = func(err error) {
			a.logger.Error("coalesced action failed", "error", err)
		}
	}
	return a
}

// MinimumInterval returns the spacing enforced between run completions and starts
func (a *CoalescedAction) MinimumInterval() time.Duration {
	return a.interval
}

// RequestRun asks for the callback to run soon. Safe from any goroutine.
func (a *CoalescedAction) RequestRun() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return
	}

	if a.state&stateExecuting != 0 {
		a.state |= stateContinueCritical
	} else {
		a.state |= stateContinue
	}

	if a.state&stateRunning == 0 {
		a.state |= stateRunning
		a.idle = make(chan struct{})
		a.wg.Add(1)
		go a.loop(a.idle)
	}
}

// ClearCriticalState drops a follow-up run requested during the current
// execution. Callers that re-trigger their own work use it to skip the
// redundant pass.
func (a *CoalescedAction) ClearCriticalState() {
	a.mu.Lock()
	a.state &^= stateContinueCritical
	a.mu.Unlock()
}

// IsIdle reports whether no run is pending or executing
func (a *CoalescedAction) IsIdle() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state&stateRunning == 0
}

// WaitIdle blocks until the worker has nothing left to do
func (a *CoalescedAction) WaitIdle(ctx context.Context) error {
	for {
		a.mu.Lock()
		if a.state&stateRunning == 0 {
			a.mu.Unlock()
			return nil
		}
		idle := a.idle
		a.mu.Unlock()

		select {
		case <-idle:
			// a new worker may have started meanwhile; check again
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close stops the worker and cancels a running callback's context
func (a *CoalescedAction) Close() {
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()

	a.cancel()
	a.wg.Wait()
}

func (a *CoalescedAction) loop(idle chan struct{}) {
	defer a.wg.Done()

	for {
		if !a.waitInterval() {
			a.mu.Lock()
			a.state = 0
			close(idle)
			a.mu.Unlock()
			return
		}

		a.mu.Lock()
		if a.state&stateContinue == 0 || a.closed {
			a.state &^= stateRunning | stateContinue
			close(idle)
			a.mu.Unlock()
			return
		}
		a.state &^= stateContinue
		a.state |= stateExecuting
		a.mu.Unlock()

		err := a.invoke()

		a.mu.Lock()
		if a.state&stateContinueCritical != 0 {
			a.state |= stateContinue
			a.state &^= stateContinueCritical
		}
		a.state &^= stateExecuting
		a.lastRun = time.Now()
		a.mu.Unlock()

		if err != nil {
			go a.onError(err)
		}
	}
}

// waitInterval sleeps out the remainder of the minimum interval.
// It returns false when the action was closed.
func (a *CoalescedAction) waitInterval() bool {
	a.mu.Lock()
	var wait time.Duration
	if !a.lastRun.IsZero() {
		wait = a.interval - time.Since(a.lastRun)
	}
	a.mu.Unlock()

	if wait <= 0 {
		return a.ctx.Err() == nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-a.ctx.Done():
		return false
	}
}

func (a *CoalescedAction) invoke() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("coalesced action panic: %v", r)
		}
	}()
	return a.fn(a.ctx)
}
