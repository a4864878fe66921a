package tasks

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"sync"
	"time"
)

// State is the lifecycle stage of a task
type State int

const (
	StatePending State = iota
	StateRunning
	StateCompleted
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether the task has finished
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateCancelled
}

// Action is the unit of work run by a task
type Action func(ctx context.Context, p Progress) error

// Task is one unit of cancellable background work with observable state
type Task struct {
	id       string
	name     string
	action   Action
	progress Progress

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	state       State
	err         error
	createdAt   time.Time
	startedAt   time.Time
	completedAt time.Time
	done        chan struct{}
}

func newTask(ctx context.Context, name string, action Action, progress Progress) *Task {
	if progress == nil {
		progress = NopProgress{}
	}
	taskCtx, cancel := context.WithCancel(ctx)
	return &Task{
		id:        generateID(),
		name:      name,
		action:    action,
		progress:  progress,
		ctx:       taskCtx,
		cancel:    cancel,
		state:     StatePending,
		createdAt: time.Now(),
		done:      make(chan struct{}),
	}
}

func generateID() string {
	b := make([]byte, 12)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

func (t *Task) ID() string   { return t.id }
func (t *Task) Name() string { return t.name }

// Progress is never nil
func (t *Task) Progress() Progress { return t.progress }

// State returns the current lifecycle stage
func (t *Task) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Task) IsRunning() bool {
	return t.State() == StateRunning
}

// IsCompleted is true for both normal completion and cancellation
func (t *Task) IsCompleted() bool {
	return t.State().IsTerminal()
}

func (t *Task) IsCancelled() bool {
	return t.State() == StateCancelled
}

// Err returns the action's failure once the task completed with a fault
func (t *Task) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Duration is the time spent running, or so far if still running
func (t *Task) Duration() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch {
	case t.startedAt.IsZero():
		return 0
	case t.completedAt.IsZero():
		return time.Since(t.startedAt)
	default:
		return t.completedAt.Sub(t.startedAt)
	}
}

// Done is closed once the task reaches a terminal state
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task finishes. It only fails when ctx ends first;
// the action's own error is available through Err.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Cancel requests cancellation; the action observes it through its context
func (t *Task) Cancel() {
	t.cancel()
}

func (t *Task) markRunning() {
	t.mu.Lock()
	t.state = StateRunning
	t.startedAt = time.Now()
	t.mu.Unlock()
}

func (t *Task) finish(state State, err error) {
	t.mu.Lock()
	t.state = state
	t.err = err
	t.completedAt = time.Now()
	if t.startedAt.IsZero() {
		t.startedAt = t.completedAt
	}
	t.mu.Unlock()

	t.cancel()
	close(t.done)
}
