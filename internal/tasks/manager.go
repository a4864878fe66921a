// Package tasks runs background activities with tracked lifecycle, progress
// and cancellation. Lifecycle notifications are delivered on the owner
// goroutine of the manager's dispatcher.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"sharppad/internal/dispatch"
	"sharppad/internal/domain"
	"sharppad/internal/eventbus"
	"sharppad/internal/notify"
)

// Manager admits tasks, tracks the active ones and reports faults
type Manager struct {
	dispatcher dispatch.Dispatcher
	bus        eventbus.EventBus
	logger     *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	active    []*Task
	closed    bool
	wg        sync.WaitGroup
	listeners notify.List[domain.DomainEvent]
}

// ManagerConfig holds the manager's collaborators
type ManagerConfig struct {
	Dispatcher dispatch.Dispatcher // required
	Bus        eventbus.EventBus   // optional, receives lifecycle and error events
	Logger     *slog.Logger
}

// NewManager creates a task manager
func NewManager(cfg ManagerConfig) *Manager {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		dispatcher: cfg.Dispatcher,
		bus:        cfg.Bus,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// RunOption customises a single task
type RunOption func(*runOptions)

type runOptions struct {
	progress Progress
}

// WithProgress attaches a progress sink to the task
func WithProgress(p Progress) RunOption {
	return func(o *runOptions) {
		o.progress = p
	}
}

// Run starts action in the background and returns its handle immediately
func (m *Manager) Run(ctx context.Context, name string, action Action, opts ...RunOption) *Task {
	var o runOptions
	for _, opt := range opts {
		opt(&o)
	}
	t := newTask(ctx, name, action, o.progress)

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		t.finish(StateCancelled, nil)
		return t
	}
	m.wg.Add(1)
	m.mu.Unlock()

	stop := context.AfterFunc(m.ctx, t.cancel)
	go func() {
		defer stop()
		m.execute(t)
	}()
	return t
}

func (m *Manager) execute(t *Task) {
	defer m.wg.Done()

	if t.ctx.Err() != nil {
		t.finish(StateCancelled, nil)
		return
	}

	m.enter(t)

	err := m.invoke(t)

	// a plain return after cancellation still counts as completed
	state := StateCompleted
	if err != nil && (errors.Is(err, context.Canceled) || t.ctx.Err() != nil) {
		state, err = StateCancelled, nil
	}

	m.exit(t, state, err)
}

func (m *Manager) invoke(t *Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task %q panicked: %v\n%s", t.name, r, debug.Stack())
		}
	}()
	return t.action(t.ctx, t.progress)
}

// enter admits t; the started notification is delivered before the action runs
func (m *Manager) enter(t *Task) {
	m.mu.Lock()
	m.active = append(m.active, t)
	t.markRunning()
	m.mu.Unlock()

	m.deliver(t.ctx, domain.TaskStartedEvent{TaskID: t.id, Name: t.name}, true)
}

func (m *Manager) exit(t *Task, state State, err error) {
	m.mu.Lock()
	for i, a := range m.active {
		if a == t {
			m.active = append(m.active[:i:i], m.active[i+1:]...)
			break
		}
	}
	m.mu.Unlock()

	t.finish(state, err)

	if err != nil {
		m.logger.Error("task failed", "task", t.name, "task_id", t.id, "error", err)
		if m.bus != nil {
			m.bus.Publish(domain.ErrorEvent{
				Message: fmt.Sprintf("%s failed", t.name),
				Err:     err,
			})
		}
	} else {
		m.logger.Debug("task finished", "task", t.name, "state", state, "duration", t.Duration())
	}

	m.deliver(context.Background(), domain.TaskCompletedEvent{
		TaskID:    t.id,
		Name:      t.name,
		Cancelled: state == StateCancelled,
		Err:       err,
		Duration:  t.Duration(),
	}, false)
}

// deliver notifies owner-side subscribers and forwards to the bus.
// A synchronous delivery gives up when ctx ends so a closing owner cannot
// deadlock against a task waiting to start.
func (m *Manager) deliver(ctx context.Context, event domain.DomainEvent, wait bool) {
	if m.bus != nil {
		m.bus.Publish(event)
	}
	if m.dispatcher == nil || m.listeners.Len() == 0 {
		return
	}

	fire := func() { m.listeners.Notify(event) }
	var err error
	if wait {
		err = m.dispatcher.Invoke(ctx, fire)
	} else {
		err = m.dispatcher.Post(fire)
	}
	if err != nil && !errors.Is(err, dispatch.ErrClosed) && ctx.Err() == nil {
		m.logger.Warn("task notification not delivered", "type", event.Type(), "error", err)
	}
}

// Subscribe registers fn for TaskStarted/TaskCompleted events on the owner goroutine
func (m *Manager) Subscribe(fn func(domain.DomainEvent)) func() {
	return m.listeners.Subscribe(fn)
}

// ActiveTasks returns the running tasks in admission order
func (m *Manager) ActiveTasks() []*Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Task, len(m.active))
	copy(out, m.active)
	return out
}

// Primary returns the oldest running task, or nil
func (m *Manager) Primary() *Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.active) == 0 {
		return nil
	}
	return m.active[0]
}

// Wait blocks until every started task has finished
func (m *Manager) Wait() {
	m.wg.Wait()
}

// Close cancels running tasks, refuses new ones and waits for completion
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	m.cancel()
	m.wg.Wait()
}
