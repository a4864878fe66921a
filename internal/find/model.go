// Package find implements incremental search over a live document.
//
// The Model keeps a query and a result set that always matches the current
// document text. Edits and query changes invalidate the results; a
// coalesced background pass recomputes them, restarting whenever it is
// invalidated mid-flight so stale matches are never published.
//
// Setters, navigation and replace must be called on the document's owner
// goroutine. Subscribers are notified on that goroutine too.
package find

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/text/language"

	"sharppad/internal/dispatch"
	"sharppad/internal/document"
	"sharppad/internal/domain"
	"sharppad/internal/eventbus"
	"sharppad/internal/notify"
	"sharppad/internal/tasks"
)

const (
	DefaultMinimumInterval   = 150 * time.Millisecond
	DefaultRetryBackoff      = 50 * time.Millisecond
	DefaultCheckpointBatch   = 100
	DefaultProgressThreshold = 1000
)

// Model is the find-and-replace state for one document
type Model struct {
	doc        *document.Document
	dispatcher dispatch.Dispatcher
	manager    *tasks.Manager
	bus        eventbus.EventBus
	logger     *slog.Logger

	interval          time.Duration
	retryBackoff      time.Duration
	checkpointBatch   int
	progressThreshold int
	locale            language.Tag

	action     *dispatch.CoalescedAction
	progress   *tasks.Tracker
	listeners  notify.List[Change]
	unsubDoc   func()
	unsubTrack func()

	beforePublish func() // test hook, runs on the search worker

	// guarded by mu
	mu             sync.Mutex
	query          domain.SearchQuery
	invalid        bool
	results        []domain.TextRange
	resultsVersion uint64
	current        int
	faulted        bool
	faultMessage   string
	searching      bool
	closed         bool
}

// Option configures a Model
type Option func(*Model)

// WithMinimumInterval sets the spacing between search passes
func WithMinimumInterval(d time.Duration) Option {
	return func(m *Model) { m.interval = d }
}

// WithRetryBackoff sets the pause before restarting an invalidated pass
func WithRetryBackoff(d time.Duration) Option {
	return func(m *Model) { m.retryBackoff = d }
}

// WithCheckpointBatch sets how many matches are found between invalidity checks
func WithCheckpointBatch(n int) Option {
	return func(m *Model) {
		if n > 0 {
			m.checkpointBatch = n
		}
	}
}

// WithProgressThreshold sets the match count above which progress is reported
func WithProgressThreshold(n int) Option {
	return func(m *Model) {
		if n >= 0 {
			m.progressThreshold = n
		}
	}
}

// WithLocale sets the language used for case-insensitive plain matching
func WithLocale(tag language.Tag) Option {
	return func(m *Model) { m.locale = tag }
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(m *Model) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithBus publishes search completion and fault events to bus
func WithBus(bus eventbus.EventBus) Option {
	return func(m *Model) { m.bus = bus }
}

// WithQuery sets the initial query without starting a search
func WithQuery(q domain.SearchQuery) Option {
	return func(m *Model) {
		m.query = normalizeQuery(q)
	}
}

// New creates a model bound to doc. dispatcher must own doc.
func New(doc *document.Document, dispatcher dispatch.Dispatcher, manager *tasks.Manager, opts ...Option) *Model {
	m := &Model{
		doc:               doc,
		dispatcher:        dispatcher,
		manager:           manager,
		logger:            slog.Default(),
		interval:          DefaultMinimumInterval,
		retryBackoff:      DefaultRetryBackoff,
		checkpointBatch:   DefaultCheckpointBatch,
		progressThreshold: DefaultProgressThreshold,
		locale:            language.Und,
		progress:          tasks.NewTracker(),
		current:           -1,
	}
	for _, opt := range opts {
		opt(m)
	}

	m.action = dispatch.NewCoalescedAction(m.interval, m.search,
		dispatch.WithActionLogger(m.logger),
		dispatch.WithErrorHandler(func(err error) {
			m.logger.Error("search loop failed", "error", err)
		}),
	)
	m.unsubDoc = doc.Subscribe(func(document.Change) { m.Invalidate() })
	m.unsubTrack = m.progress.Subscribe(func(tasks.ProgressUpdate) {
		m.post(PropertyProgress)
	})
	return m
}

// Subscribe registers fn for property changes. It returns an unsubscribe function.
func (m *Model) Subscribe(fn func(Change)) func() {
	return m.listeners.Subscribe(fn)
}

func (m *Model) notify(props ...Property) {
	for _, p := range props {
		m.listeners.Notify(Change{Property: p})
	}
}

// post delivers notifications raised on a worker to the owner goroutine
func (m *Model) post(props ...Property) {
	if len(props) == 0 || m.listeners.Len() == 0 {
		return
	}
	if err := m.dispatcher.Post(func() { m.notify(props...) }); err != nil {
		m.logger.Debug("find: notification dropped", "error", err)
	}
}

// Query returns the current query
func (m *Model) Query() domain.SearchQuery {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.query
}

// Results returns a copy of the published matches in ascending order
func (m *Model) Results() []domain.TextRange {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.results)
}

// ResultCount returns the number of published matches
func (m *Model) ResultCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.results)
}

// CurrentResultIndex returns the selected match, or -1
func (m *Model) CurrentResultIndex() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// CurrentResult returns the selected match
func (m *Model) CurrentResult() (domain.TextRange, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current < 0 {
		return domain.TextRange{}, false
	}
	return m.results[m.current], true
}

// IsFaulted reports whether the pattern could not be compiled
func (m *Model) IsFaulted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.faulted
}

// FaultMessage describes the compile error while IsFaulted is true
func (m *Model) FaultMessage() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.faultMessage
}

// IsSearching reports whether a pass is in flight
func (m *Model) IsSearching() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.searching
}

// Progress returns the completion fraction of the running pass
func (m *Model) Progress() float64 {
	return m.progress.Completion()
}

// Invalidate marks the results dirty, clears them and schedules a new pass.
// With an empty pattern no pass is scheduled.
func (m *Model) Invalidate() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.invalid = true
	empty := m.query.IsEmpty()
	m.mu.Unlock()

	m.ClearResults()
	if empty {
		m.clearFault()
		return
	}
	m.action.RequestRun()
}

// ClearResults empties the result set and deselects
func (m *Model) ClearResults() {
	m.mu.Lock()
	props := m.clearResultsLocked()
	m.mu.Unlock()

	m.notify(props...)
}

func (m *Model) clearResultsLocked() []Property {
	var props []Property
	if len(m.results) > 0 {
		m.results = nil
		props = append(props, PropertyResults)
	}
	if m.current != -1 {
		m.current = -1
		props = append(props, PropertyCurrentResultIndex)
	}
	return props
}

func (m *Model) clearFault() {
	m.mu.Lock()
	changed := m.faulted
	m.faulted = false
	m.faultMessage = ""
	m.mu.Unlock()

	if changed {
		m.notify(PropertyFault)
	}
}

// SetCurrentResultIndex selects a match. -1 deselects.
func (m *Model) SetCurrentResultIndex(i int) error {
	m.mu.Lock()
	if i < -1 || i >= len(m.results) {
		n := len(m.results)
		m.mu.Unlock()
		return fmt.Errorf("%w: %d (have %d results)", ErrIndexOutOfRange, i, n)
	}
	changed := m.current != i
	m.current = i
	m.mu.Unlock()

	if changed {
		m.notify(PropertyCurrentResultIndex)
	}
	return nil
}

// MoveToNextResult selects the following match, wrapping to the first
func (m *Model) MoveToNextResult() {
	m.move(1)
}

// MoveToPrevResult selects the preceding match, wrapping to the last
func (m *Model) MoveToPrevResult() {
	m.move(-1)
}

func (m *Model) move(step int) {
	m.mu.Lock()
	n := len(m.results)
	next := -1
	if n > 0 {
		switch {
		case m.current < 0 && step < 0:
			next = n - 1
		case m.current < 0:
			next = 0
		default:
			next = (m.current + step + n) % n
		}
	}
	changed := m.current != next
	m.current = next
	m.mu.Unlock()

	if changed {
		m.notify(PropertyCurrentResultIndex)
	}
}

// SelectNearest selects the first match starting at or after offset,
// wrapping to the first match. It reports whether anything is selected.
func (m *Model) SelectNearest(offset int) bool {
	m.mu.Lock()
	if len(m.results) == 0 {
		m.mu.Unlock()
		return false
	}
	i, _ := slices.BinarySearchFunc(m.results, offset, func(r domain.TextRange, off int) int {
		return r.Index - off
	})
	if i == len(m.results) {
		i = 0
	}
	changed := m.current != i
	m.current = i
	m.mu.Unlock()

	if changed {
		m.notify(PropertyCurrentResultIndex)
	}
	return true
}

// WaitIdle blocks until no pass is pending or running and the resulting
// notifications were delivered. It must not be called on the owner goroutine.
func (m *Model) WaitIdle(ctx context.Context) error {
	if err := m.action.WaitIdle(ctx); err != nil {
		return err
	}
	return m.dispatcher.Invoke(ctx, func() {})
}

// Close stops searching and detaches from the document
func (m *Model) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.mu.Unlock()

	m.unsubDoc()
	m.unsubTrack()
	m.action.Close()
}
