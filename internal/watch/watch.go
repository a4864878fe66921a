// Package watch reloads the open document when its file changes on disk.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/fsnotify/fsnotify"

	"sharppad/internal/dispatch"
	"sharppad/internal/document"
	"sharppad/internal/domain"
	"sharppad/internal/eventbus"
)

// Service watches one file
type Service interface {
	Start(ctx context.Context) error
	Stop()
}

// Config holds the watcher's collaborators
type Config struct {
	Path       string
	Document   *document.Document
	Dispatcher dispatch.Dispatcher // owner of Document
	Bus        eventbus.EventBus
	Logger     *slog.Logger
	Debounce   time.Duration
}

// Watcher is the fsnotify-backed Service. Bursts of file events are
// collapsed into a single reload.
type Watcher struct {
	path       string
	doc        *document.Document
	dispatcher dispatch.Dispatcher
	bus        eventbus.EventBus
	logger     *slog.Logger
	reload     *dispatch.CoalescedAction

	mu       sync.Mutex
	watching bool
	cancel   context.CancelFunc
	fsw      *fsnotify.Watcher
	wg       sync.WaitGroup
}

// New creates a stopped watcher
func New(cfg Config) *Watcher {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	w := &Watcher{
		path:       filepath.Clean(cfg.Path),
		doc:        cfg.Document,
		dispatcher: cfg.Dispatcher,
		bus:        cfg.Bus,
		logger:     logger,
	}
	w.reload = dispatch.NewCoalescedAction(cfg.Debounce, w.sync,
		dispatch.WithActionLogger(logger),
		dispatch.WithErrorHandler(w.reportError),
	)
	return w
}

// Start begins watching. The parent directory is watched so editors
// that save by renaming a temp file are noticed too.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watching {
		return fmt.Errorf("already watching %s", w.path)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		fsw.Close()
		return fmt.Errorf("failed to watch %s: %w", w.path, err)
	}

	watchCtx, cancel := context.WithCancel(ctx)
	w.fsw = fsw
	w.cancel = cancel
	w.watching = true

	w.wg.Add(1)
	go w.run(watchCtx, fsw)

	w.logger.Debug("watching file", "path", w.path)
	return nil
}

func (w *Watcher) run(ctx context.Context, fsw *fsnotify.Watcher) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				w.reload.RequestRun()
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.reportError(fmt.Errorf("watch %s: %w", w.path, err))
		}
	}
}

// sync pulls the file into the document unless it has unsaved edits
func (w *Watcher) sync(ctx context.Context) error {
	data, err := os.ReadFile(w.path)
	if os.IsNotExist(err) {
		// mid-rename; the Create that follows triggers another run
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", w.path, err)
	}
	if !utf8.Valid(data) {
		return fmt.Errorf("failed to read %s: not valid UTF-8", w.path)
	}
	text := string(data)

	var event domain.DomainEvent
	err = w.dispatcher.Invoke(ctx, func() {
		switch {
		case w.doc.Text() == text:
			// our own save, or a touch
		case w.doc.Modified():
			event = domain.ExternalChangeEvent{Path: w.path}
		default:
			w.doc.SetText(text)
			w.doc.MarkSaved()
			event = domain.DocumentReloadedEvent{Path: w.path}
		}
	})
	if err != nil {
		return err
	}

	if event != nil {
		w.logger.Info("external change", "path", w.path, "event", event.Type())
		if w.bus != nil {
			w.bus.Publish(event)
		}
	}
	return nil
}

func (w *Watcher) reportError(err error) {
	w.logger.Error("file watch failed", "path", w.path, "error", err)
	if w.bus != nil {
		w.bus.Publish(domain.ErrorEvent{
			Message: fmt.Sprintf("Failed to reload %s", filepath.Base(w.path)),
			Err:     err,
		})
	}
}

// WaitIdle blocks until no reload is pending
func (w *Watcher) WaitIdle(ctx context.Context) error {
	return w.reload.WaitIdle(ctx)
}

// Stop stops watching and waits for a running reload
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.watching {
		w.mu.Unlock()
		w.reload.Close()
		return
	}
	w.watching = false
	w.cancel()
	fsw := w.fsw
	w.mu.Unlock()

	w.wg.Wait()
	fsw.Close()
	w.reload.Close()
}
