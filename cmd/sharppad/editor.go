package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"sharppad/internal/config"
	"sharppad/internal/document"
	"sharppad/internal/eventbus"
	"sharppad/internal/find"
	"sharppad/internal/logging"
	"sharppad/internal/tasks"
	"sharppad/internal/ui"
	"sharppad/internal/watch"
)

// runEditor opens path (or an empty buffer) in the TUI
func runEditor(ctx context.Context, configPath, path string) error {
	cfg, err := loadConfig(nil, configPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Close()

	bus := eventbus.New(eventbus.WithLogger(logger.Logger))
	defer bus.Close()

	doc, err := openDocument(path)
	if err != nil {
		return err
	}
	logger.Info("document opened", "path", doc.Path(), "bytes", doc.Len())
	if doc.Path() != "" {
		bus.Publish(eventbus.DocumentLoadedEvent{Path: doc.Path(), Length: doc.Len()})
	}

	dispatcher := ui.NewProgramDispatcher()
	manager := tasks.NewManager(tasks.ManagerConfig{Dispatcher: dispatcher, Bus: bus, Logger: logger.Logger})
	finder := find.New(doc, dispatcher, manager, append(searchOptions(cfg.Search, logger.Logger),
		find.WithBus(bus),
		find.WithQuery(cfg.Search.DefaultQuery()),
	)...)

	model := ui.NewModel(ui.Options{
		Config:     cfg,
		Document:   doc,
		Finder:     finder,
		Manager:    manager,
		Dispatcher: dispatcher,
		Bus:        bus,
		Logger:     logger.Logger,
		E2E:        os.Getenv("SHARPPAD_E2E_TEST") == "1",
	})

	var watcher watch.Service
	if cfg.Editor.WatchFile && doc.Path() != "" {
		w := watch.New(watch.Config{
			Path:       doc.Path(),
			Document:   doc,
			Dispatcher: dispatcher,
			Bus:        bus,
			Logger:     logger.Logger,
			Debounce:   cfg.Editor.WatchDebounce(),
		})
		if err := w.Start(ctx); err != nil {
			logger.Warn("file watching disabled", "error", err)
		} else {
			watcher = w
		}
	}

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	dispatcher.Start(p.Send)
	_, runErr := p.Run()

	// the update loop is gone: release anything waiting on it first
	dispatcher.Close()
	if watcher != nil {
		watcher.Stop()
	}
	finder.Close()
	manager.Close()
	model.Close()

	if runErr != nil && !(errors.Is(runErr, tea.ErrProgramKilled) && ctx.Err() != nil) {
		return fmt.Errorf("run editor: %w", runErr)
	}
	return nil
}

// openDocument loads path; a missing file opens an empty buffer that saves to path
func openDocument(path string) (*document.Document, error) {
	if path == "" {
		return document.New(""), nil
	}
	doc, err := document.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		doc = document.New("")
		doc.SetPath(path)
		return doc, nil
	}
	return doc, err
}

// searchOptions maps search settings onto find model options
func searchOptions(s config.SearchSettings, logger *slog.Logger) []find.Option {
	return []find.Option{
		find.WithMinimumInterval(s.MinInterval()),
		find.WithRetryBackoff(s.RetryBackoff()),
		find.WithCheckpointBatch(s.CheckpointBatch),
		find.WithProgressThreshold(s.ProgressThreshold),
		find.WithLocale(s.LocaleTag()),
		find.WithLogger(logger),
	}
}
