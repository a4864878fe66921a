// Package logging builds the application's slog logger from configuration.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"sharppad/internal/config"
)

// Logger owns the slog logger and the file it writes to
type Logger struct {
	*slog.Logger
	closer io.Closer
}

// New creates a logger from settings. With no file configured the output
// is discarded, since the terminal belongs to the editor.
func New(settings config.LogSettings) (*Logger, error) {
	if settings.File == "" {
		return &Logger{Logger: NewWithWriter(io.Discard, settings)}, nil
	}

	if err := os.MkdirAll(filepath.Dir(settings.File), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(settings.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("could not open log file: %w", err)
	}
	return &Logger{Logger: NewWithWriter(f, settings), closer: f}, nil
}

// NewWithWriter creates a slog logger writing to w
func NewWithWriter(w io.Writer, settings config.LogSettings) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(settings.Level)}

	var handler slog.Handler
	switch strings.ToLower(settings.Format) {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// ParseLevel maps a level name to a slog level, defaulting to info
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Close releases the log file
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}
