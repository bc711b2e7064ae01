package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Options configures the process logger.
type Options struct {
	Dir            string
	Env            string // dev, staging, prod or test
	Level          string // LOG_LEVEL, empty means the environment default
	RetentionWeeks int
	MaxFileSize    int64
	Verbose        bool // keep info output on the console during tests
}

// parseLogLevel maps a LOG_LEVEL value to a slog level, defaulting to info
func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ConsoleLevel picks the console level. Tests stay quiet unless verbose and
// ignore LOG_LEVEL; elsewhere LOG_LEVEL wins over the environment default.
func ConsoleLevel(env, level string, verbose bool) slog.Level {
	if env == "test" {
		if verbose {
			return slog.LevelInfo
		}
		return slog.LevelError
	}

	if level != "" {
		return parseLogLevel(level)
	}

	switch env {
	case "prod", "staging":
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// FileLevel is always debug; the file is the full record.
func FileLevel() slog.Level {
	return slog.LevelDebug
}

// New builds a logger writing text to the console and JSON to a rotating
// file in opts.Dir. When the file cannot be opened the console logger is
// returned alone together with a no-op closer.
func New(opts Options, console io.Writer) (*slog.Logger, io.Closer) {
	if console == nil {
		console = os.Stdout
	}

	consoleHandler := slog.NewTextHandler(console, &slog.HandlerOptions{
		Level: ConsoleLevel(opts.Env, opts.Level, opts.Verbose),
	})

	if opts.Dir == "" {
		return slog.New(consoleHandler), nopCloser{}
	}

	file, err := NewRotatingFile(opts.Dir, max(opts.RetentionWeeks, 1), opts.MaxFileSize)
	if err != nil {
		logger := slog.New(consoleHandler)
		logger.Error("Failed to initialize log file, logging to console only", "dir", opts.Dir, "error", err)
		return logger, nopCloser{}
	}
	file.StartPruning(24 * time.Hour)

	fileHandler := slog.NewJSONHandler(file, &slog.HandlerOptions{
		Level: FileLevel(),
	})

	return slog.New(&fanout{handlers: []slog.Handler{consoleHandler, fileHandler}}), file
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// fanout sends each record to every handler that accepts its level
type fanout struct {
	handlers []slog.Handler
}

func (f *fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f *fanout) Handle(ctx context.Context, r slog.Record) error {
	var first error
	for _, h := range f.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (f *fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		next[i] = h.WithAttrs(attrs)
	}
	return &fanout{handlers: next}
}

func (f *fanout) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		next[i] = h.WithGroup(name)
	}
	return &fanout{handlers: next}
}
