package logging

import (
	"io"
	"log/slog"
	"os"
	"sync"
)

type LoggingService struct {
	Logger *slog.Logger
	closer io.Closer
}

var (
	DefaultLoggingService *LoggingService
	fallbackOnce          sync.Once
	fallback              *slog.Logger
)

// InitLogger initializes the global logger instance and makes it the slog default
func InitLogger(opts Options) {
	logger, closer := New(opts, os.Stdout)
	DefaultLoggingService = &LoggingService{Logger: logger, closer: closer}
	slog.SetDefault(logger)
}

// Close flushes and closes the log file of the global logger
func Close() error {
	if DefaultLoggingService == nil || DefaultLoggingService.closer == nil {
		return nil
	}
	return DefaultLoggingService.closer.Close()
}

// Logger returns the global logger, or a stderr logger before InitLogger.
// The returned logger also serves as the leveled logger of the HTTP clients.
func Logger() *slog.Logger {
	if DefaultLoggingService != nil && DefaultLoggingService.Logger != nil {
		return DefaultLoggingService.Logger
	}
	fallbackOnce.Do(func() {
		fallback = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	})
	return fallback
}

// Package-level functions for direct access

func Info(msg string, args ...any) {
	Logger().Info(msg, args...)
}

func Error(msg string, args ...any) {
	Logger().Error(msg, args...)
}

func Warn(msg string, args ...any) {
	Logger().Warn(msg, args...)
}

func Debug(msg string, args ...any) {
	Logger().Debug(msg, args...)
}
