// Package log provides a structured logging interface for tabfit operations.
//
// The interface is slog-compatible so the backend can be switched without
// touching call sites. Production code uses the zerolog backend returned by
// NewZerologProvider; tests use NewTestLogger to capture entries in memory.
//
// Example usage:
//
//	logger := provider.GetLoggerWithName("pipeline").With(
//	    log.ModelNameKey, "LinearRegression",
//	    log.EstimatorIDKey, id,
//	)
//	logger.Info("Training completed",
//	    log.OperationKey, log.OperationFit,
//	    log.SamplesKey, 1000,
//	    log.R2ScoreKey, 0.93,
//	)
package log

import (
	"context"
)

// Logger defines a structured logging interface compatible with Go's log/slog.
//
// Every method takes a message and an optional list of alternating key/value
// pairs. With returns a child logger that carries the given pairs on every
// entry.
type Logger interface {
	// Debug logs detailed diagnostic information, usually disabled in production.
	Debug(msg string, fields ...any)

	// Info logs general operational information.
	Info(msg string, fields ...any)

	// Warn logs conditions that deserve attention but do not fail the operation,
	// such as columns that could not be imputed.
	Warn(msg string, fields ...any)

	// Error logs a failed operation. The error itself is passed as a field,
	// conventionally under the "error" key.
	Error(msg string, fields ...any)

	// With creates a child logger with pre-populated fields.
	With(fields ...any) Logger

	// Enabled reports whether the logger emits entries at the given level.
	Enabled(ctx context.Context, level Level) bool
}

// Level represents the severity level of log messages.
// The values match slog.Level so the two can be converted directly.
type Level int

const (
	LevelDebug Level = -4 // Detailed diagnostic information
	LevelInfo  Level = 0  // General operational information
	LevelWarn  Level = 4  // Warning conditions
	LevelError Level = 8  // Error conditions
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// LoggerProvider creates named loggers that share a backend and level.
type LoggerProvider interface {
	// GetLogger returns the default logger instance.
	GetLogger() Logger

	// GetLoggerWithName returns a logger tagged with a component name.
	GetLoggerWithName(name string) Logger

	// SetLevel sets the minimum log level for all loggers created by this provider.
	SetLevel(level Level)
}
