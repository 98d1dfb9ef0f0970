// ABOUTME: Structured logging setup shared by every command and component
// ABOUTME: Wraps log/slog with level parsing and text or JSON output selection
package logging

import (
	"io"
	"log/slog"
	"strings"
)

// Options controls logger construction
type Options struct {
	// Level is the minimum log level (debug, info, warn, error)
	Level string
	// JSON selects the JSON handler instead of the text handler
	JSON bool
}

// New builds a logger writing to w.
// Stdio MCP servers must pass stderr: stdout carries the protocol.
func New(w io.Writer, opts Options) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{Level: ParseLevel(opts.Level)}
	if opts.JSON {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

// Discard returns a logger that drops everything, for tests
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel converts a string level to slog.Level, defaulting to info
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// OrDefault returns l, or slog.Default() when l is nil
func OrDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
