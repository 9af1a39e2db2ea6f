// Package log configures the process-wide slog logger.
package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// ParseLevel maps a level name to a slog level, defaulting to info.
func ParseLevel(logLevel string) slog.Level {
	switch strings.ToLower(logLevel) {
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

// NewHandler builds a text or json ("json") handler writing to w.
func NewHandler(w io.Writer, logLevel, format string) slog.Handler {
	options := &slog.HandlerOptions{Level: ParseLevel(logLevel)}

	if strings.EqualFold(format, "json") {
		return slog.NewJSONHandler(w, options)
	}

	return slog.NewTextHandler(w, options)
}

// Setup installs the default logger on stderr and returns it.
func Setup(logLevel, format string) *slog.Logger {
	logger := slog.New(NewHandler(os.Stderr, logLevel, format))
	slog.SetDefault(logger)

	return logger
}

func WithModule(module string) *slog.Logger {
	return slog.With("module", module)
}
