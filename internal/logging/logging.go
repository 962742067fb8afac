// Package logging builds the slog loggers used by the CLI and the serve
// surface. Records go to stderr so stdout stays free for command output.
package logging

import (
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
)

// EnvLogLevel overrides the configured level when set.
const EnvLogLevel = "LOG_LEVEL"

// ParseLevel converts a case-insensitive level name into a slog.Level.
// Unknown names fall back to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

// NewLogger returns a logger tagged with module and version. format is
// "json" or "text"; anything else is treated as text.
func NewLogger(w io.Writer, module, version, level, format string) *slog.Logger {
	if env := os.Getenv(EnvLogLevel); env != "" {
		level = env
	}
	lvl := ParseLevel(level)

	opts := &slog.HandlerOptions{
		Level:     lvl,
		AddSource: lvl <= slog.LevelDebug,
	}

	var h slog.Handler
	if strings.EqualFold(format, "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}

	return slog.New(h).With(
		slog.String("module", module),
		slog.String("version", version),
	)
}

// SetDefault installs a stderr logger as the process default and routes the
// standard library log package through it.
func SetDefault(module, version, level, format string) *slog.Logger {
	logger := NewLogger(os.Stderr, module, version, level, format)
	slog.SetDefault(logger)
	log.SetFlags(0)
	return logger
}
