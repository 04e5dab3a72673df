package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New builds the process logger. Text output on stderr, level parsed from
// "debug", "info", "warn" or "error" (anything else is info).
func New(level string, w ...io.Writer) *slog.Logger {
	var out io.Writer = os.Stderr
	if len(w) > 0 && w[0] != nil {
		out = w[0]
	}
	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{
		Level: ParseLevel(level),
	}))
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// Service derives a component logger tagged with its service name.
func Service(l *slog.Logger, name string) *slog.Logger {
	return OrDefault(l).With("service", name)
}

func OrDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}

// Discard is handy in tests that exercise noisy code paths.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
