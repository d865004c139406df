package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// New creates a console slog.Logger with provided level string.
func New(level string) *slog.Logger {
	return NewWithWriter(os.Stderr, level)
}

// NewWithWriter writes leveled, timestamped console lines to w.
func NewWithWriter(w io.Writer, level string) *slog.Logger {
	handler := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
		Level:           levelFromString(level),
	})
	return slog.New(handler)
}

func levelFromString(value string) log.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "error":
		return log.ErrorLevel
	case "warn", "warning":
		return log.WarnLevel
	case "info", "":
		return log.InfoLevel
	default:
		return log.DebugLevel
	}
}
