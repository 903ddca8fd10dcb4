package logger

import (
	"log/slog"
	"os"
)

// New returns the process-wide structured logger. JSON output so the audit
// pipeline's drop/failure logs stay machine-parseable.
func New(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
