// Package logger provides the application's structured, levelled logger
// built on log/slog.
//
// Production environments get JSON output for log aggregators; everything
// else gets the human-readable text handler.
package logger

import (
	"io"
	"log/slog"
	"os"
)

// L is the process-wide base logger. Components accept a *slog.Logger and
// fall back to L when given nil.
var L = New(os.Getenv("APP_ENV"), os.Stdout)

// New builds a logger for the given application environment.
func New(env string, w io.Writer) *slog.Logger {
	switch env {
	case "production", "prod":
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}

// Or returns log, or L when log is nil.
func Or(log *slog.Logger) *slog.Logger {
	if log != nil {
		return log
	}
	return L
}
