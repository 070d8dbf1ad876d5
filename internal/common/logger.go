package common

import (
	"io"
	"log/slog"
	"strings"
)

// NewLogger builds the process logger: JSON in production, text elsewhere.
func NewLogger(w io.Writer, app AppConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(app.LogLevel)}
	var h slog.Handler
	if app.Env == EnvProduction {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h).With("service", "forms-intake")
}

func ParseLevel(s string) slog.Level {
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
