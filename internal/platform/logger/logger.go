package logger

import (
	"log/slog"
	"os"
)

// New returns the process logger. JSON output unless CEDENT_LOG_FORMAT
// is "text"; level comes from CEDENT_LOG_LEVEL (debug/info/warn/error).
func New() *slog.Logger {
	level := slog.LevelInfo
	switch os.Getenv("CEDENT_LOG_LEVEL") {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if os.Getenv("CEDENT_LOG_FORMAT") == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}
