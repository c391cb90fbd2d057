package logging

import (
	"log/slog"
	"os"
	"strings"
)

type Config struct {
	ServiceName string
	Environment string
	Level       string
}

// NewLogger builds the service-wide structured logger: JSON in anything but
// dev, text locally.
func NewLogger(cfg Config) *slog.Logger {
	level := parseLevel(cfg.Level)
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Environment == "dev" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler).With(
		"service", cfg.ServiceName,
		"environment", cfg.Environment,
	)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
