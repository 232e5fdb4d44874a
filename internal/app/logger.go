package app

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/heartmarshall/laborhub-backend/internal/config"
)

const serviceName = "laborhub"

// NewLogger builds the process logger from cfg, writes it to stderr and
// installs it as the slog default. Every record carries the service name and
// build version.
//
// Format "json" is meant for production. Any other format gives text output
// with source locations. Level is debug, info, warn or error in any case and
// falls back to info.
func NewLogger(cfg config.LogConfig) *slog.Logger {
	logger := newLogger(os.Stderr, cfg)
	slog.SetDefault(logger)
	return logger
}

func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	text := !strings.EqualFold(cfg.Format, "json")
	opts := &slog.HandlerOptions{
		Level:     parseLevel(cfg.Level),
		AddSource: text,
	}

	var handler slog.Handler = slog.NewJSONHandler(w, opts)
	if text {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler).With(
		slog.String("service", serviceName),
		slog.String("version", Version),
	)
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return level
}
