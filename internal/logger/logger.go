// Package logger builds the application's slog.Logger from config.
package logger

import (
	"io"
	"log/slog"
	"strings"

	"github.com/sakif/grade-predictor/internal/config"
)

// New returns a logger writing to w. Format "json" selects the JSON
// handler; anything else is human-readable text. An unknown level falls
// back to info.
func New(cfg config.LogConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var h slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json":
		h = slog.NewJSONHandler(w, opts)
	default:
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h)
}

func parseLevel(raw string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(raw)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
