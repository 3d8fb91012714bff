package common

import (
	"io"
	"log/slog"
)

// NewLogger builds the process logger and installs it as the slog default.
// Long-running processes log JSON; CLIs log text without the time key.
func NewLogger(w io.Writer, json bool, level slog.Level) *slog.Logger {
	var h slog.Handler
	if json {
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	} else {
		h = slog.NewTextHandler(w, &slog.HandlerOptions{
			Level: level,
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				if a.Key == slog.TimeKey && len(groups) == 0 {
					return slog.Attr{}
				}
				return a
			},
		})
	}
	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}
