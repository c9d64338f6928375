// Package logging builds the process logger.
package logging

import (
	"io"
	"log/slog"
	"time"

	"github.com/lmittmann/tint"
)

const (
	FormatJSON = "json"
	FormatText = "text"
)

// New returns a JSON logger, or a colourised human readable one when
// format is "text". It also becomes the slog default.
func New(w io.Writer, format string, level slog.Level) *slog.Logger {
	var logger *slog.Logger
	if format == FormatText {
		logger = slog.New(tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		}))
	} else {
		logger = slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: level,
		}))
	}

	slog.SetDefault(logger)
	return logger
}
