package logging

import (
	"io"
	"log/slog"
)

// NewLogger builds a *slog.Logger over Handler, using the legacy line
// format instead of slog's default text handler.
func NewLogger(out io.Writer, verbose bool, name string) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(New(out, level, name))
}
