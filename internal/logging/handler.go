// Package logging provides a slog.Handler that reproduces the legacy
// log line format this tool has always used:
// "<ts> [<logger>] [<thread>] [<level>] <message>". Keeping the format
// lets existing log-scraping tooling (and muscle memory) keep working
// after the rewrite.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
)

const timeLayout = "01/02/2006 03:04:05PM"

// Handler writes "<ts> [<logger>] [<thread>] [<level>] <message> k=v
// k=v..." lines. "thread" is a caller-supplied label (e.g.
// "worker-3", "MainThread") rather than a real OS thread id, since Go
// doesn't expose one meaningfully for a goroutine.
type Handler struct {
	mu     *sync.Mutex
	out    io.Writer
	level  slog.Leveler
	name   string
	thread string
	attrs  []slog.Attr
}

// New returns a Handler writing to out at the given minimum level.
// name is the logger name shown in the second bracket.
func New(out io.Writer, level slog.Leveler, name string) *Handler {
	return &Handler{
		mu:     &sync.Mutex{},
		out:    out,
		level:  level,
		name:   name,
		thread: "MainThread",
	}
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	b.WriteString(r.Time.Format(timeLayout))
	b.WriteString(" [")
	b.WriteString(h.name)
	b.WriteString("] [")
	b.WriteString(h.thread)
	b.WriteString("] [")
	b.WriteString(levelName(r.Level))
	b.WriteString("] ")
	b.WriteString(r.Message)

	for _, a := range h.attrs {
		fmt.Fprintf(&b, " %s=%v", a.Key, a.Value)
	}
	r.Attrs(func(a slog.Attr) bool {
		fmt.Fprintf(&b, " %s=%v", a.Key, a.Value)
		return true
	})
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, b.String())
	return err
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &next
}

// WithGroup is a no-op: this format has no nested-group rendering.
func (h *Handler) WithGroup(string) slog.Handler {
	return h
}

// WithThread returns a copy of h labeling records with thread, the
// way a worker goroutine would tag itself: callbacks run on the
// worker that drove the action, never on a UI thread.
func (h *Handler) WithThread(thread string) *Handler {
	next := *h
	next.thread = thread
	return &next
}

func levelName(l slog.Level) string {
	switch {
	case l < slog.LevelInfo:
		return "DEBUG"
	case l < slog.LevelWarn:
		return "INFO"
	case l < slog.LevelError:
		return "WARNING"
	default:
		return "ERROR"
	}
}
