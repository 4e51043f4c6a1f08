// Package handlers implements one function per action.Kind, each
// following the signature (identifier, engine-state) -> (Status,
// payload) and consulting or mutating the shared cache, active set,
// and session.
package handlers

import (
	"sync"

	"github.com/nyxglass/ao3dl/internal/action"
	"github.com/nyxglass/ao3dl/internal/archive"
	"github.com/nyxglass/ao3dl/internal/cache"
	"github.com/nyxglass/ao3dl/internal/history"
	"github.com/nyxglass/ao3dl/internal/observer"
)

// SessionHolder guards the single mutable current Session: exactly
// one of Guest|Authenticated is active at a time.
type SessionHolder struct {
	mu      sync.RWMutex
	session archive.Session
}

// NewSessionHolder starts out as a guest session.
func NewSessionHolder() *SessionHolder {
	return &SessionHolder{session: archive.GuestSession{}}
}

func (h *SessionHolder) Get() archive.Session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.session
}

func (h *SessionHolder) Set(s archive.Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.session = s
}

// Enqueuer is implemented by the action queue; handlers depend only
// on this narrow interface so they never import the engine package.
type Enqueuer interface {
	Push(a action.Action)
}

// State bundles every shared dependency a handler needs. One State is
// constructed per engine and shared by all workers.
type State struct {
	Archive      *archive.Client
	Session      *SessionHolder
	WorkCache    *cache.WorkCache
	ActiveSet    *cache.ActiveSet
	Queue        Enqueuer
	Observers    *observer.Registry
	History      *history.Sink // optional; nil-safe, see history.Sink.Append
	DownloadsDir string        // base directory; per-user subdirectory is added by DownloadWork
	Filetype     string        // e.g. "PDF", "EPUB"; lowercased for download URLs and file extensions
}

// enqueueWorkScoped adds id to the active set (if not already
// present) and pushes a into the queue, firing the enqueue observer
// pair around it. Used by LoadSeries and LoadResultsPage to enqueue
// LoadWork for each work id they discover.
func (s *State) enqueueWorkScoped(id int, a action.Action) {
	identifier := a.Key().Identifier
	s.Observers.FireEnqueueBefore(identifier, a)
	s.ActiveSet.Add(id)
	s.Queue.Push(a)
	s.Observers.FireEnqueueAfter(identifier, a)
}
