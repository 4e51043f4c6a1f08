// Package observer implements two registries of optional before/after
// callbacks, keyed by action kind, that let a front end watch enqueue
// and handler-dispatch events without the engine knowing anything
// about how they're rendered.
package observer

import (
	"sync"

	"github.com/nyxglass/ao3dl/internal/action"
)

// Payload carries the named result fields a handler produces, read by
// after-action callbacks. Every field is optional; only the ones the
// triggering handler populates are meaningful.
type Payload struct {
	WorkTitle    string
	Username     string
	SeriesID     int
	Results      []int // work ids enumerated from a listing page
	ResultsPage  int
	ResultsTotal int
	DownloadPath string
	Error        string
}

// EnqueueFunc fires around adding an action to the queue.
type EnqueueFunc func(identifier string, a action.Action)

// ActionBeforeFunc fires just before a handler runs.
type ActionBeforeFunc func(identifier string, a action.Action)

// ActionAfterFunc fires after a handler returns. It does not fire for
// a work-scoped action whose id left the Active Set before or during
// dispatch.
type ActionAfterFunc func(identifier string, a action.Action, status action.Status, payload Payload)

// EnqueuePair is the optional before/after pair for one action kind's
// enqueue event.
type EnqueuePair struct {
	Before EnqueueFunc
	After  EnqueueFunc
}

// ActionPair is the optional before/after pair for one action kind's
// handler dispatch.
type ActionPair struct {
	Before ActionBeforeFunc
	After  ActionAfterFunc
}

// Registry holds the two callback maps. Safe for concurrent
// registration and firing, though in practice registration happens
// once at startup before any worker runs.
type Registry struct {
	mu      sync.RWMutex
	enqueue map[action.Kind]EnqueuePair
	action_ map[action.Kind]ActionPair
}

// New returns an empty registry; every kind fires no callbacks until
// SetEnqueueCallbacks/SetActionCallbacks populate it.
func New() *Registry {
	return &Registry{
		enqueue: make(map[action.Kind]EnqueuePair),
		action_: make(map[action.Kind]ActionPair),
	}
}

// SetEnqueueCallbacks replaces the entire enqueue callback map.
func (r *Registry) SetEnqueueCallbacks(m map[action.Kind]EnqueuePair) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enqueue = m
}

// SetActionCallbacks replaces the entire action callback map.
func (r *Registry) SetActionCallbacks(m map[action.Kind]ActionPair) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.action_ = m
}

// FireEnqueueBefore invokes kind's before-enqueue callback, if any.
func (r *Registry) FireEnqueueBefore(identifier string, a action.Action) {
	r.mu.RLock()
	pair, ok := r.enqueue[a.Kind]
	r.mu.RUnlock()
	if ok && pair.Before != nil {
		pair.Before(identifier, a)
	}
}

// FireEnqueueAfter invokes kind's after-enqueue callback, if any.
func (r *Registry) FireEnqueueAfter(identifier string, a action.Action) {
	r.mu.RLock()
	pair, ok := r.enqueue[a.Kind]
	r.mu.RUnlock()
	if ok && pair.After != nil {
		pair.After(identifier, a)
	}
}

// FireActionBefore invokes kind's before-dispatch callback, if any.
func (r *Registry) FireActionBefore(identifier string, a action.Action) {
	r.mu.RLock()
	pair, ok := r.action_[a.Kind]
	r.mu.RUnlock()
	if ok && pair.Before != nil {
		pair.Before(identifier, a)
	}
}

// FireActionAfter invokes kind's after-dispatch callback, if any.
func (r *Registry) FireActionAfter(identifier string, a action.Action, status action.Status, payload Payload) {
	r.mu.RLock()
	pair, ok := r.action_[a.Kind]
	r.mu.RUnlock()
	if ok && pair.After != nil {
		pair.After(identifier, a, status, payload)
	}
}
