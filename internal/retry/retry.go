// Package retry implements a table of armed timers keyed by
// (identifier, action), one entry per key holding every timer
// scheduled for it since it was last cancelled, so the backoff
// schedule grows monotonically across successive retries of the same
// key until it is cancelled.
package retry

import (
	"sync"
	"time"

	"github.com/nyxglass/ao3dl/internal/action"
)

// InitialDelay is the delay for retry 0. Retry N uses
// InitialDelay << N, uncapped.
const InitialDelay = 10 * time.Second

// Requeue is called when an armed timer fires; it must re-enqueue a
// for the worker pool to pick up again.
type Requeue func(a action.Action)

// entry tracks the timers armed for one key.
type entry struct {
	timers map[*time.Timer]chan struct{} // each timer's "fired, callback returned" signal
}

// Table is the shared, mutex-guarded retry table.
type Table struct {
	mu      sync.Mutex
	entries map[action.Key]*entry
	requeue Requeue
}

// NewTable returns an empty retry table that calls requeue when a
// timer fires.
func NewTable(requeue Requeue) *Table {
	return &Table{
		entries: make(map[action.Key]*entry),
		requeue: requeue,
	}
}

// Schedule arms the next timer for a's key and returns the delay it
// used: InitialDelay << N, where N is the number of timers already
// scheduled for the key since it was last cancelled (fired timers
// still count).
func (t *Table) Schedule(a action.Action) time.Duration {
	key := a.Key()

	t.mu.Lock()
	e, ok := t.entries[key]
	if !ok {
		e = &entry{timers: make(map[*time.Timer]chan struct{})}
		t.entries[key] = e
	}
	n := len(e.timers)
	delay := InitialDelay << n

	done := make(chan struct{})
	timer := time.AfterFunc(delay, func() {
		t.requeue(a)
		close(done)
	})
	e.timers[timer] = done
	t.mu.Unlock()

	return delay
}

// Cancel stops and forgets every timer armed for key, blocking until
// any timer that is already firing has finished its callback, so a
// cancellation can't race a fire and leave a stray re-enqueue behind.
func (t *Table) Cancel(key action.Key) {
	t.mu.Lock()
	e, ok := t.entries[key]
	if !ok {
		t.mu.Unlock()
		return
	}
	delete(t.entries, key)
	timers := e.timers
	t.mu.Unlock()

	for timer, done := range timers {
		if timer.Stop() {
			continue // never fired; nothing to await
		}
		<-done
	}
}

// CancelIdentifier cancels every armed key whose identifier matches
// identifier, regardless of action kind. Used when a work id is
// removed so no stale retry can re-enqueue it.
func (t *Table) CancelIdentifier(identifier string) {
	t.mu.Lock()
	var keys []action.Key
	for k := range t.entries {
		if k.Identifier == identifier {
			keys = append(keys, k)
		}
	}
	t.mu.Unlock()

	for _, k := range keys {
		t.Cancel(k)
	}
}

// Shutdown cancels every armed timer in the table.
func (t *Table) Shutdown() {
	t.mu.Lock()
	var keys []action.Key
	for k := range t.entries {
		keys = append(keys, k)
	}
	t.mu.Unlock()

	for _, k := range keys {
		t.Cancel(k)
	}
}

// Len reports the number of distinct keys with at least one timer
// scheduled since the key was last cancelled.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
