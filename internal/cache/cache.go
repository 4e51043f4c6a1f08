// Package cache implements the work cache and active set: two
// independently-locked lookup structures the engine consults before
// dispatching and retrying actions.
package cache

import (
	"sync"

	"github.com/nyxglass/ao3dl/internal/archive"
)

// Entry is one cached work's last-known metadata plus the download
// state the engine tracks for it.
type Entry struct {
	Metadata     *archive.Metadata
	DownloadPath string // set once DownloadWork has written the file
	LastUpdated  int64  // unix seconds of last successful reload
}

// WorkCache holds the last-known state for every work id the engine
// has touched. Safe for concurrent use by multiple workers.
type WorkCache struct {
	mu      sync.RWMutex
	entries map[int]*Entry
}

// NewWorkCache returns an empty cache.
func NewWorkCache() *WorkCache {
	return &WorkCache{entries: make(map[int]*Entry)}
}

// Get returns the cached entry for id, or (nil, false) if absent.
func (c *WorkCache) Get(id int) (*Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[id]
	return e, ok
}

// Put replaces or inserts the entry for id.
func (c *WorkCache) Put(id int, e *Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[id] = e
}

// Remove drops id from the cache. A no-op if absent.
func (c *WorkCache) Remove(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
}

// Len reports the number of cached entries.
func (c *WorkCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear empties the cache.
func (c *WorkCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[int]*Entry)
}

// Each calls fn for every cached entry. fn must not call back into
// the cache.
func (c *WorkCache) Each(fn func(id int, e *Entry)) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for id, e := range c.entries {
		fn(id, e)
	}
}
