// Package archive implements the archive client and the identifier
// resolvers: a rate-limit-aware HTTP session against a single
// fan-fiction archive host.
package archive

import (
	"fmt"
	"time"
)

// Metadata is the loaded record for a Work. It is treated as opaque by
// the handlers and the queue — they pass it through to observers
// without inspecting it.
type Metadata struct {
	Title             string
	Authors           []string
	ChaptersPublished int
	ChaptersTotal     int
	WordCount         int
	UpdatedAt         time.Time
	Restricted        bool // true if the work required a logged-in session
}

// Stub is a minimal reference to a work discovered via a series,
// a user's works/bookmarks, or a listing page — enough to enqueue a
// LoadWork action.
type Stub struct {
	WorkID int
	Title  string
}

// FetchError wraps a failed archive request, distinguishing retryable
// rate-limiting from terminal errors.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
	Retryable  bool
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("archive request to %s failed (status %d): %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("archive request to %s failed: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) IsRetryable() bool { return e.Retryable }
