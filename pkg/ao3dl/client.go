// Package ao3dl is the public API surface a UI drives: a thin facade
// over the lifecycle controller that exposes exactly the commands and
// read-only accessors a front end needs, with nothing internal
// leaking through (no queue, no retry table, no handler state).
package ao3dl

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/nyxglass/ao3dl/internal/action"
	"github.com/nyxglass/ao3dl/internal/archive"
	"github.com/nyxglass/ao3dl/internal/config"
	"github.com/nyxglass/ao3dl/internal/engine"
	"github.com/nyxglass/ao3dl/internal/history"
	"github.com/nyxglass/ao3dl/internal/logging"
	"github.com/nyxglass/ao3dl/internal/observer"
)

// Client is the object a UI constructs once at startup.
type Client struct {
	controller *engine.Controller
	logger     *slog.Logger
}

// Options configures Client construction.
type Options struct {
	BaseDir     string // working directory; settings.ini and data/ live here
	ArchiveHost string // e.g. "archiveofourown.org"
	Verbose     bool

	// HistoryMongoURI, if non-empty, enables the append-only download
	// history sink. It is not part of the engine's job state.
	HistoryMongoURI string
	HistoryDatabase string
	HistoryColl     string
}

// New constructs a Client: sets up logging, loads or writes
// configuration, and starts the worker pool. It does not log in —
// call Login explicitly if credentials are configured.
func New(ctx context.Context, opts Options) (*Client, error) {
	logFile := filepath.Join(opts.BaseDir, config.LogFile)
	f, err := openAppend(logFile)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	logger := logging.NewLogger(f, opts.Verbose, "ao3dl")

	var hist *history.Sink
	if opts.HistoryMongoURI != "" {
		hist, err = history.New(ctx, opts.HistoryMongoURI, opts.HistoryDatabase, opts.HistoryColl, logger)
		if err != nil {
			logger.Warn("history sink unavailable, continuing without it", "error", err)
			hist = nil
		}
	}

	controller, err := engine.NewController(engine.Options{
		BaseDir:     opts.BaseDir,
		ArchiveHost: opts.ArchiveHost,
		Logger:      logger,
		HistorySink: hist,
	})
	if err != nil {
		return nil, err
	}

	return &Client{controller: controller, logger: logger}, nil
}

// Config returns the current configuration.
func (c *Client) Config() *config.Settings {
	return c.controller.Settings
}

// Session returns the current session's username ("guest" if
// unauthenticated).
func (c *Client) Session() string {
	return c.controller.Session.Get().Username()
}

// IsAuthed reports whether the current session is logged in.
func (c *Client) IsAuthed() bool {
	return c.controller.Session.Get().Authenticated()
}

// Login exchanges credentials for an authenticated session,
// synchronously.
func (c *Client) Login(ctx context.Context, username, password string) error {
	status, payload := c.controller.Login(ctx, username, password)
	if status != action.StatusOK {
		return fmt.Errorf("login failed: %s", payload.Error)
	}
	return nil
}

// Logout reverts the session to guest without contacting the archive.
func (c *Client) Logout() {
	c.controller.Session.Set(archive.GuestSession{})
}

// GetSettings returns the current configuration (same data as
// Config(), named to match a UI's get_settings() convention).
func (c *Client) GetSettings() *config.Settings {
	return c.controller.Settings
}

// UpdateSettings applies a partial update, normalizes downloads_dir
// to an absolute path, validates, and persists to disk.
func (c *Client) UpdateSettings(update func(*config.Settings)) error {
	s := c.controller.Settings
	update(s)

	if abs, err := filepath.Abs(s.DownloadsDir); err == nil {
		s.DownloadsDir = abs
	}

	if err := config.Validate(s); err != nil {
		return err
	}
	return s.Save()
}

// Remove un-stages a work id: it leaves the Active Set, its cache
// entry is dropped, and any armed retry for it is cancelled.
func (c *Client) Remove(workID int) {
	c.controller.Remove(workID)
}

// RemoveAll un-stages every work id currently tracked.
func (c *Client) RemoveAll() {
	c.controller.RemoveAll()
}

// DownloadWork enqueues a download for a single work id, staging it
// in the Active Set first.
func (c *Client) DownloadWork(workID int) {
	c.controller.Enqueue(action.Action{Kind: action.DownloadWork, WorkID: workID})
}

// DownloadAll enqueues a DownloadWork action for every work id
// currently staged.
func (c *Client) DownloadAll() {
	c.controller.Active.Each(func(id int) {
		c.controller.Enqueue(action.Action{Kind: action.DownloadWork, WorkID: id})
	})
}

// Stop runs the engine's shutdown sequence and blocks until it
// completes.
func (c *Client) Stop(ctx context.Context) {
	c.controller.Stop(ctx)
}

// LoadWorksFromWorkURLs resolves each URL to a work id and enqueues
// LoadWork for it, work-scoped.
func (c *Client) LoadWorksFromWorkURLs(urls []string) {
	for _, u := range urls {
		id, ok := archive.WorkIDFromURL(u)
		if !ok {
			c.logger.Warn("could not resolve work id from url", "url", u)
			continue
		}
		c.controller.Enqueue(action.Action{Kind: action.LoadWork, WorkID: id})
	}
}

// LoadWorksFromSeriesURLs resolves each URL to a series id and
// enqueues LoadSeries for it.
func (c *Client) LoadWorksFromSeriesURLs(urls []string) {
	for _, u := range urls {
		id, ok := archive.SeriesIDFromURL(u)
		if !ok {
			c.logger.Warn("could not resolve series id from url", "url", u)
			continue
		}
		c.controller.Enqueue(action.Action{Kind: action.LoadSeries, SeriesID: id})
	}
}

// LoadWorksByUsernames enqueues LoadUserWorks for each username.
func (c *Client) LoadWorksByUsernames(usernames []string) {
	for _, name := range usernames {
		c.controller.Enqueue(action.Action{Kind: action.LoadUserWorks, Username: name})
	}
}

// LoadBookmarksByUsernames enqueues LoadUserBookmarks for each
// username.
func (c *Client) LoadBookmarksByUsernames(usernames []string) {
	for _, name := range usernames {
		c.controller.Enqueue(action.Action{Kind: action.LoadUserBookmarks, Username: name})
	}
}

// LoadWorksFromGenericURL enqueues LoadResultsList for an arbitrary
// listing URL (search results, tag pages, a collection) over the
// inclusive page range [start, end]. end == 0 means "all pages".
func (c *Client) LoadWorksFromGenericURL(rawURL string, start, end int) {
	c.controller.Enqueue(action.Action{
		Kind:       action.LoadResultsList,
		ListingURL: rawURL,
		PageStart:  start,
		PageEnd:    end,
	})
}

// SetEnqueueCallbacks registers the before/after enqueue observer
// pairs, keyed by action kind.
func (c *Client) SetEnqueueCallbacks(m map[action.Kind]observer.EnqueuePair) {
	c.controller.Observers.SetEnqueueCallbacks(m)
}

// SetActionCallbacks registers the before/after handler-dispatch
// observer pairs, keyed by action kind.
func (c *Client) SetActionCallbacks(m map[action.Kind]observer.ActionPair) {
	c.controller.Observers.SetActionCallbacks(m)
}

// History exposes the optional download-history sink. The sink only
// appends records and reports how many it wrote (Sink.Count); it has no
// way to read past records back. Returns nil if none was configured.
func (c *Client) History() *history.Sink {
	return c.controller.History
}
