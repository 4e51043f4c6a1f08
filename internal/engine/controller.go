package engine

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/nyxglass/ao3dl/internal/action"
	"github.com/nyxglass/ao3dl/internal/archive"
	"github.com/nyxglass/ao3dl/internal/cache"
	"github.com/nyxglass/ao3dl/internal/config"
	"github.com/nyxglass/ao3dl/internal/handlers"
	"github.com/nyxglass/ao3dl/internal/history"
	"github.com/nyxglass/ao3dl/internal/observer"
	"github.com/nyxglass/ao3dl/internal/queue"
)

// Controller owns construction order, settings persistence, and
// shutdown sequencing for one Engine.
type Controller struct {
	Settings  *config.Settings
	Session   *handlers.SessionHolder
	WorkCache *cache.WorkCache
	Active    *cache.ActiveSet
	Observers *observer.Registry
	Archive   *archive.Client
	History   *history.Sink

	engine *Engine
	logger *slog.Logger
	baseDir string
}

// Options configures Controller construction.
type Options struct {
	BaseDir        string // root directory; settings file and data/ tree live here
	ArchiveHost    string
	Logger         *slog.Logger
	HistorySink    *history.Sink // optional; nil disables the append-only history sink
}

// NewController builds every piece of shared engine state in a fixed
// order: queue, then the data directory tree, then a guest session,
// then configuration, then the archive client (with rate limiting if
// enabled), then cache/active set/observer registry, then the engine
// with its retry table and worker count, and startup — with no
// auto-login.
func NewController(opts Options) (*Controller, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	q := queue.New()

	dataDir := filepath.Join(opts.BaseDir, config.DataDir)
	if err := os.MkdirAll(filepath.Join(dataDir, config.BookmarksDir), 0o755); err != nil {
		return nil, err
	}

	sessionHolder := handlers.NewSessionHolder() // guest by default

	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = opts.BaseDir
	}
	settingsPath := filepath.Join(opts.BaseDir, config.ConfigurationFile)
	settings, err := config.Load(settingsPath, homeDir, logger)
	if err != nil {
		return nil, err
	}

	archiveClient, err := archive.New(archive.Config{
		Host:             opts.ArchiveHost,
		RateLimitEnabled: settings.ShouldRateLimit,
	}, logger)
	if err != nil {
		return nil, err
	}
	handlers.SetArchiveHost(opts.ArchiveHost)

	workCache := cache.NewWorkCache()
	activeSet := cache.NewActiveSet()
	registry := observer.New()

	st := &handlers.State{
		Archive:      archiveClient,
		Session:      sessionHolder,
		WorkCache:    workCache,
		ActiveSet:    activeSet,
		Queue:        q,
		Observers:    registry,
		History:      opts.HistorySink,
		DownloadsDir: settings.DownloadsDir,
		Filetype:     settings.Filetype,
	}

	e := New(q, st, settings.WorkerCount(), logger)
	e.Start()

	c := &Controller{
		Settings:  settings,
		Session:   sessionHolder,
		WorkCache: workCache,
		Active:    activeSet,
		Observers: registry,
		Archive:   archiveClient,
		History:   opts.HistorySink,
		engine:    e,
		logger:    logger,
		baseDir:   opts.BaseDir,
	}
	return c, nil
}

// Enqueue adds a to the queue, applying the same enqueue-observer and
// active-set bookkeeping a worker would expect. Actions arriving from
// the public API rarely carry a TraceID, so one
// is stamped here to correlate the whole enqueue→dispatch→retry chain
// in the logs.
func (c *Controller) Enqueue(a action.Action) {
	if a.TraceID == "" {
		a.TraceID = uuid.NewString()
	}
	identifier := a.Key().Identifier
	c.Observers.FireEnqueueBefore(identifier, a)
	if a.Kind.WorkScoped() {
		c.Active.Add(a.WorkID)
	}
	c.engine.queue.Push(a)
	c.Observers.FireEnqueueAfter(identifier, a)
}

// Remove implements the public API's removal semantics: drop id from
// the active set and cache, and cancel any retries in flight for it.
func (c *Controller) Remove(workID int) {
	c.Active.Remove(workID)
	c.WorkCache.Remove(workID)
	c.engine.Retries().CancelIdentifier(keyIdentifier(workID))
}

// RemoveAll clears every staged work and cancels every retry (used by
// the public API's remove_all).
func (c *Controller) RemoveAll() {
	c.Active.Each(func(id int) {
		c.engine.Retries().CancelIdentifier(keyIdentifier(id))
	})
	c.WorkCache.Each(func(id int, _ *cache.Entry) {
		c.engine.Retries().CancelIdentifier(keyIdentifier(id))
	})
	c.Active.Clear()
	c.WorkCache.Clear()
}

func keyIdentifier(workID int) string {
	a := action.Action{Kind: action.LoadWork, WorkID: workID}
	return a.Key().Identifier
}

// Stop runs the shutdown sequence: sentinel, clear active set and
// cache, join workers, cancel every retry timer. The engine itself
// performs the sentinel/join/cancel steps; the controller clears the
// shared cache and active set before the engine drains.
func (c *Controller) Stop(ctx context.Context) {
	c.Active.Clear()
	c.WorkCache.Clear()
	c.engine.Stop()
}

// Login runs the Login handler synchronously rather than via the
// queue, since the public API's login() call is expected to block
// until the session is established or rejected.
func (c *Controller) Login(ctx context.Context, username, password string) (action.Status, observer.Payload) {
	a := action.Action{Kind: action.Login, Username: username, Password: password}
	identifier := a.Key().Identifier
	c.Observers.FireActionBefore(identifier, a)

	st := &handlers.State{
		Archive:      c.Archive,
		Session:      c.Session,
		WorkCache:    c.WorkCache,
		ActiveSet:    c.Active,
		Queue:        c.engine.queue,
		Observers:    c.Observers,
		History:      c.History,
		DownloadsDir: c.Settings.DownloadsDir,
		Filetype:     c.Settings.Filetype,
	}
	status, payload := handlers.Login(ctx, a, st)
	c.Observers.FireActionAfter(identifier, a, status, payload)
	return status, payload
}
