// Command ao3dl is a headless CLI front end for the engine in
// pkg/ao3dl. A GUI is one possible consumer of the observer callback
// interface; this is another.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nyxglass/ao3dl/internal/action"
	"github.com/nyxglass/ao3dl/internal/observer"
	"github.com/nyxglass/ao3dl/pkg/ao3dl"
)

var (
	baseDir     string
	archiveHost string
	verbose     bool

	workURLs    []string
	seriesURLs  []string
	usernames   []string
	bookmarkers []string
	genericURL  string
	pageStart   int
	pageEnd     int

	loginUser string
	loginPass string

	downloadStaged bool
)

// pendingSet tracks identifiers with outstanding work. Enqueue/action
// callbacks fire on whichever worker goroutine drove the action, while
// waitForQuiet reads it from the main goroutine, so access is guarded
// by a mutex rather than left to a bare map.
type pendingSet struct {
	mu  sync.Mutex
	ids map[string]struct{}
}

func newPendingSet() *pendingSet {
	return &pendingSet{ids: make(map[string]struct{})}
}

func (p *pendingSet) add(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ids[id] = struct{}{}
}

func (p *pendingSet) remove(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.ids, id)
}

func (p *pendingSet) empty() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.ids) == 0
}

func main() {
	root := &cobra.Command{
		Use:   "ao3dl",
		Short: "bulk archive-of-our-own downloader",
		Long:  "Enqueues one or more loads against the archive, waits for every staged work to finish, then exits.",
		RunE:  run,
	}

	root.PersistentFlags().StringVar(&baseDir, "base-dir", ".", "working directory for settings.ini, data/, and log.txt")
	root.PersistentFlags().StringVar(&archiveHost, "host", "archiveofourown.org", "archive hostname")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.Flags().StringArrayVar(&workURLs, "work-url", nil, "work URL to load (repeatable)")
	root.Flags().StringArrayVar(&seriesURLs, "series-url", nil, "series URL to load (repeatable)")
	root.Flags().StringArrayVar(&usernames, "user", nil, "username whose works to load (repeatable)")
	root.Flags().StringArrayVar(&bookmarkers, "bookmarks-of", nil, "username whose bookmarks to load (repeatable)")
	root.Flags().StringVar(&genericURL, "search-url", "", "arbitrary listing URL to page through")
	root.Flags().IntVar(&pageStart, "page-start", 1, "first page of --search-url to load")
	root.Flags().IntVar(&pageEnd, "page-end", 0, "last page of --search-url to load (0 = all)")

	root.Flags().StringVar(&loginUser, "login-user", "", "archive username to authenticate as")
	root.Flags().StringVar(&loginPass, "login-pass", "", "archive password")

	root.Flags().BoolVar(&downloadStaged, "download", true, "download every work staged during this run")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := ao3dl.New(ctx, ao3dl.Options{
		BaseDir:     baseDir,
		ArchiveHost: archiveHost,
		Verbose:     verbose,
	})
	if err != nil {
		return fmt.Errorf("start engine: %w", err)
	}

	pending := newPendingSet()
	done := make(chan struct{}, 1)
	registerTracking(client, pending, done)

	if loginUser != "" {
		if err := client.Login(ctx, loginUser, loginPass); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "logged in as %s\n", client.Session())
	}

	client.LoadWorksFromWorkURLs(workURLs)
	client.LoadWorksFromSeriesURLs(seriesURLs)
	client.LoadWorksByUsernames(usernames)
	client.LoadBookmarksByUsernames(bookmarkers)
	if genericURL != "" {
		client.LoadWorksFromGenericURL(genericURL, pageStart, pageEnd)
	}

	waitForQuiet(ctx, pending, done)

	if downloadStaged {
		client.DownloadAll()
		waitForQuiet(ctx, pending, done)
	}

	client.Stop(ctx)
	return nil
}

// registerTracking installs action callbacks that print progress to
// stderr and track which identifiers still have work outstanding, so
// the CLI knows when it's safe to exit. Deciding what "done" means is
// entirely up to the consumer; the engine itself has no such notion.
func registerTracking(client *ao3dl.Client, pending *pendingSet, done chan struct{}) {
	before := func(identifier string, a action.Action) {
		pending.add(a.Key().Identifier)
	}
	after := func(identifier string, a action.Action, status action.Status, payload observer.Payload) {
		switch status {
		case action.StatusOK:
			pending.remove(a.Key().Identifier)
			fmt.Fprintf(os.Stderr, "[ok] %s %s\n", a.Kind, identifier)
		case action.StatusError:
			pending.remove(a.Key().Identifier)
			fmt.Fprintf(os.Stderr, "[error] %s %s: %s\n", a.Kind, identifier, payload.Error)
		case action.StatusRetry:
			fmt.Fprintf(os.Stderr, "[retry] %s %s: %s\n", a.Kind, identifier, payload.Error)
		}
		select {
		case done <- struct{}{}:
		default:
		}
	}

	pairs := map[action.Kind]observer.ActionPair{}
	for _, kind := range []action.Kind{
		action.LoadWork, action.DownloadWork, action.LoadSeries,
		action.LoadUserWorks, action.LoadUserBookmarks,
		action.LoadResultsList, action.LoadResultsPage,
	} {
		pairs[kind] = observer.ActionPair{Before: before, After: after}
	}
	client.SetActionCallbacks(pairs)

	enqueueBefore := func(identifier string, a action.Action) {
		pending.add(a.Key().Identifier)
	}
	enqueuePairs := map[action.Kind]observer.EnqueuePair{}
	for kind := range pairs {
		enqueuePairs[kind] = observer.EnqueuePair{Before: enqueueBefore}
	}
	client.SetEnqueueCallbacks(enqueuePairs)
}

// waitForQuiet blocks until pending is empty, polling on every
// progress notification and falling back to a short timer in case a
// final callback race leaves done undelivered.
func waitForQuiet(ctx context.Context, pending *pendingSet, done chan struct{}) {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		if pending.empty() {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-done:
		case <-ticker.C:
		}
	}
}
