package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nyxglass/ao3dl/internal/action"
	"github.com/nyxglass/ao3dl/internal/archive"
	"github.com/nyxglass/ao3dl/internal/cache"
	"github.com/nyxglass/ao3dl/internal/observer"
	"github.com/nyxglass/ao3dl/internal/queue"
)

// newTestStateWithHost is like newTestState but also returns the
// httptest server's address, since LoadResultsList/LoadResultsPage
// validate listing URLs against the package-level archiveHost.
func newTestStateWithHost(t *testing.T, handler http.HandlerFunc) (*State, string) {
	t.Helper()
	server := httptest.NewTLSServer(handler)
	t.Cleanup(server.Close)

	host := server.Listener.Addr().String()
	client := archive.NewWithHTTPClient(server.Client(), host, slog.New(slog.NewTextHandler(io.Discard, nil)))

	st := &State{
		Archive:      client,
		Session:      NewSessionHolder(),
		WorkCache:    cache.NewWorkCache(),
		ActiveSet:    cache.NewActiveSet(),
		Queue:        queue.New(),
		Observers:    observer.New(),
		DownloadsDir: t.TempDir(),
		Filetype:     "PDF",
	}
	return st, host
}

const testListingPage = `<html><body>
<ol class="work index group">
<li role="article" id="work_1"><h4>A</h4></li>
<li role="article" id="work_2"><h4>B</h4></li>
</ol>
<ol role="navigation"><li>1</li><li>2</li><li>3</li><li>Next -&gt;</li></ol>
</body></html>`

func withTestHost(t *testing.T, host string) {
	t.Helper()
	prev := archiveHost
	SetArchiveHost(host)
	t.Cleanup(func() { archiveHost = prev })
}

func TestLoadResultsListEnqueuesEachPage(t *testing.T) {
	st, host := newTestStateWithHost(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, testListingPage)
	})
	withTestHost(t, host)

	status, payload := LoadResultsList(context.Background(), action.Action{
		Kind:       action.LoadResultsList,
		ListingURL: "https://" + archiveHost + "/tags/x/works",
		PageStart:  1,
		PageEnd:    0,
	}, st)
	if status != action.StatusOK {
		t.Fatalf("status = %v, want OK", status)
	}
	if payload.ResultsTotal != 3 {
		t.Errorf("ResultsTotal = %d, want 3 pages from the navigation bar", payload.ResultsTotal)
	}
	if got := st.Queue.(interface{ Len() int }).Len(); got != 3 {
		t.Errorf("queue length = %d, want 3 enqueued LoadResultsPage actions", got)
	}
}

func TestLoadResultsPageEnqueuesWorkIDs(t *testing.T) {
	st, host := newTestStateWithHost(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, testListingPage)
	})
	withTestHost(t, host)

	status, payload := LoadResultsPage(context.Background(), action.Action{
		Kind:       action.LoadResultsPage,
		ListingURL: "https://" + archiveHost + "/tags/x/works?page=1",
		Page:       1,
	}, st)
	if status != action.StatusOK {
		t.Fatalf("status = %v, want OK", status)
	}
	if len(payload.Results) != 2 {
		t.Errorf("Results = %v, want 2 work ids", payload.Results)
	}
	for _, id := range []int{1, 2} {
		if !st.ActiveSet.Contains(id) {
			t.Errorf("work id %d was not staged in the Active Set", id)
		}
	}
}
