package handlers

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nyxglass/ao3dl/internal/action"
	"github.com/nyxglass/ao3dl/internal/cache"
)

func TestDownloadWorkLoadsThenDownloads(t *testing.T) {
	st := newTestState(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/downloads/") {
			w.Write([]byte("%PDF-1.4 test bytes"))
			return
		}
		w.Write([]byte(testWorkPage))
	})

	status, payload := DownloadWork(context.Background(), action.Action{Kind: action.DownloadWork, WorkID: 42}, st)
	if status != action.StatusOK {
		t.Fatalf("status = %v, want OK", status)
	}
	if payload.DownloadPath == "" {
		t.Fatal("DownloadPath is empty")
	}
	if _, err := os.Stat(payload.DownloadPath); err != nil {
		t.Errorf("downloaded file missing on disk: %v", err)
	}
	if !strings.HasSuffix(payload.DownloadPath, ".pdf") {
		t.Errorf("DownloadPath = %q, want a .pdf suffix", payload.DownloadPath)
	}

	entry, ok := st.WorkCache.Get(42)
	if !ok || entry.DownloadPath != payload.DownloadPath {
		t.Error("work cache was not updated with the download path")
	}
}

func TestDownloadWorkIsNoOpWhenFileStillExists(t *testing.T) {
	st := newTestState(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("DownloadWork should not hit the network when the cached file still exists")
	})

	path := filepath.Join(t.TempDir(), "existing.pdf")
	if err := os.WriteFile(path, []byte("already here"), 0o644); err != nil {
		t.Fatal(err)
	}
	st.WorkCache.Put(7, &cache.Entry{DownloadPath: path})

	status, payload := DownloadWork(context.Background(), action.Action{Kind: action.DownloadWork, WorkID: 7}, st)
	if status != action.StatusOK {
		t.Fatalf("status = %v, want OK", status)
	}
	if payload.DownloadPath != path {
		t.Errorf("DownloadPath = %q, want %q", payload.DownloadPath, path)
	}
}

func TestDownloadWorkEmptyBodyIsTerminalNotRetry(t *testing.T) {
	st := newTestState(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/downloads/") {
			w.WriteHeader(http.StatusOK) // empty body
			return
		}
		w.Write([]byte(testWorkPage))
	})

	status, payload := DownloadWork(context.Background(), action.Action{Kind: action.DownloadWork, WorkID: 3}, st)
	if status != action.StatusError {
		t.Errorf("status = %v, want ERROR (empty body must never be retried)", status)
	}
	if _, ok := st.WorkCache.Get(3); ok {
		if entry, _ := st.WorkCache.Get(3); entry.DownloadPath != "" {
			t.Error("no file should have been recorded for an empty-body download")
		}
	}
	_ = payload
}

func TestDownloadWorkRateLimitedRetries(t *testing.T) {
	st := newTestState(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/downloads/") {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(testWorkPage))
	})

	status, _ := DownloadWork(context.Background(), action.Action{Kind: action.DownloadWork, WorkID: 4}, st)
	if status != action.StatusRetry {
		t.Errorf("status = %v, want RETRY on a 429 from the download endpoint", status)
	}
}
