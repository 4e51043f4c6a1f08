package handlers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gosimple/slug"

	"github.com/nyxglass/ao3dl/internal/action"
	"github.com/nyxglass/ao3dl/internal/archive"
	"github.com/nyxglass/ao3dl/internal/history"
	"github.com/nyxglass/ao3dl/internal/observer"
)

// DownloadWork downloads the rendered work to disk. If the work
// already has a download_path and the file still exists, it's a no-op
// success. Otherwise the work is ensured loaded (recursively driving
// LoadWork's observer pair so a UI sees the same progression it would
// for a bare load), then the rendered bytes are fetched and written
// atomically: a temp file is written first and renamed into place
// only on success, so a cancelled or failed download never leaves a
// partial file at the final path.
func DownloadWork(ctx context.Context, a action.Action, st *State) (action.Status, observer.Payload) {
	entry, ok := st.WorkCache.Get(a.WorkID)
	if ok && entry.DownloadPath != "" {
		if _, err := os.Stat(entry.DownloadPath); err == nil {
			return action.StatusOK, observer.Payload{DownloadPath: entry.DownloadPath}
		}
	}

	if !ok || entry.Metadata == nil {
		status, payload := driveLoadWork(ctx, a, st)
		if status != action.StatusOK {
			return status, payload
		}
		entry, _ = st.WorkCache.Get(a.WorkID)
	}

	body, err := st.Archive.DownloadWork(ctx, a.WorkID, strings.ToLower(st.Filetype), st.Session.Get())
	if err != nil {
		return classifyDownloadError(err)
	}

	path := downloadPath(st, entry.Metadata.Title, a.WorkID)
	if err := writeAtomic(path, body); err != nil {
		return action.StatusError, observer.Payload{Error: err.Error()}
	}

	entry.DownloadPath = path
	st.WorkCache.Put(a.WorkID, entry)

	st.History.Append(ctx, history.Record{
		WorkID:       a.WorkID,
		Title:        entry.Metadata.Title,
		Username:     st.Session.Get().Username(),
		Filetype:     st.Filetype,
		DownloadPath: path,
		CompletedAt:  time.Now(),
	})

	return action.StatusOK, observer.Payload{DownloadPath: path, WorkTitle: entry.Metadata.Title}
}

// driveLoadWork runs the LoadWork handler for a's work id, firing the
// LoadWork action's before/after observer pair around it so the
// indirection through DownloadWork is transparent to a watching UI.
func driveLoadWork(ctx context.Context, a action.Action, st *State) (action.Status, observer.Payload) {
	loadAction := action.Action{Kind: action.LoadWork, WorkID: a.WorkID, TraceID: a.TraceID}
	identifier := loadAction.Key().Identifier

	st.Observers.FireActionBefore(identifier, loadAction)
	status, payload := LoadWork(ctx, loadAction, st)
	st.Observers.FireActionAfter(identifier, loadAction, status, payload)
	return status, payload
}

// classifyDownloadError distinguishes a retryable 429 from an empty
// body, which is terminal so no zero-byte file is ever written.
func classifyDownloadError(err error) (action.Status, observer.Payload) {
	if errors.Is(err, archive.ErrRateLimited) {
		return action.StatusRetry, observer.Payload{}
	}
	return action.StatusError, observer.Payload{Error: err.Error()}
}

func downloadPath(st *State, title string, workID int) string {
	base := slug.Make(title)
	filename := fmt.Sprintf("%d_%s.%s", workID, base, strings.ToLower(st.Filetype))
	return filepath.Join(st.DownloadsDir, st.Session.Get().Username(), filename)
}

func writeAtomic(path string, body []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".download-*.part")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
