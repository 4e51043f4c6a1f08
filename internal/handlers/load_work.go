package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/nyxglass/ao3dl/internal/action"
	"github.com/nyxglass/ao3dl/internal/archive"
	"github.com/nyxglass/ao3dl/internal/cache"
	"github.com/nyxglass/ao3dl/internal/observer"
)

// LoadWork returns the cached entry if already loaded, else reloads
// via the current session and stores it.
func LoadWork(ctx context.Context, a action.Action, st *State) (action.Status, observer.Payload) {
	if entry, ok := st.WorkCache.Get(a.WorkID); ok && entry.Metadata != nil {
		return action.StatusOK, observer.Payload{WorkTitle: entry.Metadata.Title}
	}

	meta, err := st.Archive.ReloadWork(ctx, a.WorkID, st.Session.Get())
	if err != nil {
		return classifyLoadWorkError(err)
	}

	st.WorkCache.Put(a.WorkID, &cache.Entry{Metadata: meta, LastUpdated: time.Now().Unix()})
	return action.StatusOK, observer.Payload{WorkTitle: meta.Title}
}

func classifyLoadWorkError(err error) (action.Status, observer.Payload) {
	if errors.Is(err, archive.ErrRateLimited) {
		return action.StatusRetry, observer.Payload{}
	}
	if errors.Is(err, archive.ErrAuthRequired) {
		return action.StatusError, observer.Payload{Error: "AUTH_REQUIRED"}
	}
	return action.StatusError, observer.Payload{Error: err.Error()}
}
