package handlers

import (
	"context"
	"errors"

	"github.com/nyxglass/ao3dl/internal/action"
	"github.com/nyxglass/ao3dl/internal/archive"
	"github.com/nyxglass/ao3dl/internal/observer"
)

// LoadSeries fetches the series and enqueues LoadWork, work-scoped,
// for every stub it contains.
func LoadSeries(ctx context.Context, a action.Action, st *State) (action.Status, observer.Payload) {
	stubs, err := st.Archive.GetSeries(ctx, a.SeriesID, st.Session.Get())
	if err != nil {
		if errors.Is(err, archive.ErrRateLimited) {
			return action.StatusRetry, observer.Payload{}
		}
		return action.StatusError, observer.Payload{Error: err.Error()}
	}

	for _, stub := range stubs {
		load := action.Action{Kind: action.LoadWork, WorkID: stub.WorkID, TraceID: a.TraceID}
		st.enqueueWorkScoped(stub.WorkID, load)
	}

	return action.StatusOK, observer.Payload{SeriesID: a.SeriesID}
}
