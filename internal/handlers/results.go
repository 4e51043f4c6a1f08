package handlers

import (
	"context"
	"errors"

	"github.com/nyxglass/ao3dl/internal/action"
	"github.com/nyxglass/ao3dl/internal/archive"
	"github.com/nyxglass/ao3dl/internal/observer"
)

// archiveHost is the host listing URLs are normalized against. Set
// once by the controller at construction time.
var archiveHost = "archiveofourown.org"

// SetArchiveHost overrides the host used to validate and rewrite
// listing URLs.
func SetArchiveHost(host string) {
	archiveHost = host
}

// LoadResultsList normalizes the listing URL, probes the total page
// count, and enqueues LoadResultsPage for every page in
// [max(1, start) .. min(total, end)]. end == 0 means "all pages".
func LoadResultsList(ctx context.Context, a action.Action, st *State) (action.Status, observer.Payload) {
	normalized, err := archive.NormalizeListingURL(archiveHost, a.ListingURL, nil)
	if err != nil {
		return action.StatusError, observer.Payload{Error: err.Error()}
	}

	total, err := st.Archive.FetchListingPages(ctx, normalized, st.Session.Get())
	if err != nil {
		if errors.Is(err, archive.ErrRateLimited) {
			return action.StatusRetry, observer.Payload{}
		}
		return action.StatusError, observer.Payload{Error: err.Error()}
	}

	start := a.PageStart
	if start < 1 {
		start = 1
	}
	end := a.PageEnd
	if end == 0 || end > total {
		end = total
	}

	for page := start; page <= end; page++ {
		p := page
		pageURL, err := archive.NormalizeListingURL(archiveHost, a.ListingURL, &p)
		if err != nil {
			continue
		}
		load := action.Action{Kind: action.LoadResultsPage, ListingURL: pageURL, Page: p, TraceID: a.TraceID}
		st.enqueueGeneric(load.Key().Identifier, load)
	}

	return action.StatusOK, observer.Payload{ResultsTotal: total}
}

// LoadResultsPage fetches one listing page, extracts every work id on
// it, and enqueues LoadWork, work-scoped, for each.
func LoadResultsPage(ctx context.Context, a action.Action, st *State) (action.Status, observer.Payload) {
	ids, err := st.Archive.FetchListingPage(ctx, a.ListingURL, st.Session.Get())
	if err != nil {
		if errors.Is(err, archive.ErrRateLimited) {
			return action.StatusRetry, observer.Payload{}
		}
		return action.StatusError, observer.Payload{Error: err.Error()}
	}

	for _, id := range ids {
		load := action.Action{Kind: action.LoadWork, WorkID: id, TraceID: a.TraceID}
		st.enqueueWorkScoped(id, load)
	}

	return action.StatusOK, observer.Payload{Results: ids, ResultsPage: a.Page}
}
