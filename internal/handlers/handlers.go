package handlers

import (
	"context"

	"github.com/nyxglass/ao3dl/internal/action"
	"github.com/nyxglass/ao3dl/internal/observer"
)

// Handler is the common shape of every action handler: given the
// triggering action and the shared engine state, it produces a
// terminal or retryable status plus a result payload.
type Handler func(ctx context.Context, a action.Action, st *State) (action.Status, observer.Payload)

// Table maps each action kind to its handler. Built once at startup.
var Table = map[action.Kind]Handler{
	action.LoadWork:           LoadWork,
	action.DownloadWork:       DownloadWork,
	action.LoadSeries:         LoadSeries,
	action.LoadUserWorks:      LoadUserWorks,
	action.LoadUserBookmarks:  LoadUserBookmarks,
	action.LoadResultsList:    LoadResultsList,
	action.LoadResultsPage:    LoadResultsPage,
	action.Login:              Login,
}

// enqueueGeneric fires the enqueue observer pair around pushing a
// non-work-scoped action (one that does not gate on the Active Set).
func (s *State) enqueueGeneric(identifier string, a action.Action) {
	s.Observers.FireEnqueueBefore(identifier, a)
	s.Queue.Push(a)
	s.Observers.FireEnqueueAfter(identifier, a)
}
