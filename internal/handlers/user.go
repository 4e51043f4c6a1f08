package handlers

import (
	"context"
	"errors"

	"github.com/nyxglass/ao3dl/internal/action"
	"github.com/nyxglass/ao3dl/internal/archive"
	"github.com/nyxglass/ao3dl/internal/observer"
)

// errUserDoesNotExist is the terminal message for a user-scoped
// action whose username does not exist on the archive.
const errUserDoesNotExist = "User does not exist"

// LoadUserWorks confirms the user exists, fetches their published
// works, and enqueues LoadWork, work-scoped, for each.
func LoadUserWorks(ctx context.Context, a action.Action, st *State) (action.Status, observer.Payload) {
	if err := ensureUserExists(ctx, a.Username, st); err != nil {
		return classifyUserScopedError(err)
	}

	stubs, err := st.Archive.GetUserWorks(ctx, a.Username, st.Session.Get())
	if err != nil {
		return classifyUserScopedError(err)
	}
	enqueueStubs(stubs, a, st)
	return action.StatusOK, observer.Payload{Username: a.Username}
}

// LoadUserBookmarks fetches a user's bookmarks. A user fetching their
// own bookmarks while authenticated skips the existence check (they
// are, trivially, themselves); anyone else's bookmarks go through the
// same existence check as LoadUserWorks.
func LoadUserBookmarks(ctx context.Context, a action.Action, st *State) (action.Status, observer.Payload) {
	sess := st.Session.Get()
	own := sess.Authenticated() && sess.Username() == a.Username

	if !own {
		if err := ensureUserExists(ctx, a.Username, st); err != nil {
			return classifyUserScopedError(err)
		}
	}

	stubs, err := st.Archive.GetUserBookmarks(ctx, a.Username, sess)
	if err != nil {
		return classifyUserScopedError(err)
	}
	enqueueStubs(stubs, a, st)
	return action.StatusOK, observer.Payload{Username: a.Username}
}

func ensureUserExists(ctx context.Context, username string, st *State) error {
	exists, err := st.Archive.UserExists(ctx, username, st.Session.Get())
	if err != nil {
		return err
	}
	if !exists {
		return errors.New(errUserDoesNotExist)
	}
	return nil
}

func enqueueStubs(stubs []archive.Stub, a action.Action, st *State) {
	for _, stub := range stubs {
		load := action.Action{Kind: action.LoadWork, WorkID: stub.WorkID, TraceID: a.TraceID}
		st.enqueueWorkScoped(stub.WorkID, load)
	}
}

func classifyUserScopedError(err error) (action.Status, observer.Payload) {
	if err.Error() == errUserDoesNotExist {
		return action.StatusError, observer.Payload{Error: errUserDoesNotExist}
	}
	if errors.Is(err, archive.ErrRateLimited) {
		return action.StatusRetry, observer.Payload{}
	}
	return action.StatusError, observer.Payload{Error: err.Error()}
}
