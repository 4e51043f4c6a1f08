package handlers

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/nyxglass/ao3dl/internal/action"
	"github.com/nyxglass/ao3dl/internal/archive"
	"github.com/nyxglass/ao3dl/internal/observer"
)

// Login resets the session to guest, exchanges credentials for an
// authenticated one, and ensures the user's download directory exists.
// Login never retries: a 429 here is reported as a terminal error, not
// scheduled for back-off.
func Login(ctx context.Context, a action.Action, st *State) (action.Status, observer.Payload) {
	st.Session.Set(archive.GuestSession{})

	sess, err := st.Archive.Login(ctx, a.Username, a.Password)
	if err != nil {
		return classifyLoginError(err)
	}
	st.Session.Set(sess)

	dir := filepath.Join(st.DownloadsDir, sess.Username())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return action.StatusError, observer.Payload{Error: err.Error()}
	}

	return action.StatusOK, observer.Payload{Username: sess.Username()}
}

func classifyLoginError(err error) (action.Status, observer.Payload) {
	if errors.Is(err, archive.ErrRateLimited) {
		return action.StatusError, observer.Payload{Error: "rate limited"}
	}
	if errors.Is(err, archive.ErrInvalidCredentials) {
		return action.StatusError, observer.Payload{Error: archive.ErrInvalidCredentials.Error()}
	}
	return action.StatusError, observer.Payload{Error: err.Error()}
}
