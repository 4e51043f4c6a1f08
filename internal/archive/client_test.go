package archive

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewTLSServer(handler)
	t.Cleanup(server.Close)

	return NewWithHTTPClient(server.Client(), server.Listener.Addr().String(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

const workPage = `<html><body>
<div id="workskin">
<h2 class="title heading">A Test Work</h2>
<h3 class="byline heading"><a rel="author">Someone</a></h3>
</div>
</body></html>`

func TestReloadWorkParsesMetadata(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, workPage)
	})

	md, err := c.ReloadWork(context.Background(), 1, nil)
	if err != nil {
		t.Fatalf("ReloadWork() error: %v", err)
	}
	if md.Title != "A Test Work" {
		t.Errorf("Title = %q, want %q", md.Title, "A Test Work")
	}
	if len(md.Authors) != 1 || md.Authors[0] != "Someone" {
		t.Errorf("Authors = %v, want [Someone]", md.Authors)
	}
}

func TestReloadWorkMissingRootIsRateLimited(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "<html><body>Please wait a moment</body></html>")
	})

	_, err := c.ReloadWork(context.Background(), 1, nil)
	var fe *FetchError
	if !asFetchError(err, &fe) || !fe.Retryable {
		t.Fatalf("expected a retryable FetchError for a rootless page, got %v", err)
	}
}

func TestReloadWorkRestrictedToGuestReturnsAuthRequired(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `<html><body><div id="signin">please log in</div></body></html>`)
	})

	_, err := c.ReloadWork(context.Background(), 1, nil)
	if err != ErrAuthRequired {
		t.Errorf("ReloadWork() for a guest on a restricted work = %v, want ErrAuthRequired", err)
	}
}

func TestDownloadWorkRejectsEmptyBody(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	_, err := c.DownloadWork(context.Background(), 1, "PDF", nil)
	var fe *FetchError
	if !asFetchError(err, &fe) || fe.Err != ErrEmptyBody {
		t.Fatalf("DownloadWork() on an empty body = %v, want a FetchError wrapping ErrEmptyBody", err)
	}
}

func TestDownloadWorkReturnsBytes(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "%PDF-1.4 fake pdf bytes")
	})

	body, err := c.DownloadWork(context.Background(), 1, "PDF", nil)
	if err != nil {
		t.Fatalf("DownloadWork() error: %v", err)
	}
	if len(body) == 0 {
		t.Error("DownloadWork() returned no bytes")
	}
}

func TestRequestTooManyRequestsIsRateLimited(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.ReloadWork(context.Background(), 1, nil)
	var fe *FetchError
	if !asFetchError(err, &fe) || fe.Err != ErrRateLimited {
		t.Fatalf("ReloadWork() on a 429 = %v, want a FetchError wrapping ErrRateLimited", err)
	}
}

func TestFetchListingPageExtractsWorkIDs(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `<html><body><ol class="work index group">
<li role="article" id="work_111"><h4>First</h4></li>
<li role="article" id="work_222"><h4>Second</h4></li>
</ol></body></html>`)
	})

	ids, err := c.FetchListingPage(context.Background(), "https://"+c.host+"/search", nil)
	if err != nil {
		t.Fatalf("FetchListingPage() error: %v", err)
	}
	if len(ids) != 2 || ids[0] != 111 || ids[1] != 222 {
		t.Errorf("ids = %v, want [111 222]", ids)
	}
}

func TestUserExistsChecksStatusCode(t *testing.T) {
	found := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	exists, err := found.UserExists(context.Background(), "alice", nil)
	if err != nil || !exists {
		t.Errorf("UserExists() = (%v, %v), want (true, nil)", exists, err)
	}

	missing := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	exists, err = missing.UserExists(context.Background(), "nobody", nil)
	if err != nil || exists {
		t.Errorf("UserExists() = (%v, %v), want (false, nil)", exists, err)
	}
}

func TestUserExistsDoesNotFollowRedirect(t *testing.T) {
	redirected := false
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/users/nobody" {
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}
		redirected = true
		w.WriteHeader(http.StatusOK)
	})

	exists, err := c.UserExists(context.Background(), "nobody", nil)
	if err != nil {
		t.Fatalf("UserExists() error = %v", err)
	}
	if exists {
		t.Error("UserExists() = true, want false for a redirecting response")
	}
	if redirected {
		t.Error("UserExists() followed the redirect instead of reading the 302 directly")
	}
}
