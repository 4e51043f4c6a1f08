package archive

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Client is an authenticated/guest HTTP session with typed fetches
// for every operation the engine's handlers need.
type Client struct {
	httpClient *http.Client
	host       string
	logger     *slog.Logger
}

// Config controls Client construction.
type Config struct {
	Host             string // e.g. "archiveofourown.org"
	RateLimitEnabled bool
	RequestsPerMin   int // only used when RateLimitEnabled
	Timeout          time.Duration
}

// New builds a Client against the configured host.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	var transport http.RoundTripper = http.DefaultTransport
	transport = decompressingTransport{transport}
	if cfg.RateLimitEnabled {
		perMin := cfg.RequestsPerMin
		if perMin <= 0 {
			perMin = 12
		}
		transport = newRateLimitedTransport(transport, perMin)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Transport: transport, Jar: jar, Timeout: timeout},
		host:       cfg.Host,
		logger:     logger.With("component", "archive_client"),
	}, nil
}

// NewWithHTTPClient builds a Client around a caller-supplied
// *http.Client, bypassing the transport chain New assembles. Used by
// tests to point the client at an httptest server without touching
// the real archive.
func NewWithHTTPClient(httpClient *http.Client, host string, logger *slog.Logger) *Client {
	return &Client{httpClient: httpClient, host: host, logger: logger.With("component", "archive_client")}
}

// do issues req, classifying 429 as ErrRateLimited. Transport errors
// are wrapped as they are (marked Retryable, but not ErrRateLimited).
func (c *Client) do(req *http.Request, sess Session) (*http.Response, error) {
	if sess != nil {
		sess.Apply(req)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{URL: req.URL.String(), Err: err, Retryable: true}
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		resp.Body.Close()
		return nil, &FetchError{URL: req.URL.String(), StatusCode: resp.StatusCode, Err: ErrRateLimited, Retryable: true}
	}
	return resp, nil
}

func (c *Client) get(ctx context.Context, rawURL string, sess Session) (*goquery.Document, *http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, nil, &FetchError{URL: rawURL, Err: err, Retryable: false}
	}
	resp, err := c.do(req, sess)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, resp, &FetchError{URL: rawURL, Err: err, Retryable: false}
	}
	return doc, resp, nil
}

// hasRoot reports whether doc has the expected root content element.
// The Archive sometimes silently throttles by returning a parseable
// page missing this element; the client treats that the same as a
// 429.
func hasRoot(doc *goquery.Document, selector string) bool {
	return doc.Find(selector).Length() > 0
}

// ReloadWork fetches full metadata for a work id.
func (c *Client) ReloadWork(ctx context.Context, workID int, sess Session) (*Metadata, error) {
	rawURL := fmt.Sprintf("https://%s/works/%d?view_full_work=true", c.host, workID)
	doc, resp, err := c.get(ctx, rawURL, sess)
	if err != nil {
		return nil, err
	}

	restricted := resp.StatusCode == http.StatusForbidden || looksRestricted(doc)
	if restricted {
		if sess == nil || !sess.Authenticated() {
			return nil, ErrAuthRequired
		}
	}

	if !hasRoot(doc, "#workskin, .work") {
		return nil, &FetchError{URL: rawURL, Err: ErrRateLimited, Retryable: true}
	}

	md := parseWorkMetadata(doc)
	md.Restricted = restricted
	return md, nil
}

// looksRestricted detects the Archive's "this work is only available
// to registered users" interstitial.
func looksRestricted(doc *goquery.Document) bool {
	restricted := false
	doc.Find(".flash.notice, #signin").Each(func(_ int, s *goquery.Selection) {
		if s.Length() > 0 {
			restricted = true
		}
	})
	return restricted
}

func parseWorkMetadata(doc *goquery.Document) *Metadata {
	title := trimText(doc.Find("h2.title.heading").First().Text())
	if title == "" {
		title = trimText(doc.Find("title").First().Text())
	}

	var authors []string
	doc.Find("h3.byline.heading a[rel=author]").Each(func(_ int, s *goquery.Selection) {
		authors = append(authors, trimText(s.Text()))
	})

	return &Metadata{
		Title:     title,
		Authors:   authors,
		UpdatedAt: time.Now(),
	}
}

// DownloadWork fetches the rendered bytes for a work in the given
// filetype. An empty response is surfaced as ErrEmptyBody rather than
// written to disk, so a rate-limited response never becomes a
// zero-byte file.
func (c *Client) DownloadWork(ctx context.Context, workID int, filetype string, sess Session) ([]byte, error) {
	rawURL := fmt.Sprintf("https://%s/downloads/%d.%s", c.host, workID, filetype)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err, Retryable: false}
	}
	resp, err := c.do(req, sess)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err, Retryable: true}
	}
	if len(body) == 0 {
		return nil, &FetchError{URL: rawURL, Err: ErrEmptyBody, Retryable: false}
	}
	return body, nil
}

// GetSeries fetches every work stub belonging to a series.
func (c *Client) GetSeries(ctx context.Context, seriesID int, sess Session) ([]Stub, error) {
	rawURL := fmt.Sprintf("https://%s/series/%d", c.host, seriesID)
	doc, _, err := c.get(ctx, rawURL, sess)
	if err != nil {
		return nil, err
	}
	if !hasRoot(doc, "ul.series.work.index.group, #main") {
		return nil, &FetchError{URL: rawURL, Err: ErrRateLimited, Retryable: true}
	}
	return extractWorkStubs(doc), nil
}

// UserExists performs a HEAD-equivalent existence check: HTTP 200
// means the user exists, any redirect (the Archive sends an unknown
// user to the homepage) means it does not.
func (c *Client) UserExists(ctx context.Context, username string, sess Session) (bool, error) {
	rawURL := fmt.Sprintf("https://%s/users/%s", c.host, username)
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return false, &FetchError{URL: rawURL, Err: err, Retryable: false}
	}
	if sess != nil {
		sess.Apply(req)
	}
	resp, err := c.noRedirectClient().Do(req)
	if err != nil {
		return false, &FetchError{URL: rawURL, Err: err, Retryable: true}
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusTooManyRequests {
		return false, &FetchError{URL: rawURL, StatusCode: resp.StatusCode, Err: ErrRateLimited, Retryable: true}
	}
	if resp.StatusCode >= 300 && resp.StatusCode < 400 {
		return false, nil
	}
	return resp.StatusCode == http.StatusOK, nil
}

// noRedirectClient returns a shallow copy of the shared http.Client
// that stops at the first redirect response instead of following it,
// so a 3xx can be told apart from the page it points to.
func (c *Client) noRedirectClient() *http.Client {
	clone := *c.httpClient
	clone.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return &clone
}

func asFetchError(err error, target **FetchError) bool {
	fe, ok := err.(*FetchError)
	if ok {
		*target = fe
	}
	return ok
}

// GetUserWorks fetches every work stub a user has published.
func (c *Client) GetUserWorks(ctx context.Context, username string, sess Session) ([]Stub, error) {
	rawURL := fmt.Sprintf("https://%s/users/%s/works", c.host, username)
	return c.fetchUserStubs(ctx, rawURL, sess)
}

// GetUserBookmarks fetches every work stub a user has bookmarked.
func (c *Client) GetUserBookmarks(ctx context.Context, username string, sess Session) ([]Stub, error) {
	rawURL := fmt.Sprintf("https://%s/users/%s/bookmarks", c.host, username)
	return c.fetchUserStubs(ctx, rawURL, sess)
}

func (c *Client) fetchUserStubs(ctx context.Context, rawURL string, sess Session) ([]Stub, error) {
	doc, _, err := c.get(ctx, rawURL, sess)
	if err != nil {
		return nil, err
	}
	if !hasRoot(doc, "ol.work.index.group, #main") {
		return nil, &FetchError{URL: rawURL, Err: ErrRateLimited, Retryable: true}
	}
	return extractWorkStubs(doc), nil
}

// FetchListingPages probes a listing URL and returns the total number
// of pages, reading the pagination bar's second-to-last entry (the
// last is the "Next ->" arrow).
func (c *Client) FetchListingPages(ctx context.Context, rawURL string, sess Session) (int, error) {
	doc, _, err := c.get(ctx, rawURL, sess)
	if err != nil {
		return 0, err
	}
	if !hasRoot(doc, "ol.work.index.group, ol.bookmark.index.group, #main") {
		return 0, &FetchError{URL: rawURL, Err: ErrRateLimited, Retryable: true}
	}

	nav := doc.Find(`ol[role="navigation"]`).First()
	items := nav.Find("li")
	if items.Length() < 2 {
		return 1, nil
	}
	pageText := trimText(items.Eq(items.Length() - 2).Text())
	total := parseIntOrDefault(pageText, 1)
	return total, nil
}

// FetchListingPage fetches one listing page and extracts every work
// id present on it.
func (c *Client) FetchListingPage(ctx context.Context, rawURL string, sess Session) ([]int, error) {
	doc, _, err := c.get(ctx, rawURL, sess)
	if err != nil {
		return nil, err
	}
	if !hasRoot(doc, "ol.work.index.group, ol.bookmark.index.group, #main") {
		return nil, &FetchError{URL: rawURL, Err: ErrRateLimited, Retryable: true}
	}

	var ids []int
	doc.Find(`li[role="article"]`).Each(func(_ int, s *goquery.Selection) {
		if s.Find("h4").Length() == 0 {
			return
		}
		idAttr, ok := s.Attr("id")
		if !ok {
			return
		}
		const prefix = "work_"
		if len(idAttr) > len(prefix) && idAttr[:len(prefix)] == prefix {
			if id, err := atoiSafe(idAttr[len(prefix):]); err == nil {
				ids = append(ids, id)
			}
		}
	})
	return ids, nil
}

func extractWorkStubs(doc *goquery.Document) []Stub {
	var stubs []Stub
	doc.Find(`li[role="article"]`).Each(func(_ int, s *goquery.Selection) {
		heading := s.Find("h4").First()
		if heading.Length() == 0 {
			return
		}
		idAttr, ok := s.Attr("id")
		if !ok {
			return
		}
		const prefix = "work_"
		if len(idAttr) <= len(prefix) || idAttr[:len(prefix)] != prefix {
			return
		}
		id, err := atoiSafe(idAttr[len(prefix):])
		if err != nil {
			return
		}
		title := trimText(heading.Find("a").First().Text())
		stubs = append(stubs, Stub{WorkID: id, Title: title})
	})
	return stubs
}
