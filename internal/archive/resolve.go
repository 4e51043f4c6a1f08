package archive

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

var (
	workPathRe   = regexp.MustCompile(`/works/(\d+)`)
	seriesPathRe = regexp.MustCompile(`/series/([^/?#]+)`)
)

// WorkIDFromURL extracts the numeric work id from a work URL. Returns
// (0, false) if none is present.
func WorkIDFromURL(rawURL string) (int, bool) {
	m := workPathRe.FindStringSubmatch(rawURL)
	if m == nil {
		return 0, false
	}
	id, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return id, true
}

// SeriesIDFromURL searches for the /series/<n> segment and returns <n>
// only if it is purely digits, else none.
func SeriesIDFromURL(rawURL string) (int, bool) {
	m := seriesPathRe.FindStringSubmatch(rawURL)
	if m == nil {
		return 0, false
	}
	for _, r := range m[1] {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	id, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return id, true
}

// NormalizeListingURL returns a URL scoped to host for the given
// listing URL. If page is non-nil, it sets the "page" query parameter;
// otherwise it strips any existing "page" parameter. Returns
// ErrNotArchiveHost if rawURL is not on host.
func NormalizeListingURL(host, rawURL string, page *int) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if !strings.EqualFold(u.Hostname(), host) && !strings.EqualFold(u.Host, host) {
		return "", ErrNotArchiveHost
	}

	q := u.Query()
	if page == nil {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(*page))
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
