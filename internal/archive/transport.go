package archive

import (
	"compress/flate"
	"compress/gzip"
	"io"
	"net/http"

	"github.com/andybalholm/brotli"
	"golang.org/x/time/rate"
)

// rateLimitedTransport enforces an optional process-wide request pace
// using token-bucket semantics, with the budget shared by all workers.
type rateLimitedTransport struct {
	http.RoundTripper
	limiter *rate.Limiter
}

func newRateLimitedTransport(next http.RoundTripper, perMinute int) *rateLimitedTransport {
	return &rateLimitedTransport{
		RoundTripper: next,
		limiter:      rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), perMinute),
	}
}

func (t *rateLimitedTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(r.Context()); err != nil {
		return nil, err
	}
	return t.RoundTripper.RoundTrip(r)
}

// decompressingTransport decodes gzip/deflate/brotli bodies so callers
// never have to special-case Content-Encoding.
type decompressingTransport struct {
	http.RoundTripper
}

func (t decompressingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r.Header.Set("Accept-Encoding", "gzip, deflate, br")
	resp, err := t.RoundTripper.RoundTrip(r)
	if err != nil || resp == nil {
		return resp, err
	}

	var reader io.Reader
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		gz, gerr := gzip.NewReader(resp.Body)
		if gerr != nil {
			return resp, nil // leave body as-is; caller will fail reading it
		}
		reader = gz
	case "deflate":
		reader = flate.NewReader(resp.Body)
	case "br":
		reader = brotli.NewReader(resp.Body)
	default:
		return resp, nil
	}

	resp.Body = struct {
		io.Reader
		io.Closer
	}{reader, resp.Body}
	resp.Header.Del("Content-Encoding")
	return resp, nil
}
