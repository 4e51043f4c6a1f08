package archive

import "errors"

// Sentinel errors surfaced by the client and interpreted by the
// handlers.
var (
	// ErrRateLimited covers both HTTP 429 and the Archive's silent
	// throttling signature: a parseable page missing its expected
	// root element.
	ErrRateLimited = errors.New("rate limited by archive")

	// ErrAuthRequired is returned when a guest session requests a
	// work that is only visible to logged-in users.
	ErrAuthRequired = errors.New("work requires an authenticated session")

	// ErrInvalidCredentials is terminal for a single Login action.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrUserNotFound is terminal for a user-scoped action.
	ErrUserNotFound = errors.New("user does not exist")

	// ErrEmptyBody guards against writing zero-byte files.
	ErrEmptyBody = errors.New("downloaded 0 bytes")

	// ErrNotArchiveHost is returned by NormalizeListingURL when the
	// given URL is not on the configured archive host.
	ErrNotArchiveHost = errors.New("url is not on the archive host")
)
