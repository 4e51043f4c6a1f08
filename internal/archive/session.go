package archive

import "net/http"

// GuestUsername is the fixed literal used as the "owner" directory
// name for an unauthenticated session.
const GuestUsername = "guest"

// Session models a sum type: Session = Guest | Authenticated. Exactly
// one is active on a Controller at a time.
type Session interface {
	// Username returns the session owner, or GuestUsername for guests.
	Username() string

	// Authenticated reports whether this is a logged-in session.
	Authenticated() bool

	// Apply adds any session-specific headers/cookies to an outgoing
	// request (e.g. auth token, cookie jar entries).
	Apply(req *http.Request)
}

// GuestSession is the unauthenticated default every Controller starts
// with.
type GuestSession struct{}

func (GuestSession) Username() string    { return GuestUsername }
func (GuestSession) Authenticated() bool { return false }
func (GuestSession) Apply(*http.Request) {}

// AuthSession is bound to one logged-in username and carries whatever
// cookies the login exchange produced.
type AuthSession struct {
	username string
	cookies  []*http.Cookie
}

func (s *AuthSession) Username() string    { return s.username }
func (s *AuthSession) Authenticated() bool { return true }

func (s *AuthSession) Apply(req *http.Request) {
	for _, c := range s.cookies {
		req.AddCookie(c)
	}
}
