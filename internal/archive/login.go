package archive

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Login exchanges a username/password for an authenticated Session.
// The Archive's login form embeds a CSRF authenticity_token that must
// be echoed back with the POST; the client fetches the login page
// first to harvest it, then submits the form and captures the
// resulting session cookies.
func (c *Client) Login(ctx context.Context, username, password string) (Session, error) {
	loginURL := fmt.Sprintf("https://%s/users/login", c.host)
	doc, _, err := c.get(ctx, loginURL, GuestSession{})
	if err != nil {
		return nil, err
	}

	token, ok := doc.Find(`input[name="authenticity_token"]`).First().Attr("value")
	if !ok {
		return nil, &FetchError{URL: loginURL, Err: ErrRateLimited, Retryable: true}
	}

	form := url.Values{}
	form.Set("authenticity_token", token)
	form.Set("user[login]", username)
	form.Set("user[password]", password)
	form.Set("user[remember_me]", "1")

	postURL := fmt.Sprintf("https://%s/user_sessions", c.host)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, postURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &FetchError{URL: postURL, Err: err, Retryable: false}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.do(req, GuestSession{})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	cookies := resp.Cookies()
	authed := false
	for _, ck := range cookies {
		if ck.Name == "user_credentials" || ck.Name == "_otwarchive_session" {
			authed = true
		}
	}
	if !authed {
		return nil, ErrInvalidCredentials
	}

	return &AuthSession{username: username, cookies: cookies}, nil
}
