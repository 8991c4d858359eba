package auth

import (
	"net/http"
	"time"
)

// SessionCookieName names the client-held session credential.
const SessionCookieName = "session"

// CookieStore hands the session token to the client and reads it back per
// request. It is the only persistence the session layer has.
type CookieStore struct {
	secure bool // Secure attribute, on in production
}

// NewCookieStore creates a CookieStore. Pass secure=true in production so the
// cookie only travels over TLS.
func NewCookieStore(secure bool) *CookieStore {
	return &CookieStore{secure: secure}
}

// Persist sets the session cookie, expiring exactly at expiresAt. HttpOnly
// keeps it away from page scripts; SameSite=Lax keeps it off unsafe
// cross-site navigations.
func (s *CookieStore) Persist(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
	})
}

// Read returns the raw token from the inbound request. A missing cookie is
// the "no session" state, not an error.
func (s *CookieStore) Read(r *http.Request) (string, bool) {
	c, err := r.Cookie(SessionCookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

// Clear instructs the client to drop the cookie immediately. The token itself
// stays cryptographically valid until its natural expiry.
func (s *CookieStore) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
	})
}
