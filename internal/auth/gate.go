package auth

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// State classifies a request's session before any handler runs.
type State int

const (
	StatePublic State = iota
	StateAuthenticated
	StateUnauthenticated
	StateExpired
	StateMalformed
)

// Decision is the gate's verdict for a request.
type Decision int

const (
	DecisionAllow    Decision = iota
	DecisionRedirect          // browser surface: send to the login page
	DecisionReject            // API surface: structured 401
)

// publicPrefixes are reachable without a session: the login page and the
// login submission endpoint. Everything else is gated.
var publicPrefixes = []string{"/login", "/api/auth/login"}

// IsPublic reports whether path bypasses session checks entirely.
func IsPublic(path string) bool {
	for _, p := range publicPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// Decide maps a path's surface and session state to a verdict. Pure function:
// the middleware and its cookie plumbing are a thin adapter around it.
// Non-authenticated outcomes reject on API paths and redirect elsewhere.
func Decide(path string, state State) Decision {
	switch state {
	case StatePublic, StateAuthenticated:
		return DecisionAllow
	}
	if strings.HasPrefix(path, "/api") {
		return DecisionReject
	}
	return DecisionRedirect
}

type contextKey string

const sessionContextKey = contextKey("session")

// SessionFromContext returns the session the gate middleware attached to an
// authenticated request.
func SessionFromContext(ctx context.Context) (Session, bool) {
	sess, ok := ctx.Value(sessionContextKey).(Session)
	return sess, ok
}

// Gate intercepts every inbound request and enforces the session contract
// before handlers run.
type Gate struct {
	codec   *Codec
	cookies *CookieStore
}

// NewGate creates a Gate over the given codec and cookie store.
func NewGate(codec *Codec, cookies *CookieStore) *Gate {
	return &Gate{codec: codec, cookies: cookies}
}

// State runs the session state machine for a raw token. This is the single
// source of truth shared by the middleware and handler-local checks, so the
// two call sites cannot drift. Expiry is inclusive: a token is dead the
// instant now reaches ExpiresAt.
func (g *Gate) State(token string, present bool, now time.Time) (Session, State) {
	if !present {
		return Session{}, StateUnauthenticated
	}
	sess, err := g.codec.Verify(token)
	if err != nil {
		return Session{}, StateMalformed
	}
	if !now.Before(sess.ExpiresAt) {
		return Session{}, StateExpired
	}
	return sess, StateAuthenticated
}

// SessionFrom is the handler-local guard: the same state machine, returning
// nil on any non-authenticated outcome.
func (g *Gate) SessionFrom(r *http.Request) *Session {
	token, present := g.cookies.Read(r)
	sess, state := g.State(token, present, time.Now())
	if state != StateAuthenticated {
		return nil
	}
	return &sess
}

// Middleware gates every route registered below it. Public paths pass
// through untouched; authenticated requests carry their session in the
// request context; everything else fails closed.
func (g *Gate) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if IsPublic(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			token, present := g.cookies.Read(r)
			sess, state := g.State(token, present, time.Now())

			switch Decide(r.URL.Path, state) {
			case DecisionAllow:
				ctx := context.WithValue(r.Context(), sessionContextKey, sess)
				next.ServeHTTP(w, r.WithContext(ctx))
			case DecisionRedirect:
				http.Redirect(w, r, "/login", http.StatusFound)
			default:
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"success":false,"error":"Unauthorized"}`))
			}
		})
	}
}
