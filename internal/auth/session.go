// Package auth implements the single-admin authentication layer: credential
// verification, a signed stateless session token, the cookie that carries it,
// and the route gate that enforces it. The token is a bearer credential: the
// client holds the only copy and the server keeps no session table, so logout
// clears the cookie without revoking the token before its natural expiry.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// sessionTTL is the fixed server-side session window. Clients cannot extend it.
const sessionTTL = 24 * time.Hour

// ErrInvalidToken covers every verification failure: bad signature, malformed
// structure, wrong algorithm, missing claims. Callers get no finer detail.
var ErrInvalidToken = errors.New("invalid session token")

// Session is the authenticated state reconstructed from a verified token.
type Session struct {
	Username  string
	ExpiresAt time.Time
}

// sessionClaims is the JWT payload. Expiry travels as integer epoch
// milliseconds in a private claim so the instant round-trips exactly. The
// registered exp claim is deliberately absent: expiry is the route gate's
// check, not the codec's.
type sessionClaims struct {
	Username  string `json:"username"`
	ExpiresAt int64  `json:"expiresAt"`
	jwt.RegisteredClaims
}

// Codec issues and verifies signed session tokens. Tokens are HS256 JWTs and
// verification pins the algorithm, so a token re-signed under a different
// method never passes.
type Codec struct {
	secret []byte
}

// NewCodec creates a Codec keyed with the server signing secret.
func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret)}
}

// Issue creates a signed token for username expiring 24 hours from now.
// The returned expiry is truncated to millisecond precision, matching what
// Verify will reconstruct.
func (c *Codec) Issue(username string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := time.UnixMilli(now.Add(sessionTTL).UnixMilli())

	claims := &sessionClaims{
		Username:  username,
		ExpiresAt: expiresAt.UnixMilli(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify checks the signature and structure of a token and reconstructs the
// session. It fails closed on any anomaly and never compares ExpiresAt
// against the clock; the caller owns that decision.
func (c *Codec) Verify(token string) (Session, error) {
	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		// Strict base64 so a flipped bit anywhere in the token, including
		// trailing padding bits, fails verification.
		jwt.WithStrictDecoding(),
	)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.Username == "" || claims.ExpiresAt == 0 {
		return Session{}, ErrInvalidToken
	}

	return Session{
		Username:  claims.Username,
		ExpiresAt: time.UnixMilli(claims.ExpiresAt),
	}, nil
}
