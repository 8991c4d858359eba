package auth

import (
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"
)

// CredentialVerifier checks submitted credentials against the single
// configured admin identity. There is exactly one account; anything else
// is rejected before the password is even looked at.
type CredentialVerifier struct {
	username     string
	password     string
	passwordHash string
}

// NewCredentialVerifier builds a verifier from the configured identity.
// When passwordHash is set the bcrypt path is used and the plaintext
// password is ignored.
func NewCredentialVerifier(username, password, passwordHash string) *CredentialVerifier {
	return &CredentialVerifier{
		username:     username,
		password:     password,
		passwordHash: passwordHash,
	}
}

// HasHash reports whether the bcrypt path is configured. The plaintext
// fallback exists for development and initial setup only.
func (v *CredentialVerifier) HasHash() bool {
	return v.passwordHash != ""
}

// Verify reports whether the submitted credentials match the admin identity.
// No side effects, no lockout.
func (v *CredentialVerifier) Verify(username, password string) bool {
	if username != v.username {
		return false
	}

	if v.passwordHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(v.passwordHash), []byte(password)) == nil
	}

	// Plaintext fallback, development only.
	return subtle.ConstantTimeCompare([]byte(password), []byte(v.password)) == 1
}
