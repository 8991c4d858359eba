package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/avelez/shopadmin-be/internal/auth"
)

// AuthHandler handles login, logout, and identity requests for the single
// admin account.
type AuthHandler struct {
	verifier *auth.CredentialVerifier
	codec    *auth.Codec
	cookies  *auth.CookieStore
	gate     *auth.Gate
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(verifier *auth.CredentialVerifier, codec *auth.Codec, cookies *auth.CookieStore, gate *auth.Gate) *AuthHandler {
	return &AuthHandler{verifier: verifier, codec: codec, cookies: cookies, gate: gate}
}

// LoginPayload defines the structure for login requests.
type LoginPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login checks the submitted credentials and, on success, hands the client a
// fresh session cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload LoginPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if payload.Username == "" || payload.Password == "" {
		respondError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	if !h.verifier.Verify(payload.Username, payload.Password) {
		log.Warn().Str("username", payload.Username).Msg("Failed login attempt")
		respondError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	token, expiresAt, err := h.codec.Issue(payload.Username)
	if err != nil {
		log.Error().Err(err).Msg("Failed to issue session token")
		respondError(w, http.StatusInternalServerError, "Login failed")
		return
	}
	h.cookies.Persist(w, token, expiresAt)

	respondMessage(w, http.StatusOK, "Login successful")
}

// Logout clears the client's session cookie. The token itself expires on its
// own schedule; there is no server-side revocation.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if h.gate.SessionFrom(r) == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	h.cookies.Clear(w)
	respondMessage(w, http.StatusOK, "Logout successful")
}

// MeResponse reports whether the caller is authenticated and as whom.
type MeResponse struct {
	Success       bool   `json:"success"`
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username,omitempty"`
}

// Me returns the authenticated identity. The handler re-runs the session
// check itself instead of trusting only the middleware.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	sess := h.gate.SessionFrom(r)
	if sess == nil {
		writeJSON(w, http.StatusUnauthorized, MeResponse{Success: false, Authenticated: false})
		return
	}
	writeJSON(w, http.StatusOK, MeResponse{Success: true, Authenticated: true, Username: sess.Username})
}
