package handlers

import (
	"net/http"

	"github.com/lryanle/bingobongo/internal/auth"
)

// handleRegisterSession creates a guest session for a display name and
// sets the session cookie
func (h *Handlers) handleRegisterSession(w http.ResponseWriter, r *http.Request) {
	var req RegisterSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if req.DisplayName == "" || len(req.DisplayName) > 32 {
		respondError(w, BadRequest("Display name must be 1-32 characters"))
		return
	}

	token, identity := h.Sessions.Register(req.DisplayName, req.AvatarURL)

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(auth.SessionExpiry.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	respondCreated(w, identity)
}

// handleGetSession returns the identity behind the caller's session
func (h *Handlers) handleGetSession(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.Sessions.FromRequest(r)
	if !ok {
		respondError(w, Unauthorized("No active session"))
		return
	}
	respondOK(w, identity)
}

// handleRevokeSession logs the caller out
func (h *Handlers) handleRevokeSession(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(auth.CookieName); err == nil {
		h.Sessions.Revoke(cookie.Value)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	respondSuccess(w, "Session revoked")
}
