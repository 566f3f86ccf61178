package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lryanle/bingobongo/internal/models"
)

const (
	CookieName    = "bingobongo_session"
	SessionExpiry = 7 * 24 * time.Hour
)

type contextKey struct{}

var identityKey contextKey

type session struct {
	identity models.Identity
	expires  time.Time
}

// Sessions issues and validates guest sessions. A session resolves a
// request to an Identity; the game core only ever sees the resolved
// Identity, never the session machinery.
type Sessions struct {
	mu       sync.RWMutex
	sessions map[string]session
}

// New creates an empty session store
func New() *Sessions {
	return &Sessions{sessions: make(map[string]session)}
}

// Register creates a guest identity for a display name and returns the
// session token for it
func (s *Sessions) Register(displayName, avatarURL string) (string, models.Identity) {
	identity := models.Identity{
		UserID:      uuid.NewString(),
		DisplayName: displayName,
		AvatarURL:   avatarURL,
	}

	token := generateToken()
	s.mu.Lock()
	s.sessions[token] = session{identity: identity, expires: time.Now().Add(SessionExpiry)}
	s.mu.Unlock()

	return token, identity
}

// Validate resolves a session token to its identity
func (s *Sessions) Validate(token string) (models.Identity, bool) {
	s.mu.RLock()
	sess, exists := s.sessions[token]
	s.mu.RUnlock()

	if !exists {
		return models.Identity{}, false
	}

	if time.Now().After(sess.expires) {
		s.mu.Lock()
		delete(s.sessions, token)
		s.mu.Unlock()
		return models.Identity{}, false
	}

	return sess.identity, true
}

// Revoke invalidates a session token
func (s *Sessions) Revoke(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

// FromRequest resolves the identity carried by a request's session
// cookie
func (s *Sessions) FromRequest(r *http.Request) (models.Identity, bool) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return models.Identity{}, false
	}
	return s.Validate(cookie.Value)
}

// RequireSession middleware rejects requests without a valid session
// and injects the resolved identity into the request context
func (s *Sessions) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := s.FromRequest(r)
		if !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"code":"UNAUTHORIZED","error":"Unauthorized - register a session first"}`))
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

// WithIdentity stores an identity in a context
func WithIdentity(ctx context.Context, identity models.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFromContext retrieves the identity injected by RequireSession
func IdentityFromContext(ctx context.Context) (models.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(models.Identity)
	return identity, ok
}

// generateToken creates a random 32-character hex session token
func generateToken() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}
