package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// conditionalHTTPLogger only logs HTTP requests when HTTP logging is enabled
func (h *Handlers) conditionalHTTPLogger(next http.Handler) http.Handler {
	logger := middleware.Logger(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Log != nil && h.Log.IsHTTPLoggingEnabled() {
			logger.ServeHTTP(w, r)
		} else {
			next.ServeHTTP(w, r)
		}
	})
}

// Router returns a configured chi router with all routes
func (h *Handlers) Router() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.conditionalHTTPLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RedirectSlashes)
	r.Use(middleware.Timeout(60 * time.Second))

	// Sessions (public)
	r.Post("/api/session", h.handleRegisterSession)
	r.Get("/api/session", h.handleGetSession)
	r.Delete("/api/session", h.handleRevokeSession)

	// Room reads (public: spectators can browse without a session)
	r.Get("/api/rooms", h.handleListRooms)
	r.Get("/api/rooms/{roomID}", h.handleGetRoom)
	r.Get("/api/rooms/{roomID}/board", h.handleGetBoard)
	r.Get("/api/rooms/{roomID}/players", h.handleListPlayers)
	r.Get("/api/rooms/{roomID}/activities", h.handleListActivities)
	r.Get("/api/rooms/{roomID}/matches", h.handleListMatches)
	r.Get("/api/rooms/{roomID}/qr", h.handleRoomQR)

	// Mutations require a session
	r.Group(func(r chi.Router) {
		r.Use(h.Sessions.RequireSession)

		r.Post("/api/rooms", h.handleCreateRoom)
		r.Delete("/api/rooms/{roomID}", h.handleDeleteRoom)
		r.Put("/api/rooms/{roomID}/items", h.handleUpdateItems)

		r.Post("/api/rooms/{roomID}/join", h.handleJoin)
		r.Post("/api/rooms/{roomID}/leave", h.handleLeave)
		r.Post("/api/rooms/{roomID}/kick", h.handleKick)
		r.Post("/api/rooms/{roomID}/team", h.handleSwitchTeam)

		r.Post("/api/rooms/{roomID}/claim", h.handleClaim)
		r.Post("/api/rooms/{roomID}/mark", h.handleMark)
		r.Post("/api/rooms/{roomID}/reset", h.handleReset)
		r.Post("/api/rooms/{roomID}/restart", h.handleRestart)
		r.Post("/api/rooms/{roomID}/restart/vote", h.handleVoteRestart)
	})

	// WebSocket room topics (session checked during upgrade)
	r.Get("/ws/{roomID}", h.Hub.ServeWs)

	return r
}
