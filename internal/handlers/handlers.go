package handlers

import (
	"github.com/lryanle/bingobongo/internal/auth"
	"github.com/lryanle/bingobongo/internal/services"
	"github.com/lryanle/bingobongo/internal/websocket"
)

// Handlers holds all HTTP handler dependencies
type Handlers struct {
	Rooms    services.RoomServicer
	Game     services.GameServicer
	Matches  services.MatchServicer
	Sessions *auth.Sessions
	Hub      *websocket.Hub
	Log      HTTPLogger
	baseURL  string
}

// HTTPLogger is an interface for loggers that support HTTP logging control
type HTTPLogger interface {
	IsHTTPLoggingEnabled() bool
}

// New creates a new Handlers instance with all dependencies. baseURL is
// the externally reachable address used when rendering invite links.
func New(
	rooms services.RoomServicer,
	game services.GameServicer,
	matches services.MatchServicer,
	sessions *auth.Sessions,
	hub *websocket.Hub,
	log HTTPLogger,
	baseURL string,
) *Handlers {
	return &Handlers{
		Rooms:    rooms,
		Game:     game,
		Matches:  matches,
		Sessions: sessions,
		Hub:      hub,
		Log:      log,
		baseURL:  baseURL,
	}
}
