package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lryanle/bingobongo/internal/auth"
	"github.com/lryanle/bingobongo/internal/config"
	"github.com/lryanle/bingobongo/internal/handlers"
	"github.com/lryanle/bingobongo/internal/logger"
	"github.com/lryanle/bingobongo/internal/repository"
	"github.com/lryanle/bingobongo/internal/scheduler"
	"github.com/lryanle/bingobongo/internal/services"
	"github.com/lryanle/bingobongo/internal/websocket"
	"github.com/lryanle/bingobongo/pkg/poolfeed"
)

// App holds all application dependencies
type App struct {
	log      logger.Logger
	handlers *handlers.Handlers
	repo     *repository.Repository
	sessions *auth.Sessions
}

// New creates and initializes a new application instance
func New(log logger.Logger, cfg *config.Config) (*App, error) {
	repo, err := repository.New(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	sessions := auth.New()
	sched := scheduler.New(log)

	var feed poolfeed.Client
	if cfg.PoolFeedURL != "" {
		feed = poolfeed.NewHTTPClient(cfg.PoolFeedURL)
	}

	// Initialize services
	roomService := services.NewRoomService(log, repo, sched, feed)
	gameService := services.NewGameService(log, repo, sched)
	gameService.SetRestartSeconds(cfg.RestartSeconds)
	matchService := services.NewMatchService(log, repo)

	// Initialize WebSocket hub and wire the broadcast/presence loop
	hub := websocket.New(log, sessions)
	hub.Start()
	hub.SetPresence(gameService)
	roomService.SetBroadcaster(hub)
	gameService.SetBroadcaster(hub)

	h := handlers.New(roomService, gameService, matchService, sessions, hub, log, cfg.BaseURL)

	return &App{
		log:      log,
		handlers: h,
		repo:     repo,
		sessions: sessions,
	}, nil
}

// Router returns the configured HTTP router
func (a *App) Router() chi.Router {
	return a.handlers.Router()
}

// Close releases app resources
func (a *App) Close() {
	if a.repo != nil {
		a.repo.Close()
	}
}

// Run starts the HTTP server
func (a *App) Run(addr string) error {
	a.log.Info("Server starting", "addr", addr)
	return http.ListenAndServe(addr, a.Router())
}
