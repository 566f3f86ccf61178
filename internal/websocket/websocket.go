package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/lryanle/bingobongo/internal/auth"
	"github.com/lryanle/bingobongo/internal/logger"
	"github.com/lryanle/bingobongo/internal/models"
	"github.com/lryanle/bingobongo/internal/services"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for now
	},
}

// message is a broadcast scoped to one room topic
type message struct {
	roomID  string
	payload models.WSMessage
}

// Presence receives connect/disconnect notifications for room members.
// Implemented by the game service; failures there never affect the
// connection itself.
type Presence interface {
	Disconnected(ctx context.Context, roomID string, actor models.Identity) error
	Reconnected(ctx context.Context, roomID string, actor models.Identity) error
}

// Hub maintains the set of active clients, grouped by room topic, and
// broadcasts room events to the clients subscribed to that room
type Hub struct {
	log        logger.Logger
	clients    map[*Client]bool
	broadcast  chan message
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
	sessions   *auth.Sessions
	presence   Presence
}

// Client is a middleman between one websocket connection and the hub
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan models.WSMessage
	roomID   string
	identity models.Identity
}

// New creates a new Hub instance with injected dependencies
func New(log logger.Logger, sessions *auth.Sessions) *Hub {
	return &Hub{
		log:        log,
		clients:    make(map[*Client]bool),
		broadcast:  make(chan message),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		sessions:   sessions,
	}
}

// SetPresence wires the presence listener after construction
func (h *Hub) SetPresence(p Presence) {
	h.presence = p
}

// Start begins the hub's main loop in a goroutine
func (h *Hub) Start() {
	go h.run()
}

// run handles client registration/unregistration and message broadcasting
func (h *Hub) run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mutex.Unlock()
			h.log.Debug("Client connected", "room", client.roomID, "user", client.identity.UserID, "total_clients", total)
			h.notifyPresence(client, true)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			total := len(h.clients)
			h.mutex.Unlock()
			h.log.Debug("Client disconnected", "room", client.roomID, "user", client.identity.UserID, "total_clients", total)
			h.notifyPresence(client, false)

		case msg := <-h.broadcast:
			h.mutex.RLock()
			for client := range h.clients {
				if client.roomID != msg.roomID {
					continue
				}
				select {
				case client.send <- msg.payload:
				default:
					// Client's send channel is full, unregister
					go func(c *Client) {
						h.unregister <- c
					}(client)
				}
			}
			h.mutex.RUnlock()
		}
	}
}

// notifyPresence feeds connect/disconnect into the activity log. Users
// who never joined the room just watch; that is not an error worth
// logging loudly.
func (h *Hub) notifyPresence(client *Client, connected bool) {
	if h.presence == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var err error
		if connected {
			err = h.presence.Reconnected(ctx, client.roomID, client.identity)
		} else {
			err = h.presence.Disconnected(ctx, client.roomID, client.identity)
		}
		if err != nil && err != services.ErrNeverJoined {
			h.log.Debug("Presence update failed", "room", client.roomID, "user", client.identity.UserID, "error", err)
		}
	}()
}

// Publish implements services.Broadcaster: fire-and-forget delivery of
// a room event to every subscriber of that room's topic
func (h *Hub) Publish(roomID, event string, payload interface{}) {
	h.broadcast <- message{
		roomID:  roomID,
		payload: models.WSMessage{Type: event, Payload: payload},
	}
}

// readPump pumps messages from the websocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Debug("WebSocket error", "error", err)
			}
			break
		}

		// Clients only ever send pings/acks; the state API is HTTP
		var msg models.WSMessage
		if err := json.Unmarshal(raw, &msg); err == nil {
			c.hub.log.Debug("Received message", "type", msg.Type)
		}
	}
}

// writePump pumps messages from the hub to the websocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}

			raw, _ := json.Marshal(msg)
			w.Write(raw)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeWs handles websocket subscription requests for a room topic
func (h *Hub) ServeWs(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	if roomID == "" {
		http.Error(w, "missing room id", http.StatusBadRequest)
		return
	}

	identity, ok := h.sessions.FromRequest(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("WebSocket upgrade error", "error", err)
		return
	}

	client := &Client{
		hub:      h,
		conn:     conn,
		send:     make(chan models.WSMessage, 256),
		roomID:   roomID,
		identity: identity,
	}
	h.register <- client

	// Allow collection of memory referenced by the caller by doing all
	// work in new goroutines
	go client.writePump()
	go client.readPump()
}
