package websocket

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. Clients never send game
	// data; anything beyond a pong is noise.
	maxMessageSize = 512

	// Queued states per hub before publishes start dropping.
	broadcastBuffer = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The game client is served from the same origin; other origins
		// carry a valid bearer token anyway.
		return true
	},
}

// Message is one state update on the wire.
type Message struct {
	SessionID int    `json:"sessionId"`
	Event     string `json:"event"`
	State     any    `json:"state,omitempty"`
}

// Client is one subscribed websocket connection.
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	sessionID int
}

// Hub fans session state updates out to subscribed clients. All of its
// bookkeeping runs on the Run goroutine; publishers and connection
// handlers only touch channels.
type Hub struct {
	// Registered clients keyed by session id.
	sessions map[int]map[*Client]bool

	broadcast  chan *Message
	register   chan *Client
	unregister chan *Client

	log *zap.Logger
}

// NewHub creates a hub; call Run on its own goroutine before serving.
func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		sessions:   make(map[int]map[*Client]bool),
		broadcast:  make(chan *Message, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		log:        log,
	}
}

// Run is the hub's event loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)
		}
	}
}

// PublishState enqueues a session state for every subscriber of the
// session. It never blocks; when the hub is backed up the update is
// dropped, the next tick will supersede it anyway.
func (h *Hub) PublishState(sessionID int, state any) {
	message := &Message{
		SessionID: sessionID,
		Event:     "state",
		State:     state,
	}

	select {
	case h.broadcast <- message:
	default:
		h.log.Warn("state update dropped, hub backed up", zap.Int("session_id", sessionID))
	}
}

// ServeWS upgrades the request and subscribes the connection to the
// given session.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, sessionID int) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		hub:       h,
		conn:      conn,
		send:      make(chan []byte, 256),
		sessionID: sessionID,
	}

	client.hub.register <- client

	go client.writePump()
	go client.readPump()
}

func (h *Hub) registerClient(client *Client) {
	if h.sessions[client.sessionID] == nil {
		h.sessions[client.sessionID] = make(map[*Client]bool)
	}
	h.sessions[client.sessionID][client] = true

	h.log.Debug("websocket client subscribed",
		zap.Int("session_id", client.sessionID),
		zap.Int("clients", len(h.sessions[client.sessionID])))
}

func (h *Hub) unregisterClient(client *Client) {
	clients, ok := h.sessions[client.sessionID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}

	delete(clients, client)
	close(client.send)

	if len(clients) == 0 {
		delete(h.sessions, client.sessionID)
	}

	h.log.Debug("websocket client unsubscribed",
		zap.Int("session_id", client.sessionID),
		zap.Int("clients", len(clients)))
}

func (h *Hub) broadcastMessage(message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		h.log.Error("failed to marshal state update", zap.Error(err))
		return
	}

	for client := range h.sessions[message.SessionID] {
		select {
		case client.send <- data:
		default:
			// Slow consumer; drop the connection rather than the tick.
			h.unregisterClient(client)
		}
	}
}

// readPump drains the connection so pings are answered and close frames
// are seen; client messages carry no game data.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Debug("websocket read error", zap.Error(err))
			}
			break
		}
	}
}

// writePump pumps state updates from the hub to the connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Coalesce queued updates into the same frame.
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
