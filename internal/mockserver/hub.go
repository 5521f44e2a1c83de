package mockserver

import (
	"encoding/json"
	"sync"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/focusagent/focusagent/internal/models"
)

type wsClient struct {
	id   string
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsClient) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Hub fans push messages out to every connected client
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*wsClient
	log     zerolog.Logger
}

// NewHub creates an empty hub
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*wsClient),
		log:     log,
	}
}

// Count returns the number of connected clients
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends msg to every client. Clients that fail are dropped.
func (h *Hub) Broadcast(msg models.PushMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error().Err(err).Msg("marshal push message")
		return
	}

	h.mu.RLock()
	clients := make([]*wsClient, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	var failed []*wsClient
	for _, c := range clients {
		if err := c.write(data); err != nil {
			h.log.Debug().Err(err).Str("client_id", c.id).Msg("dropping client after failed write")
			failed = append(failed, c)
		}
	}
	for _, c := range failed {
		h.remove(c)
		_ = c.conn.Close()
	}
}

// CloseAll disconnects every client, as a backend restart would
func (h *Hub) CloseAll() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[string]*wsClient)
	h.mu.Unlock()

	for _, c := range clients {
		c.mu.Lock()
		_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		c.mu.Unlock()
		_ = c.conn.Close()
	}
}

// serve registers conn and blocks until the client goes away. Inbound
// frames are read and ignored.
func (h *Hub) serve(conn *websocket.Conn) {
	c := &wsClient{id: uuid.NewString(), conn: conn}

	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()
	h.log.Info().Str("client_id", c.id).Str("remote", conn.RemoteAddr().String()).Msg("push client connected")

	defer func() {
		h.remove(c)
		h.log.Info().Str("client_id", c.id).Msg("push client disconnected")
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) remove(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c.id] == c {
		delete(h.clients, c.id)
	}
}
