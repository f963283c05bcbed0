package websocket

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"ehrm-server/models"
)

// Event is one server-to-client frame. The only meaningful type today is
// "notification"; "pong" answers client pings.
type Event struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// Hub fans persisted notifications out to connected clients. A user may
// hold several connections (phone + desktop), all of them get the event.
type Hub struct {
	clients map[uint]map[*Client]bool

	Register   chan *Client
	Unregister chan *Client

	mu sync.RWMutex
}

// NewHub creates a new notification hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uint]map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			if h.clients[client.UserID] == nil {
				h.clients[client.UserID] = make(map[*Client]bool)
			}
			h.clients[client.UserID][client] = true
			h.mu.Unlock()
			log.Printf("🔌 WebSocket client connected: user=%d", client.UserID)

		case client := <-h.Unregister:
			h.mu.Lock()
			if conns, ok := h.clients[client.UserID]; ok && conns[client] {
				delete(conns, client)
				close(client.Send)
				if len(conns) == 0 {
					delete(h.clients, client.UserID)
				}
			}
			h.mu.Unlock()
			log.Printf("🔌 WebSocket client disconnected: user=%d", client.UserID)
		}
	}
}

// PublishNotification pushes a stored notification to the user's live
// connections. Users without a connection are skipped; delivery there is
// the push channel's job.
func (h *Hub) PublishNotification(n *models.Notification) {
	h.sendToUser(n.UserID, &Event{
		Type:      "notification",
		Timestamp: time.Now(),
		Data:      n,
	})
}

func (h *Hub) sendToUser(userID uint, event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("❌ Error marshaling websocket event: %v", err)
		return
	}

	// The read lock must cover the iteration and the sends: Run mutates the
	// connection map and closes Send channels under the write lock, so
	// leaving the lock early races with a concurrent disconnect.
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[userID] {
		select {
		case client.Send <- data:
		default:
			log.Printf("⚠️ Send buffer full for user %d, dropping event", userID)
		}
	}
}

// ConnectedUsers returns how many distinct users hold a live connection
func (h *Hub) ConnectedUsers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
