package websocket

import (
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

// Client represents one connected user
type Client struct {
	Hub    *Hub
	UserID uint
	Conn   *websocket.Conn
	Send   chan []byte
}

// Hub is the process-scoped delivery registry: user id to live connection.
// Populated on connect, cleared on disconnect. The core only talks to it
// through Deliver, which either hands the payload to the connection or
// drops it.
type Hub struct {
	// Registered clients by user id
	Clients map[uint]*Client

	// Register requests from clients
	Register chan *Client

	// Unregister requests from clients
	Unregister chan *Client

	mu sync.RWMutex
}

// NewHub creates a new delivery hub
func NewHub() *Hub {
	return &Hub{
		Clients:    make(map[uint]*Client),
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
			// A reconnect replaces the stale connection.
			if old, ok := h.Clients[client.UserID]; ok {
				close(old.Send)
			}
			h.Clients[client.UserID] = client
			h.mu.Unlock()
			log.Printf("🔌 User %d connected for notifications", client.UserID)

		case client := <-h.Unregister:
			h.mu.Lock()
			if current, ok := h.Clients[client.UserID]; ok && current == client {
				delete(h.Clients, client.UserID)
				close(client.Send)
			}
			h.mu.Unlock()
			log.Printf("🔌 User %d disconnected", client.UserID)
		}
	}
}

// Deliver hands a payload to the user's connection. Returns false when the
// user is offline or their send buffer is full; the caller already persisted
// the notification, so dropping here is fine.
//
// The send happens under the read lock: Run only closes a channel while
// holding the write lock, so a channel fetched from the map here is never
// closed underneath the send.
func (h *Hub) Deliver(userID uint, payload []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	client, exists := h.Clients[userID]
	if !exists {
		return false
	}

	select {
	case client.Send <- payload:
		return true
	default:
		log.Printf("⚠️ User %d's send buffer is full, dropping notification", userID)
		return false
	}
}

// IsUserConnected checks if a user currently has a live connection
func (h *Hub) IsUserConnected(userID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, exists := h.Clients[userID]
	return exists
}

// ConnectedUsers returns the ids of currently connected users
func (h *Hub) ConnectedUsers() []uint {
	h.mu.RLock()
	defer h.mu.RUnlock()

	users := make([]uint, 0, len(h.Clients))
	for userID := range h.Clients {
		users = append(users, userID)
	}
	return users
}
