package websocket

import (
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Event types pushed over WebSocket
const (
	EventTypeConnected     = "connected"
	EventTypeStatusChanged = "status_changed"
)

// Event represents a message sent over WebSocket
type Event struct {
	Type    string      `json:"type"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	UserID  string      `json:"userID,omitempty"`
}

// Client represents a connected WebSocket client
type Client struct {
	UserID primitive.ObjectID
	Conn   *websocket.Conn
}

// Hub maintains the set of active clients and pushes application
// events to them. Applicants watch their own applications live
// instead of polling the status endpoint.
type Hub struct {
	clients    map[primitive.ObjectID][]*Client
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[primitive.ObjectID][]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.UserID] = append(h.clients[client.UserID], client)
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			conns := h.clients[client.UserID]
			for i, c := range conns {
				if c == client {
					h.clients[client.UserID] = append(conns[:i], conns[i+1:]...)
					break
				}
			}
			if len(h.clients[client.UserID]) == 0 {
				delete(h.clients, client.UserID)
			}
			client.Conn.Close()
			h.mu.Unlock()
		}
	}
}

// SendToUser sends an event to every open connection of one user.
func (h *Hub) SendToUser(userID primitive.ObjectID, event Event) error {
	h.mu.RLock()
	conns := append([]*Client(nil), h.clients[userID]...)
	h.mu.RUnlock()

	if len(conns) == 0 {
		return fmt.Errorf("user not connected")
	}
	for _, client := range conns {
		if err := client.Conn.WriteJSON(event); err != nil {
			h.unregister <- client
		}
	}
	return nil
}

// BroadcastToUser implements services.Broadcaster. A disconnected
// user is not an error; they will see the change on next load.
func (h *Hub) BroadcastToUser(userID string, payload interface{}) {
	objID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return
	}
	_ = h.SendToUser(objID, Event{
		Type: EventTypeStatusChanged,
		Data: payload,
	})
}
