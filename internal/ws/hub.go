package ws

import (
	"encoding/json"
	"sync"
)

// Event types broadcast by the order handlers.
const (
	EventOrderCreated       = "order.created"
	EventOrderStatusUpdated = "order.status_updated"
)

// Event represents a WebSocket message to be broadcast
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub maintains the set of active clients and broadcasts messages to them.
// A single stall means a single room: every connected client (cashier,
// kitchen display) receives every order event.
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Inbound messages from clients (register/unregister)
	register   chan *Client
	unregister chan *Client

	// Outbound messages to broadcast
	broadcast chan Event

	// Mutex for thread-safe client set access
	mu sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Event, 256),
	}
}

// Run starts the hub's main loop
// This should be called as a goroutine: go hub.Run()
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, exists := h.clients[client]; exists {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()

		case event := <-h.broadcast:
			h.mu.Lock()

			// Marshal event to JSON once
			message, err := json.Marshal(event)
			if err != nil {
				h.mu.Unlock()
				continue
			}

			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Client's send buffer is full, close and unregister
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast sends an event to all connected clients
// This is the public API for handlers to broadcast events
func (h *Hub) Broadcast(event Event) {
	h.broadcast <- event
}
