package broadcast

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/gofiber/contrib/websocket"
)

// Conn is the subset of the WebSocket connection the hub needs. Tests
// substitute a fake.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client represents a connected WebSocket client. RoomID is 0 until the
// client joins a room.
type Client struct {
	ID       string
	UserID   int
	Username string
	RoomID   int
	Conn     Conn

	writeMu sync.Mutex
}

// Send marshals an envelope and writes it to the client connection. The
// write lock serializes hub fan-out with direct replies from the read loop.
func (c *Client) Send(env Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return c.send(data)
}

func (c *Client) send(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.Conn.WriteMessage(websocket.TextMessage, data)
}

// Hub manages WebSocket connections and room-scoped fan-out.
type Hub struct {
	clients    map[string]*Client      // clientID -> Client
	rooms      map[int]map[string]bool // roomID -> set of clientIDs
	register   chan *Client
	unregister chan *Client
	broadcast  chan *BroadcastMessage
	done       chan struct{}
	mu         sync.RWMutex
}

// BroadcastMessage represents a frame to fan out to a room.
type BroadcastMessage struct {
	RoomID   int
	Envelope Envelope
	Exclude  string // clientID to skip, empty for none
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		rooms:      make(map[int]map[string]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *BroadcastMessage, 256),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main loop. It accepts a context for graceful shutdown.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			log.Println("[hub] Shutting down...")
			h.closeAllClients()
			close(h.done)
			return
		case client := <-h.register:
			h.handleRegister(client)
		case client := <-h.unregister:
			h.handleUnregister(client)
		case msg := <-h.broadcast:
			h.handleBroadcast(msg)
		}
	}
}

// Wait blocks until the hub has stopped.
func (h *Hub) Wait() {
	<-h.done
}

// closeAllClients closes all connected client connections.
func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		_ = client.Conn.Close()
	}
	h.clients = make(map[string]*Client)
	h.rooms = make(map[int]map[string]bool)
}

func (h *Hub) handleRegister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID] = client
	if client.RoomID != 0 {
		if h.rooms[client.RoomID] == nil {
			h.rooms[client.RoomID] = make(map[string]bool)
		}
		h.rooms[client.RoomID][client.ID] = true
	}
	log.Printf("[hub] Client %s (%s) registered", client.ID, client.Username)
}

func (h *Hub) handleUnregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; ok {
		delete(h.clients, client.ID)
		if client.RoomID != 0 && h.rooms[client.RoomID] != nil {
			delete(h.rooms[client.RoomID], client.ID)
			if len(h.rooms[client.RoomID]) == 0 {
				delete(h.rooms, client.RoomID)
			}
		}
		log.Printf("[hub] Client %s (%s) unregistered", client.ID, client.Username)
	}
}

func (h *Hub) handleBroadcast(msg *BroadcastMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	data, err := json.Marshal(msg.Envelope)
	if err != nil {
		log.Printf("[hub] Failed to marshal broadcast message: %v", err)
		return
	}

	clientIDs, ok := h.rooms[msg.RoomID]
	if !ok {
		return
	}
	for clientID := range clientIDs {
		if clientID == msg.Exclude {
			continue
		}
		if client, ok := h.clients[clientID]; ok {
			if err := client.send(data); err != nil {
				log.Printf("[hub] Failed to send to client %s: %v", client.ID, err)
			}
		}
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Broadcast sends an envelope to every client in a room.
func (h *Hub) Broadcast(roomID int, env Envelope) {
	h.broadcast <- &BroadcastMessage{
		RoomID:   roomID,
		Envelope: env,
	}
}

// BroadcastExcept sends an envelope to every client in a room except one.
func (h *Hub) BroadcastExcept(roomID int, exclude string, env Envelope) {
	h.broadcast <- &BroadcastMessage{
		RoomID:   roomID,
		Envelope: env,
		Exclude:  exclude,
	}
}

// JoinRoom moves a client to a specific room.
func (h *Hub) JoinRoom(clientID string, roomID int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, ok := h.clients[clientID]
	if !ok {
		return
	}

	// Leave old room if any
	if client.RoomID != 0 && h.rooms[client.RoomID] != nil {
		delete(h.rooms[client.RoomID], clientID)
		if len(h.rooms[client.RoomID]) == 0 {
			delete(h.rooms, client.RoomID)
		}
	}

	// Join new room
	client.RoomID = roomID
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[string]bool)
	}
	h.rooms[roomID][clientID] = true
	log.Printf("[hub] Client %s joined room %d", clientID, roomID)
}

// LeaveRoom removes a client from their current room.
func (h *Hub) LeaveRoom(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, ok := h.clients[clientID]
	if !ok || client.RoomID == 0 {
		return
	}

	if h.rooms[client.RoomID] != nil {
		delete(h.rooms[client.RoomID], clientID)
		if len(h.rooms[client.RoomID]) == 0 {
			delete(h.rooms, client.RoomID)
		}
	}
	log.Printf("[hub] Client %s left room %d", clientID, client.RoomID)
	client.RoomID = 0
}

// GetClient returns a client by ID.
func (h *Hub) GetClient(clientID string) *Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.clients[clientID]
}

// ClientCount returns the total number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomClientCount returns the number of clients in a room.
func (h *Hub) RoomClientCount(roomID int) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if clients, ok := h.rooms[roomID]; ok {
		return len(clients)
	}
	return 0
}
