package broadcast

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gofiber/contrib/websocket"
)

// sendBufferSize is the per-client outbound queue depth. A client that cannot
// drain this many frames starts losing broadcasts rather than stalling anyone.
const sendBufferSize = 256

// Conn is the subset of websocket connection capabilities the hub uses.
// *websocket.Conn satisfies it; tests substitute fakes.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client is a connected WebSocket client tracked by the hub. All outbound
// traffic for the connection flows through its send channel and is written by
// a single goroutine, keeping per-client delivery ordered.
type Client struct {
	ID      string
	RoomKey string
	conn    Conn
	send    chan []byte
	closed  bool
}

// NewClient wraps a connection for hub registration.
func NewClient(id string, conn Conn) *Client {
	return &Client{
		ID:   id,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}
}

// writePump drains the client's send channel onto the connection. It exits
// when the channel is closed by Unregister, closing the connection behind it.
func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			// Peer is gone; keep draining so enqueues never back up.
			for range c.send {
			}
			return
		}
	}
}

// Hub manages WebSocket clients and room-scoped message fanout. Its room index
// exists purely for delivery; the relay store remains the source of truth for
// membership.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client         // clientID -> client
	rooms   map[string]map[string]bool // roomKey -> set of clientIDs
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		rooms:   make(map[string]map[string]bool),
	}
}

// Register adds a client and starts its writer.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	h.clients[client.ID] = client
	h.mu.Unlock()

	go client.writePump()
	log.Printf("[hub] Client %s registered", client.ID)
}

// Unregister removes a client, closing its send channel so the writer shuts
// the connection down. Idempotent.
func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	client, ok := h.clients[clientID]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, clientID)
	h.leaveRoomLocked(client)
	client.closed = true
	h.mu.Unlock()

	// Close the channel after releasing the lock; enqueue paths check closed
	// under the read lock, so nobody can send past this point.
	close(client.send)
	log.Printf("[hub] Client %s unregistered", clientID)
}

// JoinRoom moves a client into a room's delivery set, leaving any previous one.
func (h *Hub) JoinRoom(clientID, roomKey string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, ok := h.clients[clientID]
	if !ok {
		return
	}
	h.leaveRoomLocked(client)

	client.RoomKey = roomKey
	if h.rooms[roomKey] == nil {
		h.rooms[roomKey] = make(map[string]bool)
	}
	h.rooms[roomKey][clientID] = true
}

// LeaveRoom removes a client from its current delivery set.
func (h *Hub) LeaveRoom(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if client, ok := h.clients[clientID]; ok {
		h.leaveRoomLocked(client)
	}
}

// leaveRoomLocked drops the client from its room set. Caller must hold h.mu.
func (h *Hub) leaveRoomLocked(client *Client) {
	if client.RoomKey == "" {
		return
	}
	if set := h.rooms[client.RoomKey]; set != nil {
		delete(set, client.ID)
		if len(set) == 0 {
			delete(h.rooms, client.RoomKey)
		}
	}
	client.RoomKey = ""
}

// SendTo delivers a payload to a single client. Fire-and-forget: unknown,
// closed, or backed-up clients are skipped silently.
func (h *Hub) SendTo(clientID string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[hub] Failed to marshal payload: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	h.enqueueLocked(clientID, data)
}

// Broadcast delivers a payload to every member of a room except excludeID
// (pass "" to reach everyone). Delivery is fire-and-forget per client.
func (h *Hub) Broadcast(roomKey string, payload any, excludeID string) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[hub] Failed to marshal payload: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for clientID := range h.rooms[roomKey] {
		if clientID == excludeID {
			continue
		}
		h.enqueueLocked(clientID, data)
	}
}

// enqueueLocked queues data for one client without blocking. Caller must hold
// h.mu (read or write).
func (h *Hub) enqueueLocked(clientID string, data []byte) {
	client, ok := h.clients[clientID]
	if !ok || client.closed {
		return
	}
	select {
	case client.send <- data:
	default:
		log.Printf("[hub] Dropping frame for slow client %s", clientID)
	}
}

// CloseAll disconnects every client. Used on shutdown.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for _, client := range h.clients {
		client.closed = true
		clients = append(clients, client)
	}
	h.clients = make(map[string]*Client)
	h.rooms = make(map[string]map[string]bool)
	h.mu.Unlock()

	for _, client := range clients {
		close(client.send)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomClientCount returns the number of clients in a room's delivery set.
func (h *Hub) RoomClientCount(roomKey string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomKey])
}
