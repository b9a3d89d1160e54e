package handler

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// WSEvent is the envelope for all WebSocket messages.
type WSEvent struct {
	Type     string `json:"type"`
	BattleID string `json:"battle_id"`
	Data     any    `json:"data"`
}

// ClientMessage is the envelope for messages sent from the client.
type ClientMessage struct {
	Action   string `json:"action"` // "subscribe" or "unsubscribe"
	BattleID string `json:"battle_id"`
}

// WSConn wraps a WebSocket connection with its user and subscriptions.
// userID is empty for guest connections.
type WSConn struct {
	conn   *websocket.Conn
	userID string
	send   chan []byte
}

// Hub manages WebSocket connections and battle-room subscriptions.
type Hub struct {
	mu          sync.RWMutex
	connections map[*WSConn]bool
	battles     map[string]map[*WSConn]bool // battleID -> set of connections
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		connections: make(map[*WSConn]bool),
		battles:     make(map[string]map[*WSConn]bool),
	}
}

// Register adds a connection to the hub.
func (h *Hub) Register(c *WSConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connections[c] = true
}

// Unregister removes a connection from the hub and all its subscriptions.
func (h *Hub) Unregister(c *WSConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.connections, c)
	for battleID, conns := range h.battles {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.battles, battleID)
		}
	}
	close(c.send)
}

// Subscribe adds a connection to a battle room.
func (h *Hub) Subscribe(c *WSConn, battleID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.battles[battleID] == nil {
		h.battles[battleID] = make(map[*WSConn]bool)
	}
	h.battles[battleID][c] = true
}

// Unsubscribe removes a connection from a battle room.
func (h *Hub) Unsubscribe(c *WSConn, battleID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.battles[battleID]; ok {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.battles, battleID)
		}
	}
}

// BroadcastToBattle sends an event to all connections in a battle room.
func (h *Hub) BroadcastToBattle(battleID string, event WSEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("battleId", battleID).Msg("Failed to marshal WebSocket event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.battles[battleID] {
		select {
		case c.send <- data:
		default:
			log.Warn().Str("userId", c.userID).Str("battleId", battleID).Msg("Dropping WebSocket message, buffer full")
		}
	}
}

// ConnectionCount returns the total number of active connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// BattleSubscriberCount returns the number of connections in a battle room.
func (h *Hub) BattleSubscriberCount(battleID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.battles[battleID])
}
