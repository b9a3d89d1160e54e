package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/crosswars/api/internal/auth"
)

const (
	writeWait   = 10 * time.Second
	pongWait    = 60 * time.Second
	pingPeriod  = 54 * time.Second // Must be less than pongWait
	maxMsgSize  = 4096
	sendBufSize = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS handled by middleware; tighten in production
	},
}

// WSHandler handles WebSocket connections.
type WSHandler struct {
	hub      *Hub
	verifier auth.TokenVerifier
}

// NewWSHandler creates a WSHandler.
func NewWSHandler(hub *Hub, verifier auth.TokenVerifier) *WSHandler {
	return &WSHandler{hub: hub, verifier: verifier}
}

// ServeWS handles GET /ws — upgrades to WebSocket.
// Auth via ?token= query parameter (WebSocket can't send headers).
// Guests connect without a token; like the HTTP surface, an invalid
// token degrades to a guest connection rather than an error.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID := ""
	if tokenStr := r.URL.Query().Get("token"); tokenStr != "" {
		if principal, err := h.verifier.Verify(r.Context(), tokenStr); err == nil {
			userID = principal.UserID
		}
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := &WSConn{
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, sendBufSize),
	}
	h.hub.Register(client)

	// Joining a specific battle room can happen at connect time or via a
	// subscribe message later.
	if battleID := r.URL.Query().Get("battle_id"); battleID != "" {
		h.hub.Subscribe(client, battleID)
	}

	welcome, _ := json.Marshal(WSEvent{Type: "connected", Data: map[string]any{}})
	client.send <- welcome

	go h.writePump(client)
	go h.readPump(client)

	log.Info().Str("userId", userID).Int("total", h.hub.ConnectionCount()).Msg("WebSocket client connected")
}

// readPump reads messages from the WebSocket connection.
func (h *WSHandler) readPump(c *WSConn) {
	defer func() {
		h.hub.Unregister(c)
		c.conn.Close()
		log.Info().Str("userId", c.userID).Msg("WebSocket client disconnected")
	}()

	c.conn.SetReadLimit(maxMsgSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("userId", c.userID).Msg("WebSocket unexpected close")
			}
			break
		}

		var msg ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}

		switch msg.Action {
		case "subscribe":
			if msg.BattleID != "" {
				h.hub.Subscribe(c, msg.BattleID)
			}
		case "unsubscribe":
			if msg.BattleID != "" {
				h.hub.Unsubscribe(c, msg.BattleID)
			}
		}
	}
}

// writePump writes messages to the WebSocket connection.
func (h *WSHandler) writePump(c *WSConn) {
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

			// Drain queued messages into the same write
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte("\n"))
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
