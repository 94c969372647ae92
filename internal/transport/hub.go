// Package transport implements a gorilla/websocket-backed demo transport
// adapter satisfying engine.Broadcaster, grounded on the teacher's
// internal/handler WebSocket hub (connection registry + game-channel
// subscription set), generalized from one shared per-game broadcast to
// per-player filtered views: each player gets their own filtered view.
package transport

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/orla-games/meeplecore/pkg/plugin"
)

// Envelope is the wire shape of every outbound message.
type Envelope struct {
	Type    string `json:"type"`
	MatchId plugin.MatchId `json:"match_id"`
	Data    any    `json:"data"`
}

// ClientMessage is the wire shape of every inbound message. Only "action"
// messages from a player connection are acted on (they submit a move);
// every other type is ignored. The match and player come from the
// connection's match_id/player_id query parameters, not from the message's
// MatchId/PlayerId fields, and disconnect/reconnect follow the socket's own
// lifecycle.
type ClientMessage struct {
	Type     string          `json:"type"`
	MatchId  plugin.MatchId  `json:"match_id"`
	PlayerId plugin.PlayerId `json:"player_id,omitempty"`
	Action   string          `json:"action_type,omitempty"`
	Payload  map[string]any  `json:"payload,omitempty"`
}

// Conn wraps one live WebSocket connection. PlayerId is empty for a
// spectator connection.
type Conn struct {
	conn     *websocket.Conn
	playerId plugin.PlayerId
	send     chan []byte
}

// Hub tracks every connection and its match subscription.
type Hub struct {
	mu          sync.RWMutex
	connections map[*Conn]bool
	matches     map[plugin.MatchId]map[*Conn]bool
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{
		connections: make(map[*Conn]bool),
		matches:     make(map[plugin.MatchId]map[*Conn]bool),
	}
}

// Register adds a connection to the hub, not yet subscribed to any match.
func (h *Hub) Register(c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connections[c] = true
}

// Unregister removes a connection and all its subscriptions.
func (h *Hub) Unregister(c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.connections, c)
	for matchId, conns := range h.matches {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.matches, matchId)
		}
	}
	close(c.send)
}

// Subscribe joins a connection to a match channel as playerId (empty for
// spectator).
func (h *Hub) Subscribe(c *Conn, matchId plugin.MatchId, playerId plugin.PlayerId) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c.playerId = playerId
	if h.matches[matchId] == nil {
		h.matches[matchId] = make(map[*Conn]bool)
	}
	h.matches[matchId][c] = true
}

func (h *Hub) send(c *Conn, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("transport: failed to marshal outbound envelope")
		return
	}
	select {
	case c.send <- data:
	default:
		log.Warn().Str("player_id", c.playerId).Msg("transport: dropping message, send buffer full")
	}
}

// ConnectionCount returns the number of live connections, for health checks.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}
