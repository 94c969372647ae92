package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/orla-games/meeplecore/internal/session"
	"github.com/orla-games/meeplecore/pkg/plugin"
)

const (
	writeWait   = 10 * time.Second
	pongWait    = 60 * time.Second
	pingPeriod  = 54 * time.Second // must be less than pongWait
	maxMsgSize  = 4096
	sendBufSize = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Handler serves the WebSocket endpoint and feeds inbound action/lifecycle
// messages into the Session Manager.
type Handler struct {
	hub     *Hub
	manager *session.Manager
}

// NewHandler builds a Handler bound to hub and manager.
func NewHandler(hub *Hub, manager *session.Manager) *Handler {
	return &Handler{hub: hub, manager: manager}
}

// ServeWS upgrades the request and joins the connection to matchId as
// playerId (both taken as query parameters; a production deployment would
// resolve playerId from an authenticated session instead — see DESIGN.md
// for why an auth layer is out of scope here). An empty player_id joins as
// a spectator.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	matchId := plugin.MatchId(r.URL.Query().Get("match_id"))
	playerId := plugin.PlayerId(r.URL.Query().Get("player_id"))
	if matchId == "" {
		http.Error(w, `{"error":"missing match_id parameter"}`, http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("transport: websocket upgrade failed")
		return
	}

	c := &Conn{conn: conn, send: make(chan []byte, sendBufSize)}
	h.hub.Register(c)
	h.hub.Subscribe(c, matchId, playerId)

	if playerId != "" {
		if gs, ok := h.manager.Get(matchId); ok {
			if err := gs.HandlePlayerReconnect(context.Background(), playerId); err != nil {
				log.Warn().Err(err).Str("match_id", matchId).Str("player_id", playerId).Msg("reconnect handling failed")
			}
		}
	}

	go h.writePump(c)
	go h.readPump(c, matchId, playerId)

	log.Info().Str("match_id", matchId).Str("player_id", playerId).Int("total", h.hub.ConnectionCount()).
		Msg("transport: websocket client connected")
}

func (h *Handler) readPump(c *Conn, matchId plugin.MatchId, playerId plugin.PlayerId) {
	defer func() {
		h.hub.Unregister(c)
		c.conn.Close()
		if playerId != "" {
			if gs, ok := h.manager.Get(matchId); ok {
				if err := gs.HandlePlayerDisconnect(context.Background(), playerId); err != nil {
					log.Warn().Err(err).Str("match_id", matchId).Str("player_id", playerId).Msg("disconnect handling failed")
				}
			}
		}
		log.Info().Str("match_id", matchId).Str("player_id", playerId).Msg("transport: websocket client disconnected")
	}()

	c.conn.SetReadLimit(maxMsgSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("match_id", matchId).Msg("transport: unexpected websocket close")
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}
		h.handleMessage(c, matchId, playerId, msg)
	}
}

func (h *Handler) handleMessage(c *Conn, matchId plugin.MatchId, playerId plugin.PlayerId, msg ClientMessage) {
	if msg.Type != "action" || playerId == "" {
		return
	}
	gs, ok := h.manager.Get(matchId)
	if !ok {
		h.hub.SendError(matchId, playerId, "GameNotActive", "match not found")
		return
	}
	action := plugin.Action{ActionType: msg.Action, PlayerId: playerId, Payload: msg.Payload}
	if err := gs.HandleAction(context.Background(), action); err != nil {
		log.Debug().Err(err).Str("match_id", matchId).Str("player_id", playerId).Msg("transport: action rejected")
	}
}

func (h *Handler) writePump(c *Conn) {
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
