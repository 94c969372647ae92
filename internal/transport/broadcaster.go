package transport

import (
	"github.com/orla-games/meeplecore/internal/engine"
	"github.com/orla-games/meeplecore/pkg/plugin"
)

// Broadcaster event type constants sent over the wire.
const (
	TypeState          = "state_update"
	TypeError          = "error"
	TypeGameOver       = "game_over"
	TypePlayerDisconn  = "player_disconnected"
	TypePlayerReconn   = "player_reconnected"
	TypePlayerForfeit  = "player_forfeited"
)

// BroadcastState implements engine.Broadcaster: every connection
// subscribed to matchId gets its own filtered view — the player's view if
// one exists for its playerId, the spectator view otherwise.
func (h *Hub) BroadcastState(matchId plugin.MatchId, views map[plugin.PlayerId]engine.PlayerView, spectatorView *engine.PlayerView) {
	h.mu.RLock()
	conns := make([]*Conn, 0, len(h.matches[matchId]))
	for c := range h.matches[matchId] {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		view, ok := views[c.playerId]
		if !ok {
			if spectatorView == nil {
				continue
			}
			h.send(c, Envelope{Type: TypeState, MatchId: matchId, Data: spectatorView})
			continue
		}
		h.send(c, Envelope{Type: TypeState, MatchId: matchId, Data: view})
	}
}

// BroadcastEvent implements engine.Broadcaster for lifecycle events
// (disconnect/reconnect/forfeit).
func (h *Hub) BroadcastEvent(matchId plugin.MatchId, event plugin.Event) {
	h.broadcastToMatch(matchId, Envelope{Type: event.EventType, MatchId: matchId, Data: event})
}

// BroadcastGameOver implements engine.Broadcaster.
func (h *Hub) BroadcastGameOver(matchId plugin.MatchId, result plugin.GameResult) {
	h.broadcastToMatch(matchId, Envelope{Type: TypeGameOver, MatchId: matchId, Data: result})
}

// SendError implements engine.Broadcaster: a single-submitter rejection,
// never a broadcast.
func (h *Hub) SendError(matchId plugin.MatchId, playerId plugin.PlayerId, kind string, message string) {
	h.mu.RLock()
	var target *Conn
	for c := range h.matches[matchId] {
		if c.playerId == playerId {
			target = c
			break
		}
	}
	h.mu.RUnlock()
	if target == nil {
		return
	}
	h.send(target, Envelope{Type: TypeError, MatchId: matchId, Data: map[string]string{"kind": kind, "message": message}})
}

func (h *Hub) broadcastToMatch(matchId plugin.MatchId, env Envelope) {
	h.mu.RLock()
	conns := make([]*Conn, 0, len(h.matches[matchId]))
	for c := range h.matches[matchId] {
		conns = append(conns, c)
	}
	h.mu.RUnlock()
	for _, c := range conns {
		h.send(c, env)
	}
}

var _ engine.Broadcaster = (*Hub)(nil)
