package engine

import (
	"github.com/orla-games/meeplecore/pkg/plugin"
)

// PlayerView is the per-player filtered snapshot sent on every state
// change. ValidActions is the single authority the UI uses to render legal
// moves.
type PlayerView struct {
	MatchId             plugin.MatchId              `json:"match_id"`
	GameData            map[string]any              `json:"game_data"`
	ValidActions        []map[string]any             `json:"valid_actions,omitempty"`
	CurrentPhase        plugin.Phase                `json:"current_phase"`
	Scores              map[plugin.PlayerId]float64 `json:"scores"`
	Status              Status                      `json:"status"`
	ForfeitedPlayers    []plugin.PlayerId           `json:"forfeited_players"`
	DisconnectedPlayers map[plugin.PlayerId]int64   `json:"disconnected_players"`
	ViewerId            *plugin.PlayerId            `json:"viewer_id,omitempty"`
	IsSpectator         bool                        `json:"is_spectator"`
}

// Broadcaster is the outbound half of the transport adapter: the session
// engine calls it after every state change. Implementations are
// external collaborators (websocket hub, message queue, ...); the engine
// makes no assumption beyond this interface.
type Broadcaster interface {
	// BroadcastState sends view to every connection subscribed to matchId,
	// keyed by viewer (each player gets their own filtered view;
	// spectatorView is the view for connections with no player).
	BroadcastState(matchId plugin.MatchId, views map[plugin.PlayerId]PlayerView, spectatorView *PlayerView)
	// BroadcastEvent sends a lifecycle broadcast (disconnect/reconnect/forfeit).
	BroadcastEvent(matchId plugin.MatchId, event plugin.Event)
	// BroadcastGameOver sends the terminal result.
	BroadcastGameOver(matchId plugin.MatchId, result plugin.GameResult)
	// SendError sends a rejection to exactly one submitter; no broadcast,
	// no state change.
	SendError(matchId plugin.MatchId, playerId plugin.PlayerId, kind string, message string)
}

// NoopBroadcaster discards everything. Useful for tests and for the arena
// bot-vs-bot runner, which has no transport.
type NoopBroadcaster struct{}

func (NoopBroadcaster) BroadcastState(plugin.MatchId, map[plugin.PlayerId]PlayerView, *PlayerView) {}
func (NoopBroadcaster) BroadcastEvent(plugin.MatchId, plugin.Event)                                {}
func (NoopBroadcaster) BroadcastGameOver(plugin.MatchId, plugin.GameResult)                         {}
func (NoopBroadcaster) SendError(plugin.MatchId, plugin.PlayerId, string, string)                   {}

// buildViews computes the per-player and spectator PlayerViews for the
// current state.
func buildViews(p plugin.GamePlugin, state *GameState) (map[plugin.PlayerId]PlayerView, *PlayerView) {
	views := make(map[plugin.PlayerId]PlayerView, len(state.Players))
	for _, player := range state.Players {
		pid := player.PlayerId
		view := PlayerView{
			MatchId:             state.MatchId,
			GameData:            p.GetPlayerView(state.GameData, state.CurrentPhase, &pid, state.Players),
			CurrentPhase:        state.CurrentPhase,
			Scores:              state.Scores,
			Status:              state.Status,
			ForfeitedPlayers:    state.ForfeitedPlayers,
			DisconnectedPlayers: state.DisconnectedPlayers,
			ViewerId:            &pid,
		}
		if state.Status == StatusActive && !state.IsForfeited(pid) {
			view.ValidActions = p.GetValidActions(state.GameData, state.CurrentPhase, pid)
		}
		views[pid] = view
	}

	spectator := PlayerView{
		MatchId:             state.MatchId,
		GameData:            p.GetSpectatorSummary(state.GameData, state.CurrentPhase, state.Players),
		CurrentPhase:        state.CurrentPhase,
		Scores:              state.Scores,
		Status:              state.Status,
		ForfeitedPlayers:    state.ForfeitedPlayers,
		DisconnectedPlayers: state.DisconnectedPlayers,
		IsSpectator:         true,
	}
	return views, &spectator
}
