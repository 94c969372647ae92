// Package tictactoe implements a minimal plugin.GamePlugin used to
// validate MCTS Engine correctness in isolation from a game with hidden
// information or complex scoring (original_source/backend/src/games/
// tictactoe/plugin.py exists for exactly this reason: "isolate MCTS core
// correctness from Carcassonne-specific game logic"). GameData is kept as
// a plain map[string]any so this plugin exercises the repository
// package's encoding/json fallback path rather than plugin.GameDataCodec
// (pkg/games/carcassonne is the vehicle for the typed-struct/codec path).
package tictactoe

import (
	"fmt"

	"github.com/orla-games/meeplecore/pkg/plugin"
)

const actionType = "play"

var winLines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

// Plugin implements plugin.GamePlugin for Tic-Tac-Toe.
type Plugin struct{}

// New returns a Plugin. Registered against bot/mcts as a stateless value.
func New() *Plugin { return &Plugin{} }

func (Plugin) Metadata() plugin.Metadata {
	return plugin.Metadata{
		GameId:           "tictactoe",
		DisplayName:      "Tic-Tac-Toe",
		MinPlayers:       2,
		MaxPlayers:       2,
		Description:      "Classic 3x3 tic-tac-toe",
		ConfigSchema:     map[string]any{},
		DisconnectPolicy: plugin.DisconnectAbandonAll,
	}
}

func (Plugin) ValidateConfig(map[string]any) []string { return nil }

func makePhase(playerId plugin.PlayerId) plugin.Phase {
	return plugin.Phase{
		Name:           "play",
		ConcurrentMode: plugin.ConcurrentSequential,
		ExpectedActions: []plugin.ExpectedAction{
			{PlayerId: playerId, ActionType: actionType},
		},
	}
}

func (Plugin) CreateInitialState(players []plugin.Player, config plugin.GameConfig) (any, plugin.Phase, []plugin.Event, error) {
	if len(players) != 2 {
		return nil, plugin.Phase{}, nil, fmt.Errorf("tictactoe: requires exactly 2 players, got %d", len(players))
	}
	board := make([]any, 9)
	gameData := map[string]any{
		"board":          board,
		"current_player": 0,
	}
	return gameData, makePhase(players[0].PlayerId), nil, nil
}

func (Plugin) GetValidActions(gameData any, phase plugin.Phase, playerId plugin.PlayerId) []map[string]any {
	board := boardOf(gameData)
	var actions []map[string]any
	for i, cell := range board {
		if cell == nil {
			actions = append(actions, map[string]any{"cell": i})
		}
	}
	return actions
}

func (Plugin) ValidateAction(gameData any, phase plugin.Phase, action plugin.Action) error {
	if action.ActionType != actionType {
		return fmt.Errorf("tictactoe: unknown action_type %q", action.ActionType)
	}
	cell, ok := cellOf(action.Payload)
	if !ok || cell < 0 || cell > 8 {
		return fmt.Errorf("tictactoe: invalid cell")
	}
	if boardOf(gameData)[cell] != nil {
		return fmt.Errorf("tictactoe: cell %d already occupied", cell)
	}
	return nil
}

func (Plugin) ApplyAction(gameData any, phase plugin.Phase, action plugin.Action, players []plugin.Player) (plugin.TransitionResult, error) {
	cell, _ := cellOf(action.Payload)
	current := currentPlayerOf(gameData)

	board := append([]any(nil), boardOf(gameData)...)
	board[cell] = current

	newData := map[string]any{"board": board, "current_player": current}

	if winner, ok := checkWinner(board); ok {
		winnerPid := players[winner].PlayerId
		loserPid := players[1-winner].PlayerId
		scores := map[plugin.PlayerId]float64{winnerPid: 1.0, loserPid: 0.0}
		return plugin.TransitionResult{
			GameData:  newData,
			NextPhase: makePhase(winnerPid),
			Scores:    scores,
			GameOver: &plugin.GameResult{
				Winners:     []plugin.PlayerId{winnerPid},
				FinalScores: scores,
				Reason:      plugin.ReasonNormal,
			},
		}, nil
	}

	if isDraw(board) {
		scores := map[plugin.PlayerId]float64{players[0].PlayerId: 0.5, players[1].PlayerId: 0.5}
		return plugin.TransitionResult{
			GameData:  newData,
			NextPhase: makePhase(players[0].PlayerId),
			Scores:    scores,
			GameOver: &plugin.GameResult{
				Winners:     []plugin.PlayerId{players[0].PlayerId, players[1].PlayerId},
				FinalScores: scores,
				Reason:      plugin.ReasonDraw,
			},
		}, nil
	}

	next := 1 - current
	newData["current_player"] = next
	return plugin.TransitionResult{
		GameData:  newData,
		NextPhase: makePhase(players[next].PlayerId),
	}, nil
}

func (Plugin) GetPlayerView(gameData any, phase plugin.Phase, playerId *plugin.PlayerId, players []plugin.Player) map[string]any {
	return asMap(gameData)
}

func (Plugin) GetSpectatorSummary(gameData any, phase plugin.Phase, players []plugin.Player) map[string]any {
	return asMap(gameData)
}

// OnPlayerForfeit has no generic skip to offer: a forfeited player in a
// 2-player game always leaves fewer than 2 active players, which the
// session engine's disconnect policy already finishes directly (the
// |active| == 1 branch of grace-period expiry) before this would ever be
// reached in practice. Returning nil mirrors the original plugin exactly.
func (Plugin) OnPlayerForfeit(gameData any, phase plugin.Phase, playerId plugin.PlayerId, players []plugin.Player) (*plugin.TransitionResult, error) {
	return nil, nil
}

func (Plugin) ResolveConcurrentActions(gameData any, phase plugin.Phase, actions map[plugin.PlayerId]plugin.Action, players []plugin.Player) (plugin.TransitionResult, error) {
	return plugin.TransitionResult{}, fmt.Errorf("tictactoe: concurrent actions not supported")
}

func (Plugin) CloneGameData(gameData any) any {
	m := asMap(gameData)
	board := append([]any(nil), boardOf(gameData)...)
	return map[string]any{"board": board, "current_player": m["current_player"]}
}

var _ plugin.GamePlugin = (*Plugin)(nil)

func asMap(gameData any) map[string]any {
	m, _ := gameData.(map[string]any)
	return m
}

func boardOf(gameData any) []any {
	m := asMap(gameData)
	board, _ := m["board"].([]any)
	return board
}

func currentPlayerOf(gameData any) int {
	m := asMap(gameData)
	switch v := m["current_player"].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}

func cellOf(payload map[string]any) (int, bool) {
	switch v := payload["cell"].(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

// cellValue normalizes a board entry to (mark, occupied): entries arrive
// as Go ints fresh off ApplyAction but as float64 after a round trip
// through the repository package's encoding/json fallback codec (no
// plugin.GameDataCodec here by design — see the package doc comment).
func cellValue(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

func checkWinner(board []any) (int, bool) {
	for _, line := range winLines {
		a, aOk := cellValue(board[line[0]])
		b, bOk := cellValue(board[line[1]])
		c, cOk := cellValue(board[line[2]])
		if !aOk || !bOk || !cOk {
			continue
		}
		if a == b && b == c {
			return a, true
		}
	}
	return 0, false
}

func isDraw(board []any) bool {
	for _, cell := range board {
		if cell == nil {
			return false
		}
	}
	return true
}
