package engine

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/orla-games/meeplecore/pkg/plugin"
)

// autoResolveGuard caps the number of auto-resolve iterations the stepper
// will run before giving up, to catch plugin bugs that never reach an
// interactive phase.
const autoResolveGuard = 50

// SimulationState is the minimal, pure state the stepper and the MCTS
// engine operate on — a subset of GameState with no session-lifetime
// bookkeeping (no match id, no disconnect timers).
type SimulationState struct {
	GameData any
	Phase    plugin.Phase
	Players  []plugin.Player
	Scores   map[plugin.PlayerId]float64
	GameOver *plugin.GameResult
}

// CloneState deep-copies GameData and Phase. Players is shared — it is
// immutable for the life of the match — and Scores is copied by value.
// This is the only mutation-isolation primitive the MCTS engine relies on.
func CloneState(p plugin.GamePlugin, s *SimulationState) *SimulationState {
	scores := make(map[plugin.PlayerId]float64, len(s.Scores))
	for k, v := range s.Scores {
		scores[k] = v
	}
	metadata := make(map[string]any, len(s.Phase.Metadata))
	for k, v := range s.Phase.Metadata {
		metadata[k] = v
	}
	phase := s.Phase
	phase.Metadata = metadata
	var gameOver *plugin.GameResult
	if s.GameOver != nil {
		g := *s.GameOver
		gameOver = &g
	}
	return &SimulationState{
		GameData: p.CloneGameData(s.GameData),
		Phase:    phase,
		Players:  s.Players,
		Scores:   scores,
		GameOver: gameOver,
	}
}

// autoResolveActor picks the player_id for a synthesised auto-resolve
// action: phase.metadata.player_index if present, else the first player,
// else the literal "system".
func autoResolveActor(phase plugin.Phase, players []plugin.Player) plugin.PlayerId {
	if idx, ok := phase.PlayerIndex(); ok {
		if p, found := (&GameState{Players: players}).PlayerBySeat(idx); found {
			return p.PlayerId
		}
	}
	if len(players) > 0 {
		return players[0].PlayerId
	}
	return "system"
}

// ApplyActionAndResolve calls plugin.ApplyAction, assigns the result into
// state, then loops while the new phase is auto_resolve and the game is
// not over, synthesising an action with action_type = phase.name each
// iteration. Returns the full ordered list of emitted events, in the order
// they were produced across every step (including auto-resolve steps).
func ApplyActionAndResolve(p plugin.GamePlugin, state *SimulationState, action plugin.Action) ([]plugin.Event, error) {
	result, err := p.ApplyAction(state.GameData, state.Phase, action, state.Players)
	if err != nil {
		return nil, err
	}
	events := applyTransition(state, result)

	for i := 0; i < autoResolveGuard; i++ {
		if !state.Phase.AutoResolve || state.GameOver != nil {
			return events, nil
		}
		synthetic := plugin.Action{
			ActionType: state.Phase.Name,
			PlayerId:   autoResolveActor(state.Phase, state.Players),
			Payload:    map[string]any{},
		}
		result, err := p.ApplyAction(state.GameData, state.Phase, synthetic, state.Players)
		if err != nil {
			return events, fmt.Errorf("%w: auto-resolve phase %q: %v", ErrPluginError, state.Phase.Name, err)
		}
		events = append(events, applyTransition(state, result)...)
	}

	log.Warn().Str("phase", state.Phase.Name).Int("guard", autoResolveGuard).
		Msg("auto-resolve guard hit; leaving phase as best-effort, likely plugin bug")
	return events, nil
}

// applyTransition mutates state in place from a TransitionResult and
// returns the events it carried.
func applyTransition(state *SimulationState, result plugin.TransitionResult) []plugin.Event {
	state.GameData = result.GameData
	state.Phase = result.NextPhase
	state.ApplyScoresInto(result.Scores)
	if result.GameOver != nil {
		state.GameOver = result.GameOver
	}
	return result.Events
}

// ApplyScoresInto merges delta scores into s.Scores; missing entries mean
// "unchanged", not zero.
func (s *SimulationState) ApplyScoresInto(delta map[plugin.PlayerId]float64) {
	if len(delta) == 0 {
		return
	}
	if s.Scores == nil {
		s.Scores = make(map[plugin.PlayerId]float64, len(delta))
	}
	for pid, v := range delta {
		s.Scores[pid] = v
	}
}
