// Package bot implements Bot Strategy: a narrow strategy interface with two
// concrete implementations (random, MCTS-backed) and a bot_id registry,
// grounded on the teacher's internal/bot package shape (Strategy interface
// + StrategyForDifficulty factory).
package bot

import (
	"fmt"

	"github.com/orla-games/meeplecore/internal/mcts"
	"github.com/orla-games/meeplecore/pkg/plugin"
)

// Strategy is the narrow contract the Bot Runner calls against:
// choose_action(game_data, phase, player_id, plugin, players) -> payload.
type Strategy interface {
	Name() string
	ChooseAction(gameData any, phase plugin.Phase, playerId plugin.PlayerId, p plugin.GamePlugin, players []plugin.Player) (map[string]any, error)
}

// Factory builds a Strategy for a given game, mirroring the registry's
// factory(game_id, **kwargs) shape.
type Factory func(gameId plugin.GameId, opts map[string]any) (Strategy, error)

// registry maps bot_id to a Factory. Populated by RegisterStrategy, read by
// NewStrategy. An unknown bot_id is a hard error.
var registry = map[string]Factory{}

func init() {
	RegisterStrategy("random", func(plugin.GameId, map[string]any) (Strategy, error) {
		return RandomStrategy{}, nil
	})
	RegisterStrategy("easy", func(gameId plugin.GameId, opts map[string]any) (Strategy, error) {
		return NewMCTSStrategy("easy", EasyParams(), opts), nil
	})
	RegisterStrategy("medium", func(gameId plugin.GameId, opts map[string]any) (Strategy, error) {
		return NewMCTSStrategy("medium", MediumParams(), opts), nil
	})
	RegisterStrategy("hard", func(gameId plugin.GameId, opts map[string]any) (Strategy, error) {
		return NewMCTSStrategy("hard", HardParams(), opts), nil
	})
}

// RegisterStrategy adds or replaces a bot_id's factory. Call during package
// init from a game-specific bot package to register extra bot_ids.
func RegisterStrategy(botId string, factory Factory) {
	registry[botId] = factory
}

// NewStrategy looks up bot_id in the registry and builds a Strategy for
// gameId. Returns an error for an unknown bot_id.
func NewStrategy(botId string, gameId plugin.GameId, opts map[string]any) (Strategy, error) {
	factory, ok := registry[botId]
	if !ok {
		return nil, fmt.Errorf("bot: unknown bot_id %q", botId)
	}
	return factory(gameId, opts)
}

// --- RandomStrategy ---

// RandomStrategy picks uniformly over plugin.GetValidActions.
type RandomStrategy struct{}

func (RandomStrategy) Name() string { return "random" }

func (RandomStrategy) ChooseAction(gameData any, phase plugin.Phase, playerId plugin.PlayerId, p plugin.GamePlugin, players []plugin.Player) (map[string]any, error) {
	actions := p.GetValidActions(gameData, phase, playerId)
	if len(actions) == 0 {
		return nil, fmt.Errorf("bot: no valid actions for %s", playerId)
	}
	return actions[botIntn(len(actions))], nil
}

// --- MCTSStrategy ---

// MCTSStrategy forwards to the MCTS Engine with a named parameter profile
// (easy | medium | hard: purely parameter tuning, same search code).
type MCTSStrategy struct {
	profile string
	params  mcts.Params
}

// NewMCTSStrategy builds an MCTSStrategy from a base profile, optionally
// overridden by per-match opts (e.g. {"num_simulations": 50}).
func NewMCTSStrategy(profile string, base mcts.Params, opts map[string]any) MCTSStrategy {
	return MCTSStrategy{profile: profile, params: applyOverrides(base, opts)}
}

func (s MCTSStrategy) Name() string { return s.profile }

func (s MCTSStrategy) ChooseAction(gameData any, phase plugin.Phase, playerId plugin.PlayerId, p plugin.GamePlugin, players []plugin.Player) (map[string]any, error) {
	return mcts.Search(p, gameData, phase, playerId, players, s.params)
}

func applyOverrides(base mcts.Params, opts map[string]any) mcts.Params {
	if v, ok := opts["num_simulations"].(int); ok {
		base.NumSimulations = v
	}
	if v, ok := opts["time_limit_ms"].(int); ok {
		base.TimeLimitMs = v
	}
	if v, ok := opts["num_determinizations"].(int); ok {
		base.NumDeterminizations = v
	}
	if v, ok := opts["use_rave"].(bool); ok {
		base.UseRave = v
	}
	return base
}
