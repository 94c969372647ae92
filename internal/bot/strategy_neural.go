package bot

import (
	"github.com/rs/zerolog/log"

	"github.com/orla-games/meeplecore/internal/bot/neural"
	"github.com/orla-games/meeplecore/internal/mcts"
	"github.com/orla-games/meeplecore/pkg/plugin"
)

func init() {
	RegisterStrategy("hard-neural", func(gameId plugin.GameId, opts map[string]any) (Strategy, error) {
		return newHardNeuralOrFallback(opts), nil
	})
}

// newHardNeuralOrFallback wires a gonnx-backed leaf evaluator into
// HardParams' eval_fn, mirroring the teacher's newGonnxOrFallback degrade
// pattern: if GONNX_MODEL_PATH isn't configured or the model fails to load,
// it logs a warning and falls back to the plain "hard" MCTS profile, since eval_fn is
// pluggable and the default heuristic always remains available.
func newHardNeuralOrFallback(opts map[string]any) Strategy {
	ev, ok := neural.NewOrFallback()
	if !ok {
		log.Warn().Msg("bot: hard-neural requested but no ONNX model configured; falling back to hard")
		return NewMCTSStrategy("hard", HardParams(), opts)
	}

	params := HardParams()
	params.EvalFn = func(gameData any, phase plugin.Phase, searchingPlayer plugin.PlayerId, players []plugin.Player, p plugin.GamePlugin) float64 {
		fallback := mcts.DefaultEvaluator(scoresFrom(gameData), searchingPlayer, players)
		return ev.Evaluate(gameData, phase, searchingPlayer, players, p, fallback)
	}
	return NewMCTSStrategy("hard-neural", params, opts)
}

// scoresFrom best-efforts a scores map out of a map[string]any-shaped
// game_data for the default-evaluator fallback; typed game data plugins
// that want a real fallback should supply their own EvalFn instead of using
// hard-neural directly.
func scoresFrom(gameData any) map[plugin.PlayerId]float64 {
	m, ok := gameData.(map[string]any)
	if !ok {
		return nil
	}
	raw, ok := m["scores"].(map[string]float64)
	if !ok {
		return nil
	}
	return raw
}
