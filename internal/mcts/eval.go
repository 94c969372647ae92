package mcts

import (
	"math"

	"github.com/orla-games/meeplecore/pkg/plugin"
)

// EvalFn is the pluggable leaf evaluator: eval_fn(game_data, phase,
// searching_player, players, plugin) -> [0,1]. Implementations must be
// pure and fast — this runs once per simulated iteration.
type EvalFn func(gameData any, phase plugin.Phase, searchingPlayer plugin.PlayerId, players []plugin.Player, p plugin.GamePlugin) float64

// DefaultEvaluator returns sigmoid((my_score - max_opp_score)/20), reading
// scores off state.Scores rather than game_data — it has no game-specific
// knowledge, which is the point of a default.
func DefaultEvaluator(scores map[plugin.PlayerId]float64, searchingPlayer plugin.PlayerId, players []plugin.Player) float64 {
	my := scores[searchingPlayer]
	maxOpp := math.Inf(-1)
	found := false
	for _, pl := range players {
		if pl.PlayerId == searchingPlayer {
			continue
		}
		if s := scores[pl.PlayerId]; !found || s > maxOpp {
			maxOpp = s
			found = true
		}
	}
	if !found {
		maxOpp = 0
	}
	return sigmoid((my - maxOpp) / 20)
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// terminalValue maps a terminal GameResult to a leaf value: 1.0 sole
// winner, 0.8 tied winner, 0.0 otherwise, 0.5 absent result.
func terminalValue(result *plugin.GameResult, searchingPlayer plugin.PlayerId) float64 {
	if result == nil {
		return 0.5
	}
	won := false
	for _, w := range result.Winners {
		if w == searchingPlayer {
			won = true
			break
		}
	}
	if !won {
		return 0.0
	}
	if len(result.Winners) == 1 {
		return 1.0
	}
	return 0.8
}

// raveBeta computes β = √(k / (3·parentVisits + k)), the UCT/AMAF blend
// weight. Monotone: β→1 as parentVisits→0, β→0 as parentVisits→∞, strictly
// decreasing in parentVisits for k>0.
func raveBeta(parentVisits uint64, k float64) float64 {
	if k <= 0 {
		return 0
	}
	return math.Sqrt(k / (3*float64(parentVisits) + k))
}
