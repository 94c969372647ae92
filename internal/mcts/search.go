package mcts

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/orla-games/meeplecore/internal/engine"
	"github.com/orla-games/meeplecore/pkg/plugin"
)

// Params bundles every MCTS tunable. Bot profiles (internal/bot) construct
// one of these per difficulty tier.
type Params struct {
	NumSimulations int
	TimeLimitMs    int
	Exploration    float64 // C, default √2
	NumDeterminizations int

	EvalFn EvalFn // nil uses DefaultEvaluator via scores

	PwC     float64
	PwAlpha float64

	UseRave       bool
	RaveK         float64
	MaxAmafDepth  int
	RaveFPU       bool
	TileAwareAMAF bool

	Rand *rand.Rand // determinization RNG source; if nil, each determinization gets a fresh source seeded by determinizationSeed
}

// DefaultParams returns spec-named defaults: C=√2, no RAVE, single
// determinization, modest widening.
func DefaultParams() Params {
	return Params{
		NumSimulations:      200,
		TimeLimitMs:         1000,
		Exploration:         math.Sqrt2,
		NumDeterminizations: 1,
		PwC:                 2.0,
		PwAlpha:             0.5,
	}
}

var ErrInvalidPlayers = errors.New("mcts: players must be non-empty, contain searching player, and be densely seat-ordered")

// Search implements mcts_search(game_data, phase, player_id, plugin,
// players, params) -> chosen action payload.
func Search(p plugin.GamePlugin, gameData any, phase plugin.Phase, searchingPlayer plugin.PlayerId, players []plugin.Player, params Params) (map[string]any, error) {
	if err := validatePlayers(players, searchingPlayer); err != nil {
		return nil, err
	}

	root := &engine.SimulationState{GameData: gameData, Phase: phase, Players: players, Scores: map[plugin.PlayerId]float64{}}
	actions := p.GetValidActions(gameData, phase, searchingPlayer)
	if len(actions) < 2 {
		if len(actions) == 1 {
			return actions[0], nil
		}
		return nil, fmt.Errorf("mcts: no valid actions for %s", searchingPlayer)
	}

	if params.Exploration == 0 {
		params.Exploration = math.Sqrt2
	}
	d := params.NumDeterminizations
	if d < 1 {
		d = 1
	}
	perDetermIterations := params.NumSimulations / d
	if perDetermIterations < 1 {
		perDetermIterations = 1
	}

	deadline := time.Time{}
	if params.TimeLimitMs > 0 {
		deadline = time.Now().Add(time.Duration(params.TimeLimitMs) * time.Millisecond)
	}
	perDetermDeadline := time.Duration(0)
	if params.TimeLimitMs > 0 {
		perDetermDeadline = time.Duration(params.TimeLimitMs) * time.Millisecond / time.Duration(d)
	}

	aggregateVisits := make(map[string]uint64)
	aggregateActions := make(map[string]map[string]any)

	rng := params.Rand
	for det := 0; det < d; det++ {
		detRng := rng
		if detRng == nil {
			detRng = rand.New(rand.NewSource(determinizationSeed(det)))
		}
		t := newTree()
		detState := engine.CloneState(p, root)
		shuffleTileBag(detState.GameData, detRng)

		detDeadline := deadline
		if perDetermDeadline > 0 {
			detDeadline = time.Now().Add(perDetermDeadline)
		}

		for i := 0; i < perDetermIterations; i++ {
			if !detDeadline.IsZero() && time.Now().After(detDeadline) {
				break
			}
			runIteration(p, t, detState, searchingPlayer, params, detRng)
		}

		for _, childIdx := range t.get(rootIndex).children {
			child := t.get(childIdx)
			aggregateVisits[child.actionKey] += child.visitCount
			if _, seen := aggregateActions[child.actionKey]; !seen {
				aggregateActions[child.actionKey] = child.actionTaken
			}
		}
	}

	if len(aggregateVisits) == 0 {
		log.Warn().Str("player", string(searchingPlayer)).Msg("mcts: no children expanded across any determinization, falling back to first valid action")
		return actions[0], nil
	}
	return pickByVisitCount(aggregateVisits, aggregateActions), nil
}

func validatePlayers(players []plugin.Player, searchingPlayer plugin.PlayerId) error {
	if len(players) == 0 {
		return ErrInvalidPlayers
	}
	found := false
	seats := make(map[uint32]bool, len(players))
	for _, pl := range players {
		if pl.PlayerId == searchingPlayer {
			found = true
		}
		seats[pl.SeatIndex] = true
	}
	if !found {
		return ErrInvalidPlayers
	}
	for i := 0; i < len(players); i++ {
		if !seats[uint32(i)] {
			return ErrInvalidPlayers
		}
	}
	return nil
}

// pickByVisitCount returns the action payload with the highest aggregate
// visit count, breaking ties deterministically by canonical key order.
func pickByVisitCount(visits map[string]uint64, actions map[string]map[string]any) map[string]any {
	keys := make([]string, 0, len(visits))
	for k := range visits {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	best := keys[0]
	for _, k := range keys[1:] {
		if visits[k] > visits[best] {
			best = k
		}
	}
	return actions[best]
}

// determinizationSeed derives a fixed-but-distinct seed per determinization
// index so repeated searches with the same params replay identically when
// the caller does not supply its own *rand.Rand.
func determinizationSeed(det int) int64 {
	return int64(1469598103934665603 + det*1099511628211)
}

// TileBagShuffler is the struct-backed equivalent of a "game_data.tile_bag"
// field: a plugin whose GameData holds hidden/stochastic information
// implements this so determinization can reshuffle it with a fresh
// per-determinization RNG. Plugins with no hidden information simply don't
// implement it.
type TileBagShuffler interface {
	ShuffleTileBag(rng *rand.Rand)
}

// shuffleTileBag reshuffles the hidden-information container, supporting
// both a map[string]any "tile_bag" key (dynamic/JSON-shaped game data) and
// the TileBagShuffler interface (typed game data, e.g. pkg/games/carcassonne).
func shuffleTileBag(gameData any, rng *rand.Rand) {
	if s, ok := gameData.(TileBagShuffler); ok {
		s.ShuffleTileBag(rng)
		return
	}
	m, ok := gameData.(map[string]any)
	if !ok {
		return
	}
	bag, ok := m["tile_bag"].([]any)
	if !ok || len(bag) < 2 {
		return
	}
	rng.Shuffle(len(bag), func(i, j int) { bag[i], bag[j] = bag[j], bag[i] })
}

// runIteration performs one select/expand/evaluate/backpropagate pass
// against a shared determinization tree and state snapshot. state is
// cloned internally so the caller's detState is never mutated.
func runIteration(p plugin.GamePlugin, t *tree, rootState *engine.SimulationState, searchingPlayer plugin.PlayerId, params Params, rng *rand.Rand) {
	state := engine.CloneState(p, rootState)
	path := []nodeIndex{rootIndex}
	cur := rootIndex

	for {
		n := t.get(cur)
		if state.GameOver != nil {
			break
		}
		if !n.expanded {
			n.untriedActions = SortByPriority(p.GetValidActions(state.GameData, state.Phase, actorFor(state.Phase, state.Players, searchingPlayer)))
			n.expanded = true
		}
		if len(n.untriedActions) > 0 && len(n.children) < maxWidth(params.PwC, params.PwAlpha, n.visitCount) {
			action := n.untriedActions[0]
			n.untriedActions = n.untriedActions[1:]
			actor := actorFor(state.Phase, state.Players, searchingPlayer)
			key := ActionKey(action, params.TileAwareAMAF, currentTileOf(state.GameData))
			child := t.addChild(cur, action, key, actor)
			if err := stepState(p, state, actor, action); err != nil {
				// Dead branch: leave it with zero visits rather than erroring
				// the whole search.
				break
			}
			path = append(path, child)
			cur = child
			break
		}
		if len(n.children) == 0 {
			break
		}
		cur = selectChild(t, cur, params)
		child := t.get(cur)
		actor := child.actingPlayer
		if err := stepState(p, state, actor, child.actionTaken); err != nil {
			break
		}
		path = append(path, cur)
	}

	value := evaluate(p, state, searchingPlayer, params)
	backpropagate(t, path, searchingPlayer, value, params)
}

// actorFor resolves which player acts next: the expected actor named by the
// phase if any, else the player seated at the phase's player_index
// metadata, else the searching player (spec treats phases with no
// explicit single actor as "system"/auto, already filtered out upstream).
func actorFor(phase plugin.Phase, players []plugin.Player, fallback plugin.PlayerId) plugin.PlayerId {
	for _, ea := range phase.ExpectedActions {
		if ea.PlayerId != "" {
			return ea.PlayerId
		}
	}
	if idx, ok := phase.PlayerIndex(); ok {
		for _, pl := range players {
			if int(pl.SeatIndex) == idx {
				return pl.PlayerId
			}
		}
	}
	return fallback
}

func stepState(p plugin.GamePlugin, state *engine.SimulationState, actor plugin.PlayerId, payload map[string]any) error {
	action := plugin.Action{PlayerId: actor, Payload: payload}
	if at, ok := payload["action_type"].(string); ok {
		action.ActionType = at
	} else {
		action.ActionType = state.Phase.Name
	}
	_, err := engine.ApplyActionAndResolve(p, state, action)
	return err
}

// selectChild picks the UCT- or UCT+RAVE-maximising child.
func selectChild(t *tree, parentIdx nodeIndex, params Params) nodeIndex {
	parent := t.get(parentIdx)
	bestIdx := parent.children[0]
	bestScore := math.Inf(-1)
	for _, idx := range parent.children {
		score := childScore(t, parent, idx, params)
		if score > bestScore {
			bestScore = score
			bestIdx = idx
		}
	}
	return bestIdx
}

func childScore(t *tree, parent *node, idx nodeIndex, params Params) float64 {
	child := t.get(idx)
	if child.visitCount == 0 {
		if params.UseRave && params.RaveFPU {
			if q, ok := parent.amafQ(child.amafKey); ok {
				return 1 + q
			}
		}
		return math.Inf(1)
	}
	uct := child.q() + params.Exploration*math.Sqrt(math.Log(float64(parent.visitCount))/float64(child.visitCount))
	if !params.UseRave {
		return uct
	}
	amafQ, ok := parent.amafQ(child.amafKey)
	if !ok {
		return uct
	}
	beta := raveBeta(parent.visitCount, params.RaveK)
	return (1-beta)*uct + beta*amafQ
}

func evaluate(p plugin.GamePlugin, state *engine.SimulationState, searchingPlayer plugin.PlayerId, params Params) float64 {
	if state.GameOver != nil {
		return terminalValue(state.GameOver, searchingPlayer)
	}
	if params.EvalFn != nil {
		return clamp01(params.EvalFn(state.GameData, state.Phase, searchingPlayer, state.Players, p))
	}
	return DefaultEvaluator(state.Scores, searchingPlayer, state.Players)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// backpropagate walks path from leaf to root, updating visit/value and,
// when RAVE is on, AMAF stats for every action played below each node.
func backpropagate(t *tree, path []nodeIndex, searchingPlayer plugin.PlayerId, value float64, params Params) {
	for depth, idx := range path {
		n := t.get(idx)
		n.visitCount++
		if !n.hasActor || n.actingPlayer == searchingPlayer {
			n.totalValue += value
		} else {
			n.totalValue += 1 - value
		}

		if !params.UseRave {
			continue
		}
		for belowDepth := depth + 1; belowDepth < len(path); belowDepth++ {
			if params.MaxAmafDepth > 0 && belowDepth-depth > params.MaxAmafDepth {
				break
			}
			below := t.get(path[belowDepth])
			perspectiveValue := value
			if below.hasActor && below.actingPlayer != searchingPlayer {
				perspectiveValue = 1 - value
			}
			if n.amafVisits == nil {
				n.amafVisits = make(map[string]uint64)
				n.amafValues = make(map[string]float64)
			}
			n.amafVisits[below.actionKey]++
			n.amafValues[below.actionKey] += perspectiveValue
		}
	}
}
