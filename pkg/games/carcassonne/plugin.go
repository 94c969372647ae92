package carcassonne

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"

	"github.com/orla-games/meeplecore/pkg/plugin"
)

const (
	actionPlaceTile   = "place_tile"
	actionPlaceMeeple = "place_meeple"
)

// GameData is Carcassonne's typed state, kept as a pointer throughout so
// this plugin exercises plugin.GameDataCodec, plugin.FeatureExtractor,
// mcts.TileBagShuffler and mcts.CurrentTileProvider instead of the
// map[string]any fallback path pkg/games/tictactoe deliberately uses.
type GameData struct {
	Board          board
	TileBag        []string
	CurrentTileId  string
	Features       map[string]*Feature
	parent         map[string]string
	TileFeatureMap map[Position]map[string]string
	MeepleSupply   map[string]int
	Scores         map[string]int
	PlayOrder      []string
	TurnIndex      int
	PendingTilePos Position
	featureSeq     int
}

func newGameData() *GameData {
	return &GameData{
		Board:          board{},
		Features:       map[string]*Feature{},
		parent:         map[string]string{},
		TileFeatureMap: map[Position]map[string]string{},
		MeepleSupply:   map[string]int{},
		Scores:         map[string]int{},
	}
}

func (g *GameData) currentPlayer() string { return g.PlayOrder[g.TurnIndex%len(g.PlayOrder)] }

func (g *GameData) advanceTurn() { g.TurnIndex = (g.TurnIndex + 1) % len(g.PlayOrder) }

// drawNext pops the next tile from the bag into CurrentTile, or sets
// CurrentTile to "" once the bag is empty (the match-end signal).
func (g *GameData) drawNext() {
	if len(g.TileBag) == 0 {
		g.CurrentTileId = ""
		return
	}
	g.CurrentTileId = g.TileBag[0]
	g.TileBag = g.TileBag[1:]
}

// ShuffleTileBag implements mcts.TileBagShuffler, letting MCTS
// determinization reshuffle hidden draw order with a fresh per-rollout RNG.
func (g *GameData) ShuffleTileBag(rng *rand.Rand) {
	rng.Shuffle(len(g.TileBag), func(i, j int) { g.TileBag[i], g.TileBag[j] = g.TileBag[j], g.TileBag[i] })
}

// CurrentTile implements mcts.CurrentTileProvider for tile-aware AMAF.
func (g *GameData) CurrentTile() string { return g.CurrentTileId }

// Plugin implements plugin.GamePlugin for Carcassonne.
type Plugin struct{}

// New returns a Plugin.
func New() *Plugin { return &Plugin{} }

func (Plugin) Metadata() plugin.Metadata {
	return plugin.Metadata{
		GameId:           "carcassonne",
		DisplayName:      "Carcassonne",
		MinPlayers:       2,
		MaxPlayers:       5,
		Description:      "Tile-placement territory game: cities, roads, monasteries and fields",
		ConfigSchema:     map[string]any{},
		DisconnectPolicy: plugin.DisconnectForfeitPlayer,
	}
}

func (Plugin) ValidateConfig(map[string]any) []string { return nil }

func makePhase(name string, playerId string) plugin.Phase {
	return plugin.Phase{
		Name:           name,
		ConcurrentMode: plugin.ConcurrentSequential,
		ExpectedActions: []plugin.ExpectedAction{
			{PlayerId: playerId, ActionType: name},
		},
	}
}

func (Plugin) CreateInitialState(players []plugin.Player, config plugin.GameConfig) (any, plugin.Phase, []plugin.Event, error) {
	if len(players) < 2 || len(players) > 5 {
		return nil, plugin.Phase{}, nil, fmt.Errorf("carcassonne: requires 2-5 players, got %d", len(players))
	}

	g := newGameData()
	for _, p := range players {
		g.PlayOrder = append(g.PlayOrder, p.PlayerId)
		g.MeepleSupply[p.PlayerId] = startingMeeples
		g.Scores[p.PlayerId] = 0
	}

	bag := buildTileBag()
	rng := rand.New(rand.NewSource(config.RandomSeed))
	rng.Shuffle(len(bag), func(i, j int) { bag[i], bag[j] = bag[j], bag[i] })
	g.TileBag = bag

	g.Board[Position{0, 0}] = PlacedTile{TileTypeId: StartingTileId, Rotation: 0}
	placeTileFeatures(g, StartingTileId, Position{0, 0}, 0)
	g.drawNext()

	return g, makePhase(actionPlaceTile, g.currentPlayer()), nil, nil
}

func (Plugin) GetValidActions(gameData any, phase plugin.Phase, playerId plugin.PlayerId) []map[string]any {
	g := gameData.(*GameData)
	switch phase.Name {
	case actionPlaceTile:
		if g.CurrentTileId == "" {
			return nil
		}
		var out []map[string]any
		for _, pos := range openPositions(g.Board) {
			for _, rotation := range [4]int{0, 90, 180, 270} {
				if canPlaceTile(g.Board, g.CurrentTileId, pos, rotation) {
					out = append(out, map[string]any{"x": pos.X, "y": pos.Y, "rotation": rotation})
				}
			}
		}
		if len(out) == 0 {
			return []map[string]any{{"discard": true}}
		}
		return out
	case actionPlaceMeeple:
		spots := make([]string, 0, len(g.TileFeatureMap[g.PendingTilePos]))
		for spot := range g.TileFeatureMap[g.PendingTilePos] {
			spots = append(spots, spot)
		}
		sort.Strings(spots)
		out := []map[string]any{{"skip": true}}
		for _, spot := range spots {
			if canPlaceMeeple(g, playerId, g.PendingTilePos, spot) {
				out = append(out, map[string]any{"meeple_spot": spot})
			}
		}
		return out
	default:
		return nil
	}
}

func (Plugin) ValidateAction(gameData any, phase plugin.Phase, action plugin.Action) error {
	g := gameData.(*GameData)
	switch phase.Name {
	case actionPlaceTile:
		if action.ActionType != actionPlaceTile {
			return fmt.Errorf("carcassonne: unknown action_type %q", action.ActionType)
		}
		if discard, ok := action.Payload["discard"].(bool); ok && discard {
			if hasAnyValidPlacement(g.Board, g.CurrentTileId) {
				return fmt.Errorf("carcassonne: tile has a valid placement, cannot discard")
			}
			return nil
		}
		x, xok := intOf(action.Payload["x"])
		y, yok := intOf(action.Payload["y"])
		rotation, rok := intOf(action.Payload["rotation"])
		if !xok || !yok || !rok {
			return fmt.Errorf("carcassonne: place_tile requires x, y, rotation")
		}
		if rotation != 0 && rotation != 90 && rotation != 180 && rotation != 270 {
			return fmt.Errorf("carcassonne: invalid rotation %d", rotation)
		}
		if !canPlaceTile(g.Board, g.CurrentTileId, Position{x, y}, rotation) {
			return fmt.Errorf("carcassonne: invalid placement at (%d,%d) rotation %d", x, y, rotation)
		}
		return nil
	case actionPlaceMeeple:
		if action.ActionType != actionPlaceMeeple {
			return fmt.Errorf("carcassonne: unknown action_type %q", action.ActionType)
		}
		if skip, ok := action.Payload["skip"].(bool); ok && skip {
			return nil
		}
		spot, ok := action.Payload["meeple_spot"].(string)
		if !ok {
			return fmt.Errorf("carcassonne: place_meeple requires meeple_spot or skip")
		}
		if !canPlaceMeeple(g, action.PlayerId, g.PendingTilePos, spot) {
			return fmt.Errorf("carcassonne: cannot place meeple on %q", spot)
		}
		return nil
	default:
		return fmt.Errorf("carcassonne: unknown phase %q", phase.Name)
	}
}

func (Plugin) ApplyAction(gameData any, phase plugin.Phase, action plugin.Action, players []plugin.Player) (plugin.TransitionResult, error) {
	g := cloneGameData(gameData.(*GameData))

	switch phase.Name {
	case actionPlaceTile:
		if discard, ok := action.Payload["discard"].(bool); ok && discard {
			g.drawNext()
			if g.CurrentTileId == "" {
				return finishGame(g), nil
			}
			return plugin.TransitionResult{GameData: g, NextPhase: makePhase(actionPlaceTile, g.currentPlayer())}, nil
		}

		x, _ := intOf(action.Payload["x"])
		y, _ := intOf(action.Payload["y"])
		rotation, _ := intOf(action.Payload["rotation"])
		pos := Position{x, y}

		g.Board[pos] = PlacedTile{TileTypeId: g.CurrentTileId, Rotation: rotation}
		touched := placeTileFeatures(g, g.CurrentTileId, pos, rotation)
		scores := scoreNewlyCompleted(g, touched)
		g.PendingTilePos = pos

		result := plugin.TransitionResult{
			GameData:  g,
			NextPhase: makePhase(actionPlaceMeeple, action.PlayerId),
			Scores:    scores,
		}
		return result, nil

	case actionPlaceMeeple:
		if spot, ok := action.Payload["meeple_spot"].(string); ok {
			placeMeeple(g, action.PlayerId, g.PendingTilePos, spot)
		}
		g.advanceTurn()
		g.drawNext()
		if g.CurrentTileId == "" {
			return finishGame(g), nil
		}
		return plugin.TransitionResult{GameData: g, NextPhase: makePhase(actionPlaceTile, g.currentPlayer())}, nil

	default:
		return plugin.TransitionResult{}, fmt.Errorf("carcassonne: unknown phase %q", phase.Name)
	}
}

// scoreNewlyCompleted scores every complete feature among touched (the
// feature ids placeTileFeatures returns), returns its meeples to their
// owners, and reports every player's running total.
func scoreNewlyCompleted(g *GameData, touched []string) map[string]float64 {
	scores := map[string]float64{}
	for _, fid := range touched {
		feat, ok := g.Features[fid]
		if !ok || !feat.IsComplete {
			continue
		}
		awarded := scoreCompletedFeature(feat)
		for pid, pts := range awarded {
			g.Scores[pid] += pts
		}
		returnMeeples(g, feat)
	}
	for pid, total := range g.Scores {
		scores[pid] = float64(total)
	}
	return scores
}

// finishGame scores every remaining incomplete feature and declares the
// match over, winners being every player tied for the highest total.
func finishGame(g *GameData) plugin.TransitionResult {
	endTotals, _ := scoreEndGame(g)
	for pid, pts := range endTotals {
		g.Scores[pid] += pts
	}

	finalScores := make(map[string]float64, len(g.Scores))
	best := -1
	for _, pts := range g.Scores {
		if pts > best {
			best = pts
		}
	}
	var winners []string
	for pid, pts := range g.Scores {
		finalScores[pid] = float64(pts)
		if pts == best {
			winners = append(winners, pid)
		}
	}

	return plugin.TransitionResult{
		GameData:  g,
		NextPhase: plugin.Phase{Name: "finished"},
		Scores:    finalScores,
		GameOver: &plugin.GameResult{
			Winners:     winners,
			FinalScores: finalScores,
			Reason:      plugin.ReasonNormal,
		},
	}
}

func (Plugin) GetPlayerView(gameData any, phase plugin.Phase, playerId *plugin.PlayerId, players []plugin.Player) map[string]any {
	return viewOf(gameData.(*GameData))
}

func (Plugin) GetSpectatorSummary(gameData any, phase plugin.Phase, players []plugin.Player) map[string]any {
	return viewOf(gameData.(*GameData))
}

// viewOf has nothing to hide in Carcassonne (the tile bag's remaining
// contents are secret in spirit but not load-bearing for legality, so only
// its size is exposed, never its order).
func viewOf(g *GameData) map[string]any {
	tiles := make(map[string]map[string]any, len(g.Board))
	for pos, t := range g.Board {
		tiles[pos.Key()] = map[string]any{"tile_type_id": t.TileTypeId, "rotation": t.Rotation}
	}
	features := make([]map[string]any, 0, len(g.Features))
	for _, f := range g.Features {
		features = append(features, map[string]any{
			"feature_id":  f.ID,
			"type":        f.Type,
			"tiles":       len(f.Tiles),
			"meeples":     len(f.Meeples),
			"is_complete": f.IsComplete,
			"pennants":    f.Pennants,
		})
	}
	return map[string]any{
		"board":           tiles,
		"current_tile":    g.CurrentTileId,
		"tiles_remaining": len(g.TileBag),
		"meeple_supply":   g.MeepleSupply,
		"scores":          g.Scores,
		"features":        features,
		"current_player":  g.currentPlayer(),
	}
}

// OnPlayerForfeit treats a forfeiting player's pending turn as discarded
// (place_tile phase) or skipped (place_meeple phase), then removes them
// from future rotation. The engine is left to finish the match directly
// once fewer than plugin.Metadata.MinPlayers remain.
func (Plugin) OnPlayerForfeit(gameData any, phase plugin.Phase, playerId plugin.PlayerId, players []plugin.Player) (*plugin.TransitionResult, error) {
	g := cloneGameData(gameData.(*GameData))

	remaining := make([]string, 0, len(g.PlayOrder))
	removedIdx := -1
	for i, pid := range g.PlayOrder {
		if pid != playerId {
			remaining = append(remaining, pid)
		} else {
			removedIdx = i
		}
	}
	if len(remaining) == 0 {
		return nil, nil
	}
	wasCurrent := g.currentPlayer() == playerId
	turn := g.TurnIndex % len(g.PlayOrder)
	if removedIdx >= 0 && removedIdx < turn {
		turn--
	}
	g.PlayOrder = remaining
	if turn >= len(g.PlayOrder) {
		turn = 0
	}
	g.TurnIndex = turn

	if !wasCurrent {
		result := plugin.TransitionResult{GameData: g, NextPhase: phase}
		return &result, nil
	}

	// TurnIndex now names the player after the forfeiting one.
	g.drawNext()
	if g.CurrentTileId == "" {
		result := finishGame(g)
		return &result, nil
	}
	result := plugin.TransitionResult{GameData: g, NextPhase: makePhase(actionPlaceTile, g.currentPlayer())}
	return &result, nil
}

func (Plugin) ResolveConcurrentActions(gameData any, phase plugin.Phase, actions map[plugin.PlayerId]plugin.Action, players []plugin.Player) (plugin.TransitionResult, error) {
	return plugin.TransitionResult{}, fmt.Errorf("carcassonne: concurrent actions not supported")
}

func (Plugin) CloneGameData(gameData any) any {
	return cloneGameData(gameData.(*GameData))
}

// cloneGameData deep-copies everything ApplyAction or a simulator rollout
// might mutate, so the input GameData is never observably changed.
func cloneGameData(g *GameData) *GameData {
	out := newGameData()
	for pos, t := range g.Board {
		out.Board[pos] = t
	}
	out.TileBag = append([]string(nil), g.TileBag...)
	out.CurrentTileId = g.CurrentTileId
	for fid, f := range g.Features {
		cp := *f
		cp.Tiles = append([]Position(nil), f.Tiles...)
		cp.Meeples = append([]PlacedMeeple(nil), f.Meeples...)
		out.Features[fid] = &cp
	}
	for k, v := range g.parent {
		out.parent[k] = v
	}
	for pos, spots := range g.TileFeatureMap {
		m := make(map[string]string, len(spots))
		for spot, fid := range spots {
			m[spot] = fid
		}
		out.TileFeatureMap[pos] = m
	}
	for pid, n := range g.MeepleSupply {
		out.MeepleSupply[pid] = n
	}
	for pid, s := range g.Scores {
		out.Scores[pid] = s
	}
	out.PlayOrder = append([]string(nil), g.PlayOrder...)
	out.TurnIndex = g.TurnIndex
	out.PendingTilePos = g.PendingTilePos
	out.featureSeq = g.featureSeq
	return out
}

// ExtractFeatures implements plugin.FeatureExtractor for the optional
// neural leaf evaluator: a compact summary of material and tempo rather
// than a full board encoding — the field/monastery/city scoring formulas
// are reflected only in the score totals this exposes.
func (Plugin) ExtractFeatures(gameData any, phase plugin.Phase, playerId plugin.PlayerId, players []plugin.Player) []float32 {
	g := gameData.(*GameData)
	self := float32(g.Scores[playerId])
	var bestOpponent float32
	for _, p := range players {
		if p.PlayerId == playerId {
			continue
		}
		if s := float32(g.Scores[p.PlayerId]); s > bestOpponent {
			bestOpponent = s
		}
	}
	complete, total := 0, 0
	for _, f := range g.Features {
		total++
		if f.IsComplete {
			complete++
		}
	}
	var completionRate float32
	if total > 0 {
		completionRate = float32(complete) / float32(total)
	}
	return []float32{
		self,
		bestOpponent,
		self - bestOpponent,
		float32(g.MeepleSupply[playerId]),
		float32(len(g.Board)),
		float32(len(g.TileBag)),
		completionRate,
	}
}

// MarshalGameData/UnmarshalGameData implement plugin.GameDataCodec: Board
// and TileFeatureMap use Position struct keys, which encoding/json can't
// marshal directly, so the wire shape re-keys them as "x,y" strings
// (mirroring the original's Position.to_key()/from_key() convention).
func (Plugin) MarshalGameData(gameData any) ([]byte, error) {
	g := gameData.(*GameData)
	return json.Marshal(toWire(g))
}

func (Plugin) UnmarshalGameData(data []byte) (any, error) {
	var w wireGameData
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("carcassonne: unmarshal game data: %w", err)
	}
	return fromWire(&w)
}

var _ plugin.GamePlugin = (*Plugin)(nil)
var _ plugin.FeatureExtractor = (*Plugin)(nil)
var _ plugin.GameDataCodec = (*Plugin)(nil)

func intOf(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
