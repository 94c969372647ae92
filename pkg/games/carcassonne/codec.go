package carcassonne

import (
	"fmt"
	"strconv"
	"strings"
)

// codec.go: the GameDataCodec wire shape. Position struct keys and nested
// Position-keyed maps aren't directly JSON-marshalable, so the wire format
// re-keys Board and TileFeatureMap by Position.Key() ("x,y"), mirroring the
// original's Position.to_key()/from_key() convention.

type wireGameData struct {
	Board          map[string]PlacedTile       `json:"board"`
	TileBag        []string                    `json:"tile_bag"`
	CurrentTileId  string                      `json:"current_tile_id"`
	Features       map[string]*Feature         `json:"features"`
	Parent         map[string]string           `json:"parent"`
	TileFeatureMap map[string]map[string]string `json:"tile_feature_map"`
	MeepleSupply   map[string]int              `json:"meeple_supply"`
	Scores         map[string]int              `json:"scores"`
	PlayOrder      []string                    `json:"play_order"`
	TurnIndex      int                         `json:"turn_index"`
	PendingTilePos string                      `json:"pending_tile_pos"`
	FeatureSeq     int                         `json:"feature_seq"`
}

func parsePositionKey(key string) (Position, error) {
	parts := strings.SplitN(key, ",", 2)
	if len(parts) != 2 {
		return Position{}, fmt.Errorf("carcassonne: malformed position key %q", key)
	}
	x, err := strconv.Atoi(parts[0])
	if err != nil {
		return Position{}, fmt.Errorf("carcassonne: malformed position key %q: %w", key, err)
	}
	y, err := strconv.Atoi(parts[1])
	if err != nil {
		return Position{}, fmt.Errorf("carcassonne: malformed position key %q: %w", key, err)
	}
	return Position{X: x, Y: y}, nil
}

func toWire(g *GameData) *wireGameData {
	w := &wireGameData{
		Board:          make(map[string]PlacedTile, len(g.Board)),
		TileBag:        append([]string(nil), g.TileBag...),
		CurrentTileId:  g.CurrentTileId,
		Features:       make(map[string]*Feature, len(g.Features)),
		Parent:         make(map[string]string, len(g.parent)),
		TileFeatureMap: make(map[string]map[string]string, len(g.TileFeatureMap)),
		MeepleSupply:   make(map[string]int, len(g.MeepleSupply)),
		Scores:         make(map[string]int, len(g.Scores)),
		PlayOrder:      append([]string(nil), g.PlayOrder...),
		TurnIndex:      g.TurnIndex,
		PendingTilePos: g.PendingTilePos.Key(),
		FeatureSeq:     g.featureSeq,
	}
	for pos, t := range g.Board {
		w.Board[pos.Key()] = t
	}
	for fid, f := range g.Features {
		w.Features[fid] = f
	}
	for k, v := range g.parent {
		w.Parent[k] = v
	}
	for pos, spots := range g.TileFeatureMap {
		m := make(map[string]string, len(spots))
		for spot, fid := range spots {
			m[spot] = fid
		}
		w.TileFeatureMap[pos.Key()] = m
	}
	for pid, n := range g.MeepleSupply {
		w.MeepleSupply[pid] = n
	}
	for pid, s := range g.Scores {
		w.Scores[pid] = s
	}
	return w
}

func fromWire(w *wireGameData) (*GameData, error) {
	g := newGameData()
	for key, t := range w.Board {
		pos, err := parsePositionKey(key)
		if err != nil {
			return nil, err
		}
		g.Board[pos] = t
	}
	g.TileBag = append([]string(nil), w.TileBag...)
	g.CurrentTileId = w.CurrentTileId
	for fid, f := range w.Features {
		g.Features[fid] = f
	}
	for k, v := range w.Parent {
		g.parent[k] = v
	}
	for key, spots := range w.TileFeatureMap {
		pos, err := parsePositionKey(key)
		if err != nil {
			return nil, err
		}
		m := make(map[string]string, len(spots))
		for spot, fid := range spots {
			m[spot] = fid
		}
		g.TileFeatureMap[pos] = m
	}
	for pid, n := range w.MeepleSupply {
		g.MeepleSupply[pid] = n
	}
	for pid, s := range w.Scores {
		g.Scores[pid] = s
	}
	g.PlayOrder = append([]string(nil), w.PlayOrder...)
	g.TurnIndex = w.TurnIndex
	if w.PendingTilePos != "" {
		pos, err := parsePositionKey(w.PendingTilePos)
		if err != nil {
			return nil, err
		}
		g.PendingTilePos = pos
	}
	g.featureSeq = w.FeatureSeq
	return g, nil
}
