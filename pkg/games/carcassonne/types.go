// Package carcassonne implements a plugin.GamePlugin for the Carcassonne
// base game: 72-tile catalog, edge-matching placement, meeple placement and
// return, and city/road/monastery/field scoring. Unlike pkg/games/tictactoe
// this plugin carries typed (non-map) GameData so it exercises the optional
// plugin.GameDataCodec, plugin.FeatureExtractor, mcts.TileBagShuffler and
// mcts.CurrentTileProvider capabilities (original_source/backend/src/games/
// carcassonne exists as a complete reference implementation; this package
// ports its tile catalog and scoring formulas but tracks feature
// connectivity with a union-find merge rather than the original's
// dict-of-features-plus-tile_feature_map bookkeeping).
package carcassonne

import "fmt"

// Direction is one of the four tile edges.
type Direction string

const (
	North Direction = "N"
	East  Direction = "E"
	South Direction = "S"
	West  Direction = "W"
)

// directions lists the four edges in a fixed, rotation-stable order.
var directions = [4]Direction{North, East, South, West}

var oppositeDirection = map[Direction]Direction{
	North: South, East: West, South: North, West: East,
}

// EdgeType is what a tile edge connects to.
type EdgeType string

const (
	EdgeCity  EdgeType = "city"
	EdgeRoad  EdgeType = "road"
	EdgeField EdgeType = "field"
)

// FeatureType is the kind of a scorable feature.
type FeatureType string

const (
	FeatureCity       FeatureType = "city"
	FeatureRoad       FeatureType = "road"
	FeatureField      FeatureType = "field"
	FeatureMonastery  FeatureType = "monastery"
)

// TileFeature is one scorable segment of a tile's static definition:
// the edges it touches, whether it carries a pennant, its named meeple
// spots, and (for field segments) the city meeple spots on the same tile
// it borders, used by end-game field scoring.
type TileFeature struct {
	Type           FeatureType
	Edges          []Direction
	HasPennant     bool
	IsMonastery    bool
	MeepleSpots    []string
	AdjacentCities []string
}

// TileDefinition is the static catalog entry for one tile type.
type TileDefinition struct {
	ID       string
	Edges    map[Direction]EdgeType
	Features []TileFeature
	Count    int
}

// Position is a board coordinate. The zero value is the board origin,
// where the starting tile is always placed.
type Position struct {
	X, Y int
}

// Key renders Position as the "x,y" string used by GameDataCodec's wire
// shape, mirroring the original's Position.to_key().
func (p Position) Key() string { return fmt.Sprintf("%d,%d", p.X, p.Y) }

// Neighbor returns the adjacent position across the given edge.
func (p Position) Neighbor(d Direction) Position {
	switch d {
	case North:
		return Position{p.X, p.Y + 1}
	case East:
		return Position{p.X + 1, p.Y}
	case South:
		return Position{p.X, p.Y - 1}
	case West:
		return Position{p.X - 1, p.Y}
	}
	panic("carcassonne: invalid direction " + string(d))
}

// Surrounding returns all 8 positions surrounding p, used for monastery
// completion/scoring.
func (p Position) Surrounding() []Position {
	out := make([]Position, 0, 8)
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			if dx == 0 && dy == 0 {
				continue
			}
			out = append(out, Position{p.X + dx, p.Y + dy})
		}
	}
	return out
}

// PlacedMeeple records one player's meeple on a feature.
type PlacedMeeple struct {
	PlayerId string
	Position Position
	Spot     string
}

// Feature is a tracked group of connected tile segments. This is the
// externally observable shape every state view and FeatureExtractor reads;
// internal connectivity bookkeeping (segments, union-find parent pointers)
// lives in features.go and is not part of this struct.
type Feature struct {
	ID         string
	Type       FeatureType
	Tiles      []Position
	Meeples    []PlacedMeeple
	IsComplete bool
	Pennants   int
}

// PlacedTile is one tile on the board.
type PlacedTile struct {
	TileTypeId string
	Rotation   int // 0, 90, 180 or 270
}

// rotateDirection rotates a single edge direction clockwise by rotation
// degrees (ported from types.py rotate_direction).
func rotateDirection(d Direction, rotation int) Direction {
	steps := (rotation / 90) % 4
	idx := 0
	for i, dd := range directions {
		if dd == d {
			idx = i
			break
		}
	}
	return directions[(idx+steps)%4]
}

// rotateEdges rotates a tile's static edge map clockwise by rotation
// degrees (ported from types.py rotate_edges).
func rotateEdges(edges map[Direction]EdgeType, rotation int) map[Direction]EdgeType {
	steps := (rotation / 90) % 4
	rotated := make(map[Direction]EdgeType, 4)
	for i, d := range directions {
		source := directions[(i-steps+4)%4]
		rotated[d] = edges[source]
	}
	return rotated
}

var meepleDirOrder = map[byte]int{'N': 0, 'E': 1, 'S': 2, 'W': 3}

// rotateMeepleSpot rotates a meeple spot name ("city_N", "road_EW") by
// rotating the direction letters embedded in it and re-sorting them to
// canonical N<E<S<W order, ported from types.py rotate_meeple_spot. Spots
// with no direction component ("monastery") are returned unchanged.
func rotateMeepleSpot(spot string, rotation int) string {
	if rotation == 0 {
		return spot
	}
	us := -1
	for i := 0; i < len(spot); i++ {
		if spot[i] == '_' {
			us = i
			break
		}
	}
	if us < 0 {
		return spot
	}
	prefix := spot[:us]
	rest := spot[us+1:]
	// The direction component is the run of N/E/S/W letters right after the
	// prefix; a further "_suffix" (unused by this catalog, kept for parity
	// with the original's general-purpose rotator) is preserved verbatim.
	end := 0
	for end < len(rest) && isDirLetter(rest[end]) {
		end++
	}
	dirPart, suffix := rest[:end], rest[end:]

	rotatedDirs := make([]byte, len(dirPart))
	for i := 0; i < len(dirPart); i++ {
		rotatedDirs[i] = rotateDirection(Direction(string(dirPart[i])), rotation)[0]
	}
	sortBytesByDirOrder(rotatedDirs)

	result := prefix + "_" + string(rotatedDirs)
	if suffix != "" {
		result += suffix
	}
	return result
}

func isDirLetter(b byte) bool {
	return b == 'N' || b == 'E' || b == 'S' || b == 'W'
}

func sortBytesByDirOrder(b []byte) {
	for i := 1; i < len(b); i++ {
		for j := i; j > 0 && meepleDirOrder[b[j-1]] > meepleDirOrder[b[j]]; j-- {
			b[j-1], b[j] = b[j], b[j-1]
		}
	}
}
