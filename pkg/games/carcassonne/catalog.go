package carcassonne

// Tile catalog: ported from original_source/backend/src/games/carcassonne/
// tiles.py. Counts sum to exactly 72, the full base-game tile set; edges
// are the simple per-direction model tiles.py itself uses (the compound
// "E:N" edge format in types.py's rotate_compound_edge is dead code in the
// original — this catalog never produces it, so this port carries it over
// faithfully rather than simplifying anything away here).
const (
	c = EdgeCity
	r = EdgeRoad
	f = EdgeField
)

// StartingTileId is always placed at the board origin before play begins.
const StartingTileId = "D"

var tileCatalog = []TileDefinition{
	{
		ID:    "A",
		Edges: map[Direction]EdgeType{North: f, East: f, South: r, West: f},
		Features: []TileFeature{
			{Type: FeatureMonastery, IsMonastery: true, MeepleSpots: []string{"monastery"}},
			{Type: FeatureRoad, Edges: []Direction{South}, MeepleSpots: []string{"road_S"}},
			{Type: FeatureField, Edges: []Direction{North, East, West}, MeepleSpots: []string{"field_NEW"}},
		},
		Count: 2,
	},
	{
		ID:    "B",
		Edges: map[Direction]EdgeType{North: f, East: f, South: f, West: f},
		Features: []TileFeature{
			{Type: FeatureMonastery, IsMonastery: true, MeepleSpots: []string{"monastery"}},
			{Type: FeatureField, Edges: []Direction{North, East, South, West}, MeepleSpots: []string{"field_NESW"}},
		},
		Count: 4,
	},
	{
		ID:    "C",
		Edges: map[Direction]EdgeType{North: c, East: c, South: c, West: c},
		Features: []TileFeature{
			{Type: FeatureCity, HasPennant: true, Edges: []Direction{North, East, South, West}, MeepleSpots: []string{"city_NESW"}},
		},
		Count: 1,
	},
	{
		ID:    "D",
		Edges: map[Direction]EdgeType{North: c, East: r, South: f, West: r},
		Features: []TileFeature{
			{Type: FeatureCity, Edges: []Direction{North}, MeepleSpots: []string{"city_N"}},
			{Type: FeatureRoad, Edges: []Direction{East, West}, MeepleSpots: []string{"road_EW"}},
			{Type: FeatureField, MeepleSpots: []string{"field_N"}, AdjacentCities: []string{"city_N"}},
			{Type: FeatureField, Edges: []Direction{South}, MeepleSpots: []string{"field_S"}, AdjacentCities: []string{"city_N"}},
		},
		Count: 4,
	},
	{
		ID:    "E",
		Edges: map[Direction]EdgeType{North: c, East: f, South: f, West: f},
		Features: []TileFeature{
			{Type: FeatureCity, Edges: []Direction{North}, MeepleSpots: []string{"city_N"}},
			{Type: FeatureField, Edges: []Direction{East, South, West}, MeepleSpots: []string{"field_ESW"}, AdjacentCities: []string{"city_N"}},
		},
		Count: 5,
	},
	{
		ID:    "F",
		Edges: map[Direction]EdgeType{North: f, East: c, South: f, West: c},
		Features: []TileFeature{
			{Type: FeatureCity, HasPennant: true, Edges: []Direction{East, West}, MeepleSpots: []string{"city_EW"}},
			{Type: FeatureField, Edges: []Direction{North}, MeepleSpots: []string{"field_N"}, AdjacentCities: []string{"city_EW"}},
			{Type: FeatureField, Edges: []Direction{South}, MeepleSpots: []string{"field_S"}, AdjacentCities: []string{"city_EW"}},
		},
		Count: 2,
	},
	{
		ID:    "G",
		Edges: map[Direction]EdgeType{North: c, East: f, South: c, West: f},
		Features: []TileFeature{
			{Type: FeatureCity, Edges: []Direction{North, South}, MeepleSpots: []string{"city_NS"}},
			{Type: FeatureField, Edges: []Direction{East}, MeepleSpots: []string{"field_E"}, AdjacentCities: []string{"city_NS"}},
			{Type: FeatureField, Edges: []Direction{West}, MeepleSpots: []string{"field_W"}, AdjacentCities: []string{"city_NS"}},
		},
		Count: 1,
	},
	{
		ID:    "H",
		Edges: map[Direction]EdgeType{North: c, East: f, South: c, West: f},
		Features: []TileFeature{
			{Type: FeatureCity, Edges: []Direction{North}, MeepleSpots: []string{"city_N"}},
			{Type: FeatureCity, Edges: []Direction{South}, MeepleSpots: []string{"city_S"}},
			{Type: FeatureField, Edges: []Direction{East}, MeepleSpots: []string{"field_E"}, AdjacentCities: []string{"city_N", "city_S"}},
			{Type: FeatureField, Edges: []Direction{West}, MeepleSpots: []string{"field_W"}, AdjacentCities: []string{"city_N", "city_S"}},
		},
		Count: 3,
	},
	{
		ID:    "I",
		Edges: map[Direction]EdgeType{North: c, East: f, South: f, West: c},
		Features: []TileFeature{
			{Type: FeatureCity, Edges: []Direction{North}, MeepleSpots: []string{"city_N"}},
			{Type: FeatureCity, Edges: []Direction{West}, MeepleSpots: []string{"city_W"}},
			{Type: FeatureField, Edges: []Direction{East, South}, MeepleSpots: []string{"field_ES"}, AdjacentCities: []string{"city_N", "city_W"}},
		},
		Count: 2,
	},
	{
		ID:    "J",
		Edges: map[Direction]EdgeType{North: c, East: r, South: r, West: f},
		Features: []TileFeature{
			{Type: FeatureCity, Edges: []Direction{North}, MeepleSpots: []string{"city_N"}},
			{Type: FeatureRoad, Edges: []Direction{East, South}, MeepleSpots: []string{"road_ES"}},
			{Type: FeatureField, Edges: []Direction{West}, MeepleSpots: []string{"field_W"}, AdjacentCities: []string{"city_N"}},
			{Type: FeatureField, MeepleSpots: []string{"field_ES"}, AdjacentCities: []string{"city_N"}},
		},
		Count: 3,
	},
	{
		ID:    "K",
		Edges: map[Direction]EdgeType{North: c, East: f, South: r, West: r},
		Features: []TileFeature{
			{Type: FeatureCity, Edges: []Direction{North}, MeepleSpots: []string{"city_N"}},
			{Type: FeatureRoad, Edges: []Direction{South, West}, MeepleSpots: []string{"road_SW"}},
			{Type: FeatureField, Edges: []Direction{East}, MeepleSpots: []string{"field_E"}, AdjacentCities: []string{"city_N"}},
			{Type: FeatureField, MeepleSpots: []string{"field_SW"}, AdjacentCities: []string{"city_N"}},
		},
		Count: 3,
	},
	{
		ID:    "L",
		Edges: map[Direction]EdgeType{North: c, East: r, South: r, West: r},
		Features: []TileFeature{
			{Type: FeatureCity, Edges: []Direction{North}, MeepleSpots: []string{"city_N"}},
			{Type: FeatureRoad, Edges: []Direction{East}, MeepleSpots: []string{"road_E"}},
			{Type: FeatureRoad, Edges: []Direction{South}, MeepleSpots: []string{"road_S"}},
			{Type: FeatureRoad, Edges: []Direction{West}, MeepleSpots: []string{"road_W"}},
			{Type: FeatureField, MeepleSpots: []string{"field_NE"}, AdjacentCities: []string{"city_N"}},
			{Type: FeatureField, MeepleSpots: []string{"field_SE"}},
			{Type: FeatureField, MeepleSpots: []string{"field_SW"}},
			{Type: FeatureField, MeepleSpots: []string{"field_NW"}, AdjacentCities: []string{"city_N"}},
		},
		Count: 3,
	},
	{
		ID:    "M",
		Edges: map[Direction]EdgeType{North: c, East: f, South: f, West: c},
		Features: []TileFeature{
			{Type: FeatureCity, HasPennant: true, Edges: []Direction{North, West}, MeepleSpots: []string{"city_NW"}},
			{Type: FeatureField, Edges: []Direction{East, South}, MeepleSpots: []string{"field_ES"}, AdjacentCities: []string{"city_NW"}},
		},
		Count: 2,
	},
	{
		ID:    "N",
		Edges: map[Direction]EdgeType{North: c, East: f, South: f, West: c},
		Features: []TileFeature{
			{Type: FeatureCity, Edges: []Direction{North, West}, MeepleSpots: []string{"city_NW"}},
			{Type: FeatureField, Edges: []Direction{East, South}, MeepleSpots: []string{"field_ES"}, AdjacentCities: []string{"city_NW"}},
		},
		Count: 3,
	},
	{
		ID:    "O",
		Edges: map[Direction]EdgeType{North: c, East: r, South: r, West: c},
		Features: []TileFeature{
			{Type: FeatureCity, HasPennant: true, Edges: []Direction{North, West}, MeepleSpots: []string{"city_NW"}},
			{Type: FeatureRoad, Edges: []Direction{East, South}, MeepleSpots: []string{"road_ES"}},
			{Type: FeatureField, MeepleSpots: []string{"field_NE"}, AdjacentCities: []string{"city_NW"}},
			{Type: FeatureField, MeepleSpots: []string{"field_SE"}},
		},
		Count: 2,
	},
	{
		ID:    "P",
		Edges: map[Direction]EdgeType{North: c, East: r, South: r, West: c},
		Features: []TileFeature{
			{Type: FeatureCity, Edges: []Direction{North, West}, MeepleSpots: []string{"city_NW"}},
			{Type: FeatureRoad, Edges: []Direction{East, South}, MeepleSpots: []string{"road_ES"}},
			{Type: FeatureField, MeepleSpots: []string{"field_NE"}, AdjacentCities: []string{"city_NW"}},
			{Type: FeatureField, MeepleSpots: []string{"field_SE"}},
		},
		Count: 3,
	},
	{
		ID:    "Q",
		Edges: map[Direction]EdgeType{North: c, East: c, South: f, West: c},
		Features: []TileFeature{
			{Type: FeatureCity, HasPennant: true, Edges: []Direction{North, East, West}, MeepleSpots: []string{"city_NEW"}},
			{Type: FeatureField, Edges: []Direction{South}, MeepleSpots: []string{"field_S"}, AdjacentCities: []string{"city_NEW"}},
		},
		Count: 2,
	},
	{
		ID:    "R",
		Edges: map[Direction]EdgeType{North: c, East: c, South: r, West: c},
		Features: []TileFeature{
			{Type: FeatureCity, HasPennant: true, Edges: []Direction{North, East, West}, MeepleSpots: []string{"city_NEW"}},
			{Type: FeatureRoad, Edges: []Direction{South}, MeepleSpots: []string{"road_S"}},
			{Type: FeatureField, MeepleSpots: []string{"field_SW"}, AdjacentCities: []string{"city_NEW"}},
			{Type: FeatureField, MeepleSpots: []string{"field_SE"}, AdjacentCities: []string{"city_NEW"}},
		},
		Count: 2,
	},
	{
		ID:    "S",
		Edges: map[Direction]EdgeType{North: c, East: c, South: f, West: c},
		Features: []TileFeature{
			{Type: FeatureCity, Edges: []Direction{North, East, West}, MeepleSpots: []string{"city_NEW"}},
			{Type: FeatureField, Edges: []Direction{South}, MeepleSpots: []string{"field_S"}, AdjacentCities: []string{"city_NEW"}},
		},
		Count: 2,
	},
	{
		ID:    "T",
		Edges: map[Direction]EdgeType{North: c, East: c, South: r, West: c},
		Features: []TileFeature{
			{Type: FeatureCity, Edges: []Direction{North, East, West}, MeepleSpots: []string{"city_NEW"}},
			{Type: FeatureRoad, Edges: []Direction{South}, MeepleSpots: []string{"road_S"}},
			{Type: FeatureField, MeepleSpots: []string{"field_SW"}, AdjacentCities: []string{"city_NEW"}},
			{Type: FeatureField, MeepleSpots: []string{"field_SE"}, AdjacentCities: []string{"city_NEW"}},
		},
		Count: 1,
	},
	{
		ID:    "U",
		Edges: map[Direction]EdgeType{North: r, East: f, South: r, West: f},
		Features: []TileFeature{
			{Type: FeatureRoad, Edges: []Direction{North, South}, MeepleSpots: []string{"road_NS"}},
			{Type: FeatureField, Edges: []Direction{East}, MeepleSpots: []string{"field_E"}},
			{Type: FeatureField, Edges: []Direction{West}, MeepleSpots: []string{"field_W"}},
		},
		Count: 8,
	},
	{
		ID:    "V",
		Edges: map[Direction]EdgeType{North: f, East: f, South: r, West: r},
		Features: []TileFeature{
			{Type: FeatureRoad, Edges: []Direction{South, West}, MeepleSpots: []string{"road_SW"}},
			{Type: FeatureField, Edges: []Direction{North, East}, MeepleSpots: []string{"field_NE"}},
			{Type: FeatureField, MeepleSpots: []string{"field_SW"}},
		},
		Count: 9,
	},
	{
		ID:    "W",
		Edges: map[Direction]EdgeType{North: r, East: f, South: r, West: r},
		Features: []TileFeature{
			{Type: FeatureRoad, Edges: []Direction{North}, MeepleSpots: []string{"road_N"}},
			{Type: FeatureRoad, Edges: []Direction{South}, MeepleSpots: []string{"road_S"}},
			{Type: FeatureRoad, Edges: []Direction{West}, MeepleSpots: []string{"road_W"}},
			{Type: FeatureField, Edges: []Direction{East}, MeepleSpots: []string{"field_NE"}},
			{Type: FeatureField, MeepleSpots: []string{"field_SE"}},
			{Type: FeatureField, MeepleSpots: []string{"field_NW"}},
		},
		Count: 4,
	},
	{
		ID:    "X",
		Edges: map[Direction]EdgeType{North: r, East: r, South: r, West: r},
		Features: []TileFeature{
			{Type: FeatureRoad, Edges: []Direction{North}, MeepleSpots: []string{"road_N"}},
			{Type: FeatureRoad, Edges: []Direction{East}, MeepleSpots: []string{"road_E"}},
			{Type: FeatureRoad, Edges: []Direction{South}, MeepleSpots: []string{"road_S"}},
			{Type: FeatureRoad, Edges: []Direction{West}, MeepleSpots: []string{"road_W"}},
			{Type: FeatureField, MeepleSpots: []string{"field_NE"}},
			{Type: FeatureField, MeepleSpots: []string{"field_SE"}},
			{Type: FeatureField, MeepleSpots: []string{"field_SW"}},
			{Type: FeatureField, MeepleSpots: []string{"field_NW"}},
		},
		Count: 1,
	},
}

var tileLookup = func() map[string]TileDefinition {
	m := make(map[string]TileDefinition, len(tileCatalog))
	for _, t := range tileCatalog {
		m[t.ID] = t
	}
	return m
}()

// TileTotal is the number of physical tiles in the base game (spec
// scenario 2: "72 tiles, empty bag, non-negative scores").
func TileTotal() int {
	total := 0
	for _, t := range tileCatalog {
		total += t.Count
	}
	return total
}

// buildTileBag returns the draw bag (tile_type_ids), excluding the one
// copy of StartingTileId placed on the board before play begins.
func buildTileBag() []string {
	bag := make([]string, 0, TileTotal()-1)
	for _, t := range tileCatalog {
		count := t.Count
		if t.ID == StartingTileId {
			count--
		}
		for i := 0; i < count; i++ {
			bag = append(bag, t.ID)
		}
	}
	return bag
}

// rotatedFeatures returns tileTypeId's features with rotation applied to
// edges and meeple spot names.
func rotatedFeatures(tileTypeId string, rotation int) []TileFeature {
	def := tileLookup[tileTypeId]
	if rotation == 0 {
		return def.Features
	}
	out := make([]TileFeature, len(def.Features))
	for i, feat := range def.Features {
		edges := make([]Direction, len(feat.Edges))
		for j, e := range feat.Edges {
			edges[j] = rotateDirection(e, rotation)
		}
		spots := make([]string, len(feat.MeepleSpots))
		for j, s := range feat.MeepleSpots {
			spots[j] = rotateMeepleSpot(s, rotation)
		}
		adj := make([]string, len(feat.AdjacentCities))
		for j, s := range feat.AdjacentCities {
			adj[j] = rotateMeepleSpot(s, rotation)
		}
		out[i] = TileFeature{
			Type: feat.Type, HasPennant: feat.HasPennant, IsMonastery: feat.IsMonastery,
			Edges: edges, MeepleSpots: spots, AdjacentCities: adj,
		}
	}
	return out
}

// rotatedEdge returns the edge type at direction d for tileTypeId rotated
// by rotation degrees.
func rotatedEdge(tileTypeId string, rotation int, d Direction) EdgeType {
	return rotateEdges(tileLookup[tileTypeId].Edges, rotation)[d]
}
