package carcassonne

import "testing"

// Tile D (the starting tile): North=city, East=road, South=field, West=road,
// with features city_N, road_EW, field_N, field_S.

func TestPlaceTileFeaturesMergesMatchingRoad(t *testing.T) {
	g := newGameData()
	g.Board[Position{0, 0}] = PlacedTile{TileTypeId: "D", Rotation: 0}
	placeTileFeatures(g, "D", Position{0, 0}, 0)

	// D rotated 180 swaps N<->S and E<->W, so its West edge becomes the
	// original East (road), matching the first tile's East road edge.
	g.Board[Position{1, 0}] = PlacedTile{TileTypeId: "D", Rotation: 180}
	placeTileFeatures(g, "D", Position{1, 0}, 180)

	firstRoad := g.TileFeatureMap[Position{0, 0}]["road_EW"]
	secondRoad := g.TileFeatureMap[Position{1, 0}]["road_EW"]
	if find(g, firstRoad) != find(g, secondRoad) {
		t.Fatalf("expected the two tiles' road features to merge into one root")
	}
	merged := g.Features[find(g, firstRoad)]
	if len(merged.Tiles) != 2 {
		t.Errorf("expected merged road feature to span 2 tiles, got %d", len(merged.Tiles))
	}
}

func TestPlaceTileFeaturesDoesNotMergeDifferentTypes(t *testing.T) {
	g := newGameData()
	g.Board[Position{0, 0}] = PlacedTile{TileTypeId: "D", Rotation: 0}
	placeTileFeatures(g, "D", Position{0, 0}, 0)

	// Tile A rotated 180 has its road on the north edge. Placed at (0,-1),
	// south of D, that road edge faces D's field south edge: the differing
	// types must not merge, and placing A touches no city feature.
	g.Board[Position{0, -1}] = PlacedTile{TileTypeId: "A", Rotation: 180}
	touched := placeTileFeatures(g, "A", Position{0, -1}, 180)

	for _, fid := range touched {
		if g.Features[fid].Type == FeatureCity {
			t.Errorf("A has no city segment; city feature should not appear among tiles touched by placing it")
		}
	}
}

func TestMergeFeaturesKeepsLargerAsSurvivor(t *testing.T) {
	g := newGameData()
	g.Features["small"] = &Feature{ID: "small", Type: FeatureRoad, Tiles: []Position{{0, 0}}}
	g.Features["big"] = &Feature{ID: "big", Type: FeatureRoad, Tiles: []Position{{1, 0}, {2, 0}, {3, 0}}}

	survivor := mergeFeatures(g, "small", "big")
	if survivor != "big" {
		t.Errorf("expected the larger feature %q to survive the merge, got %q", "big", survivor)
	}
	if _, exists := g.Features["small"]; exists {
		t.Error("expected the absorbed feature to be removed from Features")
	}
	if len(g.Features["big"].Tiles) != 4 {
		t.Errorf("expected survivor to hold all 4 tiles after merge, got %d", len(g.Features["big"].Tiles))
	}
}

func TestRecomputeCompleteMonastery(t *testing.T) {
	g := newGameData()
	g.Board[Position{0, 0}] = PlacedTile{TileTypeId: "A", Rotation: 0}
	placeTileFeatures(g, "A", Position{0, 0}, 0)
	monasteryId := g.TileFeatureMap[Position{0, 0}]["monastery"]

	recomputeComplete(g, monasteryId)
	if g.Features[monasteryId].IsComplete {
		t.Fatal("expected a monastery with no surrounding tiles to be incomplete")
	}

	for _, pos := range (Position{0, 0}).Surrounding() {
		g.Board[pos] = PlacedTile{TileTypeId: "B", Rotation: 0}
	}
	recomputeComplete(g, monasteryId)
	if !g.Features[monasteryId].IsComplete {
		t.Error("expected a fully surrounded monastery to be complete")
	}
}

func TestRecomputeCompleteField(t *testing.T) {
	g := newGameData()
	g.Board[Position{0, 0}] = PlacedTile{TileTypeId: "B", Rotation: 0}
	touched := placeTileFeatures(g, "B", Position{0, 0}, 0)
	for _, fid := range touched {
		if g.Features[fid].Type == FeatureField && g.Features[fid].IsComplete {
			t.Error("fields are never complete mid-game, regardless of surrounding tiles")
		}
	}
}
