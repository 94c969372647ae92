package carcassonne

import "testing"

// Tile A: North=field, East=field, South=road, West=field.

func TestCanPlaceTileRequiresEdgeMatch(t *testing.T) {
	b := board{Position{0, 0}: PlacedTile{TileTypeId: "A", Rotation: 0}}
	// West of the seed tile: the new tile's East edge (field) borders the
	// seed's West edge (field) -- matches.
	if !canPlaceTile(b, "A", Position{-1, 0}, 0) {
		t.Error("expected A to place west of A (field meets field)")
	}
	// South of the seed tile: the new tile's North edge (field) borders the
	// seed's South edge (road) -- mismatch.
	if canPlaceTile(b, "A", Position{0, -1}, 0) {
		t.Error("expected A not to place where its north edge meets the seed's road south edge")
	}
}

func TestCanPlaceTileRejectsOccupiedAndDisconnected(t *testing.T) {
	b := board{Position{0, 0}: PlacedTile{TileTypeId: "A", Rotation: 0}}
	if canPlaceTile(b, "A", Position{0, 0}, 0) {
		t.Error("expected placement on an occupied position to be rejected")
	}
	if canPlaceTile(b, "A", Position{5, 5}, 0) {
		t.Error("expected placement with no adjacent tile to be rejected")
	}
}

func TestOpenPositionsAreSortedAndAdjacent(t *testing.T) {
	b := board{Position{0, 0}: PlacedTile{TileTypeId: "D", Rotation: 0}}
	open := openPositions(b)
	if len(open) != 4 {
		t.Fatalf("expected 4 open positions around a single tile, got %d", len(open))
	}
	for i := 1; i < len(open); i++ {
		if !less(open[i-1], open[i]) {
			t.Errorf("openPositions not sorted: %v before %v", open[i-1], open[i])
		}
	}
}

func TestHasAnyValidPlacementFalseWithNoBoard(t *testing.T) {
	if hasAnyValidPlacement(board{}, "A") {
		t.Error("expected no valid placement on an empty board")
	}
}

func TestHasAnyValidPlacementTrueWithCompatibleNeighbor(t *testing.T) {
	b := board{Position{0, 0}: PlacedTile{TileTypeId: "B", Rotation: 0}} // all-field tile
	if !hasAnyValidPlacement(b, "B") {
		t.Error("expected an all-field tile to place somewhere next to another all-field tile")
	}
}
