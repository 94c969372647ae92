package carcassonne

// board.go: tile placement validity, ported from
// original_source/backend/src/games/carcassonne/board.py.

type board map[Position]PlacedTile

// canPlaceTile reports whether tileTypeId can be placed at pos with
// rotation: pos must be empty, adjacent to at least one placed tile, and
// every edge touching a placed neighbor must match edge types.
func canPlaceTile(b board, tileTypeId string, pos Position, rotation int) bool {
	if _, occupied := b[pos]; occupied {
		return false
	}
	hasNeighbor := false
	for _, d := range directions {
		neighborPos := pos.Neighbor(d)
		neighborTile, ok := b[neighborPos]
		if !ok {
			continue
		}
		hasNeighbor = true
		neighborEdge := rotatedEdge(neighborTile.TileTypeId, neighborTile.Rotation, oppositeDirection[d])
		ourEdge := rotatedEdge(tileTypeId, rotation, d)
		if ourEdge != neighborEdge {
			return false
		}
	}
	return hasNeighbor
}

// openPositions returns every empty position adjacent to at least one
// placed tile, in a stable order (sorted by Y then X so the same board
// always enumerates identically — callers that need raw insertion order
// never exist in this plugin).
func openPositions(b board) []Position {
	seen := make(map[Position]bool)
	var out []Position
	for pos := range b {
		for _, d := range directions {
			n := pos.Neighbor(d)
			if _, occupied := b[n]; occupied {
				continue
			}
			if seen[n] {
				continue
			}
			seen[n] = true
			out = append(out, n)
		}
	}
	sortPositions(out)
	return out
}

func sortPositions(ps []Position) {
	for i := 1; i < len(ps); i++ {
		for j := i; j > 0 && less(ps[j], ps[j-1]); j-- {
			ps[j], ps[j-1] = ps[j-1], ps[j]
		}
	}
}

func less(a, b Position) bool {
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	return a.X < b.X
}

// hasAnyValidPlacement reports whether tileTypeId can be placed anywhere
// on the board at any of the four rotations.
func hasAnyValidPlacement(b board, tileTypeId string) bool {
	for _, pos := range openPositions(b) {
		for _, rotation := range [4]int{0, 90, 180, 270} {
			if canPlaceTile(b, tileTypeId, pos, rotation) {
				return true
			}
		}
	}
	return false
}
