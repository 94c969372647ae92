package carcassonne

// scoring.go: scoring formulas, ported from
// original_source/backend/src/games/carcassonne/scoring.py.
//
//   - City:      2pt/tile + 2pt/pennant when complete, 1pt/tile + 1pt/pennant
//     at end-game if still incomplete.
//   - Road:      1pt/tile, complete or not.
//   - Monastery: 9pt when complete (tile + 8 neighbors), else 1pt per
//     present tile (self + present neighbors) at end-game.
//   - Field:     never scored mid-game; 3pt per completed adjacent city
//     at end-game.
//
// Ties for most meeples on a feature all score full points (no split).

// scoreCompletedFeature returns the per-player points awarded now that
// feat has just become complete, or nil if it carries no meeples.
func scoreCompletedFeature(feat *Feature) map[string]int {
	if len(feat.Meeples) == 0 {
		return nil
	}
	winners := topMeepleOwners(feat)

	var points int
	switch feat.Type {
	case FeatureCity:
		points = len(feat.Tiles)*2 + feat.Pennants*2
	case FeatureRoad:
		points = len(feat.Tiles)
	case FeatureMonastery:
		points = 9
	default:
		return nil // fields are not scored during the game
	}

	out := make(map[string]int, len(winners))
	for _, pid := range winners {
		out[pid] = points
	}
	return out
}

// EndGameBreakdown is the per-player, per-category point total computed
// at match end for every feature still incomplete when the tile bag ran
// dry.
type EndGameBreakdown struct {
	Fields      int
	Roads       int
	Cities      int
	Monasteries int
}

// scoreEndGame scores every incomplete feature that carries at least one
// meeple and returns total points per player plus a per-category
// breakdown.
func scoreEndGame(g *GameData) (map[string]int, map[string]*EndGameBreakdown) {
	totals := make(map[string]int)
	breakdown := make(map[string]*EndGameBreakdown)

	for _, feat := range g.Features {
		if feat.IsComplete || len(feat.Meeples) == 0 {
			continue
		}
		winners := topMeepleOwners(feat)

		var points int
		add := func(b *EndGameBreakdown) {}
		switch feat.Type {
		case FeatureCity:
			points = len(feat.Tiles) + feat.Pennants
			add = func(b *EndGameBreakdown) { b.Cities += points }
		case FeatureRoad:
			points = len(feat.Tiles)
			add = func(b *EndGameBreakdown) { b.Roads += points }
		case FeatureMonastery:
			pos := feat.Tiles[0]
			present := 0
			for _, n := range pos.Surrounding() {
				if _, ok := g.Board[n]; ok {
					present++
				}
			}
			points = 1 + present
			add = func(b *EndGameBreakdown) { b.Monasteries += points }
		case FeatureField:
			points = len(adjacentCompletedCities(g, feat)) * 3
			add = func(b *EndGameBreakdown) { b.Fields += points }
		default:
			continue
		}

		for _, pid := range winners {
			totals[pid] += points
			if breakdown[pid] == nil {
				breakdown[pid] = &EndGameBreakdown{}
			}
			add(breakdown[pid])
		}
	}
	return totals, breakdown
}

func topMeepleOwners(feat *Feature) []string {
	counts := make(map[string]int)
	for _, m := range feat.Meeples {
		counts[m.PlayerId]++
	}
	max := 0
	for _, c := range counts {
		if c > max {
			max = c
		}
	}
	var winners []string
	for pid, c := range counts {
		if c == max {
			winners = append(winners, pid)
		}
	}
	return winners
}

// adjacentCompletedCities finds every completed city feature bordering
// field's tiles, via each field segment's AdjacentCities meeple-spot
// names resolved through TileFeatureMap.
func adjacentCompletedCities(g *GameData, field *Feature) []string {
	seen := map[string]bool{}
	for _, pos := range field.Tiles {
		tile, ok := g.Board[pos]
		if !ok {
			continue
		}
		for _, seg := range rotatedFeatures(tile.TileTypeId, tile.Rotation) {
			if !segmentBelongsTo(g, pos, seg, field.ID) {
				continue
			}
			for _, citySpot := range seg.AdjacentCities {
				cityFid, ok := g.TileFeatureMap[pos][citySpot]
				if !ok {
					continue
				}
				root := find(g, cityFid)
				cityFeat, ok := g.Features[root]
				if !ok || !cityFeat.IsComplete {
					continue
				}
				seen[root] = true
			}
		}
	}
	out := make([]string, 0, len(seen))
	for fid := range seen {
		out = append(out, fid)
	}
	return out
}
