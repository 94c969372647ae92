package carcassonne

// meeples.go: meeple placement and return, ported from
// original_source/backend/src/games/carcassonne/meeples.py.

const startingMeeples = 7

// canPlaceMeeple reports whether playerId may place a meeple on spot at
// pos: the player must have a meeple left, spot must resolve to a live
// feature, and that feature must not already carry a meeple.
func canPlaceMeeple(g *GameData, playerId string, pos Position, spot string) bool {
	if g.MeepleSupply[playerId] <= 0 {
		return false
	}
	fid, ok := g.TileFeatureMap[pos][spot]
	if !ok {
		return false
	}
	feat, ok := g.Features[find(g, fid)]
	if !ok {
		return false
	}
	return len(feat.Meeples) == 0
}

// placeMeeple records playerId's meeple on spot and deducts their supply.
// Caller must have validated with canPlaceMeeple first.
func placeMeeple(g *GameData, playerId string, pos Position, spot string) {
	fid := find(g, g.TileFeatureMap[pos][spot])
	feat := g.Features[fid]
	feat.Meeples = append(feat.Meeples, PlacedMeeple{PlayerId: playerId, Position: pos, Spot: spot})
	g.MeepleSupply[playerId]--
}

// returnMeeples gives feat's meeples back to their owners' supply and
// clears the feature's meeple list, used once a feature is scored.
func returnMeeples(g *GameData, feat *Feature) {
	for _, m := range feat.Meeples {
		g.MeepleSupply[m.PlayerId]++
	}
	feat.Meeples = nil
}
