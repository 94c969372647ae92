package carcassonne

// features.go: feature creation, merging and completion detection. Spec
// §12 licenses a "union-find-style incremental merge on tile placement"
// here in place of the original's dict-of-features-plus-tile_feature_map
// bookkeeping (original_source/backend/src/games/carcassonne/features.go
// [sic features.py]), as long as the externally observable Feature{Tiles,
// Meeples, IsComplete, Pennants} shape matches. Completeness is
// recomputed on demand from the board + rotated tile catalog rather than
// maintained incrementally via an open_edges list, which is the
// simplification that makes the union-find model viable: a feature's
// parent pointer is the only thing merging changes.
func newFeatureId(g *GameData) string {
	g.featureSeq++
	return "f" + itoa(g.featureSeq)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// find resolves id to its current root feature id, compressing the path.
func find(g *GameData, id string) string {
	root := id
	for {
		next, ok := g.parent[root]
		if !ok {
			break
		}
		root = next
	}
	for id != root {
		next := g.parent[id]
		g.parent[id] = root
		id = next
	}
	return root
}

// placeTileFeatures creates features for the tile just placed at pos and
// merges them with adjacent tiles' features across matching edges. It
// returns the root feature ids whose membership or completeness may have
// changed, for the caller to score.
func placeTileFeatures(g *GameData, tileTypeId string, pos Position, rotation int) []string {
	feats := rotatedFeatures(tileTypeId, rotation)
	g.TileFeatureMap[pos] = make(map[string]string, 4)

	edgeToFeature := make(map[Direction]string, 4)
	for _, seg := range feats {
		fid := newFeatureId(g)
		g.Features[fid] = &Feature{
			ID:       fid,
			Type:     seg.Type,
			Tiles:    []Position{pos},
			Pennants: boolToInt(seg.HasPennant),
		}
		for _, spot := range seg.MeepleSpots {
			g.TileFeatureMap[pos][spot] = fid
		}
		for _, d := range seg.Edges {
			edgeToFeature[d] = fid
		}
	}

	touched := map[string]bool{}
	for fid := range edgeToFeature {
		touched[edgeToFeature[fid]] = true
	}

	for _, d := range directions {
		neighborPos := pos.Neighbor(d)
		if _, ok := g.Board[neighborPos]; !ok {
			continue
		}
		ourId, ok := edgeToFeature[d]
		if !ok {
			continue
		}
		ourId = find(g, ourId)

		oppDir := oppositeDirection[d]
		neighborId := featureAtEdge(g, neighborPos, oppDir)
		if neighborId == "" {
			continue
		}
		neighborId = find(g, neighborId)

		if ourId == neighborId {
			continue
		}
		if g.Features[ourId].Type != g.Features[neighborId].Type {
			continue
		}
		merged := mergeFeatures(g, ourId, neighborId)
		touched[merged] = true
	}

	// Monasteries touch no edges; this tile's own and any surrounding one
	// may change completeness with this placement.
	for _, p := range append(pos.Surrounding(), pos) {
		if fid, ok := g.TileFeatureMap[p]["monastery"]; ok {
			touched[fid] = true
		}
	}

	out := make([]string, 0, len(touched))
	for fid := range touched {
		root := find(g, fid)
		recomputeComplete(g, root)
		out = append(out, root)
	}
	return out
}

// featureAtEdge finds the (possibly stale) feature id whose tile segment
// at pos touches direction d, by re-deriving that tile's rotated features
// and matching one of its meeple spots back through TileFeatureMap.
func featureAtEdge(g *GameData, pos Position, d Direction) string {
	tile, ok := g.Board[pos]
	if !ok {
		return ""
	}
	for _, seg := range rotatedFeatures(tile.TileTypeId, tile.Rotation) {
		for _, segDir := range seg.Edges {
			if segDir != d {
				continue
			}
			for _, spot := range seg.MeepleSpots {
				if fid, ok := g.TileFeatureMap[pos][spot]; ok {
					return fid
				}
			}
		}
	}
	return ""
}

// mergeFeatures absorbs b into a (or vice versa, keeping the larger tile
// set as the surviving root) and returns the surviving feature id.
func mergeFeatures(g *GameData, a, b string) string {
	fa, fb := g.Features[a], g.Features[b]
	survivor, absorbed := a, b
	if len(fb.Tiles) > len(fa.Tiles) {
		survivor, absorbed = b, a
	}
	sf, af := g.Features[survivor], g.Features[absorbed]

	sf.Tiles = append(sf.Tiles, af.Tiles...)
	sf.Meeples = append(sf.Meeples, af.Meeples...)
	sf.Pennants += af.Pennants

	g.parent[absorbed] = survivor
	delete(g.Features, absorbed)
	return survivor
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// recomputeComplete derives feature.IsComplete from the current board:
// city/road features are complete when every edge every member segment
// touches has a neighboring tile; monasteries are complete when all 8
// surrounding positions are filled; fields are never "complete" (scored
// only at game end, per spec).
func recomputeComplete(g *GameData, fid string) {
	feat, ok := g.Features[fid]
	if !ok {
		return
	}
	switch feat.Type {
	case FeatureMonastery:
		pos := feat.Tiles[0]
		for _, n := range pos.Surrounding() {
			if _, ok := g.Board[n]; !ok {
				feat.IsComplete = false
				return
			}
		}
		feat.IsComplete = true
	case FeatureField:
		feat.IsComplete = false
	default: // city, road
		for _, pos := range feat.Tiles {
			tile := g.Board[pos]
			for _, seg := range rotatedFeatures(tile.TileTypeId, tile.Rotation) {
				if !segmentBelongsTo(g, pos, seg, fid) {
					continue
				}
				for _, d := range seg.Edges {
					if _, ok := g.Board[pos.Neighbor(d)]; !ok {
						feat.IsComplete = false
						return
					}
				}
			}
		}
		feat.IsComplete = true
	}
}

func segmentBelongsTo(g *GameData, pos Position, seg TileFeature, fid string) bool {
	for _, spot := range seg.MeepleSpots {
		if owner, ok := g.TileFeatureMap[pos][spot]; ok && find(g, owner) == fid {
			return true
		}
	}
	return false
}
