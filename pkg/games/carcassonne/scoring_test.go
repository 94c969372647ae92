package carcassonne

import "testing"

func TestScoreCompletedFeatureFormulas(t *testing.T) {
	city := &Feature{Type: FeatureCity, Tiles: []Position{{0, 0}, {1, 0}}, Pennants: 1,
		Meeples: []PlacedMeeple{{PlayerId: "p1"}}}
	if got := scoreCompletedFeature(city); got["p1"] != 6 {
		t.Errorf("expected 2-tile city with 1 pennant to score 2*2+2*1=6, got %d", got["p1"])
	}

	road := &Feature{Type: FeatureRoad, Tiles: []Position{{0, 0}, {1, 0}, {2, 0}},
		Meeples: []PlacedMeeple{{PlayerId: "p1"}}}
	if got := scoreCompletedFeature(road); got["p1"] != 3 {
		t.Errorf("expected 3-tile road to score 1pt/tile = 3, got %d", got["p1"])
	}

	monastery := &Feature{Type: FeatureMonastery, Tiles: []Position{{0, 0}},
		Meeples: []PlacedMeeple{{PlayerId: "p1"}}}
	if got := scoreCompletedFeature(monastery); got["p1"] != 9 {
		t.Errorf("expected a completed monastery to score 9, got %d", got["p1"])
	}

	field := &Feature{Type: FeatureField, Tiles: []Position{{0, 0}},
		Meeples: []PlacedMeeple{{PlayerId: "p1"}}}
	if got := scoreCompletedFeature(field); got != nil {
		t.Errorf("expected fields never to score mid-game, got %v", got)
	}
}

func TestScoreCompletedFeatureNoMeeplesScoresNothing(t *testing.T) {
	city := &Feature{Type: FeatureCity, Tiles: []Position{{0, 0}}}
	if got := scoreCompletedFeature(city); got != nil {
		t.Errorf("expected an unclaimed feature to score nothing, got %v", got)
	}
}

func TestScoreCompletedFeatureTiesAllScoreFull(t *testing.T) {
	road := &Feature{Type: FeatureRoad, Tiles: []Position{{0, 0}, {1, 0}},
		Meeples: []PlacedMeeple{{PlayerId: "p1"}, {PlayerId: "p2"}}}
	got := scoreCompletedFeature(road)
	if got["p1"] != 2 || got["p2"] != 2 {
		t.Errorf("expected both tied owners to score the full 2pts, got %v", got)
	}
}

func TestTopMeepleOwnersBreaksTiesByNotBreakingThem(t *testing.T) {
	feat := &Feature{Meeples: []PlacedMeeple{
		{PlayerId: "p1"}, {PlayerId: "p1"}, {PlayerId: "p2"}, {PlayerId: "p2"},
	}}
	winners := topMeepleOwners(feat)
	if len(winners) != 2 {
		t.Fatalf("expected a 2-2 tie to produce 2 winners, got %d: %v", len(winners), winners)
	}
}

func TestScoreEndGameIncompleteCityRoadMonastery(t *testing.T) {
	g := newGameData()
	g.Features["c1"] = &Feature{ID: "c1", Type: FeatureCity, Tiles: []Position{{0, 0}}, Pennants: 1,
		Meeples: []PlacedMeeple{{PlayerId: "p1"}}}
	g.Features["r1"] = &Feature{ID: "r1", Type: FeatureRoad, Tiles: []Position{{1, 0}, {2, 0}},
		Meeples: []PlacedMeeple{{PlayerId: "p2"}}}
	g.Features["m1"] = &Feature{ID: "m1", Type: FeatureMonastery, Tiles: []Position{{5, 5}},
		Meeples: []PlacedMeeple{{PlayerId: "p1"}}}
	g.Board[Position{5, 5}] = PlacedTile{TileTypeId: "B", Rotation: 0}
	g.Board[Position{5, 6}] = PlacedTile{TileTypeId: "B", Rotation: 0}
	g.Board[Position{6, 5}] = PlacedTile{TileTypeId: "B", Rotation: 0}

	totals, breakdown := scoreEndGame(g)

	if totals["p1"] != 2+3 { // city: 1*1+1*1=2; monastery: 1 self + 2 present =3
		t.Errorf("expected p1 total 5 (city=2, monastery=3), got %d", totals["p1"])
	}
	if totals["p2"] != 2 {
		t.Errorf("expected p2 total 2 (2-tile road at 1pt/tile), got %d", totals["p2"])
	}
	if breakdown["p1"].Cities != 2 || breakdown["p1"].Monasteries != 3 {
		t.Errorf("unexpected p1 breakdown: %+v", breakdown["p1"])
	}
	if breakdown["p2"].Roads != 2 {
		t.Errorf("unexpected p2 breakdown: %+v", breakdown["p2"])
	}
}

func TestScoreEndGameSkipsCompleteAndUnclaimedFeatures(t *testing.T) {
	g := newGameData()
	g.Features["done"] = &Feature{ID: "done", Type: FeatureCity, IsComplete: true, Tiles: []Position{{0, 0}},
		Meeples: []PlacedMeeple{{PlayerId: "p1"}}}
	g.Features["unclaimed"] = &Feature{ID: "unclaimed", Type: FeatureRoad, Tiles: []Position{{1, 0}}}

	totals, _ := scoreEndGame(g)
	if len(totals) != 0 {
		t.Errorf("expected no points awarded for a complete or unclaimed feature, got %v", totals)
	}
}

func TestAdjacentCompletedCitiesOnlyCountsCompleteCities(t *testing.T) {
	g := newGameData()
	g.Board[Position{0, 0}] = PlacedTile{TileTypeId: "E", Rotation: 0}
	placeTileFeatures(g, "E", Position{0, 0}, 0)

	fieldId := g.TileFeatureMap[Position{0, 0}]["field_ESW"]
	field := g.Features[find(g, fieldId)]

	if got := adjacentCompletedCities(g, field); len(got) != 0 {
		t.Fatalf("expected the adjacent city to not yet count as completed, got %v", got)
	}

	cityId := g.TileFeatureMap[Position{0, 0}]["city_N"]
	g.Features[find(g, cityId)].IsComplete = true

	if got := adjacentCompletedCities(g, field); len(got) != 1 {
		t.Errorf("expected the now-complete adjacent city to count once, got %v", got)
	}
}
