package carcassonne

import "testing"

func TestTileTotalIs72(t *testing.T) {
	if got := TileTotal(); got != 72 {
		t.Fatalf("expected 72 tiles total, got %d", got)
	}
}

func TestBuildTileBagExcludesOneStartingTile(t *testing.T) {
	bag := buildTileBag()
	if len(bag) != TileTotal()-1 {
		t.Fatalf("expected bag of %d tiles, got %d", TileTotal()-1, len(bag))
	}
	count := 0
	for _, id := range bag {
		if id == StartingTileId {
			count++
		}
	}
	want := tileLookup[StartingTileId].Count - 1
	if count != want {
		t.Errorf("expected %d copies of starting tile %q left in the bag, got %d", want, StartingTileId, count)
	}
}

func TestEveryTileDefinitionHasFourEdges(t *testing.T) {
	for _, td := range tileCatalog {
		for _, d := range directions {
			if _, ok := td.Edges[d]; !ok {
				t.Errorf("tile %s missing edge for direction %v", td.ID, d)
			}
		}
	}
}

func TestMeepleSpotNamesRotateCleanly(t *testing.T) {
	for _, td := range tileCatalog {
		for _, feat := range td.Features {
			for _, spot := range feat.MeepleSpots {
				for _, rotation := range [4]int{0, 90, 180, 270} {
					rotated := rotateMeepleSpot(spot, rotation)
					if rotated == "" {
						t.Errorf("tile %s spot %q rotated %d degrees produced an empty name", td.ID, spot, rotation)
					}
				}
			}
		}
	}
}

func TestRotateDirectionIsCyclic(t *testing.T) {
	if rotateDirection(North, 90) != East {
		t.Errorf("North rotated 90 should be East")
	}
	if rotateDirection(North, 360) != North {
		t.Errorf("North rotated 360 should be North")
	}
	if rotateDirection(West, 90) != North {
		t.Errorf("West rotated 90 should be North")
	}
}

func TestRotatedEdgeMatchesRotatedEdgesMap(t *testing.T) {
	for _, td := range tileCatalog {
		for _, rotation := range [4]int{0, 90, 180, 270} {
			edges := rotateEdges(td.Edges, rotation)
			for _, d := range directions {
				if rotatedEdge(td.ID, rotation, d) != edges[d] {
					t.Errorf("tile %s rotation %d direction %v: rotatedEdge/rotateEdges disagree", td.ID, rotation, d)
				}
			}
		}
	}
}
