package mcts

import (
	"testing"

	"pgregory.net/rapid"
)

func TestSortByPriorityOrdersPlacementBeforeMeepleBeforeSkip(t *testing.T) {
	actions := []map[string]any{
		{"skip": true},
		{"meeple_spot": "field_N"},
		{"x": 1, "y": 0, "rotation": 0},
		{"meeple_spot": "city_N"},
	}
	SortByPriority(actions)
	if !hasXYRotation(actions[0]) {
		t.Errorf("expected a placement action first, got %v", actions[0])
	}
	if actions[len(actions)-1]["skip"] != true {
		t.Errorf("expected skip to sort last, got %v", actions[len(actions)-1])
	}
}

func TestSortByPriorityOrdersPlacementsByDistanceFromOrigin(t *testing.T) {
	actions := []map[string]any{
		{"x": 3, "y": 0, "rotation": 0},
		{"x": 0, "y": 1, "rotation": 0},
		{"x": -1, "y": 0, "rotation": 0},
	}
	SortByPriority(actions)
	dist := func(a map[string]any) int {
		x, y := a["x"].(int), a["y"].(int)
		if x < 0 {
			x = -x
		}
		if y < 0 {
			y = -y
		}
		return x + y
	}
	for i := 1; i < len(actions); i++ {
		if dist(actions[i-1]) > dist(actions[i]) {
			t.Errorf("expected ascending distance from origin, got %v then %v", actions[i-1], actions[i])
		}
	}
}

func TestMeeplePrefixRankOrdersCityBeforeFieldBeforeOther(t *testing.T) {
	if meeplePrefixRank("city_N") >= meeplePrefixRank("road_EW") {
		t.Error("expected city to rank ahead of road")
	}
	if meeplePrefixRank("road_EW") >= meeplePrefixRank("field_NESW") {
		t.Error("expected road to rank ahead of field")
	}
	if meeplePrefixRank("field_NESW") >= meeplePrefixRank("") {
		t.Error("expected field to rank ahead of an unrecognized spot")
	}
}

func TestActionKeyPrefixesTileWhenTileAwareAMAFEnabled(t *testing.T) {
	payload := map[string]any{"x": 1, "y": 2, "rotation": 90}
	plain := ActionKey(payload, false, "A")
	tileAware := ActionKey(payload, true, "A")
	if plain == tileAware {
		t.Error("expected tile-aware AMAF to change the key when a current tile is set")
	}
	if ActionKey(payload, true, "") != plain {
		t.Error("expected tile-aware AMAF to fall back to the plain key when current tile is empty")
	}
}

// TestActionKeyIsOrderIndependent checks the property that motivates
// sortedKeysJSON: ActionKey must not depend on Go's randomized map
// iteration order for payloads outside the placement/meeple/skip shapes.
func TestActionKeyIsOrderIndependent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		keys := rapid.SliceOfDistinct(rapid.StringMatching(`[a-z]{1,6}`), func(s string) string { return s }).
			Filter(func(s []string) bool { return len(s) > 0 }).
			Draw(t, "keys")
		values := rapid.SliceOfN(rapid.IntRange(-1000, 1000), len(keys), len(keys)).Draw(t, "values")

		payload := make(map[string]any, len(keys))
		for i, k := range keys {
			payload[k] = values[i]
		}

		first := ActionKey(payload, false, "")
		for i := 0; i < 3; i++ {
			rebuilt := make(map[string]any, len(keys))
			for j := len(keys) - 1; j >= 0; j-- {
				rebuilt[keys[j]] = values[j]
			}
			if got := ActionKey(rebuilt, false, ""); got != first {
				t.Fatalf("ActionKey not order-independent: %q vs %q", first, got)
			}
		}
	})
}

// TestSortByPriorityNeverLosesOrGainsActions checks SortByPriority is a
// pure permutation regardless of the (arbitrary, rapid-generated) shapes
// fed to it.
func TestSortByPriorityNeverLosesOrGainsActions(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 8).Draw(t, "n")
		actions := make([]map[string]any, n)
		for i := range actions {
			switch rapid.IntRange(0, 2).Draw(t, "shape") {
			case 0:
				actions[i] = map[string]any{"skip": true}
			case 1:
				actions[i] = map[string]any{"meeple_spot": rapid.SampledFrom([]string{"city_N", "road_EW", "field_N", "monastery"}).Draw(t, "spot")}
			default:
				actions[i] = map[string]any{
					"x": rapid.IntRange(-5, 5).Draw(t, "x"), "y": rapid.IntRange(-5, 5).Draw(t, "y"), "rotation": 0,
				}
			}
		}
		sorted := SortByPriority(append([]map[string]any(nil), actions...))
		if len(sorted) != n {
			t.Fatalf("expected SortByPriority to preserve length %d, got %d", n, len(sorted))
		}
	})
}
