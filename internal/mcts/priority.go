package mcts

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
)

// meeplePrefixRank implements the action priority heuristic's meeple_spot
// ordering: city < monastery < road < field < other.
func meeplePrefixRank(spot string) int {
	switch {
	case strings.HasPrefix(spot, "city"):
		return 0
	case strings.HasPrefix(spot, "monastery"):
		return 1
	case strings.HasPrefix(spot, "road"):
		return 2
	case strings.HasPrefix(spot, "field"):
		return 3
	default:
		return 4
	}
}

// priorityOf computes a sortable priority for an action payload, per the
// action priority heuristic:
//   - placements with integer x,y,rotation: ascending by |x|+|y|
//   - placements with a meeple_spot string: by prefix rank
//   - skip:true: lowest priority (sorts last)
//   - anything else: middle priority
//
// Lower priorityKey sorts first. Because placement and meeple priorities
// use disjoint numeric bands, a single comparable key can order the whole
// action list without knowing in advance which shape each action has.
type priorityKey struct {
	band int     // 0=placement, 1=meeple, 2=other, 3=skip
	rank float64 // tie-break within a band
}

func (k priorityKey) less(other priorityKey) bool {
	if k.band != other.band {
		return k.band < other.band
	}
	return k.rank < other.rank
}

func classify(payload map[string]any) priorityKey {
	if v, ok := payload["skip"]; ok {
		if b, ok := v.(bool); ok && b {
			return priorityKey{band: 3}
		}
	}
	if spot, ok := payload["meeple_spot"].(string); ok {
		return priorityKey{band: 1, rank: float64(meeplePrefixRank(spot))}
	}
	if hasXYRotation(payload) {
		x := toFloat(payload["x"])
		y := toFloat(payload["y"])
		return priorityKey{band: 0, rank: math.Abs(x) + math.Abs(y)}
	}
	return priorityKey{band: 2}
}

func hasXYRotation(payload map[string]any) bool {
	_, hasX := payload["x"]
	_, hasY := payload["y"]
	_, hasRot := payload["rotation"]
	return hasX && hasY && hasRot
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case float32:
		return float64(n)
	case float64:
		return n
	default:
		return 0
	}
}

// SortByPriority sorts action payloads ascending by the action priority
// heuristic. The slice is sorted in place and also returned.
func SortByPriority(actions []map[string]any) []map[string]any {
	sort.SliceStable(actions, func(i, j int) bool {
		return classify(actions[i]).less(classify(actions[j]))
	})
	return actions
}

// ActionKey computes the canonical action_key used for RAVE/AMAF
// bookkeeping:
//   - "x,y,rotation" for placement payloads
//   - "meeple:<spot>" for meeple payloads
//   - "skip" for skip
//   - otherwise, sorted-keys JSON serialisation
//
// When tileAwareAMAF is on and currentTile is non-empty, it is prefixed to
// the key so different tiles placed at the same cell are not conflated.
func ActionKey(payload map[string]any, tileAwareAMAF bool, currentTile string) string {
	key := baseActionKey(payload)
	if tileAwareAMAF && currentTile != "" {
		return currentTile + "|" + key
	}
	return key
}

func baseActionKey(payload map[string]any) string {
	if v, ok := payload["skip"]; ok {
		if b, ok := v.(bool); ok && b {
			return "skip"
		}
	}
	if spot, ok := payload["meeple_spot"].(string); ok {
		return "meeple:" + spot
	}
	if hasXYRotation(payload) {
		return fmt.Sprintf("%v,%v,%v", payload["x"], payload["y"], payload["rotation"])
	}
	return sortedKeysJSON(payload)
}

// sortedKeysJSON serialises payload with map keys in sorted order, so the
// same logical action always produces the same canonical string.
func sortedKeysJSON(payload map[string]any) string {
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		kb, _ := json.Marshal(k)
		vb, _ := json.Marshal(payload[k])
		b.Write(kb)
		b.WriteByte(':')
		b.Write(vb)
	}
	b.WriteByte('}')
	return b.String()
}

// CurrentTileProvider lets typed game data expose game_data.current_tile
// for tile-aware AMAF without going through map[string]any.
type CurrentTileProvider interface {
	CurrentTile() string
}

// currentTileOf reads game_data.current_tile as a string, returning "" if
// absent. Supports both the CurrentTileProvider interface (typed game data)
// and a plain map[string]any shape.
func currentTileOf(gameData any) string {
	if p, ok := gameData.(CurrentTileProvider); ok {
		return p.CurrentTile()
	}
	m, ok := gameData.(map[string]any)
	if !ok {
		return ""
	}
	if v, ok := m["current_tile"]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
