// Package mcts implements the game-agnostic determinized Monte-Carlo Tree
// Search engine: determinization over hidden information, progressive
// widening, optional RAVE/AMAF, and a pluggable leaf evaluator.
// It depends only on the plugin contract and the engine package's
// SimulationState stepper — no game ever needs to know this package exists.
package mcts

import (
	"math"

	"github.com/orla-games/meeplecore/pkg/plugin"
)

// nodeIndex is an index into a Tree's node arena. The root is index 0;
// noParent (-1) is the "no node" value, used as the root's parent.
type nodeIndex int32

const noParent nodeIndex = -1

// node is a single MCTS tree node. The tree owns all nodes in a flat
// arena; parent/children are indices, never pointers, so a determinization's
// whole tree is discarded in one shot between searches and clone-for-descent
// never needs to worry about cycles.
type node struct {
	parent       nodeIndex
	children     []nodeIndex
	actionTaken  map[string]any
	actionKey    string
	actingPlayer plugin.PlayerId
	hasActor     bool

	untriedActions []map[string]any
	expanded       bool

	visitCount uint64
	totalValue float64

	// AMAF fields, populated only when RAVE is on.
	amafVisits map[string]uint64
	amafValues map[string]float64
	amafKey    string
}

// q returns the node's mean value, 0 for an unvisited node (callers only
// read q after checking visitCount via childScore's +Inf branch).
func (n *node) q() float64 {
	if n.visitCount == 0 {
		return 0
	}
	return n.totalValue / float64(n.visitCount)
}

func (n *node) amafQ(key string) (float64, bool) {
	v, ok := n.amafVisits[key]
	if !ok || v == 0 {
		return 0, false
	}
	return n.amafValues[key] / float64(v), true
}

// tree is the per-determinization node arena.
type tree struct {
	nodes []node
}

func newTree() *tree {
	t := &tree{nodes: make([]node, 0, 256)}
	t.nodes = append(t.nodes, node{parent: noParent, hasActor: false})
	return t
}

const rootIndex nodeIndex = 0

func (t *tree) get(i nodeIndex) *node { return &t.nodes[i] }

func (t *tree) addChild(parent nodeIndex, action map[string]any, actionKey string, actingPlayer plugin.PlayerId) nodeIndex {
	idx := nodeIndex(len(t.nodes))
	t.nodes = append(t.nodes, node{
		parent:       parent,
		actionTaken:  action,
		actionKey:    actionKey,
		actingPlayer: actingPlayer,
		hasActor:     true,
		amafKey:      actionKey,
	})
	t.get(parent).children = append(t.get(parent).children, idx)
	return idx
}

// maxWidth implements the progressive-widening cap:
// max(1, floor(pw_c * visits^pw_alpha)).
func maxWidth(pwC, pwAlpha float64, visits uint64) int {
	w := int(math.Floor(pwC * math.Pow(float64(visits), pwAlpha)))
	if w < 1 {
		w = 1
	}
	return w
}

// fullyWidened reports whether n has reached its progressive-widening cap
// and still has no untried actions worth expanding further this visit.
func (n *node) fullyWidened(pwC, pwAlpha float64) bool {
	if !n.expanded {
		return false
	}
	if len(n.untriedActions) > 0 && len(n.children) < maxWidth(pwC, pwAlpha, n.visitCount) {
		return false
	}
	return len(n.children) > 0
}
