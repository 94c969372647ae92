package carcassonne

import (
	"testing"

	"github.com/orla-games/meeplecore/pkg/plugin"
)

func twoPlayers() []plugin.Player {
	return []plugin.Player{
		{PlayerId: "p1", DisplayName: "Alice", SeatIndex: 0},
		{PlayerId: "p2", DisplayName: "Bob", SeatIndex: 1},
	}
}

func TestCreateInitialStatePlacesStartingTile(t *testing.T) {
	p := New()
	gd, phase, events, err := p.CreateInitialState(twoPlayers(), plugin.GameConfig{RandomSeed: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if events != nil {
		t.Errorf("expected no initial events, got %v", events)
	}
	g := gd.(*GameData)
	if _, ok := g.Board[Position{0, 0}]; !ok {
		t.Fatal("expected the starting tile placed at the origin")
	}
	if g.Board[Position{0, 0}].TileTypeId != StartingTileId {
		t.Errorf("expected starting tile id %q, got %q", StartingTileId, g.Board[Position{0, 0}].TileTypeId)
	}
	if len(g.TileBag) != TileTotal()-2 { // one on the board, one drawn as current
		t.Errorf("expected %d tiles left in the bag, got %d", TileTotal()-2, len(g.TileBag))
	}
	if g.CurrentTileId == "" {
		t.Error("expected a current tile drawn for the first placement")
	}
	if phase.Name != actionPlaceTile {
		t.Errorf("expected first phase %q, got %q", actionPlaceTile, phase.Name)
	}
	for _, pl := range twoPlayers() {
		if g.MeepleSupply[pl.PlayerId] != startingMeeples {
			t.Errorf("expected %d starting meeples for %s, got %d", startingMeeples, pl.PlayerId, g.MeepleSupply[pl.PlayerId])
		}
	}
}

func TestCreateInitialStateRejectsBadPlayerCount(t *testing.T) {
	p := New()
	if _, _, _, err := p.CreateInitialState(twoPlayers()[:1], plugin.GameConfig{}); err == nil {
		t.Error("expected a single-player match to be rejected")
	}
}

func TestApplyActionPlaceTileThenMeepleAdvancesTurn(t *testing.T) {
	p := New()
	gd, phase, _, err := p.CreateInitialState(twoPlayers(), plugin.GameConfig{RandomSeed: 7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	g := gd.(*GameData)
	currentTile := g.CurrentTileId

	var placement map[string]any
	for _, a := range p.GetValidActions(gd, phase, g.currentPlayer()) {
		if _, discard := a["discard"]; discard {
			continue
		}
		placement = a
		break
	}
	if placement == nil {
		t.Fatalf("expected at least one valid placement for tile %q next to the starting tile", currentTile)
	}

	firstPlayer := g.currentPlayer()
	action := plugin.Action{ActionType: actionPlaceTile, PlayerId: firstPlayer, Payload: placement}
	if err := p.ValidateAction(gd, phase, action); err != nil {
		t.Fatalf("expected a GetValidActions result to validate, got: %v", err)
	}
	result, err := p.ApplyAction(gd, phase, action, twoPlayers())
	if err != nil {
		t.Fatalf("unexpected ApplyAction error: %v", err)
	}
	if result.NextPhase.Name != actionPlaceMeeple {
		t.Fatalf("expected transition to %q, got %q", actionPlaceMeeple, result.NextPhase.Name)
	}
	g2 := result.GameData.(*GameData)
	if g2.CurrentTileId != currentTile {
		t.Errorf("expected the placed tile to remain current until the meeple phase resolves")
	}

	meepleAction := plugin.Action{ActionType: actionPlaceMeeple, PlayerId: firstPlayer, Payload: map[string]any{"skip": true}}
	if err := p.ValidateAction(g2, result.NextPhase, meepleAction); err != nil {
		t.Fatalf("expected skip to always validate, got: %v", err)
	}
	result2, err := p.ApplyAction(g2, result.NextPhase, meepleAction, twoPlayers())
	if err != nil {
		t.Fatalf("unexpected ApplyAction error on meeple phase: %v", err)
	}
	g3 := result2.GameData.(*GameData)
	if g3.currentPlayer() == firstPlayer {
		t.Error("expected the turn to advance to the other player")
	}
	if g3.CurrentTileId == currentTile {
		t.Error("expected a fresh tile to have been drawn for the next turn")
	}

	// The original GameData passed in must not have been mutated.
	if g.CurrentTileId != currentTile {
		t.Error("ApplyAction must not mutate its gameData argument observably")
	}
}

func TestCloneGameDataIsIndependent(t *testing.T) {
	p := New()
	gd, _, _, _ := p.CreateInitialState(twoPlayers(), plugin.GameConfig{RandomSeed: 3})
	g := gd.(*GameData)

	clone := p.CloneGameData(gd).(*GameData)
	clone.Scores["p1"] = 999
	clone.Board[Position{9, 9}] = PlacedTile{TileTypeId: "B", Rotation: 0}

	if g.Scores["p1"] == 999 {
		t.Error("expected mutating the clone's scores not to affect the original")
	}
	if _, ok := g.Board[Position{9, 9}]; ok {
		t.Error("expected mutating the clone's board not to affect the original")
	}
}

func TestMarshalUnmarshalGameDataRoundTrips(t *testing.T) {
	p := New()
	gd, _, _, _ := p.CreateInitialState(twoPlayers(), plugin.GameConfig{RandomSeed: 42})
	g := gd.(*GameData)

	data, err := p.MarshalGameData(gd)
	if err != nil {
		t.Fatalf("unexpected marshal error: %v", err)
	}
	back, err := p.UnmarshalGameData(data)
	if err != nil {
		t.Fatalf("unexpected unmarshal error: %v", err)
	}
	g2 := back.(*GameData)

	if g2.CurrentTileId != g.CurrentTileId {
		t.Errorf("expected current tile to round-trip: got %q want %q", g2.CurrentTileId, g.CurrentTileId)
	}
	if len(g2.Board) != len(g.Board) {
		t.Errorf("expected board size to round-trip: got %d want %d", len(g2.Board), len(g.Board))
	}
	if g2.Board[Position{0, 0}].TileTypeId != StartingTileId {
		t.Errorf("expected the starting tile to round-trip at the origin")
	}
}

func TestOnPlayerForfeitRemovesPlayerAndAdvances(t *testing.T) {
	p := New()
	gd, phase, _, _ := p.CreateInitialState(twoPlayers(), plugin.GameConfig{RandomSeed: 11})
	g := gd.(*GameData)
	current := g.currentPlayer()

	result, err := p.OnPlayerForfeit(gd, phase, current, twoPlayers())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result == nil {
		t.Fatal("expected a transition result for a forfeit with one remaining player")
	}
	g2 := result.GameData.(*GameData)
	for _, pid := range g2.PlayOrder {
		if pid == current {
			t.Errorf("expected %s removed from play order after forfeiting", current)
		}
	}
	if len(g2.PlayOrder) != 1 {
		t.Errorf("expected exactly 1 player left in play order, got %d", len(g2.PlayOrder))
	}
}
