package session

import (
	"context"
	"testing"
	"time"

	"github.com/orla-games/meeplecore/internal/repository"
	"github.com/orla-games/meeplecore/internal/repository/memstore"
	"github.com/orla-games/meeplecore/pkg/games/tictactoe"
	"github.com/orla-games/meeplecore/pkg/plugin"
)

func newTestManager() (*Manager, *memstore.StateStore) {
	states := memstore.NewStateStore()
	return NewManager(Config{
		Plugins:     map[plugin.GameId]plugin.GamePlugin{"tictactoe": tictactoe.New()},
		StateStores: map[plugin.GameId]repository.StateStore{"tictactoe": states},
		Events:      memstore.NewEventStore(),
		Records:     memstore.NewMatchRecordStore(),
		GracePeriod: time.Minute,
	}), states
}

func twoPlayers() []plugin.Player {
	return []plugin.Player{
		{PlayerId: "p1", SeatIndex: 0},
		{PlayerId: "p2", SeatIndex: 1},
	}
}

func TestCreateRegistersALiveSessionAndPersistsState(t *testing.T) {
	m, states := newTestManager()
	matchId, err := m.Create(context.Background(), "tictactoe", twoPlayers(), plugin.GameConfig{})
	if err != nil {
		t.Fatalf("unexpected error creating match: %v", err)
	}
	if _, ok := m.Get(matchId); !ok {
		t.Fatal("expected the new match to be registered in memory")
	}
	if state, err := states.LoadState(context.Background(), matchId); err != nil || state == nil {
		t.Fatalf("expected the new match's state to be saved, got state=%v err=%v", state, err)
	}
}

func TestCreateRejectsUnknownGameId(t *testing.T) {
	m, _ := newTestManager()
	if _, err := m.Create(context.Background(), "no-such-game", twoPlayers(), plugin.GameConfig{}); err == nil {
		t.Error("expected an error creating a match for an unregistered game_id")
	}
}

func TestRecoverRestoresActiveMatchFromHotState(t *testing.T) {
	m, states := newTestManager()
	matchId, err := m.Create(context.Background(), "tictactoe", twoPlayers(), plugin.GameConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m.Remove(matchId) // drop it from memory, leaving only the hot state behind

	if _, ok := m.Get(matchId); ok {
		t.Fatal("expected the match to be gone from memory after Remove")
	}

	m2, _ := newTestManager()
	m2.stateStores["tictactoe"] = states
	if err := m2.Recover(context.Background()); err != nil {
		t.Fatalf("unexpected error recovering: %v", err)
	}
	if _, ok := m2.Get(matchId); !ok {
		t.Error("expected Recover to re-instantiate the match from hot state")
	}
}

func TestRemoveEvictsAndCancelsBotScheduling(t *testing.T) {
	sched := &countingScheduler{}
	states := memstore.NewStateStore()
	m := NewManager(Config{
		Plugins:      map[plugin.GameId]plugin.GamePlugin{"tictactoe": tictactoe.New()},
		StateStores:  map[plugin.GameId]repository.StateStore{"tictactoe": states},
		Events:       memstore.NewEventStore(),
		Records:      memstore.NewMatchRecordStore(),
		BotScheduler: sched,
	})
	matchId, err := m.Create(context.Background(), "tictactoe", twoPlayers(), plugin.GameConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m.Remove(matchId)
	if sched.cancelled != 1 {
		t.Errorf("expected Remove to cancel bot scheduling exactly once, got %d", sched.cancelled)
	}
	if _, ok := m.Get(matchId); ok {
		t.Error("expected the match to no longer be tracked after Remove")
	}
}

type countingScheduler struct {
	cancelled int
}

func (*countingScheduler) Schedule(plugin.MatchId, plugin.PlayerId) {}
func (s *countingScheduler) Cancel(plugin.MatchId)                  { s.cancelled++ }
