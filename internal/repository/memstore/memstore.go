// Package memstore provides in-memory reference implementations of the
// EventStore, StateStore and MatchRecordStore contracts, used by tests and
// the cmd/arena bot-vs-bot runner where no database is available. Grounded
// on the shape of the postgres/redis adapters in this module, generalized
// to a mutex-guarded map.
package memstore

import (
	"context"
	"sync"

	"github.com/orla-games/meeplecore/internal/engine"
	"github.com/orla-games/meeplecore/pkg/plugin"
)

// EventStore is a mutex-guarded append-only log keyed by match id.
type EventStore struct {
	mu     sync.Mutex
	events map[plugin.MatchId][]engine.PersistedEvent
}

// NewEventStore creates an empty EventStore.
func NewEventStore() *EventStore {
	return &EventStore{events: make(map[plugin.MatchId][]engine.PersistedEvent)}
}

func (s *EventStore) AppendEvents(_ context.Context, matchId plugin.MatchId, events []engine.PersistedEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[matchId] = append(s.events[matchId], events...)
	return nil
}

func (s *EventStore) GetEvents(_ context.Context, matchId plugin.MatchId, fromSequence uint64) ([]engine.PersistedEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []engine.PersistedEvent
	for _, e := range s.events[matchId] {
		if e.SequenceNumber >= fromSequence {
			out = append(out, e)
		}
	}
	return out, nil
}

// StateStore is a mutex-guarded whole-state-overwrite map keyed by match id.
// GameData is stored by reference (no serialization round-trip), which is
// fine for a test/arena double but means callers must not mutate a
// GameState after SaveState without calling it again.
type StateStore struct {
	mu     sync.Mutex
	states map[plugin.MatchId]*engine.GameState
}

// NewStateStore creates an empty StateStore.
func NewStateStore() *StateStore {
	return &StateStore{states: make(map[plugin.MatchId]*engine.GameState)}
}

func (s *StateStore) SaveState(_ context.Context, state *engine.GameState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[state.MatchId] = state
	return nil
}

func (s *StateStore) LoadState(_ context.Context, matchId plugin.MatchId) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states[matchId], nil
}

func (s *StateStore) DeleteState(_ context.Context, matchId plugin.MatchId) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, matchId)
	return nil
}

func (s *StateStore) ListActiveMatches(_ context.Context) ([]plugin.MatchId, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]plugin.MatchId, 0, len(s.states))
	for id := range s.states {
		ids = append(ids, id)
	}
	return ids, nil
}

// MatchRecordStore is a mutex-guarded map tracking match lifecycle rows.
type MatchRecordStore struct {
	mu      sync.Mutex
	records map[plugin.MatchId]*record
}

type record struct {
	gameId      plugin.GameId
	players     []plugin.Player
	status      string
	result      plugin.GameResult
	finalScores map[plugin.PlayerId]float64
	createdAt   int64
}

// NewMatchRecordStore creates an empty MatchRecordStore.
func NewMatchRecordStore() *MatchRecordStore {
	return &MatchRecordStore{records: make(map[plugin.MatchId]*record)}
}

func (s *MatchRecordStore) MarkActive(_ context.Context, matchId plugin.MatchId, gameId plugin.GameId, players []plugin.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[matchId] = &record{gameId: gameId, players: players, status: "active"}
	return nil
}

func (s *MatchRecordStore) MarkFinished(_ context.Context, matchId plugin.MatchId, result plugin.GameResult, finalScores map[plugin.PlayerId]float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[matchId]
	if !ok {
		r = &record{}
		s.records[matchId] = r
	}
	r.status = "finished"
	if result.Reason == plugin.ReasonAbandonment {
		r.status = "abandoned"
	}
	r.result = result
	r.finalScores = finalScores
	return nil
}

func (s *MatchRecordStore) ListStaleActive(_ context.Context, olderThan int64) ([]plugin.MatchId, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []plugin.MatchId
	for id, r := range s.records {
		if r.status == "active" && r.createdAt < olderThan {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *MatchRecordStore) MarkAbandonedRecord(_ context.Context, matchId plugin.MatchId) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.records[matchId]; ok {
		r.status = "abandoned"
	}
	return nil
}
