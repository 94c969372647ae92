// Package repository defines the narrow persistence contracts the core
// depends on: an append-only Event Store and a whole-state overwrite State
// Store. Concrete adapters live in the postgres, redis and
// memstore subpackages, grounded on the teacher's internal/repository split
// (postgres for durable rows, redis for hot live state).
package repository

import (
	"context"

	"github.com/orla-games/meeplecore/internal/engine"
	"github.com/orla-games/meeplecore/pkg/plugin"
)

// EventStore is the append-only per-match event log. Implementations must
// preserve sequence-number order and must not leave gaps.
type EventStore interface {
	AppendEvents(ctx context.Context, matchId plugin.MatchId, events []engine.PersistedEvent) error
	GetEvents(ctx context.Context, matchId plugin.MatchId, fromSequence uint64) ([]engine.PersistedEvent, error)
}

// StateStore is the hot-state key/value store, keyed by match id.
type StateStore interface {
	SaveState(ctx context.Context, state *engine.GameState) error
	LoadState(ctx context.Context, matchId plugin.MatchId) (*engine.GameState, error)
	DeleteState(ctx context.Context, matchId plugin.MatchId) error
	ListActiveMatches(ctx context.Context) ([]plugin.MatchId, error)
}

// MatchRecordStore is the durable match-record store consulted at finish
// time and by stale-match cleanup. It is distinct from StateStore:
// StateStore holds the live, recoverable hot state; MatchRecordStore holds
// the long-lived row (end time, per-player result, score) a lobby/transport
// layer would query.
type MatchRecordStore interface {
	MarkActive(ctx context.Context, matchId plugin.MatchId, gameId plugin.GameId, players []plugin.Player) error
	MarkFinished(ctx context.Context, matchId plugin.MatchId, result plugin.GameResult, finalScores map[plugin.PlayerId]float64) error
	ListStaleActive(ctx context.Context, olderThan int64) ([]plugin.MatchId, error)
	MarkAbandonedRecord(ctx context.Context, matchId plugin.MatchId) error
}
