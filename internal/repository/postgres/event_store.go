package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/orla-games/meeplecore/internal/engine"
	"github.com/orla-games/meeplecore/pkg/plugin"
)

// EventStore is the append-only, gapless per-match event log.
// Schema (see migrations, not generated here):
//
//	CREATE TABLE match_events (
//	  match_id TEXT NOT NULL,
//	  sequence_number BIGINT NOT NULL,
//	  event_type TEXT NOT NULL,
//	  player_id TEXT NOT NULL DEFAULT '',
//	  payload JSONB NOT NULL,
//	  created_at TIMESTAMPTZ NOT NULL,
//	  PRIMARY KEY (match_id, sequence_number)
//	);
type EventStore struct {
	db *sql.DB
}

// NewEventStore creates an EventStore.
func NewEventStore(db *sql.DB) *EventStore {
	return &EventStore{db: db}
}

// AppendEvents inserts events for matchId in one transaction. The
// (match_id, sequence_number) primary key makes a retried append of an
// already-written sequence number a hard conflict rather than a silent
// duplicate, which is the gaplessness guarantee the caller (GameSession)
// relies on.
func (s *EventStore) AppendEvents(ctx context.Context, matchId plugin.MatchId, events []engine.PersistedEvent) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO match_events (match_id, sequence_number, event_type, player_id, payload, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`)
	if err != nil {
		return fmt.Errorf("postgres: prepare insert event: %w", err)
	}
	defer stmt.Close()

	for _, e := range events {
		payload, err := json.Marshal(e.Payload)
		if err != nil {
			return fmt.Errorf("postgres: marshal event payload: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, matchId, e.SequenceNumber, e.EventType, e.PlayerId, payload, e.Timestamp); err != nil {
			return fmt.Errorf("postgres: insert event: %w", err)
		}
	}
	return tx.Commit()
}

// GetEvents returns events for matchId with sequence_number >= fromSequence,
// in order.
func (s *EventStore) GetEvents(ctx context.Context, matchId plugin.MatchId, fromSequence uint64) ([]engine.PersistedEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT sequence_number, event_type, player_id, payload, created_at
		 FROM match_events WHERE match_id = $1 AND sequence_number >= $2
		 ORDER BY sequence_number`, matchId, fromSequence)
	if err != nil {
		return nil, fmt.Errorf("postgres: get events: %w", err)
	}
	defer rows.Close()

	var events []engine.PersistedEvent
	for rows.Next() {
		var e engine.PersistedEvent
		var payload []byte
		if err := rows.Scan(&e.SequenceNumber, &e.EventType, &e.PlayerId, &payload, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("postgres: scan event: %w", err)
		}
		if err := json.Unmarshal(payload, &e.Payload); err != nil {
			return nil, fmt.Errorf("postgres: unmarshal event payload: %w", err)
		}
		e.MatchId = matchId
		events = append(events, e)
	}
	return events, rows.Err()
}
