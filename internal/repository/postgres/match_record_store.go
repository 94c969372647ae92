package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/orla-games/meeplecore/pkg/plugin"
)

// MatchRecordStore is the durable match-record table consulted at finish
// time and by stale-match cleanup. Schema:
//
//	CREATE TABLE match_records (
//	  match_id TEXT PRIMARY KEY,
//	  game_id TEXT NOT NULL,
//	  players JSONB NOT NULL,
//	  status TEXT NOT NULL,
//	  reason TEXT NOT NULL DEFAULT '',
//	  winners JSONB,
//	  final_scores JSONB,
//	  created_at TIMESTAMPTZ NOT NULL,
//	  finished_at TIMESTAMPTZ
//	);
type MatchRecordStore struct {
	db *sql.DB
}

// NewMatchRecordStore creates a MatchRecordStore.
func NewMatchRecordStore(db *sql.DB) *MatchRecordStore {
	return &MatchRecordStore{db: db}
}

// MarkActive inserts (or reactivates) a match record at creation time.
func (s *MatchRecordStore) MarkActive(ctx context.Context, matchId plugin.MatchId, gameId plugin.GameId, players []plugin.Player) error {
	playersJSON, err := json.Marshal(players)
	if err != nil {
		return fmt.Errorf("postgres: marshal players: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO match_records (match_id, game_id, players, status, created_at)
		 VALUES ($1, $2, $3, 'active', now())
		 ON CONFLICT (match_id) DO UPDATE SET status = 'active'`,
		matchId, gameId, playersJSON)
	if err != nil {
		return fmt.Errorf("postgres: mark active: %w", err)
	}
	return nil
}

// MarkFinished records the terminal result.
func (s *MatchRecordStore) MarkFinished(ctx context.Context, matchId plugin.MatchId, result plugin.GameResult, finalScores map[plugin.PlayerId]float64) error {
	winners, err := json.Marshal(result.Winners)
	if err != nil {
		return fmt.Errorf("postgres: marshal winners: %w", err)
	}
	scores, err := json.Marshal(finalScores)
	if err != nil {
		return fmt.Errorf("postgres: marshal final scores: %w", err)
	}
	status := "finished"
	if result.Reason == plugin.ReasonAbandonment {
		status = "abandoned"
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE match_records SET status = $1, reason = $2, winners = $3, final_scores = $4, finished_at = now()
		 WHERE match_id = $5`,
		status, string(result.Reason), winners, scores, matchId)
	if err != nil {
		return fmt.Errorf("postgres: mark finished: %w", err)
	}
	return nil
}

// ListStaleActive returns matches still marked active with a created_at
// older than the given unix timestamp.
func (s *MatchRecordStore) ListStaleActive(ctx context.Context, olderThan int64) ([]plugin.MatchId, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT match_id FROM match_records WHERE status = 'active' AND created_at < $1`,
		time.Unix(olderThan, 0))
	if err != nil {
		return nil, fmt.Errorf("postgres: list stale active: %w", err)
	}
	defer rows.Close()

	var ids []plugin.MatchId
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("postgres: scan stale match id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// MarkAbandonedRecord marks a stale match record abandoned without a full
// GameResult (used by cleanup when no in-memory session survived to
// compute final scores).
func (s *MatchRecordStore) MarkAbandonedRecord(ctx context.Context, matchId plugin.MatchId) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE match_records SET status = 'abandoned', reason = $1, finished_at = now() WHERE match_id = $2`,
		string(plugin.ReasonAbandonment), matchId)
	if err != nil {
		return fmt.Errorf("postgres: mark abandoned: %w", err)
	}
	return nil
}
