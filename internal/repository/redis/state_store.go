package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/orla-games/meeplecore/internal/engine"
	"github.com/orla-games/meeplecore/internal/repository"
	"github.com/orla-games/meeplecore/pkg/plugin"
)

// activeMatchesKey indexes every match id with live state, so
// ListActiveMatches doesn't require a Redis KEYS scan.
const activeMatchesKey = "matches:active"

func stateKey(matchId plugin.MatchId) string { return "match:" + string(matchId) + ":state" }

// StateStore is a whole-state-overwrite KV store keyed by match id.
// Serialization goes through internal/repository's plugin-aware codec since
// GameData is opaque to this package.
type StateStore struct {
	client *Client
	plugin plugin.GamePlugin
}

// NewStateStore creates a StateStore for one game's plugin instance. The
// session manager keeps one StateStore per game_id (distinct plugins can't
// share a codec).
func NewStateStore(client *Client, p plugin.GamePlugin) *StateStore {
	return &StateStore{client: client, plugin: p}
}

// SaveState overwrites the stored state for state.MatchId.
func (s *StateStore) SaveState(ctx context.Context, state *engine.GameState) error {
	data, err := repository.MarshalState(s.plugin, state)
	if err != nil {
		return fmt.Errorf("redis: marshal state: %w", err)
	}
	if err := s.client.rdb.Set(ctx, stateKey(state.MatchId), data, 0).Err(); err != nil {
		return fmt.Errorf("redis: save state: %w", err)
	}
	return s.client.rdb.SAdd(ctx, activeMatchesKey, string(state.MatchId)).Err()
}

// LoadState returns nil, nil if matchId has no stored state.
func (s *StateStore) LoadState(ctx context.Context, matchId plugin.MatchId) (*engine.GameState, error) {
	data, err := s.client.rdb.Get(ctx, stateKey(matchId)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis: load state: %w", err)
	}
	state, err := repository.UnmarshalState(s.plugin, data)
	if err != nil {
		return nil, fmt.Errorf("redis: unmarshal state: %w", err)
	}
	return state, nil
}

// DeleteState removes matchId's stored state and active-match membership.
func (s *StateStore) DeleteState(ctx context.Context, matchId plugin.MatchId) error {
	if err := s.client.rdb.Del(ctx, stateKey(matchId)).Err(); err != nil {
		return fmt.Errorf("redis: delete state: %w", err)
	}
	return s.client.rdb.SRem(ctx, activeMatchesKey, string(matchId)).Err()
}

// ListActiveMatches returns every match id with live state.
func (s *StateStore) ListActiveMatches(ctx context.Context) ([]plugin.MatchId, error) {
	ids, err := s.client.rdb.SMembers(ctx, activeMatchesKey).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: list active matches: %w", err)
	}
	out := make([]plugin.MatchId, len(ids))
	for i, id := range ids {
		out[i] = plugin.MatchId(id)
	}
	return out, nil
}
