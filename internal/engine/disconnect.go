package engine

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/orla-games/meeplecore/pkg/plugin"
)

// HandlePlayerDisconnect records the disconnect timestamp, appends a
// lifecycle event, persists and broadcasts, then (outside the mutex, so a
// long-running timer callback never holds up the session) arms the
// grace-period timer.
func (s *GameSession) HandlePlayerDisconnect(ctx context.Context, playerId plugin.PlayerId) error {
	s.mu.Lock()
	if s.state.Status != StatusActive {
		s.mu.Unlock()
		return nil
	}
	if s.state.DisconnectedPlayers == nil {
		s.state.DisconnectedPlayers = make(map[plugin.PlayerId]int64)
	}
	s.state.DisconnectedPlayers[playerId] = s.clock.Now().Unix()

	ev := plugin.Event{
		EventType: "player_disconnected",
		PlayerId:  playerId,
		Payload:   map[string]any{"grace_period_s": int(s.GracePeriod.Seconds())},
	}
	if err := s.stores.AppendEvents(ctx, s.state.MatchId, s.sequenceEvents([]plugin.Event{ev})); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: append disconnect event: %v", ErrPersistence, err)
	}
	if err := s.stores.SaveState(ctx, s.state); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: save state on disconnect: %v", ErrPersistence, err)
	}
	s.broadcast.BroadcastEvent(s.state.MatchId, ev)
	matchId := s.state.MatchId
	grace := s.GracePeriod
	s.mu.Unlock()

	if s.timers != nil {
		s.timers.Start(matchId, playerId, grace, func() {
			s.expireGracePeriod(context.Background(), playerId)
		})
	}
	return nil
}

// HandlePlayerReconnect cancels the grace timer, clears the disconnected
// entry, appends a lifecycle event, and broadcasts.
func (s *GameSession) HandlePlayerReconnect(ctx context.Context, playerId plugin.PlayerId) error {
	s.mu.Lock()
	if s.timers != nil {
		s.timers.Cancel(s.state.MatchId, playerId)
	}
	if s.state.DisconnectedPlayers != nil {
		delete(s.state.DisconnectedPlayers, playerId)
	}
	if s.state.Status != StatusActive {
		s.mu.Unlock()
		return nil
	}
	ev := plugin.Event{EventType: "player_reconnected", PlayerId: playerId}
	if err := s.stores.AppendEvents(ctx, s.state.MatchId, s.sequenceEvents([]plugin.Event{ev})); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: append reconnect event: %v", ErrPersistence, err)
	}
	if err := s.stores.SaveState(ctx, s.state); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: save state on reconnect: %v", ErrPersistence, err)
	}
	s.broadcast.BroadcastEvent(s.state.MatchId, ev)
	s.mu.Unlock()
	return nil
}

// ExpireGracePeriod publicly triggers the same forfeit/abandon policy a
// fired grace-period timer would, for the Session Manager's Recover path
// when a grace period already elapsed while the process was down: a
// negative or zero remaining duration applies forfeit/abandon synchronously
// instead of arming a new timer.
func (s *GameSession) ExpireGracePeriod(ctx context.Context, playerId plugin.PlayerId) {
	s.expireGracePeriod(ctx, playerId)
}

// expireGracePeriod reacquires the mutex, re-checks status and that the
// player is still disconnected, then applies forfeit-or-abandon policy.
func (s *GameSession) expireGracePeriod(ctx context.Context, playerId plugin.PlayerId) {
	s.mu.Lock()

	if s.state.Status != StatusActive {
		s.mu.Unlock()
		return
	}
	if _, stillDisconnected := s.state.DisconnectedPlayers[playerId]; !stillDisconnected {
		s.mu.Unlock()
		return
	}

	active := s.activeExcluding(playerId)
	meta := s.plugin.Metadata()

	switch {
	case len(active) >= 2:
		s.applyDisconnectPolicy(ctx, playerId, meta.DisconnectPolicy)
	case len(active) == 1:
		winner := active[0].PlayerId
		s.finish(ctx, plugin.GameResult{
			Winners:     []plugin.PlayerId{winner},
			FinalScores: copyScores(s.state.Scores),
			Reason:      plugin.ReasonForfeit,
		})
	default:
		s.finish(ctx, plugin.GameResult{Reason: plugin.ReasonAbandonment, FinalScores: copyScores(s.state.Scores)})
	}

	matchId := s.state.MatchId
	finished := s.state.Status != StatusActive
	var finishResult plugin.GameResult
	var finishScores map[plugin.PlayerId]float64
	if finished {
		finishResult = s.lastResult
		finishScores = copyScores(s.state.Scores)
	}
	s.mu.Unlock()

	if finished && s.OnFinished != nil {
		s.OnFinished(matchId, finishResult, finishScores)
	}
}

// activeExcluding returns active players (not forfeited) excluding
// playerId. Must be called with s.mu held.
func (s *GameSession) activeExcluding(playerId plugin.PlayerId) []plugin.Player {
	var out []plugin.Player
	for _, p := range s.state.ActivePlayers() {
		if p.PlayerId != playerId {
			out = append(out, p)
		}
	}
	return out
}

// applyDisconnectPolicy handles a disconnect while at least two players
// remain active. Must be called with s.mu held.
func (s *GameSession) applyDisconnectPolicy(ctx context.Context, playerId plugin.PlayerId, policy plugin.DisconnectPolicy) {
	if policy == plugin.DisconnectAbandonAll {
		s.finish(ctx, plugin.GameResult{Reason: plugin.ReasonAbandonment, FinalScores: copyScores(s.state.Scores)})
		return
	}

	// forfeit_player: mark forfeited, remove from disconnected, broadcast,
	// then drive the forfeit-skip / auto-resolve loop.
	s.state.ForfeitedPlayers = append(s.state.ForfeitedPlayers, playerId)
	delete(s.state.DisconnectedPlayers, playerId)

	if err := s.stores.SaveState(ctx, s.state); err != nil {
		log.Error().Err(err).Str("match_id", s.state.MatchId).Msg("failed to persist forfeit")
	}
	s.broadcast.BroadcastEvent(s.state.MatchId, plugin.Event{EventType: "player_forfeited", PlayerId: playerId})

	if err := s.runAutoResolveAndForfeitSkip(ctx); err != nil {
		log.Error().Err(err).Str("match_id", s.state.MatchId).Msg("forfeit-skip failed after grace expiry")
	}
}

// finish sets terminal status, persists, broadcasts game_over, and cancels
// outstanding disconnect timers. Must be called with s.mu held.
func (s *GameSession) finish(ctx context.Context, result plugin.GameResult) {
	if result.Reason == plugin.ReasonAbandonment {
		s.state.Status = StatusAbandoned
	} else {
		s.state.Status = StatusFinished
	}
	if result.FinalScores == nil {
		result.FinalScores = copyScores(s.state.Scores)
	}
	s.lastResult = result

	if err := s.stores.SaveState(ctx, s.state); err != nil {
		log.Error().Err(err).Str("match_id", s.state.MatchId).Msg("failed to persist finished state")
	}
	s.broadcast.BroadcastGameOver(s.state.MatchId, result)

	if s.timers != nil {
		for pid := range s.state.DisconnectedPlayers {
			s.timers.Cancel(s.state.MatchId, pid)
		}
	}
}
