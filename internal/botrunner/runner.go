// Package botrunner implements the Bot Runner: given a session whose next
// expected actor is a bot, it schedules a paced, failure-isolated move on a
// background goroutine. Grounded on the teacher's
// internal/service bot-scheduling goroutines (fire-and-forget background
// work triggered off a phase transition), adapted from Diplomacy's
// per-power bot orders to the plugin-agnostic Strategy contract.
package botrunner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/orla-games/meeplecore/internal/bot"
	"github.com/orla-games/meeplecore/internal/engine"
	"github.com/orla-games/meeplecore/internal/session"
	"github.com/orla-games/meeplecore/pkg/plugin"
)

// minDelay and maxDelay bound the human-feeling pacing jitter.
const (
	minDelay = 500 * time.Millisecond
	maxDelay = 1500 * time.Millisecond
)

// SessionSource is the narrow slice of *session.Manager the runner needs.
// A small interface rather than the concrete type so tests can supply a
// fake without standing up a full Manager.
type SessionSource interface {
	Get(matchId plugin.MatchId) (*engine.GameSession, bool)
}

// Runner implements session.BotScheduler. It owns one pending timer per
// match at a time; a newer Schedule call for the same match supersedes an
// older one (the session mutex makes stale submissions harmless regardless,
// since HandleAction re-validates, but cancelling avoids a wasted search).
type Runner struct {
	mu      sync.Mutex
	cancels map[plugin.MatchId]context.CancelFunc

	sessions SessionSource
}

var _ session.BotScheduler = (*Runner)(nil)

// New builds a Runner bound to a session source.
func New(sessions SessionSource) *Runner {
	return &Runner{cancels: make(map[plugin.MatchId]context.CancelFunc), sessions: sessions}
}

// Schedule arms a paced move for playerId in matchId, superseding any move
// already scheduled for that match.
func (r *Runner) Schedule(matchId plugin.MatchId, playerId plugin.PlayerId) {
	ctx, cancel := context.WithCancel(context.Background())

	r.mu.Lock()
	if prev, ok := r.cancels[matchId]; ok {
		prev()
	}
	r.cancels[matchId] = cancel
	r.mu.Unlock()

	delay := minDelay + time.Duration(jitterIntn(int(maxDelay-minDelay)))
	go r.run(ctx, matchId, playerId, delay)
}

// Cancel aborts any pending scheduled move for matchId (e.g. the match
// finished before the bot acted).
func (r *Runner) Cancel(matchId plugin.MatchId) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cancel, ok := r.cancels[matchId]; ok {
		cancel()
		delete(r.cancels, matchId)
	}
}

// run sleeps out the pacing delay, re-checks everything, and submits the
// bot's chosen action. A bot failure (strategy error, plugin rejection, or
// even a panic deep in a search) must never take the match down with it, so
// every exit path here is a log line, never a propagated error.
func (r *Runner) run(ctx context.Context, matchId plugin.MatchId, playerId plugin.PlayerId, delay time.Duration) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Str("match_id", matchId).Str("player_id", playerId).
				Msg("bot runner recovered from panic")
		}
	}()

	select {
	case <-ctx.Done():
		return
	case <-time.After(delay):
	}

	r.mu.Lock()
	delete(r.cancels, matchId)
	r.mu.Unlock()

	if err := r.act(ctx, matchId, playerId); err != nil {
		log.Warn().Err(err).Str("match_id", matchId).Str("player_id", playerId).Msg("bot move skipped")
	}
}

func (r *Runner) act(ctx context.Context, matchId plugin.MatchId, playerId plugin.PlayerId) error {
	gs, ok := r.sessions.Get(matchId)
	if !ok {
		return fmt.Errorf("botrunner: match %q no longer has a live session", matchId)
	}

	actor, isBot := gs.NextBotActor()
	if !isBot || actor != playerId {
		return nil // turn moved on (someone else acted, match ended, ...); nothing to do
	}

	state := gs.State()
	player, ok := findPlayer(state.Players, playerId)
	if !ok || !player.IsBot {
		return fmt.Errorf("botrunner: %q is not a registered bot in match %q", playerId, matchId)
	}

	strat, err := bot.NewStrategy(player.BotId, state.GameId, nil)
	if err != nil {
		return fmt.Errorf("build strategy: %w", err)
	}

	payload, err := strat.ChooseAction(state.GameData, state.CurrentPhase, playerId, gs.Plugin(), state.Players)
	if err != nil {
		return fmt.Errorf("choose action: %w", err)
	}

	action := plugin.Action{
		ActionType: expectedActionType(state.CurrentPhase, playerId),
		PlayerId:   playerId,
		Payload:    payload,
	}
	return gs.HandleAction(ctx, action)
}

func findPlayer(players []plugin.Player, playerId plugin.PlayerId) (plugin.Player, bool) {
	for _, p := range players {
		if p.PlayerId == playerId {
			return p, true
		}
	}
	return plugin.Player{}, false
}

// expectedActionType finds the ActionType the current phase is waiting on
// for playerId, falling back to the phase name if the plugin left it
// unscoped everywhere (rare, but not invalid per the plugin contract).
func expectedActionType(phase plugin.Phase, playerId plugin.PlayerId) string {
	for _, exp := range phase.ExpectedActions {
		if exp.PlayerId == playerId {
			return exp.ActionType
		}
	}
	for _, exp := range phase.ExpectedActions {
		if exp.PlayerId == "" {
			return exp.ActionType
		}
	}
	return phase.Name
}
