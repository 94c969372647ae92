package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/orla-games/meeplecore/pkg/plugin"
)

// Clock is injected so tests can control "now". Production code uses
// RealClock.
type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// Stores is the narrow persistence surface GameSession needs. Defined here
// (rather than importing internal/repository) to avoid a dependency from
// the engine onto the repository package's concrete backends; repository
// package's interfaces are structurally identical and satisfy this one.
type Stores interface {
	AppendEvents(ctx context.Context, matchId plugin.MatchId, events []PersistedEvent) error
	SaveState(ctx context.Context, state *GameState) error
}

// Timers schedules and cancels the per-player disconnect grace period. The
// Session Manager supplies an implementation backed by time.AfterFunc
// (internal/session); tests can supply a manual/fake clock-driven one.
type Timers interface {
	Start(matchId plugin.MatchId, playerId plugin.PlayerId, delay time.Duration, onExpire func())
	Cancel(matchId plugin.MatchId, playerId plugin.PlayerId)
}

// GameSession is one live match orchestrator. Holds GameState, the plugin,
// a local mutex, the next sequence number, and handles to the adapters —
// grounded on the teacher's PhaseService, generalized to the plugin
// contract instead of Diplomacy's fixed phase set.
type GameSession struct {
	mu sync.Mutex

	state     *GameState
	plugin    plugin.GamePlugin
	stores    Stores
	broadcast Broadcaster
	timers    Timers
	clock     Clock

	nextSequence uint64
	// lastResult caches the terminal outcome so HandleAction can hand it to
	// OnFinished after releasing the mutex.
	lastResult plugin.GameResult

	GracePeriod time.Duration

	// OnBotTurn is invoked (outside the mutex) whenever the next expected
	// actor is a bot, so the Bot Runner can schedule a move. Nil is a valid
	// no-op.
	OnBotTurn func(matchId plugin.MatchId, playerId plugin.PlayerId)

	// OnFinished is invoked once, outside the mutex, when the match ends,
	// so the Session Manager can sync the match record store and evict the
	// session.
	OnFinished func(matchId plugin.MatchId, result plugin.GameResult, finalScores map[plugin.PlayerId]float64)
}

// NewGameSession constructs a session around an already-initialised state.
// nextSequence should be len(persisted events) so far (0 for a brand-new
// match, or recovered via EventStore on restart).
func NewGameSession(state *GameState, p plugin.GamePlugin, stores Stores, broadcast Broadcaster, timers Timers, clock Clock, nextSequence uint64, gracePeriod time.Duration) *GameSession {
	if broadcast == nil {
		broadcast = NoopBroadcaster{}
	}
	if clock == nil {
		clock = RealClock{}
	}
	return &GameSession{
		state:        state,
		plugin:       p,
		stores:       stores,
		broadcast:    broadcast,
		timers:       timers,
		clock:        clock,
		nextSequence: nextSequence,
		GracePeriod:  gracePeriod,
	}
}

// State returns a snapshot pointer; callers must not mutate it outside the
// session's own methods. Used for read-only inspection (e.g. recovery,
// cleanup).
func (s *GameSession) State() *GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Prime persists the events CreateInitialState returned, saves state, and
// drives auto-resolve/forfeit-skip on the first phase so the first state
// the UI ever sees is already past any auto-resolving setup phase (spec
// §4.7 Create). Returns the first interactive actor if it is a bot.
func (s *GameSession) Prime(ctx context.Context, initialEvents []plugin.Event) (plugin.PlayerId, bool, error) {
	s.mu.Lock()
	persisted := s.sequenceEvents(initialEvents)
	if len(persisted) > 0 {
		if err := s.stores.AppendEvents(ctx, s.state.MatchId, persisted); err != nil {
			s.mu.Unlock()
			return "", false, fmt.Errorf("%w: append initial events: %v", ErrPersistence, err)
		}
	}
	if err := s.stores.SaveState(ctx, s.state); err != nil {
		s.mu.Unlock()
		return "", false, fmt.Errorf("%w: save initial state: %v", ErrPersistence, err)
	}
	if err := s.runAutoResolveAndForfeitSkip(ctx); err != nil {
		s.mu.Unlock()
		return "", false, err
	}
	actor, isBot := s.nextBotActor()
	s.mu.Unlock()
	return actor, isBot, nil
}

// HandleAction is the engine's single validation routine: every caller,
// human or bot, submits actions through this one gate.
func (s *GameSession) HandleAction(ctx context.Context, action plugin.Action) error {
	s.mu.Lock()

	if err := s.validateEnvelope(action); err != nil {
		s.mu.Unlock()
		s.broadcast.SendError(s.state.MatchId, action.PlayerId, classify(err), err.Error())
		return err
	}

	if err := s.plugin.ValidateAction(s.state.GameData, s.state.CurrentPhase, action); err != nil {
		s.mu.Unlock()
		wrapped := fmt.Errorf("%w: %v", ErrInvalidAction, err)
		s.broadcast.SendError(s.state.MatchId, action.PlayerId, "InvalidAction", wrapped.Error())
		return wrapped
	}

	result, err := s.plugin.ApplyAction(s.state.GameData, s.state.CurrentPhase, action, s.state.Players)
	if err != nil {
		s.mu.Unlock()
		log.Error().Err(err).Str("match_id", s.state.MatchId).Str("action_type", action.ActionType).
			Msg("plugin.ApplyAction failed unexpectedly")
		wrapped := fmt.Errorf("%w: %v", ErrPluginError, err)
		s.broadcast.SendError(s.state.MatchId, action.PlayerId, "PluginError", wrapped.Error())
		return wrapped
	}

	if err := s.applyResult(ctx, result); err != nil {
		s.mu.Unlock()
		s.broadcast.SendError(s.state.MatchId, action.PlayerId, "PersistenceError", err.Error())
		return err
	}

	if err := s.runAutoResolveAndForfeitSkip(ctx); err != nil {
		s.mu.Unlock()
		return err
	}

	nextActor, isBot := s.nextBotActor()
	finished := s.state.Status != StatusActive
	var finishResult plugin.GameResult
	var finishScores map[plugin.PlayerId]float64
	if finished {
		finishResult = s.lastResult
		finishScores = copyScores(s.state.Scores)
	}
	s.mu.Unlock()

	if isBot && s.OnBotTurn != nil {
		s.OnBotTurn(s.matchIdSnapshot(), nextActor)
	}
	if finished && s.OnFinished != nil {
		s.OnFinished(s.matchIdSnapshot(), finishResult, finishScores)
	}
	return nil
}

// validateEnvelope checks match status, forfeit status, and (for sequential
// phases) turn order, ahead of any plugin-specific validation.
func (s *GameSession) validateEnvelope(action plugin.Action) error {
	if s.state.Status != StatusActive {
		return ErrGameNotActive
	}
	if s.state.IsForfeited(action.PlayerId) {
		return ErrPlayerForfeited
	}
	if s.state.CurrentPhase.AutoResolve {
		return fmt.Errorf("%w: phase %q auto-resolves, no player action accepted", ErrGameNotActive, s.state.CurrentPhase.Name)
	}
	if s.state.CurrentPhase.ConcurrentMode != plugin.ConcurrentSequential {
		// §9 Open Questions: commit_reveal/time_window have no concrete
		// users here; reject early rather than silently mishandling them.
		return ErrUnsupportedConcurrentMode
	}
	for _, exp := range s.state.CurrentPhase.ExpectedActions {
		if exp.PlayerId != "" && exp.PlayerId == action.PlayerId {
			return nil
		}
	}
	if len(s.state.CurrentPhase.ExpectedActions) > 0 {
		// Some expected actions are named but none match this player.
		anyUnscoped := false
		for _, exp := range s.state.CurrentPhase.ExpectedActions {
			if exp.PlayerId == "" {
				anyUnscoped = true
			}
		}
		if !anyUnscoped {
			return ErrNotYourTurn
		}
	}
	return nil
}

func classify(err error) string {
	switch {
	case err == ErrGameNotActive:
		return "GameNotActive"
	case err == ErrPlayerForfeited:
		return "PlayerForfeited"
	case err == ErrNotYourTurn:
		return "NotYourTurn"
	case err == ErrUnsupportedConcurrentMode:
		return "InvalidAction"
	default:
		return "InvalidAction"
	}
}

// applyResult mutates GameState, appends events with the next sequence
// numbers, persists, broadcasts, and finishes the match if GameOver is set.
// Must be called with s.mu held.
func (s *GameSession) applyResult(ctx context.Context, result plugin.TransitionResult) error {
	s.state.GameData = result.GameData
	s.state.CurrentPhase = result.NextPhase
	s.state.ApplyScores(result.Scores)
	s.state.ActionNumber++

	persisted := s.sequenceEvents(result.Events)
	if len(persisted) > 0 {
		if err := s.stores.AppendEvents(ctx, s.state.MatchId, persisted); err != nil {
			return fmt.Errorf("%w: append events: %v", ErrPersistence, err)
		}
	}
	if err := s.stores.SaveState(ctx, s.state); err != nil {
		return fmt.Errorf("%w: save state: %v", ErrPersistence, err)
	}

	views, spectator := buildViews(s.plugin, s.state)
	s.broadcast.BroadcastState(s.state.MatchId, views, spectator)

	if result.GameOver != nil {
		s.finish(ctx, *result.GameOver)
	}
	return nil
}

// sequenceEvents assigns the next contiguous sequence numbers and advances
// s.nextSequence. Must be called with s.mu held.
func (s *GameSession) sequenceEvents(events []plugin.Event) []PersistedEvent {
	if len(events) == 0 {
		return nil
	}
	out := make([]PersistedEvent, len(events))
	now := s.clock.Now()
	for i, e := range events {
		out[i] = PersistedEvent{
			Event:          e,
			MatchId:        s.state.MatchId,
			SequenceNumber: s.nextSequence,
			Timestamp:      now,
		}
		s.nextSequence++
	}
	return out
}

// runAutoResolveAndForfeitSkip drives auto-resolve to fixpoint, and
// whenever the expected player is forfeited, calls plugin.OnPlayerForfeit
// to skip their turn. Must be called with s.mu held.
func (s *GameSession) runAutoResolveAndForfeitSkip(ctx context.Context) error {
	for i := 0; i < autoResolveGuard; i++ {
		if s.state.Status != StatusActive {
			return nil
		}
		if s.state.CurrentPhase.AutoResolve {
			actor := autoResolveActor(s.state.CurrentPhase, s.state.Players)
			synthetic := plugin.Action{ActionType: s.state.CurrentPhase.Name, PlayerId: actor, Payload: map[string]any{}}
			result, err := s.plugin.ApplyAction(s.state.GameData, s.state.CurrentPhase, synthetic, s.state.Players)
			if err != nil {
				log.Error().Err(err).Str("match_id", s.state.MatchId).Str("phase", s.state.CurrentPhase.Name).
					Msg("auto-resolve ApplyAction failed")
				return fmt.Errorf("%w: auto-resolve: %v", ErrPluginError, err)
			}
			if err := s.applyResult(ctx, result); err != nil {
				return err
			}
			continue
		}

		expected, forfeited := s.expectedForfeitedPlayer()
		if !forfeited {
			return nil
		}
		trans, err := s.plugin.OnPlayerForfeit(s.state.GameData, s.state.CurrentPhase, expected, s.state.Players)
		if err != nil {
			return fmt.Errorf("%w: on_player_forfeit: %v", ErrPluginError, err)
		}
		if trans == nil {
			log.Warn().Str("match_id", s.state.MatchId).Str("player_id", expected).
				Msg("plugin returned nil from on_player_forfeit; breaking to avoid livelock")
			return nil
		}
		if err := s.applyResult(ctx, *trans); err != nil {
			return err
		}
	}
	log.Warn().Str("match_id", s.state.MatchId).Msg("auto-resolve/forfeit-skip guard hit")
	return nil
}

// expectedForfeitedPlayer reports the expected actor for the current
// sequential phase if that actor has been forfeited.
func (s *GameSession) expectedForfeitedPlayer() (plugin.PlayerId, bool) {
	if s.state.CurrentPhase.ConcurrentMode != plugin.ConcurrentSequential {
		return "", false
	}
	for _, exp := range s.state.CurrentPhase.ExpectedActions {
		if exp.PlayerId != "" && s.state.IsForfeited(exp.PlayerId) {
			return exp.PlayerId, true
		}
	}
	return "", false
}

// nextBotActor reports the expected actor of the current phase if that
// actor is a bot. Must be called with s.mu held.
func (s *GameSession) nextBotActor() (plugin.PlayerId, bool) {
	if s.state.Status != StatusActive || s.state.CurrentPhase.AutoResolve {
		return "", false
	}
	for _, exp := range s.state.CurrentPhase.ExpectedActions {
		if exp.PlayerId == "" {
			continue
		}
		for _, p := range s.state.Players {
			if p.PlayerId == exp.PlayerId && p.IsBot && !s.state.IsForfeited(p.PlayerId) {
				return p.PlayerId, true
			}
		}
	}
	return "", false
}

// NextBotActor reports the expected actor of the current phase if it is a
// bot, without mutating anything. Used by the Bot Runner to re-check the
// turn is still live before acting.
func (s *GameSession) NextBotActor() (plugin.PlayerId, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextBotActor()
}

// Plugin returns the game plugin this session was constructed with. The
// plugin reference is immutable for the session's lifetime, so this is
// safe to call without the mutex.
func (s *GameSession) Plugin() plugin.GamePlugin {
	return s.plugin
}

func (s *GameSession) matchIdSnapshot() plugin.MatchId {
	return s.state.MatchId
}

func copyScores(m map[plugin.PlayerId]float64) map[plugin.PlayerId]float64 {
	out := make(map[plugin.PlayerId]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
