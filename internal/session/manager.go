// Package session implements the Session Manager: the top-level owner of
// the MatchId -> GameSession map, responsible for
// match creation, crash recovery, stale-match cleanup, and eviction.
// Grounded on the teacher's internal/service.GameService (the component
// that looks games up, creates them, and drives the rest of the service
// layer), generalized from a fixed Diplomacy flow to the plugin contract.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/google/uuid"

	"github.com/orla-games/meeplecore/internal/engine"
	"github.com/orla-games/meeplecore/internal/repository"
	"github.com/orla-games/meeplecore/pkg/plugin"
)

// DefaultGracePeriod is used when Config.GracePeriod is zero or negative.
const DefaultGracePeriod = 2 * time.Minute

// DefaultStaleAfter is the cleanup-stale threshold.
const DefaultStaleAfter = 24 * time.Hour

// BotScheduler decouples Manager from the Bot Runner (component H):
// Manager only needs to hand off "this player, in this match, is a bot
// whose turn it is" and optionally call it off again at finish. The
// concrete scheduler (internal/botrunner) depends on Manager to submit the
// chosen action back via HandleAction, so the dependency must run this
// direction to avoid a cycle.
type BotScheduler interface {
	Schedule(matchId plugin.MatchId, playerId plugin.PlayerId)
	Cancel(matchId plugin.MatchId)
}

// NoopBotScheduler drops every request. Useful when bots are disabled.
type NoopBotScheduler struct{}

func (NoopBotScheduler) Schedule(plugin.MatchId, plugin.PlayerId) {}
func (NoopBotScheduler) Cancel(plugin.MatchId)                    {}

// Manager owns every live GameSession and the adapters needed to create,
// recover, and retire them.
type Manager struct {
	mu       sync.Mutex
	sessions map[plugin.MatchId]*engine.GameSession

	plugins     map[plugin.GameId]plugin.GamePlugin
	stateStores map[plugin.GameId]repository.StateStore
	events      repository.EventStore
	records     repository.MatchRecordStore

	broadcast engine.Broadcaster
	timers    engine.Timers
	clock     engine.Clock

	gracePeriod time.Duration
	bots        BotScheduler
}

// Config bundles Manager's constructor arguments.
type Config struct {
	Plugins      map[plugin.GameId]plugin.GamePlugin
	StateStores  map[plugin.GameId]repository.StateStore
	Events       repository.EventStore
	Records      repository.MatchRecordStore
	Broadcast    engine.Broadcaster
	GracePeriod  time.Duration
	BotScheduler BotScheduler
}

// NewManager constructs a Manager. A nil BotScheduler becomes a no-op; a
// zero GracePeriod becomes DefaultGracePeriod.
func NewManager(cfg Config) *Manager {
	if cfg.Broadcast == nil {
		cfg.Broadcast = engine.NoopBroadcaster{}
	}
	if cfg.BotScheduler == nil {
		cfg.BotScheduler = NoopBotScheduler{}
	}
	if cfg.GracePeriod <= 0 {
		cfg.GracePeriod = DefaultGracePeriod
	}
	return &Manager{
		sessions:    make(map[plugin.MatchId]*engine.GameSession),
		plugins:     cfg.Plugins,
		stateStores: cfg.StateStores,
		events:      cfg.Events,
		records:     cfg.Records,
		broadcast:   cfg.Broadcast,
		timers:      NewAfterFuncTimers(),
		clock:       engine.RealClock{},
		gracePeriod: cfg.GracePeriod,
		bots:        cfg.BotScheduler,
	}
}

// Get returns the live session for matchId, if present in memory.
func (m *Manager) Get(matchId plugin.MatchId) (*engine.GameSession, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	gs, ok := m.sessions[matchId]
	return gs, ok
}

// Create builds a brand-new match.
func (m *Manager) Create(ctx context.Context, gameId plugin.GameId, players []plugin.Player, config plugin.GameConfig) (plugin.MatchId, error) {
	p, stateStore, err := m.lookup(gameId)
	if err != nil {
		return "", err
	}
	if errs := p.ValidateConfig(config.Options); len(errs) > 0 {
		return "", fmt.Errorf("session: invalid config for %q: %v", gameId, errs)
	}

	gameData, firstPhase, initialEvents, err := p.CreateInitialState(players, config)
	if err != nil {
		return "", fmt.Errorf("session: create_initial_state: %w", err)
	}

	matchId := plugin.MatchId(uuid.NewString())
	state := &engine.GameState{
		MatchId:      matchId,
		GameId:       gameId,
		Players:      players,
		Config:       config,
		CurrentPhase: firstPhase,
		Status:       engine.StatusActive,
		GameData:     gameData,
	}

	gs := engine.NewGameSession(state, p, &sessionStores{events: m.events, state: stateStore}, m.broadcast, m.timers, m.clock, 0, m.gracePeriod)
	m.wireCallbacks(gs)

	if err := m.records.MarkActive(ctx, matchId, gameId, players); err != nil {
		return "", fmt.Errorf("session: mark active: %w", err)
	}

	actor, isBot, err := gs.Prime(ctx, initialEvents)
	if err != nil {
		return "", fmt.Errorf("session: prime: %w", err)
	}

	m.mu.Lock()
	m.sessions[matchId] = gs
	m.mu.Unlock()

	if isBot {
		m.bots.Schedule(matchId, actor)
	}
	return matchId, nil
}

// Recover re-instantiates every match with live hot state at startup (spec
// §4.7 Recover).
func (m *Manager) Recover(ctx context.Context) error {
	now := m.clock.Now()
	for gameId, stateStore := range m.stateStores {
		matchIds, err := stateStore.ListActiveMatches(ctx)
		if err != nil {
			return fmt.Errorf("session: list active matches for %q: %w", gameId, err)
		}
		for _, matchId := range matchIds {
			if err := m.recoverOne(ctx, gameId, stateStore, matchId, now); err != nil {
				log.Error().Err(err).Str("match_id", matchId).Str("game_id", gameId).Msg("failed to recover match")
			}
		}
	}
	return nil
}

func (m *Manager) recoverOne(ctx context.Context, gameId plugin.GameId, stateStore repository.StateStore, matchId plugin.MatchId, now time.Time) error {
	state, err := stateStore.LoadState(ctx, matchId)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	if state == nil {
		return nil
	}
	if state.Status != engine.StatusActive {
		return nil
	}

	p, ok := m.plugins[gameId]
	if !ok {
		return fmt.Errorf("no plugin registered for game_id %q", gameId)
	}

	events, err := m.events.GetEvents(ctx, matchId, 0)
	if err != nil {
		return fmt.Errorf("get events: %w", err)
	}

	gs := engine.NewGameSession(state, p, &sessionStores{events: m.events, state: stateStore}, m.broadcast, m.timers, m.clock, uint64(len(events)), m.gracePeriod)
	m.wireCallbacks(gs)

	m.mu.Lock()
	m.sessions[matchId] = gs
	m.mu.Unlock()

	for playerId, disconnectTs := range state.DisconnectedPlayers {
		elapsed := now.Sub(time.Unix(disconnectTs, 0))
		remaining := m.gracePeriod - elapsed
		if remaining <= 0 {
			gs.ExpireGracePeriod(ctx, playerId)
			continue
		}
		m.timers.Start(matchId, playerId, remaining, func() {
			gs.ExpireGracePeriod(context.Background(), playerId)
		})
	}
	return nil
}

// CleanupStale marks match records abandoned when they're active with no
// hot state and older than olderThan.
func (m *Manager) CleanupStale(ctx context.Context, olderThan time.Duration) error {
	cutoff := m.clock.Now().Add(-olderThan).Unix()
	staleIds, err := m.records.ListStaleActive(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("session: list stale active: %w", err)
	}
	for _, matchId := range staleIds {
		if _, hot := m.Get(matchId); hot {
			continue
		}
		if m.hasHotState(ctx, matchId) {
			continue
		}
		if err := m.records.MarkAbandonedRecord(ctx, matchId); err != nil {
			log.Error().Err(err).Str("match_id", matchId).Msg("failed to mark stale match abandoned")
		}
	}
	return nil
}

// hasHotState checks every registered StateStore, since a match record
// doesn't carry game_id lookups cheaply enough to pick a single store.
func (m *Manager) hasHotState(ctx context.Context, matchId plugin.MatchId) bool {
	for _, stateStore := range m.stateStores {
		state, err := stateStore.LoadState(ctx, matchId)
		if err == nil && state != nil {
			return true
		}
	}
	return false
}

// Remove evicts a finished session from memory.
func (m *Manager) Remove(matchId plugin.MatchId) {
	m.mu.Lock()
	delete(m.sessions, matchId)
	m.mu.Unlock()
	m.bots.Cancel(matchId)
}

func (m *Manager) lookup(gameId plugin.GameId) (plugin.GamePlugin, repository.StateStore, error) {
	p, ok := m.plugins[gameId]
	if !ok {
		return nil, nil, fmt.Errorf("session: unknown game_id %q", gameId)
	}
	stateStore, ok := m.stateStores[gameId]
	if !ok {
		return nil, nil, fmt.Errorf("session: no state store configured for game_id %q", gameId)
	}
	return p, stateStore, nil
}

// wireCallbacks hooks OnBotTurn to the bot scheduler and OnFinished to
// match-record sync plus in-memory eviction.
func (m *Manager) wireCallbacks(gs *engine.GameSession) {
	gs.OnBotTurn = func(matchId plugin.MatchId, playerId plugin.PlayerId) {
		m.bots.Schedule(matchId, playerId)
	}
	gs.OnFinished = func(matchId plugin.MatchId, result plugin.GameResult, finalScores map[plugin.PlayerId]float64) {
		if err := m.records.MarkFinished(context.Background(), matchId, result, finalScores); err != nil {
			log.Error().Err(err).Str("match_id", matchId).Msg("failed to mark match record finished")
		}
		m.Remove(matchId)
	}
}

// sessionStores adapts a shared EventStore and a per-game StateStore to
// engine.Stores, the narrow persistence surface GameSession depends on.
type sessionStores struct {
	events repository.EventStore
	state  repository.StateStore
}

func (s *sessionStores) AppendEvents(ctx context.Context, matchId plugin.MatchId, events []engine.PersistedEvent) error {
	return s.events.AppendEvents(ctx, matchId, events)
}

func (s *sessionStores) SaveState(ctx context.Context, state *engine.GameState) error {
	return s.state.SaveState(ctx, state)
}
