// Package plugin defines the capability set every external game
// implementation must satisfy. The session engine and the MCTS search
// engine see a game only through this contract; nothing in this package
// knows about any specific game's rules.
package plugin

// PlayerId, MatchId and GameId are opaque identifiers. They are treated as
// value types throughout the core.
type PlayerId = string
type MatchId = string
type GameId = string

// DisconnectPolicy controls what happens when a player's grace period
// expires while other players remain active.
type DisconnectPolicy string

const (
	DisconnectForfeitPlayer DisconnectPolicy = "forfeit_player"
	DisconnectAbandonAll    DisconnectPolicy = "abandon_all"
)

// ConcurrentMode describes how a phase collects player actions.
type ConcurrentMode string

const (
	ConcurrentSequential  ConcurrentMode = "sequential"
	ConcurrentCommitReveal ConcurrentMode = "commit_reveal"
	ConcurrentTimeWindow   ConcurrentMode = "time_window"
)

// Player is immutable for the life of a match.
type Player struct {
	PlayerId    PlayerId
	DisplayName string
	SeatIndex   uint32
	IsBot       bool
	BotId       string
}

// GameConfig is supplied at match creation.
type GameConfig struct {
	Options    map[string]any
	RandomSeed int64
}

// ExpectedAction names one action a phase is waiting on.
type ExpectedAction struct {
	PlayerId   PlayerId // empty means "any acting player", resolved by the plugin
	ActionType string
}

// Phase describes what must happen next. Plugins invent their own phase
// names; the engine only cares about AutoResolve and ConcurrentMode.
type Phase struct {
	Name           string
	ConcurrentMode ConcurrentMode
	ExpectedActions []ExpectedAction
	AutoResolve    bool
	Metadata       map[string]any
}

// PlayerIndex reads phase.Metadata["player_index"], the seat the engine
// should act as during auto-resolve. ok is false when absent.
func (p Phase) PlayerIndex() (int, bool) {
	if p.Metadata == nil {
		return 0, false
	}
	v, ok := p.Metadata["player_index"]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

// Action is a single player move. Payload shape is opaque to the engine.
type Action struct {
	ActionType string
	PlayerId   PlayerId
	Payload    map[string]any
}

// Event is emitted by the plugin or the engine for lifecycle changes.
type Event struct {
	EventType string
	PlayerId  PlayerId // empty if not player-scoped
	Payload   map[string]any
}

// GameResultReason explains how a match concluded.
type GameResultReason string

const (
	ReasonNormal           GameResultReason = "normal"
	ReasonDraw             GameResultReason = "draw"
	ReasonForfeit          GameResultReason = "forfeit"
	ReasonTimeout          GameResultReason = "timeout"
	ReasonAbandonment      GameResultReason = "abandonment"
	ReasonAdminTerminated  GameResultReason = "admin_terminated"
)

// GameResult is the terminal outcome of a match.
type GameResult struct {
	Winners     []PlayerId
	FinalScores map[PlayerId]float64
	Reason      GameResultReason
}

// TransitionResult is returned by ApplyAction and ResolveConcurrentActions.
// GameOver is nil until the plugin declares the match finished.
type TransitionResult struct {
	GameData  any
	Events    []Event
	NextPhase Phase
	Scores    map[PlayerId]float64 // missing entries mean "unchanged", not zero
	GameOver  *GameResult
}

// GamePlugin is the capability set every game implementation provides.
// All operations are synchronous and pure with respect to their inputs:
// ApplyAction must not mutate GameData observably, and implementations
// must never block or sleep — the session engine's mutex is held across
// these calls (see internal/engine).
type GamePlugin interface {
	Metadata() Metadata

	// CreateInitialState is deterministic given (players, config.RandomSeed,
	// config.Options).
	CreateInitialState(players []Player, config GameConfig) (gameData any, firstPhase Phase, initialEvents []Event, err error)

	// ValidateConfig returns a list of human-readable errors; empty means valid.
	ValidateConfig(options map[string]any) []string

	// GetValidActions returns possible action payloads for player, in a
	// stable order for a given state. May be empty.
	GetValidActions(gameData any, phase Phase, playerId PlayerId) []map[string]any

	// ValidateAction returns a non-nil error if the action violates rules.
	ValidateAction(gameData any, phase Phase, action Action) error

	// ApplyAction must fail with an explicit error rather than panic on an
	// invalid action, and must not mutate gameData observably.
	ApplyAction(gameData any, phase Phase, action Action, players []Player) (TransitionResult, error)

	// GetPlayerView hides information not visible to playerId. A nil
	// playerId requests the spectator view.
	GetPlayerView(gameData any, phase Phase, playerId *PlayerId, players []Player) map[string]any

	// OnPlayerForfeit returns a transition that advances past the
	// forfeited player's turn, or nil if the engine should skip generically.
	OnPlayerForfeit(gameData any, phase Phase, playerId PlayerId, players []Player) (*TransitionResult, error)

	// ResolveConcurrentActions is only called when phase.ConcurrentMode is
	// not ConcurrentSequential.
	ResolveConcurrentActions(gameData any, phase Phase, actions map[PlayerId]Action, players []Player) (TransitionResult, error)

	// GetSpectatorSummary produces audience-facing state.
	GetSpectatorSummary(gameData any, phase Phase, players []Player) map[string]any

	// CloneGameData returns a deep copy, used by the simulator and MCTS.
	CloneGameData(gameData any) any
}

// Metadata is the plugin's static, game-level description.
type Metadata struct {
	GameId           GameId
	DisplayName      string
	MinPlayers       int
	MaxPlayers       int
	Description      string
	ConfigSchema     map[string]any
	DisconnectPolicy DisconnectPolicy
}

// FeatureExtractor is an optional capability a plugin may additionally
// implement to support a neural leaf evaluator (internal/bot/neural). A
// plugin that does not implement it simply can't be used with a
// neural-backed bot profile; the default heuristic evaluator never needs it.
type FeatureExtractor interface {
	ExtractFeatures(gameData any, phase Phase, playerId PlayerId, players []Player) []float32
}

// GameDataCodec is an optional capability letting a plugin marshal/unmarshal
// its opaque GameData to bytes, used when saving to and loading from the
// State Store (§4.5) since game_data has no Go-level shape the core can
// serialize generically. Plugins with JSON-shaped (map[string]any) GameData
// don't need to implement this; the repository package falls back to plain
// encoding/json for that case.
type GameDataCodec interface {
	MarshalGameData(gameData any) ([]byte, error)
	UnmarshalGameData(data []byte) (any, error)
}
