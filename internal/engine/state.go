// Package engine implements the Session Engine: the per-match orchestrator
// that validates actions, drives phase transitions, persists an event log,
// and broadcasts per-player filtered views. It is grounded on the teacher's
// internal/service package (game/phase service split), adapted to a single
// game-agnostic orchestrator driven by the plugin.GamePlugin contract.
package engine

import (
	"errors"
	"time"

	"github.com/orla-games/meeplecore/pkg/plugin"
)

// Status is the lifecycle state of a match.
type Status string

const (
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusFinished  Status = "finished"
	StatusAbandoned Status = "abandoned"
)

// Errors returned by the session engine.
var (
	ErrGameNotActive  = errors.New("engine: match is not active")
	ErrNotYourTurn    = errors.New("engine: action targets the wrong player")
	ErrPlayerForfeited = errors.New("engine: submitting player has been forfeited")
	ErrInvalidAction  = errors.New("engine: action rejected by plugin")
	ErrPluginError    = errors.New("engine: plugin raised unexpectedly")
	ErrPersistence    = errors.New("engine: state or event write failed")
	ErrUnsupportedConcurrentMode = errors.New("engine: concurrent phase mode not supported by this build")
)

// GameState is the authoritative, mutable state of one match, owned by a
// GameSession. game_data is the plugin's opaque per-match blob.
type GameState struct {
	MatchId plugin.MatchId
	GameId  plugin.GameId
	Players []plugin.Player
	Config  plugin.GameConfig

	CurrentPhase plugin.Phase
	Status       Status
	TurnNumber   int
	ActionNumber int

	GameData any
	Scores   map[plugin.PlayerId]float64

	// DisconnectedPlayers maps a disconnected player to the unix timestamp
	// their grace period started. Persisting the timestamp (not "time
	// remaining") lets recovery compute remaining time correctly across
	// restarts without clock drift within a single node.
	DisconnectedPlayers map[plugin.PlayerId]int64
	// ForfeitedPlayers is append-only, in order of forfeiture.
	ForfeitedPlayers []plugin.PlayerId
}

// ActivePlayers returns players who are neither forfeited nor abandoned
// from the roster; disconnected-but-not-yet-forfeited players still count
// as active.
func (s *GameState) ActivePlayers() []plugin.Player {
	forfeited := make(map[plugin.PlayerId]bool, len(s.ForfeitedPlayers))
	for _, p := range s.ForfeitedPlayers {
		forfeited[p] = true
	}
	var active []plugin.Player
	for _, p := range s.Players {
		if !forfeited[p.PlayerId] {
			active = append(active, p)
		}
	}
	return active
}

// IsForfeited reports whether playerId has been forfeited.
func (s *GameState) IsForfeited(playerId plugin.PlayerId) bool {
	for _, p := range s.ForfeitedPlayers {
		if p == playerId {
			return true
		}
	}
	return false
}

// PlayerBySeat returns the player occupying seatIndex, if any.
func (s *GameState) PlayerBySeat(seatIndex int) (plugin.Player, bool) {
	for _, p := range s.Players {
		if int(p.SeatIndex) == seatIndex {
			return p, true
		}
	}
	return plugin.Player{}, false
}

// ApplyScores merges delta scores into s.Scores. A TransitionResult that
// omits a player's score entry leaves that player's score unchanged rather
// than zeroing it.
func (s *GameState) ApplyScores(delta map[plugin.PlayerId]float64) {
	if s.Scores == nil {
		s.Scores = make(map[plugin.PlayerId]float64)
	}
	for pid, v := range delta {
		s.Scores[pid] = v
	}
}

// PersistedEvent is an Event enriched with match-scoped sequencing.
type PersistedEvent struct {
	plugin.Event
	MatchId        plugin.MatchId
	SequenceNumber uint64
	Timestamp      time.Time
}
