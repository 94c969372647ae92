package repository

import (
	"encoding/json"
	"fmt"

	"github.com/orla-games/meeplecore/internal/engine"
	"github.com/orla-games/meeplecore/pkg/plugin"
)

// storedState is the wire shape GameState serializes to. GameData is kept
// as a separate raw slice because it's plugin-opaque: when the plugin
// implements plugin.GameDataCodec its bytes are used verbatim, otherwise
// plain encoding/json is attempted against whatever concrete type GameData
// holds (map[string]any game data round-trips this way with no plugin help).
type storedState struct {
	MatchId      plugin.MatchId
	GameId       plugin.GameId
	Players      []plugin.Player
	Config       plugin.GameConfig
	CurrentPhase plugin.Phase
	Status       engine.Status
	TurnNumber   int
	ActionNumber int
	GameData     json.RawMessage
	Scores       map[plugin.PlayerId]float64

	DisconnectedPlayers map[plugin.PlayerId]int64
	ForfeitedPlayers    []plugin.PlayerId
}

// MarshalState serializes a GameState for a StateStore write.
func MarshalState(p plugin.GamePlugin, s *engine.GameState) ([]byte, error) {
	gameData, err := marshalGameData(p, s.GameData)
	if err != nil {
		return nil, fmt.Errorf("repository: marshal game_data: %w", err)
	}
	return json.Marshal(storedState{
		MatchId:             s.MatchId,
		GameId:              s.GameId,
		Players:             s.Players,
		Config:              s.Config,
		CurrentPhase:        s.CurrentPhase,
		Status:              s.Status,
		TurnNumber:          s.TurnNumber,
		ActionNumber:        s.ActionNumber,
		GameData:            gameData,
		Scores:              s.Scores,
		DisconnectedPlayers: s.DisconnectedPlayers,
		ForfeitedPlayers:    s.ForfeitedPlayers,
	})
}

// UnmarshalState is the inverse of MarshalState, given the same plugin
// instance the match was created with.
func UnmarshalState(p plugin.GamePlugin, data []byte) (*engine.GameState, error) {
	var stored storedState
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("repository: unmarshal state: %w", err)
	}
	gameData, err := unmarshalGameData(p, stored.GameData)
	if err != nil {
		return nil, fmt.Errorf("repository: unmarshal game_data: %w", err)
	}
	return &engine.GameState{
		MatchId:             stored.MatchId,
		GameId:              stored.GameId,
		Players:             stored.Players,
		Config:              stored.Config,
		CurrentPhase:        stored.CurrentPhase,
		Status:              stored.Status,
		TurnNumber:          stored.TurnNumber,
		ActionNumber:        stored.ActionNumber,
		GameData:            gameData,
		Scores:              stored.Scores,
		DisconnectedPlayers: stored.DisconnectedPlayers,
		ForfeitedPlayers:    stored.ForfeitedPlayers,
	}, nil
}

func marshalGameData(p plugin.GamePlugin, gameData any) ([]byte, error) {
	if codec, ok := p.(plugin.GameDataCodec); ok {
		return codec.MarshalGameData(gameData)
	}
	return json.Marshal(gameData)
}

func unmarshalGameData(p plugin.GamePlugin, data []byte) (any, error) {
	if codec, ok := p.(plugin.GameDataCodec); ok {
		return codec.UnmarshalGameData(data)
	}
	var v map[string]any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}
