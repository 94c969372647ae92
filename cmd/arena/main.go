// Command arena runs bot-vs-bot matches outside any real-time pacing, for
// measuring win rates across difficulty tiers and game plugins. Grounded on
// the teacher's cmd/botmatch/main.go (flag-driven matchup spec, worker pool,
// per-power win/draw/survival aggregation), adapted from a fixed 7-power
// Diplomacy matchup to an arbitrary registered game plugin and an arbitrary
// player count.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/orla-games/meeplecore/internal/bot"
	"github.com/orla-games/meeplecore/internal/engine"
	"github.com/orla-games/meeplecore/internal/repository"
	"github.com/orla-games/meeplecore/internal/repository/memstore"
	"github.com/orla-games/meeplecore/internal/session"
	"github.com/orla-games/meeplecore/pkg/games/carcassonne"
	"github.com/orla-games/meeplecore/pkg/games/tictactoe"
	"github.com/orla-games/meeplecore/pkg/plugin"
)

var games = map[plugin.GameId]plugin.GamePlugin{
	"tictactoe":   tictactoe.New(),
	"carcassonne": carcassonne.New(),
}

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	var (
		gameId      string
		botConfig   string
		numGames    int
		workers     int
		seed        int64
		profileFile string
		jsonOut     bool
	)

	root := &cobra.Command{
		Use:   "arena",
		Short: "Run bot-vs-bot matches and report win counts per bot_id (a draw counts as a win for every tied winner)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runArena(gameId, botConfig, numGames, workers, seed, profileFile, jsonOut)
		},
	}
	root.Flags().StringVar(&gameId, "game", "tictactoe", "registered game_id to play (tictactoe|carcassonne)")
	root.Flags().StringVar(&botConfig, "bots", "easy,hard", "comma-separated bot_id per seat, cycled if fewer than players")
	root.Flags().IntVar(&numGames, "n", 10, "number of games to run")
	root.Flags().IntVar(&workers, "workers", 4, "concurrent games in flight")
	root.Flags().Int64Var(&seed, "seed", 0, "base random seed (0 = time-derived)")
	root.Flags().StringVar(&profileFile, "profiles", "", "optional YAML file overriding bot difficulty presets")
	root.Flags().BoolVar(&jsonOut, "json", false, "print results as JSON instead of a summary table")

	if err := root.Execute(); err != nil {
		log.Fatal().Err(err).Msg("arena exited with error")
	}
}

type gameResult struct {
	GameIndex int               `json:"game_index"`
	Winners   []string          `json:"winners"`
	Scores    map[string]float64 `json:"scores"`
	Seats     map[string]string `json:"seats"` // player_id -> bot_id
}

func runArena(gameId, botConfig string, numGames, workers int, seed int64, profileFile string, jsonOut bool) error {
	p, ok := games[gameId]
	if !ok {
		return fmt.Errorf("arena: unknown game_id %q", gameId)
	}
	if profileFile != "" {
		if err := bot.LoadProfiles(profileFile); err != nil {
			return err
		}
	}
	botIds := strings.Split(botConfig, ",")
	if len(botIds) == 0 {
		return fmt.Errorf("arena: --bots must name at least one bot_id")
	}

	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	results := make([]*gameResult, numGames)
	var wg sync.WaitGroup
	sem := make(chan struct{}, workers)
	errCount := 0
	var mu sync.Mutex

	for i := 0; i < numGames; i++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()

			gameSeed := seed
			if seed != 0 {
				gameSeed = seed + int64(idx)
			}
			r, err := playOneGame(gameId, p, botIds, gameSeed, idx)
			if err != nil {
				log.Error().Err(err).Int("game", idx+1).Msg("game failed")
				mu.Lock()
				errCount++
				mu.Unlock()
				return
			}
			mu.Lock()
			results[idx] = r
			mu.Unlock()
			log.Info().Int("game", idx+1).Strs("winners", r.Winners).Msg("game completed")
		}(i)
	}
	wg.Wait()

	if jsonOut {
		printJSON(results, numGames, errCount)
	} else {
		printSummary(results, botIds, errCount)
	}
	return nil
}

// playOneGame builds an isolated, in-memory Manager (no database, no real
// transport) and drives one match to completion with an instant
// bot-scheduler that never waits for botrunner's human-feeling jitter.
func playOneGame(gameId plugin.GameId, p plugin.GamePlugin, botIds []string, seed int64, idx int) (*gameResult, error) {
	playerCount := p.Metadata().MinPlayers
	players := make([]plugin.Player, playerCount)
	seatBot := make(map[plugin.PlayerId]string, playerCount)
	for i := 0; i < playerCount; i++ {
		pid := fmt.Sprintf("g%d-seat%d", idx, i)
		botId := botIds[i%len(botIds)]
		players[i] = plugin.Player{
			PlayerId:    pid,
			DisplayName: fmt.Sprintf("%s-%d", botId, i),
			SeatIndex:   uint32(i),
			IsBot:       true,
			BotId:       botId,
		}
		seatBot[pid] = botId
	}

	recorder := newResultRecorder()
	holder := &managerHolder{}
	scheduler := &instantScheduler{holder: holder, games: games, seatBot: seatBot}
	mgr := session.NewManager(session.Config{
		Plugins:      map[plugin.GameId]plugin.GamePlugin{gameId: p},
		StateStores:  map[plugin.GameId]repository.StateStore{gameId: memstore.NewStateStore()},
		Events:       memstore.NewEventStore(),
		Records:      recorder,
		Broadcast:    engine.NoopBroadcaster{},
		GracePeriod:  time.Hour,
		BotScheduler: scheduler,
	})
	holder.mgr = mgr

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	matchId, err := mgr.Create(ctx, gameId, players, plugin.GameConfig{RandomSeed: seed})
	if err != nil {
		return nil, fmt.Errorf("create match: %w", err)
	}

	select {
	case <-recorder.wait(matchId):
	case <-ctx.Done():
		return nil, fmt.Errorf("match %s did not finish within timeout", matchId)
	}

	result, scores := recorder.outcome(matchId)
	return &gameResult{GameIndex: idx, Winners: result.Winners, Scores: scores, Seats: seatBot}, nil
}

// managerHolder breaks the Manager<->instantScheduler construction cycle,
// the same indirection cmd/server uses for botrunner.Runner.
type managerHolder struct{ mgr *session.Manager }

// instantScheduler implements session.BotScheduler by choosing and
// submitting a bot move synchronously (via a background goroutine so
// Schedule itself never blocks the caller's mutex), skipping the human
// pacing jitter botrunner.Runner adds — appropriate here since nothing is
// watching a live connection.
type instantScheduler struct {
	holder  *managerHolder
	games   map[plugin.GameId]plugin.GamePlugin
	seatBot map[plugin.PlayerId]string
}

func (s *instantScheduler) Schedule(matchId plugin.MatchId, playerId plugin.PlayerId) {
	go func() {
		gs, ok := s.holder.mgr.Get(matchId)
		if !ok {
			return
		}
		state := gs.State()
		botId, ok := s.seatBot[playerId]
		if !ok {
			return
		}
		strat, err := bot.NewStrategy(botId, state.GameId, nil)
		if err != nil {
			log.Error().Err(err).Str("bot_id", botId).Msg("arena: unknown bot_id")
			return
		}
		actionType := actionTypeFor(state.CurrentPhase, playerId)
		payload, err := strat.ChooseAction(state.GameData, state.CurrentPhase, playerId, s.games[state.GameId], state.Players)
		if err != nil {
			log.Error().Err(err).Str("player_id", playerId).Msg("arena: bot failed to choose an action")
			return
		}
		action := plugin.Action{ActionType: actionType, PlayerId: playerId, Payload: payload}
		if err := gs.HandleAction(context.Background(), action); err != nil {
			log.Error().Err(err).Str("player_id", playerId).Msg("arena: bot move rejected")
		}
	}()
}

func (s *instantScheduler) Cancel(plugin.MatchId) {}

func actionTypeFor(phase plugin.Phase, playerId plugin.PlayerId) string {
	for _, ea := range phase.ExpectedActions {
		if ea.PlayerId == playerId || ea.PlayerId == "" {
			return ea.ActionType
		}
	}
	return ""
}

var _ session.BotScheduler = (*instantScheduler)(nil)

// resultRecorder wraps an in-memory MatchRecordStore and additionally
// signals a per-match channel on MarkFinished, so playOneGame can block
// until the match the Session Manager is driving asynchronously completes.
type resultRecorder struct {
	repository.MatchRecordStore
	mu      sync.Mutex
	done    map[plugin.MatchId]chan struct{}
	results map[plugin.MatchId]plugin.GameResult
	scores  map[plugin.MatchId]map[plugin.PlayerId]float64
}

func newResultRecorder() *resultRecorder {
	return &resultRecorder{
		MatchRecordStore: memstore.NewMatchRecordStore(),
		done:             make(map[plugin.MatchId]chan struct{}),
		results:          make(map[plugin.MatchId]plugin.GameResult),
		scores:           make(map[plugin.MatchId]map[plugin.PlayerId]float64),
	}
}

func (r *resultRecorder) wait(matchId plugin.MatchId) <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch, ok := r.done[matchId]
	if !ok {
		ch = make(chan struct{})
		r.done[matchId] = ch
	}
	return ch
}

func (r *resultRecorder) outcome(matchId plugin.MatchId) (plugin.GameResult, map[string]float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]float64, len(r.scores[matchId]))
	for pid, s := range r.scores[matchId] {
		out[pid] = s
	}
	return r.results[matchId], out
}

func (r *resultRecorder) MarkFinished(ctx context.Context, matchId plugin.MatchId, result plugin.GameResult, finalScores map[plugin.PlayerId]float64) error {
	if err := r.MatchRecordStore.MarkFinished(ctx, matchId, result, finalScores); err != nil {
		return err
	}
	r.mu.Lock()
	r.results[matchId] = result
	r.scores[matchId] = finalScores
	ch, ok := r.done[matchId]
	if !ok {
		ch = make(chan struct{})
		r.done[matchId] = ch
	}
	r.mu.Unlock()
	close(ch)
	return nil
}

func printSummary(results []*gameResult, botIds []string, errCount int) {
	completed := 0
	wins := make(map[string]int)
	for _, r := range results {
		if r == nil {
			continue
		}
		completed++
		for _, w := range r.Winners {
			wins[r.Seats[w]]++
		}
	}
	fmt.Printf("\nResults (%d/%d games completed, %d failed):\n", completed, len(results), errCount)
	tiers := make([]string, 0, len(wins))
	seen := map[string]bool{}
	for _, b := range botIds {
		if !seen[b] {
			seen[b] = true
			tiers = append(tiers, b)
		}
	}
	sort.Strings(tiers)
	for _, tier := range tiers {
		fmt.Printf("  %-10s %d wins\n", tier, wins[tier])
	}
}

func printJSON(results []*gameResult, total, errCount int) {
	out := struct {
		Total   int           `json:"total"`
		Errors  int           `json:"errors"`
		Results []*gameResult `json:"results"`
	}{Total: total, Errors: errCount, Results: results}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(out)
}
