// Command server wires the persistence, transport and bot-runner adapters
// into a running match host: one process serving every registered game
// over the WebSocket transport, grounded on the teacher's cmd/server/main.go
// (postgres+redis dial, signal-driven graceful shutdown, a single flat
// wiring function rather than a DI framework).
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/orla-games/meeplecore/internal/bot"
	"github.com/orla-games/meeplecore/internal/bot/neural"
	"github.com/orla-games/meeplecore/internal/botrunner"
	"github.com/orla-games/meeplecore/internal/config"
	"github.com/orla-games/meeplecore/internal/engine"
	"github.com/orla-games/meeplecore/internal/logger"
	"github.com/orla-games/meeplecore/internal/repository"
	"github.com/orla-games/meeplecore/internal/repository/postgres"
	redisrepo "github.com/orla-games/meeplecore/internal/repository/redis"
	"github.com/orla-games/meeplecore/internal/session"
	"github.com/orla-games/meeplecore/internal/transport"
	"github.com/orla-games/meeplecore/pkg/games/carcassonne"
	"github.com/orla-games/meeplecore/pkg/games/tictactoe"
	"github.com/orla-games/meeplecore/pkg/plugin"
)

var profilesPath string

func main() {
	root := &cobra.Command{
		Use:   "server",
		Short: "Run the match host: WebSocket transport over the session engine",
		RunE:  runServer,
	}
	root.Flags().StringVar(&profilesPath, "profiles", "", "optional YAML file overriding bot difficulty presets")

	if err := root.Execute(); err != nil {
		log.Fatal().Err(err).Msg("server exited with error")
	}
}

func runServer(*cobra.Command, []string) error {
	logger.Init()
	cfg := config.Load()
	neural.ModelPath = cfg.GonnxModelPath

	if profilesPath != "" {
		if err := bot.LoadProfiles(profilesPath); err != nil {
			log.Fatal().Err(err).Str("path", profilesPath).Msg("failed to load bot profiles override")
		}
	}

	games := map[plugin.GameId]plugin.GamePlugin{
		"tictactoe":   tictactoe.New(),
		"carcassonne": carcassonne.New(),
	}

	db, err := postgres.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer db.Close()

	redisClient, err := redisrepo.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer redisClient.Close()

	events := postgres.NewEventStore(db)
	records := postgres.NewMatchRecordStore(db)

	stateStores := make(map[plugin.GameId]repository.StateStore, len(games))
	for gameId, p := range games {
		stateStores[gameId] = redisrepo.NewStateStore(redisClient, p)
	}

	hub := transport.NewHub()

	// Manager and Runner depend on each other (Manager schedules bot turns
	// through Runner, Runner submits the chosen move back through Manager),
	// so a holder lets Runner close over a *session.Manager that doesn't
	// exist yet at construction time.
	holder := &managerHolder{}
	runner := botrunner.New(holder)
	mgr := session.NewManager(session.Config{
		Plugins:      games,
		StateStores:  stateStores,
		Events:       events,
		Records:      records,
		Broadcast:    hub,
		GracePeriod:  cfg.GracePeriod,
		BotScheduler: runner,
	})
	holder.mgr = mgr

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := mgr.Recover(ctx); err != nil {
		log.Error().Err(err).Msg("failed to recover active matches (non-fatal)")
	}

	go staleCleanupLoop(ctx, mgr, cfg.StaleAfter)

	wsHandler := transport.NewHandler(hub, mgr)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	mux.HandleFunc("GET /ws", wsHandler.ServeWS)
	mux.HandleFunc("POST /matches/{game_id}", newMatchHandler(mgr))

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server shutdown error")
	}
	log.Info().Msg("server stopped")
	return nil
}

// managerHolder lets Runner depend on a *session.Manager that is filled in
// after both have been constructed, breaking the Manager<->Runner
// construction cycle.
type managerHolder struct{ mgr *session.Manager }

func (h *managerHolder) Get(matchId plugin.MatchId) (*engine.GameSession, bool) {
	return h.mgr.Get(matchId)
}

type createMatchRequest struct {
	Players []struct {
		PlayerId    string `json:"player_id"`
		DisplayName string `json:"display_name"`
		IsBot       bool   `json:"is_bot"`
		BotId       string `json:"bot_id"`
	} `json:"players"`
	RandomSeed int64          `json:"random_seed"`
	Options    map[string]any `json:"options"`
}

// newMatchHandler builds a POST /matches/{game_id} handler that creates a
// match through the Session Manager and returns its match id.
func newMatchHandler(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameId := r.PathValue("game_id")
		var req createMatchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"malformed request body"}`, http.StatusBadRequest)
			return
		}
		players := make([]plugin.Player, len(req.Players))
		for i, p := range req.Players {
			players[i] = plugin.Player{
				PlayerId:    p.PlayerId,
				DisplayName: p.DisplayName,
				SeatIndex:   uint32(i),
				IsBot:       p.IsBot,
				BotId:       p.BotId,
			}
		}
		matchId, err := mgr.Create(r.Context(), gameId, players, plugin.GameConfig{
			Options:    req.Options,
			RandomSeed: req.RandomSeed,
		})
		if err != nil {
			log.Warn().Err(err).Str("game_id", gameId).Msg("match creation rejected")
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"match_id": matchId})
	}
}

// staleCleanupLoop runs Manager.CleanupStale on a fixed interval, grounded
// on the teacher's background-goroutine-off-startup shape (here there's no
// phase transition to hang it off of, so a plain ticker stands in).
func staleCleanupLoop(ctx context.Context, mgr *session.Manager, staleAfter time.Duration) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := mgr.CleanupStale(ctx, staleAfter); err != nil {
				log.Error().Err(err).Msg("stale cleanup pass failed")
			}
		}
	}
}
