package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"ai-arena/internal/arena"
	"ai-arena/internal/completionpush"
	"ai-arena/internal/config"
	"ai-arena/internal/decision"
	"ai-arena/internal/events"
	"ai-arena/internal/game"
	"ai-arena/internal/game/battleship"
	"ai-arena/internal/game/connect4"
	"ai-arena/internal/game/holdem"
	"ai-arena/internal/game/wordguess"
	"ai-arena/internal/logging"
	"ai-arena/internal/store"
	httptransport "ai-arena/internal/transport/http"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.LoadApp()
	if err != nil {
		panic(err)
	}
	if err := logging.Init(cfg.Log); err != nil {
		panic(err)
	}
	defer logging.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	if err := run(ctx, cfg.Server); err != nil {
		log.Fatal().Err(err).Msg("server_stopped")
	}
}

func run(ctx context.Context, cfg config.ServerConfig) error {
	st, err := store.Open(ctx, store.Options{
		Driver:      cfg.StoreDriver,
		PostgresDSN: cfg.PostgresDSN,
		BoltPath:    cfg.BoltPath,
	})
	if err != nil {
		return err
	}
	defer st.Close()
	log.Info().Str("driver", cfg.StoreDriver).Msg("session_store_ready")

	provider, err := newProvider(cfg)
	if err != nil {
		return err
	}
	pushCfg, err := completionpush.ConfigFromServer(cfg)
	if err != nil {
		return err
	}
	push := completionpush.NewManager(pushCfg)

	eng := arena.New(engineConfig(cfg), arena.Deps{
		Games:     game.NewRegistry(holdem.New(), connect4.New(), battleship.New(), wordguess.New()),
		Decisions: decision.NewGateway(provider, decisionTimeouts(cfg)),
		Store:     st,
		Events:    events.NewPublisher(cfg.EventReplayWindow),
		Sink:      push,
	})

	r := httptransport.NewRouter(eng, cfg)
	httptransport.LogRoutes(r)
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return push.Start(gctx)
	})
	g.Go(func() error {
		return eng.Run(gctx)
	})
	g.Go(func() error {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("http_listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting_down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func newProvider(cfg config.ServerConfig) (decision.Provider, error) {
	if cfg.DecisionURL == "" {
		log.Info().Msg("decision_provider_heuristic")
		return decision.NewHeuristicProvider(), nil
	}
	var longest time.Duration
	for _, d := range decisionTimeouts(cfg) {
		if d > longest {
			longest = d
		}
	}
	provider, err := decision.NewHTTPProvider(cfg.DecisionURL, cfg.DecisionHeaders, longest+time.Second)
	if err != nil {
		return nil, err
	}
	log.Info().Str("endpoint", cfg.DecisionURL).Msg("decision_provider_http")
	return provider, nil
}

func engineConfig(cfg config.ServerConfig) arena.Config {
	return arena.Config{
		SessionTTL:    time.Duration(cfg.SessionTTLMins) * time.Minute,
		Retention:     time.Duration(cfg.RetentionMins) * time.Minute,
		SweepInterval: time.Duration(cfg.SweepIntervalSecs) * time.Second,
		ViewerGrace:   time.Duration(cfg.ViewerGraceSecs) * time.Second,
		ReadyTimeout:  time.Duration(cfg.ReadyTimeoutSecs) * time.Second,
		TickIntervals: map[game.Kind]time.Duration{
			game.KindHoldem:     time.Duration(cfg.TickHoldemMS) * time.Millisecond,
			game.KindConnect4:   time.Duration(cfg.TickConnect4MS) * time.Millisecond,
			game.KindBattleship: time.Duration(cfg.TickBattleshipMS) * time.Millisecond,
			game.KindWordGuess:  time.Duration(cfg.TickWordGuessMS) * time.Millisecond,
		},
	}
}

func decisionTimeouts(cfg config.ServerConfig) map[game.Kind]time.Duration {
	return map[game.Kind]time.Duration{
		game.KindHoldem:     time.Duration(cfg.DecisionHoldemMS) * time.Millisecond,
		game.KindConnect4:   time.Duration(cfg.DecisionConnect4MS) * time.Millisecond,
		game.KindBattleship: time.Duration(cfg.DecisionBattleMS) * time.Millisecond,
		game.KindWordGuess:  time.Duration(cfg.DecisionWordGuessMS) * time.Millisecond,
	}
}
