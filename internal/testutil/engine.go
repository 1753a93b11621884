package testutil

import (
	"testing"
	"time"

	"ai-arena/internal/arena"
	"ai-arena/internal/decision"
	"ai-arena/internal/events"
	"ai-arena/internal/game"
	"ai-arena/internal/game/battleship"
	"ai-arena/internal/game/connect4"
	"ai-arena/internal/game/holdem"
	"ai-arena/internal/game/wordguess"
	"ai-arena/internal/store"
)

// Games registers every built-in adapter.
func Games() *game.Registry {
	return game.NewRegistry(holdem.New(), connect4.New(), battleship.New(), wordguess.New())
}

// NewEngine builds an in-memory engine with the heuristic provider. Unless cfg says
// otherwise, started sessions wait an hour for a ready signal so tests drive turns.
func NewEngine(t *testing.T, cfg arena.Config) *arena.Engine {
	t.Helper()
	if cfg.ReadyTimeout == 0 {
		cfg.ReadyTimeout = time.Hour
	}
	eng := arena.New(cfg, arena.Deps{
		Games:     Games(),
		Decisions: decision.NewGateway(decision.NewHeuristicProvider(), nil),
		Store:     store.NewMemory(),
		Events:    events.NewPublisher(events.DefaultReplayWindow),
	})
	t.Cleanup(eng.Shutdown)
	return eng
}
