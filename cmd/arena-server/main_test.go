package main

import (
	"testing"
	"time"

	"ai-arena/internal/config"
	"ai-arena/internal/decision"
	"ai-arena/internal/game"
)

func TestEngineConfigFromServerConfig(t *testing.T) {
	t.Setenv("VIEWER_GRACE_SECONDS", "5")
	t.Setenv("TICK_CONNECT4_MS", "250")
	cfg, err := config.LoadServer()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	ec := engineConfig(cfg)
	if ec.ViewerGrace != 5*time.Second {
		t.Fatalf("grace = %s", ec.ViewerGrace)
	}
	if ec.TickIntervals[game.KindConnect4] != 250*time.Millisecond || ec.TickIntervals[game.KindWordGuess] != 2*time.Second {
		t.Fatalf("unexpected ticks: %v", ec.TickIntervals)
	}
	if ec.SessionTTL != 24*time.Hour || ec.Retention != time.Hour || ec.ReadyTimeout != 30*time.Second {
		t.Fatalf("unexpected defaults: %+v", ec)
	}
	if got := decisionTimeouts(cfg)[game.KindHoldem]; got != 15*time.Second {
		t.Fatalf("holdem decision timeout = %s", got)
	}
}

func TestNewProviderPicksByURL(t *testing.T) {
	p, err := newProvider(config.ServerConfig{})
	if err != nil {
		t.Fatalf("heuristic: %v", err)
	}
	if _, ok := p.(*decision.HeuristicProvider); !ok {
		t.Fatalf("expected heuristic provider, got %T", p)
	}
	p, err = newProvider(config.ServerConfig{DecisionURL: "http://bot.local/decide", DecisionHoldemMS: 1000})
	if err != nil {
		t.Fatalf("http: %v", err)
	}
	if _, ok := p.(*decision.HTTPProvider); !ok {
		t.Fatalf("expected http provider, got %T", p)
	}
}
