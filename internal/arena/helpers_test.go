package arena

import (
	"context"
	"sync"
	"testing"
	"time"

	"ai-arena/internal/decision"
	"ai-arena/internal/events"
	"ai-arena/internal/game"
	"ai-arena/internal/game/battleship"
	"ai-arena/internal/game/connect4"
	"ai-arena/internal/game/holdem"
	"ai-arena/internal/game/wordguess"
	"ai-arena/internal/store"
)

type recordingSink struct {
	mu   sync.Mutex
	got  []Completion
	fail error
}

func (s *recordingSink) Deliver(_ context.Context, c Completion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, c)
	return s.fail
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.got)
}

type testEngine struct {
	*Engine
	sink  *recordingSink
	store store.SessionStore
}

func testGames() *game.Registry {
	return game.NewRegistry(holdem.New(), connect4.New(), battleship.New(), wordguess.New())
}

// newTestEngine wires an engine with short timings. A nil provider plays the heuristic.
func newTestEngine(t *testing.T, provider decision.Provider, cfg Config, st store.SessionStore) *testEngine {
	t.Helper()
	if provider == nil {
		provider = decision.NewHeuristicProvider()
	}
	if st == nil {
		st = store.NewMemory()
	}
	if cfg.ReadyTimeout == 0 {
		cfg.ReadyTimeout = time.Hour
	}
	sink := &recordingSink{}
	e := New(cfg, Deps{
		Games: testGames(),
		Decisions: decision.NewGateway(provider, map[game.Kind]time.Duration{
			game.KindHoldem:     time.Second,
			game.KindConnect4:   time.Second,
			game.KindBattleship: time.Second,
			game.KindWordGuess:  time.Second,
		}),
		Store:  st,
		Events: events.NewPublisher(1000),
		Sink:   sink,
	})
	t.Cleanup(e.Shutdown)
	return &testEngine{Engine: e, sink: sink, store: st}
}

func aiSeats(ids ...string) []Seat {
	out := make([]Seat, len(ids))
	for i, id := range ids {
		out[i] = Seat{ID: id, Controller: ControllerAI}
	}
	return out
}

func mustCreate(t *testing.T, e *testEngine, req CreateRequest) *Session {
	t.Helper()
	snap, err := e.CreateSession(context.Background(), req)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	sess, err := e.lookup(context.Background(), snap.ID)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	return sess
}

// activate flips a session to active without starting its loop, for driving ticks by hand.
func activate(sess *Session) {
	sess.mu.Lock()
	sess.status = StatusActive
	sess.mu.Unlock()
}

func waitFor(t *testing.T, timeout time.Duration, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func moves(sess *Session) int {
	return sess.State().(*connect4.State).Moves
}
