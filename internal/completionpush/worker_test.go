package completionpush

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"ai-arena/internal/arena"
	"ai-arena/internal/game"
)

type fakeSender struct {
	mu    sync.Mutex
	calls []string
	fail  bool
}

func (s *fakeSender) Send(_ context.Context, target Target, c arena.Completion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, target.Name+"|"+c.SessionID)
	if s.fail {
		return errors.New("failed")
	}
	return nil
}

func (s *fakeSender) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func sampleCompletion() arena.Completion {
	return arena.Completion{
		SessionID:     "s-1",
		GameType:      game.KindConnect4,
		FinalRankings: []game.Ranking{{Seat: "red", Rank: 1, Points: 1}, {Seat: "blue", Rank: 2}},
		Winner:        "red",
		CompletedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func startManager(t *testing.T, cfg Config, s sender) *Manager {
	t.Helper()
	m := NewManager(cfg)
	if s != nil {
		m.client = s
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := m.Start(ctx); err != nil {
		t.Fatalf("start manager: %v", err)
	}
	return m
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestDeliverPostsSignedPayload(t *testing.T) {
	type received struct {
		body      []byte
		signature string
		token     string
	}
	got := make(chan received, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got <- received{body: body, signature: r.Header.Get(SignatureHeader), token: r.Header.Get("X-Token")}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	m := startManager(t, Config{
		Enabled: true,
		Workers: 1,
		Targets: []Target{{Name: "rewards", Endpoint: srv.URL, Secret: "s3cret", Headers: map[string]string{"X-Token": "abc"}, Enabled: true}},
	}, nil)
	if err := m.Deliver(context.Background(), sampleCompletion()); err != nil {
		t.Fatalf("deliver: %v", err)
	}

	var r received
	select {
	case r = <-got:
	case <-time.After(2 * time.Second):
		t.Fatal("webhook never called")
	}
	var payload map[string]any
	if err := json.Unmarshal(r.body, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload["sessionId"] != "s-1" || payload["gameType"] != "connect4" || payload["winner"] != "red" {
		t.Fatalf("unexpected payload: %s", r.body)
	}
	if _, ok := payload["finalRankings"].([]any); !ok {
		t.Fatalf("missing finalRankings: %s", r.body)
	}
	if r.signature != Sign("s3cret", r.body) {
		t.Fatalf("bad signature %q", r.signature)
	}
	if r.token != "abc" {
		t.Fatalf("custom header missing, got %q", r.token)
	}
}

func TestHTTPClientReportsNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()
	err := NewHTTPClient(time.Second).Send(context.Background(), Target{Endpoint: srv.URL}, sampleCompletion())
	if err == nil {
		t.Fatal("expected error on 502")
	}
}

func TestRetryStopsAtMaxAttempts(t *testing.T) {
	s := &fakeSender{fail: true}
	m := startManager(t, Config{
		Enabled:   true,
		Targets:   []Target{{Name: "t", Endpoint: "https://example.com", Enabled: true}},
		Workers:   1,
		RetryMax:  1,
		RetryBase: 5 * time.Millisecond,
	}, s)

	if err := m.Deliver(context.Background(), sampleCompletion()); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	waitFor(t, "retry", func() bool { return s.Calls() >= 2 })
	time.Sleep(50 * time.Millisecond)
	if got := s.Calls(); got != 2 {
		t.Fatalf("expected 2 calls (initial + 1 retry), got %d", got)
	}
}

func TestRetryRecoversAfterTransientFailure(t *testing.T) {
	var mu sync.Mutex
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		hits++
		n := hits
		mu.Unlock()
		if n == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	startManager(t, Config{
		Enabled:   true,
		Targets:   []Target{{Name: "t", Endpoint: srv.URL, Enabled: true}},
		Workers:   1,
		RetryMax:  3,
		RetryBase: 5 * time.Millisecond,
	}, nil).Deliver(context.Background(), sampleCompletion())

	waitFor(t, "second attempt", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return hits >= 2
	})
	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if hits != 2 {
		t.Fatalf("expected success on the second attempt and no more, got %d hits", hits)
	}
}

func TestCircuitOpenSkipsSubsequentSends(t *testing.T) {
	s := &fakeSender{fail: true}
	m := startManager(t, Config{
		Enabled:             true,
		Targets:             []Target{{Name: "t", Endpoint: "https://example.com", Enabled: true}},
		Workers:             1,
		RetryMax:            0,
		RetryBase:           5 * time.Millisecond,
		FailureThreshold:    1,
		CircuitOpenDuration: 500 * time.Millisecond,
	}, s)

	m.Deliver(context.Background(), sampleCompletion())
	waitFor(t, "first send", func() bool { return s.Calls() == 1 })
	m.Deliver(context.Background(), sampleCompletion())
	time.Sleep(80 * time.Millisecond)

	if got := s.Calls(); got != 1 {
		t.Fatalf("expected 1 call due to circuit open, got %d", got)
	}
}

func TestDeliverRespectsGameFilter(t *testing.T) {
	s := &fakeSender{}
	m := startManager(t, Config{
		Enabled: true,
		Workers: 1,
		Targets: []Target{
			{Name: "poker-only", Endpoint: "https://a", Games: []string{"holdem"}, Enabled: true},
			{Name: "all", Endpoint: "https://b", Enabled: true},
		},
	}, s)

	m.Deliver(context.Background(), sampleCompletion())
	waitFor(t, "send", func() bool { return s.Calls() == 1 })
	time.Sleep(30 * time.Millisecond)
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.calls) != 1 || s.calls[0] != "all|s-1" {
		t.Fatalf("unexpected calls: %v", s.calls)
	}
}

func TestDeliverReportsFullQueue(t *testing.T) {
	m := NewManager(Config{
		Enabled:        true,
		DispatchBuffer: 1,
		Targets:        []Target{{Name: "t", Endpoint: "https://a", Enabled: true}},
	})
	// Not started: nothing drains the queue.
	if err := m.Deliver(context.Background(), sampleCompletion()); err != nil {
		t.Fatalf("first deliver: %v", err)
	}
	if err := m.Deliver(context.Background(), sampleCompletion()); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
}

func TestDisabledManagerIsANoop(t *testing.T) {
	s := &fakeSender{}
	m := startManager(t, Config{Targets: []Target{{Endpoint: "https://a", Enabled: true}}}, s)
	if err := m.Deliver(context.Background(), sampleCompletion()); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	if s.Calls() != 0 {
		t.Fatal("disabled manager must not send")
	}
}
