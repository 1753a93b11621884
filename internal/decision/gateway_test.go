package decision

import (
	"context"
	"errors"
	"testing"
	"time"

	"ai-arena/internal/game"
	"ai-arena/internal/game/connect4"
)

func connect4Setup(t *testing.T) (*connect4.Adapter, game.State) {
	t.Helper()
	a := connect4.New()
	s, err := a.NewState([]string{"red", "blue"}, game.Options{Columns: 7})
	if err != nil {
		t.Fatalf("new state: %v", err)
	}
	return a, s
}

func TestGatewayBoundsSlowProvider(t *testing.T) {
	a, s := connect4Setup(t)
	// The provider ignores its context entirely.
	slow := FuncProvider(func(ctx context.Context, req Request) (Response, error) {
		time.Sleep(2 * time.Second)
		return Response{ChosenAction: req.ValidActions[0]}, nil
	})
	gw := NewGateway(slow, map[game.Kind]time.Duration{game.KindConnect4: 50 * time.Millisecond})

	start := time.Now()
	res := gw.Decide(context.Background(), a, s, "s1", "red")
	elapsed := time.Since(start)

	if elapsed > 500*time.Millisecond {
		t.Fatalf("decision took %s, expected about 50ms", elapsed)
	}
	if !res.Fallback || res.Action.Column != 3 {
		t.Fatalf("expected centre fallback, got %+v", res)
	}
}

func TestGatewayFallsBackOnError(t *testing.T) {
	a, s := connect4Setup(t)
	failing := FuncProvider(func(ctx context.Context, req Request) (Response, error) {
		return Response{}, errors.New("connection refused")
	})
	res := NewGateway(failing, nil).Decide(context.Background(), a, s, "s1", "red")
	if !res.Fallback || res.Reason == "" {
		t.Fatalf("expected fallback with reason, got %+v", res)
	}
}

func TestGatewayRejectsIllegalChoice(t *testing.T) {
	a, s := connect4Setup(t)
	cheat := FuncProvider(func(ctx context.Context, req Request) (Response, error) {
		return Response{ChosenAction: game.Action{Type: "flip_board"}}, nil
	})
	res := NewGateway(cheat, nil).Decide(context.Background(), a, s, "s1", "red")
	if !res.Fallback {
		t.Fatalf("expected illegal action to fall back, got %+v", res)
	}
}

func TestGatewayPassesThroughLegalChoice(t *testing.T) {
	a, s := connect4Setup(t)
	var seen Request
	p := FuncProvider(func(ctx context.Context, req Request) (Response, error) {
		seen = req
		return Response{ChosenAction: game.Action{Type: connect4.ActionDrop, Column: 6}, Confidence: 0.9, Rationale: "edge"}, nil
	})
	res := NewGateway(p, nil).Decide(context.Background(), a, s, "s1", "red")
	if res.Fallback || res.Action.Column != 6 || res.Confidence != 0.9 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if seen.SessionID != "s1" || seen.Kind != game.KindConnect4 || len(seen.ValidActions) != 7 || seen.DeadlineMs != 5000 {
		t.Fatalf("unexpected request: %+v", seen)
	}
}

func TestGatewayHonoursCancel(t *testing.T) {
	a, s := connect4Setup(t)
	blocking := FuncProvider(func(ctx context.Context, req Request) (Response, error) {
		<-ctx.Done()
		return Response{}, ctx.Err()
	})
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	res := NewGateway(blocking, nil).Decide(ctx, a, s, "s1", "red")
	if !res.Fallback {
		t.Fatalf("expected fallback after cancel, got %+v", res)
	}
}
