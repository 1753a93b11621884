package decision

import (
	"context"
	"encoding/json"
	"testing"

	"ai-arena/internal/game"
	"ai-arena/internal/game/battleship"
	"ai-arena/internal/game/connect4"
	"ai-arena/internal/game/holdem"
	"ai-arena/internal/game/wordguess"
)

func heuristicRequest(t *testing.T, a game.Adapter, s game.State, seat string) Request {
	t.Helper()
	return Request{
		Kind:         a.Kind(),
		Seat:         seat,
		State:        a.PublicView(s),
		SeatView:     a.View(s, seat),
		ValidActions: a.ValidActions(s, seat),
	}
}

func TestHeuristicConnect4TakesWin(t *testing.T) {
	a := connect4.New()
	s, _ := a.NewState([]string{"red", "blue"}, game.Options{})
	for _, move := range []struct {
		seat string
		col  int
	}{{"red", 0}, {"blue", 7}, {"red", 0}, {"blue", 7}, {"red", 0}, {"blue", 6}} {
		var err error
		if s, err = a.ProcessAction(s, move.seat, game.Action{Type: connect4.ActionDrop, Column: move.col}); err != nil {
			t.Fatalf("setup: %v", err)
		}
	}
	resp, err := NewHeuristicProvider().Decide(context.Background(), heuristicRequest(t, a, s, "red"))
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if resp.ChosenAction.Column != 0 {
		t.Fatalf("expected winning drop in column 0, got %d", resp.ChosenAction.Column)
	}
}

func TestHeuristicConnect4BlocksOverJSON(t *testing.T) {
	a := connect4.New()
	s, _ := a.NewState([]string{"red", "blue"}, game.Options{})
	for _, move := range []struct {
		seat string
		col  int
	}{{"red", 2}, {"blue", 7}, {"red", 2}, {"blue", 7}, {"red", 2}} {
		var err error
		if s, err = a.ProcessAction(s, move.seat, game.Action{Type: connect4.ActionDrop, Column: move.col}); err != nil {
			t.Fatalf("setup: %v", err)
		}
	}
	req := heuristicRequest(t, a, s, "blue")
	// Round-trip through JSON the way cmd/decision-bot receives it.
	raw, _ := json.Marshal(req)
	var wire Request
	if err := json.Unmarshal(raw, &wire); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	resp, err := NewHeuristicProvider().Decide(context.Background(), wire)
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if resp.ChosenAction.Column != 2 {
		t.Fatalf("expected block in column 2, got %d", resp.ChosenAction.Column)
	}
}

func TestHeuristicBattleshipFollowsHit(t *testing.T) {
	placer := func(size int, lengths []int) []battleship.Ship {
		return []battleship.Ship{{Length: 3, Cells: [][2]int{{4, 4}, {4, 5}, {4, 6}}}}
	}
	a := battleship.New(battleship.WithPlacer(placer), battleship.WithFleet(3))
	s, _ := a.NewState([]string{"a", "b"}, game.Options{})
	s, _ = a.ProcessAction(s, "a", game.Action{Type: battleship.ActionFire, Row: 4, Column: 4})
	s, _ = a.ProcessAction(s, "b", game.Action{Type: battleship.ActionFire, Row: 0, Column: 0})

	resp, err := NewHeuristicProvider().Decide(context.Background(), heuristicRequest(t, a, s, "a"))
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	r, c := resp.ChosenAction.Row, resp.ChosenAction.Column
	if abs(r-4)+abs(c-4) != 1 {
		t.Fatalf("expected a shot next to 4,4, got %d,%d", r, c)
	}
}

func TestHeuristicWordguessNarrowsCandidates(t *testing.T) {
	a := wordguess.New()
	s, _ := a.NewState([]string{"a"}, game.Options{Target: "the early bird catches the worm"})
	s, _ = a.ProcessAction(s, "a", game.Action{Type: wordguess.ActionGuess, Text: "early worm"})

	resp, err := NewHeuristicProvider().Decide(context.Background(), heuristicRequest(t, a, s, "a"))
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if resp.ChosenAction.Text != "the early bird catches the worm" {
		t.Fatalf("expected the matching phrase, got %q", resp.ChosenAction.Text)
	}
}

func TestHeuristicHoldemPlaysLegalAction(t *testing.T) {
	a := holdem.New()
	s, _ := a.NewState([]string{"a", "b"}, game.Options{})
	s, _ = a.StartNextRound(s)
	seat, _ := a.CurrentTurn(s)
	req := heuristicRequest(t, a, s, seat)
	resp, err := NewHeuristicProvider().Decide(context.Background(), req)
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if !game.Contains(req.ValidActions, resp.ChosenAction) {
		t.Fatalf("illegal heuristic action %+v", resp.ChosenAction)
	}
	if _, err := a.ProcessAction(s, seat, resp.ChosenAction); err != nil {
		t.Fatalf("heuristic action rejected: %v", err)
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
