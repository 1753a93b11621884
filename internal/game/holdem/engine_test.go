package holdem

import (
	"encoding/json"
	"errors"
	"math/rand"
	"testing"

	"ai-arena/internal/game"
)

// stackedDeck puts prefix on top of the deck and leaves every other card in FullDeck order.
func stackedDeck(t *testing.T, prefix ...string) []Card {
	t.Helper()
	top := mustCards(t, prefix...)
	used := map[Card]bool{}
	for _, c := range top {
		used[c] = true
	}
	deck := append([]Card(nil), top...)
	for _, c := range FullDeck() {
		if !used[c] {
			deck = append(deck, c)
		}
	}
	return deck
}

func stackedShuffler(decks ...[]Card) Shuffler {
	n := 0
	return func(cards []Card) {
		copy(cards, decks[n%len(decks)])
		n++
	}
}

func mustAct(t *testing.T, a *Adapter, s game.State, seat string, act game.Action) game.State {
	t.Helper()
	next, err := a.ProcessAction(s, seat, act)
	if err != nil {
		t.Fatalf("%s %s: %v", seat, act.Type, err)
	}
	if err := a.Validate(next); err != nil {
		t.Fatalf("state invalid after %s %s: %v", seat, act.Type, err)
	}
	return next
}

func startHand(t *testing.T, a *Adapter, s game.State) game.State {
	t.Helper()
	if !a.NeedsNextRound(s) {
		t.Fatalf("expected hand boundary")
	}
	next, err := a.StartNextRound(s)
	if err != nil {
		t.Fatalf("start hand: %v", err)
	}
	return next
}

func checkTurn(t *testing.T, a *Adapter, s game.State, want string) {
	t.Helper()
	got, ok := a.CurrentTurn(s)
	if !ok || got != want {
		t.Fatalf("expected turn %s, got %q (ok=%v)", want, got, ok)
	}
}

func TestNewStateDefaults(t *testing.T) {
	a := New()
	gs, err := a.NewState([]string{"a", "b"}, game.Options{})
	if err != nil {
		t.Fatalf("new state: %v", err)
	}
	s := gs.(*State)
	if s.Players[0].Stack != DefaultStartingChips || s.SmallBlind != DefaultSmallBlind || s.BigBlind != DefaultBigBlind {
		t.Fatalf("unexpected defaults: %+v", s)
	}
	if _, ok := a.CurrentTurn(s); ok {
		t.Fatalf("expected no actor before the first hand")
	}
	if a.IsComplete(s) || !a.NeedsNextRound(s) {
		t.Fatalf("expected a pending first hand")
	}
	if err := a.Validate(s); err != nil {
		t.Fatalf("validate: %v", err)
	}

	if _, err := a.NewState([]string{"a"}, game.Options{}); !errors.Is(err, game.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState for one seat, got %v", err)
	}
	if _, err := a.NewState([]string{"a", "a"}, game.Options{}); !errors.Is(err, game.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState for duplicate seat, got %v", err)
	}
}

func TestHeadsUpBlinds(t *testing.T) {
	a := New()
	gs, _ := a.NewState([]string{"a", "b"}, game.Options{StartingChips: 1000, SmallBlind: 10, BigBlind: 20})
	gs = startHand(t, a, gs)
	s := gs.(*State)

	if s.Pot != 30 || s.Players[0].Stack != 990 || s.Players[1].Stack != 980 {
		t.Fatalf("unexpected blinds: pot=%d stacks=%d/%d", s.Pot, s.Players[0].Stack, s.Players[1].Stack)
	}
	if len(s.Players[0].Hole) != 2 || len(s.Players[1].Hole) != 2 || len(s.Deck) != 48 {
		t.Fatalf("unexpected deal: %d/%d cards, deck %d", len(s.Players[0].Hole), len(s.Players[1].Hole), len(s.Deck))
	}
	// Heads-up the dealer posts the small blind and acts first.
	checkTurn(t, a, s, "a")
	valid := a.ValidActions(s, "a")
	if !game.Contains(valid, game.Action{Type: "call"}) || game.Contains(valid, game.Action{Type: "check"}) {
		t.Fatalf("unexpected valid actions: %+v", valid)
	}
	if len(a.ValidActions(s, "b")) != 0 {
		t.Fatalf("expected no actions for the seat not on turn")
	}
}

func TestThreeWayBlindPositions(t *testing.T) {
	a := New()
	gs, _ := a.NewState([]string{"a", "b", "c"}, game.Options{})
	gs = startHand(t, a, gs)
	s := gs.(*State)
	if s.DealerPos != 0 || s.SmallBlindPos != 1 || s.BigBlindPos != 2 {
		t.Fatalf("unexpected positions: d=%d sb=%d bb=%d", s.DealerPos, s.SmallBlindPos, s.BigBlindPos)
	}
	checkTurn(t, a, s, "a")

	gs = mustAct(t, a, gs, "a", game.Action{Type: "call"})
	gs = mustAct(t, a, gs, "b", game.Action{Type: "call"})
	// Big blind keeps the option to raise after everyone limps.
	checkTurn(t, a, gs, "c")
	gs = mustAct(t, a, gs, "c", game.Action{Type: "check"})
	if gs.(*State).Phase != PhaseFlop {
		t.Fatalf("expected flop, got %s", gs.(*State).Phase)
	}
	checkTurn(t, a, gs, "b")
}

func TestRaiseReopensAction(t *testing.T) {
	a := New()
	gs, _ := a.NewState([]string{"a", "b", "c"}, game.Options{})
	gs = startHand(t, a, gs)

	gs = mustAct(t, a, gs, "a", game.Action{Type: "call"})
	gs = mustAct(t, a, gs, "b", game.Action{Type: "raise", Amount: 300})
	s := gs.(*State)
	if s.CurrentBet != 300 || s.MinRaise != 200 {
		t.Fatalf("unexpected bet after raise: current=%d min=%d", s.CurrentBet, s.MinRaise)
	}
	checkTurn(t, a, gs, "c")
	gs = mustAct(t, a, gs, "c", game.Action{Type: "call"})
	checkTurn(t, a, gs, "a")
	gs = mustAct(t, a, gs, "a", game.Action{Type: "fold"})
	if gs.(*State).Phase != PhaseFlop {
		t.Fatalf("expected flop after call, got %s", gs.(*State).Phase)
	}
}

func TestFoldAwardsPot(t *testing.T) {
	a := New()
	gs, _ := a.NewState([]string{"a", "b"}, game.Options{})
	gs = startHand(t, a, gs)
	gs = mustAct(t, a, gs, "a", game.Action{Type: "fold"})

	s := gs.(*State)
	if s.Phase != PhaseHandComplete || s.Pot != 0 {
		t.Fatalf("expected settled hand, phase=%s pot=%d", s.Phase, s.Pot)
	}
	if s.Players[0].Stack != 9950 || s.Players[1].Stack != 10050 {
		t.Fatalf("unexpected stacks: %d/%d", s.Players[0].Stack, s.Players[1].Stack)
	}
	if s.LastResult == nil || s.LastResult.Showdown || s.LastResult.Awards[0].Seat != "b" {
		t.Fatalf("unexpected result: %+v", s.LastResult)
	}
	if _, ok := a.CurrentTurn(s); ok {
		t.Fatalf("expected no actor at hand boundary")
	}
	if !a.NeedsNextRound(s) {
		t.Fatalf("expected next hand")
	}
}

func TestInvalidActions(t *testing.T) {
	a := New()
	gs, _ := a.NewState([]string{"a", "b"}, game.Options{})
	gs = startHand(t, a, gs)
	before := gs.(*State).Clone()

	if _, err := a.ProcessAction(gs, "a", game.Action{Type: "check"}); !errors.Is(err, game.ErrInvalidAction) {
		t.Fatalf("expected ErrInvalidAction for check facing blind, got %v", err)
	}
	if _, err := a.ProcessAction(gs, "b", game.Action{Type: "call"}); !errors.Is(err, game.ErrNotYourTurn) {
		t.Fatalf("expected ErrNotYourTurn, got %v", err)
	}
	if _, err := a.ProcessAction(gs, "z", game.Action{Type: "fold"}); !errors.Is(err, game.ErrUnknownSeat) {
		t.Fatalf("expected ErrUnknownSeat, got %v", err)
	}
	if _, err := a.ProcessAction(gs, "a", game.Action{Type: "raise", Amount: 150}); !errors.Is(err, game.ErrInvalidAction) {
		t.Fatalf("expected ErrInvalidAction for short raise, got %v", err)
	}
	if _, err := a.ProcessAction(gs, "a", game.Action{Type: "dance"}); !errors.Is(err, game.ErrInvalidAction) {
		t.Fatalf("expected ErrInvalidAction for unknown action, got %v", err)
	}

	if _, err := a.ProcessAction(gs, "a", game.Action{Type: "raise", Amount: 300}); err != nil {
		t.Fatalf("raise: %v", err)
	}
	after := gs.(*State)
	if after.Pot != before.Pot || after.Players[0].Stack != before.Players[0].Stack || after.CurrentBet != before.CurrentBet {
		t.Fatalf("input state was mutated")
	}
}

func TestShortStackPostsAllInBlind(t *testing.T) {
	a := New()
	gs, _ := a.NewState([]string{"a", "b"}, game.Options{})
	s := gs.(*State)
	s.Players[1].Stack = 60
	s.Players[0].Stack = 19940
	gs = startHand(t, a, s)
	s = gs.(*State)
	if !s.Players[1].AllIn || s.Players[1].RoundBet != 60 {
		t.Fatalf("expected all-in blind, got %+v", s.Players[1])
	}
	checkTurn(t, a, gs, "a")
	gs = mustAct(t, a, gs, "a", game.Action{Type: "call"})
	s = gs.(*State)
	if s.Phase != PhaseHandComplete || len(s.Community) != 5 {
		t.Fatalf("expected board run out, phase=%s board=%d", s.Phase, len(s.Community))
	}
}

// Scenario A: two seats check hand one down, then the short seat busts.
func TestHeadsUpCheckDownThenBust(t *testing.T) {
	board := []string{"5s", "Kd", "Qs", "3h", "6s", "8c", "9s", "4d"}
	hand1 := stackedDeck(t, append([]string{"2c", "As", "7d", "Ah"}, board...)...)
	hand2 := stackedDeck(t, append([]string{"As", "2c", "Ah", "7d"}, board...)...)
	a := New(WithShuffler(stackedShuffler(hand1, hand2)))

	gs, err := a.NewState([]string{"a", "b"}, game.Options{StartingChips: 10000, SmallBlind: 50, BigBlind: 100})
	if err != nil {
		t.Fatalf("new state: %v", err)
	}
	gs = startHand(t, a, gs)
	if pot := gs.(*State).Pot; pot != 150 {
		t.Fatalf("expected blinds pot 150, got %d", pot)
	}
	gs = mustAct(t, a, gs, "a", game.Action{Type: "call"})
	gs = mustAct(t, a, gs, "b", game.Action{Type: "check"})
	for street := 0; street < 3; street++ {
		checkTurn(t, a, gs, "b")
		gs = mustAct(t, a, gs, "b", game.Action{Type: "check"})
		gs = mustAct(t, a, gs, "a", game.Action{Type: "check"})
	}
	s := gs.(*State)
	if s.Phase != PhaseHandComplete || s.LastResult == nil || !s.LastResult.Showdown {
		t.Fatalf("expected showdown, got phase %s result %+v", s.Phase, s.LastResult)
	}
	if len(s.LastResult.Awards) != 1 || s.LastResult.Awards[0].Seat != "b" || s.LastResult.Awards[0].Amount != 200 {
		t.Fatalf("unexpected awards: %+v", s.LastResult.Awards)
	}
	if a.IsComplete(s) {
		t.Fatalf("game should continue after hand one")
	}

	gs = startHand(t, a, gs)
	checkTurn(t, a, gs, "b")
	gs = mustAct(t, a, gs, "b", game.Action{Type: "call"})
	gs = mustAct(t, a, gs, "a", game.Action{Type: "allin"})
	gs = mustAct(t, a, gs, "b", game.Action{Type: "call"})

	s = gs.(*State)
	if s.Players[0].Stack != 0 || s.Players[1].Stack != 20000 {
		t.Fatalf("expected bust, stacks %d/%d", s.Players[0].Stack, s.Players[1].Stack)
	}
	if !a.IsComplete(s) {
		t.Fatalf("expected game complete")
	}
	if w, ok := a.Winner(s); !ok || w != "b" {
		t.Fatalf("expected winner b, got %q", w)
	}
	rankings := a.FinalRankings(s)
	if rankings[0].Seat != "b" || rankings[0].Rank != 1 || rankings[1].Rank != 2 {
		t.Fatalf("unexpected rankings: %+v", rankings)
	}
	if _, err := a.ProcessAction(s, "a", game.Action{Type: "fold"}); !errors.Is(err, game.ErrGameOver) {
		t.Fatalf("expected ErrGameOver, got %v", err)
	}
}

func TestSplitPotChops(t *testing.T) {
	// Both seats play the board straight; the pot splits evenly.
	deck := stackedDeck(t, "2c", "3d", "2h", "3c", "Js", "Th", "9d", "8c", "Kh", "7s", "Qd", "6h", "Ac")
	a := New(WithShuffler(stackedShuffler(deck)))
	gs, _ := a.NewState([]string{"a", "b"}, game.Options{SmallBlind: 5, BigBlind: 10})
	gs = startHand(t, a, gs)
	gs = mustAct(t, a, gs, "a", game.Action{Type: "call"})
	gs = mustAct(t, a, gs, "b", game.Action{Type: "check"})
	for street := 0; street < 3; street++ {
		gs = mustAct(t, a, gs, "b", game.Action{Type: "check"})
		gs = mustAct(t, a, gs, "a", game.Action{Type: "check"})
	}
	s := gs.(*State)
	if s.Players[0].Stack != 10000 || s.Players[1].Stack != 10000 {
		t.Fatalf("expected chopped pot, stacks %d/%d", s.Players[0].Stack, s.Players[1].Stack)
	}
	if len(s.LastResult.Awards) != 2 {
		t.Fatalf("expected two awards, got %+v", s.LastResult.Awards)
	}
}

func TestMaxHandsCap(t *testing.T) {
	a := New()
	gs, _ := a.NewState([]string{"a", "b"}, game.Options{MaxHands: 1})
	gs = startHand(t, a, gs)
	gs = mustAct(t, a, gs, "a", game.Action{Type: "fold"})
	if !a.IsComplete(gs) || a.NeedsNextRound(gs) {
		t.Fatalf("expected cap to end the game")
	}
	if w, ok := a.Winner(gs); !ok || w != "b" {
		t.Fatalf("expected chip leader b, got %q", w)
	}
}

func TestFallbackChecksOrFolds(t *testing.T) {
	a := New()
	valid := []game.Action{{Type: "fold"}, {Type: "check"}, {Type: "bet", Amount: 100}}
	if got := a.Fallback(nil, "a", valid); got.Type != "check" {
		t.Fatalf("expected check, got %s", got.Type)
	}
	valid = []game.Action{{Type: "fold"}, {Type: "call", Amount: 100}}
	if got := a.Fallback(nil, "a", valid); got.Type != "fold" {
		t.Fatalf("expected fold, got %s", got.Type)
	}
}

func TestSeatViewHidesOpponentCards(t *testing.T) {
	a := New()
	gs, _ := a.NewState([]string{"a", "b"}, game.Options{})
	gs = startHand(t, a, gs)

	v := a.View(gs, "a").(*View)
	if len(v.Players[0].Hole) != 2 || len(v.Players[1].Hole) != 0 {
		t.Fatalf("seat view leaked cards: %+v", v.Players)
	}
	if len(v.ValidActions) == 0 || v.ToCall != 50 {
		t.Fatalf("expected actions and to_call 50, got %+v", v)
	}
	pub := a.PublicView(gs).(*View)
	for _, p := range pub.Players {
		if len(p.Hole) != 0 {
			t.Fatalf("public view leaked cards: %+v", p)
		}
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	a := New()
	gs, _ := a.NewState([]string{"a", "b", "c"}, game.Options{})
	gs = startHand(t, a, gs)
	raw, err := json.Marshal(gs)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	back, err := a.Decode(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if err := a.Validate(back); err != nil {
		t.Fatalf("decoded state invalid: %v", err)
	}
	want, _ := a.CurrentTurn(gs)
	checkTurn(t, a, back, want)
}

// Random legal play keeps every chip accounted for and only ever offers actions to the
// seat on turn.
func TestRandomPlayConservesChips(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		rng := rand.New(rand.NewSource(seed))
		a := New(WithShuffler(func(cards []Card) {
			rng.Shuffle(len(cards), func(i, j int) { cards[i], cards[j] = cards[j], cards[i] })
		}))
		seats := []string{"a", "b", "c", "d", "e", "f"}[:2+int(seed%5)]
		gs, err := a.NewState(seats, game.Options{StartingChips: 2000, SmallBlind: 25, BigBlind: 50, MaxHands: 40})
		if err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
		total := gs.(*State).TotalChips

		for step := 0; step < 20000 && !a.IsComplete(gs); step++ {
			if a.NeedsNextRound(gs) {
				if gs, err = a.StartNextRound(gs); err != nil {
					t.Fatalf("seed %d: start hand: %v", seed, err)
				}
				continue
			}
			actor, ok := a.CurrentTurn(gs)
			if !ok {
				t.Fatalf("seed %d: no actor mid-hand: %+v", seed, gs)
			}
			for _, seat := range seats {
				if seat != actor && len(a.ValidActions(gs, seat)) != 0 {
					t.Fatalf("seed %d: %s offered actions on %s's turn", seed, seat, actor)
				}
			}
			valid := a.ValidActions(gs, actor)
			if len(valid) == 0 {
				t.Fatalf("seed %d: actor %s has no actions", seed, actor)
			}
			gs = mustAct(t, a, gs, actor, valid[rng.Intn(len(valid))])
			s := gs.(*State)
			if s.chipsInPlay() != total {
				t.Fatalf("seed %d: chips %d, expected %d", seed, s.chipsInPlay(), total)
			}
		}
		if !a.IsComplete(gs) {
			t.Fatalf("seed %d: game did not finish", seed)
		}
	}
}
