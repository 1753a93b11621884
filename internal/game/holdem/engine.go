// Package holdem is the card-game adapter: no-limit hold'em for two to nine seats with
// blinds, side pots and an optional hand cap.
package holdem

import (
	"encoding/json"
	"fmt"
	"sort"

	"ai-arena/internal/game"
)

const (
	MaxSeats             = 9
	DefaultStartingChips = 10000
	DefaultSmallBlind    = 50
	DefaultBigBlind      = 100
)

type Adapter struct {
	shuffle Shuffler
}

type Option func(*Adapter)

// WithShuffler replaces the deck permutation, mostly for stacked decks in tests.
func WithShuffler(fn Shuffler) Option {
	return func(a *Adapter) {
		if fn != nil {
			a.shuffle = fn
		}
	}
}

func New(opts ...Option) *Adapter {
	a := &Adapter{shuffle: RandomShuffle}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Adapter) Kind() game.Kind { return game.KindHoldem }

// NewState seats every player with the same stack. No cards are dealt: the state sits at
// a hand boundary until StartNextRound deals hand one.
func (a *Adapter) NewState(seats []string, opts game.Options) (game.State, error) {
	if len(seats) < 2 || len(seats) > MaxSeats {
		return nil, fmt.Errorf("%w: holdem needs 2-%d seats, got %d", game.ErrInvalidState, MaxSeats, len(seats))
	}
	chips := opts.StartingChips
	if chips <= 0 {
		chips = DefaultStartingChips
	}
	sb, bb := opts.SmallBlind, opts.BigBlind
	if sb <= 0 {
		sb = DefaultSmallBlind
	}
	if bb <= 0 {
		bb = DefaultBigBlind
	}
	if sb > bb {
		return nil, fmt.Errorf("%w: small blind %d above big blind %d", game.ErrInvalidState, sb, bb)
	}
	seen := map[string]bool{}
	players := make([]Player, 0, len(seats))
	for _, id := range seats {
		if id == "" || seen[id] {
			return nil, fmt.Errorf("%w: duplicate or empty seat %q", game.ErrInvalidState, id)
		}
		seen[id] = true
		players = append(players, Player{ID: id, Stack: chips})
	}
	return &State{
		Players:       players,
		Phase:         PhaseHandComplete,
		SmallBlind:    sb,
		BigBlind:      bb,
		MinRaise:      bb,
		MaxHands:      opts.MaxHands,
		DealerPos:     noActor,
		SmallBlindPos: noActor,
		BigBlindPos:   noActor,
		CurrentActor:  noActor,
		LastAggressor: noActor,
		TotalChips:    chips * int64(len(players)),
	}, nil
}

func (a *Adapter) Validate(gs game.State) error {
	s, err := cast(gs)
	if err != nil {
		return err
	}
	if len(s.Players) < 2 || len(s.Players) > MaxSeats {
		return fmt.Errorf("%w: %d seats", game.ErrInvalidState, len(s.Players))
	}
	seen := map[string]bool{}
	for _, p := range s.Players {
		if p.ID == "" || seen[p.ID] {
			return fmt.Errorf("%w: duplicate or empty seat %q", game.ErrInvalidState, p.ID)
		}
		seen[p.ID] = true
		if p.Stack < 0 || p.RoundBet < 0 || p.TotalContrib < 0 {
			return fmt.Errorf("%w: negative chips for %s", game.ErrInvalidState, p.ID)
		}
	}
	if s.SmallBlind <= 0 || s.BigBlind < s.SmallBlind {
		return fmt.Errorf("%w: blinds %d/%d", game.ErrInvalidState, s.SmallBlind, s.BigBlind)
	}
	if s.TotalChips != s.chipsInPlay() {
		return fmt.Errorf("%w: chips in play %d, expected %d", game.ErrInvalidState, s.chipsInPlay(), s.TotalChips)
	}
	if s.CurrentActor < noActor || s.CurrentActor >= len(s.Players) {
		return fmt.Errorf("%w: current actor %d", game.ErrInvalidState, s.CurrentActor)
	}
	switch s.Phase {
	case PhasePreFlop, PhaseFlop, PhaseTurn, PhaseRiver:
		if s.CurrentActor == noActor || !s.Players[s.CurrentActor].canAct() {
			return fmt.Errorf("%w: no eligible actor in %s", game.ErrInvalidState, s.Phase)
		}
	case PhaseHandComplete, PhaseShowdown:
	default:
		return fmt.Errorf("%w: phase %q", game.ErrInvalidState, s.Phase)
	}
	cards := map[Card]bool{}
	check := func(cs []Card) error {
		for _, c := range cs {
			if cards[c] {
				return fmt.Errorf("%w: card %s appears twice", game.ErrInvalidState, c)
			}
			cards[c] = true
		}
		return nil
	}
	for _, group := range [][]Card{s.Deck, s.Burnt, s.Community} {
		if err := check(group); err != nil {
			return err
		}
	}
	for _, p := range s.Players {
		if err := check(p.Hole); err != nil {
			return err
		}
	}
	return nil
}

func (a *Adapter) ProcessAction(gs game.State, seat string, act game.Action) (game.State, error) {
	src, err := cast(gs)
	if err != nil {
		return nil, err
	}
	if a.IsComplete(src) {
		return nil, game.ErrGameOver
	}
	idx := src.seatIndex(seat)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q", game.ErrUnknownSeat, seat)
	}
	if err := validateAction(src, idx, act); err != nil {
		return nil, err
	}

	s := src.Clone()
	p := &s.Players[idx]
	need := max64(0, s.CurrentBet-p.RoundBet)

	switch ActionType(act.Type) {
	case ActionFold:
		p.Folded = true
	case ActionCheck:
	case ActionCall:
		s.pay(idx, min64(need, p.Stack))
	case ActionBet:
		s.pay(idx, act.Amount)
		s.raiseTo(idx, p.RoundBet)
	case ActionRaise:
		s.pay(idx, act.Amount-p.RoundBet)
		s.raiseTo(idx, p.RoundBet)
	case ActionAllIn:
		s.pay(idx, p.Stack)
		if p.RoundBet > s.CurrentBet {
			s.raiseTo(idx, p.RoundBet)
		}
	}
	p.Acted = true
	p.LastAction = ActionType(act.Type)

	if s.inHandCount() <= 1 {
		s.awardUncontested()
		return s, nil
	}
	if s.roundComplete() {
		s.endRound()
		return s, nil
	}
	s.CurrentActor = s.nextToAct(idx)
	return s, nil
}

func (a *Adapter) ValidActions(gs game.State, seat string) []game.Action {
	s, err := cast(gs)
	if err != nil || a.IsComplete(s) {
		return nil
	}
	return validActions(s, s.seatIndex(seat))
}

func (a *Adapter) IsComplete(gs game.State) bool {
	s, err := cast(gs)
	if err != nil {
		return false
	}
	if s.Phase != PhaseHandComplete {
		return false
	}
	if s.funded() <= 1 {
		return true
	}
	return s.MaxHands > 0 && s.HandNumber >= s.MaxHands
}

// Winner is the chip leader of a completed game, none on a tie.
func (a *Adapter) Winner(gs game.State) (string, bool) {
	s, err := cast(gs)
	if err != nil || !a.IsComplete(s) {
		return "", false
	}
	best, bestIdx, tied := int64(-1), -1, false
	for i, p := range s.Players {
		switch {
		case p.Stack > best:
			best, bestIdx, tied = p.Stack, i, false
		case p.Stack == best:
			tied = true
		}
	}
	if bestIdx < 0 || tied {
		return "", false
	}
	return s.Players[bestIdx].ID, true
}

func (a *Adapter) CurrentTurn(gs game.State) (string, bool) {
	s, err := cast(gs)
	if err != nil || a.IsComplete(s) {
		return "", false
	}
	if s.Phase == PhaseHandComplete || s.Phase == PhaseShowdown || s.CurrentActor == noActor {
		return "", false
	}
	return s.Players[s.CurrentActor].ID, true
}

func (a *Adapter) NeedsNextRound(gs game.State) bool {
	s, err := cast(gs)
	if err != nil {
		return false
	}
	return s.Phase == PhaseHandComplete && !a.IsComplete(s)
}

// StartNextRound deals the next hand: fresh shuffle, dealer moves one funded seat to
// the left, blinds are posted and two cards go to every funded seat.
func (a *Adapter) StartNextRound(gs game.State) (game.State, error) {
	src, err := cast(gs)
	if err != nil {
		return nil, err
	}
	if !a.NeedsNextRound(src) {
		return nil, fmt.Errorf("%w: no hand boundary in phase %s", game.ErrInvalidState, src.Phase)
	}
	s := src.Clone()
	for i := range s.Players {
		p := &s.Players[i]
		p.Hole = nil
		p.Folded = false
		p.AllIn = false
		p.Acted = false
		p.RoundBet = 0
		p.TotalContrib = 0
		p.LastAction = ""
		p.Out = p.Stack <= 0
	}
	seated := func(p *Player) bool { return !p.Out }

	s.HandNumber++
	s.Phase = PhasePreFlop
	s.Pot = 0
	s.CurrentBet = 0
	s.MinRaise = s.BigBlind
	s.Community = nil
	s.Burnt = nil
	s.LastAggressor = noActor
	s.Deck = FullDeck()
	a.shuffle(s.Deck)

	s.DealerPos = s.next(s.DealerPos, seated)
	if s.funded() == 2 {
		// Heads-up: the dealer posts the small blind and acts first preflop.
		s.SmallBlindPos = s.DealerPos
	} else {
		s.SmallBlindPos = s.next(s.DealerPos, seated)
	}
	s.BigBlindPos = s.next(s.SmallBlindPos, seated)

	for round := 0; round < 2; round++ {
		i := s.SmallBlindPos
		for dealt := 0; dealt < len(s.Players); dealt++ {
			if !s.Players[i].Out {
				s.Players[i].Hole = append(s.Players[i].Hole, s.deal())
			}
			i = (i + 1) % len(s.Players)
		}
	}

	s.pay(s.SmallBlindPos, min64(s.SmallBlind, s.Players[s.SmallBlindPos].Stack))
	s.pay(s.BigBlindPos, min64(s.BigBlind, s.Players[s.BigBlindPos].Stack))
	s.CurrentBet = max64(s.Players[s.SmallBlindPos].RoundBet, s.Players[s.BigBlindPos].RoundBet)

	if s.roundComplete() {
		s.endRound()
		return s, nil
	}
	s.CurrentActor = s.nextToAct(s.BigBlindPos)
	return s, nil
}

func (a *Adapter) FinalRankings(gs game.State) []game.Ranking {
	s, err := cast(gs)
	if err != nil {
		return nil
	}
	out := make([]game.Ranking, 0, len(s.Players))
	for _, p := range s.Players {
		out = append(out, game.Ranking{Seat: p.ID, Points: p.Stack})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Points > out[j].Points })
	for i := range out {
		if i > 0 && out[i].Points == out[i-1].Points {
			out[i].Rank = out[i-1].Rank
			continue
		}
		out[i].Rank = i + 1
	}
	return out
}

// Fallback checks when free, otherwise folds.
func (a *Adapter) Fallback(_ game.State, _ string, valid []game.Action) game.Action {
	for _, v := range valid {
		if v.Type == string(ActionCheck) {
			return v
		}
	}
	return game.Action{Type: string(ActionFold)}
}

func (a *Adapter) Decode(raw json.RawMessage) (game.State, error) {
	var s State
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode holdem state: %w", err)
	}
	return &s, nil
}

func cast(gs game.State) (*State, error) {
	s, ok := gs.(*State)
	if !ok || s == nil {
		return nil, fmt.Errorf("%w: want holdem state, got %T", game.ErrInvalidState, gs)
	}
	return s, nil
}

func (s *State) deal() Card {
	c := s.Deck[0]
	s.Deck = s.Deck[1:]
	return c
}

func (s *State) pay(idx int, amount int64) {
	if amount <= 0 {
		return
	}
	p := &s.Players[idx]
	amount = min64(amount, p.Stack)
	p.Stack -= amount
	p.RoundBet += amount
	p.TotalContrib += amount
	s.Pot += amount
	if p.Stack == 0 {
		p.AllIn = true
	}
}

// raiseTo moves the current bet and reopens action for everyone else still able to act.
func (s *State) raiseTo(idx int, to int64) {
	if to <= s.CurrentBet {
		return
	}
	if inc := to - s.CurrentBet; inc >= s.MinRaise {
		s.MinRaise = inc
	}
	s.CurrentBet = to
	s.LastAggressor = idx
	for i := range s.Players {
		if i != idx && s.Players[i].canAct() {
			s.Players[i].Acted = false
		}
	}
}

func (s *State) roundComplete() bool {
	if s.inHandCount() <= 1 {
		return true
	}
	actors := s.canActCount()
	for i := range s.Players {
		p := &s.Players[i]
		if !p.canAct() {
			continue
		}
		if p.RoundBet < s.CurrentBet {
			return false
		}
		// A lone player who can still bet has nobody left to act against.
		if !p.Acted && actors > 1 {
			return false
		}
	}
	return true
}

func (s *State) nextToAct(from int) int {
	return s.next(from, func(p *Player) bool {
		return p.canAct() && (!p.Acted || p.RoundBet < s.CurrentBet)
	})
}

// endRound deals the next street, running the board out when fewer than two seats can
// still bet, and settles after the river.
func (s *State) endRound() {
	for {
		if s.Phase == PhaseRiver {
			s.showdown()
			return
		}
		s.nextStreet()
		if s.canActCount() >= 2 {
			s.CurrentActor = s.nextToAct(s.DealerPos)
			return
		}
	}
}

func (s *State) nextStreet() {
	for i := range s.Players {
		s.Players[i].RoundBet = 0
		s.Players[i].Acted = false
	}
	s.CurrentBet = 0
	s.MinRaise = s.BigBlind
	s.CurrentActor = noActor
	s.Burnt = append(s.Burnt, s.deal())
	switch s.Phase {
	case PhasePreFlop:
		s.Community = append(s.Community, s.deal(), s.deal(), s.deal())
		s.Phase = PhaseFlop
	case PhaseFlop:
		s.Community = append(s.Community, s.deal())
		s.Phase = PhaseTurn
	case PhaseTurn:
		s.Community = append(s.Community, s.deal())
		s.Phase = PhaseRiver
	}
}

func (s *State) awardUncontested() {
	winner := s.next(-1, func(p *Player) bool { return p.inHand() })
	result := &HandResult{HandNumber: s.HandNumber, Board: append([]Card(nil), s.Community...)}
	if winner != noActor {
		s.Players[winner].Stack += s.Pot
		result.Awards = []PotAward{{Seat: s.Players[winner].ID, Amount: s.Pot, Category: -1}}
	}
	s.Pot = 0
	s.finishHand(result)
}

// showdown evaluates every live hand and pays each layered pot to its best eligible
// hands. Odd chips go to the first winner left of the dealer.
func (s *State) showdown() {
	s.Phase = PhaseShowdown
	s.CurrentActor = noActor
	result := &HandResult{
		HandNumber: s.HandNumber,
		Showdown:   true,
		Board:      append([]Card(nil), s.Community...),
		Shown:      map[string][]Card{},
	}

	contribs := make([]int64, len(s.Players))
	live := make([]bool, len(s.Players))
	ranks := make([]HandRank, len(s.Players))
	for i := range s.Players {
		p := &s.Players[i]
		contribs[i] = p.TotalContrib
		live[i] = p.inHand()
		if live[i] {
			cards := append(append([]Card(nil), p.Hole...), s.Community...)
			ranks[i] = Evaluate(cards)
			result.Shown[p.ID] = append([]Card(nil), p.Hole...)
		}
	}

	awarded := map[int]int64{}
	pots := ComputePots(contribs, live)
	if len(pots) == 0 {
		pots = []Pot{{Amount: s.Pot, Eligible: []int{s.next(-1, func(p *Player) bool { return p.inHand() })}}}
	}
	for _, pot := range pots {
		winners := []int{}
		for _, i := range pot.Eligible {
			if len(winners) == 0 {
				winners = append(winners, i)
				continue
			}
			switch ranks[i].Compare(ranks[winners[0]]) {
			case 1:
				winners = []int{i}
			case 0:
				winners = append(winners, i)
			}
		}
		share := pot.Amount / int64(len(winners))
		odd := pot.Amount - share*int64(len(winners))
		for _, i := range winners {
			awarded[i] += share
		}
		for step := 1; odd > 0 && step <= len(s.Players); step++ {
			i := (s.DealerPos + step) % len(s.Players)
			for _, w := range winners {
				if w == i {
					awarded[i]++
					odd--
					break
				}
			}
		}
	}

	for i := range s.Players {
		if amount := awarded[i]; amount > 0 {
			s.Players[i].Stack += amount
			s.Pot -= amount
			result.Awards = append(result.Awards, PotAward{Seat: s.Players[i].ID, Amount: amount, Category: ranks[i].Category})
		}
	}
	s.finishHand(result)
}

func (s *State) finishHand(result *HandResult) {
	for i := range s.Players {
		s.Players[i].RoundBet = 0
		s.Players[i].Acted = false
	}
	s.CurrentBet = 0
	s.CurrentActor = noActor
	s.Phase = PhaseHandComplete
	s.LastResult = result
}
