package holdem

import "ai-arena/internal/game"

type ActionType string

const (
	ActionFold  ActionType = "fold"
	ActionCheck ActionType = "check"
	ActionCall  ActionType = "call"
	ActionBet   ActionType = "bet"
	ActionRaise ActionType = "raise"
	ActionAllIn ActionType = "allin"
)

type Phase string

const (
	PhasePreFlop      Phase = "preflop"
	PhaseFlop         Phase = "flop"
	PhaseTurn         Phase = "turn"
	PhaseRiver        Phase = "river"
	PhaseShowdown     Phase = "showdown"
	PhaseHandComplete Phase = "hand_complete"
)

const noActor = -1

type Player struct {
	ID           string     `json:"id"`
	Stack        int64      `json:"stack"`
	Hole         []Card     `json:"hole,omitempty"`
	Folded       bool       `json:"folded"`
	AllIn        bool       `json:"all_in"`
	Acted        bool       `json:"acted"`
	Out          bool       `json:"out"`
	RoundBet     int64      `json:"round_bet"`
	TotalContrib int64      `json:"total_contrib"`
	LastAction   ActionType `json:"last_action,omitempty"`
}

// inHand reports whether the player was dealt into the current hand and has not folded.
func (p *Player) inHand() bool {
	return !p.Out && !p.Folded
}

func (p *Player) canAct() bool {
	return p.inHand() && !p.AllIn
}

type PotAward struct {
	Seat     string `json:"seat"`
	Amount   int64  `json:"amount"`
	Category int    `json:"category"`
}

type HandResult struct {
	HandNumber int               `json:"hand_number"`
	Showdown   bool              `json:"showdown"`
	Board      []Card            `json:"board"`
	Shown      map[string][]Card `json:"shown,omitempty"`
	Awards     []PotAward        `json:"awards"`
}

// State is the holdem variant of game.State. Chips are conserved: the sum of every
// stack plus Pot always equals TotalChips.
type State struct {
	Players       []Player    `json:"players"`
	Deck          []Card      `json:"deck"`
	Burnt         []Card      `json:"burnt"`
	Community     []Card      `json:"community"`
	Phase         Phase       `json:"phase"`
	Pot           int64       `json:"pot"`
	CurrentBet    int64       `json:"current_bet"`
	MinRaise      int64       `json:"min_raise"`
	SmallBlind    int64       `json:"small_blind"`
	BigBlind      int64       `json:"big_blind"`
	HandNumber    int         `json:"hand_number"`
	MaxHands      int         `json:"max_hands,omitempty"`
	DealerPos     int         `json:"dealer_pos"`
	SmallBlindPos int         `json:"small_blind_pos"`
	BigBlindPos   int         `json:"big_blind_pos"`
	CurrentActor  int         `json:"current_actor"`
	LastAggressor int         `json:"last_aggressor"`
	TotalChips    int64       `json:"total_chips"`
	LastResult    *HandResult `json:"last_result,omitempty"`
}

func (s *State) Kind() game.Kind { return game.KindHoldem }

func (s *State) Clone() *State {
	out := *s
	out.Players = make([]Player, len(s.Players))
	for i, p := range s.Players {
		p.Hole = append([]Card(nil), p.Hole...)
		out.Players[i] = p
	}
	out.Deck = append([]Card(nil), s.Deck...)
	out.Burnt = append([]Card(nil), s.Burnt...)
	out.Community = append([]Card(nil), s.Community...)
	if s.LastResult != nil {
		r := *s.LastResult
		r.Board = append([]Card(nil), r.Board...)
		r.Awards = append([]PotAward(nil), r.Awards...)
		if r.Shown != nil {
			shown := make(map[string][]Card, len(r.Shown))
			for k, v := range r.Shown {
				shown[k] = append([]Card(nil), v...)
			}
			r.Shown = shown
		}
		out.LastResult = &r
	}
	return &out
}

func (s *State) seatIndex(id string) int {
	for i := range s.Players {
		if s.Players[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *State) chipsInPlay() int64 {
	total := s.Pot
	for _, p := range s.Players {
		total += p.Stack
	}
	return total
}

func (s *State) funded() int {
	n := 0
	for _, p := range s.Players {
		if p.Stack > 0 {
			n++
		}
	}
	return n
}

func (s *State) inHandCount() int {
	n := 0
	for i := range s.Players {
		if s.Players[i].inHand() {
			n++
		}
	}
	return n
}

func (s *State) canActCount() int {
	n := 0
	for i := range s.Players {
		if s.Players[i].canAct() {
			n++
		}
	}
	return n
}

// next returns the first index after from (cyclic) satisfying ok, or noActor.
func (s *State) next(from int, ok func(p *Player) bool) int {
	n := len(s.Players)
	for step := 1; step <= n; step++ {
		i := ((from+step)%n + n) % n
		if ok(&s.Players[i]) {
			return i
		}
	}
	return noActor
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
