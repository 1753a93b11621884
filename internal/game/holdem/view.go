package holdem

import "ai-arena/internal/game"

type PlayerView struct {
	ID         string     `json:"id"`
	Stack      int64      `json:"stack"`
	RoundBet   int64      `json:"round_bet"`
	Folded     bool       `json:"folded"`
	AllIn      bool       `json:"all_in"`
	Out        bool       `json:"out"`
	LastAction ActionType `json:"last_action,omitempty"`
	Hole       []string   `json:"hole,omitempty"`
}

type HandResultView struct {
	HandNumber int                 `json:"hand_number"`
	Showdown   bool                `json:"showdown"`
	Board      []string            `json:"board"`
	Shown      map[string][]string `json:"shown,omitempty"`
	Awards     []PotAward          `json:"awards"`
}

// View is what a seat (or the public) may see: the deck and other seats' hole cards
// never leave the engine.
type View struct {
	Kind         game.Kind       `json:"kind"`
	HandNumber   int             `json:"hand_number"`
	MaxHands     int             `json:"max_hands,omitempty"`
	Phase        Phase           `json:"phase"`
	Community    []string        `json:"community"`
	Pot          int64           `json:"pot"`
	CurrentBet   int64           `json:"current_bet"`
	MinRaise     int64           `json:"min_raise"`
	SmallBlind   int64           `json:"small_blind"`
	BigBlind     int64           `json:"big_blind"`
	Dealer       string          `json:"dealer,omitempty"`
	CurrentActor string          `json:"current_actor,omitempty"`
	Seat         string          `json:"seat,omitempty"`
	Players      []PlayerView    `json:"players"`
	LastResult   *HandResultView `json:"last_result,omitempty"`
	ToCall       int64           `json:"to_call,omitempty"`
	ValidActions []game.Action   `json:"valid_actions,omitempty"`
}

func (a *Adapter) View(gs game.State, seat string) any {
	s, err := cast(gs)
	if err != nil {
		return nil
	}
	v := buildView(s)
	idx := s.seatIndex(seat)
	if idx < 0 {
		return v
	}
	v.Seat = seat
	v.Players[idx].Hole = cardStrings(s.Players[idx].Hole)
	v.ToCall = max64(0, s.CurrentBet-s.Players[idx].RoundBet)
	v.ValidActions = a.ValidActions(s, seat)
	return v
}

func (a *Adapter) PublicView(gs game.State) any {
	s, err := cast(gs)
	if err != nil {
		return nil
	}
	return buildView(s)
}

func buildView(s *State) *View {
	v := &View{
		Kind:       game.KindHoldem,
		HandNumber: s.HandNumber,
		MaxHands:   s.MaxHands,
		Phase:      s.Phase,
		Community:  cardStrings(s.Community),
		Pot:        s.Pot,
		CurrentBet: s.CurrentBet,
		MinRaise:   s.MinRaise,
		SmallBlind: s.SmallBlind,
		BigBlind:   s.BigBlind,
		Players:    make([]PlayerView, 0, len(s.Players)),
	}
	if s.DealerPos >= 0 && s.DealerPos < len(s.Players) {
		v.Dealer = s.Players[s.DealerPos].ID
	}
	if s.CurrentActor >= 0 && s.CurrentActor < len(s.Players) {
		v.CurrentActor = s.Players[s.CurrentActor].ID
	}
	for _, p := range s.Players {
		v.Players = append(v.Players, PlayerView{
			ID:         p.ID,
			Stack:      p.Stack,
			RoundBet:   p.RoundBet,
			Folded:     p.Folded,
			AllIn:      p.AllIn,
			Out:        p.Out,
			LastAction: p.LastAction,
		})
	}
	if r := s.LastResult; r != nil {
		rv := &HandResultView{
			HandNumber: r.HandNumber,
			Showdown:   r.Showdown,
			Board:      cardStrings(r.Board),
			Awards:     append([]PotAward(nil), r.Awards...),
		}
		if len(r.Shown) > 0 {
			rv.Shown = make(map[string][]string, len(r.Shown))
			for id, cards := range r.Shown {
				rv.Shown[id] = cardStrings(cards)
			}
		}
		v.LastResult = rv
	}
	return v
}
