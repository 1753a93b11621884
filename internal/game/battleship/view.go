package battleship

import "ai-arena/internal/game"

// BoardView exposes marks to everyone. Ship cells are only filled in for the board's
// own seat and for ships that have been sunk.
type BoardView struct {
	Seat       string     `json:"seat"`
	Size       int        `json:"size"`
	Marks      []string   `json:"marks"`
	Ships      [][][2]int `json:"ships,omitempty"`
	ShipsLeft  int        `json:"ships_left"`
	Eliminated bool       `json:"eliminated"`
}

type View struct {
	Kind         game.Kind     `json:"kind"`
	Boards       []BoardView   `json:"boards"`
	Shots        int           `json:"shots"`
	CurrentTurn  string        `json:"current_turn,omitempty"`
	Target       string        `json:"target,omitempty"`
	Winner       string        `json:"winner,omitempty"`
	LastShot     *Shot         `json:"last_shot,omitempty"`
	Seat         string        `json:"seat,omitempty"`
	ValidActions []game.Action `json:"valid_actions,omitempty"`
}

func (a *Adapter) View(gs game.State, seat string) any {
	s, err := cast(gs)
	if err != nil {
		return nil
	}
	v := a.buildView(s, seat)
	v.Seat = seat
	v.ValidActions = a.ValidActions(s, seat)
	return v
}

func (a *Adapter) PublicView(gs game.State) any {
	s, err := cast(gs)
	if err != nil {
		return nil
	}
	return a.buildView(s, "")
}

func (a *Adapter) buildView(s *State, owner string) *View {
	v := &View{Kind: game.KindBattleship, Shots: s.Shots}
	if s.LastShot != nil {
		shot := *s.LastShot
		v.LastShot = &shot
	}
	for i := range s.Boards {
		b := &s.Boards[i]
		bv := BoardView{Seat: b.Seat, Size: b.Size, Eliminated: b.Eliminated}
		for _, row := range b.Marks {
			line := make([]byte, len(row))
			for c, m := range row {
				switch m {
				case Hit:
					line[c] = 'X'
				case Miss:
					line[c] = 'o'
				default:
					line[c] = '.'
				}
			}
			bv.Marks = append(bv.Marks, string(line))
		}
		for _, sh := range b.Ships {
			if !sh.Sunk {
				bv.ShipsLeft++
			}
			if sh.Sunk || (owner != "" && b.Seat == owner) {
				bv.Ships = append(bv.Ships, append([][2]int(nil), sh.Cells...))
			}
		}
		v.Boards = append(v.Boards, bv)
	}
	if turn, ok := a.CurrentTurn(s); ok {
		v.CurrentTurn = turn
		v.Target = s.Boards[s.target(s.Turn)].Seat
	}
	if w, ok := a.Winner(s); ok {
		v.Winner = w
	}
	return v
}
