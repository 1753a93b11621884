// Package connect4 is the grid-game adapter: two seats drop discs into columns and the
// first to line up four in any direction wins.
package connect4

import (
	"encoding/json"
	"fmt"

	"ai-arena/internal/game"
)

const (
	DefaultRows    = 8
	DefaultColumns = 8
	lineLength     = 4

	ActionDrop = "drop"
)

// State stores Grid[row][col] as a seat index, -1 for empty. Row 0 is the top.
type State struct {
	Seats       []string `json:"seats"`
	Rows        int      `json:"rows"`
	Columns     int      `json:"columns"`
	Grid        [][]int  `json:"grid"`
	Moves       int      `json:"moves"`
	Turn        int      `json:"turn"`
	Winner      int      `json:"winner"`
	WinningLine [][2]int `json:"winning_line,omitempty"`
	Draw        bool     `json:"draw"`
	LastMove    *[2]int  `json:"last_move,omitempty"`
}

func (s *State) Kind() game.Kind { return game.KindConnect4 }

func (s *State) Clone() *State {
	out := *s
	out.Seats = append([]string(nil), s.Seats...)
	out.Grid = make([][]int, len(s.Grid))
	for r := range s.Grid {
		out.Grid[r] = append([]int(nil), s.Grid[r]...)
	}
	out.WinningLine = append([][2]int(nil), s.WinningLine...)
	if s.LastMove != nil {
		m := *s.LastMove
		out.LastMove = &m
	}
	return &out
}

func (s *State) over() bool { return s.Winner >= 0 || s.Draw }

func (s *State) seatIndex(id string) int {
	for i, seat := range s.Seats {
		if seat == id {
			return i
		}
	}
	return -1
}

// dropRow is the lowest empty row of col, or -1 when the column is full.
func (s *State) dropRow(col int) int {
	for r := s.Rows - 1; r >= 0; r-- {
		if s.Grid[r][col] < 0 {
			return r
		}
	}
	return -1
}

type Adapter struct{}

func New() *Adapter { return &Adapter{} }

func (a *Adapter) Kind() game.Kind { return game.KindConnect4 }

func (a *Adapter) NewState(seats []string, opts game.Options) (game.State, error) {
	if len(seats) != 2 {
		return nil, fmt.Errorf("%w: connect4 needs 2 seats, got %d", game.ErrInvalidState, len(seats))
	}
	if seats[0] == "" || seats[0] == seats[1] {
		return nil, fmt.Errorf("%w: duplicate or empty seat", game.ErrInvalidState)
	}
	rows, cols := opts.Rows, opts.Columns
	if rows <= 0 {
		rows = DefaultRows
	}
	if cols <= 0 {
		cols = DefaultColumns
	}
	if rows < lineLength && cols < lineLength {
		return nil, fmt.Errorf("%w: %dx%d grid cannot hold a line", game.ErrInvalidState, rows, cols)
	}
	grid := make([][]int, rows)
	for r := range grid {
		grid[r] = make([]int, cols)
		for c := range grid[r] {
			grid[r][c] = -1
		}
	}
	return &State{
		Seats:   append([]string(nil), seats...),
		Rows:    rows,
		Columns: cols,
		Grid:    grid,
		Winner:  -1,
	}, nil
}

func (a *Adapter) Validate(gs game.State) error {
	s, err := cast(gs)
	if err != nil {
		return err
	}
	if len(s.Seats) != 2 || s.Rows <= 0 || s.Columns <= 0 || len(s.Grid) != s.Rows {
		return fmt.Errorf("%w: bad shape", game.ErrInvalidState)
	}
	for r, row := range s.Grid {
		if len(row) != s.Columns {
			return fmt.Errorf("%w: row %d has %d cells", game.ErrInvalidState, r, len(row))
		}
	}
	filled := 0
	for r, row := range s.Grid {
		for c, v := range row {
			if v < -1 || v >= len(s.Seats) {
				return fmt.Errorf("%w: cell %d,%d owner %d", game.ErrInvalidState, r, c, v)
			}
			if v >= 0 {
				filled++
				// Gravity: nothing floats above an empty cell.
				if r+1 < s.Rows && s.Grid[r+1][c] < 0 {
					return fmt.Errorf("%w: floating disc at %d,%d", game.ErrInvalidState, r, c)
				}
			}
		}
	}
	if filled != s.Moves {
		return fmt.Errorf("%w: %d discs for %d moves", game.ErrInvalidState, filled, s.Moves)
	}
	if s.Turn < 0 || s.Turn >= len(s.Seats) || s.Winner < -1 || s.Winner >= len(s.Seats) {
		return fmt.Errorf("%w: turn %d winner %d", game.ErrInvalidState, s.Turn, s.Winner)
	}
	owner, ok := HasLine(s.Grid)
	if ok && owner != s.Winner {
		return fmt.Errorf("%w: seat %d has an unrecorded line", game.ErrInvalidState, owner)
	}
	if !ok && s.Winner >= 0 {
		return fmt.Errorf("%w: winner %d has no line on the board", game.ErrInvalidState, s.Winner)
	}
	if s.Draw && (s.Winner >= 0 || filled != s.Rows*s.Columns) {
		return fmt.Errorf("%w: draw on a board with %d of %d cells", game.ErrInvalidState, filled, s.Rows*s.Columns)
	}
	return nil
}

func (a *Adapter) ProcessAction(gs game.State, seat string, act game.Action) (game.State, error) {
	src, err := cast(gs)
	if err != nil {
		return nil, err
	}
	if src.over() {
		return nil, game.ErrGameOver
	}
	idx := src.seatIndex(seat)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q", game.ErrUnknownSeat, seat)
	}
	if idx != src.Turn {
		return nil, game.ErrNotYourTurn
	}
	if act.Type != ActionDrop {
		return nil, fmt.Errorf("%w: unknown action %q", game.ErrInvalidAction, act.Type)
	}
	if act.Column < 0 || act.Column >= src.Columns {
		return nil, fmt.Errorf("%w: column %d out of range", game.ErrInvalidAction, act.Column)
	}
	row := src.dropRow(act.Column)
	if row < 0 {
		return nil, fmt.Errorf("%w: column %d is full", game.ErrInvalidAction, act.Column)
	}

	s := src.Clone()
	s.Grid[row][act.Column] = idx
	s.Moves++
	s.LastMove = &[2]int{row, act.Column}
	if line := lineThrough(s, row, act.Column); line != nil {
		s.Winner = idx
		s.WinningLine = line
		return s, nil
	}
	if s.Moves == s.Rows*s.Columns {
		s.Draw = true
		return s, nil
	}
	s.Turn = (s.Turn + 1) % len(s.Seats)
	return s, nil
}

var directions = [4][2]int{{0, 1}, {1, 0}, {1, 1}, {1, -1}}

// lineThrough walks outward from the placed disc in each direction and returns the run
// when it reaches four. Only the lines through (row, col) can have changed.
func lineThrough(s *State, row, col int) [][2]int {
	owner := s.Grid[row][col]
	for _, d := range directions {
		line := [][2]int{{row, col}}
		for _, sign := range [2]int{1, -1} {
			r, c := row+sign*d[0], col+sign*d[1]
			for r >= 0 && r < s.Rows && c >= 0 && c < s.Columns && s.Grid[r][c] == owner {
				line = append(line, [2]int{r, c})
				r, c = r+sign*d[0], c+sign*d[1]
			}
		}
		if len(line) >= lineLength {
			return line
		}
	}
	return nil
}

// HasLine rescans the whole grid for a run of four. Moves are checked incrementally;
// the full scan is only used when validating a state handed in from outside.
func HasLine(grid [][]int) (int, bool) {
	rows := len(grid)
	for r := 0; r < rows; r++ {
		cols := len(grid[r])
		for c := 0; c < cols; c++ {
			owner := grid[r][c]
			if owner < 0 {
				continue
			}
			for _, d := range directions {
				n := 1
				for n < lineLength {
					rr, cc := r+n*d[0], c+n*d[1]
					if rr < 0 || rr >= rows || cc < 0 || cc >= cols || grid[rr][cc] != owner {
						break
					}
					n++
				}
				if n == lineLength {
					return owner, true
				}
			}
		}
	}
	return -1, false
}

func (a *Adapter) ValidActions(gs game.State, seat string) []game.Action {
	s, err := cast(gs)
	if err != nil || s.over() || s.seatIndex(seat) != s.Turn {
		return nil
	}
	out := make([]game.Action, 0, s.Columns)
	for c := 0; c < s.Columns; c++ {
		if s.Grid[0][c] < 0 {
			out = append(out, game.Action{Type: ActionDrop, Column: c})
		}
	}
	return out
}

func (a *Adapter) IsComplete(gs game.State) bool {
	s, err := cast(gs)
	return err == nil && s.over()
}

func (a *Adapter) Winner(gs game.State) (string, bool) {
	s, err := cast(gs)
	if err != nil || s.Winner < 0 {
		return "", false
	}
	return s.Seats[s.Winner], true
}

func (a *Adapter) CurrentTurn(gs game.State) (string, bool) {
	s, err := cast(gs)
	if err != nil || s.over() {
		return "", false
	}
	return s.Seats[s.Turn], true
}

func (a *Adapter) NeedsNextRound(game.State) bool { return false }

func (a *Adapter) StartNextRound(gs game.State) (game.State, error) {
	return nil, fmt.Errorf("%w: connect4 has no rounds", game.ErrInvalidState)
}

func (a *Adapter) FinalRankings(gs game.State) []game.Ranking {
	s, err := cast(gs)
	if err != nil {
		return nil
	}
	out := make([]game.Ranking, 0, len(s.Seats))
	switch {
	case s.Winner >= 0:
		out = append(out, game.Ranking{Seat: s.Seats[s.Winner], Rank: 1, Points: 1})
		out = append(out, game.Ranking{Seat: s.Seats[1-s.Winner], Rank: 2})
	default:
		for _, seat := range s.Seats {
			out = append(out, game.Ranking{Seat: seat, Rank: 1})
		}
	}
	return out
}

// Fallback plays the legal column closest to the centre, leftmost on ties.
func (a *Adapter) Fallback(gs game.State, _ string, valid []game.Action) game.Action {
	cols := DefaultColumns
	if s, err := cast(gs); err == nil {
		cols = s.Columns
	}
	centre := float64(cols-1) / 2
	best, bestDist := -1, 0.0
	for i, v := range valid {
		if v.Type != ActionDrop {
			continue
		}
		d := float64(v.Column) - centre
		if d < 0 {
			d = -d
		}
		if best < 0 || d < bestDist || (d == bestDist && v.Column < valid[best].Column) {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return game.Action{Type: ActionDrop, Column: cols / 2}
	}
	return valid[best]
}

type View struct {
	Kind         game.Kind     `json:"kind"`
	Seats        []string      `json:"seats"`
	Rows         int           `json:"rows"`
	Columns      int           `json:"columns"`
	Grid         []string      `json:"grid"`
	Moves        int           `json:"moves"`
	CurrentTurn  string        `json:"current_turn,omitempty"`
	Winner       string        `json:"winner,omitempty"`
	Draw         bool          `json:"draw"`
	WinningLine  [][2]int      `json:"winning_line,omitempty"`
	LastMove     *[2]int       `json:"last_move,omitempty"`
	Seat         string        `json:"seat,omitempty"`
	ValidActions []game.Action `json:"valid_actions,omitempty"`
}

func (a *Adapter) View(gs game.State, seat string) any {
	v, ok := a.PublicView(gs).(*View)
	if !ok {
		return nil
	}
	v.Seat = seat
	v.ValidActions = a.ValidActions(gs, seat)
	return v
}

// PublicView renders the grid as strings, one per row, "." for empty and the seat
// number otherwise.
func (a *Adapter) PublicView(gs game.State) any {
	s, err := cast(gs)
	if err != nil {
		return nil
	}
	v := &View{
		Kind:        game.KindConnect4,
		Seats:       append([]string(nil), s.Seats...),
		Rows:        s.Rows,
		Columns:     s.Columns,
		Moves:       s.Moves,
		Draw:        s.Draw,
		WinningLine: append([][2]int(nil), s.WinningLine...),
		LastMove:    s.LastMove,
	}
	for _, row := range s.Grid {
		b := make([]byte, len(row))
		for c, owner := range row {
			if owner < 0 {
				b[c] = '.'
			} else {
				b[c] = byte('0' + owner)
			}
		}
		v.Grid = append(v.Grid, string(b))
	}
	if turn, ok := a.CurrentTurn(s); ok {
		v.CurrentTurn = turn
	}
	if w, ok := a.Winner(s); ok {
		v.Winner = w
	}
	return v
}

// Decode treats a missing winner as no winner.
func (a *Adapter) Decode(raw json.RawMessage) (game.State, error) {
	s := State{Winner: -1}
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode connect4 state: %w", err)
	}
	return &s, nil
}

func cast(gs game.State) (*State, error) {
	s, ok := gs.(*State)
	if !ok || s == nil {
		return nil, fmt.Errorf("%w: want connect4 state, got %T", game.ErrInvalidState, gs)
	}
	return s, nil
}
