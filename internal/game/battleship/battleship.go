// Package battleship is the grid-targeting adapter. Every seat hides a fleet on its own
// board; seats take turns firing at the next surviving opponent until one fleet is left.
package battleship

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"

	"ai-arena/internal/game"
)

const (
	DefaultBoardSize = 8
	MaxSeats         = 4

	ActionFire = "fire"
)

// Cell marks on a board.
const (
	Unknown = 0
	Miss    = 1
	Hit     = 2
)

var DefaultFleet = []int{4, 3, 3, 2}

type Ship struct {
	Length int      `json:"length"`
	Cells  [][2]int `json:"cells"`
	Sunk   bool     `json:"sunk"`
}

type Board struct {
	Seat       string  `json:"seat"`
	Size       int     `json:"size"`
	Ships      []Ship  `json:"ships"`
	Marks      [][]int `json:"marks"`
	HitsLanded int     `json:"hits_landed"`
	Eliminated bool    `json:"eliminated"`
	OutAtShot  int     `json:"out_at_shot,omitempty"`
}

type Shot struct {
	By     string `json:"by"`
	Target string `json:"target"`
	Row    int    `json:"row"`
	Column int    `json:"column"`
	Hit    bool   `json:"hit"`
	Sunk   bool   `json:"sunk"`
}

type State struct {
	Boards   []Board `json:"boards"`
	Turn     int     `json:"turn"`
	Shots    int     `json:"shots"`
	Winner   int     `json:"winner"`
	LastShot *Shot   `json:"last_shot,omitempty"`
}

func (s *State) Kind() game.Kind { return game.KindBattleship }

func (s *State) Clone() *State {
	out := *s
	out.Boards = make([]Board, len(s.Boards))
	for i, b := range s.Boards {
		ships := make([]Ship, len(b.Ships))
		for j, sh := range b.Ships {
			sh.Cells = append([][2]int(nil), sh.Cells...)
			ships[j] = sh
		}
		b.Ships = ships
		marks := make([][]int, len(b.Marks))
		for r := range b.Marks {
			marks[r] = append([]int(nil), b.Marks[r]...)
		}
		b.Marks = marks
		out.Boards[i] = b
	}
	if s.LastShot != nil {
		shot := *s.LastShot
		out.LastShot = &shot
	}
	return &out
}

func (s *State) over() bool { return s.Winner >= 0 }

func (s *State) seatIndex(id string) int {
	for i := range s.Boards {
		if s.Boards[i].Seat == id {
			return i
		}
	}
	return -1
}

// target is the next surviving seat after i.
func (s *State) target(i int) int {
	n := len(s.Boards)
	for step := 1; step < n; step++ {
		j := (i + step) % n
		if !s.Boards[j].Eliminated {
			return j
		}
	}
	return -1
}

// Placer lays out a fleet with the given ship lengths on a size×size board.
type Placer func(size int, lengths []int) []Ship

// RandomPlacer drops each ship at a uniformly chosen free position and orientation.
func RandomPlacer(size int, lengths []int) []Ship {
	taken := map[[2]int]bool{}
	ships := make([]Ship, 0, len(lengths))
	for _, length := range lengths {
		for {
			horizontal := rand.Intn(2) == 0
			maxR, maxC := size, size-length+1
			if !horizontal {
				maxR, maxC = size-length+1, size
			}
			r, c := rand.Intn(maxR), rand.Intn(maxC)
			cells := make([][2]int, 0, length)
			free := true
			for k := 0; k < length; k++ {
				cell := [2]int{r, c + k}
				if !horizontal {
					cell = [2]int{r + k, c}
				}
				if taken[cell] {
					free = false
					break
				}
				cells = append(cells, cell)
			}
			if !free {
				continue
			}
			for _, cell := range cells {
				taken[cell] = true
			}
			ships = append(ships, Ship{Length: length, Cells: cells})
			break
		}
	}
	return ships
}

type Adapter struct {
	place Placer
	fleet []int
}

type Option func(*Adapter)

func WithPlacer(p Placer) Option {
	return func(a *Adapter) {
		if p != nil {
			a.place = p
		}
	}
}

func WithFleet(lengths ...int) Option {
	return func(a *Adapter) {
		if len(lengths) > 0 {
			a.fleet = append([]int(nil), lengths...)
		}
	}
}

func New(opts ...Option) *Adapter {
	a := &Adapter{place: RandomPlacer, fleet: DefaultFleet}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Adapter) Kind() game.Kind { return game.KindBattleship }

func (a *Adapter) NewState(seats []string, opts game.Options) (game.State, error) {
	if len(seats) < 2 || len(seats) > MaxSeats {
		return nil, fmt.Errorf("%w: battleship needs 2-%d seats, got %d", game.ErrInvalidState, MaxSeats, len(seats))
	}
	size := opts.BoardSize
	if size <= 0 {
		size = DefaultBoardSize
	}
	for _, l := range a.fleet {
		if l <= 0 || l > size {
			return nil, fmt.Errorf("%w: ship of %d on %dx%d board", game.ErrInvalidState, l, size, size)
		}
	}
	seen := map[string]bool{}
	s := &State{Winner: -1}
	for _, id := range seats {
		if id == "" || seen[id] {
			return nil, fmt.Errorf("%w: duplicate or empty seat %q", game.ErrInvalidState, id)
		}
		seen[id] = true
		marks := make([][]int, size)
		for r := range marks {
			marks[r] = make([]int, size)
		}
		s.Boards = append(s.Boards, Board{Seat: id, Size: size, Ships: a.place(size, a.fleet), Marks: marks})
	}
	if err := a.Validate(s); err != nil {
		return nil, err
	}
	return s, nil
}

func (a *Adapter) Validate(gs game.State) error {
	s, err := cast(gs)
	if err != nil {
		return err
	}
	if len(s.Boards) < 2 || len(s.Boards) > MaxSeats {
		return fmt.Errorf("%w: %d boards", game.ErrInvalidState, len(s.Boards))
	}
	alive := 0
	for i, b := range s.Boards {
		if len(b.Marks) != b.Size || b.Size <= 0 {
			return fmt.Errorf("%w: board %d has bad size", game.ErrInvalidState, i)
		}
		for _, row := range b.Marks {
			if len(row) != b.Size {
				return fmt.Errorf("%w: board %d has ragged marks", game.ErrInvalidState, i)
			}
		}
		if len(b.Ships) == 0 {
			return fmt.Errorf("%w: board %d has no fleet", game.ErrInvalidState, i)
		}
		used := map[[2]int]bool{}
		for _, sh := range b.Ships {
			if len(sh.Cells) != sh.Length {
				return fmt.Errorf("%w: ship length %d with %d cells", game.ErrInvalidState, sh.Length, len(sh.Cells))
			}
			for _, c := range sh.Cells {
				if c[0] < 0 || c[0] >= b.Size || c[1] < 0 || c[1] >= b.Size || used[c] {
					return fmt.Errorf("%w: ship cell %v on board %d", game.ErrInvalidState, c, i)
				}
				used[c] = true
			}
		}
		if !b.Eliminated {
			alive++
		}
	}
	if s.Turn < 0 || s.Turn >= len(s.Boards) {
		return fmt.Errorf("%w: turn %d", game.ErrInvalidState, s.Turn)
	}
	if s.Winner < -1 || s.Winner >= len(s.Boards) {
		return fmt.Errorf("%w: winner %d", game.ErrInvalidState, s.Winner)
	}
	if s.over() && (alive != 1 || s.Boards[s.Winner].Eliminated) {
		return fmt.Errorf("%w: winner %d with %d fleets afloat", game.ErrInvalidState, s.Winner, alive)
	}
	if !s.over() && (alive < 2 || s.Boards[s.Turn].Eliminated) {
		return fmt.Errorf("%w: turn on eliminated seat", game.ErrInvalidState)
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
	if act.Type != ActionFire {
		return nil, fmt.Errorf("%w: unknown action %q", game.ErrInvalidAction, act.Type)
	}
	ti := src.target(idx)
	tb := &src.Boards[ti]
	if act.Row < 0 || act.Row >= tb.Size || act.Column < 0 || act.Column >= tb.Size {
		return nil, fmt.Errorf("%w: cell %d,%d off the board", game.ErrInvalidAction, act.Row, act.Column)
	}
	if tb.Marks[act.Row][act.Column] != Unknown {
		return nil, fmt.Errorf("%w: cell %d,%d already targeted", game.ErrInvalidAction, act.Row, act.Column)
	}

	s := src.Clone()
	s.Shots++
	board := &s.Boards[ti]
	shot := &Shot{By: seat, Target: board.Seat, Row: act.Row, Column: act.Column}
	board.Marks[act.Row][act.Column] = Miss
	for k := range board.Ships {
		sh := &board.Ships[k]
		if !occupies(sh, act.Row, act.Column) {
			continue
		}
		board.Marks[act.Row][act.Column] = Hit
		s.Boards[idx].HitsLanded++
		shot.Hit = true
		if sunk(sh, board.Marks) {
			sh.Sunk = true
			shot.Sunk = true
		}
		break
	}
	s.LastShot = shot

	if shot.Sunk && fleetSunk(board) {
		board.Eliminated = true
		board.OutAtShot = s.Shots
		if s.target(idx) == -1 {
			s.Winner = idx
			return s, nil
		}
	}
	s.Turn = s.target(idx)
	return s, nil
}

func occupies(sh *Ship, r, c int) bool {
	for _, cell := range sh.Cells {
		if cell[0] == r && cell[1] == c {
			return true
		}
	}
	return false
}

func sunk(sh *Ship, marks [][]int) bool {
	for _, cell := range sh.Cells {
		if marks[cell[0]][cell[1]] != Hit {
			return false
		}
	}
	return true
}

func fleetSunk(b *Board) bool {
	for _, sh := range b.Ships {
		if !sh.Sunk {
			return false
		}
	}
	return true
}

func (a *Adapter) ValidActions(gs game.State, seat string) []game.Action {
	s, err := cast(gs)
	if err != nil || s.over() || s.seatIndex(seat) != s.Turn {
		return nil
	}
	tb := &s.Boards[s.target(s.Turn)]
	out := make([]game.Action, 0, tb.Size*tb.Size)
	for r := 0; r < tb.Size; r++ {
		for c := 0; c < tb.Size; c++ {
			if tb.Marks[r][c] == Unknown {
				out = append(out, game.Action{Type: ActionFire, Row: r, Column: c})
			}
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
	if err != nil || !s.over() {
		return "", false
	}
	return s.Boards[s.Winner].Seat, true
}

func (a *Adapter) CurrentTurn(gs game.State) (string, bool) {
	s, err := cast(gs)
	if err != nil || s.over() {
		return "", false
	}
	return s.Boards[s.Turn].Seat, true
}

func (a *Adapter) NeedsNextRound(game.State) bool { return false }

func (a *Adapter) StartNextRound(game.State) (game.State, error) {
	return nil, fmt.Errorf("%w: battleship has no rounds", game.ErrInvalidState)
}

// FinalRankings puts survivors first, then eliminated seats by how long they lasted.
// Points are hits landed.
func (a *Adapter) FinalRankings(gs game.State) []game.Ranking {
	s, err := cast(gs)
	if err != nil {
		return nil
	}
	order := make([]int, len(s.Boards))
	for i := range order {
		order[i] = i
	}
	lasted := func(b *Board) int {
		if !b.Eliminated {
			return math.MaxInt
		}
		return b.OutAtShot
	}
	for i := 1; i < len(order); i++ {
		for j := i; j > 0 && lasted(&s.Boards[order[j]]) > lasted(&s.Boards[order[j-1]]); j-- {
			order[j], order[j-1] = order[j-1], order[j]
		}
	}
	out := make([]game.Ranking, 0, len(order))
	for pos, i := range order {
		b := &s.Boards[i]
		rank := pos + 1
		if pos > 0 && lasted(b) == lasted(&s.Boards[order[pos-1]]) {
			rank = out[pos-1].Rank
		}
		out = append(out, game.Ranking{Seat: b.Seat, Rank: rank, Points: int64(b.HitsLanded)})
	}
	return out
}

// Fallback fires at the first untargeted cell in row-major order.
func (a *Adapter) Fallback(_ game.State, _ string, valid []game.Action) game.Action {
	best := -1
	for i, v := range valid {
		if v.Type != ActionFire {
			continue
		}
		if best < 0 || v.Row < valid[best].Row || (v.Row == valid[best].Row && v.Column < valid[best].Column) {
			best = i
		}
	}
	if best < 0 {
		return game.Action{Type: ActionFire}
	}
	return valid[best]
}

// Decode treats a missing winner as no winner.
func (a *Adapter) Decode(raw json.RawMessage) (game.State, error) {
	s := State{Winner: -1}
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode battleship state: %w", err)
	}
	return &s, nil
}

func cast(gs game.State) (*State, error) {
	s, ok := gs.(*State)
	if !ok || s == nil {
		return nil, fmt.Errorf("%w: want battleship state, got %T", game.ErrInvalidState, gs)
	}
	return s, nil
}
