// Package wordguess is the guessing-game adapter. Seats take turns guessing a hidden
// phrase and every guess is scored by word overlap with the target.
package wordguess

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"
	"unicode"

	"ai-arena/internal/game"
)

const (
	DefaultMaxAttempts = 10

	ActionGuess = "guess"
	ActionPass  = "pass"
)

type Verdict string

const (
	VerdictExact     Verdict = "exact"
	VerdictSemantic  Verdict = "semantic"
	VerdictPartial   Verdict = "partial"
	VerdictIncorrect Verdict = "incorrect"
	VerdictPassed    Verdict = "passed"
)

var DefaultTargets = []string{
	"the quick brown fox",
	"a rolling stone gathers no moss",
	"time flies like an arrow",
	"every cloud has a silver lining",
	"practice makes perfect",
	"the early bird catches the worm",
}

type Attempt struct {
	Seat    string  `json:"seat"`
	Guess   string  `json:"guess,omitempty"`
	Score   float64 `json:"score"`
	Verdict Verdict `json:"verdict"`
}

type State struct {
	Seats       []string  `json:"seats"`
	Target      string    `json:"target"`
	Attempts    []Attempt `json:"attempts"`
	MaxAttempts int       `json:"max_attempts"`
	Turn        int       `json:"turn"`
	SolvedBy    int       `json:"solved_by"`
}

func (s *State) Kind() game.Kind { return game.KindWordGuess }

func (s *State) Clone() *State {
	out := *s
	out.Seats = append([]string(nil), s.Seats...)
	out.Attempts = append([]Attempt(nil), s.Attempts...)
	return &out
}

func (s *State) over() bool {
	return s.SolvedBy >= 0 || len(s.Attempts) >= s.MaxAttempts
}

func (s *State) seatIndex(id string) int {
	for i, seat := range s.Seats {
		if seat == id {
			return i
		}
	}
	return -1
}

// Tokens lower-cases text and splits it into letter/digit words.
func Tokens(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Score is |guess ∩ target| / |guess ∪ target| over the distinct tokens of each.
func Score(guess, target string) float64 {
	g, t := map[string]bool{}, map[string]bool{}
	for _, w := range Tokens(guess) {
		g[w] = true
	}
	for _, w := range Tokens(target) {
		t[w] = true
	}
	union := len(t)
	inter := 0
	for w := range g {
		if t[w] {
			inter++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func Judge(score float64) Verdict {
	switch {
	case score > 0.9:
		return VerdictExact
	case score > 0.7:
		return VerdictSemantic
	case score > 0.5:
		return VerdictPartial
	default:
		return VerdictIncorrect
	}
}

// Picker chooses a target phrase when none is configured.
type Picker func() string

func RandomPicker() string {
	return DefaultTargets[rand.Intn(len(DefaultTargets))]
}

type Adapter struct {
	pick Picker
}

type Option func(*Adapter)

func WithPicker(p Picker) Option {
	return func(a *Adapter) {
		if p != nil {
			a.pick = p
		}
	}
}

func New(opts ...Option) *Adapter {
	a := &Adapter{pick: RandomPicker}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Adapter) Kind() game.Kind { return game.KindWordGuess }

func (a *Adapter) NewState(seats []string, opts game.Options) (game.State, error) {
	if len(seats) == 0 {
		return nil, fmt.Errorf("%w: wordguess needs at least one seat", game.ErrInvalidState)
	}
	target := strings.TrimSpace(opts.Target)
	if target == "" {
		target = a.pick()
	}
	limit := opts.MaxAttempts
	if limit <= 0 {
		limit = DefaultMaxAttempts
	}
	s := &State{
		Seats:       append([]string(nil), seats...),
		Target:      target,
		MaxAttempts: limit,
		SolvedBy:    -1,
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
	if len(s.Seats) == 0 {
		return fmt.Errorf("%w: no seats", game.ErrInvalidState)
	}
	seen := map[string]bool{}
	for _, id := range s.Seats {
		if id == "" || seen[id] {
			return fmt.Errorf("%w: duplicate or empty seat %q", game.ErrInvalidState, id)
		}
		seen[id] = true
	}
	if len(Tokens(s.Target)) == 0 {
		return fmt.Errorf("%w: target has no words", game.ErrInvalidState)
	}
	if s.MaxAttempts <= 0 || len(s.Attempts) > s.MaxAttempts {
		return fmt.Errorf("%w: %d attempts with cap %d", game.ErrInvalidState, len(s.Attempts), s.MaxAttempts)
	}
	if s.Turn < 0 || s.Turn >= len(s.Seats) || s.SolvedBy < -1 || s.SolvedBy >= len(s.Seats) {
		return fmt.Errorf("%w: turn %d solved_by %d", game.ErrInvalidState, s.Turn, s.SolvedBy)
	}
	solver := ""
	for _, at := range s.Attempts {
		if !seen[at.Seat] {
			return fmt.Errorf("%w: attempt by unknown seat %q", game.ErrInvalidState, at.Seat)
		}
		if at.Verdict == VerdictExact && solver == "" {
			solver = at.Seat
		}
	}
	switch {
	case s.SolvedBy >= 0 && s.Seats[s.SolvedBy] != solver:
		return fmt.Errorf("%w: solved_by %d without an exact guess", game.ErrInvalidState, s.SolvedBy)
	case s.SolvedBy < 0 && solver != "":
		return fmt.Errorf("%w: exact guess by %q not recorded as solved", game.ErrInvalidState, solver)
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

	attempt := Attempt{Seat: seat}
	switch act.Type {
	case ActionGuess:
		if len(Tokens(act.Text)) == 0 {
			return nil, fmt.Errorf("%w: empty guess", game.ErrInvalidAction)
		}
		attempt.Guess = strings.TrimSpace(act.Text)
		attempt.Score = Score(act.Text, src.Target)
		attempt.Verdict = Judge(attempt.Score)
	case ActionPass:
		attempt.Verdict = VerdictPassed
	default:
		return nil, fmt.Errorf("%w: unknown action %q", game.ErrInvalidAction, act.Type)
	}

	s := src.Clone()
	s.Attempts = append(s.Attempts, attempt)
	if attempt.Verdict == VerdictExact {
		s.SolvedBy = idx
		return s, nil
	}
	s.Turn = (s.Turn + 1) % len(s.Seats)
	return s, nil
}

func (a *Adapter) ValidActions(gs game.State, seat string) []game.Action {
	s, err := cast(gs)
	if err != nil || s.over() || s.seatIndex(seat) != s.Turn {
		return nil
	}
	return []game.Action{{Type: ActionGuess}, {Type: ActionPass}}
}

func (a *Adapter) IsComplete(gs game.State) bool {
	s, err := cast(gs)
	return err == nil && s.over()
}

// Winner is the seat that solved the phrase or, when the cap ran out, the seat with the
// single best score above zero.
func (a *Adapter) Winner(gs game.State) (string, bool) {
	s, err := cast(gs)
	if err != nil || !s.over() {
		return "", false
	}
	if s.SolvedBy >= 0 {
		return s.Seats[s.SolvedBy], true
	}
	best := bestScores(s)
	top, winner, tied := 0.0, "", false
	for _, seat := range s.Seats {
		switch sc := best[seat]; {
		case sc > top:
			top, winner, tied = sc, seat, false
		case sc == top && sc > 0:
			tied = true
		}
	}
	if winner == "" || tied {
		return "", false
	}
	return winner, true
}

func (a *Adapter) CurrentTurn(gs game.State) (string, bool) {
	s, err := cast(gs)
	if err != nil || s.over() {
		return "", false
	}
	return s.Seats[s.Turn], true
}

func (a *Adapter) NeedsNextRound(game.State) bool { return false }

func (a *Adapter) StartNextRound(game.State) (game.State, error) {
	return nil, fmt.Errorf("%w: wordguess has a single round", game.ErrInvalidState)
}

// FinalRankings orders seats by their best score. The solver always ranks first.
func (a *Adapter) FinalRankings(gs game.State) []game.Ranking {
	s, err := cast(gs)
	if err != nil {
		return nil
	}
	best := bestScores(s)
	if s.SolvedBy >= 0 {
		best[s.Seats[s.SolvedBy]] = math.Inf(1)
	}
	seats := append([]string(nil), s.Seats...)
	sort.SliceStable(seats, func(i, j int) bool { return best[seats[i]] > best[seats[j]] })
	out := make([]game.Ranking, 0, len(seats))
	for i, seat := range seats {
		rank := i + 1
		if i > 0 && best[seat] == best[seats[i-1]] {
			rank = out[i-1].Rank
		}
		points := int64(100)
		if !math.IsInf(best[seat], 1) {
			points = int64(math.Round(best[seat] * 100))
		}
		out = append(out, game.Ranking{Seat: seat, Rank: rank, Points: points})
	}
	return out
}

func bestScores(s *State) map[string]float64 {
	best := make(map[string]float64, len(s.Seats))
	for _, at := range s.Attempts {
		if at.Score > best[at.Seat] {
			best[at.Seat] = at.Score
		}
	}
	return best
}

// Fallback passes.
func (a *Adapter) Fallback(game.State, string, []game.Action) game.Action {
	return game.Action{Type: ActionPass}
}

type View struct {
	Kind         game.Kind     `json:"kind"`
	Seats        []string      `json:"seats"`
	WordCount    int           `json:"word_count"`
	Target       string        `json:"target,omitempty"`
	Attempts     []Attempt     `json:"attempts"`
	AttemptsLeft int           `json:"attempts_left"`
	CurrentTurn  string        `json:"current_turn,omitempty"`
	Winner       string        `json:"winner,omitempty"`
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

// PublicView reveals the target only once the game is over.
func (a *Adapter) PublicView(gs game.State) any {
	s, err := cast(gs)
	if err != nil {
		return nil
	}
	v := &View{
		Kind:         game.KindWordGuess,
		Seats:        append([]string(nil), s.Seats...),
		WordCount:    len(Tokens(s.Target)),
		Attempts:     append([]Attempt(nil), s.Attempts...),
		AttemptsLeft: s.MaxAttempts - len(s.Attempts),
	}
	if s.over() {
		v.Target = s.Target
	}
	if turn, ok := a.CurrentTurn(s); ok {
		v.CurrentTurn = turn
	}
	if w, ok := a.Winner(s); ok {
		v.Winner = w
	}
	return v
}

// Decode treats a missing solved_by as unsolved.
func (a *Adapter) Decode(raw json.RawMessage) (game.State, error) {
	s := State{SolvedBy: -1}
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode wordguess state: %w", err)
	}
	return &s, nil
}

func cast(gs game.State) (*State, error) {
	s, ok := gs.(*State)
	if !ok || s == nil {
		return nil, fmt.Errorf("%w: want wordguess state, got %T", game.ErrInvalidState, gs)
	}
	return s, nil
}
