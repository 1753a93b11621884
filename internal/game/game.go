// Package game defines the contract every game type implements and the registry the
// session engine uses to look adapters up by kind.
//
// Adapters are pure: they never perform I/O, never block and never mutate the state
// they are handed. ProcessAction and StartNextRound return a fresh State.
package game

import (
	"encoding/json"
	"errors"
)

type Kind string

const (
	KindHoldem     Kind = "holdem"
	KindConnect4   Kind = "connect4"
	KindBattleship Kind = "battleship"
	KindWordGuess  Kind = "wordguess"
)

var (
	ErrUnknownKind   = errors.New("unknown_game_type")
	ErrInvalidAction = errors.New("invalid_action")
	ErrNotYourTurn   = errors.New("not_your_turn")
	ErrUnknownSeat   = errors.New("unknown_seat")
	ErrInvalidState  = errors.New("invalid_state")
	ErrGameOver      = errors.New("game_over")
)

// State is the tagged variant carried by a session. Each adapter owns one concrete
// implementation and type-asserts it on entry.
type State interface {
	Kind() Kind
}

// Action is the wire shape for every game type. Fields that do not apply to a kind
// stay at their zero value.
type Action struct {
	Type   string `json:"type"`
	Amount int64  `json:"amount,omitempty"`
	Row    int    `json:"row,omitempty"`
	Column int    `json:"column,omitempty"`
	Text   string `json:"text,omitempty"`
}

type Ranking struct {
	Seat   string `json:"seat"`
	Rank   int    `json:"rank"`
	Points int64  `json:"points"`
}

// Options carries optional per-kind construction parameters. Unknown keys are ignored.
type Options struct {
	StartingChips int64  `json:"starting_chips,omitempty"`
	SmallBlind    int64  `json:"small_blind,omitempty"`
	BigBlind      int64  `json:"big_blind,omitempty"`
	MaxHands      int    `json:"max_hands,omitempty"`
	Rows          int    `json:"rows,omitempty"`
	Columns       int    `json:"columns,omitempty"`
	Target        string `json:"target,omitempty"`
	MaxAttempts   int    `json:"max_attempts,omitempty"`
	BoardSize     int    `json:"board_size,omitempty"`
}

type Adapter interface {
	Kind() Kind
	NewState(seats []string, opts Options) (State, error)
	Validate(s State) error
	ProcessAction(s State, seat string, a Action) (State, error)
	ValidActions(s State, seat string) []Action
	IsComplete(s State) bool
	Winner(s State) (string, bool)
	CurrentTurn(s State) (string, bool)
	// NeedsNextRound reports a sub-round boundary: no actor, game not over.
	NeedsNextRound(s State) bool
	StartNextRound(s State) (State, error)
	FinalRankings(s State) []Ranking
	// Fallback picks the least-commitment action out of valid.
	Fallback(s State, seat string, valid []Action) Action
	View(s State, seat string) any
	PublicView(s State) any
	Decode(raw json.RawMessage) (State, error)
}

// Contains reports whether a matches one of the templates in valid by type.
func Contains(valid []Action, a Action) bool {
	for _, v := range valid {
		if v.Type == a.Type {
			return true
		}
	}
	return false
}
