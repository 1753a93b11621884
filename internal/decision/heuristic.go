package decision

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"ai-arena/internal/game"
	"ai-arena/internal/game/battleship"
	"ai-arena/internal/game/connect4"
	"ai-arena/internal/game/holdem"
	"ai-arena/internal/game/wordguess"
)

// HeuristicProvider plays every game type with simple local rules. It is the default
// provider when no external endpoint is configured and the brain of cmd/decision-bot.
type HeuristicProvider struct{}

func NewHeuristicProvider() *HeuristicProvider { return &HeuristicProvider{} }

func (h *HeuristicProvider) Decide(ctx context.Context, req Request) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}
	if len(req.ValidActions) == 0 {
		return Response{}, fmt.Errorf("%w: no valid actions", game.ErrNotYourTurn)
	}
	switch req.Kind {
	case game.KindHoldem:
		if v, ok := viewAs[holdem.View](req.SeatView); ok {
			return holdemMove(v, req.ValidActions), nil
		}
	case game.KindConnect4:
		if v, ok := viewAs[connect4.View](req.SeatView); ok {
			return connect4Move(v, req.ValidActions), nil
		}
	case game.KindBattleship:
		if v, ok := viewAs[battleship.View](req.SeatView); ok {
			return battleshipMove(v, req.ValidActions), nil
		}
	case game.KindWordGuess:
		if v, ok := viewAs[wordguess.View](req.SeatView); ok {
			return wordguessMove(v, req.ValidActions), nil
		}
	}
	return Response{ChosenAction: req.ValidActions[0], Confidence: 0.1, Rationale: "first legal action"}, nil
}

// viewAs accepts either the adapter's own view type or its decoded JSON form.
func viewAs[T any](v any) (*T, bool) {
	if v == nil {
		return nil, false
	}
	if typed, ok := v.(*T); ok {
		return typed, true
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, false
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, false
	}
	return &out, true
}

func pick(valid []game.Action, types ...string) (game.Action, bool) {
	for _, t := range types {
		for _, v := range valid {
			if v.Type == t {
				return v, true
			}
		}
	}
	return game.Action{}, false
}

func holdemMove(v *holdem.View, valid []game.Action) Response {
	var hole, board []holdem.Card
	for _, p := range v.Players {
		if p.ID != v.Seat {
			continue
		}
		for _, s := range p.Hole {
			if c, err := holdem.ParseCard(s); err == nil {
				hole = append(hole, c)
			}
		}
	}
	for _, s := range v.Community {
		if c, err := holdem.ParseCard(s); err == nil {
			board = append(board, c)
		}
	}

	strength := 0
	switch {
	case len(board) == 0 && len(hole) == 2:
		if hole[0].Rank == hole[1].Rank {
			strength = 2
		} else if (hole[0].Rank >= holdem.Ten && hole[1].Rank >= holdem.Ten) || hole[0].Rank == holdem.Ace || hole[1].Rank == holdem.Ace {
			strength = 1
		}
	case len(hole)+len(board) >= 5:
		switch cat := holdem.Evaluate(append(append([]holdem.Card(nil), hole...), board...)).Category; {
		case cat >= holdem.TwoPair:
			strength = 2
		case cat == holdem.OnePair:
			strength = 1
		}
	}

	var act game.Action
	var ok bool
	switch strength {
	case 2:
		act, ok = pick(valid, "raise", "bet", "call", "check")
	case 1:
		if v.ToCall <= v.Pot/2 || v.ToCall <= v.BigBlind {
			act, ok = pick(valid, "check", "call")
		} else {
			act, ok = pick(valid, "check", "fold")
		}
	default:
		act, ok = pick(valid, "check", "fold")
	}
	if !ok {
		act = valid[0]
	}
	return Response{
		ChosenAction: act,
		Confidence:   0.4 + 0.2*float64(strength),
		Rationale:    fmt.Sprintf("hand strength %d", strength),
	}
}

func connect4Move(v *connect4.View, valid []game.Action) Response {
	me := -1
	for i, s := range v.Seats {
		if s == v.Seat {
			me = i
		}
	}
	grid := make([][]int, len(v.Grid))
	for r, row := range v.Grid {
		grid[r] = make([]int, len(row))
		for c := range row {
			grid[r][c] = -1
			if row[c] >= '0' && row[c] <= '9' {
				grid[r][c] = int(row[c] - '0')
			}
		}
	}
	completes := func(owner, col int) bool {
		for r := len(grid) - 1; r >= 0; r-- {
			if grid[r][col] >= 0 {
				continue
			}
			grid[r][col] = owner
			_, won := connect4.HasLine(grid)
			grid[r][col] = -1
			return won
		}
		return false
	}
	if me >= 0 {
		for _, a := range valid {
			if completes(me, a.Column) {
				return Response{ChosenAction: a, Confidence: 0.95, Rationale: "winning drop"}
			}
		}
		for _, a := range valid {
			if completes(1-me, a.Column) {
				return Response{ChosenAction: a, Confidence: 0.8, Rationale: "block"}
			}
		}
	}
	centre := float64(v.Columns-1) / 2
	best := valid[0]
	for _, a := range valid[1:] {
		if math.Abs(float64(a.Column)-centre) < math.Abs(float64(best.Column)-centre) {
			best = a
		}
	}
	return Response{ChosenAction: best, Confidence: 0.5, Rationale: "centre"}
}

func battleshipMove(v *battleship.View, valid []game.Action) Response {
	open := map[[2]int]game.Action{}
	for _, a := range valid {
		open[[2]int{a.Row, a.Column}] = a
	}
	for _, b := range v.Boards {
		if b.Seat != v.Target {
			continue
		}
		sunk := map[[2]int]bool{}
		for _, ship := range b.Ships {
			for _, c := range ship {
				sunk[c] = true
			}
		}
		// Target mode: shoot around hits that are not part of a sunk ship.
		for r, row := range b.Marks {
			for c := range row {
				if row[c] != 'X' || sunk[[2]int{r, c}] {
					continue
				}
				for _, d := range [4][2]int{{0, 1}, {1, 0}, {0, -1}, {-1, 0}} {
					if a, ok := open[[2]int{r + d[0], c + d[1]}]; ok {
						return Response{ChosenAction: a, Confidence: 0.7, Rationale: "follow hit"}
					}
				}
			}
		}
	}
	for _, a := range valid {
		if (a.Row+a.Column)%2 == 0 {
			return Response{ChosenAction: a, Confidence: 0.3, Rationale: "hunt"}
		}
	}
	return Response{ChosenAction: valid[0], Confidence: 0.2, Rationale: "hunt"}
}

// wordguessMove picks the known phrase whose overlap with every earlier guess matches
// the recorded scores best.
func wordguessMove(v *wordguess.View, valid []game.Action) Response {
	guessed := map[string]bool{}
	for _, at := range v.Attempts {
		guessed[strings.ToLower(at.Guess)] = true
	}
	best, bestErr := "", math.Inf(1)
	for _, cand := range wordguess.DefaultTargets {
		if guessed[cand] || (v.WordCount > 0 && len(wordguess.Tokens(cand)) != v.WordCount) {
			continue
		}
		var miss float64
		for _, at := range v.Attempts {
			if at.Guess == "" {
				continue
			}
			miss += math.Abs(wordguess.Score(at.Guess, cand) - at.Score)
		}
		if miss < bestErr {
			best, bestErr = cand, miss
		}
	}
	if best == "" {
		act, _ := pick(valid, wordguess.ActionPass)
		return Response{ChosenAction: act, Confidence: 0.1, Rationale: "no candidate"}
	}
	return Response{
		ChosenAction: game.Action{Type: wordguess.ActionGuess, Text: best},
		Confidence:   math.Max(0.1, 1-bestErr),
		Rationale:    "closest known phrase",
	}
}
