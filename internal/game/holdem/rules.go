package holdem

import (
	"fmt"

	"ai-arena/internal/game"
)

func validActions(s *State, idx int) []game.Action {
	if idx < 0 || idx != s.CurrentActor || s.Phase == PhaseHandComplete || s.Phase == PhaseShowdown {
		return nil
	}
	me := &s.Players[idx]
	if !me.canAct() {
		return nil
	}
	need := s.CurrentBet - me.RoundBet
	out := []game.Action{{Type: string(ActionFold)}}
	if need <= 0 {
		out = append(out, game.Action{Type: string(ActionCheck)})
	} else {
		out = append(out, game.Action{Type: string(ActionCall), Amount: min64(need, me.Stack)})
	}
	if s.CurrentBet == 0 && me.Stack > 0 {
		out = append(out, game.Action{Type: string(ActionBet), Amount: min64(s.MinRaise, me.Stack)})
	}
	if s.CurrentBet > 0 && me.Stack > need {
		out = append(out, game.Action{Type: string(ActionRaise), Amount: min64(s.CurrentBet+s.MinRaise, me.RoundBet+me.Stack)})
	}
	if me.Stack > 0 {
		out = append(out, game.Action{Type: string(ActionAllIn), Amount: me.Stack})
	}
	return out
}

// validateAction checks a against the current betting state. Amount semantics: bet is the
// number of chips added, raise is the total the round bet is raised to.
func validateAction(s *State, idx int, a game.Action) error {
	if s.Phase == PhaseHandComplete || s.Phase == PhaseShowdown {
		return game.ErrNotYourTurn
	}
	if idx != s.CurrentActor {
		return game.ErrNotYourTurn
	}
	me := &s.Players[idx]
	if !me.canAct() {
		return game.ErrNotYourTurn
	}
	need := s.CurrentBet - me.RoundBet
	switch ActionType(a.Type) {
	case ActionFold:
		return nil
	case ActionCheck:
		if need > 0 {
			return fmt.Errorf("%w: check facing %d", game.ErrInvalidAction, need)
		}
		return nil
	case ActionCall:
		if need <= 0 {
			return fmt.Errorf("%w: nothing to call", game.ErrInvalidAction)
		}
		return nil
	case ActionBet:
		if s.CurrentBet != 0 {
			return fmt.Errorf("%w: bet into existing bet", game.ErrInvalidAction)
		}
		if a.Amount <= 0 || a.Amount > me.Stack {
			return fmt.Errorf("%w: bet %d outside stack", game.ErrInvalidAction, a.Amount)
		}
		if a.Amount < s.MinRaise && a.Amount != me.Stack {
			return fmt.Errorf("%w: bet %d below minimum %d", game.ErrInvalidAction, a.Amount, s.MinRaise)
		}
		return nil
	case ActionRaise:
		if s.CurrentBet == 0 {
			return fmt.Errorf("%w: raise without bet", game.ErrInvalidAction)
		}
		maxTo := me.RoundBet + me.Stack
		if a.Amount <= s.CurrentBet || a.Amount > maxTo {
			return fmt.Errorf("%w: raise to %d outside (%d, %d]", game.ErrInvalidAction, a.Amount, s.CurrentBet, maxTo)
		}
		if a.Amount < s.CurrentBet+s.MinRaise && a.Amount != maxTo {
			return fmt.Errorf("%w: raise to %d below minimum %d", game.ErrInvalidAction, a.Amount, s.CurrentBet+s.MinRaise)
		}
		return nil
	case ActionAllIn:
		if me.Stack <= 0 {
			return fmt.Errorf("%w: empty stack", game.ErrInvalidAction)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown action %q", game.ErrInvalidAction, a.Type)
	}
}
