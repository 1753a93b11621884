package decision

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"ai-arena/internal/game"
)

const defaultTimeout = 10 * time.Second

// DefaultTimeouts bounds each decision per game type.
var DefaultTimeouts = map[game.Kind]time.Duration{
	game.KindHoldem:     15 * time.Second,
	game.KindConnect4:   5 * time.Second,
	game.KindBattleship: 5 * time.Second,
	game.KindWordGuess:  20 * time.Second,
}

type Gateway struct {
	provider Provider
	timeouts map[game.Kind]time.Duration
}

// NewGateway wraps provider. Kinds missing from timeouts use DefaultTimeouts.
func NewGateway(provider Provider, timeouts map[game.Kind]time.Duration) *Gateway {
	merged := make(map[game.Kind]time.Duration, len(DefaultTimeouts))
	for k, v := range DefaultTimeouts {
		merged[k] = v
	}
	for k, v := range timeouts {
		if v > 0 {
			merged[k] = v
		}
	}
	return &Gateway{provider: provider, timeouts: merged}
}

func (g *Gateway) Timeout(kind game.Kind) time.Duration {
	if d, ok := g.timeouts[kind]; ok {
		return d
	}
	return defaultTimeout
}

// Decide returns an action for seat within the kind's timeout. It always returns a
// legal template-matching action; provider failures only show up as Fallback.
func (g *Gateway) Decide(ctx context.Context, a game.Adapter, s game.State, sessionID, seat string) Result {
	start := time.Now()
	metricDecisionCalls.Add(1)

	valid := a.ValidActions(s, seat)
	timeout := g.Timeout(a.Kind())
	req := Request{
		SessionID:    sessionID,
		Kind:         a.Kind(),
		Seat:         seat,
		State:        a.PublicView(s),
		SeatView:     a.View(s, seat),
		ValidActions: valid,
		DeadlineMs:   timeout.Milliseconds(),
	}

	resp, err := g.call(ctx, req, timeout)
	if err == nil && !game.Contains(valid, resp.ChosenAction) {
		err = fmt.Errorf("%w: %q", ErrIllegalAction, resp.ChosenAction.Type)
	}
	if err != nil {
		switch {
		case errors.Is(err, ErrTimeout):
			metricDecisionTimeouts.Add(1)
		case errors.Is(err, ErrIllegalAction):
			metricDecisionIllegal.Add(1)
		default:
			metricDecisionErrors.Add(1)
		}
		metricDecisionFallbacks.Add(1)
		log.Warn().
			Err(err).
			Str("session_id", sessionID).
			Str("game_type", string(a.Kind())).
			Str("seat", seat).
			Msg("decision_fallback")
		return Result{
			Action:   a.Fallback(s, seat, valid),
			Fallback: true,
			Reason:   err.Error(),
			Latency:  time.Since(start),
		}
	}
	return Result{
		Action:     resp.ChosenAction,
		Confidence: resp.Confidence,
		Rationale:  resp.Rationale,
		Latency:    time.Since(start),
	}
}

// call races the provider against the deadline. The provider goroutine may outlive the
// call; its result is dropped into a buffered channel nobody reads.
func (g *Gateway) call(ctx context.Context, req Request, timeout time.Duration) (Response, error) {
	if g.provider == nil {
		return Response{}, errors.New("no decision provider")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		resp Response
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		resp, err := g.provider.Decide(ctx, req)
		done <- outcome{resp: resp, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil && errors.Is(out.err, context.DeadlineExceeded) {
			return Response{}, ErrTimeout
		}
		return out.resp, out.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Response{}, ErrTimeout
		}
		return Response{}, ctx.Err()
	}
}
