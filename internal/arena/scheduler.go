package arena

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"ai-arena/internal/decision"
	"ai-arena/internal/events"
	"ai-arena/internal/game"
)

// DecisionEvent is published on the decision topic for every applied action.
type DecisionEvent struct {
	Seat       string      `json:"seat"`
	Action     game.Action `json:"action"`
	Controller Controller  `json:"controller"`
	Confidence float64     `json:"confidence,omitempty"`
	Rationale  string      `json:"rationale,omitempty"`
	Fallback   bool        `json:"fallback"`
	Reason     string      `json:"reason,omitempty"`
	LatencyMs  int64       `json:"latency_ms"`
}

func (e *Engine) startLoop(sess *Session) {
	e.baseMu.Lock()
	base := e.baseCtx
	e.baseMu.Unlock()

	sess.mu.Lock()
	if sess.cancel != nil {
		sess.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(base)
	done := make(chan struct{})
	sess.cancel = cancel
	sess.loopDone = done
	sess.mu.Unlock()

	metricSessionsActive.Add(1)
	go e.runLoop(ctx, sess, done)
}

// stopLoop cancels the session's loop without waiting for it. A decision already in
// flight completes in the background and is dropped by the status re-check.
func (e *Engine) stopLoop(sess *Session) {
	sess.mu.Lock()
	cancel := sess.cancel
	sess.cancel = nil
	sess.loopDone = nil
	sess.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (e *Engine) runLoop(ctx context.Context, sess *Session, done chan struct{}) {
	defer func() {
		sess.mu.Lock()
		if sess.loopDone == done {
			sess.cancel()
			sess.cancel = nil
			sess.loopDone = nil
		}
		sess.mu.Unlock()
		metricSessionsActive.Add(-1)
		close(done)
	}()

	if !e.awaitReady(ctx, sess) {
		return
	}
	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		e.tick(ctx, sess)
		if sess.Status() != StatusActive {
			return
		}
		timer.Reset(e.interval(sess))
	}
}

// awaitReady blocks until SignalReady or the ready timeout, whichever comes first.
func (e *Engine) awaitReady(ctx context.Context, sess *Session) bool {
	ready, ch := sess.isReady()
	if ready {
		return true
	}
	timer := time.NewTimer(e.cfg.ReadyTimeout)
	defer timer.Stop()
	select {
	case <-ch:
		return true
	case <-timer.C:
		if sess.markReady() {
			log.Info().Str("session_id", sess.ID).Msg("session_ready_timeout")
		}
		return true
	case <-ctx.Done():
		return false
	}
}

func (e *Engine) interval(sess *Session) time.Duration {
	sess.mu.Lock()
	speed := sess.speed
	sess.mu.Unlock()
	if d, ok := speedDelays[speed]; ok {
		return d
	}
	if d, ok := e.cfg.TickIntervals[sess.Kind]; ok {
		return d
	}
	return defaultTickInterval
}

// tick advances the session by at most one step. Concurrent ticks on the same session
// are skipped, not queued.
func (e *Engine) tick(ctx context.Context, sess *Session) {
	if sess.Status() != StatusActive {
		return
	}
	if !sess.turnLock.CompareAndSwap(false, true) {
		metricTicksSkipped.Add(1)
		return
	}
	defer sess.turnLock.Store(false)
	if sess.Status() != StatusActive {
		return
	}
	metricTicks.Add(1)

	a, err := e.games.Get(sess.Kind)
	if err != nil {
		log.Error().Err(err).Str("session_id", sess.ID).Msg("tick_unknown_game_type")
		return
	}
	state := sess.State()
	seat, ok := a.CurrentTurn(state)
	if !ok {
		switch {
		case a.NeedsNextRound(state):
			e.startRound(ctx, sess, a, state)
		case a.IsComplete(state):
			e.complete(ctx, sess, a)
		default:
			log.Warn().Str("session_id", sess.ID).Msg("tick_no_actor")
		}
		return
	}

	player, ok := sess.seat(seat)
	if !ok {
		log.Error().Str("session_id", sess.ID).Str("seat", seat).Msg("tick_unknown_seat")
		return
	}
	if player.Controller == ControllerHuman {
		return
	}

	sess.addPending(seat)
	res := e.decisions.Decide(ctx, a, state, sess.ID, seat)
	sess.clearPending(seat)
	if ctx.Err() != nil || sess.Status() != StatusActive {
		metricDecisionsDiscarded.Add(1)
		log.Debug().
			Str("session_id", sess.ID).
			Str("seat", seat).
			Msg("decision_discarded")
		return
	}
	_ = e.apply(ctx, sess, a, state, seat, ControllerAI, res)
}

func (e *Engine) startRound(ctx context.Context, sess *Session, a game.Adapter, state game.State) {
	next, err := a.StartNextRound(state)
	if err != nil {
		metricActionsRejected.Add(1)
		log.Error().Err(err).Str("session_id", sess.ID).Msg("start_round_failed")
		return
	}
	sess.mu.Lock()
	if sess.status != StatusActive {
		sess.mu.Unlock()
		metricDecisionsDiscarded.Add(1)
		return
	}
	sess.state = next
	sess.handsPlayed++
	sess.ticks++
	sess.lastActivity = e.now()
	round := sess.handsPlayed
	sess.mu.Unlock()

	e.events.Lifecycle(sess.ID, events.HandStarted, map[string]any{"round": round})
	e.commitSnapshot(ctx, sess)
	if a.IsComplete(next) {
		e.complete(ctx, sess, a)
	}
}

// apply runs one action through the adapter and commits the result. The caller holds
// turnLock. An AI action the adapter rejects is replaced by the fallback once.
func (e *Engine) apply(ctx context.Context, sess *Session, a game.Adapter, state game.State, seat string, ctl Controller, res decision.Result) error {
	next, err := a.ProcessAction(state, seat, res.Action)
	if err != nil && ctl == ControllerAI && !res.Fallback {
		log.Warn().
			Err(err).
			Str("session_id", sess.ID).
			Str("seat", seat).
			Str("action", res.Action.Type).
			Msg("decision_rejected_using_fallback")
		fb := a.Fallback(state, seat, a.ValidActions(state, seat))
		res = decision.Result{Action: fb, Fallback: true, Reason: err.Error(), Latency: res.Latency}
		next, err = a.ProcessAction(state, seat, fb)
	}
	if err != nil {
		metricActionsRejected.Add(1)
		log.Error().
			Err(err).
			Str("session_id", sess.ID).
			Str("seat", seat).
			Str("action", res.Action.Type).
			Msg("action_rejected")
		return err
	}

	// A pause can land while the adapter runs; the result is dropped, not committed.
	sess.mu.Lock()
	if status := sess.status; status != StatusActive {
		sess.mu.Unlock()
		metricDecisionsDiscarded.Add(1)
		log.Debug().
			Str("session_id", sess.ID).
			Str("seat", seat).
			Str("status", string(status)).
			Msg("action_discarded_not_active")
		return fmt.Errorf("%w: session is %s", ErrInvalidTransition, status)
	}
	sess.state = next
	sess.ticks++
	sess.lastActivity = e.now()
	sess.mu.Unlock()

	e.events.Decision(sess.ID, DecisionEvent{
		Seat:       seat,
		Action:     res.Action,
		Controller: ctl,
		Confidence: res.Confidence,
		Rationale:  res.Rationale,
		Fallback:   res.Fallback,
		Reason:     res.Reason,
		LatencyMs:  res.Latency.Milliseconds(),
	})
	e.commitSnapshot(ctx, sess)
	if a.IsComplete(next) {
		e.complete(ctx, sess, a)
	}
	return nil
}

// complete finalises the session and hands the completion to the sink exactly once,
// including across restarts.
func (e *Engine) complete(ctx context.Context, sess *Session, a game.Adapter) {
	sess.mu.Lock()
	if sess.status == StatusCompleted {
		sess.mu.Unlock()
		return
	}
	state := sess.state
	sess.status = StatusCompleted
	sess.rankings = a.FinalRankings(state)
	sess.winner, _ = a.Winner(state)
	sess.completedAt = e.now()
	sess.lastActivity = sess.completedAt
	if sess.graceTimer != nil {
		sess.graceTimer.Stop()
		sess.graceTimer = nil
	}
	deliver := !sess.completionSent
	sess.completionSent = true
	payload := Completion{
		SessionID:     sess.ID,
		GameType:      sess.Kind,
		FinalRankings: append(sess.rankings[:0:0], sess.rankings...),
		Winner:        sess.winner,
		CompletedAt:   sess.completedAt,
	}
	sess.mu.Unlock()
	metricSessionsCompleted.Add(1)

	log.Info().
		Str("session_id", sess.ID).
		Str("game_type", string(sess.Kind)).
		Str("winner", payload.Winner).
		Msg("session_completed")
	e.events.Lifecycle(sess.ID, events.Completed, payload)
	e.commitSnapshot(ctx, sess)

	if deliver {
		if err := e.sink.Deliver(context.WithoutCancel(ctx), payload); err != nil {
			metricCompletionErrors.Add(1)
			log.Warn().Err(err).Str("session_id", sess.ID).Msg("completion_delivery_failed")
		}
	}
}

// SubmitAction applies a human seat's action. It waits for any running tick to finish.
func (e *Engine) SubmitAction(ctx context.Context, id, seat string, act game.Action) (Snapshot, error) {
	sess, err := e.lookup(ctx, id)
	if err != nil {
		return Snapshot{}, err
	}
	player, ok := sess.seat(seat)
	if !ok {
		return Snapshot{}, fmt.Errorf("%w: %q", game.ErrUnknownSeat, seat)
	}
	if player.Controller != ControllerHuman {
		return Snapshot{}, fmt.Errorf("%w: %q", ErrNotHumanSeat, seat)
	}

	for !sess.turnLock.CompareAndSwap(false, true) {
		select {
		case <-ctx.Done():
			return Snapshot{}, ctx.Err()
		case <-time.After(5 * time.Millisecond):
		}
	}
	defer sess.turnLock.Store(false)

	if status := sess.Status(); status != StatusActive {
		return Snapshot{}, fmt.Errorf("%w: session is %s", ErrInvalidTransition, status)
	}
	a, err := e.games.Get(sess.Kind)
	if err != nil {
		return Snapshot{}, err
	}
	state := sess.State()
	if turn, ok := a.CurrentTurn(state); !ok || turn != seat {
		return Snapshot{}, game.ErrNotYourTurn
	}
	if err := e.apply(ctx, sess, a, state, seat, ControllerHuman, decision.Result{Action: act, Confidence: 1}); err != nil {
		return Snapshot{}, err
	}
	metricHumanActions.Add(1)
	return e.snapshotOf(sess), nil
}
