package arena

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"ai-arena/internal/events"
)

// AddSpectator records a viewer. A pending idle pause is cancelled, and a paused session
// resumes when its first viewer arrives.
func (e *Engine) AddSpectator(ctx context.Context, id, viewer string) (Snapshot, error) {
	viewer = strings.TrimSpace(viewer)
	if viewer == "" {
		return Snapshot{}, ErrInvalidViewer
	}
	sess, err := e.lookup(ctx, id)
	if err != nil {
		return Snapshot{}, err
	}

	sess.mu.Lock()
	_, already := sess.spectators[viewer]
	sess.spectators[viewer] = struct{}{}
	sess.everWatched = true
	sess.lastActivity = e.now()
	if sess.graceTimer != nil {
		sess.graceTimer.Stop()
		sess.graceTimer = nil
	}
	sess.graceGen++
	resume := !already && len(sess.spectators) == 1 && sess.status == StatusPaused
	if resume {
		sess.status = StatusActive
	}
	count := len(sess.spectators)
	sess.mu.Unlock()

	if !already {
		e.events.Lifecycle(id, events.ViewerJoined, map[string]any{"viewer_id": viewer, "viewers": count})
	}
	if resume {
		e.startLoop(sess)
		log.Info().Str("session_id", id).Str("viewer_id", viewer).Msg("session_resumed_by_viewer")
		e.events.Lifecycle(id, events.Resumed, map[string]any{"status": StatusActive, "reason": "viewer_joined"})
	}
	return e.commitSnapshot(ctx, sess), nil
}

// RemoveSpectator drops a viewer. When the last one leaves an active session, the
// session pauses unless someone joins within the grace period.
func (e *Engine) RemoveSpectator(ctx context.Context, id, viewer string) (Snapshot, error) {
	sess, err := e.lookup(ctx, id)
	if err != nil {
		return Snapshot{}, err
	}

	sess.mu.Lock()
	_, present := sess.spectators[viewer]
	delete(sess.spectators, viewer)
	sess.lastActivity = e.now()
	count := len(sess.spectators)
	if present && count == 0 && sess.everWatched && sess.status == StatusActive {
		if sess.graceTimer != nil {
			sess.graceTimer.Stop()
		}
		sess.graceGen++
		gen := sess.graceGen
		sess.graceTimer = time.AfterFunc(e.cfg.ViewerGrace, func() { e.graceExpired(sess, gen) })
	}
	sess.mu.Unlock()

	if !present {
		return e.snapshotOf(sess), nil
	}
	e.events.Lifecycle(id, events.ViewerLeft, map[string]any{"viewer_id": viewer, "viewers": count})
	return e.commitSnapshot(ctx, sess), nil
}

func (e *Engine) graceExpired(sess *Session, gen uint64) {
	sess.mu.Lock()
	if sess.graceGen != gen || len(sess.spectators) > 0 || sess.status != StatusActive {
		sess.mu.Unlock()
		return
	}
	sess.graceTimer = nil
	sess.status = StatusPaused
	sess.lastActivity = e.now()
	sess.mu.Unlock()

	e.stopLoop(sess)
	log.Info().Str("session_id", sess.ID).Msg("session_paused_no_viewers")
	e.events.Lifecycle(sess.ID, events.Paused, map[string]any{"status": StatusPaused, "reason": "no_viewers"})
	e.commitSnapshot(context.Background(), sess)
}
