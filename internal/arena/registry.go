package arena

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"ai-arena/internal/store"
)

// lookup returns the live session for id. Sessions missing from memory are restored
// from the store: they count as ready and, when active, get their loop back.
func (e *Engine) lookup(ctx context.Context, id string) (*Session, error) {
	e.mu.Lock()
	sess, ok := e.sessions[id]
	e.mu.Unlock()
	if ok {
		return sess, nil
	}
	if id == "" {
		return nil, ErrSessionNotFound
	}

	raw, err := e.store.Load(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	restored, err := decodeRecord(raw, e.games)
	if err != nil {
		return nil, fmt.Errorf("restore session %s: %w", id, err)
	}
	restored.markReady()
	// A decision that was in flight died with the previous process.
	restored.pending = map[string]struct{}{}

	e.mu.Lock()
	if existing, ok := e.sessions[id]; ok {
		e.mu.Unlock()
		return existing, nil
	}
	e.sessions[id] = restored
	e.mu.Unlock()
	metricSessionsRecovered.Add(1)

	status := restored.Status()
	log.Info().
		Str("session_id", id).
		Str("game_type", string(restored.Kind)).
		Str("status", string(status)).
		Msg("session_restored")
	if status == StatusActive {
		e.startLoop(restored)
	}
	return restored, nil
}

func (e *Engine) list() []*Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*Session, 0, len(e.sessions))
	for _, sess := range e.sessions {
		out = append(out, sess)
	}
	return out
}

// persist writes the session record with a fresh TTL. Completed records only live for
// the retention window, so the store expires them even if no sweep ever sees them in
// memory. Failures are logged and counted; the session keeps running from memory.
func (e *Engine) persist(ctx context.Context, sess *Session) {
	payload, err := encodeRecord(sess)
	if err != nil {
		metricPersistErrors.Add(1)
		log.Error().Err(err).Str("session_id", sess.ID).Msg("session_encode_failed")
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()
	ttl := e.cfg.SessionTTL
	if sess.Status() == StatusCompleted {
		ttl = e.cfg.Retention
	}
	if err := e.store.Save(ctx, sess.ID, payload, ttl); err != nil {
		metricPersistErrors.Add(1)
		log.Warn().Err(err).Str("session_id", sess.ID).Msg("session_persist_failed")
	}
}

// sweep drops completed sessions idle for longer than the retention window, then asks
// the store to purge expired records. It returns how many sessions it removed.
func (e *Engine) sweep(ctx context.Context, now time.Time) int {
	cutoff := now.Add(-e.cfg.Retention)
	var stale []*Session
	e.mu.Lock()
	for id, sess := range e.sessions {
		sess.mu.Lock()
		done := sess.status == StatusCompleted && sess.lastActivity.Before(cutoff)
		sess.mu.Unlock()
		if done {
			stale = append(stale, sess)
			delete(e.sessions, id)
		}
	}
	e.mu.Unlock()

	for _, sess := range stale {
		e.stopLoop(sess)
		if err := e.store.Delete(ctx, sess.ID); err != nil {
			log.Warn().Err(err).Str("session_id", sess.ID).Msg("session_delete_failed")
		}
		e.events.Remove(sess.ID)
		metricSessionsSwept.Add(1)
		log.Info().Str("session_id", sess.ID).Msg("session_swept")
	}

	if purged, err := e.store.PurgeExpired(ctx); err != nil {
		log.Warn().Err(err).Msg("session_purge_failed")
	} else if purged > 0 {
		log.Info().Int("purged", purged).Msg("session_records_purged")
	}
	return len(stale)
}
