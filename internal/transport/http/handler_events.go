package httptransport

import (
	"net/http"
	"time"

	"ai-arena/internal/arena"
	"ai-arena/internal/events"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

var ssePingInterval = 15 * time.Second

// SessionEventsHandler streams one session's topic. The session is loaded from the store
// when it is not in memory.
func SessionEventsHandler(eng *arena.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "id")
		if _, err := eng.GetSession(r.Context(), sessionID); err != nil {
			writeCommandError(w, err)
			return
		}
		streamSSE(w, r, eng.Events().Session(sessionID), sessionID)
	}
}

func GlobalEventsHandler(eng *arena.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		streamSSE(w, r, eng.Events().Global(), "")
	}
}

func streamSSE(w http.ResponseWriter, r *http.Request, buf *events.Buffer, sessionID string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteHTTPError(w, http.StatusInternalServerError, "stream_not_supported")
		return
	}

	metricSSEConnectionsTotal.Add(1)
	metricSSEConnectionsActive.Add(1)
	defer metricSSEConnectionsActive.Add(-1)

	events.SetSSEHeaders(w)
	log.Info().
		Str("request_id", chimw.GetReqID(r.Context())).
		Str("session_id", sessionID).
		Msg("sse_stream_opened")

	// Subscribe before replaying so nothing published in between is lost.
	ch := buf.Subscribe()
	defer buf.Unsubscribe(ch)

	lastEventID := r.Header.Get("Last-Event-ID")
	if lastEventID == "" {
		lastEventID = r.URL.Query().Get("last_event_id")
	}
	sent := lastEventID
	for _, ev := range buf.ReplayAfter(lastEventID) {
		if err := events.WriteSSE(w, ev); err != nil {
			return
		}
		sent = ev.EventID
	}
	flusher.Flush()

	ticker := time.NewTicker(ssePingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			log.Info().
				Str("request_id", chimw.GetReqID(r.Context())).
				Str("session_id", sessionID).
				Msg("sse_stream_closed")
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if sent != "" && !events.After(ev.EventID, sent) {
				continue
			}
			if err := events.WriteSSE(w, ev); err != nil {
				return
			}
			sent = ev.EventID
			flusher.Flush()
		case <-ticker.C:
			ping := events.Event{Type: "ping", SessionID: sessionID, ServerTS: time.Now().UnixMilli()}
			if err := events.WriteSSE(w, ping); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
