package httptransport

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"ai-arena/internal/arena"
	"ai-arena/internal/events"
	"ai-arena/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	watchWriteWait  = 10 * time.Second
	watchPongWait   = 60 * time.Second
	watchPingPeriod = watchPongWait * 9 / 10
)

var watchUpgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

type watchKey struct{ session, viewer string }

// watchers counts open sockets per viewer. The viewer joins on its first socket and
// leaves on its last, so a second tab closing does not drop a viewer still watching.
type watchers struct {
	mu    sync.Mutex
	conns map[watchKey]int
}

func newWatchers() *watchers {
	return &watchers{conns: map[watchKey]int{}}
}

func (w *watchers) join(ctx context.Context, eng *arena.Engine, sessionID, viewerID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	k := watchKey{sessionID, viewerID}
	if w.conns[k] == 0 {
		if _, err := eng.AddSpectator(ctx, sessionID, viewerID); err != nil {
			return err
		}
	}
	w.conns[k]++
	return nil
}

func (w *watchers) leave(ctx context.Context, eng *arena.Engine, sessionID, viewerID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	k := watchKey{sessionID, viewerID}
	if w.conns[k]--; w.conns[k] > 0 {
		return nil
	}
	delete(w.conns, k)
	_, err := eng.RemoveSpectator(ctx, sessionID, viewerID)
	return err
}

// WatchHandler joins the caller as a spectator for as long as the websocket stays open
// and forwards the session topic to it.
func WatchHandler(eng *arena.Engine) http.HandlerFunc {
	conns := newWatchers()
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "id")
		if _, err := eng.GetSession(r.Context(), sessionID); err != nil {
			writeCommandError(w, err)
			return
		}
		viewerID := strings.TrimSpace(r.URL.Query().Get("viewer_id"))
		if viewerID == "" {
			viewerID = "viewer_" + store.NewID()
		}

		conn, err := watchUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		metricWatchConnectionsTotal.Add(1)
		metricWatchConnectionsActive.Add(1)
		defer metricWatchConnectionsActive.Add(-1)

		buf := eng.Events().Session(sessionID)
		ch := buf.Subscribe()
		defer buf.Unsubscribe(ch)

		ctx := context.WithoutCancel(r.Context())
		if err := conns.join(ctx, eng, sessionID, viewerID); err != nil {
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, err.Error()))
			_ = conn.Close()
			return
		}
		log.Info().Str("session_id", sessionID).Str("viewer_id", viewerID).Msg("watch_opened")
		defer func() {
			if err := conns.leave(ctx, eng, sessionID, viewerID); err != nil {
				log.Warn().Err(err).Str("session_id", sessionID).Str("viewer_id", viewerID).Msg("watch_leave_failed")
			}
			log.Info().Str("session_id", sessionID).Str("viewer_id", viewerID).Msg("watch_closed")
		}()

		closed := make(chan struct{})
		go watchReadLoop(conn, closed)
		watchWriteLoop(conn, ch, closed)
		_ = conn.Close()
	}
}

// watchReadLoop drains client frames so pongs and close frames are processed.
func watchReadLoop(conn *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)
	conn.SetReadLimit(4096)
	_ = conn.SetReadDeadline(time.Now().Add(watchPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(watchPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func watchWriteLoop(conn *websocket.Conn, ch <-chan events.Event, closed <-chan struct{}) {
	ticker := time.NewTicker(watchPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-closed:
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			raw, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(watchWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(watchWriteWait)); err != nil {
				return
			}
		}
	}
}
