package httptransport

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"ai-arena/internal/arena"
	"ai-arena/internal/game"

	"github.com/go-chi/chi/v5"
)

type SessionHandlers struct {
	eng *arena.Engine
}

func NewSessionHandlers(eng *arena.Engine) *SessionHandlers {
	return &SessionHandlers{eng: eng}
}

func (h *SessionHandlers) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":         true,
			"sessions":   len(h.eng.ListSessions()),
			"game_types": h.eng.Games().Kinds(),
		})
	}
}

func (h *SessionHandlers) Create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metricSessionCreateTotal.Add(1)
		var req arena.CreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			metricSessionCreateErrors.Add(1)
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		snap, err := h.eng.CreateSession(r.Context(), req)
		if err != nil {
			metricSessionCreateErrors.Add(1)
			writeCommandError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, snap)
	}
}

// List serves in-memory sessions, optionally filtered by status and game_type.
func (h *SessionHandlers) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, h.eng.QuerySessions(parseListQuery(r)))
	}
}

func (h *SessionHandlers) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := h.eng.GetSession(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeCommandError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

func (h *SessionHandlers) Start() http.HandlerFunc  { return h.command(h.eng.StartSession) }
func (h *SessionHandlers) Pause() http.HandlerFunc  { return h.command(h.eng.PauseSession) }
func (h *SessionHandlers) Resume() http.HandlerFunc { return h.command(h.eng.ResumeSession) }
func (h *SessionHandlers) Ready() http.HandlerFunc  { return h.command(h.eng.SignalReady) }

func (h *SessionHandlers) command(fn func(ctx context.Context, id string) (arena.Snapshot, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := fn(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeCommandError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

type speedRequest struct {
	Speed string `json:"speed"`
}

func (h *SessionHandlers) Speed() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req speedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		speed, err := arena.ParseSpeed(strings.ToLower(strings.TrimSpace(req.Speed)))
		if err != nil {
			writeCommandError(w, err)
			return
		}
		snap, err := h.eng.SetSpeed(r.Context(), chi.URLParam(r, "id"), speed)
		if err != nil {
			writeCommandError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

type actionRequest struct {
	Seat   string      `json:"seat"`
	Action game.Action `json:"action"`
}

func (h *SessionHandlers) Action() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metricActionSubmitTotal.Add(1)
		var req actionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			metricActionSubmitErrors.Add(1)
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		if strings.TrimSpace(req.Seat) == "" || strings.TrimSpace(req.Action.Type) == "" {
			metricActionSubmitErrors.Add(1)
			WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		snap, err := h.eng.SubmitAction(r.Context(), chi.URLParam(r, "id"), req.Seat, req.Action)
		if err != nil {
			metricActionSubmitErrors.Add(1)
			writeCommandError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

type spectatorRequest struct {
	ViewerID string `json:"viewer_id"`
}

func (h *SessionHandlers) AddSpectator() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req spectatorRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		snap, err := h.eng.AddSpectator(r.Context(), chi.URLParam(r, "id"), req.ViewerID)
		if err != nil {
			writeCommandError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

func (h *SessionHandlers) RemoveSpectator() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := h.eng.RemoveSpectator(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "viewer_id"))
		if err != nil {
			writeCommandError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}
