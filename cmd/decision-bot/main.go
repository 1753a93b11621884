// Command decision-bot answers decision requests with the built-in heuristic so the
// arena can be exercised against a real HTTP provider.
package main

import (
	"encoding/json"
	"net/http"
	"time"

	"ai-arena/internal/config"
	"ai-arena/internal/decision"
	"ai-arena/internal/logging"
	httptransport "ai-arena/internal/transport/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

func main() {
	logCfg, err := config.LoadLog("decision-bot")
	if err != nil {
		panic(err)
	}
	if err := logging.Init(logCfg); err != nil {
		panic(err)
	}
	cfg, err := config.LoadBot()
	if err != nil {
		log.Fatal().Err(err).Msg("load_bot_config_failed")
	}

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           newRouter(cfg, decision.NewHeuristicProvider()),
		ReadHeaderTimeout: 5 * time.Second,
	}
	log.Info().Str("addr", cfg.HTTPAddr).Msg("decision_bot_listening")
	log.Fatal().Err(server.ListenAndServe()).Msg("decision_bot_stopped")
}

func newRouter(cfg config.BotConfig, provider decision.Provider) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	})
	r.Group(func(r chi.Router) {
		r.Use(httptransport.APILogMiddleware())
		r.Use(httptransport.AdminAuthMiddleware(cfg.APIKey))
		r.Post("/decide", decideHandler(provider, time.Duration(cfg.ThinkMS)*time.Millisecond))
	})
	return r
}

func decideHandler(provider decision.Provider, think time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req decision.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httptransport.WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		if think > 0 {
			select {
			case <-r.Context().Done():
				return
			case <-time.After(think):
			}
		}
		resp, err := provider.Decide(r.Context(), req)
		if err != nil {
			log.Warn().Err(err).Str("session_id", req.SessionID).Str("seat", req.Seat).Msg("decide_failed")
			httptransport.WriteHTTPError(w, http.StatusUnprocessableEntity, "no_decision")
			return
		}
		log.Debug().
			Str("session_id", req.SessionID).
			Str("game_type", string(req.Kind)).
			Str("seat", req.Seat).
			Str("action", resp.ChosenAction.Type).
			Msg("decision_sent")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}
