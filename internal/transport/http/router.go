package httptransport

import (
	"expvar"
	"net/http"
	"sort"

	"ai-arena/internal/arena"
	"ai-arena/internal/config"
	"ai-arena/internal/mcpserver"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

func NewRouter(eng *arena.Engine, cfg config.ServerConfig) *chi.Mux {
	sessions := NewSessionHandlers(eng)
	mcpSrv := mcpserver.New(eng)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.With(APILogMiddleware()).Get("/healthz", sessions.Health())
	r.With(APILogMiddleware()).MethodFunc(http.MethodOptions, "/mcp", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Allow", "POST, GET, DELETE, OPTIONS")
		w.WriteHeader(http.StatusNoContent)
	})
	r.Group(func(r chi.Router) {
		r.Use(APILogMiddleware())
		r.Use(AdminAuthMiddleware(cfg.AdminAPIKey))
		r.Method(http.MethodPost, "/mcp", mcpSrv.Handler())
		r.Method(http.MethodGet, "/mcp", mcpSrv.Handler())
		r.Method(http.MethodDelete, "/mcp", mcpSrv.Handler())
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(APILogMiddleware())
		r.Get("/events", GlobalEventsHandler(eng))
		r.Get("/sessions", sessions.List())
		r.Get("/sessions/{id}", sessions.Get())
		r.Get("/sessions/{id}/events", SessionEventsHandler(eng))
		r.Get("/sessions/{id}/watch", WatchHandler(eng))
		r.Post("/sessions/{id}/spectators", sessions.AddSpectator())
		r.Delete("/sessions/{id}/spectators/{viewer_id}", sessions.RemoveSpectator())

		r.Group(func(r chi.Router) {
			r.Use(AdminAuthMiddleware(cfg.AdminAPIKey))
			r.Use(BodyCaptureMiddleware(4096))
			r.Post("/sessions", sessions.Create())
			r.Post("/sessions/{id}/start", sessions.Start())
			r.Post("/sessions/{id}/pause", sessions.Pause())
			r.Post("/sessions/{id}/resume", sessions.Resume())
			r.Post("/sessions/{id}/ready", sessions.Ready())
			r.Post("/sessions/{id}/speed", sessions.Speed())
			r.Post("/sessions/{id}/actions", sessions.Action())

			r.Get("/debug/vars", expvar.Handler().ServeHTTP)
		})
	})
	return r
}

// LogRoutes writes the registered routes to the log, sorted by path then method.
func LogRoutes(r chi.Router) {
	var routes []string
	err := chi.Walk(r, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, route+" "+method)
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("walk_routes_failed")
		return
	}
	sort.Strings(routes)
	log.Info().Int("count", len(routes)).Strs("routes", routes).Msg("routes_registered")
}
