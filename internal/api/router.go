package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeNotFound(w, "no such endpoint")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrCodeMethodNotAllow, "method not allowed")
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Route("/parameters", func(r chi.Router) {
			r.Get("/", s.handleListParameters)
			r.Route("/{address}", func(r chi.Router) {
				r.Get("/", s.handleGetParameter)
				r.Put("/", s.handleSetParameter)
				r.Post("/reset", s.handleResetParameter)
			})
		})

		r.Route("/tables", func(r chi.Router) {
			r.Get("/", s.handleListTables)
			r.Get("/{category}", s.handleGetTable)
			r.Put("/{category}/current", s.handleSelectKey)
		})

		r.Route("/snapshots", func(r chi.Router) {
			r.Get("/", s.handleListSnapshots)
			r.Post("/", s.handleSaveSnapshot)
			r.Route("/{name}", func(r chi.Router) {
				r.Get("/", s.handleGetSnapshot)
				r.Put("/", s.handleLoadSnapshot)
				r.Patch("/", s.handleAnnotateSnapshot)
				r.Delete("/", s.handleDeleteSnapshot)
			})
		})

		r.Route("/sysex", func(r chi.Router) {
			r.Get("/dump", s.handleSysExDump)
			r.Post("/", s.handleSysExApply)
			r.Post("/reset", s.handleSystemReset)
		})

		r.Get(s.wsPath(), s.handleWebSocket)
	})

	return r
}

// handleHealth returns the server health status, with bridge and event
// queue counters when those components run.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	body := map[string]any{
		"status":     "ok",
		"version":    s.version,
		"ws_clients": s.hub.ClientCount(),
		"ws_dropped": s.hub.Dropped(),
	}
	if s.bridge != nil {
		body["midi"] = s.bridge.GetMetrics()
	}
	if s.fanout != nil {
		body["fanout"] = s.fanout.Stats()
	}
	writeJSON(w, http.StatusOK, body)
}

// wsPath returns the configured WebSocket path below /api/v1.
func (s *Server) wsPath() string {
	if s.wsCfg.Path == "" {
		return "/ws"
	}
	return s.wsCfg.Path
}
