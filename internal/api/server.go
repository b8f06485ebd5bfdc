// SPDX-License-Identifier: MIT

// Package api provides the HTTP surface of vidbridge: job submission,
// stream file serving, and the thin passthrough glue around the core
// transcode pipeline.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/vidbridge/vidbridge/internal/config"
	"github.com/vidbridge/vidbridge/internal/ratelimit"
	"github.com/vidbridge/vidbridge/internal/transcode"
)

// Server wires the HTTP handlers to the transcode pipeline.
type Server struct {
	cfg      config.Config
	orch     *transcode.Orchestrator
	registry *transcode.Registry
	poller   *transcode.Poller
	gate     *ratelimit.Gate
	log      zerolog.Logger
	client   *http.Client
}

// New creates the HTTP server front end.
func New(cfg config.Config, orch *transcode.Orchestrator, reg *transcode.Registry, poller *transcode.Poller, gate *ratelimit.Gate, logger zerolog.Logger) *Server {
	return &Server{
		cfg:      cfg,
		orch:     orch,
		registry: reg,
		poller:   poller,
		gate:     gate,
		log:      logger,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Router builds the chi router with the canonical middleware stack.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(Recoverer)
	r.Use(RequestID)
	r.Use(CORS)
	r.Use(RequestLogger)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(gr chi.Router) {
		gr.Use(APIKeyAuth(s.cfg.APIKey, s.cfg.AllowedOrigins))

		// Per-IP limiting on top of the global creation gate; submission is
		// the only expensive entry point.
		gr.With(httprate.Limit(
			30, time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusTooManyRequests, map[string]any{
					"error":               "rate_limited",
					"retry_after_seconds": 60,
				})
			}),
		)).Post("/convert", s.handleConvert)

		gr.Get("/api/catalog/*", s.handleCatalog)
		gr.Get("/api/search", s.handleSearch)
	})

	r.Get("/static/streams/{jobID}/*", s.handleStreamFile)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
