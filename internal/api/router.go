// Package api serves the read-only preview API over the search index and the
// generated module files.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tennisfel/compendium/internal/index"
	"github.com/tennisfel/compendium/internal/sse"
)

// Server holds the preview API dependencies.
type Server struct {
	repo      *index.Repo
	broker    *sse.Broker
	outputDir string
	logger    *slog.Logger
}

// NewServer creates the preview server. outputDir is the module output tree
// served statically so a local Foundry install can mount it directly.
func NewServer(repo *index.Repo, broker *sse.Broker, outputDir string, logger *slog.Logger) *Server {
	return &Server{repo: repo, broker: broker, outputDir: outputDir, logger: logger}
}

// Router builds the HTTP routes. token, when non-empty, protects the API
// routes; static module files and health stay open.
func (s *Server) Router(token string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Use(AuthMiddleware(token))
		r.Get("/entries", s.handleListEntries)
		r.Get("/entries/{id}", s.handleGetEntry)
		r.Get("/search", s.handleSearch)
		r.Get("/events", s.broker.ServeHTTP)
	})

	fs := http.FileServer(http.Dir(s.outputDir))
	r.Get("/module.json", fs.ServeHTTP)
	r.Handle("/packs/*", fs)
	r.Handle("/assets/*", fs)

	return r
}
