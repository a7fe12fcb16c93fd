package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/gdocmark/internal/config"
	"github.com/dgallion1/gdocmark/internal/docsapi"
	"github.com/dgallion1/gdocmark/internal/pipeline"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API server for gdocmark.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	source       docsapi.Source
	stats        *docsapi.LatencyStats
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server. stats may be nil when
// documents are not served by the Docs API.
func NewServer(orch *pipeline.Orchestrator, source docsapi.Source, stats *docsapi.LatencyStats, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		source:       source,
		stats:        stats,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/compile", s.handleCompile)
		r.Post("/api/decompile", s.handleDecompile)
		r.Post("/api/normalize", s.handleNormalize)

		r.Get("/api/documents/{docID}/markdown", s.handleDocumentMarkdown)
		r.Post("/api/documents/{docID}/push", s.handlePush)
		r.Get("/api/jobs/{jobID}", s.handleJobStatus)

		r.Get("/api/stats/docs", s.handleDocsStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
