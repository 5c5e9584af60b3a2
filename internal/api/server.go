package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/secgest/internal/config"
	"github.com/dgallion1/secgest/internal/edgar"
	"github.com/dgallion1/secgest/internal/filing"
	"github.com/dgallion1/secgest/internal/llm"
	"github.com/dgallion1/secgest/internal/parser"
	"github.com/dgallion1/secgest/internal/pipeline"
	"github.com/dgallion1/secgest/internal/rag"
	"github.com/dgallion1/secgest/internal/vectorstore"
)

// Fetcher downloads the latest filing of a form for a company.
type Fetcher interface {
	Fetch(ctx context.Context, identifier, form string) (filing.RawDocument, *edgar.Filing, error)
}

// Deps are the collaborators the handlers call.
type Deps struct {
	Orchestrator *pipeline.Orchestrator
	Parser       *parser.Parser
	Answerer     *rag.Answerer
	Fetcher      Fetcher
	Store        vectorstore.Store
	LLMStats     *llm.LLMStats
	Metrics      http.Handler // nil disables /metrics
}

// Server is the HTTP API server for secgest.
type Server struct {
	router chi.Router
	deps   Deps
	log    *slog.Logger
	cfg    config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(deps Deps, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		deps: deps,
		log:  log,
		cfg:  cfg,
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
	if s.deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.deps.Metrics)
	}

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/parse", s.handleParse)
		r.Post("/api/ingest", s.handleIngest)
		r.Get("/api/ingest/{jobID}/status", s.handleIngestStatus)
		r.Post("/api/filings/{ticker}", s.handleFetchFilings)
		r.Post("/api/ask", s.handleAsk)
		r.Delete("/api/index", s.handleResetIndex)
		r.Get("/api/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
