// Package server exposes the research pipeline over HTTP: agent card,
// deck generation, and project retrieval, regeneration and download.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/smallnest/researchdeck/export"
	"github.com/smallnest/researchdeck/log"
	"github.com/smallnest/researchdeck/research"
	"github.com/smallnest/researchdeck/store"
)

// MaxRequestBytes bounds request bodies; slide findings can be long.
const MaxRequestBytes = 50 << 20

// AgentCard describes the service to agent directories.
type AgentCard struct {
	Name         string            `json:"name"`
	Description  string            `json:"description"`
	Version      string            `json:"version"`
	Type         string            `json:"type"`
	Capabilities []string          `json:"capabilities"`
	Skills       []string          `json:"skills"`
	Endpoints    map[string]string `json:"endpoints"`
}

// DefaultAgentCard is served at / and /.well-known/agent-card.json.
var DefaultAgentCard = AgentCard{
	Name:         "StorySlide AI Purple Agent",
	Description:  "An AI-powered Purple Agent specializes in generating structured, research-driven slide decks. It transforms raw research data into visually engaging slides with coherent speaker notes and clear logical flow, suitable for professional presentations.",
	Version:      "1.0.0",
	Type:         "purple",
	Capabilities: []string{"generation"},
	Skills:       []string{},
	Endpoints:    map[string]string{"generate": "/generate"},
}

// Server is the HTTP host.
type Server struct {
	runner       *research.Runner
	store        store.ProjectStore
	exporter     *export.Exporter
	logger       log.Logger
	card         AgentCard
	writeTimeout time.Duration
	router       chi.Router

	// projects serializes load, regenerate and save per project id.
	projects *keyedMutex
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithExporter overrides the artifact exporter.
func WithExporter(e *export.Exporter) Option {
	return func(s *Server) {
		if e != nil {
			s.exporter = e
		}
	}
}

// WithAgentCard overrides the agent card.
func WithAgentCard(c AgentCard) Option {
	return func(s *Server) {
		s.card = c
	}
}

// WithWriteTimeout bounds how long a response may take. Generation runs the
// whole pipeline inside the request, so this is long by default.
func WithWriteTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.writeTimeout = d
		}
	}
}

// New creates a Server.
func New(runner *research.Runner, st store.ProjectStore, opts ...Option) *Server {
	s := &Server{
		runner:       runner,
		store:        st,
		logger:       log.GetDefaultLogger(),
		card:         DefaultAgentCard,
		writeTimeout: 10 * time.Minute,
		router:       chi.NewRouter(),
		projects:     newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.exporter == nil {
		s.exporter = export.New(export.WithLogger(s.logger))
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
}

func (s *Server) setupRoutes() {
	s.router.Get("/", s.handleAgentCard)
	s.router.Get("/.well-known/agent-card.json", s.handleAgentCard)
	s.router.Post("/generate", s.handleGenerate)

	s.router.Route("/projects", func(r chi.Router) {
		r.Get("/", s.handleListProjects)
		r.Get("/{id}", s.handleGetProject)
		r.Get("/{id}/bundle", s.handleBundle)
		r.Post("/{id}/objectives/{objectiveID}/regenerate", s.handleRegenerate)
	})
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// requestLogger logs one line per request through the server logger.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("%s %s -> %d (%d bytes) in %s [%s]",
			r.Method, r.URL.Path, ww.Status(), ww.BytesWritten(), time.Since(start).Round(time.Millisecond),
			middleware.GetReqID(r.Context()))
	})
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      s.writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
