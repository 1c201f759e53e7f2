// Package server provides the HTTP API for WorkflowWise.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/workflowwise/workflowwise/internal/config"
	"github.com/workflowwise/workflowwise/internal/docstore"
	"github.com/workflowwise/workflowwise/internal/pipeline"
)

// Server is the HTTP server for the WorkflowWise API.
type Server struct {
	orchestrator *pipeline.Orchestrator
	store        docstore.Store
	config       *config.ServerConfig
	staticDir    string
	logger       *zap.Logger
	server       *http.Server
}

// NewServer creates a server with the given dependencies. orchestrator may be
// degraded (missing collaborators); search requests then return 503.
func NewServer(
	orchestrator *pipeline.Orchestrator,
	store docstore.Store,
	cfg *config.ServerConfig,
	staticDir string,
	logger *zap.Logger,
) *Server {
	return &Server{
		orchestrator: orchestrator,
		store:        store,
		config:       cfg,
		staticDir:    staticDir,
		logger:       logger,
	}
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/search", s.handleSearch)
	r.Post("/api/documents/query", s.handleDocumentQuery)
	r.Get("/health", s.handleHealth)
	r.Get("/", s.handleIndex)

	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
