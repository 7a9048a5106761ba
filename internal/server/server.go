// Package server provides the HTTP API for Kotae.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/kotaehq/kotae/internal/config"
	"github.com/kotaehq/kotae/internal/ingest"
	"github.com/kotaehq/kotae/internal/matheval"
	"github.com/kotaehq/kotae/internal/rag"
	"github.com/kotaehq/kotae/internal/storage"
)

// Server is the HTTP server for the Kotae API.
type Server struct {
	handle    *rag.Handle
	builder   *rag.Builder
	registry  storage.Registry
	processor *ingest.Processor
	evaluator *matheval.Evaluator
	config    *config.ServerConfig
	logger    *zap.Logger
	server    *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	handle *rag.Handle,
	builder *rag.Builder,
	registry storage.Registry,
	processor *ingest.Processor,
	evaluator *matheval.Evaluator,
	cfg *config.ServerConfig,
	logger *zap.Logger,
) *Server {
	return &Server{
		handle:    handle,
		builder:   builder,
		registry:  registry,
		processor: processor,
		evaluator: evaluator,
		config:    cfg,
		logger:    logger,
	}
}

// Router builds the chi router with all API routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	r.Post("/api/v1/query", s.handleQuery)
	r.Post("/api/v1/math", s.handleMath)
	r.Post("/api/v1/upload", s.handleUpload)
	r.Get("/api/v1/documents", s.handleListDocuments)
	r.Delete("/api/v1/documents", s.handleDeleteAllDocuments)
	r.Delete("/api/v1/documents/{filename}", s.handleDeleteDocument)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)

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
