// Package server provides the HTTP API for papyr.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/inkstack/papyr/internal/answer"
	"github.com/inkstack/papyr/internal/config"
	"github.com/inkstack/papyr/internal/ingest"
	"github.com/inkstack/papyr/internal/keyword"
	"github.com/inkstack/papyr/internal/storage"
	"github.com/inkstack/papyr/internal/vector"
)

// Server is the HTTP server for the papyr API.
type Server struct {
	ingestor *ingest.Ingestor
	answerer *answer.Assembler
	files    *storage.DiskStore
	store    vector.Store
	keywords *keyword.Index // nil when keyword search is disabled
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server
}

// NewServer creates a server with the given dependencies. keywords may be nil.
func NewServer(
	ingestor *ingest.Ingestor,
	answerer *answer.Assembler,
	files *storage.DiskStore,
	store vector.Store,
	keywords *keyword.Index,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		ingestor: ingestor,
		answerer: answerer,
		files:    files,
		store:    store,
		keywords: keywords,
		config:   cfg,
		logger:   logger,
	}
}

// Router builds the chi router with all routes and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	// Query requests block on the completion backend, so the request timeout
	// must outlive the LLM client timeout.
	r.Use(middleware.Timeout(time.Duration(s.config.LLM.TimeoutSeconds+30) * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/documents", s.handleUploadDocuments)
	r.Get("/api/v1/documents", s.handleListDocuments)
	r.Get("/api/v1/documents/{name}", s.handleGetDocument)
	r.Post("/api/v1/query", s.handleQuery)
	r.Get("/api/v1/search", s.handleKeywordSearch)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
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
