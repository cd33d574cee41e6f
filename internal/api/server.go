// Package api exposes the analyzer over HTTP: a /parse endpoint
// mirroring the upload UI's backend, stored-analysis retrieval, and
// the usual health/metrics plumbing.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"stb/internal/auth"
	"stb/internal/blueprint"
	"stb/internal/logging"
	"stb/internal/storage"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultCacheSize = 256

// Options configures the HTTP server beyond its listen address.
// A nil Store disables the history endpoints; a nil Auth disables
// authentication entirely.
type Options struct {
	CORSOrigins    []string
	MaxSourceBytes int
	CacheSize      int
	Store          *storage.AnalysisStore
	Auth           *auth.Manager
}

// Server represents the HTTP API server
type Server struct {
	router  *http.ServeMux
	server  *http.Server
	addr    string
	logger  *logging.Logger
	opts    Options
	metrics *MetricsCollector

	// cache memoizes analysis results keyed by the SHA-256 of the
	// source text. Analysis is a pure function of the source, so a
	// hit is always valid.
	cache *lru.Cache[string, *blueprint.Result]
}

// NewServer creates a new HTTP server instance
func NewServer(addr string, opts Options, logger *logging.Logger) (*Server, error) {
	cacheSize := opts.CacheSize
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}
	cache, err := lru.New[string, *blueprint.Result](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create blueprint cache: %w", err)
	}

	s := &Server{
		addr:    addr,
		logger:  logger,
		opts:    opts,
		metrics: NewMetricsCollector(),
		cache:   cache,
		router:  http.NewServeMux(),
	}

	// Register routes
	s.registerRoutes()

	// Create HTTP server with configured router and middleware
	handler := s.applyMiddleware(s.router)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", map[string]interface{}{
		"addr":           s.addr,
		"historyEnabled": s.opts.Store != nil,
		"authEnabled":    s.opts.Auth != nil,
	})

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server", nil)

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	s.logger.Info("Server shut down successfully", nil)
	return nil
}

// ServeHTTP implements http.Handler for testing
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.server.Handler.ServeHTTP(w, r)
}

// applyMiddleware wraps the handler with middleware in the correct order
func (s *Server) applyMiddleware(handler http.Handler) http.Handler {
	// Apply middleware in reverse order (last one wraps first)
	handler = s.authMiddleware(handler)
	handler = s.metricsMiddleware(handler)
	handler = RecoveryMiddleware(s.logger)(handler)
	handler = LoggingMiddleware(s.logger)(handler)
	handler = RequestIDMiddleware()(handler)
	handler = CORSMiddleware(s.opts.CORSOrigins)(handler)
	return handler
}
