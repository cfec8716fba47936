// Package server provides the HTTP API for Matome.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/matome/internal/config"
	"github.com/hyperjump/matome/internal/organizer"
	"github.com/hyperjump/matome/internal/watcher"
)

// Server is the HTTP server for the Matome API.
type Server struct {
	org    *organizer.Organizer
	config *config.Config
	logger *zap.Logger
	server *http.Server

	// Watch management is optional; endpoints respond 501 when disabled.
	watch      *watcher.Watcher
	configPath string
	configMu   sync.Mutex
}

// NewServer creates a server with the given dependencies.
func NewServer(org *organizer.Organizer, cfg *config.Config, logger *zap.Logger) *Server {
	return &Server{
		org:    org,
		config: cfg,
		logger: logger,
	}
}

// EnableWatchManagement exposes the watch-directory endpoints. When
// configPath is non-empty, directory changes are persisted to the config
// file.
func (s *Server) EnableWatchManagement(w *watcher.Watcher, configPath string) {
	s.watch = w
	s.configPath = configPath
}

// Router builds the chi router with all routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/documents", s.handleIngestDocument)
		r.Post("/documents/batch", s.handleIngestBatch)
		r.Get("/documents", s.handleListDocuments)
		r.Get("/documents/{id}", s.handleGetDocument)
		r.Put("/documents/{id}", s.handleUpdateDocument)
		r.Delete("/documents/{id}", s.handleDeleteDocument)

		r.Post("/search", s.handleSearch)

		r.Get("/clusters", s.handleListClusters)
		r.Get("/clusters/{id}", s.handleGetCluster)
		r.Patch("/clusters/{id}", s.handleRenameCluster)
		r.Get("/clusters/{id}/documents", s.handleClusterDocuments)

		r.Get("/status", s.handleStatus)

		r.Get("/watch/directories", s.handleWatchDirectoriesList)
		r.Post("/watch/directories", s.handleWatchDirectoriesAdd)
		r.Delete("/watch/directories", s.handleWatchDirectoriesRemove)
	})
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
