// Package server provides the HTTP API: session lifecycle, document upload,
// and conversational turns.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/clauselens/clauselens/session"
)

// Config holds the HTTP listener settings.
type Config struct {
	Host            string
	Port            int
	RequestTimeout  time.Duration
	MaxDocumentSize int64
}

// DefaultConfig returns sensible listener defaults.
func DefaultConfig() *Config {
	return &Config{
		Host:            "0.0.0.0",
		Port:            8080,
		RequestTimeout:  90 * time.Second,
		MaxDocumentSize: 20 << 20, // 20 MiB
	}
}

// Server is the HTTP front end over the session manager.
type Server struct {
	sessions *session.Manager
	config   *Config
	logger   *slog.Logger
	server   *http.Server
}

// NewServer creates a server over a session manager.
func NewServer(sessions *session.Manager, cfg *Config, logger *slog.Logger) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		sessions: sessions,
		config:   cfg,
		logger:   logger,
	}
}

// Router builds the chi router with all routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.config.RequestTimeout))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/sessions", s.handleCreateSession)
	r.Delete("/api/v1/sessions/{id}", s.handleDeleteSession)
	r.Post("/api/v1/sessions/{id}/documents", s.handleUploadDocument)
	r.Post("/api/v1/sessions/{id}/turns", s.handleTurn)
	r.Get("/api/v1/sessions/{id}/export", s.handleExport)
	r.Post("/api/v1/sessions/{id}/import", s.handleImport)
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
	s.logger.Info("starting server", "addr", addr)
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
