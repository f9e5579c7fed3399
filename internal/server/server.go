package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/pagecraft/pagecraft/internal/config"
	"github.com/pagecraft/pagecraft/internal/engine"
	"github.com/pagecraft/pagecraft/internal/tracking"
)

type Server struct {
	store     *config.Store
	engine    *engine.Engine
	tracker   *tracking.Tracker
	port      int
	token     string
	tokenFile string
	router    *http.ServeMux
	http      *http.Server
	startTime time.Time
	logger    *slog.Logger
}

func New(store *config.Store, eng *engine.Engine, tracker *tracking.Tracker, port int, tokenFile string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	srv := &Server{
		store:     store,
		engine:    eng,
		tracker:   tracker,
		port:      port,
		token:     generateToken(),
		tokenFile: tokenFile,
		router:    http.NewServeMux(),
		startTime: time.Now(),
		logger:    logger.With("component", "server"),
	}

	srv.setupRoutes()
	return srv
}

func (s *Server) setupRoutes() {
	// Visitor-facing endpoints
	s.router.HandleFunc("/health", s.handleHealth)
	s.router.HandleFunc("/api/assign", s.handleAssign)

	// Admin endpoints for editor tooling (protected)
	s.router.Handle("/api/stats", s.authMiddleware(http.HandlerFunc(s.handleStats)))
	s.router.Handle("/api/stats/extended", s.authMiddleware(http.HandlerFunc(s.handleExtendedStats)))
	s.router.Handle("/api/experiments", s.authMiddleware(http.HandlerFunc(s.handleExperiments)))
	s.router.Handle("/api/experiments/update", s.authMiddleware(http.HandlerFunc(s.handleExperimentUpdate)))
	s.router.Handle("/api/variants", s.authMiddleware(http.HandlerFunc(s.handleVariants)))
}

func (s *Server) Start() error {
	// Write token to file for the token command
	if s.tokenFile != "" {
		if err := os.WriteFile(s.tokenFile, []byte(s.token), 0600); err != nil {
			s.logger.Warn("failed to write token file", "path", s.tokenFile, "error", err)
		}
	}

	s.http = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: s.router,
	}

	s.logger.Info("server listening",
		"addr", s.http.Addr,
		"admin_url", fmt.Sprintf("http://localhost:%d/api/stats?token=%s", s.port, s.token))

	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func (s *Server) Token() string {
	return s.token
}

func (s *Server) StartTime() time.Time {
	return s.startTime
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func generateToken() string {
	bytes := make([]byte, 4)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to a simple token if crypto/rand fails
		return "a1b2c3d4"
	}
	return hex.EncodeToString(bytes)
}
