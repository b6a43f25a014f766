// Package server provides the local HTTP control surface for facecam.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ayusman/facecam/internal/server/api"
	"github.com/ayusman/facecam/internal/store"
)

// shutdownTimeout bounds graceful shutdown of open connections.
const shutdownTimeout = 5 * time.Second

// Controller is everything the HTTP surface needs from the capture loop.
type Controller interface {
	api.Controller
	FrameSource
	StatsSource
}

// Config holds the server configuration.
type Config struct {
	Controller  Controller
	Store       *store.Store
	SnapshotDir string
}

// Server represents the HTTP server for the facecam application.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Controller != nil {
		control := api.NewControlHandler(s.config.Controller)
		for _, path := range []string{"/api/status", "/api/detection", "/api/features", "/api/scale", "/api/snapshot"} {
			s.mux.Handle(path, control)
		}
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Controller))
		s.mux.Handle("/api/stats", NewStatsHandler(s.config.Controller))
	}

	// Register snapshot catalog handler if Store is configured
	if s.config.Store != nil {
		snapshots := api.NewSnapshotHandler(s.config.Store)
		s.mux.Handle("/api/snapshots", snapshots)
		s.mux.Handle("/api/snapshots/", snapshots)
	}

	// Serve saved JPEGs if SnapshotDir is configured
	if s.config.SnapshotDir != "" {
		fs := http.FileServer(http.Dir(s.config.SnapshotDir))
		s.mux.Handle("/snapshots/", http.StripPrefix("/snapshots/", fs))
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(s.start)

	response := map[string]interface{}{
		"status": "ok",
		"uptime": uptime.String(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("HTTP control API listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("HTTP control API stopped")
	return nil
}
