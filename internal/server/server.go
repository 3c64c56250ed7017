// Package server provides the HTTP and websocket front end of waveoff.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ayusman/waveoff/internal/plugin"
	"github.com/ayusman/waveoff/internal/server/api"
	"github.com/ayusman/waveoff/internal/session"
	"github.com/ayusman/waveoff/internal/store"
)

// DefaultMaxMessageBytes bounds one websocket frame message.
const DefaultMaxMessageBytes = 1 << 20

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	Sessions  *session.Manager
	Hooks     *plugin.Manager
	Dispatch  *plugin.Dispatcher
	Logger    *slog.Logger
	// MaxMessageBytes limits incoming websocket messages. Zero uses
	// DefaultMaxMessageBytes.
	MaxMessageBytes int64
}

// Server represents the HTTP server for the waveoff application.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
	logger *slog.Logger
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	if config.MaxMessageBytes <= 0 {
		config.MaxMessageBytes = DefaultMaxMessageBytes
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
		logger: logger.With("component", "server"),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Sessions != nil {
		s.mux.Handle("/opencv", NewFrameHandler(s.config.Sessions, s.config.MaxMessageBytes, s.logger))
	}

	if s.config.Store != nil {
		var active api.ActiveLister
		if s.config.Sessions != nil {
			active = s.config.Sessions
		}
		sessions := api.NewSessionHandler(s.config.Store, active)
		s.mux.Handle("/api/sessions", sessions)
		s.mux.Handle("/api/sessions/", sessions)
	}

	if s.config.Hooks != nil {
		s.mux.Handle("/api/hooks", api.NewHookHandler(s.config.Hooks, s.config.Dispatch))
	}

	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
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

	response := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if s.config.Sessions != nil {
		response["sessions"] = s.config.Sessions.Len()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully and
// closes every running session so each one delivers its final flush.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	if s.config.Sessions != nil {
		s.config.Sessions.CloseAll()
	}
	s.logger.Info("server stopped")
	return err
}
