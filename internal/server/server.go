// Package server provides the HTTP server for the birthday hat overlay.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/mrngovancuong-cyber/AI-birthday-hat/internal/capture"
	"github.com/mrngovancuong-cyber/AI-birthday-hat/internal/server/api"
	"github.com/mrngovancuong-cyber/AI-birthday-hat/internal/session"
	"github.com/mrngovancuong-cyber/AI-birthday-hat/internal/store"
)

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	Source    capture.Source
	Session   *session.Session
}

// Server represents the HTTP server for the hat overlay application.
type Server struct {
	config  Config
	mux     *http.ServeMux
	overlay *OverlayHandler
	start   time.Time
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

	// Register hat catalog API if Store is configured
	if s.config.Store != nil {
		hatHandler := api.NewHatHandler(s.config.Store)
		s.mux.Handle("/api/hats", hatHandler)
		s.mux.Handle("/api/hats/", hatHandler)
	}

	// Register camera preview endpoint if a source is configured; the
	// preview follows the tracking cadence when a session is present
	if s.config.Source != nil {
		fps := 0
		if s.config.Session != nil {
			fps = s.config.Session.FPS()
		}
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Source, fps))
	}

	// Register the overlay WebSocket endpoint if a session is configured
	if s.config.Session != nil {
		s.overlay = NewOverlayHandler(s.config.Session)
		s.mux.Handle("/api/overlay", s.overlay)
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// Overlay returns the websocket handler feeding the presentation layer, or
// nil when no session is configured.
func (s *Server) Overlay() *OverlayHandler {
	return s.overlay
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

	if s.config.Session != nil {
		state, reason := s.config.Session.State()
		response["session"] = s.config.Session.ID()
		response["state"] = state.String()
		if reason != "" {
			response["reason"] = reason
		}
		// A stopped session keeps its last lifecycle state; the flag tells
		// clients the loop is no longer running.
		if s.config.Session.Stopped() {
			response["stopped"] = true
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
