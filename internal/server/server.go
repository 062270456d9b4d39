// Package server provides the HTTP server: the REST API, the live recognition
// WebSocket, the camera preview and the web UI.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/server/api"
	"github.com/ayusman/mudra/internal/store"
)

// shutdownTimeout bounds how long open requests may run after shutdown starts.
const shutdownTimeout = 5 * time.Second

// Recognizer is the live recognition pipeline.
type Recognizer interface {
	Subscribe() (<-chan gesture.Result, func())
	Latest() gesture.Result
	IsEnabled() bool
	SetEnabled(enabled bool)
}

// FrameSource supplies JPEG preview frames.
type FrameSource interface {
	Preview() (release func())
	LatestFrame() ([]byte, uint64)
}

// Config holds the server configuration. Routes whose dependencies are nil
// are not registered.
type Config struct {
	StaticDir  string
	Library    *store.Library
	Phrases    *store.Phrases
	Threshold  float64
	Recognizer Recognizer
	Frames     FrameSource
	Capturer   api.Capturer
	Log        zerolog.Logger
}

// Server represents the HTTP server.
type Server struct {
	config  Config
	mux     *http.ServeMux
	handler http.Handler
	start   time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	if config.Threshold == 0 {
		config.Threshold = gesture.DefaultThreshold
	}

	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()

	log := config.Log.With().Str("component", "http").Logger()
	s.handler = hlog.NewHandler(log)(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	})(s.mux))

	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Library != nil {
		gestures := api.NewGestureHandler(s.config.Library, s.config.Capturer)
		s.mux.Handle("/api/gestures", gestures)
		s.mux.Handle("/api/gestures/", gestures)
		s.mux.Handle("/api/recognize", api.NewRecognizeHandler(s.config.Library, s.config.Threshold))
	}

	if s.config.Phrases != nil {
		s.mux.Handle("/api/phrases", api.NewPhraseHandler(s.config.Phrases))
	}

	if s.config.Recognizer != nil {
		s.mux.HandleFunc("/api/status", s.handleStatus)
		s.mux.Handle("/api/recognition", NewRecognitionHandler(s.config.Recognizer, s.config.Log))
	}

	if s.config.Frames != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Frames))
	}

	if s.config.StaticDir != "" {
		s.mux.Handle("/", http.FileServer(http.Dir(s.config.StaticDir)))
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	})
}

type statusResponse struct {
	Enabled bool           `json:"enabled"`
	Latest  gesture.Result `json:"latest"`
}

type statusRequest struct {
	Enabled *bool `json:"enabled"`
}

// handleStatus reports the latest result on GET and toggles recognition on PUT.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	rec := s.config.Recognizer

	switch r.Method {
	case http.MethodGet:
	case http.MethodPut:
		var req statusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Enabled == nil {
			writeError(w, http.StatusBadRequest, "Expected {\"enabled\": true|false}")
			return
		}
		rec.SetEnabled(*req.Enabled)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{Enabled: rec.IsEnabled(), Latest: rec.Latest()})
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.config.Log.Info().Str("addr", addr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
