// Package server displays a chord diagram in the browser. Every request
// renders afresh from the session's aggregation, so the threshold can be
// changed per request with ?min=N.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/runnerr0/chordmap/internal/chord"
	"github.com/runnerr0/chordmap/internal/export"
)

// Renderer produces a diagram for a visibility threshold.
type Renderer interface {
	Render(minTransitions int) (*chord.Diagram, error)
}

// Options configures the server.
type Options struct {
	MinTransitions int
	Canvas         export.Canvas
}

// Server serves the diagram over HTTP.
type Server struct {
	renderer Renderer
	opts     Options
	logger   *zap.Logger
	router   chi.Router
}

// New builds the router. A nil logger discards output.
func New(renderer Renderer, opts Options, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{renderer: renderer, opts: opts, logger: logger}

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(requestLogger(logger))

	router.Get("/", s.handlePage)
	router.Get("/diagram.svg", s.handleSVG)
	router.Get("/diagram.json", s.handleJSON)
	router.Get("/healthz", s.handleHealth)

	s.router = router
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully. ready, if non-nil, receives the bound address once listening.
func (s *Server) ListenAndServe(ctx context.Context, addr string, ready chan<- string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	s.logger.Info("display server listening", zap.String("addr", ln.Addr().String()))
	if ready != nil {
		ready <- ln.Addr().String()
	}

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("display server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

// threshold reads ?min=N, falling back to the configured default.
func (s *Server) threshold(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("min")
	if raw == "" {
		return s.opts.MinTransitions, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid min %q: must be a non-negative integer", raw)
	}
	return n, nil
}

// render resolves the threshold and renders, writing the error response
// itself when either fails.
func (s *Server) render(w http.ResponseWriter, r *http.Request) (*chord.Diagram, bool) {
	minCount, err := s.threshold(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}

	d, err := s.renderer.Render(minCount)
	if err != nil {
		var renderErr *chord.RenderError
		if errors.As(err, &renderErr) {
			s.logger.Error("render failed", zap.String("category", renderErr.Category), zap.Error(err))
		} else {
			s.logger.Error("render failed", zap.Error(err))
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return nil, false
	}
	return d, true
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	d, ok := s.render(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.WriteHTML(&buf, d, s.opts.Canvas, export.HTMLOptions{Controls: true}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes()) //nolint:errcheck
}

func (s *Server) handleSVG(w http.ResponseWriter, r *http.Request) {
	d, ok := s.render(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Write([]byte(export.SVG(d, s.opts.Canvas))) //nolint:errcheck
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	d, ok := s.render(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.WriteJSON(&buf, d); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(buf.Bytes()) //nolint:errcheck
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"}) //nolint:errcheck
}
