// Package server exposes the layout engine and room rosters over HTTP.
//
// Routes:
//
//	GET    /healthz
//	GET    /v1/layout?count=&width=&height=&gap=
//	POST   /v1/render
//	GET    /v1/rooms/{room}/participants
//	POST   /v1/rooms/{room}/participants
//	PATCH  /v1/rooms/{room}/participants/{id}
//	DELETE /v1/rooms/{room}/participants/{id}
//	GET    /v1/rooms/{room}/arrangement?width=&height=&mode=&format=
//	GET    /v1/rooms/{room}/ws
//
// The WebSocket route binds one size observer per connection: the client
// reports its container size, the room roster supplies the participant
// count, and the server pushes a fresh layout whenever either changes.
package server

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"slices"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/matzehuels/tilegrid/pkg/config"
	"github.com/matzehuels/tilegrid/pkg/pipeline"
	"github.com/matzehuels/tilegrid/pkg/room"
)

// Server serves the HTTP API. Create one with New.
type Server struct {
	cfg    config.ServerConfig
	grid   config.GridConfig
	runner *pipeline.Runner
	rooms  *room.Hub
	logger *log.Logger

	upgrader websocket.Upgrader
	streams  atomic.Int64
}

// New creates a server. A nil runner gets an uncached one; a nil hub gets an
// in-memory roster store.
func New(cfg config.Config, runner *pipeline.Runner, rooms *room.Hub, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if runner == nil {
		runner = pipeline.NewRunner(nil, nil, logger)
	}
	if rooms == nil {
		rooms = room.NewHub(room.NewMemoryStore(), logger)
	}
	s := &Server{
		cfg:    cfg.Server,
		grid:   cfg.Grid,
		runner: runner,
		rooms:  rooms,
		logger: logger,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// Handler returns the router with all routes and middleware installed.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(requestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(serverHeader)

	r.Get("/healthz", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/layout", s.handleLayout)
		r.Post("/render", s.handleRender)

		r.Route("/rooms/{room}", func(r chi.Router) {
			r.Get("/participants", s.handleListParticipants)
			r.Post("/participants", s.handleJoin)
			r.Patch("/participants/{id}", s.handleUpdateParticipant)
			r.Delete("/participants/{id}", s.handleLeave)
			r.Get("/arrangement", s.handleArrangement)
			r.Get("/ws", s.handleStream)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, notFoundError(r))
	})
	return r
}

// Run listens on the configured address until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout.Duration,
		WriteTimeout: s.cfg.WriteTimeout.Duration,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout.Duration
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	s.logger.Info("http server shutting down", "streams", s.streams.Load())
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

// checkOrigin allows any origin unless allowed_origins is configured.
// Requests without an Origin header (non-browser clients) are allowed.
func (s *Server) checkOrigin(r *http.Request) bool {
	if len(s.cfg.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	return origin == "" || slices.Contains(s.cfg.AllowedOrigins, origin)
}
