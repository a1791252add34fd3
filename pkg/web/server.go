// Package web exposes the query service over HTTP and pushes computed
// results to websocket subscribers.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/teslashibe/go-spatialaudio/pkg/hub"
	"github.com/teslashibe/go-spatialaudio/pkg/query"
)

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithGatherer serves gatherer's metrics on /metrics.
func WithGatherer(gatherer prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = gatherer
	}
}

// Server is the HTTP front end
type Server struct {
	app      *fiber.App
	svc      *query.Service
	logger   *slog.Logger
	gatherer prometheus.Gatherer

	// Fan-out for computed results and backend switches
	results *hub.Hub
}

// NewServer creates a server over svc. Results computed through svc by any
// caller are pushed to /ws/results subscribers.
func NewServer(svc *query.Service, opts ...Option) *Server {
	s := &Server{
		svc:    svc,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "web")
	s.results = hub.New("results", s.logger)

	svc.OnResult(func(out query.Output) {
		if err := s.results.Publish(hub.EventResult, out); err != nil {
			s.logger.Warn("publish result", "error", err)
		}
	})

	app := fiber.New(fiber.Config{
		AppName:               "spatialaudio",
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})

	app.Use(cors.New())

	app.Get("/health", s.handleHealth)
	if s.gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api")
	api.Get("/backends", s.handleListBackends)
	api.Put("/backends/active", s.handleSwitchBackend)
	api.Get("/capabilities", s.handleCapabilities)
	api.Post("/spatial", s.handleCompute)
	api.Get("/tools", s.handleListTools)
	api.Post("/tools/:name", s.handleCallTool)
	api.Get("/operators", s.handleListOperators)
	api.Get("/operators/:name", s.handleOperator)
	api.Get("/maps", s.handleListMaps)
	api.Get("/maps/:name", s.handleMap)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/results", websocket.New(s.handleResultsWS))

	s.app = app
	return s
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Hub returns the result broadcast hub.
func (s *Server) Hub() *hub.Hub {
	return s.results
}

// Serve runs the hub and serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go s.results.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.app.Listener(ln)
	}()
	s.logger.Info("http server listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("http server shutting down")
		if err := s.app.Shutdown(); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, net.ErrClosed) {
			return err
		}
		return nil
	}
}

// ListenAndServe listens on addr and serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}
