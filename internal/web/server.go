// Package web exposes the monitor's HTTP surface: report queries over
// stored passes, a health probe, and the Prometheus scrape endpoint.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/lorett/groundlink/internal/storage"
)

// Config holds the HTTP server settings. Timeouts are set
// programmatically; zero values take defaults.
type Config struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowedOrigins"`

	ReadTimeout     time.Duration `yaml:"-"`
	WriteTimeout    time.Duration `yaml:"-"`
	ShutdownTimeout time.Duration `yaml:"-"`
}

// Server serves the report API backed by the pass store.
type Server struct {
	store      storage.Store
	commercial []string
	metrics    http.Handler
	logger     *slog.Logger

	httpServer *http.Server
	config     Config
}

// NewServer creates the API server. The metrics handler may be nil, in
// which case /metrics is not mounted. The commercial list is the
// satellite allow-list used for the commercial report section.
func NewServer(config Config, store storage.Store, commercial []string, metrics http.Handler, logger *slog.Logger) *Server {
	if config.Addr == "" {
		config.Addr = ":8080"
	}
	if config.ReadTimeout == 0 {
		config.ReadTimeout = 10 * time.Second
	}
	if config.WriteTimeout == 0 {
		config.WriteTimeout = 30 * time.Second
	}
	if config.ShutdownTimeout == 0 {
		config.ShutdownTimeout = 10 * time.Second
	}

	s := &Server{
		store:      store,
		commercial: commercial,
		metrics:    metrics,
		logger:     logger,
		config:     config,
	}
	s.httpServer = &http.Server{
		Addr:         config.Addr,
		Handler:      s.routes(),
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}
	return s
}

// routes wires middlewares and endpoints.
func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	if len(s.config.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.config.AllowedOrigins,
			AllowedMethods: []string{"GET", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/api/v1", func(api chi.Router) {
		api.Get("/stations", s.handleStations)
		api.Get("/reports/{date}", s.handleReport)
		api.Get("/stations/{station}/passes", s.handleStationPasses)
	})

	return r
}

// Start runs the server until the context is canceled, then shuts it
// down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.config.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}

// Handler returns the route tree. Intended for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
