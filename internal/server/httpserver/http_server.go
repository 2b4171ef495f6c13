// Package httpserver wires the dynlinks HTTP endpoints into a server with graceful shutdown.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	derrors "git.home.luguber.info/inful/dynlinks/internal/foundation/errors"
	"git.home.luguber.info/inful/dynlinks/internal/logfields"
	"git.home.luguber.info/inful/dynlinks/internal/metrics"
	"git.home.luguber.info/inful/dynlinks/internal/pages"
	handlers "git.home.luguber.info/inful/dynlinks/internal/server/handlers"
	smw "git.home.luguber.info/inful/dynlinks/internal/server/middleware"
)

// ShutdownTimeout bounds graceful shutdown.
const ShutdownTimeout = 30 * time.Second

// Options carries optional server dependencies.
type Options struct {
	// Registry backs the metrics endpoint. Nil disables it.
	Registry *prom.Registry
	Logger   *slog.Logger
}

// Server serves the documentation tree with dynamically rewritten pages.
type Server struct {
	settings     *pages.Settings
	opts         Options
	errorAdapter *derrors.HTTPErrorAdapter

	monitoringHandlers *handlers.MonitoringHandlers
	pageHandlers       *handlers.PageHandlers

	mchain func(http.Handler) http.Handler

	mu         sync.Mutex
	httpServer *http.Server
	listener   net.Listener
	done       chan error
}

// New constructs the server. The mount point and listen address are taken from the
// settings at construction time; a reload that changes them requires a restart.
func New(settings *pages.Settings, processor *pages.Processor, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	s := &Server{
		settings:     settings,
		opts:         opts,
		errorAdapter: derrors.NewHTTPErrorAdapter(opts.Logger),
	}
	s.monitoringHandlers = handlers.NewMonitoringHandlers(settings)
	s.pageHandlers = handlers.NewPageHandlers(mountPrefix(settings.Config().DynBase), settings, processor)
	s.mchain = smw.Chain(opts.Logger, s.errorAdapter)
	return s
}

func mountPrefix(dynBase string) string {
	return strings.TrimRight(dynBase, "/")
}

// Handler returns the complete routing tree.
func (s *Server) Handler() http.Handler {
	cfg := s.settings.Config()
	mux := http.NewServeMux()

	mux.HandleFunc(cfg.Server.HealthPath, s.monitoringHandlers.HandleHealthCheck)
	if cfg.Server.Metrics.Enabled && s.opts.Registry != nil {
		mux.Handle(cfg.Server.Metrics.Path, metrics.HTTPHandler(s.opts.Registry))
	}

	prefix := mountPrefix(cfg.DynBase)
	mux.Handle(prefix+"/", http.StripPrefix(prefix, s.pageHandlers))

	return s.mchain(mux)
}

// Start binds the configured address and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.httpServer != nil {
		return errors.New("server already started")
	}

	cfg := s.settings.Config()
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", cfg.Server.Addr)
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryRuntime, "failed to bind HTTP address").
			WithContext("addr", cfg.Server.Addr).
			Build()
	}

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	s.listener = ln
	s.done = make(chan error, 1)

	go func(srv *http.Server, done chan<- error) {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server stopped", logfields.Error(err))
			done <- err
		}
		close(done)
	}(s.httpServer, s.done)

	slog.Info("HTTP server started",
		slog.String("addr", ln.Addr().String()),
		slog.String("dyn_base", mountPrefix(cfg.DynBase)+"/"),
		logfields.Path(cfg.Server.Root))
	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Done is closed when the server stops serving; it yields the serve error, if any.
func (s *Server) Done() <-chan error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	slog.Info("HTTP server stopped")
	return nil
}
