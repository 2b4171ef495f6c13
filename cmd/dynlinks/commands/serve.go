package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"git.home.luguber.info/inful/dynlinks/internal/config"
	"git.home.luguber.info/inful/dynlinks/internal/foundation/errors"
	"git.home.luguber.info/inful/dynlinks/internal/items"
	"git.home.luguber.info/inful/dynlinks/internal/metrics"
	"git.home.luguber.info/inful/dynlinks/internal/pages"
	"git.home.luguber.info/inful/dynlinks/internal/server/httpserver"
	"git.home.luguber.info/inful/dynlinks/internal/watch"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Addr    string `short:"a" help:"Listen address (overrides server.addr)"`
	Root    string `short:"r" help:"Documentation tree to serve (overrides server.root)"`
	Watch   bool   `help:"Reload configuration and item catalog on change"`
	NoWatch bool   `name:"no-watch" help:"Disable file watching even if server.watch is set"`
}

func (s *ServeCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	s.applyOverrides(cfg)
	if err := config.ValidateServe(cfg); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return s.serve(ctx, cfg, root.Config)
}

func (s *ServeCmd) applyOverrides(cfg *config.Config) {
	if s.Addr != "" {
		cfg.Server.Addr = s.Addr
	}
	if s.Root != "" {
		cfg.Server.Root = s.Root
	}
	switch {
	case s.NoWatch:
		cfg.Server.Watch = false
	case s.Watch:
		cfg.Server.Watch = true
	}
}

func (s *ServeCmd) serve(ctx context.Context, cfg *config.Config, configPath string) error {
	reg := prom.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewPrometheusRecorder(reg)

	settings := pages.NewSettings(cfg)

	var source items.Source
	stopItems := func() {}
	if cfg.Items.Source == config.ItemSourceNone {
		source = items.NewConfigSource(settings.Config)
	} else {
		var err error
		source, stopItems, err = items.FromConfig(ctx, cfg.Items, recorder)
		if err != nil {
			return err
		}
	}
	defer stopItems()

	srv := httpserver.New(settings, pages.NewProcessor(settings.Options, source, recorder), httpserver.Options{Registry: reg})
	if err := srv.Start(ctx); err != nil {
		return err
	}

	if cfg.Server.Watch {
		w, err := s.startWatcher(ctx, configPath, settings, source)
		if err != nil {
			slog.Warn("File watching disabled", slog.String("error", err.Error()))
		} else {
			defer func() { _ = w.Stop() }()
		}
	}

	var serveErr error
	select {
	case <-ctx.Done():
		slog.Info("Shutdown signal received, stopping server...")
	case err, ok := <-srv.Done():
		if ok && err != nil {
			serveErr = errors.WrapError(err, errors.CategoryRuntime, "HTTP server failed").Build()
		}
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), httpserver.ShutdownTimeout)
	defer stopCancel()
	if err := srv.Stop(stopCtx); err != nil {
		return errors.WrapError(err, errors.CategoryRuntime, "failed to stop server").Build()
	}
	return serveErr
}

func (s *ServeCmd) startWatcher(ctx context.Context, configPath string, settings *pages.Settings, source items.Source) (*watch.Watcher, error) {
	w, err := watch.New(watch.DefaultDebounce)
	if err != nil {
		return nil, err
	}
	if err := w.Add(configPath, watch.ConfigReloader(configPath, settings, s.applyOverrides)); err != nil {
		return nil, err
	}
	if fs, ok := source.(*items.FileSource); ok {
		if err := w.Add(fs.Path(), watch.ItemsReloader(fs)); err != nil {
			return nil, err
		}
	}
	if err := w.Start(ctx); err != nil {
		_ = w.Stop()
		return nil, fmt.Errorf("start watcher: %w", err)
	}
	return w, nil
}
