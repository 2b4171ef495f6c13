package watch

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/dynlinks/internal/config"
	"git.home.luguber.info/inful/dynlinks/internal/items"
	"git.home.luguber.info/inful/dynlinks/internal/pages"
)

// ConfigReloader returns a ReloadFunc that loads and validates the configuration
// at path, applies overrides (command line flags) and installs it into settings.
// An invalid file, or one that leaves nothing to serve, leaves settings unchanged.
func ConfigReloader(path string, settings *pages.Settings, overrides ...func(*config.Config)) ReloadFunc {
	return func(context.Context) error {
		next, err := config.Load(path)
		if err != nil {
			return err
		}
		for _, apply := range overrides {
			apply(next)
		}
		if err := config.ValidateServe(next); err != nil {
			return err
		}
		warnRestartRequired(settings.Config(), next)
		settings.Swap(next)
		slog.Info("Rewrite settings updated",
			slog.Int("rules", len(next.Rules)),
			slog.String("docs_base", next.DocsBase))
		return nil
	}
}

// ItemsReloader returns a ReloadFunc that re-reads a file item catalog.
func ItemsReloader(source *items.FileSource) ReloadFunc {
	return func(context.Context) error {
		return source.Reload()
	}
}

// warnRestartRequired logs settings that only take effect on restart.
func warnRestartRequired(current, next *config.Config) {
	if current == nil {
		return
	}
	if current.DynBase != next.DynBase {
		slog.Warn("dyn_base change requires restart", slog.String("current", current.DynBase), slog.String("new", next.DynBase))
	}
	if current.Server.Addr != next.Server.Addr {
		slog.Warn("server.addr change requires restart", slog.String("current", current.Server.Addr), slog.String("new", next.Server.Addr))
	}
	if current.Items.Source != next.Items.Source || current.Items.File != next.Items.File || current.Items.URL != next.Items.URL {
		slog.Warn("items source change requires restart")
	}
}
