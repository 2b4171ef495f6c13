package items

import (
	"context"

	"git.home.luguber.info/inful/dynlinks/internal/config"
	"git.home.luguber.info/inful/dynlinks/internal/metrics"
	"git.home.luguber.info/inful/dynlinks/internal/retry"
)

// FromConfig builds the item source selected by cfg. The returned stop function
// releases background resources and is never nil.
func FromConfig(ctx context.Context, cfg config.ItemsConfig, recorder metrics.Recorder) (Source, func(), error) {
	switch cfg.Source {
	case config.ItemSourceFile:
		s, err := NewFileSource(cfg.File, recorder)
		if err != nil {
			return nil, func() {}, err
		}
		return s, func() {}, nil
	case config.ItemSourceHTTP:
		s := NewRemoteSource(cfg.URL, cfg.RefreshInterval(), cfg.FetchTimeout(), recorder).
			WithRetry(retry.FromConfig(cfg.Retry))
		if err := s.Start(ctx); err != nil {
			return nil, func() {}, err
		}
		return s, func() { _ = s.Stop() }, nil
	default:
		return NewStaticSource(cfg.Documents), func() {}, nil
	}
}
