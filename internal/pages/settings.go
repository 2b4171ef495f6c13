package pages

import (
	"sync/atomic"

	"git.home.luguber.info/inful/dynlinks/internal/config"
	"git.home.luguber.info/inful/dynlinks/internal/rewrite"
)

// Settings holds the active configuration. Readers always see a complete config;
// Swap replaces it atomically.
type Settings struct {
	current atomic.Pointer[config.Config]
}

// NewSettings creates a holder initialized with cfg.
func NewSettings(cfg *config.Config) *Settings {
	s := &Settings{}
	s.current.Store(cfg)
	return s
}

// Config returns the active configuration.
func (s *Settings) Config() *config.Config { return s.current.Load() }

// Swap installs cfg and returns the previous configuration.
func (s *Settings) Swap(cfg *config.Config) *config.Config { return s.current.Swap(cfg) }

// Options returns the rewrite options of the active configuration.
func (s *Settings) Options() rewrite.Options { return s.current.Load().RewriteOptions() }
