// Package config loads and validates the dynlinks configuration file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/dynlinks/internal/foundation/errors"
	"git.home.luguber.info/inful/dynlinks/internal/rewrite"
)

// CurrentVersion is the only configuration format version understood by Load.
const CurrentVersion = "1.0"

// Config is the root of the dynlinks configuration file.
type Config struct {
	Version   string         `yaml:"version"`
	DocsBase  string         `yaml:"docs_base"` // Prefix of the statically served documentation tree
	DynBase   string         `yaml:"dyn_base"`  // Prefix under which pages are served dynamically
	Rules     []rewrite.Rule `yaml:"rules"`
	Selectors []string       `yaml:"selectors,omitempty"`
	// ItemPattern is the placeholder token marking item-parameterized rules.
	ItemPattern      string        `yaml:"item_pattern,omitempty"`
	ReplaceInnerHTML *bool         `yaml:"replace_inner_html,omitempty"`
	Items            ItemsConfig   `yaml:"items"`
	Output           OutputConfig  `yaml:"output"`
	Server           ServerConfig  `yaml:"server"`
	Logging          LoggingConfig `yaml:"logging"`
}

// ItemsConfig selects where substitution items come from.
type ItemsConfig struct {
	Source  ItemSourceType `yaml:"source"`            // none|file|http
	File    string         `yaml:"file,omitempty"`    // Catalog path for source=file
	URL     string         `yaml:"url,omitempty"`     // Catalog endpoint for source=http
	Refresh string         `yaml:"refresh,omitempty"` // Refresh interval for source=http
	Timeout string         `yaml:"timeout,omitempty"` // HTTP fetch timeout
	Retry   RetryConfig    `yaml:"retry,omitempty"`   // Backoff for failed fetches
	// Documents holds inline items keyed by document name; used when source is none.
	Documents map[string][]ItemEntry `yaml:"documents,omitempty"`
}

// RetryConfig configures retries of a failed item catalog fetch.
type RetryConfig struct {
	Mode       RetryBackoffMode `yaml:"mode,omitempty"` // fixed|linear|exponential
	Initial    string           `yaml:"initial,omitempty"`
	Max        string           `yaml:"max,omitempty"`
	MaxRetries int              `yaml:"max_retries,omitempty"`
}

// ItemEntry is one substitution item as written in configuration or a catalog file.
type ItemEntry struct {
	Value     string `yaml:"value" json:"value"`
	InnerHTML string `yaml:"inner_html,omitempty" json:"innerHTML,omitempty"`
	// Label is markdown rendered to InnerHTML when InnerHTML is empty.
	Label string `yaml:"label,omitempty" json:"label,omitempty"`
}

// OutputConfig describes the static rewrite of a built documentation tree.
type OutputConfig struct {
	Source    string `yaml:"source"`    // Sphinx HTML output (e.g. docs/_build/html)
	Directory string `yaml:"directory"` // Destination of rewritten pages
	Clean     bool   `yaml:"clean"`     // Remove Directory before writing
}

// ServerConfig configures the dynamic serving mode.
type ServerConfig struct {
	Addr       string        `yaml:"addr"`
	Root       string        `yaml:"root"` // Documentation tree served under DynBase
	HealthPath string        `yaml:"health_path"`
	Metrics    MetricsConfig `yaml:"metrics"`
	Watch      bool          `yaml:"watch"` // Reload config and item catalog on change
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// LoggingConfig represents logging configuration.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// RefreshInterval returns the parsed items refresh interval (validated by Load).
func (c ItemsConfig) RefreshInterval() time.Duration {
	d, _ := time.ParseDuration(c.Refresh)
	return d
}

// FetchTimeout returns the parsed items fetch timeout (validated by Load).
func (c ItemsConfig) FetchTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// RewriteOptions builds the per-page rewrite options shared by every page.
// The caller fills in DocumentName, IsDynamic and Items.
func (c *Config) RewriteOptions() rewrite.Options {
	return rewrite.Options{
		Rules:            c.Rules,
		DocsBase:         c.DocsBase,
		DynBase:          c.DynBase,
		ItemPattern:      c.ItemPattern,
		ReplaceInnerHTML: c.ReplaceInnerHTML,
		Selectors:        c.Selectors,
	}
}

// Load reads, normalizes, defaults and validates a configuration file.
// Variables from .env/.env.local are loaded first and ${VAR} references expanded.
func Load(configPath string) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		// Don't fail if .env doesn't exist
		fmt.Fprintf(os.Stderr, "Note: .env file not found or couldn't be loaded: %v\n", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigError("configuration file not found").WithContext("path", configPath).Build()
		}
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read config file").
			WithContext("path", configPath).Build()
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes configuration bytes and runs the normalize/default/validate pipeline.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to unmarshal config").Fatal().Build()
	}

	if cfg.Version != CurrentVersion {
		return nil, errors.ConfigError(fmt.Sprintf("unsupported configuration version: %q (expected %s)", cfg.Version, CurrentVersion)).Build()
	}

	for _, w := range NormalizeConfig(&cfg).Warnings {
		fmt.Fprintf(os.Stderr, "config normalization: %s\n", w)
	}
	ApplyDefaults(&cfg)

	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
