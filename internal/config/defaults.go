package config

import "git.home.luguber.info/inful/dynlinks/internal/rewrite"

// Default values applied when a field is left empty.
const (
	DefaultAddr         = ":8080"
	DefaultHealthPath   = "/health"
	DefaultMetricsPath  = "/metrics"
	DefaultRefresh      = "1m"
	DefaultFetchTimeout = "10s"
	DefaultRetryInitial = "1s"
	DefaultRetryMax     = "30s"
	DefaultOutputDir    = "./site"
)

// ApplyDefaults fills empty fields with defaults. It runs after NormalizeConfig.
func ApplyDefaults(c *Config) {
	if c.ItemPattern == "" {
		c.ItemPattern = rewrite.DefaultItemPattern
	}
	if c.ReplaceInnerHTML == nil {
		v := true
		c.ReplaceInnerHTML = &v
	}
	if len(c.Selectors) == 0 {
		c.Selectors = rewrite.DefaultSelectors()
	}
	if c.Items.Source == "" {
		c.Items.Source = ItemSourceNone
	}
	if c.Items.Source == ItemSourceHTTP {
		if c.Items.Refresh == "" {
			c.Items.Refresh = DefaultRefresh
		}
		if c.Items.Timeout == "" {
			c.Items.Timeout = DefaultFetchTimeout
		}
		if c.Items.Retry.Mode == "" {
			c.Items.Retry.Mode = RetryBackoffLinear
		}
		if c.Items.Retry.Initial == "" {
			c.Items.Retry.Initial = DefaultRetryInitial
		}
		if c.Items.Retry.Max == "" {
			c.Items.Retry.Max = DefaultRetryMax
		}
	}
	if c.Output.Directory == "" {
		c.Output.Directory = DefaultOutputDir
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.HealthPath == "" {
		c.Server.HealthPath = DefaultHealthPath
	}
	if c.Server.Metrics.Path == "" {
		c.Server.Metrics.Path = DefaultMetricsPath
	}
	if c.Server.Root == "" {
		c.Server.Root = c.Output.Source
	}
	if c.Logging.Level == "" {
		c.Logging.Level = LogLevelInfo
	}
	if c.Logging.Format == "" {
		c.Logging.Format = LogFormatText
	}
}
