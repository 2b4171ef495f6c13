package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/dynlinks/internal/foundation/errors"
	"git.home.luguber.info/inful/dynlinks/internal/rewrite"
)

// Example returns the configuration written by Init.
func Example() *Config {
	replace := true
	return &Config{
		Version:  CurrentVersion,
		DocsBase: "/static/_docs/_build/html",
		DynBase:  "/astutus/doc",
		Rules: []rewrite.Rule{
			{SearchPattern: "raspi/dyn_raspi_item", ReplacementURL: "/astutus/app/raspi/<idx>"},
			{SearchPattern: "raspi/dyn_raspi", ReplacementURL: "/astutus/app/raspi", ReplacementText: "Raspberry Pi's"},
			{SearchPattern: "usb/dyn_usb", ReplacementURL: "/astutus/app/usb"},
		},
		Selectors:        rewrite.DefaultSelectors(),
		ItemPattern:      rewrite.DefaultItemPattern,
		ReplaceInnerHTML: &replace,
		Items: ItemsConfig{
			Source: ItemSourceFile,
			File:   "items.yaml",
		},
		Output: OutputConfig{
			Source:    "docs/_build/html",
			Directory: DefaultOutputDir,
		},
		Server: ServerConfig{
			Addr:       DefaultAddr,
			Root:       "docs/_build/html",
			HealthPath: DefaultHealthPath,
			Metrics:    MetricsConfig{Enabled: true, Path: DefaultMetricsPath},
			Watch:      true,
		},
		Logging: LoggingConfig{Level: LogLevelInfo, Format: LogFormatText},
	}
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.ConfigError("configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath).Build()
	}

	data, err := yaml.Marshal(Example())
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to marshal example config").Build()
	}
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write config file").
			WithContext("path", configPath).Build()
	}
	return nil
}
