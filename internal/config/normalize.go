package config

import (
	"fmt"
	"strings"
)

// NormalizationResult captures adjustments & warnings from normalization pass.
type NormalizationResult struct{ Warnings []string }

// NormalizeConfig trims string fields and canonicalizes enumerations in place.
// Unknown log settings fall back with a warning; an unknown item source is left for validation.
func NormalizeConfig(c *Config) *NormalizationResult {
	res := &NormalizationResult{}

	c.DocsBase = strings.TrimSpace(c.DocsBase)
	c.DynBase = strings.TrimSpace(c.DynBase)
	for i := range c.Selectors {
		c.Selectors[i] = strings.TrimSpace(c.Selectors[i])
	}
	for i := range c.Rules {
		c.Rules[i].SearchPattern = strings.TrimSpace(c.Rules[i].SearchPattern)
		// Sphinx directive arguments sometimes arrive quoted.
		c.Rules[i].ReplacementURL = strings.Trim(strings.TrimSpace(c.Rules[i].ReplacementURL), `"'`)
	}

	if c.Logging.Level != "" {
		if lvl, ok := logLevels.normalize(c.Logging.Level); ok {
			c.Logging.Level = lvl
		} else {
			res.Warnings = append(res.Warnings, warnUnknown("logging.level", string(c.Logging.Level), string(LogLevelInfo)))
			c.Logging.Level = LogLevelInfo
		}
	}
	if c.Logging.Format != "" {
		if f, ok := logFormats.normalize(c.Logging.Format); ok {
			c.Logging.Format = f
		} else {
			res.Warnings = append(res.Warnings, warnUnknown("logging.format", string(c.Logging.Format), string(LogFormatText)))
			c.Logging.Format = LogFormatText
		}
	}
	if src, ok := itemSources.normalize(c.Items.Source); ok {
		c.Items.Source = src
	}
	if mode, ok := backoffs.normalize(c.Items.Retry.Mode); ok {
		c.Items.Retry.Mode = mode
	}
	return res
}

func warnUnknown(field, raw, fallback string) string {
	return fmt.Sprintf("%s: unknown value %q, using %q", field, raw, fallback)
}
