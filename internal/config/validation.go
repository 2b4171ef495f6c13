package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"git.home.luguber.info/inful/dynlinks/internal/foundation/errors"
	"git.home.luguber.info/inful/dynlinks/internal/htmldom"
)

// ValidateConfig validates a normalized, defaulted configuration.
func ValidateConfig(cfg *Config) error {
	return newConfigurationValidator(cfg).validate()
}

// ValidateServe checks the settings the dynamic server needs on top of ValidateConfig.
// It runs at startup and on every hot reload.
func ValidateServe(cfg *Config) error {
	if strings.TrimSpace(cfg.Server.Root) == "" {
		return invalid("server.root", "no documentation tree to serve: set server.root or output.source")
	}
	return nil
}

// configurationValidator coordinates validation across configuration sections.
type configurationValidator struct {
	config *Config
}

func newConfigurationValidator(config *Config) *configurationValidator {
	return &configurationValidator{config: config}
}

func (cv *configurationValidator) validate() error {
	if err := cv.validateBases(); err != nil {
		return err
	}
	if err := cv.validateRules(); err != nil {
		return err
	}
	if err := cv.validateSelectors(); err != nil {
		return err
	}
	if err := cv.validateItems(); err != nil {
		return err
	}
	return cv.validateLogging()
}

func (cv *configurationValidator) validateBases() error {
	if cv.config.DocsBase == "" {
		return invalid("docs_base", "docs_base is required")
	}
	if dyn := cv.config.DynBase; dyn != "" && !strings.HasPrefix(dyn, "/") {
		return invalid("dyn_base", fmt.Sprintf("dyn_base must be an absolute path, got %q", dyn))
	}
	return nil
}

func (cv *configurationValidator) validateRules() error {
	for i, r := range cv.config.Rules {
		field := fmt.Sprintf("rules[%d]", i)
		if r.SearchPattern == "" {
			return invalid(field+".search_pattern", "search_pattern must not be empty")
		}
		if r.ReplacementURL == "" {
			return invalid(field+".replacement_url", "replacement_url must not be empty")
		}
	}
	if strings.TrimSpace(cv.config.ItemPattern) == "" {
		return invalid("item_pattern", "item_pattern must not be blank")
	}
	return nil
}

func (cv *configurationValidator) validateSelectors() error {
	for i, sel := range cv.config.Selectors {
		if err := htmldom.ValidateSelector(sel); err != nil {
			return errors.WrapError(err, errors.CategoryValidation, "invalid selector").
				Fatal().WithContext("field", fmt.Sprintf("selectors[%d]", i)).Build()
		}
	}
	return nil
}

func (cv *configurationValidator) validateItems() error {
	items := cv.config.Items
	switch items.Source {
	case ItemSourceNone:
		return nil
	case ItemSourceFile:
		if items.File == "" {
			return invalid("items.file", "items.file is required when items.source is file")
		}
		return nil
	case ItemSourceHTTP:
		u, err := url.Parse(items.URL)
		if items.URL == "" || err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return invalid("items.url", fmt.Sprintf("items.url must be an http(s) URL, got %q", items.URL))
		}
		if err := positiveDuration("items.refresh", items.Refresh); err != nil {
			return err
		}
		if err := positiveDuration("items.timeout", items.Timeout); err != nil {
			return err
		}
		return validateRetry(items.Retry)
	default:
		return invalid("items.source", fmt.Sprintf("unknown items.source %q, valid options: %v", items.Source, itemSources.validKeys()))
	}
}

func (cv *configurationValidator) validateLogging() error {
	if _, ok := logLevels.normalize(cv.config.Logging.Level); !ok {
		return invalid("logging.level", fmt.Sprintf("invalid log level %q", cv.config.Logging.Level))
	}
	if _, ok := logFormats.normalize(cv.config.Logging.Format); !ok {
		return invalid("logging.format", fmt.Sprintf("invalid log format %q", cv.config.Logging.Format))
	}
	return nil
}

func validateRetry(r RetryConfig) error {
	if _, ok := backoffs.normalize(r.Mode); !ok {
		return invalid("items.retry.mode", fmt.Sprintf("unknown retry mode %q, valid options: %v", r.Mode, backoffs.validKeys()))
	}
	if r.MaxRetries < 0 {
		return invalid("items.retry.max_retries", "items.retry.max_retries cannot be negative")
	}
	if err := positiveDuration("items.retry.initial", r.Initial); err != nil {
		return err
	}
	return positiveDuration("items.retry.max", r.Max)
}

func positiveDuration(field, raw string) error {
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return invalid(field, fmt.Sprintf("%s must be a positive duration, got %q", field, raw))
	}
	return nil
}

func invalid(field, message string) error {
	return errors.ValidationError(message).WithContext("field", field).Build()
}
