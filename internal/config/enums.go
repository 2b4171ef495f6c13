package config

import (
	"log/slog"
	"sort"
	"strings"
)

// LogLevel enumerates supported logging levels.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// SlogLevel maps the level onto log/slog.
func (l LogLevel) SlogLevel() slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LogFormat enumerates supported log output formats.
type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

// ItemSourceType selects the substitution item provider.
type ItemSourceType string

const (
	ItemSourceNone ItemSourceType = "none"
	ItemSourceFile ItemSourceType = "file"
	ItemSourceHTTP ItemSourceType = "http"
)

// RetryBackoffMode selects how retry delays grow.
type RetryBackoffMode string

const (
	RetryBackoffFixed       RetryBackoffMode = "fixed"
	RetryBackoffLinear      RetryBackoffMode = "linear"
	RetryBackoffExponential RetryBackoffMode = "exponential"
)

// enumNormalizer maps case-folded, trimmed strings onto enum values.
type enumNormalizer[T ~string] struct {
	values map[string]T
}

func newEnumNormalizer[T ~string](values ...T) enumNormalizer[T] {
	m := make(map[string]T, len(values))
	for _, v := range values {
		m[string(v)] = v
	}
	return enumNormalizer[T]{values: m}
}

// normalize returns the canonical value and whether raw was recognized.
func (n enumNormalizer[T]) normalize(raw T) (T, bool) {
	v, ok := n.values[strings.ToLower(strings.TrimSpace(string(raw)))]
	return v, ok
}

func (n enumNormalizer[T]) validKeys() []string {
	keys := make([]string, 0, len(n.values))
	for k := range n.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var (
	logLevels   = newEnumNormalizer(LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError)
	logFormats  = newEnumNormalizer(LogFormatJSON, LogFormatText)
	itemSources = newEnumNormalizer(ItemSourceNone, ItemSourceFile, ItemSourceHTTP)
	backoffs    = newEnumNormalizer(RetryBackoffFixed, RetryBackoffLinear, RetryBackoffExponential)
)
