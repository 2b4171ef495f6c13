package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyDocument     = "document"
	KeyHref         = "href"
	KeyOriginalHref = "original_href"
	KeyResolvedHref = "resolved_href"
	KeyRule         = "rule"
	KeySelector     = "selector"
	KeyMode         = "mode"
	KeyCount        = "count"
	KeyDurationMS   = "duration_ms"
	KeyPath         = "path"
	KeyFile         = "file"
	KeyURL          = "url"
	KeyMethod       = "method"
	KeyStatus       = "status"
	KeyUserAgent    = "user_agent"
	KeyRemoteAddr   = "remote_addr"
	KeyRequestID    = "request_id"
	KeyError        = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Document(name string) slog.Attr   { return slog.String(KeyDocument, name) }
func Href(h string) slog.Attr          { return slog.String(KeyHref, h) }
func OriginalHref(h string) slog.Attr  { return slog.String(KeyOriginalHref, h) }
func ResolvedHref(h string) slog.Attr  { return slog.String(KeyResolvedHref, h) }
func Rule(pattern string) slog.Attr    { return slog.String(KeyRule, pattern) }
func Selector(s string) slog.Attr      { return slog.String(KeySelector, s) }
func Mode(m string) slog.Attr          { return slog.String(KeyMode, m) }
func Count(n int) slog.Attr            { return slog.Int(KeyCount, n) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func File(f string) slog.Attr          { return slog.String(KeyFile, f) }
func URL(u string) slog.Attr           { return slog.String(KeyURL, u) }
func Method(m string) slog.Attr        { return slog.String(KeyMethod, m) }
func Status(code int) slog.Attr        { return slog.Int(KeyStatus, code) }
func UserAgent(ua string) slog.Attr    { return slog.String(KeyUserAgent, ua) }
func RemoteAddr(addr string) slog.Attr { return slog.String(KeyRemoteAddr, addr) }
func RequestID(id string) slog.Attr    { return slog.String(KeyRequestID, id) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
