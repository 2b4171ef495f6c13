package handlers

import (
	"bytes"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/dynlinks/internal/foundation/errors"
	"git.home.luguber.info/inful/dynlinks/internal/logfields"
	"git.home.luguber.info/inful/dynlinks/internal/pages"
)

// PageHandlers serves the documentation tree, rewriting HTML pages on the way out.
// It expects to be mounted behind http.StripPrefix(prefix).
type PageHandlers struct {
	prefix       string
	settings     *pages.Settings
	processor    *pages.Processor
	errorAdapter *errors.HTTPErrorAdapter
}

// NewPageHandlers creates the page handler for the tree mounted at prefix.
func NewPageHandlers(prefix string, settings *pages.Settings, processor *pages.Processor) *PageHandlers {
	return &PageHandlers{
		prefix:       strings.TrimRight(prefix, "/"),
		settings:     settings,
		processor:    processor,
		errorAdapter: errors.NewHTTPErrorAdapter(slog.Default()),
	}
}

func (h *PageHandlers) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		h.errorAdapter.WriteErrorResponse(w, r, errors.ValidationError("invalid HTTP method").
			WithContext("method", r.Method).
			Build())
		return
	}

	// An empty root would make the joined path absolute.
	root := h.settings.Config().Server.Root
	if strings.TrimSpace(root) == "" {
		h.errorAdapter.WriteErrorResponse(w, r, errors.RuntimeError("no documentation tree configured").
			WithContext("path", h.prefix+r.URL.Path).
			Build())
		return
	}
	rel := path.Clean("/" + r.URL.Path)
	full := filepath.Join(root, filepath.FromSlash(rel))

	info, err := os.Stat(full)
	if err != nil {
		h.notFound(w, r)
		return
	}
	if info.IsDir() {
		// Relative hrefs in index pages only resolve correctly with a trailing slash.
		if !strings.HasSuffix(r.URL.Path, "/") {
			http.Redirect(w, r, h.prefix+rel+"/", http.StatusMovedPermanently)
			return
		}
		rel = path.Join(rel, "index.html")
		full = filepath.Join(full, "index.html")
		if _, err := os.Stat(full); err != nil {
			h.notFound(w, r)
			return
		}
	}

	if !strings.EqualFold(path.Ext(rel), ".html") {
		http.FileServer(http.Dir(root)).ServeHTTP(w, r)
		return
	}
	h.servePage(w, r, full, strings.TrimPrefix(rel, "/"))
}

func (h *PageHandlers) servePage(w http.ResponseWriter, r *http.Request, full, rel string) {
	f, err := os.Open(filepath.Clean(full))
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, errors.WrapError(err, errors.CategoryFileSystem, "failed to open page").
			WithContext("path", r.URL.Path).
			Build())
		return
	}
	defer func() {
		_ = f.Close() // read-only
	}()

	page := pages.Page{
		Document: pages.DocumentName(rel),
		URL:      requestScheme(r) + "://" + r.Host + h.prefix + "/" + rel,
		Dynamic:  true,
	}
	var buf bytes.Buffer
	if _, err := h.processor.ProcessPage(r.Context(), f, &buf, page); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, errors.WrapError(err, errors.CategoryRender, "failed to rewrite page").
			WithContext("document", page.Document).
			Build())
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Debug("Client went away while writing page", logfields.Document(page.Document), logfields.Error(err))
	}
}

func (h *PageHandlers) notFound(w http.ResponseWriter, r *http.Request) {
	h.errorAdapter.WriteErrorResponse(w, r, errors.NotFoundError("page not found").
		WithContext("path", h.prefix+r.URL.Path).
		Build())
}

func requestScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if p := r.Header.Get("X-Forwarded-Proto"); p == "https" || p == "http" {
		return p
	}
	return "http"
}
