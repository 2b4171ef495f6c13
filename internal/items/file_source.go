package items

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/dynlinks/internal/foundation/errors"
	"git.home.luguber.info/inful/dynlinks/internal/logfields"
	"git.home.luguber.info/inful/dynlinks/internal/metrics"
	"git.home.luguber.info/inful/dynlinks/internal/rewrite"
)

// FileSource reads a YAML (or JSON) catalog from disk.
type FileSource struct {
	path     string
	recorder metrics.Recorder

	mu        sync.RWMutex
	documents map[string][]rewrite.Item
}

// NewFileSource loads the catalog at path.
func NewFileSource(path string, recorder metrics.Recorder) (*FileSource, error) {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	s := &FileSource{path: path, recorder: recorder}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the catalog path.
func (s *FileSource) Path() string { return s.path }

// Reload re-reads the catalog. On failure the previous catalog is kept.
func (s *FileSource) Reload() error {
	docs, err := readCatalogFile(s.path)
	s.recorder.IncItemFetch("file", err == nil)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.documents = docs
	s.mu.Unlock()
	slog.Debug("Loaded item catalog", logfields.File(s.path), logfields.Count(len(docs)))
	return nil
}

// Items implements Source.
func (s *FileSource) Items(_ context.Context, document string) ([]rewrite.Item, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items, ok := s.documents[document]
	return items, ok, nil
}

func readCatalogFile(path string) (map[string][]rewrite.Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to read item catalog").
			WithContext("path", path).Build()
	}
	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, errors.WrapError(err, errors.CategoryItems, "failed to decode item catalog").
			WithContext("path", path).Build()
	}
	return cat.index(), nil
}
