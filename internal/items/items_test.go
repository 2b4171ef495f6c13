package items

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/dynlinks/internal/config"
	"git.home.luguber.info/inful/dynlinks/internal/foundation/errors"
	"git.home.luguber.info/inful/dynlinks/internal/retry"
	"git.home.luguber.info/inful/dynlinks/internal/rewrite"
)

const catalogYAML = `
documents:
  raspi/index:
    - value: "1"
      inner_html: "<b>pi-one</b>"
    - value: "2"
      label: "**pi** two"
  usb/index: []
`

func writeCatalog(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "items.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestRenderLabel(t *testing.T) {
	assert.Equal(t, "<strong>pi</strong> two", RenderLabel("**pi** two"))
	assert.Equal(t, "plain", RenderLabel("plain"))
}

func TestFileSource(t *testing.T) {
	path := writeCatalog(t, catalogYAML)
	s, err := NewFileSource(path, nil)
	require.NoError(t, err)
	ctx := context.Background()

	items, ok, err := s.Items(ctx, "raspi/index")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []rewrite.Item{
		{Value: "1", InnerHTML: "<b>pi-one</b>"},
		{Value: "2", InnerHTML: "<strong>pi</strong> two"},
	}, items)

	items, ok, _ = s.Items(ctx, "usb/index")
	assert.True(t, ok)
	assert.NotNil(t, items, "an empty list must stay distinguishable from an absent one")
	assert.Empty(t, items)

	items, ok, _ = s.Items(ctx, "unknown")
	assert.False(t, ok)
	assert.Nil(t, items)
}

func TestFileSource_ReloadKeepsLastGoodCatalog(t *testing.T) {
	path := writeCatalog(t, catalogYAML)
	s, err := NewFileSource(path, nil)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("documents: [not, a, map"), 0o600))
	err = s.Reload()
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryItems))

	_, ok, _ := s.Items(context.Background(), "raspi/index")
	assert.True(t, ok)

	require.NoError(t, os.WriteFile(path, []byte("documents:\n  new/doc:\n    - value: x\n"), 0o600))
	require.NoError(t, s.Reload())
	_, ok, _ = s.Items(context.Background(), "raspi/index")
	assert.False(t, ok)
}

func TestNewFileSource_MissingFile(t *testing.T) {
	_, err := NewFileSource(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryFileSystem))
}

func TestStaticSource(t *testing.T) {
	s := NewStaticSource(map[string][]config.ItemEntry{"a": {{Value: "v", Label: "*x*"}}})
	items, ok, err := s.Items(context.Background(), "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []rewrite.Item{{Value: "v", InnerHTML: "<em>x</em>"}}, items)
}

func catalogServer(t *testing.T, status *atomic.Int32, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if code := int(status.Load()); code != http.StatusOK {
			w.WriteHeader(code)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"documents":{"raspi/index":[{"value":"1","innerHTML":"one"},{"value":"2"}]}}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRemoteSource_Refresh(t *testing.T) {
	var status, hits atomic.Int32
	status.Store(http.StatusOK)
	srv := catalogServer(t, &status, &hits)
	s := NewRemoteSource(srv.URL, time.Minute, time.Second, nil)
	ctx := context.Background()

	_, _, err := s.Items(ctx, "raspi/index")
	require.Error(t, err, "no catalog before the first fetch")

	require.NoError(t, s.Refresh(ctx))
	items, ok, err := s.Items(ctx, "raspi/index")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []rewrite.Item{{Value: "1", InnerHTML: "one"}, {Value: "2"}}, items)

	status.Store(http.StatusServiceUnavailable)
	err = s.Refresh(ctx)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryItems))
	_, ok, err = s.Items(ctx, "raspi/index")
	require.NoError(t, err)
	assert.True(t, ok, "last good catalog is kept")
}

func TestRemoteSource_ScheduledRefresh(t *testing.T) {
	var status, hits atomic.Int32
	status.Store(http.StatusOK)
	srv := catalogServer(t, &status, &hits)

	s := NewRemoteSource(srv.URL, 50*time.Millisecond, time.Second, nil)
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() { _ = s.Stop() })

	require.Eventually(t, func() bool { return hits.Load() >= 3 }, 5*time.Second, 20*time.Millisecond)
}

func TestFromConfig(t *testing.T) {
	ctx := context.Background()

	src, stop, err := FromConfig(ctx, config.ItemsConfig{Source: config.ItemSourceNone}, nil)
	require.NoError(t, err)
	stop()
	_, ok, _ := src.Items(ctx, "anything")
	assert.False(t, ok)

	path := writeCatalog(t, catalogYAML)
	src, stop, err = FromConfig(ctx, config.ItemsConfig{Source: config.ItemSourceFile, File: path}, nil)
	require.NoError(t, err)
	defer stop()
	assert.IsType(t, &FileSource{}, src)
}

func TestConfigSource_FollowsCurrentConfig(t *testing.T) {
	cfg := &config.Config{Items: config.ItemsConfig{Documents: map[string][]config.ItemEntry{"a": {{Value: "1"}}}}}
	s := NewConfigSource(func() *config.Config { return cfg })

	items, ok, err := s.Items(context.Background(), "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []rewrite.Item{{Value: "1"}}, items)

	cfg = &config.Config{Items: config.ItemsConfig{Documents: map[string][]config.ItemEntry{"a": {}}}}
	items, ok, _ = s.Items(context.Background(), "a")
	assert.True(t, ok)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestRemoteSource_RetriesTransientFailures(t *testing.T) {
	var status, hits atomic.Int32
	status.Store(http.StatusServiceUnavailable)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 3 {
			status.Store(http.StatusOK)
		}
		if code := int(status.Load()); code != http.StatusOK {
			w.WriteHeader(code)
			return
		}
		_, _ = w.Write([]byte(`{"documents":{"a":[{"value":"x"}]}}`))
	}))
	t.Cleanup(srv.Close)

	s := NewRemoteSource(srv.URL, time.Minute, time.Second, nil).
		WithRetry(retry.NewPolicy(config.RetryBackoffFixed, time.Millisecond, time.Millisecond, 3))
	require.NoError(t, s.Refresh(context.Background()))
	assert.Equal(t, int32(3), hits.Load())

	_, ok, err := s.Items(context.Background(), "a")
	require.NoError(t, err)
	assert.True(t, ok)
}
