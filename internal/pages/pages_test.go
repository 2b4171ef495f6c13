package pages

import (
	"bytes"
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/dynlinks/internal/config"
	"git.home.luguber.info/inful/dynlinks/internal/foundation/errors"
	"git.home.luguber.info/inful/dynlinks/internal/items"
	"git.home.luguber.info/inful/dynlinks/internal/metrics"
	"git.home.luguber.info/inful/dynlinks/internal/rewrite"
)

const indexPage = `<html><body>
<div class="wy-menu wy-menu-vertical"><ul>
<li><a href="../index.html">Home</a></li>
</ul></div>
<div class="toctree-wrapper"><ul>
<li><a href="raspi/dyn_raspi.html">Pis</a></li>
<li><a href="usb/styled_usb.html#tree">USB</a></li>
</ul></div>
</body></html>`

const testConfigYAML = `
version: "1.0"
docs_base: /static/_docs
dyn_base: /astutus/doc
rules:
  - search_pattern: raspi/dyn_raspi
    replacement_url: /astutus/raspi/<idx>
  - search_pattern: usb/styled_usb
    replacement_url: /astutus/usb
`

func testSettings(t *testing.T) *Settings {
	t.Helper()
	cfg, err := config.Parse([]byte(testConfigYAML))
	require.NoError(t, err)
	return NewSettings(cfg)
}

type recordingRecorder struct {
	metrics.NoopRecorder
	mu       sync.Mutex
	pages    map[metrics.Mode]int
	failures int
	links    map[string]int
	clones   int
}

func newRecordingRecorder() *recordingRecorder {
	return &recordingRecorder{pages: map[metrics.Mode]int{}, links: map[string]int{}}
}

func (r *recordingRecorder) ObservePageRewrite(mode metrics.Mode, _ time.Duration, success bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pages[mode]++
	if !success {
		r.failures++
	}
}

func (r *recordingRecorder) AddLinkOutcome(outcome string, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.links[outcome] += n
}

func (r *recordingRecorder) AddClones(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clones += n
}

type failingSource struct{}

func (failingSource) Items(context.Context, string) ([]rewrite.Item, bool, error) {
	return nil, false, stderrors.New("upstream down")
}

func TestDocumentName(t *testing.T) {
	assert.Equal(t, "index", DocumentName("index.html"))
	assert.Equal(t, "raspi/index", DocumentName("raspi/index.html"))
	assert.Equal(t, "raspi/index", DocumentName("/raspi/./index.html"))
	assert.Equal(t, "usb/index", DocumentName(`usb\index.html`))
}

func TestProcessPage_DynamicWithItems(t *testing.T) {
	src := items.NewStaticSource(map[string][]config.ItemEntry{
		"index": {{Value: "1", Label: "Pi *one*"}, {Value: "2"}},
	})
	rec := newRecordingRecorder()
	p := NewProcessor(testSettings(t).Options, src, rec)

	var out bytes.Buffer
	res, err := p.ProcessPage(context.Background(), strings.NewReader(indexPage), &out, Page{Document: "index", Dynamic: true})
	require.NoError(t, err)

	html := out.String()
	assert.Contains(t, html, `href="/astutus/raspi/1"`)
	assert.Contains(t, html, `href="/astutus/raspi/2"`)
	assert.Contains(t, html, `Pi <em>one</em>`)
	assert.Contains(t, html, `>Pis</a>`, "item without a label keeps the original text")
	assert.Contains(t, html, `href="/astutus/usb#tree"`)
	assert.Contains(t, html, `href="/static/_docs/index.html"`)
	assert.Equal(t, 1, res.Count(rewrite.OutcomeExpanded))
	assert.Equal(t, 1, res.Count(rewrite.OutcomeFallback))

	assert.Equal(t, 1, rec.pages[metrics.ModeDynamic])
	assert.Equal(t, 1, rec.clones)
	assert.Equal(t, 1, rec.links["rule"])
	assert.Equal(t, 1, rec.links["expanded"])
	assert.Equal(t, 1, rec.links["fallback"])
}

func TestProcessPage_ItemSourceFailureDegrades(t *testing.T) {
	p := NewProcessor(testSettings(t).Options, failingSource{}, nil)

	var out bytes.Buffer
	res, err := p.ProcessPage(context.Background(), strings.NewReader(indexPage), &out, Page{Document: "index"})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Count(rewrite.OutcomeRule))
	assert.Equal(t, 0, res.Clones())
}

func TestProcessPage_PicksUpSwappedSettings(t *testing.T) {
	settings := testSettings(t)
	p := NewProcessor(settings.Options, nil, nil)

	next := *settings.Config()
	next.DocsBase = "/other"
	old := settings.Swap(&next)
	assert.Equal(t, "/static/_docs", old.DocsBase)

	var out bytes.Buffer
	_, err := p.ProcessPage(context.Background(), strings.NewReader(indexPage), &out, Page{Document: "index", Dynamic: true})
	require.NoError(t, err)
	assert.Contains(t, out.String(), `href="/other/index.html"`)
}

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, body := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	}
	return root
}

func TestRewriteTree(t *testing.T) {
	src := writeTree(t, map[string]string{
		"index.html":        indexPage,
		"raspi/index.html":  `<div class="toctree-wrapper"><ul><li><a href="#wifi">Wifi</a></li></ul></div>`,
		"_static/style.css": "body{}",
	})
	out := filepath.Join(t.TempDir(), "site")
	rec := newRecordingRecorder()
	p := NewProcessor(testSettings(t).Options, nil, rec)

	report, err := p.RewriteTree(context.Background(), src, out, false)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Pages)
	assert.Equal(t, 1, report.Copied)
	assert.Equal(t, 2, report.Links[rewrite.OutcomeRule])
	assert.Equal(t, 1, report.Links[rewrite.OutcomeFallback])
	assert.Equal(t, 1, report.Links[rewrite.OutcomeFragment])
	assert.Equal(t, 2, rec.pages[metrics.ModeStatic])

	index, err := os.ReadFile(filepath.Join(out, "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(index), `href="/static/_docs/../index.html"`)

	sub, err := os.ReadFile(filepath.Join(out, "raspi", "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(sub), `href="#wifi"`)

	css, err := os.ReadFile(filepath.Join(out, "_static", "style.css"))
	require.NoError(t, err)
	assert.Equal(t, "body{}", string(css))
}

func TestRewriteTree_DryRunWritesNothing(t *testing.T) {
	src := writeTree(t, map[string]string{"index.html": indexPage, "a.txt": "x"})
	out := filepath.Join(t.TempDir(), "site")
	p := NewProcessor(testSettings(t).Options, nil, nil)

	report, err := p.RewriteTree(context.Background(), src, out, true)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Pages)
	assert.Equal(t, 1, report.Copied)
	assert.NoDirExists(t, out)
}

func TestRewriteTree_MissingSource(t *testing.T) {
	p := NewProcessor(testSettings(t).Options, nil, nil)
	_, err := p.RewriteTree(context.Background(), filepath.Join(t.TempDir(), "nope"), t.TempDir(), false)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryFileSystem))
}

func TestRewriteTree_SkipsOutputInsideSource(t *testing.T) {
	src := writeTree(t, map[string]string{"index.html": indexPage, "a.txt": "x"})
	out := filepath.Join(src, "site")
	p := NewProcessor(testSettings(t).Options, nil, nil)

	report, err := p.RewriteTree(context.Background(), src, out, false)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Pages)
	assert.Equal(t, 1, report.Copied)
	assert.FileExists(t, filepath.Join(out, "index.html"))
	assert.NoDirExists(t, filepath.Join(out, "site"))

	// A second run walks past the output written by the first.
	report, err = p.RewriteTree(context.Background(), src, out, false)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Pages)
	assert.NoDirExists(t, filepath.Join(out, "site"))
}

func TestRewriteTree_RejectsSourceInsideOutput(t *testing.T) {
	out := t.TempDir()
	src := filepath.Join(out, "html")
	require.NoError(t, os.MkdirAll(src, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(src, "index.html"), []byte(indexPage), 0o600))
	p := NewProcessor(testSettings(t).Options, nil, nil)

	for _, dst := range []string{out, src} {
		_, err := p.RewriteTree(context.Background(), src, dst, false)
		require.Error(t, err)
		assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
	}
}

func TestNested(t *testing.T) {
	root := filepath.Join(string(filepath.Separator), "srv", "docs")
	assert.True(t, Nested(root, root))
	assert.True(t, Nested(root, filepath.Join(root, "site")))
	assert.False(t, Nested(filepath.Join(root, "site"), root))
	assert.False(t, Nested(root, root+"-old"))
	assert.False(t, Nested(root, filepath.Join(root, "..", "other")))
}
