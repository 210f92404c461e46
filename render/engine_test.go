package render

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"koala.blog/koala/highlight"
	"koala.blog/koala/links"
)

func newEngine(t *testing.T, cfg *Config, opts ...Option) *Engine {
	t.Helper()
	e, err := New(cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func render(t *testing.T, e *Engine, req Request) *Result {
	t.Helper()
	res, err := e.Render(context.Background(), req)
	require.NoError(t, err)
	return res
}

// recordingBuilder builds real highlighters and remembers the keys it was asked for.
type recordingBuilder struct {
	mu   sync.Mutex
	keys []highlight.Key
}

func (b *recordingBuilder) build(ctx context.Context, key highlight.Key) (*highlight.Highlighter, error) {
	b.mu.Lock()
	b.keys = append(b.keys, key)
	b.mu.Unlock()
	return highlight.Build(ctx, key)
}

func (b *recordingBuilder) last() highlight.Key {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.keys[len(b.keys)-1]
}

func recordingEngine(t *testing.T, cfg *Config) (*Engine, *recordingBuilder) {
	t.Helper()
	b := &recordingBuilder{}
	cache, err := highlight.NewCache(highlight.Policy{}, highlight.WithBuilder(b.build))
	require.NoError(t, err)
	t.Cleanup(cache.Close)
	return newEngine(t, cfg, WithCache(cache)), b
}

func TestRenderFrontmatter(t *testing.T) {
	e := newEngine(t, nil)
	res := render(t, e, Request{Source: "---\ntitle: \"A\"\n---\n\n# B", Mode: ModeRaw})

	assert.Equal(t, "<h1>B</h1>\n", res.HTML)
	require.NotNil(t, res.Frontmatter)
	title, ok := res.Frontmatter.String("title")
	assert.True(t, ok)
	assert.Equal(t, "A", title)
	assert.Equal(t, []string{"title"}, res.Frontmatter.Keys())
}

func TestRenderUnterminatedFrontmatterIsBody(t *testing.T) {
	e := newEngine(t, nil)
	res := render(t, e, Request{Source: "---\ntitle: A\n\nbody", Mode: ModeRaw})

	assert.Nil(t, res.Frontmatter)
	assert.Contains(t, res.HTML, "body")
}

func TestRenderWikiLink(t *testing.T) {
	e := newEngine(t, nil)
	res := render(t, e, Request{
		Source: "See [[Title]] and [[Missing]] and [[Title]].",
		Links:  []links.Entry{{Subject: "Title", Link: "post/title"}},
		Mode:   ModeRaw,
	})

	assert.Contains(t, res.HTML,
		`<a href="/post/title" class="outgoing-link" target="_blank" data-link="post/title">Title</a>`)
	assert.Contains(t, res.HTML, "and Missing and")
	assert.Equal(t, []links.Entry{{Subject: "Title", Link: "post/title"}}, res.Links)
}

func TestRenderExternalWikiLink(t *testing.T) {
	e := newEngine(t, nil)
	res := render(t, e, Request{
		Source: "[[Go]]",
		Links:  []links.Entry{{Subject: "Go", Link: "https://go.dev/"}},
		Mode:   ModeRaw,
	})
	assert.Contains(t, res.HTML, `href="https://go.dev/"`)
}

func TestRenderLinkOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LinkClass = "wiki"
	cfg.LinkTarget = "_self"
	e := newEngine(t, cfg)
	res := render(t, e, Request{
		Source: "[[A]]",
		Links:  []links.Entry{{Subject: "A", Link: "a"}},
		Mode:   ModeRaw,
	})
	assert.Contains(t, res.HTML, `class="wiki" target="_self"`)
}

func TestRenderEscapesWikiLinks(t *testing.T) {
	e := newEngine(t, nil)
	for _, mode := range []Mode{ModeRaw, ModeRich} {
		res := render(t, e, Request{
			Source: "[[<script>alert(1)</script>]] and [[<script>]]",
			Links: []links.Entry{
				{Subject: "<script>alert(1)</script>", Link: `x" onmouseover="<script>`},
			},
			Mode: mode,
		})
		assert.NotContains(t, res.HTML, "<script>", mode.String())
		assert.NotContains(t, res.HTML, `" onmouseover`, mode.String())
		assert.Contains(t, res.HTML, "&lt;script&gt;", mode.String())
	}
}

func TestRenderHashtags(t *testing.T) {
	e := newEngine(t, nil)

	res := render(t, e, Request{Source: "a#b", Mode: ModeRaw})
	assert.Empty(t, res.Tags)
	assert.Equal(t, "<p>a#b</p>\n", res.HTML)

	res = render(t, e, Request{Source: "#tag", Mode: ModeRaw})
	assert.Equal(t, []string{"tag"}, res.Tags)
	assert.Contains(t, res.HTML, `data-tag="tag"`)
	assert.Contains(t, res.HTML, `title="Click to search tag: tag">tag</span>`)

	res = render(t, e, Request{Source: "# heading", Mode: ModeRaw})
	assert.Empty(t, res.Tags)
	assert.Equal(t, "<h1>heading</h1>\n", res.HTML)

	res = render(t, e, Request{Source: "&#35;x &#x23;y", Mode: ModeRaw})
	assert.Empty(t, res.Tags)
	assert.Equal(t, "<p>#x #y</p>\n", res.HTML)
}

func TestRenderTagsDeduplicatedInOrder(t *testing.T) {
	e := newEngine(t, nil)
	res := render(t, e, Request{Source: "#zeta #alpha #zeta\n\n#café #café", Mode: ModeRaw})
	assert.Equal(t, []string{"zeta", "alpha", "café"}, res.Tags)
}

func TestRenderTagsIgnoredInCodeAndLinks(t *testing.T) {
	e := newEngine(t, nil)
	res := render(t, e, Request{
		Source: "`#code` [x](https://example.com/#frag) <https://example.com/#auto>\n\n```\n#fenced\n```",
		Mode:   ModeRaw,
	})
	assert.Empty(t, res.Tags)
}

func TestRenderTodo(t *testing.T) {
	e := newEngine(t, nil)

	res := render(t, e, Request{Source: "- [ ] X", Mode: ModeRaw})
	assert.Contains(t, res.HTML, `<li class="task-list-item">`)
	assert.Contains(t, res.HTML, "lucide-square ")
	assert.NotContains(t, res.HTML, "checked")

	res = render(t, e, Request{Source: "- [x] X", Mode: ModeRaw})
	assert.Contains(t, res.HTML, `<li class="task-list-item checked">`)
	assert.Contains(t, res.HTML, "lucide-square-check")

	res = render(t, e, Request{Source: "- [ ]X", Mode: ModeRaw})
	assert.NotContains(t, res.HTML, "task-list")
	assert.Contains(t, res.HTML, "[ ]X")
}

func TestRenderExpandable(t *testing.T) {
	e := newEngine(t, nil)
	res := render(t, e, Request{Source: ":::expandable[More *info*]\nhidden #tag\n:::", Mode: ModeRaw})
	assert.Contains(t, res.HTML, "<details")
	assert.Contains(t, res.HTML, "<summary>More <em>info</em></summary>")
	assert.Equal(t, []string{"tag"}, res.Tags)

	res = render(t, e, Request{Source: ":::expandable\nhidden\n:::", Mode: ModeRaw})
	assert.Contains(t, res.HTML, "<summary>Details</summary>")
}

func TestRenderCodeBlocks(t *testing.T) {
	e := newEngine(t, nil)
	src := "```go\nfunc main() { x := 1 < 2 }\n```\n\nand `fmt.Println(){:go}`"

	rich := render(t, e, Request{Source: src, Mode: ModeRich})
	assert.Contains(t, rich.HTML, `<div class="code-block"><span class="code-lang">GO</span><div class="code-content">`)
	assert.Contains(t, rich.HTML, `class="chroma"`)
	assert.Equal(t, 1, strings.Count(rich.HTML, `class="code-block"`))
	assert.Empty(t, rich.Diagnostics)

	raw := render(t, e, Request{Source: src, Mode: ModeRaw})
	assert.Contains(t, raw.HTML, `<div class="code-block"><span class="code-lang">GO</span><div class="code-content">`)
	assert.Contains(t, raw.HTML, `<pre><code class="language-go">func main() { x := 1 &lt; 2 }`)
	assert.NotContains(t, raw.HTML, "chroma")
	assert.Equal(t, 1, strings.Count(raw.HTML, `class="code-block"`))

	assert.Equal(t, []string{"go"}, rich.Languages)
	assert.Equal(t, rich.Languages, raw.Languages)
}

func TestRenderModesDecorateAlike(t *testing.T) {
	e := newEngine(t, nil)
	src := "# Title\n\n- [x] done #tag\n- [ ] [[Page]]\n\n:::expandable[More]\nbody\n:::\n\n> [!NOTE]\n> careful\n"
	req := Request{Source: src, Links: []links.Entry{{Subject: "Page", Link: "page"}}}

	req.Mode = ModeRich
	rich := render(t, e, req)
	req.Mode = ModeRaw
	raw := render(t, e, req)

	assert.Equal(t, raw.HTML, rich.HTML)
	assert.Equal(t, raw.Tags, rich.Tags)
	assert.Equal(t, raw.Links, rich.Links)
	assert.Equal(t, raw.Headings, rich.Headings)
}

func TestRenderIsIdempotent(t *testing.T) {
	e := newEngine(t, nil)
	src := "#b #a #c [[Y]] [[X]] [[Y]]\n\n```rust\nfn main() {}\n```\n\n```python\npass\n```"
	req := Request{Source: src, Links: []links.Entry{{Subject: "X", Link: "x"}, {Subject: "Y", Link: "y"}}}
	for _, mode := range []Mode{ModeRich, ModeRaw} {
		req.Mode = mode
		first := render(t, e, req)
		second := render(t, e, req)
		assert.Equal(t, first.HTML, second.HTML)
		assert.Equal(t, []string{"b", "a", "c"}, second.Tags)
		assert.Equal(t, []links.Entry{{Subject: "Y", Link: "y"}, {Subject: "X", Link: "x"}}, second.Links)
		assert.Equal(t, []string{"rust", "python"}, second.Languages)
	}
}

func TestRenderUnknownLanguage(t *testing.T) {
	e := newEngine(t, nil)
	res := render(t, e, Request{Source: "```nosuchlang\nx < y\n```\n\n```go\nvar x int\n```", Mode: ModeRich})

	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, DiagUnknownLanguage, res.Diagnostics[0].Kind)
	assert.Equal(t, []string{"nosuchlang"}, res.Diagnostics[0].Languages)
	assert.Contains(t, res.HTML, `<span class="code-lang">NOSUCHLANG</span>`)
	assert.Contains(t, res.HTML, "x &lt; y")
	assert.Contains(t, res.HTML, `class="chroma"`)
}

func TestRenderUnknownThemeFallsBackToPlain(t *testing.T) {
	e := newEngine(t, nil)
	res := render(t, e, Request{
		Source: "```go\nvar x int\n```",
		Theme:  &highlight.Theme{Light: "no-such-theme"},
		Mode:   ModeRich,
	})

	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, DiagHighlighter, res.Diagnostics[0].Kind)
	assert.Contains(t, res.HTML, `<code class="language-go">var x int`)
}

func TestRenderLanguageSetSelection(t *testing.T) {
	src := "```go\nvar x int\n```"

	e, b := recordingEngine(t, nil)
	render(t, e, Request{Source: src})
	assert.Equal(t, []string{"go"}, b.last().Languages)

	render(t, e, Request{Source: src, Languages: []string{"python"}})
	assert.Equal(t, []string{"python"}, b.last().Languages)

	render(t, e, Request{Source: src, Streaming: true, Languages: []string{"python"}})
	assert.Equal(t, []string{"haskell", "ini", "javascript", "json", "jsx", "markdown", "python", "rust", "typescript"}, b.last().Languages)

	cfg := DefaultConfig()
	cfg.NarrowLanguages = false
	cfg.DefaultLanguages = []string{"json"}
	e, b = recordingEngine(t, cfg)
	res := render(t, e, Request{Source: src})
	assert.Equal(t, []string{"json"}, b.last().Languages)
	assert.Contains(t, res.HTML, `<code class="language-go">`)
}

func TestRenderRawModeSkipsCache(t *testing.T) {
	e, b := recordingEngine(t, nil)
	render(t, e, Request{Source: "```go\nvar x int\n```", Mode: ModeRaw})
	assert.Empty(t, b.keys)
	assert.Equal(t, 0, e.Cache().Len())
}

func TestRenderSingleFlight(t *testing.T) {
	var builds atomic.Int32
	release := make(chan struct{})
	cache, err := highlight.NewCache(highlight.Policy{}, highlight.WithBuilder(func(ctx context.Context, key highlight.Key) (*highlight.Highlighter, error) {
		builds.Add(1)
		<-release
		return highlight.Build(ctx, key)
	}))
	require.NoError(t, err)
	e := newEngine(t, nil, WithCache(cache))

	const renders = 8
	var wg sync.WaitGroup
	out := make([]string, renders)
	for i := 0; i < renders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := e.Render(context.Background(), Request{Source: "```go\nvar x int\n```"})
			assert.NoError(t, err)
			out[i] = res.HTML
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), builds.Load())
	for _, html := range out {
		assert.Equal(t, out[0], html)
	}
}

func TestRenderAbandonedDoesNotCancelBuild(t *testing.T) {
	var builds atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	cache, err := highlight.NewCache(highlight.Policy{}, highlight.WithBuilder(func(ctx context.Context, key highlight.Key) (*highlight.Highlighter, error) {
		if builds.Add(1) == 1 {
			close(started)
		}
		<-release
		return highlight.Build(ctx, key)
	}))
	require.NoError(t, err)
	e := newEngine(t, nil, WithCache(cache))

	ctx, cancel := context.WithCancel(context.Background())
	abandoned := make(chan error, 1)
	go func() {
		_, err := e.Render(ctx, Request{Source: "```go\nvar x int\n```"})
		abandoned <- err
	}()
	<-started
	cancel()
	assert.ErrorIs(t, <-abandoned, context.Canceled)

	close(release)
	res := render(t, e, Request{Source: "```go\nvar y int\n```"})
	assert.Contains(t, res.HTML, `class="chroma"`)
	assert.Equal(t, int32(1), builds.Load())
}

func TestRenderHeadingIDs(t *testing.T) {
	e := newEngine(t, nil)
	res := render(t, e, Request{Source: "# Intro\n\n## Setup #tag\n\n## Setup\n\n## Setup", Mode: ModeRaw})
	assert.Contains(t, res.HTML, "<h2>Setup ")
	assert.NotContains(t, res.HTML, "id=")
	assert.Empty(t, res.TOC)
	require.Len(t, res.Headings, 4)
	assert.Equal(t, "intro", res.Headings[0].ID)
	assert.Equal(t, 1, res.Headings[0].Level)
	assert.Equal(t, 2, res.Headings[1].Level)
	assert.Equal(t, "Setup tag", res.Headings[1].Text)
	assert.Equal(t, "setup-tag", res.Headings[1].ID)
	assert.Equal(t, "setup", res.Headings[2].ID)
	assert.Equal(t, "setup-1", res.Headings[3].ID)

	cfg := DefaultConfig()
	cfg.HeadingIDs = true
	e = newEngine(t, cfg)
	res = render(t, e, Request{Source: "# Intro\n\n## Setup\n\n### Deep", Mode: ModeRaw})
	assert.Contains(t, res.HTML, `<h1 id="intro">Intro</h1>`)
	assert.Contains(t, res.HTML, `<h2 id="setup">Setup</h2>`)
	assert.Contains(t, res.TOC, `<nav class="nav-toc">`)
	assert.Contains(t, res.TOC, `<a href="#deep">Deep</a>`)
}

func TestRenderSubjectAsH1(t *testing.T) {
	e := newEngine(t, nil)
	res := render(t, e, Request{Source: "body", Subject: "[[Not]] a #tag", AddSubjectAsH1: true, Mode: ModeRaw})
	assert.Equal(t, "<h1>[[Not]] a #tag</h1>\n<p>body</p>\n", res.HTML)
	assert.Empty(t, res.Tags)

	res = render(t, e, Request{Source: "body", Subject: "Ignored", Mode: ModeRaw})
	assert.Equal(t, "<p>body</p>\n", res.HTML)
}

func TestRenderRawHTML(t *testing.T) {
	src := "<b>bold</b> <script>alert(1)</script>\n\n- [x] done"

	e := newEngine(t, nil)
	res := render(t, e, Request{Source: src, Mode: ModeRaw})
	assert.NotContains(t, res.HTML, "<script>")
	assert.NotContains(t, res.HTML, "<b>")

	cfg := DefaultConfig()
	cfg.AllowRawHTML = true
	e = newEngine(t, cfg)
	res = render(t, e, Request{Source: src, Mode: ModeRaw})
	assert.Contains(t, res.HTML, "<b>bold</b>")
	assert.NotContains(t, res.HTML, "<script>")
	assert.Contains(t, res.HTML, `<li class="task-list-item checked">`)
	assert.Contains(t, res.HTML, "<svg")
}

func TestRenderExcerpt(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ExcerptLength = 20
	e := newEngine(t, cfg)
	res := render(t, e, Request{Source: "# Title\n\nThe quick brown fox jumps over the lazy dog.", Mode: ModeRaw})
	assert.Equal(t, "The quick brown fox…", res.Excerpt)
}

func TestRenderTerminatesOnAdversarialInput(t *testing.T) {
	e := newEngine(t, nil)
	inputs := []string{
		"#", "[[", "[ ]", "]]", "[[]]", "[[ ]]", "##", "# ", "- [", "- [ ]", ":::", ":::\n:::",
		":::expandable[", "`{:}`", "```", strings.Repeat("[[", 2000), strings.Repeat("#", 5000),
		strings.Repeat("- [ ] ", 500), strings.Repeat(":::x\n", 200),
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		for _, in := range inputs {
			for _, mode := range []Mode{ModeRaw, ModeRich} {
				_, err := e.Render(context.Background(), Request{Source: in, Mode: mode})
				assert.NoError(t, err)
			}
		}
	}()
	select {
	case <-done:
	case <-time.After(30 * time.Second):
		t.Fatal("render did not terminate")
	}
}

func TestRenderClosed(t *testing.T) {
	e, err := New(nil)
	require.NoError(t, err)
	require.NoError(t, e.Close())
	require.NoError(t, e.Close())

	_, err = e.Render(context.Background(), Request{Source: "x"})
	assert.ErrorIs(t, err, ErrClosed)
	_, err = e.Stylesheet(context.Background(), nil)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestStylesheetAndWarm(t *testing.T) {
	e := newEngine(t, nil)
	css, err := e.Stylesheet(context.Background(), nil)
	require.NoError(t, err)
	assert.Contains(t, css, ".chroma")
	assert.Contains(t, css, "@media (prefers-color-scheme: dark)")

	require.NoError(t, e.Warm(context.Background(), nil, []string{"go", "nosuchlang"}))
	assert.Equal(t, 2, e.Cache().Len())
}

func TestRenderBatch(t *testing.T) {
	e := newEngine(t, nil)
	reqs := make([]Request, 10)
	for i := range reqs {
		reqs[i] = Request{Source: "#t" + string(rune('a'+i)), Subject: string(rune('A' + i)), Mode: ModeRaw}
	}
	results, err := e.RenderBatch(context.Background(), reqs)
	require.NoError(t, err)
	require.Len(t, results, len(reqs))
	for i, res := range results {
		assert.Equal(t, []string{"t" + string(rune('a'+i))}, res.Tags)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = e.RenderBatch(ctx, []Request{{Source: "```go\nx\n```", Theme: &highlight.Theme{Light: "monokai"}}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRenderMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	e := newEngine(t, nil, WithRegisterer(reg))
	render(t, e, Request{Source: "x", Mode: ModeRaw})
	render(t, e, Request{Source: "```nosuchlang\nx\n```", Mode: ModeRich})

	assert.Equal(t, 1.0, testutil.ToFloat64(e.m.renders.WithLabelValues("raw")))
	assert.Equal(t, 1.0, testutil.ToFloat64(e.m.renders.WithLabelValues("rich")))
	assert.Equal(t, 1.0, testutil.ToFloat64(e.m.diagnostics))

	// A second engine on the same registry shares the collectors.
	newEngine(t, nil, WithRegisterer(reg))
}
