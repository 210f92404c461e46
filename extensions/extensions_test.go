package extensions

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/text"

	"koala.blog/koala/highlight"
	"koala.blog/koala/links"
)

var testTable = links.NewTable([]links.Entry{
	{Subject: "Title", Link: "post/title"},
	{Subject: "Elsewhere", Link: "https://example.org/a?b=1"},
	{Subject: "<script>alert(1)</script>", Link: `post/"x"`},
})

func convert(t *testing.T, src string, exts ...goldmark.Extender) string {
	t.Helper()
	md := goldmark.New(goldmark.WithExtensions(exts...))
	var buf bytes.Buffer
	require.NoError(t, md.Convert([]byte(src), &buf))
	return buf.String()
}

func all(hl *highlight.Highlighter) []goldmark.Extender {
	return []goldmark.Extender{
		WikiLinks(testTable, LinkOptions{Class: DefaultLinkClass, Target: DefaultLinkTarget}),
		Hashtags(DefaultTagClass),
		TodoList(),
		Directives(nil, nil),
		InlineCodeLanguage(),
		EmbedMedia(),
		CodeBlocks(hl, nil),
	}
}

func TestWikiLink(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"internal", "[[Title]]", `<p><a href="/post/title" class="outgoing-link" target="_blank" data-link="post/title">Title</a></p>` + "\n"},
		{"trimmed", "see [[ Title ]] now", `<p>see <a href="/post/title" class="outgoing-link" target="_blank" data-link="post/title">Title</a> now</p>` + "\n"},
		{"external", "[[Elsewhere]]", `<p><a href="https://example.org/a?b=1" class="outgoing-link" target="_blank" data-link="https://example.org/a?b=1">Elsewhere</a></p>` + "\n"},
		{"unresolved", "[[Nowhere]]", "<p>Nowhere</p>\n"},
		{"unterminated", "[[Title", "<p>[[Title</p>\n"},
		{"code span", "`[[Title]]`", "<p><code>[[Title]]</code></p>\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, convert(t, tt.src, all(nil)...))
		})
	}
}

func TestWikiLinkBlankTitle(t *testing.T) {
	out := convert(t, "[[   ]]", all(nil)...)
	assert.NotContains(t, out, "<a")
}

func TestWikiLinkClosingOnNextLine(t *testing.T) {
	out := convert(t, "[[Title\n]]", all(nil)...)
	assert.NotContains(t, out, "<a")
}

func TestWikiLinkEscaping(t *testing.T) {
	out := convert(t, "[[<script>alert(1)</script>]]", all(nil)...)
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, `data-link="post/&quot;x&quot;"`)
	assert.Contains(t, out, `>&lt;script&gt;alert(1)&lt;/script&gt;</a>`)

	out = convert(t, "[[<script>x</script>]]", all(nil)...)
	assert.NotContains(t, out, "<script>")
}

func TestHashtag(t *testing.T) {
	span := func(name string) string {
		return `<span class="tag" role="button" tabindex="0" data-tag="` + name + `" title="Click to search tag: ` + name + `">` + name + `</span>`
	}
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"bare", "#tag", "<p>" + span("tag") + "</p>\n"},
		{"closed", "#tag#", "<p>" + span("tag") + "</p>\n"},
		{"closed then text", "#tag#more", "<p>" + span("tag") + "more</p>\n"},
		{"mid word", "a#b", "<p>a#b</p>\n"},
		{"heading", "# heading", "<h1>heading</h1>\n"},
		{"two", "Text with #first and #second tags.", "<p>Text with " + span("first") + " and " + span("second") + " tags.</p>\n"},
		{"punctuation", "#first, #second.", "<p>" + span("first,") + " " + span("second.") + "</p>\n"},
		{"unicode", "#日本語 ok", "<p>" + span("日本語") + " ok</p>\n"},
		{"trailing hash", "x #", "<p>x #</p>\n"},
		{"hash hash", "x ## y", "<p>x ## y</p>\n"},
		{"entity", "&#35;x", "<p>#x</p>\n"},
		{"hex entity", "&#x23;tag", "<p>#tag</p>\n"},
		{"bracket entity", "&#91;x", "<p>[x</p>\n"},
		{"entity then tag", "&#35;x #y", "<p>#x " + span("y") + "</p>\n"},
		{"bare ampersand", "AT&T #x", "<p>AT&amp;T " + span("x") + "</p>\n"},
		{"not a reference", "&#12345678;", "<p>&amp;#12345678;</p>\n"},
		{"link url", "[a](http://x.org/#frag)", `<p><a href="http://x.org/#frag">a</a></p>` + "\n"},
		{"code", "`#x`", "<p><code>#x</code></p>\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, convert(t, tt.src, all(nil)...))
		})
	}
}

func TestHashtagEscaping(t *testing.T) {
	out := convert(t, `#<b>"x"`, all(nil)...)
	assert.NotContains(t, out, "<b>")
	assert.Contains(t, out, `data-tag="&lt;b&gt;&quot;x&quot;"`)
}

func TestTodo(t *testing.T) {
	out := convert(t, "- [ ] X", all(nil)...)
	assert.Contains(t, out, `<li class="task-list-item"><span class="task-list-marker">`)
	assert.Contains(t, out, "lucide-square task-list-icon")
	assert.NotContains(t, out, "checked")
	assert.Contains(t, out, "</svg></span>X</li>")

	out = convert(t, "- [x] X", all(nil)...)
	assert.Contains(t, out, `<li class="task-list-item checked">`)
	assert.Contains(t, out, "lucide-square-check")

	out = convert(t, "- [X] X", all(nil)...)
	assert.Contains(t, out, `<li class="task-list-item checked">`)

	out = convert(t, "- [ ]X", all(nil)...)
	assert.Contains(t, out, "<li>[ ]X</li>")
	assert.NotContains(t, out, "task-list")

	out = convert(t, "[ ] X", all(nil)...)
	assert.Equal(t, "<p>[ ] X</p>\n", out)

	out = convert(t, "- a [ ] b", all(nil)...)
	assert.NotContains(t, out, "task-list")
}

func TestTodoLooseList(t *testing.T) {
	out := convert(t, "- [x] A\n\n- [ ] B\n", all(nil)...)
	assert.Equal(t, 2, strings.Count(out, "task-list-item"))
	assert.Equal(t, 1, strings.Count(out, "task-list-item checked"))
	assert.Contains(t, out, "</svg></span>A</p>")
}

func TestExpandable(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"bracket label", ":::expandable[Click **me**]\nHidden\n:::\n", "<details>\n<summary>Click <strong>me</strong></summary>\n<p>Hidden</p>\n</details>\n"},
		{"title attribute", ":::expandable{title=\"More info\"}\nHidden\n:::\n", "<details>\n<summary>More info</summary>\n<p>Hidden</p>\n</details>\n"},
		{"trailing text", ":::expandable See more\nHidden\n:::\n", "<details>\n<summary>See more</summary>\n<p>Hidden</p>\n</details>\n"},
		{"default", ":::expandable\nHidden\n:::\n", "<details>\n<summary>Details</summary>\n<p>Hidden</p>\n</details>\n"},
		{"label wins", ":::expandable[A]{title=B} C\nHidden\n:::\n", "<details>\n<summary>A</summary>\n<p>Hidden</p>\n</details>\n"},
		{"open", ":::expandable{open #more}\nHidden\n:::\n", "<details id=\"more\" open=\"\">\n<summary>Details</summary>\n<p>Hidden</p>\n</details>\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, convert(t, tt.src, all(nil)...))
		})
	}
}

func TestDirectives(t *testing.T) {
	out := convert(t, ":::note\nBody\n:::\n", all(nil)...)
	assert.Equal(t, "<div class=\"alert alert-note\">\n<p class=\"alert-title\">Note</p>\n<p>Body</p>\n</div>\n", out)

	out = convert(t, ":::custom{#x .y key=v}\nZ\n:::\n", all(nil)...)
	assert.Equal(t, "<div class=\"directive directive-custom y\" id=\"x\" data-key=\"v\">\n<p>Z</p>\n</div>\n", out)

	out = convert(t, "::::expandable\n:::tip\nInner\n:::\nOuter\n::::\n", all(nil)...)
	assert.Equal(t, "<details>\n<summary>Details</summary>\n<div class=\"alert alert-tip\">\n<p class=\"alert-title\">Tip</p>\n<p>Inner</p>\n</div>\n<p>Outer</p>\n</details>\n", out)

	out = convert(t, ":::expandable Show\n```md\n:::note\nx\n:::\n```\n:::\n", all(nil)...)
	assert.Equal(t, "<details>\n<summary>Show</summary>\n"+
		`<div class="code-block"><span class="code-lang">MD</span><div class="code-content"><pre><code class="language-md">:::note`+"\nx\n:::\n"+`</code></pre></div></div>`+"\n</details>\n", out)

	out = convert(t, ":::\nnot a directive\n", all(nil)...)
	assert.NotContains(t, out, "<div")

	out = convert(t, ":::expandable\nunclosed", all(nil)...)
	assert.Contains(t, out, "<p>unclosed</p>\n</details>")
}

func TestGitHubAlerts(t *testing.T) {
	out := convert(t, "> [!WARNING]\n> Careful now\n", all(nil)...)
	assert.Equal(t, "<div class=\"alert alert-warning\">\n<p class=\"alert-title\">Warning</p>\n<p>Careful now</p>\n</div>\n", out)

	out = convert(t, "> [!BOGUS]\n> text\n", all(nil)...)
	assert.Contains(t, out, "<blockquote>")

	out = convert(t, "> plain quote\n", all(nil)...)
	assert.Equal(t, "<blockquote>\n<p>plain quote</p>\n</blockquote>\n", out)
}

func TestParseDirectiveAttrs(t *testing.T) {
	attrs := parseDirectiveAttrs([]byte(`.a #id title="Two words" .b bare k='v' =`))
	require.Len(t, attrs, 5)
	assert.Equal(t, "id", attrs[0].Name)
	assert.Equal(t, "a b", attrs[1].Value)
	assert.Equal(t, "Two words", attrs[2].Value)
	assert.Equal(t, "bare", attrs[3].Name)
	assert.Equal(t, "v", attrs[4].Value)
}

func TestCodeBlockPlain(t *testing.T) {
	out := convert(t, "```go\nfmt.Println(\"<hi>\")\n```\n", all(nil)...)
	assert.Equal(t, `<div class="code-block"><span class="code-lang">GO</span><div class="code-content"><pre><code class="language-go">fmt.Println(&quot;&lt;hi&gt;&quot;)`+"\n"+`</code></pre></div></div>`+"\n", out)

	out = convert(t, "```\nplain\n```\n", all(nil)...)
	assert.Equal(t, `<div class="code-block"><span class="code-lang"></span><div class="code-content"><pre><code>plain`+"\n"+`</code></pre></div></div>`+"\n", out)

	out = convert(t, "text\n\n    indented <x>\n", all(nil)...)
	assert.Equal(t, "<p>text</p>\n"+`<div class="code-block"><span class="code-lang"></span><div class="code-content"><pre><code>indented &lt;x&gt;`+"\n"+`</code></pre></div></div>`+"\n", out)
}

func TestCodeBlockHighlighted(t *testing.T) {
	hl, err := highlight.Build(context.Background(), highlight.NewKey(highlight.Theme{}, []string{"go"}))
	require.NoError(t, err)

	out := convert(t, "```go\npackage main\n```\n\n```rust\nfn main() {}\n```\n", all(hl)...)
	assert.Equal(t, 2, strings.Count(out, `<div class="code-block">`))
	assert.Equal(t, 1, strings.Count(out, `class="chroma"`))
	assert.Contains(t, out, `<code class="language-rust">fn main() {}`)
}

func TestInlineCodeLanguage(t *testing.T) {
	out := convert(t, "Use `x := 1{:go}` here", all(nil)...)
	assert.Equal(t, "<p>Use <code class=\"language-go\">x := 1</code> here</p>\n", out)

	out = convert(t, "`{:go}`", all(nil)...)
	assert.Equal(t, "<p><code>{:go}</code></p>\n", out)

	hl, err := highlight.Build(context.Background(), highlight.NewKey(highlight.Theme{}, []string{"go"}))
	require.NoError(t, err)
	out = convert(t, "Use `x := 1{:go}` here", all(hl)...)
	assert.Contains(t, out, `<code class="chroma">`)
}

func TestEmbedMedia(t *testing.T) {
	out := convert(t, "![clip](movie.mp4)", all(nil)...)
	assert.Equal(t, `<video controls="" loop="" muted=""><source src="movie.mp4" type="video/mp4"></video>`+"\n", out)

	out = convert(t, "Listen: ![song](a.MP3?x=1)", all(nil)...)
	assert.Equal(t, `<p>Listen: <audio controls=""><source src="a.MP3?x=1" type="audio/mp3"></audio></p>`+"\n", out)

	out = convert(t, "![pic](a.png)", all(nil)...)
	assert.Contains(t, out, "<img")
}

func TestSlugIDs(t *testing.T) {
	ids := NewSlugIDs()
	assert.Equal(t, "hello-world", string(ids.Generate([]byte("Hello, World!"), 0)))
	assert.Equal(t, "hello-world-1", string(ids.Generate([]byte("Hello World"), 0)))
	assert.Equal(t, "heading", string(ids.Generate([]byte("!!!"), 0)))
	ids.Put([]byte("taken"))
	assert.Equal(t, "taken-1", string(ids.Generate([]byte("Taken"), 0)))
}

func TestExcerpt(t *testing.T) {
	src := []byte("# Title\n\nFirst *para* with [[Title]] and #tag.\n\nSecond one.\n")
	md := goldmark.New(goldmark.WithExtensions(all(nil)...))
	doc := md.Parser().Parse(text.NewReader(src))
	assert.Equal(t, "First para with Title and tag.", Excerpt(doc, src, 0))
	assert.Equal(t, "First para…", Excerpt(doc, src, 14))

	assert.Equal(t, "one two…", truncate("one two three four", 9))
	assert.Equal(t, "short", truncate("short", 9))
}

// Every input must finish: each rule either consumes input or declines.
func TestAdversarialInputsTerminate(t *testing.T) {
	inputs := []string{
		"#", "[[", "[ ]", "[[[[", "]]", "####", "#\n#\n#", "# #", ":::", "::::::", "- [", "- [ ]",
		"- [x]", "[[]]", "[[ ]]", "[[a]", "#tag#", "##tag##", "&#", "`", "`{:}`", "> [!", "> [!NOTE",
		":::x[", ":::x{", ":::x[[]]", "[[#a]]", "#[[a]]", strings.Repeat("[[", 500), strings.Repeat("#", 2000),
		strings.Repeat("- [ ] ", 200),
	}
	for _, in := range inputs {
		in := in
		done := make(chan struct{})
		go func() {
			defer close(done)
			md := goldmark.New(goldmark.WithExtensions(all(nil)...))
			var buf bytes.Buffer
			_ = md.Convert([]byte(in), &buf)
		}()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatalf("rendering %q did not finish", in)
		}
	}
}
