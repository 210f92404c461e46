package html

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderKeepsAttributeOrder(t *testing.T) {
	a := NewHTMLElement("a", Href("/x"), Class("outgoing-link"), Attribute{"target", "_blank"}, Data("link", "x"))
	a.AppendText("X")
	assert.Equal(t, `<a href="/x" class="outgoing-link" target="_blank" data-link="x">X</a>`, a.String())
	assert.Equal(t, a.String(), a.String())
}

func TestRenderEscapes(t *testing.T) {
	span := NewHTMLElement("span", Data("tag", `<script>"x"</script>`))
	span.AppendText("<script>alert(1)</script>")
	out := span.String()
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, `data-tag="&lt;script&gt;&quot;x&quot;&lt;/script&gt;"`)
	assert.Contains(t, out, "&lt;script&gt;alert(1)&lt;/script&gt;")
}

func TestClassAppends(t *testing.T) {
	li := NewHTMLElement("li", Class("task-list-item"))
	li.SetAttribute("class", "checked")
	v, ok := li.Attr("class")
	assert.True(t, ok)
	assert.Equal(t, "task-list-item checked", v)
}

func TestVoidAndRaw(t *testing.T) {
	div := NewHTMLElement("div")
	div.AppendNew("br")
	div.AppendRaw("<svg></svg>")
	assert.Equal(t, "<div><br><svg></svg></div>", div.String())
}
