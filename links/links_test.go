package links

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var posts = []Entry{
	{Subject: "Existing Post", Link: "post/existing-post"},
	{Subject: "External Link", Link: "https://example.com"},
	{Subject: "Root Page", Link: "root-page"},
	{Subject: "Root Page", Link: "shadowed"},
	{Subject: "Slashed", Link: "/already/rooted"},
}

func TestResolveInternal(t *testing.T) {
	r := NewTable(posts).Resolve("Existing Post")
	assert.Equal(t, Resolution{Href: "/post/existing-post", Link: "post/existing-post", Found: true}, r)
}

func TestResolveExternal(t *testing.T) {
	r := NewTable(posts).Resolve("External Link")
	assert.True(t, r.External)
	assert.Equal(t, "https://example.com", r.Href)
}

func TestResolveTrimsButIsExact(t *testing.T) {
	table := NewTable(posts)
	assert.True(t, table.Resolve("  Root Page ").Found)
	assert.Equal(t, "/root-page", table.Resolve("Root Page").Href)
	assert.False(t, table.Resolve("root page").Found)
	assert.Equal(t, "/already/rooted", table.Resolve("Slashed").Href)
}

func TestResolveMissing(t *testing.T) {
	assert.Equal(t, Resolution{}, NewTable(nil).Resolve("Anything"))
	var nilTable *Table
	assert.False(t, nilTable.Resolve("Anything").Found)
	assert.Equal(t, 0, nilTable.Len())
}
