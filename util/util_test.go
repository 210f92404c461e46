package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConcatUnique(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, ConcatUnique([]string{"a", "b"}, []string{"b", "c", "c"}))
	assert.Equal(t, []int{}, ConcatUnique([]int{}, nil))
}

func TestAppendUnique(t *testing.T) {
	s := AppendUnique([]string{"x"}, "x")
	assert.Equal(t, []string{"x"}, s)
	s = AppendUnique(s, "y")
	assert.Equal(t, []string{"x", "y"}, s)
}

func TestIsExternal(t *testing.T) {
	cases := map[string]bool{
		"https://example.com":   true,
		"http://a.b/c#d":        true,
		"ftp://files.example":   true,
		"mailto:me@example.com": true,
		"post/title":            false,
		"/post/title":           false,
		"root-page":             false,
		"httpdocs/page":         false,
		"":                      false,
	}
	for link, want := range cases {
		assert.Equal(t, want, IsExternal(link), link)
	}
}

func TestSortedUnique(t *testing.T) {
	assert.Equal(t, []string{"go", "python", "rust"}, SortedUnique([]string{"Rust", "go", " python ", "GO", ""}))
	assert.Empty(t, SortedUnique(nil))
}
