package highlight

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyIsCanonical(t *testing.T) {
	a := NewKey(Theme{Light: "Latte"}, []string{"Python", "go", "go", " rust"})
	b := NewKey(Theme{Light: "latte", Dark: "latte"}, []string{"rust", "python", "GO"})
	assert.Equal(t, a.String(), b.String())
	assert.Equal(t, "latte|go,python,rust", a.String())

	pair := NewKey(Theme{Light: "latte", Dark: "mocha"}, nil)
	assert.Equal(t, "latte/mocha|", pair.String())
	assert.Equal(t, "latte|", NewKey(Theme{}, nil).String())
}

func TestStyleName(t *testing.T) {
	assert.Equal(t, "catppuccin-mocha", StyleName("mocha"))
	assert.Equal(t, "catppuccin-latte", StyleName(" Latte "))
	assert.Equal(t, "monokai", StyleName("monokai"))
}

func TestBuild(t *testing.T) {
	h, err := Build(context.Background(), NewKey(Theme{Light: "latte", Dark: "mocha"}, []string{"go", "py"}))
	require.NoError(t, err)
	assert.True(t, h.Has("go"))
	assert.True(t, h.Has("PY"))
	assert.False(t, h.Has("rust"))
	assert.Contains(t, h.CSS(), "@media (prefers-color-scheme: dark)")

	var buf bytes.Buffer
	ok, err := h.Highlight(&buf, "go", "package main\n")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, buf.String(), `class="chroma"`)

	buf.Reset()
	ok, err = h.Highlight(&buf, "rust", "fn main() {}")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, buf.String())
}

func TestBuildUnknown(t *testing.T) {
	_, err := Build(context.Background(), NewKey(Theme{}, []string{"go", "definitely-not-a-language"}))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownLanguage))
	var be *BuildError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, []string{"definitely-not-a-language"}, be.Languages)

	_, err = Build(context.Background(), NewKey(Theme{Light: "no-such-style"}, nil))
	assert.True(t, errors.Is(err, ErrUnknownTheme))
}

func TestParseTheme(t *testing.T) {
	assert.Equal(t, Theme{Light: "latte"}, ParseTheme("latte"))
	assert.Equal(t, Theme{Light: "latte", Dark: "mocha"}, ParseTheme(" latte / mocha "))
	assert.Equal(t, "latte", ParseTheme("").String())
}

func TestSupportedAndKnownTheme(t *testing.T) {
	assert.True(t, Supported("Go"))
	assert.True(t, Supported("jsx"))
	assert.False(t, Supported("nosuchlang"))
	assert.True(t, KnownTheme("mocha"))
	assert.True(t, KnownTheme("monokai"))
	assert.False(t, KnownTheme("no-such-theme"))
}
