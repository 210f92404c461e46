///////////////////////////////////////////////////////////////////////////////////////////////////
//                                                                                               //
//                                                                                               //
//         oooooo   oooooo     oooo           oooooo   oooooo     oooo         .o8               //
//          `888.    `888.     .8'             `888.    `888.     .8'         "888               //
//           `888.   .8888.   .8' oooo    ooo   `888.   .8888.   .8' .ooooo.   888oooo.          //
//            `888  .8'`888. .8'   `88.  .8'     `888  .8'`888. .8' d88' `88b  d88' `88b         //
//             `888.8'  `888.8'     `88..8'       `888.8'  `888.8'  888ooo888  888   888         //
//              `888'    `888'       `888'         `888'    `888'   888    .o  888   888         //
//               `8'      `8'         .8'           `8'      `8'    `Y8bod8P'  `Y8bod8P'         //
//                                .o..P'                                                         //
//                                `Y8P'                                                          //
//                                                                                               //
//                                                                                               //
//                              Copyright (C) 2024  Wyatt Sheffield                              //
//                                                                                               //
//                 This program is free software: you can redistribute it and/or                 //
//                 modify it under the terms of the GNU General Public License as                //
//                 published by the Free Software Foundation, either version 3 of                //
//                      the License, or (at your option) any later version.                      //
//                                                                                               //
//                This program is distributed in the hope that it will be useful,                //
//                 but WITHOUT ANY WARRANTY; without even the implied warranty of                //
//                 MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the                 //
//                          GNU General Public License for more details.                         //
//                                                                                               //
//                   You should have received a copy of the GNU General Public                   //
//                         License along with this program.  If not, see                         //
//                                <https://www.gnu.org/licenses/>.                               //
//                                                                                               //
//                                                                                               //
///////////////////////////////////////////////////////////////////////////////////////////////////

// Package highlight builds syntax highlighters for a theme and a set of languages, and memoises
// them for the life of the process.
package highlight

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"

	"koala.blog/koala/util"
)

// DefaultTheme is used when neither a theme nor a light variant is given.
const DefaultTheme = "latte"

var catppuccinFlavours = []string{"latte", "frappe", "macchiato", "mocha"}

// Theme selects the colour scheme. Dark is optional; when present the stylesheet switches to it
// under prefers-color-scheme: dark.
type Theme struct {
	Light string `yaml:"light" json:"light"`
	Dark  string `yaml:"dark" json:"dark"`
}

func (t Theme) normalized() Theme {
	t.Light = strings.ToLower(strings.TrimSpace(t.Light))
	t.Dark = strings.ToLower(strings.TrimSpace(t.Dark))
	if t.Light == "" {
		t.Light = DefaultTheme
	}
	if t.Dark == t.Light {
		t.Dark = ""
	}
	return t
}

func (t Theme) String() string {
	t = t.normalized()
	if t.Dark == "" {
		return t.Light
	}
	return t.Light + "/" + t.Dark
}

// StyleName maps a theme name onto a chroma style name. Catppuccin flavours may be given bare.
func StyleName(theme string) string {
	theme = strings.ToLower(strings.TrimSpace(theme))
	for _, f := range catppuccinFlavours {
		if theme == f {
			return "catppuccin-" + f
		}
	}
	return theme
}

// Key identifies a highlighter: a theme plus a canonical (sorted, lowercased, unique) language set.
type Key struct {
	Theme     Theme
	Languages []string
}

func NewKey(theme Theme, languages []string) Key {
	return Key{Theme: theme.normalized(), Languages: util.SortedUnique(languages)}
}

// String is the canonical cache key.
func (k Key) String() string {
	return k.Theme.String() + "|" + strings.Join(k.Languages, ",")
}

// Highlighter colours code for a fixed set of languages. It is immutable once built and safe
// for concurrent use.
type Highlighter struct {
	key    Key
	light  *chroma.Style
	dark   *chroma.Style
	block  *chromahtml.Formatter
	inline *chromahtml.Formatter
	lexers map[string]chroma.Lexer
	css    string
}

// BuildFunc constructs the highlighter for key.
type BuildFunc func(ctx context.Context, key Key) (*Highlighter, error)

func lookupStyle(theme string) (*chroma.Style, error) {
	style, ok := styles.Registry[StyleName(theme)]
	if !ok {
		return nil, &BuildError{Theme: theme, err: ErrUnknownTheme}
	}
	return style, nil
}

// Build resolves the styles and lexers for key and compiles every lexer up front so that later
// highlighting does not pay for it.
func Build(ctx context.Context, key Key) (*Highlighter, error) {
	h := &Highlighter{
		key:    key,
		block:  chromahtml.New(chromahtml.WithClasses(true), chromahtml.TabWidth(4)),
		inline: chromahtml.New(chromahtml.WithClasses(true), chromahtml.InlineCode(true)),
		lexers: make(map[string]chroma.Lexer, len(key.Languages)),
	}
	var err error
	if h.light, err = lookupStyle(key.Theme.Light); err != nil {
		return nil, err
	}
	if key.Theme.Dark != "" {
		if h.dark, err = lookupStyle(key.Theme.Dark); err != nil {
			return nil, err
		}
	}

	var unknown []string
	for _, lang := range key.Languages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		lexer := lexers.Get(lang)
		if lexer == nil {
			unknown = append(unknown, lang)
			continue
		}
		lexer = chroma.Coalesce(lexer)
		it, err := lexer.Tokenise(nil, "")
		if err != nil {
			return nil, fmt.Errorf("compile lexer %s: %w", lang, err)
		}
		_ = it.Tokens()
		h.lexers[lang] = lexer
	}
	if len(unknown) > 0 {
		return nil, &BuildError{Languages: unknown, err: ErrUnknownLanguage}
	}

	var css bytes.Buffer
	if err := h.block.WriteCSS(&css, h.light); err != nil {
		return nil, fmt.Errorf("write css for %s: %w", key.Theme.Light, err)
	}
	if h.dark != nil {
		css.WriteString("@media (prefers-color-scheme: dark) {\n")
		if err := h.block.WriteCSS(&css, h.dark); err != nil {
			return nil, fmt.Errorf("write css for %s: %w", key.Theme.Dark, err)
		}
		css.WriteString("}\n")
	}
	h.css = css.String()
	return h, nil
}

func (h *Highlighter) Key() Key {
	return h.key
}

// Has reports whether lang can be coloured.
func (h *Highlighter) Has(lang string) bool {
	return h.Lexer(lang) != nil
}

func (h *Highlighter) Lexer(lang string) chroma.Lexer {
	if h == nil {
		return nil
	}
	return h.lexers[strings.ToLower(strings.TrimSpace(lang))]
}

// CSS is the stylesheet for the highlighter's theme.
func (h *Highlighter) CSS() string {
	if h == nil {
		return ""
	}
	return h.css
}

// Highlight writes code coloured as lang inside <pre class="chroma">. It reports false and
// writes nothing when lang is not part of the highlighter, or h is nil.
func (h *Highlighter) Highlight(w io.Writer, lang, code string) (bool, error) {
	return h.format(w, false, lang, code)
}

// HighlightInline writes code as a single <code class="chroma"> element, for code spans.
func (h *Highlighter) HighlightInline(w io.Writer, lang, code string) (bool, error) {
	return h.format(w, true, lang, code)
}

func (h *Highlighter) format(w io.Writer, inline bool, lang, code string) (bool, error) {
	lexer := h.Lexer(lang)
	if lexer == nil {
		return false, nil
	}
	f := h.block
	if inline {
		f = h.inline
		code = strings.TrimRight(code, "\n")
	}
	it, err := lexer.Tokenise(nil, code)
	if err != nil {
		return false, err
	}
	var buf bytes.Buffer
	if err := f.Format(&buf, h.light, it); err != nil {
		return false, err
	}
	_, err = w.Write(buf.Bytes())
	return err == nil, err
}

// Supported reports whether a lexer exists for lang.
func Supported(lang string) bool {
	return lexers.Get(strings.ToLower(strings.TrimSpace(lang))) != nil
}

// KnownTheme reports whether theme names a registered style.
func KnownTheme(theme string) bool {
	_, ok := styles.Registry[StyleName(theme)]
	return ok
}

// ParseTheme reads "light" or "light/dark".
func ParseTheme(s string) Theme {
	light, dark, _ := strings.Cut(s, "/")
	return Theme{Light: strings.TrimSpace(light), Dark: strings.TrimSpace(dark)}
}
