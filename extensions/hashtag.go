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

package extensions

import (
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
	"golang.org/x/text/unicode/norm"

	"koala.blog/koala/html"
)

const DefaultTagClass = "tag"

// Tag is a #name hashtag. Name is NFC normalised.
type Tag struct {
	ast.BaseInline
	Name string
}

var KindTag = ast.NewNodeKind("Tag")

func (n *Tag) Kind() ast.NodeKind {
	return KindTag
}

// Dump implements Node.Dump.
func (n *Tag) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Name": n.Name}, nil)
}

func NewTag(name string) *Tag {
	return &Tag{Name: norm.NFC.String(name)}
}

type hashtagRule struct{}

func (hashtagRule) Trigger() []byte {
	return []byte{'#'}
}

// Scan matches #name or #name#. The name runs up to whitespace or the next '#', and may hold
// any non-space characters including punctuation. A '#' glued to a preceding letter or digit,
// or following '&' as in a character reference, is left alone.
func (hashtagRule) Scan(s ScanState, _ ast.Node, _ text.Segment) (Match, bool) {
	if len(s.Line) < 2 || s.Line[0] != '#' {
		return Match{}, false
	}
	if isASCIIAlnum(s.Prev) || s.Prev == '&' {
		return Match{}, false
	}
	end := 1
	for end < len(s.Line) && !isSpace(s.Line[end]) && s.Line[end] != '#' {
		end++
	}
	if end == 1 {
		return Match{}, false
	}
	width := end
	if end < len(s.Line) && s.Line[end] == '#' {
		width++
	}
	return Match{Width: width, Node: NewTag(string(s.Line[1:end]))}, true
}

// characterReferenceRule keeps a numeric character reference such as &#35; or &#x23; in a
// single text node. Without it the '#' trigger splits the reference and the '&' is escaped on
// its own.
type characterReferenceRule struct{}

func (characterReferenceRule) Trigger() []byte {
	return []byte{'&'}
}

func (characterReferenceRule) Scan(s ScanState, _ ast.Node, seg text.Segment) (Match, bool) {
	if len(s.Line) < 4 || s.Line[0] != '&' || s.Line[1] != '#' {
		return Match{}, false
	}
	start, digit, limit := 2, util.IsNumeric, 7
	if s.Line[2] == 'x' || s.Line[2] == 'X' {
		start, digit, limit = 3, util.IsHexDecimal, 6
	}
	end := start
	for end < len(s.Line) && digit(s.Line[end]) {
		end++
	}
	if end == start || end-start > limit || end >= len(s.Line) || s.Line[end] != ';' {
		return Match{}, false
	}
	width := end + 1
	return Match{Width: width, Node: ast.NewTextSegment(text.NewSegment(seg.Start, seg.Start+width))}, true
}

// TagHTMLRenderer writes tags as focusable spans carrying the tag name.
type TagHTMLRenderer struct {
	class string
}

func NewTagHTMLRenderer(class string) renderer.NodeRenderer {
	if class == "" {
		class = DefaultTagClass
	}
	return &TagHTMLRenderer{class: class}
}

func (r *TagHTMLRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindTag, r.renderTag)
}

func (r *TagHTMLRenderer) renderTag(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*Tag)
	span := html.NewHTMLElement("span",
		html.Class(r.class),
		html.Attribute{Name: "role", Value: "button"},
		html.Attribute{Name: "tabindex", Value: "0"},
		html.Data("tag", n.Name),
		html.Attribute{Name: "title", Value: "Click to search tag: " + n.Name},
	)
	span.AppendText(n.Name)
	return ast.WalkSkipChildren, span.Render(w)
}

type hashtags struct {
	class string
}

func (e *hashtags) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithInlineParsers(
			util.Prioritized(newRuleParser(hashtagRule{}), priorityHashtagParser),
			util.Prioritized(newRuleParser(characterReferenceRule{}), priorityCharacterReferenceParser),
		),
	)
	m.Renderer().AddOptions(
		renderer.WithNodeRenderers(
			util.Prioritized(NewTagHTMLRenderer(e.class), priorityNodeRenderer),
		),
	)
}

// Hashtags turns #name into tag spans with the given class.
func Hashtags(class string) goldmark.Extender {
	return &hashtags{class: class}
}
