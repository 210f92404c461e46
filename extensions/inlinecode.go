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
	"bytes"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"koala.blog/koala/highlight"
	"koala.blog/koala/html"
)

// inlineLangSuffix is the `code{:lang}` suffix naming the language of a code span.
var inlineLangSuffix = regexp.MustCompile(`\{:(\w+)\}$`)

// InlineCode is a code span that named its language.
type InlineCode struct {
	ast.BaseInline
	Lang string
	Code string
}

var KindInlineCode = ast.NewNodeKind("InlineCode")

func (n *InlineCode) Kind() ast.NodeKind {
	return KindInlineCode
}

// Dump implements Node.Dump.
func (n *InlineCode) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Lang": n.Lang, "Code": n.Code}, nil)
}

func codeSpanText(n *ast.CodeSpan, source []byte) []byte {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		t, ok := c.(*ast.Text)
		if !ok {
			continue
		}
		value := t.Segment.Value(source)
		if bytes.HasSuffix(value, []byte("\n")) {
			buf.Write(value[:len(value)-1])
			buf.WriteByte(' ')
		} else {
			buf.Write(value)
		}
	}
	return buf.Bytes()
}

type inlineCodeTransformer struct{}

func (t inlineCodeTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	var spans []*ast.CodeSpan
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if cs, ok := n.(*ast.CodeSpan); ok && entering {
			spans = append(spans, cs)
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	source := reader.Source()
	for _, cs := range spans {
		value := codeSpanText(cs, source)
		m := inlineLangSuffix.FindSubmatchIndex(value)
		if m == nil || m[0] == 0 {
			continue
		}
		ic := &InlineCode{
			Lang: strings.ToLower(string(value[m[2]:m[3]])),
			Code: string(value[:m[0]]),
		}
		cs.Parent().ReplaceChild(cs.Parent(), cs, ic)
	}
}

// InlineCodeHTMLRenderer colours code spans that named their language, and otherwise writes
// them as <code class="language-LANG">.
type InlineCodeHTMLRenderer struct {
	hl      *highlight.Highlighter
	onError func(lang string, err error)
}

func NewInlineCodeHTMLRenderer(hl *highlight.Highlighter, onError func(lang string, err error)) renderer.NodeRenderer {
	return &InlineCodeHTMLRenderer{hl: hl, onError: onError}
}

func (r *InlineCodeHTMLRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindInlineCode, r.renderInlineCode)
}

func (r *InlineCodeHTMLRenderer) renderInlineCode(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*InlineCode)
	var colored bytes.Buffer
	ok, err := r.hl.HighlightInline(&colored, n.Lang, n.Code)
	if err != nil && r.onError != nil {
		r.onError(n.Lang, err)
	}
	if ok && err == nil {
		_, werr := w.Write(colored.Bytes())
		return ast.WalkSkipChildren, werr
	}
	code := html.NewHTMLElement("code", html.Class("language-"+n.Lang))
	code.AppendText(n.Code)
	return ast.WalkSkipChildren, code.Render(w)
}

type inlineCode struct{}

func (e *inlineCode) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithASTTransformers(
			util.Prioritized(inlineCodeTransformer{}, priorityInlineCodeTransformer),
		),
	)
	m.Renderer().AddOptions(
		renderer.WithNodeRenderers(
			util.Prioritized(NewInlineCodeHTMLRenderer(nil, nil), priorityNodeRenderer),
		),
	)
}

// InlineCodeLanguage recognises `code{:lang}` spans. Without CodeBlocks they render uncoloured.
func InlineCodeLanguage() goldmark.Extender {
	return &inlineCode{}
}
