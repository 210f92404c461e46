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
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"

	"koala.blog/koala/highlight"
	"koala.blog/koala/html"
)

// CodeBlockHTMLRenderer wraps every code block, fenced or indented, in
//
//	<div class="code-block"><span class="code-lang">LANG</span><div class="code-content">...</div></div>
//
// and colours the content when the highlighter knows the language. With a nil highlighter the
// content is escaped into <pre><code>.
type CodeBlockHTMLRenderer struct {
	hl      *highlight.Highlighter
	onError func(lang string, err error)
}

func NewCodeBlockHTMLRenderer(hl *highlight.Highlighter, onError func(lang string, err error)) renderer.NodeRenderer {
	return &CodeBlockHTMLRenderer{hl: hl, onError: onError}
}

func (r *CodeBlockHTMLRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindFencedCodeBlock, r.renderFencedCodeBlock)
	reg.Register(ast.KindCodeBlock, r.renderCodeBlock)
}

// FenceLanguage is the declared language of a fence, lowercased.
func FenceLanguage(n *ast.FencedCodeBlock, source []byte) string {
	return strings.ToLower(string(n.Language(source)))
}

func codeLines(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		buf.Write(line.Value(source))
	}
	return buf.String()
}

func (r *CodeBlockHTMLRenderer) renderFencedCodeBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*ast.FencedCodeBlock)
	return r.writeBlock(w, string(n.Language(source)), codeLines(n, source))
}

// renderCodeBlock handles indented code, which has no language and is never coloured.
func (r *CodeBlockHTMLRenderer) renderCodeBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	return r.writeBlock(w, "", codeLines(node, source))
}

func (r *CodeBlockHTMLRenderer) writeBlock(w util.BufWriter, declared, code string) (ast.WalkStatus, error) {
	lang := strings.ToLower(declared)
	wrapper := html.NewHTMLElement("div", html.Class("code-block"))
	wrapper.AppendNew("span", html.Class("code-lang")).AppendText(strings.ToUpper(declared))
	content := wrapper.AppendNew("div", html.Class("code-content"))

	var colored bytes.Buffer
	ok, err := r.hl.Highlight(&colored, lang, code)
	if err != nil && r.onError != nil {
		r.onError(lang, err)
	}
	if ok && err == nil {
		content.AppendRaw(colored.String())
	} else {
		codeEl := content.AppendNew("pre").AppendNew("code")
		if declared != "" {
			codeEl.SetAttribute("class", "language-"+declared)
		}
		codeEl.AppendText(code)
	}
	if err := wrapper.Render(w); err != nil {
		return ast.WalkStop, err
	}
	_ = w.WriteByte('\n')
	return ast.WalkSkipChildren, nil
}

type codeBlocks struct {
	hl      *highlight.Highlighter
	onError func(lang string, err error)
}

func (e *codeBlocks) Extend(m goldmark.Markdown) {
	m.Renderer().AddOptions(
		renderer.WithNodeRenderers(
			util.Prioritized(NewCodeBlockHTMLRenderer(e.hl, e.onError), priorityOverrideRenderer),
			util.Prioritized(NewInlineCodeHTMLRenderer(e.hl, e.onError), priorityOverrideRenderer),
		),
	)
}

// CodeBlocks installs the fenced and inline code renderers. hl may be nil for uncoloured
// output; onError, if set, hears about languages the highlighter failed on.
func CodeBlocks(hl *highlight.Highlighter, onError func(lang string, err error)) goldmark.Extender {
	return &codeBlocks{hl: hl, onError: onError}
}
