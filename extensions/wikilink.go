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

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"koala.blog/koala/html"
	"koala.blog/koala/links"
)

var (
	wikiOpen  = []byte("[[")
	wikiClose = []byte("]]")
)

const (
	DefaultLinkClass  = "outgoing-link"
	DefaultLinkTarget = "_blank"
)

// WikiLink is a [[Title]] reference. Resolution is filled in by the link transformer.
type WikiLink struct {
	ast.BaseInline
	Title      string
	Resolution links.Resolution
}

var KindWikiLink = ast.NewNodeKind("WikiLink")

func (n *WikiLink) Kind() ast.NodeKind {
	return KindWikiLink
}

// Dump implements Node.Dump.
func (n *WikiLink) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"Title": n.Title,
		"Href":  n.Resolution.Href,
	}, nil)
}

func NewWikiLink(title string) *WikiLink {
	return &WikiLink{Title: title}
}

type wikiLinkRule struct{}

func (wikiLinkRule) Trigger() []byte {
	return []byte{'['}
}

// Scan matches [[Title]] with the closing brackets on the same line and a non-blank title.
func (wikiLinkRule) Scan(s ScanState, _ ast.Node, _ text.Segment) (Match, bool) {
	if !bytes.HasPrefix(s.Line, wikiOpen) {
		return Match{}, false
	}
	rest := s.Line[len(wikiOpen):]
	if i := bytes.IndexAny(rest, "\r\n"); i >= 0 {
		rest = rest[:i]
	}
	stop := bytes.Index(rest, wikiClose)
	if stop < 0 {
		return Match{}, false
	}
	title := bytes.TrimSpace(rest[:stop])
	if len(title) == 0 {
		return Match{}, false
	}
	return Match{
		Width: len(wikiOpen) + stop + len(wikiClose),
		Node:  NewWikiLink(string(title)),
	}, true
}

type linkTransformer struct {
	table *links.Table
}

func (r linkTransformer) Transform(node *ast.Document, reader text.Reader, pc parser.Context) {
	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering && n.Kind() == KindWikiLink {
			wl := n.(*WikiLink)
			wl.Resolution = r.table.Resolve(wl.Title)
		}
		return ast.WalkContinue, nil
	})
}

// WikiLinkHTMLRenderer writes resolved wiki-links as anchors and unresolved ones as plain text.
type WikiLinkHTMLRenderer struct {
	class  string
	target string
}

func NewWikiLinkHTMLRenderer(class, target string) renderer.NodeRenderer {
	return &WikiLinkHTMLRenderer{class: class, target: target}
}

func (r *WikiLinkHTMLRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindWikiLink, r.renderWikiLink)
}

func (r *WikiLinkHTMLRenderer) renderWikiLink(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*WikiLink)
	if !n.Resolution.Found {
		_, _ = w.Write(util.EscapeHTML([]byte(n.Title)))
		return ast.WalkSkipChildren, nil
	}
	a := html.NewHTMLElement("a", html.Href(n.Resolution.Href))
	if r.class != "" {
		a.SetAttribute("class", r.class)
	}
	if r.target != "" {
		a.SetAttribute("target", r.target)
	}
	a.SetAttribute("data-link", n.Resolution.Link)
	a.AppendText(n.Title)
	return ast.WalkSkipChildren, a.Render(w)
}

// LinkOptions configures the anchors written for resolved wiki-links.
type LinkOptions struct {
	Class  string
	Target string
}

type wikiLinks struct {
	table *links.Table
	opts  LinkOptions
}

func (e *wikiLinks) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithInlineParsers(
			util.Prioritized(newRuleParser(wikiLinkRule{}), priorityWikiLinkParser),
		),
		parser.WithASTTransformers(
			util.Prioritized(linkTransformer{e.table}, priorityLinkTransformer),
		),
	)
	m.Renderer().AddOptions(
		renderer.WithNodeRenderers(
			util.Prioritized(NewWikiLinkHTMLRenderer(e.opts.Class, e.opts.Target), priorityNodeRenderer),
		),
	)
}

// WikiLinks resolves [[Title]] references against table. A nil table leaves every reference
// unresolved.
func WikiLinks(table *links.Table, opts LinkOptions) goldmark.Extender {
	return &wikiLinks{table: table, opts: opts}
}
