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

package render

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"go.abhg.dev/goldmark/toc"

	"koala.blog/koala/extensions"
	"koala.blog/koala/html"
	"koala.blog/koala/links"
	"koala.blog/koala/metadata"
	"koala.blog/koala/util"
)

// newMarkdown builds the converter for one render. Code renderers are added later, once the
// highlighter for the document is known.
func (e *Engine) newMarkdown(table *links.Table) goldmark.Markdown {
	var rendererOpts []renderer.Option
	if e.cfg.AllowRawHTML {
		rendererOpts = append(rendererOpts, gmhtml.WithUnsafe())
	}
	return goldmark.New(
		goldmark.WithExtensions(
			extension.Table,
			extension.Strikethrough,
			extension.Linkify,
			extension.Footnote,
			extensions.WikiLinks(table, extensions.LinkOptions{Class: e.cfg.LinkClass, Target: e.cfg.LinkTarget}),
			extensions.Hashtags(e.cfg.TagClass),
			extensions.TodoList(),
			extensions.Directives(e.directives, e.logger),
			extensions.InlineCodeLanguage(),
			extensions.EmbedMedia(),
		),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(rendererOpts...),
	)
}

// subjectHeading prefixes body with subject as a level one heading. Markdown punctuation in the
// subject is escaped so it reads literally.
func subjectHeading(subject, body string) string {
	var b strings.Builder
	b.WriteString("# ")
	for _, r := range strings.Join(strings.Fields(subject), " ") {
		if r < 0x80 && strings.ContainsRune("\\`*_{}[]()#+-.!|<>&~:", r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteString("\n\n")
	b.WriteString(body)
	return b.String()
}

type collected struct {
	tags      []string
	links     []links.Entry
	languages []string
}

// collect gathers tags, resolved outgoing links and code languages in document order.
func collect(doc ast.Node, source []byte) collected {
	var c collected
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n := n.(type) {
		case *extensions.Tag:
			c.tags = util.AppendUnique(c.tags, n.Name)
		case *extensions.WikiLink:
			if n.Resolution.Found {
				c.links = util.AppendUnique(c.links, links.Entry{Subject: n.Title, Link: n.Resolution.Link})
			}
		case *ast.FencedCodeBlock:
			if lang := extensions.FenceLanguage(n, source); lang != "" {
				c.languages = util.AppendUnique(c.languages, lang)
			}
		case *extensions.InlineCode:
			c.languages = util.AppendUnique(c.languages, strings.ToLower(n.Lang))
		}
		return ast.WalkContinue, nil
	})
	return c
}

// headingTexts maps heading IDs to their plain text, which unlike the outline's own titles
// includes wiki-link and tag text.
func headingTexts(doc ast.Node, source []byte) map[string]string {
	texts := make(map[string]string)
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if h, ok := n.(*ast.Heading); ok && entering {
			if id, ok := h.AttributeString("id"); ok {
				if b, ok := id.([]byte); ok {
					texts[string(b)] = extensions.PlainText(h, source)
				}
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return texts
}

type outline struct {
	headings []metadata.Heading
	toc      *html.HTMLElement
}

func inspectOutline(doc ast.Node, source []byte) (outline, error) {
	tree, err := toc.Inspect(doc, source, toc.MinDepth(1), toc.MaxDepth(6))
	if err != nil {
		return outline{}, err
	}
	texts := headingTexts(doc, source)
	title := func(item *toc.Item) string {
		if t, ok := texts[string(item.ID)]; ok {
			return t
		}
		return string(item.Title)
	}

	var o outline
	var walk func(items toc.Items, depth int)
	walk = func(items toc.Items, depth int) {
		for _, item := range items {
			if len(item.ID) > 0 || len(item.Title) > 0 {
				o.headings = append(o.headings, metadata.Heading{Level: depth, Text: title(item), ID: string(item.ID)})
			}
			walk(item.Items, depth+1)
		}
	}
	walk(tree.Items, 1)

	nav := html.NewHTMLElement("nav", html.Class("nav-toc"))
	ul := nav.AppendNew("div", html.Class("toc")).AppendNew("ul")
	tocRecurse(tree.Items, ul, title)
	if len(ul.Children) > 0 {
		o.toc = nav
	}
	return o, nil
}

// tocRecurse lists items under parent. Placeholder items for skipped heading levels are
// flattened into their parent list.
func tocRecurse(items toc.Items, parent *html.HTMLElement, title func(*toc.Item) string) {
	for _, item := range items {
		if len(item.ID) == 0 && len(item.Title) == 0 {
			tocRecurse(item.Items, parent, title)
			continue
		}
		child := parent.AppendNew("li")
		child.AppendNew("a", html.Href("#"+string(item.ID))).AppendText(title(item))
		if len(item.Items) > 0 {
			tocRecurse(item.Items, child.AppendNew("ul"), title)
		}
	}
}

func stripHeadingIDs(doc ast.Node) {
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if h, ok := n.(*ast.Heading); ok && entering {
			h.RemoveAttributes()
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
}
