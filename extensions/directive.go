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
	"log/slog"
	"slices"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"koala.blog/koala/html"
)

// Directive is a fenced container:
//
//	:::name[label]{#id .class key="value"} trailing text
//	...
//	:::
//
// The closing fence needs at least as many colons as the opening one, so containers nest by
// using longer fences on the outside.
type Directive struct {
	ast.BaseBlock
	Name     string
	Attrs    []html.Attribute
	Trailing string
	colons   int
}

var KindDirective = ast.NewNodeKind("Directive")

func (n *Directive) Kind() ast.NodeKind {
	return KindDirective
}

// Dump implements Node.Dump.
func (n *Directive) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"Name":     n.Name,
		"Trailing": n.Trailing,
	}, nil)
}

func NewDirective(name string) *Directive {
	return &Directive{Name: strings.ToLower(name)}
}

// Attr returns the value of a {key=value} attribute.
func (n *Directive) Attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Label returns the bracket label, if the directive has one.
func (n *Directive) Label() *DirectiveLabel {
	if l, ok := n.FirstChild().(*DirectiveLabel); ok {
		return l
	}
	return nil
}

// DirectiveLabel holds the [label] of a directive. It is inline parsed like a paragraph.
type DirectiveLabel struct {
	ast.BaseBlock
}

var KindDirectiveLabel = ast.NewNodeKind("DirectiveLabel")

func (n *DirectiveLabel) Kind() ast.NodeKind {
	return KindDirectiveLabel
}

// Dump implements Node.Dump.
func (n *DirectiveLabel) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, nil, nil)
}

type directiveParser struct{}

func (b *directiveParser) Trigger() []byte {
	return []byte{':'}
}

func (b *directiveParser) Open(parent ast.Node, reader text.Reader, pc parser.Context) (ast.Node, parser.State) {
	line, seg := reader.PeekLine()
	pos := pc.BlockOffset()
	if pos < 0 || pos >= len(line) || line[pos] != ':' {
		return nil, parser.NoChildren
	}
	i := pos
	for i < len(line) && line[i] == ':' {
		i++
	}
	colons := i - pos
	if colons < 3 || i >= len(line) || !isNameStart(line[i]) {
		return nil, parser.NoChildren
	}
	j := i
	for j < len(line) && isNameChar(line[j]) {
		j++
	}
	node := NewDirective(string(line[i:j]))
	node.colons = colons
	i = j

	if i < len(line) && line[i] == '[' {
		end := closingBracket(line, i)
		if end < 0 {
			return nil, parser.NoChildren
		}
		if len(bytes.TrimSpace(line[i+1:end])) > 0 {
			label := &DirectiveLabel{}
			ls := text.NewSegment(seg.Start+i+1, seg.Start+end)
			ls = ls.TrimLeftSpace(reader.Source())
			ls = ls.TrimRightSpace(reader.Source())
			label.Lines().Append(ls)
			node.AppendChild(node, label)
		}
		i = end + 1
	}
	if i < len(line) && line[i] == '{' {
		end := bytes.IndexByte(line[i:], '}')
		if end < 0 {
			return nil, parser.NoChildren
		}
		node.Attrs = parseDirectiveAttrs(line[i+1 : i+end])
		i += end + 1
	}
	node.Trailing = string(bytes.TrimSpace(line[i:]))

	n := len(line)
	if line[n-1] == '\n' {
		n--
	}
	reader.Advance(n)
	return node, parser.HasChildren
}

func (b *directiveParser) Continue(node ast.Node, reader text.Reader, pc parser.Context) parser.State {
	d := node.(*Directive)
	line, seg := reader.PeekLine()
	if line == nil {
		return parser.Close
	}
	w, pos := util.IndentWidth(line, reader.LineOffset())
	if w < 4 && !inOpenFence(node, pc) {
		i := pos
		for i < len(line) && line[i] == ':' {
			i++
		}
		if i-pos >= d.colons && util.IsBlank(line[i:]) {
			newline := 0
			if line[len(line)-1] == '\n' {
				newline = 1
			}
			reader.Advance(seg.Len() - newline + seg.Padding)
			return parser.Close
		}
	}
	return parser.Continue | parser.HasChildren
}

// inOpenFence reports whether a fenced code block inside node is still being parsed. Colon lines
// in it belong to the code.
func inOpenFence(node ast.Node, pc parser.Context) bool {
	blocks := pc.OpenedBlocks()
	for i, b := range blocks {
		if b.Node != node {
			continue
		}
		for _, inner := range blocks[i+1:] {
			if inner.Node.Kind() == ast.KindFencedCodeBlock {
				return true
			}
		}
		return false
	}
	return false
}

func (b *directiveParser) Close(node ast.Node, reader text.Reader, pc parser.Context) {}

func (b *directiveParser) CanInterruptParagraph() bool {
	return true
}

func (b *directiveParser) CanAcceptIndentedLine() bool {
	return false
}

func isNameStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNameChar(c byte) bool {
	return isNameStart(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

// closingBracket returns the index of the ']' matching the '[' at open, or -1.
func closingBracket(line []byte, open int) int {
	depth := 0
	for i := open; i < len(line); i++ {
		switch line[i] {
		case '\\':
			i++
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i
			}
		case '\n':
			return -1
		}
	}
	return -1
}

func isAttrSep(c byte) bool {
	return c == ' ' || c == '\t'
}

// parseDirectiveAttrs reads the inside of {...}: .class, #id, key=value, key="quoted value"
// and bare keys. The id comes first, then the merged class list, then the rest in order.
func parseDirectiveAttrs(s []byte) []html.Attribute {
	var (
		id      string
		classes []string
		rest    []html.Attribute
	)
	i := 0
	for i < len(s) {
		if isAttrSep(s[i]) {
			i++
			continue
		}
		switch s[i] {
		case '.', '#':
			j := i + 1
			for j < len(s) && !isAttrSep(s[j]) {
				j++
			}
			if j > i+1 {
				if s[i] == '.' {
					classes = append(classes, string(s[i+1:j]))
				} else {
					id = string(s[i+1 : j])
				}
			}
			i = j
		default:
			j := i
			for j < len(s) && !isAttrSep(s[j]) && s[j] != '=' {
				j++
			}
			name := string(s[i:j])
			var value string
			i = j
			if i < len(s) && s[i] == '=' {
				i++
				if i < len(s) && (s[i] == '"' || s[i] == '\'') {
					q := s[i]
					k := bytes.IndexByte(s[i+1:], q)
					if k < 0 {
						value = string(s[i+1:])
						i = len(s)
					} else {
						value = string(s[i+1 : i+1+k])
						i += k + 2
					}
				} else {
					k := i
					for k < len(s) && !isAttrSep(s[k]) {
						k++
					}
					value = string(s[i:k])
					i = k
				}
			}
			switch name {
			case "":
			case "class":
				classes = append(classes, strings.Fields(value)...)
			case "id":
				id = value
			default:
				rest = append(rest, html.Attribute{Name: name, Value: value})
			}
		}
	}
	var result []html.Attribute
	if id != "" {
		result = append(result, html.Attribute{Name: "id", Value: id})
	}
	if len(classes) > 0 {
		result = append(result, html.Class(strings.Join(classes, " ")))
	}
	return append(result, rest...)
}

// DirectiveKind describes how one kind of directive is written.
type DirectiveKind struct {
	// Element builds the wrapping element.
	Element func(d *Directive) *html.HTMLElement
	// Label builds the element that holds the label.
	Label func(d *Directive) *html.HTMLElement
	// Fallback is the label text for a directive without a [label]. An empty result writes no
	// label at all.
	Fallback func(d *Directive) string
}

// DirectiveTable maps directive names to their kinds.
type DirectiveTable map[string]DirectiveKind

var alertKinds = []string{"note", "tip", "important", "warning", "caution"}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// labelText is the title attribute, else the trailing text, else def.
func labelText(d *Directive, def string) string {
	if title, ok := d.Attr("title"); ok && strings.TrimSpace(title) != "" {
		return strings.TrimSpace(title)
	}
	if d.Trailing != "" {
		return d.Trailing
	}
	return def
}

// element builds tag carrying the directive's id, class and data-* attributes. The title
// attribute is consumed as the label; keys listed in keep are passed through as they are.
func element(d *Directive, tag, class string, keep ...string) *html.HTMLElement {
	e := html.NewHTMLElement(tag)
	if class != "" {
		e.SetAttribute("class", class)
	}
	for _, a := range d.Attrs {
		switch {
		case a.Name == "id" || a.Name == "class":
			e.SetAttribute(a.Name, a.Value)
		case a.Name == "title":
		case slices.Contains(keep, a.Name):
			e.SetAttribute(a.Name, a.Value)
		default:
			e.SetAttribute("data-"+a.Name, a.Value)
		}
	}
	return e
}

// DefaultDirectives knows expandable sections and the five alert kinds.
func DefaultDirectives() DirectiveTable {
	table := DirectiveTable{
		"expandable": {
			Element: func(d *Directive) *html.HTMLElement {
				return element(d, "details", "", "open")
			},
			Label: func(d *Directive) *html.HTMLElement {
				return html.NewHTMLElement("summary")
			},
			Fallback: func(d *Directive) string {
				return labelText(d, "Details")
			},
		},
	}
	for _, kind := range alertKinds {
		table[kind] = DirectiveKind{
			Element: func(d *Directive) *html.HTMLElement {
				return element(d, "div", "alert alert-"+d.Name)
			},
			Label: func(d *Directive) *html.HTMLElement {
				return html.NewHTMLElement("p", html.Class("alert-title"))
			},
			Fallback: func(d *Directive) string {
				return labelText(d, titleCase(d.Name))
			},
		}
	}
	return table
}

var genericDirective = DirectiveKind{
	Element: func(d *Directive) *html.HTMLElement {
		return element(d, "div", "directive directive-"+d.Name)
	},
	Label: func(d *Directive) *html.HTMLElement {
		return html.NewHTMLElement("p", html.Class("directive-label"))
	},
	Fallback: func(d *Directive) string {
		return labelText(d, "")
	},
}

// DirectiveHTMLRenderer writes directives through a DirectiveTable. Unknown names fall back to
// a generic <div class="directive directive-NAME">.
type DirectiveHTMLRenderer struct {
	table  DirectiveTable
	logger *slog.Logger
}

func NewDirectiveHTMLRenderer(table DirectiveTable, logger *slog.Logger) renderer.NodeRenderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &DirectiveHTMLRenderer{table: table, logger: logger}
}

func (r *DirectiveHTMLRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindDirective, r.renderDirective)
	reg.Register(KindDirectiveLabel, r.renderDirectiveLabel)
}

func (r *DirectiveHTMLRenderer) kind(d *Directive) DirectiveKind {
	if k, ok := r.table[d.Name]; ok {
		return k
	}
	return genericDirective
}

func (r *DirectiveHTMLRenderer) renderDirective(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	d := node.(*Directive)
	kind := r.kind(d)
	el := kind.Element(d)
	if !entering {
		if err := el.WriteClose(w); err != nil {
			return ast.WalkStop, err
		}
		_ = w.WriteByte('\n')
		return ast.WalkContinue, nil
	}
	if _, ok := r.table[d.Name]; !ok {
		r.logger.Warn("unknown directive", slog.String("name", d.Name))
	}
	if err := el.WriteOpen(w); err != nil {
		return ast.WalkStop, err
	}
	_ = w.WriteByte('\n')
	if d.Label() == nil {
		if label := kind.Fallback(d); label != "" {
			l := kind.Label(d)
			l.AppendText(label)
			if err := l.Render(w); err != nil {
				return ast.WalkStop, err
			}
			_ = w.WriteByte('\n')
		}
	}
	return ast.WalkContinue, nil
}

func (r *DirectiveHTMLRenderer) renderDirectiveLabel(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	d, ok := node.Parent().(*Directive)
	if !ok {
		return ast.WalkContinue, nil
	}
	l := r.kind(d).Label(d)
	if entering {
		return ast.WalkContinue, l.WriteOpen(w)
	}
	if err := l.WriteClose(w); err != nil {
		return ast.WalkStop, err
	}
	_ = w.WriteByte('\n')
	return ast.WalkContinue, nil
}

type directives struct {
	table  DirectiveTable
	logger *slog.Logger
}

func (e *directives) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithBlockParsers(
			util.Prioritized(&directiveParser{}, priorityDirectiveParser),
		),
		parser.WithInlineParsers(
			util.Prioritized(newRuleParser(alertRule{}), priorityAlertParser),
		),
		parser.WithASTTransformers(
			util.Prioritized(alertTransformer{}, priorityAlertTransformer),
		),
	)
	m.Renderer().AddOptions(
		renderer.WithNodeRenderers(
			util.Prioritized(NewDirectiveHTMLRenderer(e.table, e.logger), priorityNodeRenderer),
		),
	)
}

// Directives adds ::: containers and GitHub style > [!NOTE] alerts, written through table.
// A nil table means DefaultDirectives.
func Directives(table DirectiveTable, logger *slog.Logger) goldmark.Extender {
	if table == nil {
		table = DefaultDirectives()
	}
	return &directives{table: table, logger: logger}
}
