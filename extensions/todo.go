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

	"koala.blog/koala/html"
)

// Lucide square and square-check.
const (
	uncheckedIcon = `<svg xmlns="http://www.w3.org/2000/svg" width="20" height="20" viewBox="0 0 24 24" fill="none" stroke="currentColor" stroke-width="2" stroke-linecap="round" stroke-linejoin="round" class="lucide lucide-square task-list-icon"><rect width="18" height="18" x="3" y="3" rx="2"/></svg>`
	checkedIcon   = `<svg xmlns="http://www.w3.org/2000/svg" width="20" height="20" viewBox="0 0 24 24" fill="none" stroke="currentColor" stroke-width="2" stroke-linecap="round" stroke-linejoin="round" class="lucide lucide-square-check task-list-icon"><rect width="18" height="18" x="3" y="3" rx="2"/><path d="m9 12 2 2 4-4"/></svg>`
)

const (
	taskItemClass = "task-list-item"
	checkedClass  = "checked"
)

// TodoMarker replaces a leading "[ ] " or "[x] " in a list item.
type TodoMarker struct {
	ast.BaseInline
	Checked bool
}

var KindTodoMarker = ast.NewNodeKind("TodoMarker")

func (n *TodoMarker) Kind() ast.NodeKind {
	return KindTodoMarker
}

// Dump implements Node.Dump.
func (n *TodoMarker) Dump(source []byte, level int) {
	m := map[string]string{"Checked": "false"}
	if n.Checked {
		m["Checked"] = "true"
	}
	ast.DumpHelper(n, source, level, m, nil)
}

type todoRule struct{}

func (todoRule) Trigger() []byte {
	return []byte{'['}
}

// Scan only fires on the very first bytes of the first block of a list item.
func (todoRule) Scan(s ScanState, parent ast.Node, _ text.Segment) (Match, bool) {
	if parent.HasChildren() || !isFirstInListItem(parent) {
		return Match{}, false
	}
	if len(s.Line) < 4 || s.Line[0] != '[' || s.Line[2] != ']' || s.Line[3] != ' ' {
		return Match{}, false
	}
	switch s.Line[1] {
	case ' ':
		return Match{Width: 4, Node: &TodoMarker{}}, true
	case 'x', 'X':
		return Match{Width: 4, Node: &TodoMarker{Checked: true}}, true
	}
	return Match{}, false
}

func isFirstInListItem(block ast.Node) bool {
	switch block.Kind() {
	case ast.KindParagraph, ast.KindTextBlock:
	default:
		return false
	}
	li, ok := block.Parent().(*ast.ListItem)
	return ok && li.FirstChild() == block
}

type todoTransformer struct{}

func (t todoTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || n.Kind() != KindTodoMarker {
			return ast.WalkContinue, nil
		}
		marker := n.(*TodoMarker)
		li := n.Parent().Parent()
		class := taskItemClass
		if marker.Checked {
			class += " " + checkedClass
		}
		if existing, ok := li.AttributeString("class"); ok {
			switch v := existing.(type) {
			case []byte:
				class = string(v) + " " + class
			case string:
				class = v + " " + class
			}
		}
		li.SetAttributeString("class", []byte(class))
		return ast.WalkSkipChildren, nil
	})
}

type TodoHTMLRenderer struct{}

func NewTodoHTMLRenderer() renderer.NodeRenderer {
	return &TodoHTMLRenderer{}
}

func (r *TodoHTMLRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindTodoMarker, r.renderTodoMarker)
}

func (r *TodoHTMLRenderer) renderTodoMarker(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	icon := uncheckedIcon
	if node.(*TodoMarker).Checked {
		icon = checkedIcon
	}
	span := html.NewHTMLElement("span", html.Class("task-list-marker"))
	span.AppendRaw(icon)
	return ast.WalkContinue, span.Render(w)
}

type todoList struct{}

func (e *todoList) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithInlineParsers(
			util.Prioritized(newRuleParser(todoRule{}), priorityTodoParser),
		),
		parser.WithASTTransformers(
			util.Prioritized(todoTransformer{}, priorityTodoTransformer),
		),
	)
	m.Renderer().AddOptions(
		renderer.WithNodeRenderers(
			util.Prioritized(NewTodoHTMLRenderer(), priorityNodeRenderer),
		),
	)
}

// TodoList turns list items starting with "[ ] " or "[x] " into task items.
func TodoList() goldmark.Extender {
	return &todoList{}
}
