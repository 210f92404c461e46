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
	"slices"
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

var (
	alertOpen  = []byte("[!")
	alertClose = []byte("]")
)

// alertMarker is the [!KIND] line that opens a GitHub style alert blockquote.
type alertMarker struct {
	ast.BaseInline
	kind string
}

var KindAlertMarker = ast.NewNodeKind("AlertMarker")

func (n *alertMarker) Kind() ast.NodeKind {
	return KindAlertMarker
}

// Dump implements Node.Dump.
func (n *alertMarker) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Kind": n.kind}, nil)
}

type alertRule struct{}

func (alertRule) Trigger() []byte {
	return []byte{'['}
}

// Scan takes the whole first line of a blockquote when it is exactly [!KIND] for a known kind.
func (alertRule) Scan(s ScanState, parent ast.Node, _ text.Segment) (Match, bool) {
	if parent.HasChildren() || parent.Kind() != ast.KindParagraph {
		return Match{}, false
	}
	bq, ok := parent.Parent().(*ast.Blockquote)
	if !ok || bq.FirstChild() != parent {
		return Match{}, false
	}
	if !bytes.HasPrefix(s.Line, alertOpen) {
		return Match{}, false
	}
	stop := bytes.Index(s.Line, alertClose)
	if stop < 0 || len(bytes.TrimSpace(s.Line[stop+1:])) != 0 {
		return Match{}, false
	}
	kind := strings.ToLower(string(s.Line[len(alertOpen):stop]))
	if !slices.Contains(alertKinds, kind) {
		return Match{}, false
	}
	return Match{Width: len(s.Line), Node: &alertMarker{kind: kind}}, true
}

// alertTransformer turns marked blockquotes into directives of the same kind.
type alertTransformer struct{}

func (t alertTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	var quotes []*ast.Blockquote
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if bq, ok := n.(*ast.Blockquote); ok && entering {
			if para, ok := bq.FirstChild().(*ast.Paragraph); ok {
				if _, ok := para.FirstChild().(*alertMarker); ok {
					quotes = append(quotes, bq)
				}
			}
		}
		return ast.WalkContinue, nil
	})
	for _, bq := range quotes {
		para := bq.FirstChild()
		marker := para.FirstChild().(*alertMarker)
		para.RemoveChild(para, marker)
		if !para.HasChildren() {
			bq.RemoveChild(bq, para)
		}
		d := NewDirective(marker.kind)
		for c := bq.FirstChild(); c != nil; {
			next := c.NextSibling()
			d.AppendChild(d, c)
			c = next
		}
		bq.Parent().ReplaceChild(bq.Parent(), bq, d)
	}
}
