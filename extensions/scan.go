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
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// ScanState is what an inline rule gets to look at: the rest of the current line starting at
// the trigger byte, and the character immediately before it ('\n' at the start of a block).
type ScanState struct {
	Line []byte
	Prev rune
}

// Match is a successful scan. Width is the number of bytes consumed from ScanState.Line.
type Match struct {
	Width int
	Node  ast.Node
}

// Rule scans at a trigger position. A rule that does not apply returns ok == false. Rules never
// move the reader themselves.
type Rule interface {
	Trigger() []byte
	Scan(state ScanState, parent ast.Node, seg text.Segment) (m Match, ok bool)
}

// ruleParser adapts a Rule to goldmark's inline parser interface. A match that would consume
// nothing is treated as a decline, so the reader always moves forward: goldmark keeps the
// trigger byte as text and continues after it.
type ruleParser struct {
	rule Rule
}

func newRuleParser(r Rule) parser.InlineParser {
	return &ruleParser{rule: r}
}

func (p *ruleParser) Trigger() []byte {
	return p.rule.Trigger()
}

func (p *ruleParser) Parse(parent ast.Node, block text.Reader, _ parser.Context) ast.Node {
	line, seg := block.PeekLine()
	if len(line) == 0 {
		return nil
	}
	state := ScanState{Line: line, Prev: block.PrecendingCharacter()}
	m, ok := p.rule.Scan(state, parent, seg)
	if !ok || m.Width <= 0 || m.Node == nil {
		return nil
	}
	if m.Width > len(line) {
		m.Width = len(line)
	}
	block.Advance(m.Width)
	return m.Node
}

// isLineEnd reports whether c terminates an inline span.
func isLineEnd(c byte) bool {
	return c == '\n' || c == '\r'
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || isLineEnd(c)
}

func isASCIIAlnum(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
