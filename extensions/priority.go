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

/*
Default Block Parsers
=====================
SetextHeadingParser     100
ThematicBreakParser     200
ListParser              300
ListItemParser          400
CodeBlockParser         500
ATXHeadingParser        600
FencedCodeBlockParser   700
BlockquoteParser        800
HTMLBlockParser         900
ParagraphParser         1000

Default Inline Parsers
======================
CodeSpanParser   100
LinkParser       200
AutoLinkParser   300
RawHTMLParser    400
EmphasisParser   500

extensions
==========
DefinitionListHTMLRenderer   500
FootnoteHTMLRenderer         500
StrikethroughHTMLRenderer    500
TableHTMLRenderer            500

FootnoteParser               101
StrikethroughParser          500
FootnoteBlockParser          999
LinkifyParser                999

TableParagraphTransformer    200
FootnoteASTTransformer       999

Renderers with a lower number win when two register the same kind; the html renderer sits at 1000.
*/

const (
	priorityDirectiveParser          = 790 // before blockquotes
	priorityAlertParser              = 130
	priorityTodoParser               = 140
	priorityWikiLinkParser           = 150 // Must be before links
	priorityHashtagParser            = 250 // after links and autolinks, before raw html
	priorityCharacterReferenceParser = 260
	priorityAlertTransformer         = 100
	priorityTodoTransformer          = 100
	priorityLinkTransformer          = 200
	priorityInlineCodeTransformer    = 300
	priorityMediaTransformer         = 9000
	priorityOverrideRenderer         = 100
	priorityNodeRenderer             = 500
)
