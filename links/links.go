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

// Package links resolves wiki-link titles against the table of linkable documents.
package links

import (
	"strings"

	"koala.blog/koala/util"
)

// Entry maps a document subject to its canonical link path.
type Entry struct {
	Subject string `json:"subject" yaml:"subject"`
	Link    string `json:"link" yaml:"link"`
}

// Resolution is the outcome of resolving one title.
type Resolution struct {
	// Href is the value to use in an anchor: the link verbatim when external, otherwise the
	// link prefixed with "/".
	Href string
	// Link is the canonical path as found in the table.
	Link     string
	External bool
	Found    bool
}

// Table is a read-only subject to link lookup. The zero value resolves nothing.
type Table struct {
	bySubject map[string]string
}

// NewTable indexes entries by exact subject. The first entry for a subject wins.
func NewTable(entries []Entry) *Table {
	t := &Table{bySubject: make(map[string]string, len(entries))}
	for _, e := range entries {
		if e.Subject == "" {
			continue
		}
		if _, ok := t.bySubject[e.Subject]; ok {
			continue
		}
		t.bySubject[e.Subject] = e.Link
	}
	return t
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.bySubject)
}

// Resolve looks up the trimmed title. Matching is exact; no case folding takes place.
func (t *Table) Resolve(title string) Resolution {
	if t == nil {
		return Resolution{}
	}
	link, ok := t.bySubject[strings.TrimSpace(title)]
	if !ok {
		return Resolution{}
	}
	if util.IsExternal(link) {
		return Resolution{Href: link, Link: link, External: true, Found: true}
	}
	return Resolution{Href: "/" + strings.TrimLeft(link, "/"), Link: link, Found: true}
}
