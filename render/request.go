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
	"fmt"
	"strings"

	"koala.blog/koala/highlight"
	"koala.blog/koala/links"
	"koala.blog/koala/metadata"
)

// Mode selects whether fenced code is coloured.
type Mode int

const (
	// ModeRich colours code through the highlighter cache.
	ModeRich Mode = iota
	// ModeRaw escapes code without colour and never touches the cache.
	ModeRaw
)

func (m Mode) String() string {
	switch m {
	case ModeRich:
		return "rich"
	case ModeRaw:
		return "raw"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Request is one document to render.
type Request struct {
	Source string
	// Subject is the document title. With AddSubjectAsH1 it is rendered as a leading heading.
	Subject        string
	AddSubjectAsH1 bool
	// Theme overrides the configured theme when non-nil.
	Theme *highlight.Theme
	Mode  Mode
	// Languages is a pre-scanned language set. Nil means not scanned.
	Languages []string
	// Streaming marks partial content whose languages cannot be predicted; the default set is
	// always used.
	Streaming bool
	// Links is the resolution table for wiki-links. Table, when set, is used instead.
	Links []links.Entry
	Table *links.Table
}

// DiagnosticKind classifies a non-fatal problem met during a render.
type DiagnosticKind string

const (
	DiagUnknownLanguage DiagnosticKind = "unknown-language"
	DiagHighlighter     DiagnosticKind = "highlighter"
	DiagHighlight       DiagnosticKind = "highlight"
)

// Diagnostic is a recovered failure. The render it belongs to still completed.
type Diagnostic struct {
	Kind      DiagnosticKind `json:"kind"`
	Languages []string       `json:"languages,omitempty"`
	Message   string         `json:"message"`
}

func (d Diagnostic) String() string {
	if len(d.Languages) == 0 {
		return string(d.Kind) + ": " + d.Message
	}
	return string(d.Kind) + " (" + strings.Join(d.Languages, ", ") + "): " + d.Message
}

// Result is everything a render produces.
type Result struct {
	HTML        string                `json:"html"`
	Frontmatter *metadata.Frontmatter `json:"frontmatter,omitempty"`
	// Tags and Links are deduplicated in document order.
	Tags  []string      `json:"tags"`
	Links []links.Entry `json:"links"`
	// Languages are the lowercased fence and inline-code languages in document order.
	Languages   []string           `json:"languages"`
	Headings    []metadata.Heading `json:"headings"`
	TOC         string             `json:"toc,omitempty"`
	Excerpt     string             `json:"excerpt,omitempty"`
	Mode        Mode               `json:"-"`
	Diagnostics []Diagnostic       `json:"diagnostics,omitempty"`
}
