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

package html

import (
	"bytes"
	"io"
	"slices"

	gmutil "github.com/yuin/goldmark/util"
)

var voidElements = []string{
	"area",
	"base",
	"br",
	"col",
	"embed",
	"hr",
	"img",
	"input",
	"link",
	"meta",
	"param", //Deprecated
	"source",
	"track",
	"wbr",
}

// Attribute is a single name/value pair. Attributes keep insertion order so that rendering the
// same element twice yields identical bytes.
type Attribute struct {
	Name  string
	Value string
}

// HTMLElement is a small DOM node. An element with an empty Tag is a text node; its Content is
// escaped on output unless Raw is set.
type HTMLElement struct {
	Tag        string
	Content    string
	Raw        bool
	Attributes []Attribute
	Children   []*HTMLElement
}

func NewHTMLElement(tag string, attr ...Attribute) *HTMLElement {
	e := &HTMLElement{Tag: tag}
	for _, a := range attr {
		e.SetAttribute(a.Name, a.Value)
	}
	return e
}

// SetAttribute sets name to value. Setting "class" on an element that already has one appends
// to the class list.
func (e *HTMLElement) SetAttribute(name, value string) *HTMLElement {
	for i := range e.Attributes {
		if e.Attributes[i].Name != name {
			continue
		}
		if name == "class" && e.Attributes[i].Value != "" && value != "" {
			e.Attributes[i].Value += " " + value
		} else {
			e.Attributes[i].Value = value
		}
		return e
	}
	e.Attributes = append(e.Attributes, Attribute{name, value})
	return e
}

// Attr returns the value of the named attribute.
func (e *HTMLElement) Attr(name string) (string, bool) {
	for _, a := range e.Attributes {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

func (e *HTMLElement) Append(elem *HTMLElement) *HTMLElement {
	if elem != nil {
		e.Children = append(e.Children, elem)
	}
	return e
}

// Convienience function to quickly make a class attribute
func Class(cls string) Attribute {
	return Attribute{"class", cls}
}

// Convienience function to quickly make an href attribute
func Href(url string) Attribute {
	return Attribute{"href", url}
}

// Data makes a data-* attribute.
func Data(name, value string) Attribute {
	return Attribute{"data-" + name, value}
}

func (e *HTMLElement) AppendNew(tag string, attr ...Attribute) *HTMLElement {
	elem := NewHTMLElement(tag, attr...)
	e.Children = append(e.Children, elem)
	return elem
}

// AppendText appends an escaped text node.
func (e *HTMLElement) AppendText(text string) *HTMLElement {
	elem := &HTMLElement{Content: text}
	e.Children = append(e.Children, elem)
	return elem
}

// AppendRaw appends markup that is written verbatim. Callers must only pass markup they produced.
func (e *HTMLElement) AppendRaw(markup string) *HTMLElement {
	elem := &HTMLElement{Content: markup, Raw: true}
	e.Children = append(e.Children, elem)
	return elem
}

func escape(s string) []byte {
	return gmutil.EscapeHTML([]byte(s))
}

// WriteOpen writes the opening tag only.
func (e *HTMLElement) WriteOpen(w io.Writer) error {
	var out bytes.Buffer
	out.WriteByte('<')
	out.WriteString(e.Tag)
	for _, a := range e.Attributes {
		out.WriteByte(' ')
		out.WriteString(a.Name)
		out.WriteString(`="`)
		out.Write(escape(a.Value))
		out.WriteByte('"')
	}
	out.WriteByte('>')
	_, err := w.Write(out.Bytes())
	return err
}

// WriteClose writes the closing tag only. Void elements have none.
func (e *HTMLElement) WriteClose(w io.Writer) error {
	if slices.Contains(voidElements, e.Tag) {
		return nil
	}
	_, err := io.WriteString(w, "</"+e.Tag+">")
	return err
}

// Render serializes the element and its subtree without any added whitespace.
func (e *HTMLElement) Render(w io.Writer) error {
	if e == nil {
		return nil
	}
	if e.Tag == "" {
		var err error
		if e.Raw {
			_, err = io.WriteString(w, e.Content)
		} else {
			_, err = w.Write(escape(e.Content))
		}
		return err
	}
	if err := e.WriteOpen(w); err != nil {
		return err
	}
	for _, child := range e.Children {
		if err := child.Render(w); err != nil {
			return err
		}
	}
	return e.WriteClose(w)
}

// String renders the element to a string.
func (e *HTMLElement) String() string {
	var buf bytes.Buffer
	_ = e.Render(&buf)
	return buf.String()
}
