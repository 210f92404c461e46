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

// Package metadata extracts and holds the metadata of a document: its frontmatter block and the
// outline of its headings.
package metadata

import (
	"bytes"
	"encoding/json"
	"strings"
)

// DefaultDelimiter opens and closes a frontmatter block.
const DefaultDelimiter = "---"

// Frontmatter is an ordered mapping of keys to typed values. Values are string, bool or nil.
type Frontmatter struct {
	keys   []string
	values map[string]any
}

// NewFrontmatter returns an empty block.
func NewFrontmatter() *Frontmatter {
	return &Frontmatter{values: make(map[string]any)}
}

// Set stores value under key. A key keeps the position of its first occurrence.
func (f *Frontmatter) Set(key string, value any) {
	if _, ok := f.values[key]; !ok {
		f.keys = append(f.keys, key)
	}
	f.values[key] = value
}

// Get returns the value stored under key.
func (f *Frontmatter) Get(key string) (any, bool) {
	if f == nil {
		return nil, false
	}
	v, ok := f.values[key]
	return v, ok
}

// String returns the value under key if it is a string.
func (f *Frontmatter) String(key string) (string, bool) {
	v, ok := f.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Bool returns the value under key if it is a boolean.
func (f *Frontmatter) Bool(key string) (bool, bool) {
	v, ok := f.Get(key)
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// Keys returns the keys in document order.
func (f *Frontmatter) Keys() []string {
	if f == nil {
		return nil
	}
	out := make([]string, len(f.keys))
	copy(out, f.keys)
	return out
}

func (f *Frontmatter) Len() int {
	if f == nil {
		return 0
	}
	return len(f.keys)
}

// Map returns a copy of the block as a plain map.
func (f *Frontmatter) Map() map[string]any {
	out := make(map[string]any, f.Len())
	if f == nil {
		return out
	}
	for k, v := range f.values {
		out[k] = v
	}
	return out
}

// MarshalJSON encodes the block as a JSON object in document order.
func (f *Frontmatter) MarshalJSON() ([]byte, error) {
	if f == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range f.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(f.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Extract strips a leading frontmatter block from src. The block must start at the very first
// byte with delim and be closed by delim at the start of a later line. Without a closing
// delimiter nothing is extracted and src is returned unchanged.
func Extract(src, delim string) (*Frontmatter, string) {
	if delim == "" {
		delim = DefaultDelimiter
	}
	if !strings.HasPrefix(src, delim) {
		return nil, src
	}
	end := strings.Index(src[len(delim):], "\n"+delim)
	if end < 0 {
		return nil, src
	}
	end += len(delim)
	fm := parseBlock(src[len(delim):end])

	body := src[end+1+len(delim):]
	body = strings.TrimLeft(body, "\r\n")
	return fm, body
}

func parseBlock(block string) *Frontmatter {
	fm := NewFrontmatter()
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		fm.Set(key, parseValue(value))
	}
	return fm
}

func parseValue(value string) any {
	value = strings.TrimSpace(value)
	switch value {
	case "true":
		return true
	case "false":
		return false
	case "null":
		return nil
	}
	if len(value) >= 2 {
		first, last := value[0], value[len(value)-1]
		if (first == '"' || first == '\'') && first == last {
			return value[1 : len(value)-1]
		}
	}
	return value
}
