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
	"errors"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"koala.blog/koala/extensions"
	"koala.blog/koala/highlight"
)

// DefaultDelimiter opens and closes a frontmatter block.
const DefaultDelimiter = "---"

// DefaultLanguages is the superset loaded when a document has not been scanned.
var DefaultLanguages = []string{
	"markdown", "jsx", "typescript", "javascript", "rust", "haskell", "python", "json", "ini",
}

// Config holds the engine settings.
type Config struct {
	Theme            highlight.Theme  `yaml:"theme"`
	DefaultLanguages []string         `yaml:"default_languages"`
	NarrowLanguages  bool             `yaml:"narrow_languages"`
	LinkClass        string           `yaml:"link_class"`
	LinkTarget       string           `yaml:"link_target"`
	TagClass         string           `yaml:"tag_class"`
	Delimiter        string           `yaml:"frontmatter_delimiter"`
	HeadingIDs       bool             `yaml:"heading_ids"`
	AllowRawHTML     bool             `yaml:"allow_raw_html"`
	ExcerptLength    int              `yaml:"excerpt_length"`
	Cache            highlight.Policy `yaml:"cache"`
	BatchConcurrency int              `yaml:"batch_concurrency"`
	LogLevel         slog.Level       `yaml:"log_level"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Theme, validation.By(validTheme)),
		validation.Field(&c.DefaultLanguages, validation.Required),
		validation.Field(&c.LinkTarget, validation.In("", "_self", "_blank", "_parent", "_top")),
		validation.Field(&c.Delimiter, validation.Required),
		validation.Field(&c.ExcerptLength, validation.Min(0)),
		validation.Field(&c.Cache, validation.By(validPolicy)),
		validation.Field(&c.BatchConcurrency, validation.Required, validation.Min(1)),
	)
}

func validTheme(value any) error {
	t, _ := value.(highlight.Theme)
	if t.Light != "" && !highlight.KnownTheme(t.Light) {
		return errors.New("unknown light theme " + t.Light)
	}
	if t.Dark != "" && !highlight.KnownTheme(t.Dark) {
		return errors.New("unknown dark theme " + t.Dark)
	}
	return nil
}

func validPolicy(value any) error {
	p, _ := value.(highlight.Policy)
	if p.MaxEntries < 0 {
		return errors.New("max_entries must not be negative")
	}
	if p.TTL < 0 {
		return errors.New("ttl must not be negative")
	}
	return nil
}

// DefaultConfig returns the configuration used when nothing is set: catppuccin latte with mocha
// for dark mode, documents narrowed to the languages they use, cache without eviction.
func DefaultConfig() *Config {
	return &Config{
		Theme:            highlight.Theme{Light: "latte", Dark: "mocha"},
		DefaultLanguages: append([]string(nil), DefaultLanguages...),
		NarrowLanguages:  true,
		LinkClass:        extensions.DefaultLinkClass,
		LinkTarget:       extensions.DefaultLinkTarget,
		TagClass:         extensions.DefaultTagClass,
		Delimiter:        DefaultDelimiter,
		ExcerptLength:    200,
		BatchConcurrency: 4,
		LogLevel:         slog.LevelInfo,
	}
}
