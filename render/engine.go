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

// Package render turns markdown documents into decorated HTML plus the metadata extracted on the
// way: frontmatter, tags, outgoing links, code languages and headings.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"koala.blog/koala/extensions"
	"koala.blog/koala/highlight"
	"koala.blog/koala/links"
	"koala.blog/koala/metadata"
	"koala.blog/koala/util"
)

var ErrClosed = errors.New("render engine closed")

// Engine renders documents. It is safe for concurrent use; renders share nothing but the
// highlighter cache.
type Engine struct {
	cfg        Config
	cache      *highlight.Cache
	ownsCache  bool
	directives extensions.DirectiveTable
	sanitizer  *bluemonday.Policy
	logger     *slog.Logger
	reg        prometheus.Registerer
	m          *metrics
	closed     atomic.Bool
}

type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithCache shares an existing highlighter cache. The engine does not close it.
func WithCache(cache *highlight.Cache) Option {
	return func(e *Engine) {
		e.cache = cache
	}
}

// WithRegisterer exports render and cache metrics to reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(e *Engine) {
		e.reg = reg
	}
}

// WithDirectives replaces the container directive table.
func WithDirectives(table extensions.DirectiveTable) Option {
	return func(e *Engine) {
		e.directives = table
	}
}

// New validates cfg and builds an engine. A nil cfg means DefaultConfig.
func New(cfg *Config, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid render config: %w", err)
	}
	e := &Engine{
		cfg:        *cfg,
		directives: extensions.DefaultDirectives(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}

	var err error
	if e.m, err = newMetrics(e.reg); err != nil {
		return nil, fmt.Errorf("failed to register render metrics: %w", err)
	}
	if e.cache == nil {
		e.cache, err = highlight.NewCache(cfg.Cache,
			highlight.WithLogger(e.logger),
			highlight.WithRegisterer(e.reg),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create highlighter cache: %w", err)
		}
		e.ownsCache = true
	}
	if cfg.AllowRawHTML {
		e.sanitizer = newSanitizer()
	}
	return e, nil
}

func (e *Engine) Config() Config {
	return e.cfg
}

// Cache is the highlighter cache the engine renders with.
func (e *Engine) Cache() *highlight.Cache {
	return e.cache
}

func (e *Engine) theme(override *highlight.Theme) highlight.Theme {
	if override != nil {
		return *override
	}
	return e.cfg.Theme
}

// Render runs the pipeline for one document. Content never makes it fail: malformed syntax
// falls back to text and highlighter trouble is reported in Result.Diagnostics. It fails only
// when ctx ends while waiting for a highlighter, or the engine is closed.
func (e *Engine) Render(ctx context.Context, req Request) (*Result, error) {
	if e.closed.Load() {
		return nil, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer util.Timer(e.logger, "render")()
	start := time.Now()

	fm, body := metadata.Extract(req.Source, e.cfg.Delimiter)
	if req.AddSubjectAsH1 && strings.TrimSpace(req.Subject) != "" {
		body = subjectHeading(req.Subject, body)
	}
	source := []byte(body)
	table := req.Table
	if table == nil {
		table = links.NewTable(req.Links)
	}

	md := e.newMarkdown(table)
	pc := parser.NewContext(parser.WithIDs(extensions.NewSlugIDs()))
	doc := md.Parser().Parse(text.NewReader(source), parser.WithContext(pc))

	found := collect(doc, source)
	res := &Result{
		Frontmatter: fm,
		Tags:        found.tags,
		Links:       found.links,
		Languages:   found.languages,
		Excerpt:     extensions.Excerpt(doc, source, e.cfg.ExcerptLength),
		Mode:        req.Mode,
	}
	if o, err := inspectOutline(doc, source); err != nil {
		e.logger.Warn("failed to build outline", slog.String("subject", req.Subject), slog.Any("err", err))
	} else {
		res.Headings = o.headings
		if e.cfg.HeadingIDs && o.toc != nil {
			res.TOC = o.toc.String()
		}
	}
	if !e.cfg.HeadingIDs {
		stripHeadingIDs(doc)
	}

	var hl *highlight.Highlighter
	if req.Mode == ModeRich {
		var err error
		hl, err = e.highlighter(ctx, e.theme(req.Theme), e.languageSet(req, found.languages), res)
		if err != nil {
			return nil, err
		}
	}
	extensions.CodeBlocks(hl, func(lang string, err error) {
		e.logger.Warn("failed to highlight code", slog.String("lang", lang), slog.Any("err", err))
		res.Diagnostics = append(res.Diagnostics, Diagnostic{
			Kind:      DiagHighlight,
			Languages: []string{lang},
			Message:   err.Error(),
		})
	}).Extend(md)

	var buf bytes.Buffer
	if err := md.Renderer().Render(&buf, source, doc); err != nil {
		return nil, fmt.Errorf("failed to serialise document: %w", err)
	}
	res.HTML = buf.String()
	if e.sanitizer != nil {
		res.HTML = e.sanitizer.Sanitize(res.HTML)
	}
	e.m.observe(req.Mode, len(res.Diagnostics), time.Since(start))
	return res, nil
}

// Stylesheet is the highlighting CSS for theme, or for the configured theme when theme is nil.
func (e *Engine) Stylesheet(ctx context.Context, theme *highlight.Theme) (string, error) {
	if e.closed.Load() {
		return "", ErrClosed
	}
	hl, err := e.cache.Get(ctx, e.theme(theme), nil)
	if err != nil {
		return "", err
	}
	return hl.CSS(), nil
}

// Warm builds the highlighter for theme and languages ahead of the first render that needs it.
// Languages without a grammar are left out, as Render would.
func (e *Engine) Warm(ctx context.Context, theme *highlight.Theme, languages []string) error {
	if e.closed.Load() {
		return ErrClosed
	}
	known, _ := partitionLanguages(languages)
	_, err := e.cache.Get(ctx, e.theme(theme), known)
	return err
}

// Close stops the engine. Renders already running finish; later calls get ErrClosed.
func (e *Engine) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}
	if e.ownsCache {
		e.cache.Close()
	}
	return nil
}
