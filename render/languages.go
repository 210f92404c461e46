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
	"context"
	"errors"
	"regexp"
	"slices"
	"strings"

	"koala.blog/koala/highlight"
	"koala.blog/koala/util"
)

var (
	fenceLanguage  = regexp.MustCompile("(?m)^[ \t]*(?:```|~~~)[ \t]*([\\w+#-]+)")
	inlineLanguage = regexp.MustCompile("`[^`\n]*?\\{:(\\w+)\\}`")
)

// ScanLanguages lists the fence and inline-code languages of a markdown source without parsing
// it, lowercased and in order of first appearance. It may over-report (fences inside other
// fences) but is cheap enough to run before deciding which highlighter to build.
func ScanLanguages(source string) []string {
	fences := []string{}
	for _, m := range fenceLanguage.FindAllStringSubmatch(source, -1) {
		fences = util.AppendUnique(fences, strings.ToLower(m[1]))
	}
	var inline []string
	for _, m := range inlineLanguage.FindAllStringSubmatch(source, -1) {
		inline = append(inline, strings.ToLower(m[1]))
	}
	return util.ConcatUnique(fences, inline)
}

// languageSet picks the languages the highlighter must carry. Streaming content cannot be
// predicted and always gets the default set.
func (e *Engine) languageSet(req Request, detected []string) []string {
	switch {
	case req.Streaming:
		return e.cfg.DefaultLanguages
	case req.Languages != nil:
		return req.Languages
	case e.cfg.NarrowLanguages:
		return detected
	}
	return e.cfg.DefaultLanguages
}

// partitionLanguages splits languages into those with a grammar and those without.
func partitionLanguages(languages []string) (known, unknown []string) {
	for _, lang := range util.SortedUnique(languages) {
		if highlight.Supported(lang) {
			known = append(known, lang)
		} else {
			unknown = append(unknown, lang)
		}
	}
	return known, unknown
}

// highlighter fetches the highlighter for a render. Languages nobody can colour are dropped up
// front; a build that still fails is retried once without the languages it names. Whatever
// cannot be recovered is recorded on res and the render goes on uncoloured. Only the end of
// ctx is returned as an error.
func (e *Engine) highlighter(ctx context.Context, theme highlight.Theme, languages []string, res *Result) (*highlight.Highlighter, error) {
	known, unknown := partitionLanguages(languages)
	if len(unknown) > 0 {
		res.Diagnostics = append(res.Diagnostics, Diagnostic{
			Kind:      DiagUnknownLanguage,
			Languages: unknown,
			Message:   highlight.ErrUnknownLanguage.Error(),
		})
	}

	hl, err := e.cache.Get(ctx, theme, known)
	if err == nil {
		return hl, nil
	}
	if ctx.Err() != nil {
		return nil, err
	}
	var be *highlight.BuildError
	if errors.As(err, &be) && len(be.Languages) > 0 {
		res.Diagnostics = append(res.Diagnostics, Diagnostic{
			Kind:      DiagUnknownLanguage,
			Languages: be.Languages,
			Message:   err.Error(),
		})
		known = slices.DeleteFunc(known, func(lang string) bool {
			return slices.Contains(be.Languages, lang)
		})
		if hl, err = e.cache.Get(ctx, theme, known); err == nil {
			return hl, nil
		}
		if ctx.Err() != nil {
			return nil, err
		}
	}
	res.Diagnostics = append(res.Diagnostics, Diagnostic{Kind: DiagHighlighter, Message: err.Error()})
	return nil, nil
}
