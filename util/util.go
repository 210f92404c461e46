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

package util

import (
	"log/slog"
	"path/filepath"
	"regexp"
	"runtime"
	"slices"
	"strings"
	"time"
)

// schemeRegex matches a URI scheme followed by an authority, e.g. "https://" or "ftp://".
var schemeRegex = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.\-]*://`)

// Timer logs the time elapsed between its call and the call of the returned function.
func Timer(logger *slog.Logger, name string) func() {
	start := time.Now()
	_, file, line, ok := runtime.Caller(1)
	if !ok {
		file = "unknown"
		line = 0
	}
	return func() {
		logger.Debug(name,
			slog.String("at", filepath.Base(file)),
			slog.Int("line", line),
			slog.Duration("elapsed", time.Since(start)),
		)
	}
}

// let B = {b ∈ sliceB | b ∉ sliceA} then sliceA ∪ B is equivalent to ConcatUnique(sliceA, sliceB)
func ConcatUnique[T comparable](sliceA []T, sliceB []T) []T {
	result := make([]T, len(sliceA), len(sliceA)+len(sliceB))
	copy(result, sliceA)
	for _, val := range sliceB {
		if !slices.Contains(result, val) {
			result = append(result, val)
		}
	}
	return result
}

// AppendUnique appends val unless it is already present.
func AppendUnique[T comparable](slice []T, val T) []T {
	if slices.Contains(slice, val) {
		return slice
	}
	return append(slice, val)
}

// IsExternal reports whether link points outside the site: anything carrying a scheme with an
// authority ("https://host/..."), or a mailto:/tel: URI.
func IsExternal(link string) bool {
	if schemeRegex.MatchString(link) {
		return true
	}
	lower := strings.ToLower(link)
	return strings.HasPrefix(lower, "mailto:") || strings.HasPrefix(lower, "tel:")
}

// SortedUnique returns the lowercased, trimmed, deduplicated and sorted copy of values.
// Empty values are dropped.
func SortedUnique(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	slices.Sort(out)
	return slices.Compact(out)
}
