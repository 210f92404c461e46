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

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"koala.blog/koala/highlight"
	"koala.blog/koala/internal/config"
	"koala.blog/koala/links"
	"koala.blog/koala/metadata"
	"koala.blog/koala/render"
)

var errMissingFile = errors.New("missing markdown file argument")

func renderCommand() *cli.Command {
	return &cli.Command{
		Name:      "render",
		Usage:     "Render a markdown file to a standalone HTML page",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Write HTML to `PATH` instead of stdout", TakesFile: true},
			&cli.StringFlag{Name: "links", Aliases: []string{"l"}, Usage: "YAML list of {subject, link} used to resolve [[wiki-links]]", TakesFile: true},
			&cli.StringFlag{Name: "meta", Usage: "Write extracted metadata as JSON to `PATH` (- for stdout)", TakesFile: true},
			&cli.StringFlag{Name: "subject", Usage: "Document subject; defaults to the file name"},
			&cli.BoolFlag{Name: "subject-h1", Usage: "Render the subject as a leading heading"},
			&cli.BoolFlag{Name: "raw", Usage: "Skip syntax highlighting"},
			&cli.BoolFlag{Name: "fragment", Usage: "Write only the rendered body, not a full page"},
			&cli.BoolFlag{Name: "watch", Aliases: []string{"w"}, Usage: "Render again whenever the file or link table changes"},
		},
		Action: runRender,
	}
}

func runRender(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return errMissingFile
	}
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	engine, err := a.engine()
	if err != nil {
		return err
	}
	defer engine.Close()

	if err := renderFile(ctx, a, engine, cmd, path); err != nil {
		return err
	}
	if !cmd.Bool("watch") {
		return nil
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return watch(ctx, a.logger, []string{path, cmd.String("links")}, func() {
		if err := renderFile(ctx, a, engine, cmd, path); err != nil {
			a.logger.Error("render failed", slog.String("file", path), slog.Any("err", err))
		}
	})
}

func loadLinks(path string) ([]links.Entry, error) {
	if path == "" {
		return nil, nil
	}
	var entries []links.Entry
	if err := config.Load(path, &entries); err != nil {
		return nil, fmt.Errorf("failed to load link table: %w", err)
	}
	return entries, nil
}

func subjectOf(cmd *cli.Command, path string) string {
	if s := cmd.String("subject"); s != "" {
		return s
	}
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

func renderFile(ctx context.Context, a *app, engine *render.Engine, cmd *cli.Command, path string) error {
	start := time.Now()
	source, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	entries, err := loadLinks(cmd.String("links"))
	if err != nil {
		return err
	}
	mode := render.ModeRich
	if cmd.Bool("raw") {
		mode = render.ModeRaw
	}
	subject := subjectOf(cmd, path)
	res, err := engine.Render(ctx, render.Request{
		Source:         string(source),
		Subject:        subject,
		AddSubjectAsH1: cmd.Bool("subject-h1"),
		Mode:           mode,
		Links:          entries,
	})
	if err != nil {
		return err
	}
	for _, d := range res.Diagnostics {
		a.logger.Warn("render diagnostic",
			slog.String("file", path),
			slog.String("kind", string(d.Kind)),
			slog.Any("languages", d.Languages),
			slog.String("message", d.Message),
		)
	}

	out := []byte(res.HTML)
	if !cmd.Bool("fragment") {
		p := &page{Title: subject, Result: res}
		if title, ok := res.Frontmatter.String("title"); ok && title != "" {
			p.Title = title
		}
		if mode == render.ModeRich {
			css, err := engine.Stylesheet(ctx, nil)
			if err != nil {
				return err
			}
			p.Styles = append(p.Styles, css)
		}
		if out, err = p.Build(); err != nil {
			return err
		}
	}
	if err := writeOutput(cmd.String("out"), out); err != nil {
		return err
	}
	if metaPath := cmd.String("meta"); metaPath != "" {
		if err := writeMeta(metaPath, subject, res); err != nil {
			return err
		}
	}
	a.logger.Info("rendered",
		slog.String("file", path),
		slog.String("mode", mode.String()),
		slog.String("size", humanize.Bytes(uint64(len(out)))),
		slog.Int("tags", len(res.Tags)),
		slog.Int("links", len(res.Links)),
		slog.Duration("took", time.Since(start)),
	)
	return nil
}

func writeOutput(path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

type documentMeta struct {
	Subject     string                `json:"subject"`
	Frontmatter *metadata.Frontmatter `json:"frontmatter,omitempty"`
	Tags        []string              `json:"tags"`
	Links       []links.Entry         `json:"links"`
	Languages   []string              `json:"languages"`
	Headings    []metadata.Heading    `json:"headings"`
	Excerpt     string                `json:"excerpt,omitempty"`
	Diagnostics []render.Diagnostic   `json:"diagnostics,omitempty"`
}

func writeMeta(path, subject string, res *render.Result) error {
	data, err := json.MarshalIndent(documentMeta{
		Subject:     subject,
		Frontmatter: res.Frontmatter,
		Tags:        res.Tags,
		Links:       res.Links,
		Languages:   res.Languages,
		Headings:    res.Headings,
		Excerpt:     res.Excerpt,
		Diagnostics: res.Diagnostics,
	}, "", "  ")
	if err != nil {
		return err
	}
	return writeOutput(path, append(data, '\n'))
}

func cssCommand() *cli.Command {
	return &cli.Command{
		Name:  "css",
		Usage: "Print the highlighting stylesheet for the configured theme",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Write CSS to `PATH` instead of stdout", TakesFile: true},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			engine, err := a.engine()
			if err != nil {
				return err
			}
			defer engine.Close()
			css, err := engine.Stylesheet(ctx, nil)
			if err != nil {
				return err
			}
			return writeOutput(cmd.String("out"), []byte(css))
		},
	}
}

func scanCommand() *cli.Command {
	return &cli.Command{
		Name:      "scan",
		Usage:     "List the code languages a markdown file uses",
		ArgsUsage: "FILE",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.Args().First()
			if path == "" {
				return errMissingFile
			}
			source, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			return printLanguages(os.Stdout, render.ScanLanguages(string(source)))
		},
	}
}

func printLanguages(w io.Writer, languages []string) error {
	for _, lang := range languages {
		line := lang
		if !highlight.Supported(lang) {
			line += "\t(no grammar)"
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
