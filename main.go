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
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"koala.blog/koala/highlight"
	"koala.blog/koala/internal/config"
	"koala.blog/koala/render"
)

// app is the state every command starts from.
type app struct {
	cfg    *render.Config
	logger *slog.Logger
}

func newApp(cmd *cli.Command) (*app, error) {
	cfg := render.DefaultConfig()
	if err := config.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if theme := cmd.String("theme"); theme != "" {
		cfg.Theme = highlight.ParseTheme(theme)
	}
	level := cfg.LogLevel
	if cmd.Bool("debug") {
		level = slog.LevelDebug
	}
	logger := slog.New(newLogHandler(level, logOutput(cmd.String("log-file"))))
	slog.SetDefault(logger)
	return &app{cfg: cfg, logger: logger}, nil
}

func (a *app) engine() (*render.Engine, error) {
	return render.New(a.cfg, render.WithLogger(a.logger))
}

func main() {
	cmd := &cli.Command{
		Name:  "koala",
		Usage: "Render markdown notes with wiki-links, tags and highlighted code to HTML",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "koala.yaml",
				Value:       "koala.yaml",
				Sources:     cli.EnvVars("KOALA_CONFIG_FILE"),
				TakesFile:   true,
			},
			&cli.StringFlag{
				Name:    "theme",
				Usage:   "Highlighting theme, light or light/dark",
				Sources: cli.EnvVars("KOALA_THEME"),
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "Log at debug level",
				Sources: cli.EnvVars("KOALA_DEBUG"),
			},
			&cli.StringFlag{
				Name:      "log-file",
				Usage:     "Write logs to a rotating file instead of stderr",
				TakesFile: true,
			},
		},
		Commands: []*cli.Command{
			renderCommand(),
			cssCommand(),
			scanCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("koala failed", slog.Any("err", err))
		os.Exit(1)
	}
}
