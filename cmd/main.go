package main

import (
	"discovernow/internal/actions"
	"discovernow/internal/recommend"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	strategies := make([]string, 0, 4)
	for _, s := range recommend.Strategies() {
		strategies = append(strategies, string(s))
	}

	return &cli.App{
		Name:  "discovernow",
		Usage: "Discover NOW builds playlists of artists you don't know yet from the music you already love.",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "verbose", Usage: "log debug output"},
		},
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Authorize discovernow with your Spotify account",
				Action: actions.Login,
			},
			{
				Name:  "generate",
				Usage: "Generate a playlist of new recommendations",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "strategy", Aliases: []string{"s"}, Usage: "sampling strategy: " + strings.Join(strategies, ", ")},
					&cli.StringFlag{Name: "playlist", Aliases: []string{"p"}, Usage: "sample seed tracks from this playlist URL or ID instead of your library"},
					&cli.StringFlag{Name: "csv", Usage: "also write the tracks to this CSV file"},
					&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "use the configured strategy without asking"},
				},
				Action: actions.Generate,
			},
			{
				Name:   "library-size",
				Usage:  "Show how many tracks are saved in your library",
				Action: actions.LibrarySize,
			},
			{
				Name:  "blacklist",
				Usage: "Manage artists that are never recommended",
				Subcommands: []*cli.Command{
					{
						Name:      "add",
						Usage:     "Blacklist one or more artists",
						ArgsUsage: "[artist...]",
						Action:    actions.BlacklistAdd,
					},
					{
						Name:   "list",
						Usage:  "List blacklisted artists",
						Action: actions.BlacklistList,
					},
				},
			},
			{
				Name:  "history",
				Usage: "Show previously recommended tracks",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "artist", Aliases: []string{"a"}, Usage: "only show this artist"},
					&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "show at most this many entries"},
					&cli.StringFlag{Name: "csv", Usage: "write the history to this CSV file"},
				},
				Action: actions.History,
			},
		},
	}
}
