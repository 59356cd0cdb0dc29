package main

import (
	"fmt"
	"path/filepath"

	"github.com/urfave/cli/v2"
)

// newApp builds the xp3flare root command and its extract/browse/mount
// subcommands.
func newApp() *cli.App {
	return &cli.App{
		Name:  "xp3flare",
		Usage: "extract, browse, and mount XP3 archives",
		Description: fmt.Sprintf(
			"%s extracts files from Kirikiri XP3 archives, recursing into\nany extracted file that is itself an XP3 archive.",
			filepath.Base("xp3flare"),
		),
		Commands: []*cli.Command{
			extractCommand(),
			browseCommand(),
			mountCommand(),
		},
	}
}
