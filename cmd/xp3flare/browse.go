package main

import (
	"os"

	"github.com/sahib/flare/browse"
	"github.com/urfave/cli/v2"
)

func browseCommand() *cli.Command {
	return &cli.Command{
		Name:      "browse",
		Usage:     "open an interactive shell over a single XP3 archive",
		ArgsUsage: "ARCHIVE",
		Action: func(c *cli.Context) error {
			if c.Args().Len() != 1 {
				return cli.Exit("usage: xp3flare browse ARCHIVE", 1)
			}

			f, err := os.Open(c.Args().First())
			if err != nil {
				return err
			}
			defer f.Close()

			shell, err := browse.New(f)
			if err != nil {
				return err
			}

			return shell.Run()
		},
	}
}
