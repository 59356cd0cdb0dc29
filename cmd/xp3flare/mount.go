package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/sahib/flare/mount"
	"github.com/urfave/cli/v2"
)

func mountCommand() *cli.Command {
	return &cli.Command{
		Name:      "mount",
		Usage:     "mount a single XP3 archive read-only via FUSE",
		ArgsUsage: "ARCHIVE MOUNTPOINT",
		Action: func(c *cli.Context) error {
			if c.Args().Len() != 2 {
				return cli.Exit("usage: xp3flare mount ARCHIVE MOUNTPOINT", 1)
			}

			f, err := os.Open(c.Args().Get(0))
			if err != nil {
				return err
			}
			defer f.Close()

			m, err := mount.New(f, c.Args().Get(1))
			if err != nil {
				return err
			}
			defer m.Close()

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
			<-sig

			return m.Close()
		},
	}
}
