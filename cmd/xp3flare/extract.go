package main

import (
	"context"
	"fmt"

	"github.com/sahib/flare/driver"
	"github.com/sahib/flare/gateway"
	"github.com/urfave/cli/v2"
)

func extractCommand() *cli.Command {
	return &cli.Command{
		Name:      "extract",
		Usage:     "extract one or more XP3 archives (or directories of them), recursively",
		ArgsUsage: "PATH... OUTPUT_DIR",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "path to a driver config YAML file",
			},
			&cli.StringFlag{
				Name:  "status-addr",
				Usage: "if set, serve a live status/cancel dashboard on this address (e.g. :7403)",
			},
		},
		Action: func(c *cli.Context) error {
			args := c.Args().Slice()
			if len(args) < 2 {
				return fmt.Errorf("usage: xp3flare extract PATH... OUTPUT_DIR")
			}

			inputs := args[:len(args)-1]
			outputDir := args[len(args)-1]

			cfg, err := driver.LoadConfig(c.String("config"))
			if err != nil {
				return err
			}

			jobs, err := driver.EnumerateJobs(inputs, outputDir)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(c.Context)
			defer cancel()

			diag := driver.LogrusSink{}

			if addr := c.String("status-addr"); addr != "" {
				srv := gateway.New(addr, cancel)
				srv.Start()
				defer srv.Close()
			}

			manifest, err := driver.Run(ctx, jobs, cfg, diag)
			if err != nil {
				return err
			}

			fmt.Print(manifest.String())
			return nil
		},
	}
}
