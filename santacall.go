package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/santacall/cmd"
)

const (
	version = "1.0.0"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "santacall",
		Usage:   "Personalised video calls with Santa",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Load configuration from `FILE` (default: search santacall.toml)",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Load environment variables from `FILE`",
				Value: ".env",
			},
		},
		Before: func(c *cli.Context) error {
			return cmd.LoadEnvFile(c.String("env-file"), c.IsSet("env-file"))
		},
		Commands: []*cli.Command{
			cmd.APICommand(version),
			cmd.ConfigCommand(),
			cmd.ArcsCommand(),
		},
	}
}
