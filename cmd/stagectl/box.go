package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"ergopf.dev/framework/chain"
)

var boxFileFlag = &cli.StringFlag{
	Name:     "file",
	Usage:    "path to a single box JSON file",
	Required: true,
}

var commandBox = &cli.Command{
	Name:  "box",
	Usage: "inspect a single box",
	Subcommands: []*cli.Command{
		{
			Name:  "id",
			Usage: "print the id derived from the box's canonical bytes",
			Flags: []cli.Flag{boxFileFlag},
			Action: func(ctx *cli.Context) error {
				data, err := os.ReadFile(ctx.String(boxFileFlag.Name))
				if err != nil {
					return err
				}
				b, err := chain.ParseBoxJSON(data)
				if err != nil {
					return err
				}
				fmt.Fprintln(ctx.App.Writer, b.ID())
				return nil
			},
		},
	},
}
