package main

import (
	"encoding/hex"
	"fmt"

	"github.com/urfave/cli/v2"

	"ergopf.dev/framework/address"
)

var treeFlag = &cli.StringFlag{
	Name:     "tree",
	Usage:    "hex-encoded ergo tree",
	Required: true,
}

var commandAddress = &cli.Command{
	Name:  "address",
	Usage: "encode and decode addresses",
	Subcommands: []*cli.Command{
		{
			Name:  "encode",
			Usage: "derive the P2S address of an ergo tree",
			Flags: []cli.Flag{treeFlag},
			Action: func(ctx *cli.Context) error {
				tree, err := hex.DecodeString(ctx.String(treeFlag.Name))
				if err != nil {
					return fmt.Errorf("tree hex: %w", err)
				}
				addr, err := address.NewEncoder(network(ctx)).EncodeTree(tree)
				if err != nil {
					return err
				}
				fmt.Fprintln(ctx.App.Writer, addr)
				return nil
			},
		},
		{
			Name:      "decode",
			Usage:     "decode an address into network, type and body",
			ArgsUsage: "<address>",
			Action: func(ctx *cli.Context) error {
				if ctx.NArg() != 1 {
					return fmt.Errorf("expected exactly one address argument")
				}
				dec, err := address.NewEncoder(network(ctx)).Decode(ctx.Args().First())
				if err != nil {
					return err
				}
				kind := "p2s"
				if dec.Type == address.P2PK {
					kind = "p2pk"
				}
				fmt.Fprintf(ctx.App.Writer, "network: %s\ntype: %s\nbody: %s\n",
					dec.Network, kind, hex.EncodeToString(dec.Body))
				return nil
			},
		},
	},
}
