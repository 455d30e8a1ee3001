// stagectl verifies and scans protocol boxes from the command line.
//
// Box snapshots come in as explorer-style JSON files, specs come in as
// TOML files, and scan results are persisted in a bbolt store under
// --datadir. Nothing here talks to a ledger.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"ergopf.dev/framework/address"
)

// Commonly used command line flags.
var (
	testnetFlag = &cli.BoolFlag{
		Name:  "testnet",
		Usage: "encode and decode addresses for the test network",
	}
	debugFlag = &cli.BoolFlag{
		Name:  "debug",
		Usage: "log per-box detail to stderr",
	}
	specsFlag = &cli.StringFlag{
		Name:     "specs",
		Usage:    "TOML file with [[spec]] entries",
		Required: true,
	}
	boxesFlag = &cli.StringFlag{
		Name:     "boxes",
		Usage:    "JSON file with a box array or an explorer items page",
		Required: true,
	}
)

var log = zerolog.Nop()

func newApp() *cli.App {
	return &cli.App{
		Name:  "stagectl",
		Usage: "verify and scan protocol stage boxes",
		Flags: []cli.Flag{testnetFlag, debugFlag},
		Before: func(ctx *cli.Context) error {
			level := zerolog.InfoLevel
			if ctx.Bool(debugFlag.Name) {
				level = zerolog.DebugLevel
			}
			log = zerolog.New(zerolog.ConsoleWriter{Out: ctx.App.ErrWriter}).
				With().Timestamp().Logger().Level(level)
			return nil
		},
		Commands: []*cli.Command{
			commandAddress,
			commandBox,
			commandVerify,
			commandScan,
		},
	}
}

func network(ctx *cli.Context) address.Network {
	if ctx.Bool(testnetFlag.Name) {
		return address.Testnet
	}
	return address.Mainnet
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
