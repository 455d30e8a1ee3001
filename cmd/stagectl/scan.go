package main

import (
	"fmt"
	"sort"

	"github.com/urfave/cli/v2"

	"ergopf.dev/framework/scan"
	"ergopf.dev/framework/store"
)

var (
	datadirFlag = &cli.StringFlag{
		Name:     "datadir",
		Usage:    "directory for the box store",
		Required: true,
	}
	heightFlag = &cli.Uint64Flag{
		Name:  "height",
		Usage: "ledger height the snapshot was taken at",
	}
)

var commandScan = &cli.Command{
	Name:  "scan",
	Usage: "ingest a box snapshot and record spec matches",
	Flags: []cli.Flag{specsFlag, boxesFlag, datadirFlag, heightFlag},
	Action: func(ctx *cli.Context) error {
		specs, err := loadSpecs(ctx.String(specsFlag.Name), network(ctx))
		if err != nil {
			return err
		}
		boxes, err := loadBoxes(ctx.String(boxesFlag.Name))
		if err != nil {
			return err
		}

		db, err := store.Open(ctx.String(datadirFlag.Name))
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		sc, err := scan.New(db, network(ctx), log)
		if err != nil {
			return err
		}
		for _, ns := range specs {
			if err := sc.Register(ns.name, ns.spec); err != nil {
				return err
			}
		}

		report, err := sc.Ingest(boxes)
		if err != nil {
			return err
		}
		if ctx.IsSet(heightFlag.Name) {
			if err := db.SetSnapshotHeight(ctx.Uint64(heightFlag.Name)); err != nil {
				return err
			}
		}

		w := ctx.App.Writer
		fmt.Fprintf(w, "seen %d, matched %d, rejected %d\n",
			report.Seen, report.Matched, report.Rejected)
		names := make([]string, 0, len(report.PerSpec))
		for name := range report.PerSpec {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "  %s: %d\n", name, report.PerSpec[name])
		}
		return nil
	},
}
