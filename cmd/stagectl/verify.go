package main

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

var commandVerify = &cli.Command{
	Name:  "verify",
	Usage: "check every box in a snapshot against every spec",
	Flags: []cli.Flag{specsFlag, boxesFlag},
	Action: func(ctx *cli.Context) error {
		specs, err := loadSpecs(ctx.String(specsFlag.Name), network(ctx))
		if err != nil {
			return err
		}
		boxes, err := loadBoxes(ctx.String(boxesFlag.Name))
		if err != nil {
			return err
		}

		failed, total := 0, 0
		for _, b := range boxes {
			id := b.ID()
			for _, ns := range specs {
				total++
				if err := ns.spec.VerifyBox(b); err != nil {
					failed++
					fmt.Fprintf(ctx.App.Writer, "box %s spec %s: %s\n", id, ns.name, err)
				} else {
					fmt.Fprintf(ctx.App.Writer, "box %s spec %s: ok\n", id, ns.name)
				}
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d checks failed", failed, total)
		}
		return nil
	},
}
