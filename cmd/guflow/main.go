// Command guflow inspects workflow histories and decides decision tasks of
// the example workflows offline.
package main

import (
	"context"
	"os"

	"github.com/luno/jettison/log"
	"github.com/urfave/cli/v3"
)

func main() {
	ctx := context.Background()
	if err := newCommand().Run(ctx, os.Args); err != nil {
		log.Error(ctx, err)
		os.Exit(1)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:                  "guflow",
		Usage:                 "Inspect workflow histories and decide decision tasks",
		EnableShellCompletion: true,
		Commands: []*cli.Command{
			newInspectCommand(),
			newDecideCommand(),
		},
	}
}

func historyFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "history",
			Aliases:  []string{"f"},
			Usage:    "Path to a JSON file with the ordered history events",
			Required: true,
			Sources:  cli.EnvVars("GUFLOW_HISTORY"),
		},
		&cli.IntFlag{
			Name:  "cutoff",
			Usage: "Id of the last processed event (derived from the history if negative)",
			Value: -1,
		},
	}
}
