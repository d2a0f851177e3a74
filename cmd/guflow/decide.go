package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/gurmitteotia/guflow-sub003"
	"github.com/gurmitteotia/guflow-sub003/decision"
	"github.com/gurmitteotia/guflow-sub003/example"
	"github.com/gurmitteotia/guflow-sub003/host"
)

func newDecideCommand() *cli.Command {
	flags := append(historyFlags(),
		&cli.StringFlag{
			Name:    "config",
			Usage:   "Path to a YAML host configuration with registration defaults",
			Sources: cli.EnvVars("GUFLOW_CONFIG"),
		},
		&cli.StringFlag{
			Name:  "workflow-id",
			Usage: "Workflow id of the execution",
			Value: "guflow",
		},
		&cli.StringFlag{
			Name:  "run-id",
			Usage: "Run id of the execution",
			Value: "guflow",
		},
		&cli.StringFlag{
			Name:  "workflow-version",
			Usage: "Workflow version if the history does not define it",
			Value: "1",
		},
	)

	return &cli.Command{
		Name:    "decide",
		Aliases: []string{"d"},
		Usage:   "Decide the started decision task of an example workflow history and print the wire decisions",
		Flags:   flags,
		Action: func(ctx context.Context, command *cli.Command) error {
			task, err := loadTask(command.String("history"), int64(command.Int("cutoff")))
			if err != nil {
				return err
			}
			task.WorkflowID = command.String("workflow-id")
			task.RunID = command.String("run-id")
			if task.WorkflowVersion == "" {
				task.WorkflowVersion = command.String("workflow-version")
			}

			var reg *guflow.Registry
			if path := command.String("config"); path != "" {
				c, err := host.LoadConfig(path)
				if err != nil {
					return err
				}
				reg = c.Registry()
			}

			h := host.New(nil, nil)
			example.Register(h, reg)

			ds, err := h.Decide(task)
			if err != nil {
				return err
			}

			b, err := decision.Marshal(ds)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(command.Root().Writer, string(b))
			return err
		},
	}
}
