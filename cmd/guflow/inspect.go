package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/luno/jettison/errors"
	"github.com/luno/jettison/j"
	"github.com/urfave/cli/v3"

	"github.com/gurmitteotia/guflow-sub003/history"
)

func newInspectCommand() *cli.Command {
	return &cli.Command{
		Name:    "inspect",
		Aliases: []string{"i"},
		Usage:   "Print the per item projection of a history",
		Flags:   historyFlags(),
		Action: func(ctx context.Context, command *cli.Command) error {
			task, err := loadTask(command.String("history"), int64(command.Int("cutoff")))
			if err != nil {
				return err
			}

			return inspect(command.Root().Writer, task)
		},
	}
}

// loadTask returns the decision task of the most recently started decision
// task of the history file.
func loadTask(path string, cutoff int64) (history.Task, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return history.Task{}, errors.Wrap(err, "read history", j.KS("path", path))
	}

	var events []history.Event
	if err := json.Unmarshal(b, &events); err != nil {
		return history.Task{}, errors.Wrap(err, "decode history", j.KS("path", path))
	}

	task := history.Task{Events: events}
	for _, e := range events {
		switch e.Type {
		case history.WorkflowExecutionStarted:
			task.WorkflowName = e.Attributes.Name
			task.WorkflowVersion = e.Attributes.Version
		case history.DecisionTaskStarted:
			task.StartedEventID = e.ID
		}
	}

	task.PreviousStartedEventID = cutoff
	if cutoff < 0 {
		upTo := task.StartedEventID
		if upTo == 0 && len(events) > 0 {
			upTo = events[len(events)-1].ID + 1
		}
		task.PreviousStartedEventID = history.PreviousStartedEventID(events, upTo)
	}

	return task, nil
}

func inspect(w io.Writer, task history.Task) error {
	p, err := history.Project(task.Events, task.PreviousStartedEventID)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "workflow=%s events=%d cutoff=%d started=%d\n",
		task.WorkflowName, len(task.Events), p.Cutoff(), task.StartedEventID)

	for _, k := range p.Keys() {
		v := p.View(k)
		last := "none"
		if e, ok := v.Last(true); ok {
			last = e.Type().String()
		}
		fmt.Fprintf(w, "%s:%s last=%s active=%t\n", k.Kind, k.ID, last, v.IsActive())
	}

	for _, e := range p.NewEntries() {
		fmt.Fprintf(w, "new %d %s %s:%s %s\n", e.ID(), e.Type(), e.Key.Kind, e.Key.ID, e.Role)
	}

	return nil
}
