package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/poiesic/personalmind/core"
	"github.com/poiesic/personalmind/tasks"
	"github.com/urfave/cli/v2"
)

func tasksCommand() *cli.Command {
	return &cli.Command{
		Name:  "tasks",
		Usage: "List and update extracted tasks",
		Subcommands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List all tasks",
				Action: tasksListAction,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "pending",
						Usage: "Only show pending tasks",
					},
				},
			},
			{
				Name:      "complete",
				Usage:     "Mark a task completed",
				ArgsUsage: "<id>",
				Action:    setStatusAction(core.TaskStatusCompleted),
			},
			{
				Name:      "reopen",
				Usage:     "Mark a task pending again",
				ArgsUsage: "<id>",
				Action:    setStatusAction(core.TaskStatusPending),
			},
			{
				Name:   "upcoming",
				Usage:  "List pending tasks due soon",
				Action: tasksUpcomingAction,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "hours",
						Usage: "Look-ahead window in hours (overrides config)",
					},
				},
			},
		},
	}
}

func remindCommand() *cli.Command {
	return &cli.Command{
		Name:   "remind",
		Usage:  "Periodically print tasks that are coming due",
		Action: remindAction,
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "interval",
				Usage: "Time between checks (overrides config)",
			},
			&cli.DurationFlag{
				Name:  "window",
				Usage: "How far ahead to look for due tasks (overrides config)",
			},
		},
	}
}

func tasksListAction(c *cli.Context) error {
	db, _, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	service, err := db.NewTaskService()
	if err != nil {
		return err
	}
	all, err := service.List(c.Context)
	if err != nil {
		return err
	}
	if c.Bool("pending") {
		pending := all[:0]
		for _, t := range all {
			if t.Status == core.TaskStatusPending {
				pending = append(pending, t)
			}
		}
		all = pending
	}
	printTasks(c.App.Writer, all)
	return nil
}

func setStatusAction(status core.TaskStatus) cli.ActionFunc {
	return func(c *cli.Context) error {
		if c.NArg() != 1 {
			return fmt.Errorf("expected exactly one task id")
		}
		id, err := strconv.ParseUint(c.Args().First(), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid task id %q: %w", c.Args().First(), err)
		}

		db, _, err := openDatabase(c)
		if err != nil {
			return err
		}
		defer db.Close()

		service, err := db.NewTaskService()
		if err != nil {
			return err
		}
		task, err := service.UpdateStatus(c.Context, core.ID(id), status)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "Task %d is now %s\n", task.Id, task.Status)
		return nil
	}
}

func tasksUpcomingAction(c *cli.Context) error {
	db, cfg, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	window := cfg.Reminders.Window
	if c.IsSet("hours") {
		window = time.Duration(c.Int("hours")) * time.Hour
	}
	service, err := db.NewTaskService()
	if err != nil {
		return err
	}
	upcoming, err := service.Upcoming(c.Context, window)
	if err != nil {
		return err
	}
	printTasks(c.App.Writer, upcoming)
	return nil
}

func remindAction(c *cli.Context) error {
	db, cfg, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	interval := cfg.Reminders.Interval
	if c.IsSet("interval") {
		interval = c.Duration("interval")
	}
	window := cfg.Reminders.Window
	if c.IsSet("window") {
		window = c.Duration("window")
	}

	w := c.App.Writer
	reminder, err := db.NewReminder(
		tasks.WithInterval(interval),
		tasks.WithWindow(window),
		tasks.WithNotifier(func(_ context.Context, task *core.Task) {
			fmt.Fprintf(w, "Reminder: %q is due %s\n", task.Title, formatDue(task.DueDate))
		}),
	)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Checking every %v for tasks due within %v (Ctrl-C to stop)\n", interval, window)
	if err := reminder.Run(c.Context); err != nil && c.Context.Err() == nil {
		return err
	}
	return nil
}

func printTasks(w io.Writer, list []*core.Task) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No tasks.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tDUE\tDOCUMENT\tTITLE")
	for _, t := range list {
		doc := "-"
		if t.DocumentId != 0 {
			doc = strconv.FormatUint(uint64(t.DocumentId), 10)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", t.Id, t.Status, formatDue(t.DueDate), doc, t.Title)
	}
	tw.Flush()
}

// formatDue renders an optional due date.
func formatDue(due *time.Time) string {
	if due == nil {
		return "-"
	}
	return due.Local().Format("2006-01-02")
}
