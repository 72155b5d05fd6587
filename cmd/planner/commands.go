package main

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"planner/internal/planner"
	"planner/internal/task"
	"planner/internal/timeutil"
	"planner/internal/ui"
)

func runTUI(cmd *cobra.Command, _ []string) error {
	a, err := openApp(configPath, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.cfg.LogPath != "" {
		f, err := tea.LogToFile(a.cfg.LogPath, "planner")
		if err != nil {
			return exitError{code: exitStorage, err: err}
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := ui.Run(ctx, a.planner, a.cfg, a.notice); err != nil {
		return exitError{code: exitStorage, err: err}
	}
	return nil
}

// withApp opens the planner for a subcommand and maps errors to exit codes.
func withApp(fn func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := openApp(configPath, nil)
		if err != nil {
			return err
		}
		defer a.Close()
		if a.notice != "" {
			cmd.PrintErrln(a.notice)
		}
		return classify(fn(cmd, a, args))
	}
}

func newAddCmd() *cobra.Command {
	var (
		due      string
		remind   int
		category string
	)
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			in := planner.Input{
				Name:   strings.Join(args, " "),
				Due:    due,
				Remind: remind,
			}
			cat, err := categoryFlag(a, category, true)
			if err != nil {
				return err
			}
			in.Category = cat
			t, err := a.planner.Create(in)
			if err != nil {
				return err
			}
			printf(cmd, "Added %s %s\n", shortID(t.ID), t.Name)
			return nil
		}),
	}
	cmd.Flags().StringVar(&due, "due", "", "due time as \"YYYY-MM-DD HH:MM\"")
	cmd.Flags().IntVar(&remind, "remind", task.DefaultRemindOffset, "minutes before due to remind (0, 5, 10, 15, 30 or 60)")
	cmd.Flags().StringVar(&category, "category", "", "School, Home or Activities")
	return cmd
}

func newEditCmd() *cobra.Command {
	var (
		name     string
		due      string
		remind   int
		category string
	)
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a task; unset flags keep their value",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			t, err := a.planner.Resolve(args[0])
			if err != nil {
				return err
			}
			in := planner.Input{
				Name:     t.Name,
				Due:      timeutil.Format(t.Due),
				Remind:   t.Remind,
				Category: t.Category,
			}
			if in.Due == "" {
				in.Due = t.RawDue
			}
			flags := cmd.Flags()
			if flags.Changed("name") {
				in.Name = name
			}
			if flags.Changed("due") {
				in.Due = due
			}
			if flags.Changed("remind") {
				in.Remind = remind
			}
			if flags.Changed("category") {
				cat, err := categoryFlag(a, category, false)
				if err != nil {
					return err
				}
				in.Category = cat
			}
			updated, err := a.planner.Update(t.ID, in)
			if err != nil {
				return err
			}
			printf(cmd, "Updated %s %s\n", shortID(updated.ID), updated.Name)
			return nil
		}),
	}
	cmd.Flags().StringVar(&name, "name", "", "task name")
	cmd.Flags().StringVar(&due, "due", "", "due time as \"YYYY-MM-DD HH:MM\"")
	cmd.Flags().IntVar(&remind, "remind", task.DefaultRemindOffset, "minutes before due to remind")
	cmd.Flags().StringVar(&category, "category", "", "School, Home or Activities")
	return cmd
}

// categoryFlag parses a --category value. An empty value picks the default
// category when adding to a planner that requires one.
func categoryFlag(a *app, v string, adding bool) (task.Category, error) {
	if strings.TrimSpace(v) == "" {
		if adding && a.planner.CategoriesEnabled() {
			return task.DefaultCategory, nil
		}
		return "", nil
	}
	return task.ParseCategory(v)
}

func newStatusCmd(use, short string, fn func(*app, string) (task.Task, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			for _, ref := range args {
				t, err := a.planner.Resolve(ref)
				if err != nil {
					return err
				}
				t, err = fn(a, t.ID)
				if err != nil {
					return err
				}
				printf(cmd, "%s %s: %s\n", shortID(t.ID), t.Name, t.Status)
			}
			return nil
		}),
	}
}

func newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>...",
		Short:   "Delete tasks",
		Aliases: []string{"delete"},
		Args:    cobra.MinimumNArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			for _, ref := range args {
				t, err := a.planner.Resolve(ref)
				if err != nil {
					return err
				}
				if err := a.planner.Delete(t.ID); err != nil {
					return err
				}
				printf(cmd, "Deleted %s %s\n", shortID(t.ID), t.Name)
			}
			return nil
		}),
	}
}

func newListCmd() *cobra.Command {
	var (
		filter   string
		category string
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks in a view",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			tf, err := a.cfg.Filter()
			if err != nil {
				return err
			}
			if filter != "" {
				tf, err = planner.ParseTimeFilter(filter)
				if err != nil {
					return exitError{code: exitUser, err: err}
				}
			}
			cat, err := categoryFlag(a, category, false)
			if err != nil {
				return err
			}
			return writeTasks(cmd, a.planner.Query(tf, cat), asJSON)
		}),
	}
	cmd.Flags().StringVar(&filter, "filter", "", "today, week, all or done (default from config)")
	cmd.Flags().StringVar(&category, "category", "", "only show one category")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newTodayCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "today",
		Short: "Show the next tasks due today",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			top := a.planner.TopToday()
			if len(top) == 0 && !asJSON {
				printf(cmd, "No tasks due today yet!\n")
				return nil
			}
			return writeTasks(cmd, top, asJSON)
		}),
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Send due reminders once",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			res, err := a.planner.Sweep(cmd.Context())
			printFired(cmd, res)
			return err
		}),
	}
}

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Send reminders until interrupted",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			interval, err := a.cfg.Interval()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			err = planner.RunScheduler(ctx, a.planner, interval, func(res planner.SweepResult, err error) {
				if err != nil {
					log.Printf("Warning: reminder sweep: %v", err)
				}
				printFired(cmd, res)
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}),
	}
}

func printFired(cmd *cobra.Command, res planner.SweepResult) {
	for _, t := range res.Fired {
		printf(cmd, "%s: %s\n", planner.ReminderTitle, planner.ReminderMessage(t))
	}
}
