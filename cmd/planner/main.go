// Package main implements the planner CLI. With no subcommand it opens the
// interactive planner.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var exitErr interface{ ExitCode() int }
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.ExitCode())
		}
		os.Exit(exitUser)
	}
}

var configPath string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "planner",
		Short:         "Plan tasks with due times, categories and reminders",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runTUI,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $PLANNER_CONFIG or the user config dir)")

	root.AddCommand(
		newAddCmd(),
		newEditCmd(),
		newStatusCmd("done", "Mark tasks as done", (*app).complete),
		newStatusCmd("reopen", "Reopen done tasks", (*app).reopen),
		newRemoveCmd(),
		newListCmd(),
		newTodayCmd(),
		newSweepCmd(),
		newWatchCmd(),
	)
	return root
}

func printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
