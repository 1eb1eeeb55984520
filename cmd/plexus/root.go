package main

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var logger = newLogger(log.InfoLevel)

// newLogger creates the CLI logger with timestamp formatting.
func newLogger(level log.Level) *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

func rootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:           "plexus",
		Short:         "Interactive attribution graph viewer",
		Long:          "Plexus loads attribution graphs from JSON files or a reconstruction\nservice and renders them with a force-directed layout.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logger.SetLevel(log.DebugLevel)
			}
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(
		viewCmd(),
		snapshotCmd(),
		fetchCmd(),
	)
	return cmd
}
