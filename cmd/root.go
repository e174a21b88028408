// Package cmd contains the a4s command line interface.
package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/openlms/ask4summary/internal/log"
)

var rootCmd = &cobra.Command{
	Use:   "a4s",
	Short: "Ask4Summary - course content indexing and question answering",
	Long: `Ask4Summary indexes course material into an n-gram similarity index and
answers forum questions addressed to the course helper with extractive
summaries of the most relevant material.

The pipeline runs as two batch passes, typically from cron:

  a4s scan      ingest new course content
  a4s answer    collect and answer new forum questions`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Subcommands register themselves in their own files.
}

// newLogger builds the process logger. DEBUG in the environment switches
// to debug level.
func newLogger() log.Logger {
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	return log.New(log.Config{Level: level})
}
