package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/openlms/ask4summary/internal/app"
	"github.com/openlms/ask4summary/internal/config"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run one content-scanning pass over all enabled courses",
	Long: `Scan walks every course with content scanning enabled, ingests new
pages, documents and crawled web pages, and indexes their sentences.
Content already indexed is skipped, so the pass is safe to repeat.`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := newLogger()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.Docs.Run(ctx)
}
