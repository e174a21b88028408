package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/openlms/ask4summary/internal/config"
	"github.com/openlms/ask4summary/internal/crawler"
)

var crawlDepth int

var crawlCmd = &cobra.Command{
	Use:   "crawl <url>",
	Short: "Crawl a URL and print the harvested sentences (debugging aid)",
	Long: `Crawl fetches the given URL and the pages it links to, up to the
given depth, and prints the sentences the scanner would index. Nothing is
written to the database.`,
	Args: cobra.ExactArgs(1),
	RunE: runCrawl,
}

func init() {
	crawlCmd.Flags().IntVar(&crawlDepth, "depth", 1, "page depth budget: 1 fetches the seed only")
	rootCmd.AddCommand(crawlCmd)
}

func runCrawl(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := newLogger()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	pages, err := crawler.New(cfg.Crawler, logger).Crawl(ctx, args[0], crawlDepth)
	if err != nil {
		return err
	}

	for _, page := range pages {
		fmt.Printf("%s (depth %d)\n", page.URL, page.Depth)
		if page.Title != "" {
			fmt.Printf("  title: %s\n", page.Title)
		}
		for _, s := range page.Sentences {
			fmt.Printf("  %s\n", s)
		}
		fmt.Println()
	}

	fmt.Printf("%d pages\n", len(pages))
	return nil
}
