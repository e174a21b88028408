package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openlms/ask4summary/db"
	"github.com/openlms/ask4summary/internal/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Long: `Migrate brings the database schema up to date. The scan and answer
commands run migrations on startup as well; this command exists for
provisioning a database ahead of the first pass.`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	if err := db.Migrate(cfg.PostgresURL()); err != nil {
		return err
	}

	fmt.Println("database schema is up to date")
	return nil
}
