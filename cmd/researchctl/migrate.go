package main

import (
	"fmt"

	"decentra_research_backend/internal/database"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(migrateCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := mustLoadConfig()
		db := mustOpenDatabase(cfg)
		if err := database.Migrate(db); err != nil {
			exitWithError(ExitError, "%v", err)
		}
		if humanOutput {
			fmt.Fprintf(cmd.OutOrStdout(), "Schema up to date (%s)\n", cfg.Database.Driver)
			return nil
		}
		return outputJSON(cmd.OutOrStdout(), map[string]string{"status": "migrated", "driver": cfg.Database.Driver})
	},
}
