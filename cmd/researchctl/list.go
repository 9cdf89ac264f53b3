package main

import (
	"fmt"
	"io"

	"decentra_research_backend/internal/models"
	"decentra_research_backend/internal/services"

	"github.com/spf13/cobra"
)

const listTitleMaxLen = 50

func init() {
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List research records, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := mustLoadConfig()
		db := mustOpenDatabase(cfg)

		research, err := services.NewResearchStoreDB(db).List(cmd.Context())
		if err != nil {
			exitWithError(ExitError, "listing research: %v", err)
		}
		return writeResearchList(cmd.OutOrStdout(), research)
	},
}

func writeResearchList(w io.Writer, research []models.Research) error {
	if !humanOutput {
		return outputJSON(w, research)
	}
	if len(research) == 0 {
		fmt.Fprintln(w, "No research in store")
		return nil
	}
	fmt.Fprintf(w, "%d research records:\n\n", len(research))
	for _, r := range research {
		fmt.Fprintf(w, "  %-36s %4d  %s\n", r.ID, r.Citations, truncate(r.Title, listTitleMaxLen))
	}
	return nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}
