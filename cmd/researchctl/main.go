// Package main provides researchctl, the admin CLI for the research store.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"decentra_research_backend/cmd/api/config"
	"decentra_research_backend/internal/database"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

const (
	ExitSuccess     = 0
	ExitError       = 1
	ExitConfigError = 2
	ExitDataError   = 3
)

// humanOutput switches from JSON to plain text output.
var humanOutput bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "researchctl",
	Short: "Administer the research store",
	Long: `researchctl migrates, seeds and inspects the research store the API
serves, using the same environment configuration as the API server.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
}

func exitWithError(code int, format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(code)
}

func mustLoadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	return cfg
}

func mustOpenDatabase(cfg *config.Config) *gorm.DB {
	db, err := database.InitDB(database.Config{
		Driver:     cfg.Database.Driver,
		Host:       cfg.Database.Host,
		Port:       cfg.Database.Port,
		User:       cfg.Database.User,
		Password:   cfg.Database.Password,
		Name:       cfg.Database.Name,
		SQLitePath: cfg.Database.SQLitePath,
	})
	if err != nil {
		exitWithError(ExitConfigError, "opening database: %v", err)
	}
	return db
}

func outputJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
