package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"decentra_research_backend/internal/auth"
	"decentra_research_backend/internal/models"
	"decentra_research_backend/internal/services"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var seedFile string

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "YAML file of research records (default: built-in sample papers)")
	rootCmd.AddCommand(seedCmd)
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert sample research records",
	Long: `Insert research records into the store. Without --file the two sample
papers of the demo marketplace are inserted.

Examples:
  researchctl seed
  researchctl seed --file papers.yaml`,
	RunE: runSeed,
}

type seedPaper struct {
	Title    string   `yaml:"title"`
	Abstract string   `yaml:"abstract"`
	Authors  []string `yaml:"authors"`
	Keywords []string `yaml:"keywords"`
	PDFURL   string   `yaml:"pdfUrl"`
	IPFSHash string   `yaml:"ipfsHash"`
	Owner    string   `yaml:"owner"`
}

type seedFileContent struct {
	Research []seedPaper `yaml:"research"`
}

// SeedResult is one inserted record and, in token mode, its owner token.
type SeedResult struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Owner      string `json:"owner"`
	OwnerToken string `json:"ownerToken,omitempty"`
}

var builtinPapers = []seedPaper{
	{
		Title:    "Blockchain-Based Academic Integrity Verification",
		Abstract: "This paper explores the use of blockchain technology for verifying academic integrity...",
		Authors:  []string{"John Doe", "Jane Smith"},
		Keywords: []string{"blockchain", "academic integrity", "verification"},
		Owner:    "0x1234567890123456789012345678901234567890",
	},
	{
		Title:    "AI-Powered Plagiarism Detection in Research Papers",
		Abstract: "We present a novel approach to plagiarism detection using advanced AI techniques...",
		Authors:  []string{"Alice Johnson", "Bob Williams"},
		Keywords: []string{"AI", "plagiarism", "research"},
		Owner:    "0x2345678901234567890123456789012345678901",
	},
}

func parseSeedFile(data []byte) ([]seedPaper, error) {
	var content seedFileContent
	if err := yaml.Unmarshal(data, &content); err != nil {
		return nil, fmt.Errorf("parsing seed file: %w", err)
	}
	if len(content.Research) == 0 {
		return nil, fmt.Errorf("seed file has no research entries")
	}
	return content.Research, nil
}

// seedResearch inserts every paper through the research service so the usual
// validation applies. It stops at the first invalid paper.
func seedResearch(ctx context.Context, svc *services.ResearchService, papers []seedPaper) ([]SeedResult, error) {
	results := make([]SeedResult, 0, len(papers))
	for i, p := range papers {
		created, err := svc.Create(ctx, models.Research{
			Title:    p.Title,
			Abstract: p.Abstract,
			Authors:  p.Authors,
			Keywords: p.Keywords,
			PDFURL:   p.PDFURL,
			IPFSHash: p.IPFSHash,
			Owner:    p.Owner,
		})
		if err != nil {
			return results, fmt.Errorf("paper %d (%q): %w", i+1, p.Title, err)
		}
		results = append(results, SeedResult{
			ID:         created.Research.ID,
			Title:      created.Research.Title,
			Owner:      created.Research.Owner,
			OwnerToken: created.OwnerToken,
		})
	}
	return results, nil
}

func runSeed(cmd *cobra.Command, args []string) error {
	papers := builtinPapers
	if seedFile != "" {
		data, err := os.ReadFile(seedFile)
		if err != nil {
			exitWithError(ExitError, "reading seed file: %v", err)
		}
		if papers, err = parseSeedFile(data); err != nil {
			exitWithError(ExitDataError, "%v", err)
		}
	}

	cfg := mustLoadConfig()
	db := mustOpenDatabase(cfg)

	var tokens *auth.TokenIssuer
	if cfg.Ownership.Mode == auth.ModeToken {
		var err error
		if tokens, err = auth.NewTokenIssuer(cfg.Ownership.Secret, cfg.Ownership.TokenTTL); err != nil {
			exitWithError(ExitConfigError, "%v", err)
		}
	}
	guard, err := auth.NewGuard(cfg.Ownership.Mode, tokens)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	svc := services.NewResearchService(services.NewResearchStoreDB(db), guard, tokens, nil, nil)
	results, err := seedResearch(cmd.Context(), svc, papers)
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}
	return writeSeedResults(cmd.OutOrStdout(), results)
}

func writeSeedResults(w io.Writer, results []SeedResult) error {
	if !humanOutput {
		return outputJSON(w, results)
	}
	fmt.Fprintf(w, "Seeded %d research records:\n\n", len(results))
	for _, r := range results {
		fmt.Fprintf(w, "  %s  %s (%s)\n", r.ID, r.Title, r.Owner)
	}
	return nil
}
