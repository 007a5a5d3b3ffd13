// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/evidence-engine/internal/corpus"
	"github.com/pdiddy/evidence-engine/internal/llm"
	"github.com/pdiddy/evidence-engine/internal/pipeline"
	"github.com/pdiddy/evidence-engine/internal/sources"
	"github.com/pdiddy/evidence-engine/pkg/types"
)

var retrieveCmd = &cobra.Command{
	Use:   "retrieve",
	Short: "Run the evidence retrieval pipeline for a project",
	Long: `Retrieve drafts search queries for a clinical evidence project, fans
them out to the configured bibliographic sources, merges and deduplicates
the results, ranks them by relevance to the project, extracts narrative
fields for the top papers, and categorizes them into evidence tiers.

The project is described either by a YAML file (--project) or by the
--title/--problem/--population/--outcome flags. The run is stored in the
corpus database for later reporting.`,
	RunE: runRetrieve,
}

func init() {
	retrieveCmd.Flags().String("project", "", "project description YAML file")
	retrieveCmd.Flags().String("title", "", "project title")
	retrieveCmd.Flags().String("problem", "", "clinical problem statement")
	retrieveCmd.Flags().String("population", "", "target population")
	retrieveCmd.Flags().StringSlice("outcome", nil, "intended outcome (repeatable)")
	retrieveCmd.Flags().Int("top-n", 0, "papers promoted to narrative extraction (0 = config default)")
	retrieveCmd.Flags().Int("max-results", 0, "per-source result limit (0 = config default)")
	retrieveCmd.Flags().Bool("no-store", false, "skip persisting the run to the corpus database")
	retrieveCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(retrieveCmd)
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	project, err := projectFromFlags(cmd)
	if err != nil {
		return err
	}

	cfg := pipelineConfig()
	if n, _ := cmd.Flags().GetInt("top-n"); n > 0 {
		cfg.Ranking.TopN = n
	}
	if n, _ := cmd.Flags().GetInt("max-results"); n > 0 {
		cfg.Sources.MaxResults = n
	}

	srcs := sources.Enabled(cfg.Sources)

	var collab pipeline.Collaborator
	backend, err := llm.NewBackend(cfg.AI)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: no generative backend: %v\n", err)
	} else {
		collab = llm.NewCollaborator(backend)
	}

	p, err := pipeline.New(cfg, srcs, collab, os.Stderr)
	if err != nil {
		return err
	}

	res, err := p.Run(context.Background(), project)
	if err != nil {
		return err
	}

	if noStore, _ := cmd.Flags().GetBool("no-store"); !noStore {
		store, err := corpus.NewStore(cfg.Corpus)
		if err != nil {
			return err
		}
		defer store.Close()

		id, err := store.SaveRun(context.Background(), project, res)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "stored run %d\n", id)
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatRunOutput(res, jsonOutput)
}

// projectFromFlags builds the project context from --project or the
// individual field flags. Flags override file fields.
func projectFromFlags(cmd *cobra.Command) (types.ProjectContext, error) {
	var project types.ProjectContext

	if path, _ := cmd.Flags().GetString("project"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return project, fmt.Errorf("reading project file: %w", err)
		}
		if err := yaml.Unmarshal(data, &project); err != nil {
			return project, fmt.Errorf("parsing project file %s: %w", path, err)
		}
	}

	if v, _ := cmd.Flags().GetString("title"); v != "" {
		project.Title = v
	}
	if v, _ := cmd.Flags().GetString("problem"); v != "" {
		project.ClinicalProblem = v
	}
	if v, _ := cmd.Flags().GetString("population"); v != "" {
		project.TargetPopulation = v
	}
	if v, _ := cmd.Flags().GetStringSlice("outcome"); len(v) > 0 {
		project.IntendedOutcomes = v
	}

	if project.Title == "" && project.ClinicalProblem == "" {
		return project, fmt.Errorf("project description required: provide --project or --title/--problem")
	}
	return project, nil
}

func formatRunOutput(res *pipeline.Result, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	fmt.Fprintf(os.Stdout, "corpus: %d unique papers (%d duplicates removed, %d source failures)\n\n",
		res.CorpusSize, res.DupsRemoved, len(res.Diagnostics))

	printTier(os.Stdout, "Primary literature", res.PrimaryLiterature)
	printTier(os.Stdout, "Secondary literature", res.SecondaryLiterature)
	return nil
}

func printTier(w *os.File, heading string, articles []types.ProcessedArticle) {
	fmt.Fprintf(w, "%s (%d)\n", heading, len(articles))
	if len(articles) == 0 {
		fmt.Fprintln(w)
		return
	}

	fmt.Fprintf(w, "%-4s  %-6s  %-50s  %-6s  %-16s  %s\n",
		"Rank", "Score", "Title", "Year", "Source", "Full text")
	fmt.Fprintln(w, strings.Repeat("-", 100))

	for i, a := range articles {
		title := a.Title
		if len(title) > 50 {
			title = title[:47] + "..."
		}
		year := "-"
		if a.Year != nil {
			year = fmt.Sprintf("%d", *a.Year)
		}
		fullText := "no"
		if a.FullTextAvailable {
			fullText = "yes"
		}
		fmt.Fprintf(w, "%-4d  %-6.3f  %-50s  %-6s  %-16s  %s\n",
			i+1, a.RelevanceScore, title, year, a.Source, fullText)
	}
	fmt.Fprintln(w)
}
