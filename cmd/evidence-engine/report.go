// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/evidence-engine/internal/corpus"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Inspect and export stored pipeline runs",
	Long: `Report lists stored runs, shows the tiered literature of one run, and
exports a run to YAML or JSON. With no run ID the most recent run is used.`,
}

// --- list subcommand ---

var reportListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored runs, newest first",
	RunE:  runReportList,
}

func runReportList(cmd *cobra.Command, args []string) error {
	store, err := corpus.NewStore(pipelineConfig().Corpus)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.ListRuns(context.Background())
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	if len(runs) == 0 {
		fmt.Println("No stored runs.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-4s  %-20s  %-40s  %-7s  %s\n",
		"ID", "Created", "Project", "Corpus", "Failures")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 90))
	for _, r := range runs {
		title := r.ProjectTitle
		if len(title) > 40 {
			title = title[:37] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-4d  %-20s  %-40s  %-7d  %d\n",
			r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), title, r.CorpusSize, len(r.Diagnostics))
	}
	return nil
}

// --- show subcommand ---

var reportShowCmd = &cobra.Command{
	Use:   "show [run-id]",
	Short: "Show the tiered literature of a stored run",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runReportShow,
}

func runReportShow(cmd *cobra.Command, args []string) error {
	id, err := runIDArg(args)
	if err != nil {
		return err
	}

	store, err := corpus.NewStore(pipelineConfig().Corpus)
	if err != nil {
		return err
	}
	defer store.Close()

	run, err := store.LoadRun(context.Background(), id)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	}

	fmt.Fprintf(os.Stdout, "Run %d  %s\n", run.ID, run.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(os.Stdout, "Project: %s\n", run.ProjectTitle)
	fmt.Fprintf(os.Stdout, "Queries: %s\n", strings.Join(run.Queries, "; "))
	fmt.Fprintf(os.Stdout, "Corpus: %d unique papers, %d duplicates removed\n",
		run.CorpusSize, run.DupsRemoved)
	for _, d := range run.Diagnostics {
		fmt.Fprintf(os.Stdout, "Source failure: %s\n", d)
	}
	fmt.Fprintln(os.Stdout)

	printTier(os.Stdout, "Primary literature", run.PrimaryLiterature)
	printTier(os.Stdout, "Secondary literature", run.SecondaryLiterature)
	return nil
}

// --- export subcommand ---

var reportExportCmd = &cobra.Command{
	Use:   "export [run-id]",
	Short: "Export a stored run to YAML or JSON",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runReportExport,
}

func runReportExport(cmd *cobra.Command, args []string) error {
	id, err := runIDArg(args)
	if err != nil {
		return err
	}

	store, err := corpus.NewStore(pipelineConfig().Corpus)
	if err != nil {
		return err
	}
	defer store.Close()

	format, _ := cmd.Flags().GetString("format")
	var path string
	switch format {
	case "yaml", "":
		path, err = store.ExportYAML(context.Background(), id)
	case "json":
		path, err = store.ExportJSON(context.Background(), id)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	if err != nil {
		return err
	}

	fmt.Println("Exported to", path)
	return nil
}

func runIDArg(args []string) (int64, error) {
	if len(args) == 0 {
		return 0, nil
	}
	var id int64
	if _, err := fmt.Sscanf(args[0], "%d", &id); err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid run ID %q", args[0])
	}
	return id, nil
}

func init() {
	reportListCmd.Flags().Bool("json", false, "output listing as JSON")
	reportShowCmd.Flags().Bool("json", false, "output run as JSON")
	reportExportCmd.Flags().String("format", "yaml", "export format: yaml or json")

	reportCmd.AddCommand(reportListCmd)
	reportCmd.AddCommand(reportShowCmd)
	reportCmd.AddCommand(reportExportCmd)

	rootCmd.AddCommand(reportCmd)
}
