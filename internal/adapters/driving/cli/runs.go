package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/taxonomist/internal/adapters/driven/export"
)

var (
	runsJSON      bool
	runsShowDocs  bool
	runsCategory  string
	exportDir     string
	exportFormats []string
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Browse stored runs",
	Long:  `List, inspect and delete completed pipeline runs.`,
	RunE:  runRunsList,
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored runs, newest first",
	RunE:  runRunsList,
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show a run's taxonomy and statistics",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

var runsDeleteCmd = &cobra.Command{
	Use:   "delete <run-id>",
	Short: "Delete a stored run",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsDelete,
}

var exportCmd = &cobra.Command{
	Use:   "export <run-id>",
	Short: "Export a stored run to files",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

func init() {
	runsListCmd.Flags().BoolVar(&runsJSON, "json", false, "output as JSON")
	runsShowCmd.Flags().BoolVar(&runsJSON, "json", false, "output as JSON")
	runsShowCmd.Flags().BoolVarP(&runsShowDocs, "documents", "d", false, "list labeled documents")
	runsShowCmd.Flags().StringVar(&runsCategory, "category", "", "only list documents in this category")
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsDeleteCmd)
	rootCmd.AddCommand(runsCmd)

	exportCmd.Flags().StringVarP(&exportDir, "output-dir", "o", ".", "directory for exported files")
	exportCmd.Flags().StringSliceVarP(&exportFormats, "format", "f", export.Formats(), "export formats")
	rootCmd.AddCommand(exportCmd)
}

func runRunsList(cmd *cobra.Command, _ []string) error {
	if runService == nil {
		return errRunServiceMissing
	}

	runs, err := runService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if runsJSON {
		return printJSON(cmd, runs)
	}
	if len(runs) == 0 {
		cmd.Println("No runs yet. Start one with 'taxonomist run <source>'.")
		return nil
	}

	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			r.ID,
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			string(r.Path),
			strconv.Itoa(r.NumDocuments),
			strconv.Itoa(r.NumCategories),
			r.Duration.Round(time.Second).String(),
			truncate(r.UseCase, 40),
		})
	}
	cmd.Println(renderTable(
		[]string{"ID", "Started", "Path", "Docs", "Categories", "Duration", "Use case"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
	))
	return nil
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	if runService == nil {
		return errRunServiceMissing
	}

	run, err := runService.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get run: %w", err)
	}

	if runsJSON {
		return printJSON(cmd, run)
	}

	printRunSummary(cmd, run)
	meta := run.Metadata
	cmd.Printf("Use case: %s\n", meta.UseCase)
	cmd.Printf("Models:   %s, %s\n", meta.Model, meta.FastModel)
	cmd.Printf("Snapshots: %d\n", len(run.Snapshots))

	if !runsShowDocs && runsCategory == "" {
		return nil
	}
	docs := run.Documents
	if runsCategory != "" {
		docs = run.DocumentsIn(runsCategory)
	}
	cmd.Println()
	rows := make([][]string, 0, len(docs))
	for _, d := range docs {
		rows = append(rows, []string{d.ID, d.Category, string(d.LabeledBy), truncate(oneLine(d.Content), 60)})
	}
	cmd.Println(renderTable([]string{"ID", "Category", "By", "Content"}, rows, nil))
	return nil
}

func runRunsDelete(cmd *cobra.Command, args []string) error {
	if runService == nil {
		return errRunServiceMissing
	}

	if err := runService.Delete(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	cmd.Printf("Deleted run %s\n", args[0])
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	if runService == nil {
		return errRunServiceMissing
	}

	run, err := runService.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get run: %w", err)
	}
	paths, err := export.WriteAll(exportDir, run, exportFormats)
	if err != nil {
		return fmt.Errorf("failed to export run: %w", err)
	}
	for _, p := range paths {
		cmd.Printf("Wrote %s\n", p)
	}
	return nil
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
