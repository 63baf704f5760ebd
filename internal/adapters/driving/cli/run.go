package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/taxonomist/internal/adapters/driven/export"
	"github.com/custodia-labs/taxonomist/internal/core/domain"
	"github.com/custodia-labs/taxonomist/internal/core/ports/driven"
	"github.com/custodia-labs/taxonomist/internal/core/ports/driving"
)

// runFlags holds the run command's flag values.
type runFlags struct {
	model          string
	fastModel      string
	sampleSize     int
	batchSize      int
	maxClusters    int
	useCase        string
	concurrency    int
	rps            float64
	revisionPolicy string
	seed           int64
	taxonomyFile   string
	categories     []string
	classifier     bool
	embeddingModel string
	threshold      float64
	textField      string
	idField        string
	outputDir      string
	formats        []string
	noExport       bool
	jsonOutput     bool
}

var runOpts runFlags

var runCmd = &cobra.Command{
	Use:   "run <source>",
	Short: "Generate a taxonomy and label a corpus",
	Long: `Runs the full pipeline over a source file or directory.

Sources may be .jsonl, .json, .csv, .yaml or .txt files (one document per
record or line), or a directory of .txt, .md and .html files (one document
per file).

Without a predefined taxonomy the pipeline samples the corpus, summarises
the sample, discovers categories from the first minibatch and revises them
with each further minibatch. With --taxonomy or --category it labels
directly against the given categories.

Examples:
  taxonomist run tickets.csv --use-case "Categorise support tickets"
  taxonomist run notes/ --sample 50 --batch 25 --max-clusters 8
  taxonomist run tickets.jsonl --category "Billing: payments" --category "Bugs"`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	f := runCmd.Flags()
	f.StringVarP(&runOpts.model, "model", "m", "", "model for taxonomy generation (provider/model)")
	f.StringVar(&runOpts.fastModel, "fast-model", "", "model for summaries and labels (provider/model)")
	f.IntVarP(&runOpts.sampleSize, "sample", "s", 0, "documents to sample for discovery (0 = all)")
	f.IntVarP(&runOpts.batchSize, "batch", "b", 0, "documents per minibatch")
	f.IntVar(&runOpts.maxClusters, "max-clusters", 0, "maximum number of categories")
	f.StringVarP(&runOpts.useCase, "use-case", "u", "", "what the taxonomy is for")
	f.IntVar(&runOpts.concurrency, "concurrency", 0, "concurrent model requests")
	f.Float64Var(&runOpts.rps, "rps", 0, "model requests per second (0 = unlimited)")
	f.StringVar(&runOpts.revisionPolicy, "revision-policy", "", "on an empty revision: retain or fail")
	f.Int64Var(&runOpts.seed, "seed", 0, "sampling seed (0 = random)")
	f.StringVarP(&runOpts.taxonomyFile, "taxonomy", "t", "", "predefined taxonomy file (.json, .yaml)")
	f.StringArrayVarP(&runOpts.categories, "category", "c", nil, `predefined category "Name: description" (repeatable)`)
	f.BoolVar(&runOpts.classifier, "classifier", false, "label documents outside the sample with an embedding classifier")
	f.StringVar(&runOpts.embeddingModel, "embedding-model", "", "embedding model for the classifier (provider/model)")
	f.Float64Var(&runOpts.threshold, "confidence", 0, "classifier confidence below which the LLM labels instead")
	f.StringVar(&runOpts.textField, "text-field", "", "record field holding document text (default text)")
	f.StringVar(&runOpts.idField, "id-field", "", "record field holding document IDs (default id)")
	f.StringVarP(&runOpts.outputDir, "output-dir", "o", "", "directory for exported results")
	f.StringSliceVarP(&runOpts.formats, "format", "f", nil, "export formats: "+strings.Join(export.Formats(), ", "))
	f.BoolVar(&runOpts.noExport, "no-export", false, "skip writing result files")
	f.BoolVar(&runOpts.jsonOutput, "json", false, "print the full result as JSON")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	if runService == nil || settingsService == nil {
		return errRunServiceMissing
	}
	if sourceLoader == nil {
		return errors.New("source loader not configured")
	}
	ctx := cmd.Context()

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	cfg, err := buildRunConfig(cmd, settings.RunConfig())
	if err != nil {
		return err
	}

	raw, err := sourceLoader.Load(ctx, args[0], driven.SourceOptions{
		TextField: runOpts.textField,
		IDField:   runOpts.idField,
	})
	if err != nil {
		return fmt.Errorf("failed to load documents: %w", err)
	}
	docs, err := domain.NewDocuments(raw)
	if err != nil {
		return fmt.Errorf("failed to load documents: %w", err)
	}

	progress := newProgressPrinter(cmd.ErrOrStderr())
	progress.printf("Loaded %d documents from %s\n", len(docs), args[0])

	result, err := runService.Execute(ctx, driving.RunRequest{
		Documents: docs,
		Config:    cfg,
		Observer:  progress,
	})
	if err != nil {
		if stage, ok := domain.StageOf(err); ok {
			return fmt.Errorf("run failed during %s: %w", stage, err)
		}
		return fmt.Errorf("run failed: %w", err)
	}

	if runOpts.jsonOutput {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		cmd.Println(string(data))
	} else {
		printRunSummary(cmd, result)
	}

	if runOpts.noExport {
		return nil
	}
	dir, formats := outputTargets(cmd, settings.Output)
	if len(formats) == 0 {
		return nil
	}
	paths, err := export.WriteAll(dir, result, formats)
	if err != nil {
		return fmt.Errorf("failed to export results: %w", err)
	}
	for _, p := range paths {
		progress.printf("Wrote %s\n", p)
	}
	return nil
}

// buildRunConfig applies the flags the user set on top of the settings.
func buildRunConfig(cmd *cobra.Command, cfg domain.RunConfig) (domain.RunConfig, error) {
	f := cmd.Flags()
	if f.Changed("model") {
		cfg.Model = runOpts.model
	}
	if f.Changed("fast-model") {
		cfg.FastModel = runOpts.fastModel
	}
	if f.Changed("sample") {
		cfg.SampleSize = runOpts.sampleSize
	}
	if f.Changed("batch") {
		cfg.BatchSize = runOpts.batchSize
	}
	if f.Changed("max-clusters") {
		cfg.MaxNumClusters = runOpts.maxClusters
	}
	if f.Changed("use-case") {
		cfg.UseCase = runOpts.useCase
	}
	if f.Changed("concurrency") {
		cfg.Concurrency = runOpts.concurrency
	}
	if f.Changed("rps") {
		cfg.RequestsPerSecond = runOpts.rps
	}
	if f.Changed("revision-policy") {
		cfg.RevisionPolicy = domain.RevisionPolicy(runOpts.revisionPolicy)
	}
	if f.Changed("seed") {
		cfg.Seed = runOpts.seed
	}
	if f.Changed("classifier") {
		cfg.Classifier.Enabled = runOpts.classifier
	}
	if f.Changed("embedding-model") {
		cfg.Classifier.EmbeddingModel = runOpts.embeddingModel
	}
	if f.Changed("confidence") {
		cfg.Classifier.ConfidenceThreshold = runOpts.threshold
	}

	taxonomy, err := predefinedTaxonomy()
	if err != nil {
		return cfg, err
	}
	cfg.PredefinedTaxonomy = taxonomy

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// predefinedTaxonomy reads --taxonomy or --category. They are exclusive.
func predefinedTaxonomy() (domain.Taxonomy, error) {
	if runOpts.taxonomyFile != "" && len(runOpts.categories) > 0 {
		return nil, fmt.Errorf("%w: --taxonomy and --category cannot be combined", domain.ErrInvalidInput)
	}
	if runOpts.taxonomyFile != "" {
		if taxonomyLoader == nil {
			return nil, errors.New("taxonomy loader not configured")
		}
		return taxonomyLoader.Load(runOpts.taxonomyFile)
	}
	if len(runOpts.categories) == 0 {
		return nil, nil
	}
	categories := make([]domain.Category, 0, len(runOpts.categories))
	for _, c := range runOpts.categories {
		cat, err := domain.ParseCategory(c)
		if err != nil {
			return nil, err
		}
		categories = append(categories, cat)
	}
	return domain.AssignIDs(categories), nil
}

func outputTargets(cmd *cobra.Command, out domain.OutputSettings) (string, []string) {
	dir, formats := out.Dir, out.Formats
	if cmd.Flags().Changed("output-dir") {
		dir = runOpts.outputDir
	}
	if cmd.Flags().Changed("format") {
		formats = runOpts.formats
	}
	if dir == "" {
		dir = "."
	}
	return dir, formats
}

func printRunSummary(cmd *cobra.Command, result *domain.RunResult) {
	meta := result.Metadata

	cmd.Println()
	cmd.Printf("Run %s completed in %s\n", result.ID, meta.Duration.Round(time.Millisecond))
	cmd.Printf("  Path:       %s\n", meta.Path)
	cmd.Printf("  Documents:  %d (LLM %d, classifier %d, skipped %d)\n",
		meta.NumDocuments, meta.LLMLabeledCount, meta.ClassifierLabeledCount, meta.SkippedDocumentCount)
	cmd.Printf("  Categories: %d\n", meta.NumCategories)
	cmd.Println()

	rows := make([][]string, 0, len(result.Taxonomy)+1)
	for _, c := range result.Taxonomy {
		rows = append(rows, []string{c.ID, c.Name, truncate(c.Description, 60), strconv.Itoa(meta.Count(c.Name))})
	}
	if n := meta.Count(domain.OtherCategory); n > 0 {
		rows = append(rows, []string{"", domain.OtherCategory, "Could not be labeled", strconv.Itoa(n)})
	}
	cmd.Println(renderTable(
		[]string{"ID", "Category", "Description", "Documents"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight},
	))

	if m := meta.ClassifierMetrics; m != nil {
		cmd.Printf("Classifier: test accuracy %.3f, macro F1 %.3f (%d held out)\n", m.TestAccuracy, m.TestF1, m.TestSize)
	}
	for _, w := range meta.Warnings {
		cmd.Printf("Warning: %s\n", w)
	}
}
