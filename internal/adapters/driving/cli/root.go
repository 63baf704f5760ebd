// Package cli implements the taxonomist command-line interface with cobra.
//
// Services are injected by main through SetServices before Execute runs.
// Commands check for a nil service and fail with a configuration error, so
// the command tree can be built and tested without a full wiring.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/taxonomist/internal/core/ports/driven"
	"github.com/custodia-labs/taxonomist/internal/core/ports/driving"
	"github.com/custodia-labs/taxonomist/internal/logger"
)

// version is set at build time via SetVersion.
var version = "dev"

// Injected services.
var (
	runService      driving.RunService
	jobService      driving.JobService
	settingsService driving.SettingsService
	promptManager   PromptManager
	sourceLoader    driven.SourceLoader
	taxonomyLoader  driven.TaxonomyLoader
)

var verbose bool

// PromptManager is the editable prompt template store.
type PromptManager interface {
	driven.PromptStore

	// Dir returns the template directory.
	Dir() string

	// Path returns the file path of a template.
	Path(name string) string

	// Reset restores a template to its built-in default.
	Reset(name string) error

	// Watch reloads templates when their files change, until ctx ends.
	Watch(ctx context.Context) error
}

// Services holds everything the commands need.
type Services struct {
	Runs           driving.RunService
	Jobs           driving.JobService
	Settings       driving.SettingsService
	Prompts        PromptManager
	Sources        driven.SourceLoader
	TaxonomyLoader driven.TaxonomyLoader
}

var rootCmd = &cobra.Command{
	Use:   "taxonomist",
	Short: "Generate taxonomies and label documents with LLMs",
	Long: `Taxonomist discovers a category taxonomy from a corpus of documents and
labels every document against it.

A run samples the corpus, summarises the sample, proposes categories from the
first minibatch, revises them with each further minibatch, and finally labels
all documents. Supply a predefined taxonomy to skip discovery and label
directly.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// SetServices injects the services used by the commands.
func SetServices(s Services) {
	runService = s.Runs
	jobService = s.Jobs
	settingsService = s.Settings
	promptManager = s.Prompts
	sourceLoader = s.Sources
	taxonomyLoader = s.TaxonomyLoader
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

var (
	errRunServiceMissing      = errors.New("run service not configured")
	errSettingsServiceMissing = errors.New("settings service not configured")
	errPromptStoreMissing     = errors.New("prompt store not configured")
)
