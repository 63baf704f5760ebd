package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/taxonomist/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure models, provider credentials, pipeline defaults and
export options.

Use subcommands to change single values or run the interactive wizard.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a single setting",
	Long: `Set a single setting by its dotted key. Run 'taxonomist settings keys' for
the full list.

Examples:
  taxonomist settings set pipeline.model openai/gpt-4o
  taxonomist settings set pipeline.sample_size 200
  taxonomist settings set output.formats json,csv
  taxonomist settings set ollama.base_url http://gpu-box:11434`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List setting keys",
	RunE:  runSettingsKeys,
}

var settingsProviderCmd = &cobra.Command{
	Use:   "provider [name]",
	Short: "Configure provider credentials",
	Long:  `Enter the API key and base URL for an AI provider. The key is read without echo.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSettingsProvider,
}

var settingsWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive setup wizard",
	Long:  `Run an interactive wizard to configure credentials and models step by step.`,
	RunE:  runSettingsWizard,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	settingsCmd.AddCommand(settingsProviderCmd)
	settingsCmd.AddCommand(settingsWizardCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errSettingsServiceMissing
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	p, l, o := settings.Pipeline, settings.Labeling, settings.Output
	rows := [][]string{
		{"pipeline.model", p.Model},
		{"pipeline.fast_model", p.FastModel},
		{"pipeline.sample_size", strconv.Itoa(p.SampleSize)},
		{"pipeline.batch_size", strconv.Itoa(p.BatchSize)},
		{"pipeline.max_num_clusters", strconv.Itoa(p.MaxNumClusters)},
		{"pipeline.use_case", p.UseCase},
		{"pipeline.concurrency", strconv.Itoa(p.Concurrency)},
		{"pipeline.requests_per_second", strconv.FormatFloat(p.RequestsPerSecond, 'g', -1, 64)},
		{"pipeline.revision_policy", string(p.RevisionPolicy)},
		{"labeling.classifier", enabledText(l.Classifier)},
		{"labeling.embedding_model", l.EmbeddingModel},
		{"labeling.confidence_threshold", strconv.FormatFloat(l.ConfidenceThreshold, 'g', -1, 64)},
		{"output.dir", o.Dir},
		{"output.formats", strings.Join(o.Formats, ", ")},
	}
	for _, provider := range domain.AllLLMProviders() {
		creds := settings.CredentialsFor(provider)
		if provider.RequiresAPIKey() {
			rows = append(rows, []string{string(provider) + ".api_key", maskAPIKey(creds.APIKey)})
		}
		if creds.BaseURL != "" {
			rows = append(rows, []string{string(provider) + ".base_url", creds.BaseURL})
		}
	}
	cmd.Println(renderTable([]string{"Key", "Value"}, rows, nil))

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'taxonomist settings wizard' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errSettingsServiceMissing
	}

	if err := settingsService.Set(args[0], args[1]); err != nil {
		return fmt.Errorf("failed to set %s: %w", args[0], err)
	}

	value := args[1]
	if strings.HasSuffix(args[0], ".api_key") {
		value = maskAPIKey(value)
	}
	cmd.Printf("Set %s = %s\n", args[0], value)
	return nil
}

func runSettingsKeys(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errSettingsServiceMissing
	}
	for _, k := range settingsService.Keys() {
		cmd.Println(k)
	}
	return nil
}

func runSettingsProvider(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errSettingsServiceMissing
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	var provider domain.AIProvider
	if len(args) == 1 {
		provider = domain.AIProvider(strings.ToLower(args[0]))
		if !provider.IsValid() {
			return fmt.Errorf("%w: provider %q", domain.ErrUnsupportedType, args[0])
		}
	} else {
		provider = selectProvider(cmd, reader)
	}
	return configureProvider(cmd, reader, provider)
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errSettingsServiceMissing
	}

	cmd.Println("Taxonomist Settings Wizard")
	cmd.Println("==========================")
	cmd.Println()

	reader := bufio.NewReader(cmd.InOrStdin())

	cmd.Println("Step 1: Configure a Provider")
	cmd.Println("----------------------------")
	provider := selectProvider(cmd, reader)
	if err := configureProvider(cmd, reader, provider); err != nil {
		return err
	}

	cmd.Println("Step 2: Select Models")
	cmd.Println("---------------------")
	defaults := domain.DefaultLLMModels()
	fallback := string(provider) + "/" + defaults[provider]
	for _, m := range []struct{ key, label string }{
		{"pipeline.model", "Taxonomy model"},
		{"pipeline.fast_model", "Fast model (summaries and labels)"},
	} {
		cmd.Printf("%s [%s]: ", m.label, fallback)
		ref := readLine(reader)
		if ref == "" {
			ref = fallback
		}
		if err := settingsService.Set(m.key, ref); err != nil {
			return fmt.Errorf("failed to set %s: %w", m.key, err)
		}
	}
	cmd.Println()

	cmd.Println("Configuration Complete!")
	cmd.Println("=======================")
	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
	} else {
		cmd.Println("All settings are valid and saved.")
	}

	return nil
}

func selectProvider(cmd *cobra.Command, reader *bufio.Reader) domain.AIProvider {
	providers := domain.AllLLMProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	return pickProvider(readLine(reader), providers)
}

func configureProvider(cmd *cobra.Command, reader *bufio.Reader, provider domain.AIProvider) error {
	var apiKey string
	if provider.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		apiKey = readPassword(cmd.InOrStdin(), reader)
		cmd.Println()
		if apiKey == "" {
			return errors.New("API key is required for this provider")
		}
	}

	cmd.Print("Base URL (blank for default): ")
	baseURL := readLine(reader)
	if baseURL == "" && provider == domain.AIProviderOllama {
		baseURL = domain.DefaultAppSettings().CredentialsFor(provider).BaseURL
	}

	if err := settingsService.SetCredentials(provider, apiKey, baseURL); err != nil {
		return fmt.Errorf("failed to configure %s: %w", provider, err)
	}

	// Validate by pinging the provider with its default model.
	cmd.Print("Validating configuration... ")
	ref := string(provider) + "/" + domain.DefaultLLMModels()[provider]
	if err := settingsService.ValidateModel(ref); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("%s configuration validation failed: %w", provider, err)
	}
	cmd.Println("OK")

	cmd.Printf("Provider configured: %s\n\n", provider.Description())
	return nil
}

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

// pickProvider maps a menu answer, either its number or the provider name,
// to a provider. Anything else picks the first.
func pickProvider(answer string, providers []domain.AIProvider) domain.AIProvider {
	if n, err := strconv.Atoi(answer); err == nil && n >= 1 && n <= len(providers) {
		return providers[n-1]
	}
	for _, p := range providers {
		if strings.EqualFold(answer, string(p)) {
			return p
		}
	}
	return providers[0]
}

// readPassword reads without echo when in is a terminal, otherwise a line.
func readPassword(in io.Reader, reader *bufio.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	return readLine(reader)
}

// maskAPIKey keeps the last four characters of keys long enough to
// identify without exposing them.
func maskAPIKey(key string) string {
	switch {
	case key == "":
		return "(not set)"
	case len(key) <= 8:
		return "****"
	}
	return "****" + key[len(key)-4:]
}

func enabledText(b bool) string {
	if b {
		return "enabled"
	}
	return "disabled"
}
