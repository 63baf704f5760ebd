package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/taxonomist/internal/core/ports/driven"
)

var promptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "Manage prompt templates",
	Long: `Prompt templates live as editable text files. Edits take effect on the next
run, or immediately for a running 'mcp serve'. Templates use Go text/template
syntax; reset a template to restore the built-in version.`,
	RunE: runPromptsList,
}

var promptsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List prompt templates and their files",
	RunE:  runPromptsList,
}

var promptsShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Print a prompt template",
	Args:  cobra.ExactArgs(1),
	RunE:  runPromptsShow,
}

var promptsResetCmd = &cobra.Command{
	Use:   "reset <name>",
	Short: "Restore a prompt template to its default",
	Args:  cobra.ExactArgs(1),
	RunE:  runPromptsReset,
}

var promptsPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the prompt template directory",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if promptManager == nil {
			return errPromptStoreMissing
		}
		cmd.Println(promptManager.Dir())
		return nil
	},
}

func init() {
	promptsCmd.AddCommand(promptsListCmd)
	promptsCmd.AddCommand(promptsShowCmd)
	promptsCmd.AddCommand(promptsResetCmd)
	promptsCmd.AddCommand(promptsPathCmd)
	rootCmd.AddCommand(promptsCmd)
}

func runPromptsList(cmd *cobra.Command, _ []string) error {
	if promptManager == nil {
		return errPromptStoreMissing
	}

	rows := make([][]string, 0, len(driven.PromptNames()))
	for _, name := range driven.PromptNames() {
		path := promptManager.Path(name)
		state := "default"
		if _, err := os.Stat(path); err == nil {
			state = "file"
		}
		rows = append(rows, []string{name, state, path})
	}
	cmd.Println(renderTable([]string{"Name", "Source", "Path"}, rows, nil))
	return nil
}

func runPromptsShow(cmd *cobra.Command, args []string) error {
	if promptManager == nil {
		return errPromptStoreMissing
	}

	text, err := promptManager.Load(args[0])
	if err != nil {
		return fmt.Errorf("failed to load prompt: %w", err)
	}
	cmd.Println(text)
	return nil
}

func runPromptsReset(cmd *cobra.Command, args []string) error {
	if promptManager == nil {
		return errPromptStoreMissing
	}

	if err := promptManager.Reset(args[0]); err != nil {
		return fmt.Errorf("failed to reset prompt: %w", err)
	}
	cmd.Printf("Reset %s to the built-in template\n", args[0])
	return nil
}
