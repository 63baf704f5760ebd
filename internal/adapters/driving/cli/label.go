package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

var labelJSON bool

var labelCmd = &cobra.Command{
	Use:   "label <run-id> [text]",
	Short: "Label a text against a stored run's taxonomy",
	Long: `Classifies a single text with the fast model against the final taxonomy
of a stored run. The text is read from standard input when omitted or "-".`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runLabel,
}

func init() {
	labelCmd.Flags().BoolVar(&labelJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(labelCmd)
}

func runLabel(cmd *cobra.Command, args []string) error {
	if runService == nil {
		return errRunServiceMissing
	}

	text := ""
	if len(args) == 2 && args[1] != "-" {
		text = args[1]
	} else {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read text: %w", err)
		}
		text = string(data)
	}
	if strings.TrimSpace(text) == "" {
		return errors.New("no text to label")
	}

	doc, err := runService.LabelText(cmd.Context(), args[0], text)
	if err != nil {
		return fmt.Errorf("failed to label text: %w", err)
	}

	if labelJSON {
		return printJSON(cmd, doc)
	}
	cmd.Printf("Category: %s\n", doc.Category)
	if doc.Explanation != "" {
		cmd.Printf("Reason:   %s\n", doc.Explanation)
	}
	return nil
}
