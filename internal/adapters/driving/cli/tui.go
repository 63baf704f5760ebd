package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/taxonomist/internal/adapters/driving/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Browse stored runs in an interactive terminal UI",
	Long: `Launch the interactive terminal browser for stored runs.

Open a run to see its taxonomy and document distribution, step through the
taxonomy snapshots produced by each minibatch, and drill into the documents
labeled with a category.

Controls:
  ↑/k, ↓/j  Navigate
  enter     Open
  [ / ]     Older / newer snapshot
  d         Delete run
  esc       Back
  ?         Toggle help
  q         Quit`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	app, err := tui.NewApp(&tui.Ports{Runs: runService})
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	app.WithContext(cmd.Context())

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
