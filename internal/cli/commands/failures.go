package commands

import (
	"errors"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"layertest/internal/storage"
	"layertest/internal/ui"
)

// FailuresCommand handles the failures command
type FailuresCommand struct {
	env *environment
}

// Execute runs the command
func (fc *FailuresCommand) Execute(cmd *cobra.Command, args []string) error {
	cfg, err := fc.env.load()
	if err != nil {
		return err
	}

	report, _, err := storage.NewJSONStorage(cfg.GetResultsPath()).LoadLatest()
	if errors.Is(err, storage.ErrNoReports) {
		color.New(color.FgYellow).Fprintf(fc.env.out, "No reports found in %s\n", cfg.GetResultsPath())
		return nil
	}
	if err != nil {
		return err
	}

	return ui.NewErrorViewer(fc.env.out).View(report)
}
