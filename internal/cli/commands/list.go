package commands

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"layertest/internal/discovery"
	"layertest/internal/execution"
	"layertest/internal/logging"
	"layertest/internal/storage"
	"layertest/internal/ui"
)

// ListCommand handles the list command
type ListCommand struct {
	env *environment
}

// Execute runs the command
func (lc *ListCommand) Execute(cmd *cobra.Command, args []string) error {
	cfg, err := lc.env.load()
	if err != nil {
		return err
	}

	enabled, err := layers(cfg, execution.NewProcessExecutor())
	if err != nil {
		return err
	}

	rc := cfg.RunContext()
	filter := discovery.NewFilter()

	var groups []ui.LayerTests
	for _, l := range enabled {
		tests, err := l.Discover(rc)
		if err != nil {
			color.New(color.FgRed).Fprintf(lc.env.out, "%s: %v\n", l.Name(), err)
			continue
		}
		groups = append(groups, ui.LayerTests{
			Layer: l.Name(),
			Tests: filter.FilterByName(tests, cfg.Flags.NameFilter),
		})
	}

	ui.NewFormatter(lc.env.out, discovery.NewCaseFinder()).
		PrintTestList(rc.ProjectRoot(), groups, cfg.Flags.TestCases, lastFailures(cfg.GetResultsPath()))
	return nil
}

// lastFailures returns the names that failed in the latest report, if any.
func lastFailures(resultsDir string) map[string]bool {
	report, path, err := storage.NewJSONStorage(resultsDir).LoadLatest()
	if err != nil {
		logging.Debug("cli", "no previous failures: %v", err)
		return nil
	}
	logging.Debug("cli", "marking failures from %s", path)

	failed := make(map[string]bool)
	for _, rec := range report.FailedRecords() {
		failed[rec.Name] = true
	}
	return failed
}
