package commands

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"layertest/internal/domain"
	"layertest/internal/execution"
	"layertest/internal/orchestrator"
	"layertest/internal/storage"
	"layertest/internal/ui"
)

// RunCommand handles the run command
type RunCommand struct {
	env *environment
}

// Execute runs the command
func (rc *RunCommand) Execute(cmd *cobra.Command, args []string) error {
	cfg, err := rc.env.load()
	if err != nil {
		return err
	}

	enabled, err := layers(cfg, execution.NewProcessExecutor())
	if err != nil {
		return err
	}
	if len(enabled) == 0 {
		color.New(color.FgYellow).Fprintln(rc.env.out, "No layers enabled")
	}

	orch := orchestrator.New(cfg.RunContext(), orchestrator.Options{
		Workers:     cfg.Workers,
		NameFilter:  cfg.Flags.NameFilter,
		ResumeAfter: cfg.Flags.ResumeAfter,
	}, enabled...)

	var progress *ui.ProgressBar
	if !cfg.Flags.NoProgress {
		progress = ui.NewProgressBar(rc.env.errOut)
		orch.OnDiscover(func(_ string, count int) { progress.Grow(count) })
		orch.OnResult(func(domain.Result) { progress.Update(orch.Totals()) })
	}

	orch.Run(cmd.Context())
	if progress != nil {
		progress.Finish()
	}

	report := orch.Report(time.Now())
	path, err := storage.NewJSONStorage(cfg.GetResultsPath()).Save(report)
	if err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}

	ui.NewFormatter(rc.env.out, nil).PrintSummary(report, path)

	if orch.AllPassed() {
		return nil
	}
	if cfg.Flags.OpenFailures {
		if err := ui.NewErrorViewer(rc.env.out).View(&report); err != nil {
			return err
		}
	}
	return ErrTestsFailed
}
