package commands

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// ProvisionCommand handles the provision command
type ProvisionCommand struct {
	env *environment
}

// Execute runs the command
func (pc *ProvisionCommand) Execute(cmd *cobra.Command, args []string) error {
	cfg, err := pc.env.load()
	if err != nil {
		return err
	}

	p, err := provisioner(cfg)
	if err != nil {
		return err
	}
	if p == nil {
		color.New(color.FgYellow).Fprintln(pc.env.out, "No layer has database provisioning enabled")
		return nil
	}

	for _, name := range cfg.EnabledLayers() {
		if !cfg.Layers[name].Database.Enabled {
			continue
		}
		db := cfg.GetDatabaseName(name)
		if err := p.EnsureDatabase(cmd.Context(), db); err != nil {
			return err
		}
		color.New(color.FgGreen).Fprintf(pc.env.out, "✓ %s: database %s ready\n", name, db)
	}
	return nil
}
