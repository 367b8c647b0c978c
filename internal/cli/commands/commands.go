package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"layertest/internal/cli"
	"layertest/internal/config"
	"layertest/internal/execution"
	"layertest/internal/exitcodes"
	"layertest/internal/layer"
	"layertest/internal/logging"
	"layertest/internal/provision"
)

// ErrTestsFailed is returned by the run command when any result failed.
var ErrTestsFailed = errors.New("one or more tests failed")

// ExitCode maps a command error to the process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return exitcodes.Success
	case errors.Is(err, ErrTestsFailed):
		return exitcodes.TestFailure
	default:
		return exitcodes.RuntimeErr
	}
}

// Commands holds all CLI commands
type Commands struct {
	Run       *RunCommand
	List      *ListCommand
	Provision *ProvisionCommand
	Failures  *FailuresCommand
}

// NewCommands creates all commands. Configuration is loaded by each command
// once its flags are parsed.
func NewCommands(flags *cli.Flags, out, errOut io.Writer) *Commands {
	env := &environment{flags: flags, out: out, errOut: errOut}
	return &Commands{
		Run:       &RunCommand{env: env},
		List:      &ListCommand{env: env},
		Provision: &ProvisionCommand{env: env},
		Failures:  &FailuresCommand{env: env},
	}
}

// NewRootCommand builds the layertest command tree.
func NewRootCommand(version string, out, errOut io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "layertest",
		Short: "Multi-layer test orchestrator",
		Long: `Discover and run unit, integration and contract tests, each test file in its
own child process with a hard timeout, and write a timestamped JSON report.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	var flags cli.Flags
	NewCommands(&flags, out, errOut).Register(rootCmd, &flags)
	return rootCmd
}

// Register registers all commands with cobra
func (c *Commands) Register(rootCmd *cobra.Command, flags *cli.Flags) {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.ProjectPath, "project", "P", config.DefaultProjectPath, "Project root to discover tests in")
	pf.StringVarP(&flags.ConfigFile, "config", "c", "", "Config file (default <project>/"+config.DefaultConfigFile+")")
	pf.StringVar(&flags.ResultsDir, "results-dir", "", "Directory for JSON reports (default <project>/"+config.DefaultResultsDir+")")
	pf.BoolVarP(&flags.Verbose, "verbose", "v", false, "Enable debug logging")

	// Run command
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run tests of all enabled layers",
		Long:  "Discover and execute tests layer by layer, print a summary and write a JSON report",
		Args:  cobra.NoArgs,
		RunE:  c.Run.Execute,
	}
	runCmd.Flags().StringSliceVarP(&flags.Layers, "layer", "l", nil, "Layers to run, in registration order (e.g. unit,contract)")
	runCmd.Flags().DurationVarP(&flags.Timeout, "timeout", "T", 0, "Per test timeout (default from config, 300s)")
	runCmd.Flags().StringVarP(&flags.NameFilter, "filter", "f", "", "Filter tests by name pattern (supports wildcards, e.g. '*auth*')")
	runCmd.Flags().StringVar(&flags.ResumeAfter, "resume-after", "", "Skip every test up to and including this identifier")
	runCmd.Flags().IntVarP(&flags.Workers, "workers", "w", 0, "Tests run concurrently within a layer (default 1)")
	runCmd.Flags().BoolVar(&flags.RealAPI, "real-api", false, "Run contract tests against the real API")
	runCmd.Flags().BoolVar(&flags.Cache, "cache", false, "Enable response caching for contract tests")
	runCmd.Flags().BoolVar(&flags.NoProgress, "no-progress", false, "Disable the progress bar")
	runCmd.Flags().BoolVar(&flags.OpenFailures, "open-failures", false, "Open the failures viewer when the run finishes with failures")
	rootCmd.AddCommand(runCmd)

	// List command
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List discovered tests",
		Long:  "Scan and list the tests of every enabled layer without executing them",
		Args:  cobra.NoArgs,
		RunE:  c.List.Execute,
	}
	listCmd.Flags().StringSliceVarP(&flags.Layers, "layer", "l", nil, "Layers to list")
	listCmd.Flags().StringVarP(&flags.NameFilter, "filter", "f", "", "Filter tests by name pattern (supports wildcards)")
	listCmd.Flags().BoolVar(&flags.TestCases, "test-cases", false, "Also list the test cases found in each file")
	rootCmd.AddCommand(listCmd)

	// Provision command
	provisionCmd := &cobra.Command{
		Use:   "provision",
		Short: "Create the databases used by integration tests",
		Long:  "Ensure the schema of every layer with database provisioning enabled exists",
		Args:  cobra.NoArgs,
		RunE:  c.Provision.Execute,
	}
	rootCmd.AddCommand(provisionCmd)

	// Failures command
	failuresCmd := &cobra.Command{
		Use:   "failures",
		Short: "View test failures interactively",
		Long:  "Display the failed tests of the latest report in an interactive viewer",
		Args:  cobra.NoArgs,
		RunE:  c.Failures.Execute,
	}
	rootCmd.AddCommand(failuresCmd)
}

// environment is shared by all commands.
type environment struct {
	flags  *cli.Flags
	out    io.Writer
	errOut io.Writer
}

func (e *environment) load() (*config.Config, error) {
	logging.Init(e.flags.LogLevel(), e.errOut)

	cfg, err := config.Load(e.flags.ToConfigFlags())
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logging.Debug("cli", "project root %s, layers %v, timeout %v", cfg.GetProjectRoot(), cfg.EnabledLayers(), cfg.Timeout())
	return cfg, nil
}

// provisioner returns the MySQL provisioner when an enabled layer needs a
// database, nil otherwise.
func provisioner(cfg *config.Config) (*provision.MySQL, error) {
	for _, name := range cfg.EnabledLayers() {
		db := cfg.Layers[name].Database
		if !db.Enabled {
			continue
		}
		dsn := db.DSN
		if dsn == "" {
			dsn = provision.DSNFromLookup(cfg.Lookup)
		}
		p, err := provision.NewMySQL(dsn)
		if err != nil {
			return nil, fmt.Errorf("layer %s: %w", name, err)
		}
		return p, nil
	}
	return nil, nil
}

// layers builds the enabled layers in registration order.
func layers(cfg *config.Config, executor execution.Executor) ([]layer.Layer, error) {
	p, err := provisioner(cfg)
	if err != nil {
		return nil, err
	}
	var prov layer.Provisioner
	if p != nil {
		prov = p
	}
	return layer.Select(layer.Defaults(executor, prov), cfg.EnabledLayers()), nil
}
