package config

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"time"

	"layertest/internal/domain"
)

// Config holds all configuration for the application
type Config struct {
	// Project settings
	ProjectPath string `yaml:"-"`
	ConfigFile  string `yaml:"-"`
	EnvFile     string `yaml:"-"`

	// Values read from EnvFile, never exported to the process
	DotEnv map[string]string `yaml:"-"`

	// Output settings
	ResultsDir string `yaml:"results_dir"`

	// Execution settings
	TimeoutSeconds int `yaml:"timeout"`
	Workers        int `yaml:"workers"`

	// Directories never scanned
	SkipDirs []string `yaml:"skip_dirs"`

	// Per-layer options keyed by layer name
	Layers map[string]LayerConfig `yaml:"layers"`

	// Command flags
	Flags Flags `yaml:"-"`
}

// LayerConfig holds the options of a single layer.
type LayerConfig struct {
	Root           string            `yaml:"root"`
	Patterns       []string          `yaml:"patterns"`
	Runner         string            `yaml:"runner"`
	Command        []string          `yaml:"command"`
	TimeoutSeconds int               `yaml:"timeout"`
	Env            map[string]string `yaml:"env"`
	MockProvider   *bool             `yaml:"mock_provider"`
	RealAPI        bool              `yaml:"real_api"`
	Cache          bool              `yaml:"cache"`
	APIKey         string            `yaml:"api_key"`
	Database       DatabaseConfig    `yaml:"database"`
	Disabled       bool              `yaml:"disabled"`
}

// DatabaseConfig enables schema provisioning for a layer.
type DatabaseConfig struct {
	Enabled bool   `yaml:"enabled"`
	DSN     string `yaml:"dsn"`
	Prefix  string `yaml:"prefix"`
}

// Flags holds command-line flags
type Flags struct {
	ProjectPath  string
	ConfigFile   string
	Layers       []string
	Timeout      time.Duration
	NameFilter   string
	ResumeAfter  string
	Workers      int
	ResultsDir   string
	RealAPI      bool
	Cache        bool
	NoProgress   bool
	Verbose      bool
	TestCases    bool
	OpenFailures bool
}

// New creates a new Config with defaults
func New() *Config {
	cfg := &Config{
		ProjectPath:    DefaultProjectPath,
		ConfigFile:     DefaultConfigFile,
		EnvFile:        DefaultEnvFile,
		ResultsDir:     DefaultResultsDir,
		TimeoutSeconds: int(DefaultTimeout / time.Second),
		Workers:        DefaultWorkers,
		Layers:         defaultLayers(),
	}
	// Copy default paths to skip
	cfg.SkipDirs = make([]string, len(DefaultSkipDirs))
	copy(cfg.SkipDirs, DefaultSkipDirs)
	return cfg
}

// Apply overlays command-line flags on top of the loaded configuration.
func (c *Config) Apply(flags Flags) {
	c.Flags = flags

	if flags.Timeout > 0 {
		c.TimeoutSeconds = int(flags.Timeout.Round(time.Second) / time.Second)
		if c.TimeoutSeconds == 0 {
			c.TimeoutSeconds = 1
		}
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.ResultsDir != "" {
		c.ResultsDir = flags.ResultsDir
	}
	if contract, ok := c.Layers[LayerContract]; ok {
		if flags.RealAPI {
			contract.RealAPI = true
		}
		if flags.Cache {
			contract.Cache = true
		}
		c.Layers[LayerContract] = contract
	}
}

// Timeout returns the per-test timeout.
func (c *Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return DefaultTimeout
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// GetProjectRoot returns the absolute project root.
func (c *Config) GetProjectRoot() string {
	if abs, err := filepath.Abs(c.ProjectPath); err == nil {
		return abs
	}
	return c.ProjectPath
}

// GetResultsPath returns the absolute directory reports are written to.
func (c *Config) GetResultsPath() string {
	if filepath.IsAbs(c.ResultsDir) {
		return c.ResultsDir
	}
	return filepath.Join(c.GetProjectRoot(), c.ResultsDir)
}

// GetDatabaseName returns the schema name provisioned for a layer.
func (c *Config) GetDatabaseName(layer string) string {
	prefix := ""
	if lc, ok := c.Layers[layer]; ok {
		prefix = lc.Database.Prefix
	}
	if prefix == "" {
		prefix = os.Getenv("DB_DATABASE_PREFIX")
	}
	if prefix == "" {
		prefix = DefaultDatabasePrefix
	}
	return prefix + "_" + layer
}

// Validate checks the merged configuration and flag selection.
func (c *Config) Validate() error {
	for _, name := range c.Flags.Layers {
		if _, ok := c.Layers[name]; !ok {
			return fmt.Errorf("unknown layer %q (known: %v)", name, DefaultLayerOrder)
		}
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	for _, name := range c.EnabledLayers() {
		lc := c.Layers[name]
		switch lc.Runner {
		case RunnerUnittest, RunnerPytest:
		default:
			return fmt.Errorf("layer %s: unknown runner %q", name, lc.Runner)
		}
		if len(lc.Patterns) == 0 {
			return fmt.Errorf("layer %s: no file patterns configured", name)
		}
		for _, p := range lc.Patterns {
			if _, err := filepath.Match(p, ""); err != nil {
				return fmt.Errorf("layer %s: invalid pattern %q: %w", name, p, err)
			}
		}
	}
	return nil
}

// EnabledLayers returns the layers to register, in registration order,
// honoring the --layer selection and the disabled flag.
func (c *Config) EnabledLayers() []string {
	selected := make(map[string]bool, len(c.Flags.Layers))
	for _, name := range c.Flags.Layers {
		selected[name] = true
	}

	var names []string
	for _, name := range DefaultLayerOrder {
		lc, ok := c.Layers[name]
		if !ok || lc.Disabled {
			continue
		}
		if len(selected) > 0 && !selected[name] {
			continue
		}
		names = append(names, name)
	}
	return names
}

// RunContext builds the immutable per-run context handed to every layer.
func (c *Config) RunContext() domain.RunContext {
	layers := make(map[string]domain.LayerOptions, len(c.Layers))
	for name, lc := range c.Layers {
		opts := domain.LayerOptions{
			Root:     lc.Root,
			Patterns: slices.Clone(lc.Patterns),
			SkipDirs: slices.Clone(c.SkipDirs),
			Runner:   lc.Runner,
			Command:  slices.Clone(lc.Command),
			Env:      maps.Clone(lc.Env),
			RealAPI:  lc.RealAPI,
			Cache:    lc.Cache,
			APIKey:   lc.APIKey,
		}
		if lc.MockProvider != nil {
			opts.MockProvider = *lc.MockProvider
		}
		if lc.TimeoutSeconds > 0 {
			opts.Timeout = time.Duration(lc.TimeoutSeconds) * time.Second
		}
		if lc.Database.Enabled {
			opts.Database = c.GetDatabaseName(name)
		}
		layers[name] = opts
	}
	return domain.NewRunContext(c.GetProjectRoot(), c.Timeout(), layers)
}
