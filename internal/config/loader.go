package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment keys read from .env or the process environment.
const (
	EnvAPIKey        = "ANTHROPIC_API_KEY"
	EnvUseRealAPI    = "USE_REAL_API"
	EnvResponseCache = "ENABLE_RESPONSE_CACHE"
)

// Load builds the configuration by layering defaults, the optional project
// config file, the optional .env file and finally command-line flags.
func Load(flags Flags) (*Config, error) {
	cfg := New()
	if flags.ProjectPath != "" {
		cfg.ProjectPath = flags.ProjectPath
	}

	info, err := os.Stat(cfg.ProjectPath)
	if err != nil {
		return nil, fmt.Errorf("project path does not exist: %s", cfg.ProjectPath)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("project path is not a directory: %s", cfg.ProjectPath)
	}

	configPath := filepath.Join(cfg.GetProjectRoot(), DefaultConfigFile)
	explicit := flags.ConfigFile != ""
	if explicit {
		configPath = flags.ConfigFile
		if !filepath.IsAbs(configPath) {
			configPath = filepath.Join(cfg.GetProjectRoot(), configPath)
		}
	}
	cfg.ConfigFile = configPath

	if _, err := os.Stat(configPath); err == nil {
		fileCfg, err := loadConfigFromFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("error loading config from %s: %w", configPath, err)
		}
		cfg.merge(fileCfg)
	} else if explicit {
		return nil, fmt.Errorf("config file not found: %s", configPath)
	}

	cfg.EnvFile = filepath.Join(cfg.GetProjectRoot(), DefaultEnvFile)
	dotenv, err := readDotEnv(cfg.EnvFile)
	if err != nil {
		return nil, err
	}
	cfg.DotEnv = dotenv
	cfg.applyEnvironment()

	cfg.Apply(flags)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadConfigFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &fileCfg, nil
}

// readDotEnv parses the dotenv file without touching the process environment.
func readDotEnv(path string) (map[string]string, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	values, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return values, nil
}

// Lookup returns a value from .env, falling back to the process environment.
func (c *Config) Lookup(key string) (string, bool) {
	if v, ok := c.DotEnv[key]; ok {
		return v, true
	}
	return os.LookupEnv(key)
}

func (c *Config) lookupBool(key string) (value, ok bool) {
	raw, found := c.Lookup(key)
	if !found {
		return false, false
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return b, true
}

func (c *Config) applyEnvironment() {
	contract, ok := c.Layers[LayerContract]
	if !ok {
		return
	}
	if contract.APIKey == "" {
		if key, found := c.Lookup(EnvAPIKey); found && key != "" {
			contract.APIKey = key
		}
	}
	if v, found := c.lookupBool(EnvUseRealAPI); found && v {
		contract.RealAPI = true
	}
	if v, found := c.lookupBool(EnvResponseCache); found && v {
		contract.Cache = true
	}
	c.Layers[LayerContract] = contract
}

// merge overlays non-zero values of other onto c.
func (c *Config) merge(other *Config) {
	if other.ResultsDir != "" {
		c.ResultsDir = other.ResultsDir
	}
	if other.TimeoutSeconds > 0 {
		c.TimeoutSeconds = other.TimeoutSeconds
	}
	if other.Workers > 0 {
		c.Workers = other.Workers
	}
	if len(other.SkipDirs) > 0 {
		c.SkipDirs = append(c.SkipDirs, other.SkipDirs...)
	}
	for name, override := range other.Layers {
		base, ok := c.Layers[name]
		if !ok {
			c.Layers[name] = override
			continue
		}
		c.Layers[name] = mergeLayer(base, override)
	}
}

func mergeLayer(base, override LayerConfig) LayerConfig {
	if override.Root != "" {
		base.Root = override.Root
	}
	if len(override.Patterns) > 0 {
		base.Patterns = override.Patterns
	}
	if override.Runner != "" {
		base.Runner = override.Runner
	}
	if len(override.Command) > 0 {
		base.Command = override.Command
	}
	if override.TimeoutSeconds > 0 {
		base.TimeoutSeconds = override.TimeoutSeconds
	}
	if len(override.Env) > 0 {
		if base.Env == nil {
			base.Env = make(map[string]string, len(override.Env))
		}
		for k, v := range override.Env {
			base.Env[k] = v
		}
	}
	if override.MockProvider != nil {
		base.MockProvider = override.MockProvider
	}
	if override.RealAPI {
		base.RealAPI = true
	}
	if override.Cache {
		base.Cache = true
	}
	if override.APIKey != "" {
		base.APIKey = override.APIKey
	}
	if override.Database.Enabled {
		base.Database = override.Database
	}
	if override.Disabled {
		base.Disabled = true
	}
	return base
}
