package config

import "time"

const (
	// DefaultProjectPath is the default project path
	DefaultProjectPath = "."
	// DefaultConfigFile is the optional per-project configuration file
	DefaultConfigFile = "layertest.yaml"
	// DefaultEnvFile is the optional dotenv file read for credentials and toggles
	DefaultEnvFile = ".env"
	// DefaultResultsDir is where timestamped reports are written
	DefaultResultsDir = "test-results"
	// DefaultTimeout is applied to every test invocation
	DefaultTimeout = 300 * time.Second
	// DefaultWorkers keeps execution sequential
	DefaultWorkers = 1
	// DefaultDatabasePrefix names provisioned integration schemas
	DefaultDatabasePrefix = "testing"
)

// Layer names, in registration order.
const (
	LayerUnit        = "unit"
	LayerIntegration = "integration"
	LayerContract    = "contract"
)

// Runner names.
const (
	RunnerUnittest = "unittest"
	RunnerPytest   = "pytest"
)

// DefaultLayerOrder is the order layers are registered in.
var DefaultLayerOrder = []string{LayerUnit, LayerIntegration, LayerContract}

// DefaultSkipDirs are never descended into during discovery
var DefaultSkipDirs = []string{
	"__pycache__",
	"node_modules",
	"venv",
	".venv",
	"build",
	"dist",
}

// ClaimedSegments are directories owned by a specialized layer. The unit
// layer never discovers files below them.
var ClaimedSegments = []string{"integration", "contracts", "chaos"}

func defaultLayers() map[string]LayerConfig {
	mock := true
	return map[string]LayerConfig{
		LayerUnit: {
			Root:     "tests",
			Patterns: []string{"test_*.py"},
			Runner:   RunnerUnittest,
		},
		LayerIntegration: {
			Root:         "tests/integration",
			Patterns:     []string{"test_*_integration.py", "test_integration_*.py"},
			Runner:       RunnerUnittest,
			MockProvider: &mock,
		},
		LayerContract: {
			Root:     "tests/contracts",
			Patterns: []string{"test_*_contract.py", "test_contract_*.py"},
			Runner:   RunnerPytest,
		},
	}
}
