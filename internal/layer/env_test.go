package layer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"layertest/internal/config"
	"layertest/internal/domain"
	"layertest/internal/execution"
)

const envScript = `echo "layer=$TEST_LAYER contract=${CONTRACT_TEST:-} integration=${INTEGRATION_TEST:-}"
echo "mock=${USE_MOCK_PROVIDER:-} real=${USE_REAL_API:-} cache=${ENABLE_RESPONSE_CACHE:-}"
echo "key=${ANTHROPIC_API_KEY:-none} db=${DB_DATABASE:-none} extra=${EXTRA:-none}"
echo "collected 1 item"
echo "1 passed in 0.01s"
`

func TestContractLayer_Environment(t *testing.T) {
	t.Setenv(config.EnvAPIKey, "ambient-key")

	dir := t.TempDir()
	writeScript(t, dir, "tests/contracts/test_env_contract.sh", envScript)

	t.Run("key is not forwarded unless configured", func(t *testing.T) {
		opts := shellOptions("tests/contracts", config.RunnerPytest, "test_*_contract.sh")
		rc := newContext(dir, 10*time.Second, map[string]domain.LayerOptions{config.LayerContract: opts})

		result := NewContractLayer(execution.NewProcessExecutor()).Run(context.Background(), "tests/contracts/test_env_contract.sh", rc)
		require.True(t, result.Success(), result.Error())
		assert.Contains(t, result.Output(), "layer=contract contract=1")
		assert.Contains(t, result.Output(), "real=0 cache=0")
		assert.Contains(t, result.Output(), "key=none")
		assert.False(t, result.MetaBool(domain.MetaAPIKeyProvided))
		assert.False(t, result.MetaBool(domain.MetaRealAPI))
		assert.Equal(t, 1, result.MetaInt(domain.MetaTestCount))
	})

	t.Run("configured key and toggles", func(t *testing.T) {
		opts := shellOptions("tests/contracts", config.RunnerPytest, "test_*_contract.sh")
		opts.APIKey = "sk-configured"
		opts.RealAPI = true
		opts.Cache = true
		opts.Env = map[string]string{"EXTRA": "yes"}
		rc := newContext(dir, 10*time.Second, map[string]domain.LayerOptions{config.LayerContract: opts})

		result := NewContractLayer(execution.NewProcessExecutor()).Run(context.Background(), "tests/contracts/test_env_contract.sh", rc)
		require.True(t, result.Success(), result.Error())
		assert.Contains(t, result.Output(), "real=1 cache=1")
		assert.Contains(t, result.Output(), "key=sk-configured")
		assert.Contains(t, result.Output(), "extra=yes")
		assert.True(t, result.MetaBool(domain.MetaAPIKeyProvided))
		assert.True(t, result.MetaBool(domain.MetaRealAPI))
		assert.True(t, result.MetaBool(domain.MetaCacheEnabled))
	})
}

type recordingProvisioner struct {
	names []string
	err   error
}

func (p *recordingProvisioner) EnsureDatabase(_ context.Context, name string) error {
	p.names = append(p.names, name)
	return p.err
}

func TestIntegrationLayer_Environment(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "tests/integration/test_env_integration.sh", envScript)

	opts := shellOptions("tests/integration", config.RunnerPytest, "test_*_integration.sh")
	opts.MockProvider = true
	opts.Database = "testing_integration"
	rc := newContext(dir, 10*time.Second, map[string]domain.LayerOptions{config.LayerIntegration: opts})

	provisioner := &recordingProvisioner{}
	l := NewIntegrationLayer(execution.NewProcessExecutor(), provisioner)

	require.NoError(t, l.Prepare(context.Background(), rc))
	assert.Equal(t, []string{"testing_integration"}, provisioner.names)

	result := l.Run(context.Background(), "tests/integration/test_env_integration.sh", rc)
	require.True(t, result.Success(), result.Error())
	assert.Contains(t, result.Output(), "layer=integration contract= integration=1")
	assert.Contains(t, result.Output(), "mock=1")
	assert.Contains(t, result.Output(), "db=testing_integration")
	assert.True(t, result.MetaBool(domain.MetaMockProvider))
	db, _ := result.Meta(domain.MetaDatabase)
	assert.Equal(t, "testing_integration", db)
}

func TestIntegrationLayer_Prepare(t *testing.T) {
	dir := t.TempDir()

	t.Run("no database configured", func(t *testing.T) {
		rc := newContext(dir, time.Second, map[string]domain.LayerOptions{config.LayerIntegration: {}})
		assert.NoError(t, NewIntegrationLayer(failingExecutor{}, nil).Prepare(context.Background(), rc))
	})

	t.Run("database without provisioner", func(t *testing.T) {
		rc := newContext(dir, time.Second, map[string]domain.LayerOptions{config.LayerIntegration: {Database: "x"}})
		assert.Error(t, NewIntegrationLayer(failingExecutor{}, nil).Prepare(context.Background(), rc))
	})

	t.Run("provisioner failure", func(t *testing.T) {
		rc := newContext(dir, time.Second, map[string]domain.LayerOptions{config.LayerIntegration: {Database: "x"}})
		p := &recordingProvisioner{err: errors.New("connection refused")}
		err := NewIntegrationLayer(failingExecutor{}, p).Prepare(context.Background(), rc)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection refused")
	})
}

func TestLayers_DiscoverDisjoint(t *testing.T) {
	dir := t.TempDir()
	for _, f := range []string{
		"tests/contracts/test_x_contract.py",
		"tests/integration/test_y_integration.py",
		"tests/unit/test_z.py",
		"tests/unit/test_w_contract.py",
		"tests/unit/__init__.py",
	} {
		writeScript(t, dir, f, "")
	}

	cfg := config.New()
	cfg.ProjectPath = dir
	rc := cfg.RunContext()

	claimed := make(map[string]string)
	for _, l := range Defaults(execution.NewProcessExecutor(), nil) {
		first, err := l.Discover(rc)
		require.NoError(t, err)
		second, err := l.Discover(rc)
		require.NoError(t, err)
		assert.Equal(t, first, second)

		for _, id := range first {
			if other, ok := claimed[id]; ok {
				t.Errorf("%s claimed by %s and %s", id, other, l.Name())
			}
			claimed[id] = l.Name()
		}
	}

	assert.Equal(t, map[string]string{
		"tests/contracts/test_x_contract.py":      config.LayerContract,
		"tests/integration/test_y_integration.py": config.LayerIntegration,
		"tests/unit/test_w_contract.py":           config.LayerUnit,
		"tests/unit/test_z.py":                    config.LayerUnit,
	}, claimed)
}
