package layer

import (
	"context"

	"layertest/internal/config"
	"layertest/internal/domain"
	"layertest/internal/execution"
)

// ContractLayer runs schema contract tests against the external AI service,
// either for real or through the stubbed backend.
type ContractLayer struct {
	subprocessLayer
}

// NewContractLayer creates a new ContractLayer
func NewContractLayer(executor execution.Executor) *ContractLayer {
	return &ContractLayer{subprocessLayer{
		name:     config.LayerContract,
		executor: executor,
	}}
}

// Run executes one contract test file. The API key is only forwarded when it
// is part of the layer configuration.
func (l *ContractLayer) Run(ctx context.Context, id string, rc domain.RunContext) domain.Result {
	return l.run(ctx, id, rc, func(opts domain.LayerOptions) launch {
		ls := launch{
			env: map[string]string{
				"TEST_LAYER":            config.LayerContract,
				"CONTRACT_TEST":         "1",
				config.EnvUseRealAPI:    boolFlag(opts.RealAPI),
				config.EnvResponseCache: boolFlag(opts.Cache),
			},
			strip: []string{config.EnvAPIKey},
			meta: map[string]any{
				domain.MetaRealAPI:        opts.RealAPI,
				domain.MetaCacheEnabled:   opts.Cache,
				domain.MetaAPIKeyProvided: opts.APIKey != "",
			},
		}
		if opts.APIKey != "" {
			ls.env[config.EnvAPIKey] = opts.APIKey
		}
		return ls
	})
}
