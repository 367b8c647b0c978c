package layer

import (
	"context"
	"fmt"

	"layertest/internal/config"
	"layertest/internal/domain"
	"layertest/internal/execution"
	"layertest/internal/logging"
)

// IntegrationLayer runs integration tests against a mock or real provider,
// optionally inside a provisioned database schema.
type IntegrationLayer struct {
	subprocessLayer
	provisioner Provisioner
}

var _ Preparer = (*IntegrationLayer)(nil)

// NewIntegrationLayer creates a new IntegrationLayer. provisioner may be nil
// when no database is configured.
func NewIntegrationLayer(executor execution.Executor, provisioner Provisioner) *IntegrationLayer {
	return &IntegrationLayer{
		subprocessLayer: subprocessLayer{
			name:     config.LayerIntegration,
			executor: executor,
		},
		provisioner: provisioner,
	}
}

// Prepare makes sure the configured schema exists.
func (l *IntegrationLayer) Prepare(ctx context.Context, rc domain.RunContext) error {
	opts, err := l.options(rc)
	if err != nil || opts.Database == "" {
		return err
	}
	if l.provisioner == nil {
		return fmt.Errorf("database %s requested but no provisioner configured", opts.Database)
	}
	logging.Info("layer", "provisioning database %s", opts.Database)
	if err := l.provisioner.EnsureDatabase(ctx, opts.Database); err != nil {
		return fmt.Errorf("provision database %s: %w", opts.Database, err)
	}
	return nil
}

// Run executes one integration test file.
func (l *IntegrationLayer) Run(ctx context.Context, id string, rc domain.RunContext) domain.Result {
	return l.run(ctx, id, rc, func(opts domain.LayerOptions) launch {
		ls := launch{
			env: map[string]string{
				"TEST_LAYER":        config.LayerIntegration,
				"INTEGRATION_TEST":  "1",
				"USE_MOCK_PROVIDER": boolFlag(opts.MockProvider),
			},
			meta: map[string]any{domain.MetaMockProvider: opts.MockProvider},
		}
		if opts.Database != "" {
			ls.env["DB_DATABASE"] = opts.Database
			ls.meta[domain.MetaDatabase] = opts.Database
		}
		return ls
	})
}
