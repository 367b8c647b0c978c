package layer

import (
	"context"

	"layertest/internal/config"
	"layertest/internal/domain"
	"layertest/internal/execution"
)

// UnitLayer runs plain unit tests. It never claims files below directories
// owned by a more specific layer.
type UnitLayer struct {
	subprocessLayer
}

// NewUnitLayer creates a new UnitLayer
func NewUnitLayer(executor execution.Executor) *UnitLayer {
	return &UnitLayer{subprocessLayer{
		name:     config.LayerUnit,
		exclude:  config.ClaimedSegments,
		executor: executor,
	}}
}

// Run executes one unit test file.
func (l *UnitLayer) Run(ctx context.Context, id string, rc domain.RunContext) domain.Result {
	return l.run(ctx, id, rc, func(domain.LayerOptions) launch {
		return launch{env: map[string]string{"TEST_LAYER": config.LayerUnit}}
	})
}
