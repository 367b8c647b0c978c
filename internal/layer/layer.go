// Package layer implements the test categories the orchestrator runs. Each
// layer discovers its own test files and runs each one in a child process.
package layer

import (
	"context"

	"layertest/internal/domain"
	"layertest/internal/execution"
)

// Layer discovers and runs the tests of one category.
type Layer interface {
	// Name is the tag recorded in every Result's "layer" metadata.
	Name() string
	// Discover returns sorted, duplicate free identifiers relative to the
	// project root.
	Discover(rc domain.RunContext) ([]string, error)
	// Run executes one identifier. It never panics; every failure mode is
	// reported through the returned Result.
	Run(ctx context.Context, id string, rc domain.RunContext) domain.Result
}

// Preparer is implemented by layers that need setup before discovery.
type Preparer interface {
	Prepare(ctx context.Context, rc domain.RunContext) error
}

// Provisioner creates external fixtures a layer depends on.
type Provisioner interface {
	EnsureDatabase(ctx context.Context, name string) error
}

// Defaults returns the built-in layers in registration order.
func Defaults(executor execution.Executor, provisioner Provisioner) []Layer {
	return []Layer{
		NewUnitLayer(executor),
		NewIntegrationLayer(executor, provisioner),
		NewContractLayer(executor),
	}
}

// Select returns the layers whose names are listed, preserving the order of
// layers.
func Select(layers []Layer, names []string) []Layer {
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}
	var selected []Layer
	for _, l := range layers {
		if wanted[l.Name()] {
			selected = append(selected, l)
		}
	}
	return selected
}

func boolFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
