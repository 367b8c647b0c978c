// Package orchestrator drives the registered layers through discovery and
// execution and aggregates their results.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"layertest/internal/discovery"
	"layertest/internal/domain"
	"layertest/internal/execution"
	"layertest/internal/layer"
	"layertest/internal/logging"
)

// Phases recorded on layer level failures.
const (
	PhasePrepare   = "prepare"
	PhaseDiscovery = "discovery"
	PhaseResume    = "resume"
)

// Options tune a run.
type Options struct {
	// Workers is the per layer concurrency. Values below 2 run tests
	// sequentially.
	Workers int
	// NameFilter keeps only identifiers matching the wildcard pattern.
	NameFilter string
	// ResumeAfter skips every identifier up to and including it, counted
	// across layers in run order. Layers after the one holding it run in
	// full.
	ResumeAfter string
}

// Orchestrator owns the ordered layer registry and the results of one run.
// Results are written by the orchestrator only.
type Orchestrator struct {
	rc     domain.RunContext
	opts   Options
	filter *discovery.Filter
	layers []layer.Layer

	onResult   func(domain.Result)
	onDiscover func(layer string, count int)

	mu      sync.Mutex
	results []domain.Result
	passed  int
	failed  int
}

// New creates an Orchestrator over rc with layers registered in order.
func New(rc domain.RunContext, opts Options, layers ...layer.Layer) *Orchestrator {
	o := &Orchestrator{
		rc:     rc,
		opts:   opts,
		filter: discovery.NewFilter(),
	}
	for _, l := range layers {
		o.Register(l)
	}
	return o
}

// Register appends a layer. Layers run in registration order.
func (o *Orchestrator) Register(l layer.Layer) {
	o.layers = append(o.layers, l)
}

// OnResult sets a hook called once per collected result, never concurrently.
func (o *Orchestrator) OnResult(fn func(domain.Result)) {
	o.onResult = fn
}

// OnDiscover sets a hook called after each layer's discovery with the number
// of tests about to run.
func (o *Orchestrator) OnDiscover(fn func(layer string, count int)) {
	o.onDiscover = fn
}

// Run executes every registered layer and returns all collected results.
// Test and layer failures are recorded as results; Run itself never fails.
// A cancelled ctx stops dispatching new tests. A resume point that no layer
// discovered is recorded as a failed "resume:<id>" result.
func (o *Orchestrator) Run(ctx context.Context) []domain.Result {
	pool := execution.NewWorkerPool(o.opts.Workers)
	resume := discovery.NewResume(o.opts.ResumeAfter)

	for _, l := range o.layers {
		if ctx.Err() != nil {
			logging.Warn("orchestrator", "run cancelled before layer %s", l.Name())
			break
		}

		tests, fault := o.plan(ctx, l)
		if fault != nil {
			o.observe(*fault)
			o.store(*fault)
			continue
		}
		tests = o.filter.FilterByName(resume.Skip(tests), o.opts.NameFilter)
		if o.onDiscover != nil {
			o.onDiscover(l.Name(), len(tests))
		}
		if len(tests) == 0 {
			logging.Info("orchestrator", "layer %s: no tests", l.Name())
			continue
		}

		logging.Info("orchestrator", "layer %s: running %d test(s) with %d worker(s)", l.Name(), len(tests), pool.Workers())
		o.store(pool.Execute(ctx, tests, o.task(l), o.observe)...)
	}

	if !resume.Reached() && ctx.Err() == nil {
		logging.Warn("orchestrator", "resume point %s was not discovered by any layer", o.opts.ResumeAfter)
		res := domain.NewResult(PhaseResume+":"+o.opts.ResumeAfter, PhaseResume, false, 0,
			domain.WithError("resume point not found: "+o.opts.ResumeAfter),
			domain.WithMetadata(map[string]any{
				domain.MetaLayerError: true,
				domain.MetaPhase:      PhaseResume,
			}))
		o.observe(res)
		o.store(res)
	}

	return o.Results()
}

// plan prepares and discovers l, returning either the discovered identifiers
// or a layer level failure result.
func (o *Orchestrator) plan(ctx context.Context, l layer.Layer) (tests []string, fault *domain.Result) {
	start := time.Now()
	phase := PhasePrepare

	defer func() {
		if r := recover(); r != nil {
			res := layerFailure(l.Name(), phase, fmt.Sprintf("panic: %v", r), time.Since(start))
			tests, fault = nil, &res
		}
	}()

	if p, ok := l.(layer.Preparer); ok {
		if err := p.Prepare(ctx, o.rc); err != nil {
			logging.Error("orchestrator", err, "layer %s failed to prepare", l.Name())
			res := layerFailure(l.Name(), phase, err.Error(), time.Since(start))
			return nil, &res
		}
	}

	phase = PhaseDiscovery
	tests, err := l.Discover(o.rc)
	if err != nil {
		logging.Error("orchestrator", err, "layer %s failed discovery", l.Name())
		res := layerFailure(l.Name(), phase, err.Error(), time.Since(start))
		return nil, &res
	}

	return tests, nil
}

// task wraps l.Run so that a panicking layer still yields a result.
func (o *Orchestrator) task(l layer.Layer) execution.Task {
	return func(ctx context.Context, id string) (result domain.Result) {
		start := time.Now()
		defer func() {
			if r := recover(); r != nil {
				logging.Error("orchestrator", fmt.Errorf("%v", r), "layer %s panicked on %s", l.Name(), id)
				result = domain.NewResult(id, l.Name(), false, time.Since(start),
					domain.WithError(fmt.Sprintf("panic while running test: %v", r)),
					domain.WithMetadata(map[string]any{domain.MetaLayerError: true}))
			}
		}()
		return l.Run(ctx, id, o.rc)
	}
}

// observe updates the running totals as results complete.
func (o *Orchestrator) observe(r domain.Result) {
	o.mu.Lock()
	if r.Success() {
		o.passed++
	} else {
		o.failed++
	}
	o.mu.Unlock()

	if o.onResult != nil {
		o.onResult(r)
	}
}

// store keeps results in discovery order once a layer is done.
func (o *Orchestrator) store(results ...domain.Result) {
	o.mu.Lock()
	o.results = append(o.results, results...)
	o.mu.Unlock()
}

func layerFailure(name, phase, msg string, d time.Duration) domain.Result {
	return domain.NewResult(name+":"+phase, name, false, d,
		domain.WithError(msg),
		domain.WithMetadata(map[string]any{
			domain.MetaLayerError: true,
			domain.MetaPhase:      phase,
		}))
}

// Results returns a copy of the collected results, layers in registration
// order and tests in discovery order.
func (o *Orchestrator) Results() []domain.Result {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]domain.Result(nil), o.results...)
}

// Totals returns the running passed and failed counts.
func (o *Orchestrator) Totals() (passed, failed int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.passed, o.failed
}

// AllPassed reports whether no collected result failed.
func (o *Orchestrator) AllPassed() bool {
	_, failed := o.Totals()
	return failed == 0
}

// Report aggregates the collected results.
func (o *Orchestrator) Report(now time.Time) domain.Report {
	return domain.BuildReport(o.Results(), now)
}
