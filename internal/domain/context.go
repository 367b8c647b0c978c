package domain

import (
	"maps"
	"slices"
	"time"
)

// LayerOptions holds layer specific options as resolved for a single run.
type LayerOptions struct {
	Root         string
	Patterns     []string
	SkipDirs     []string
	Runner       string
	Command      []string
	Timeout      time.Duration
	Env          map[string]string
	MockProvider bool
	RealAPI      bool
	Cache        bool
	APIKey       string
	Database     string
}

func (o LayerOptions) clone() LayerOptions {
	o.Patterns = slices.Clone(o.Patterns)
	o.SkipDirs = slices.Clone(o.SkipDirs)
	o.Command = slices.Clone(o.Command)
	o.Env = maps.Clone(o.Env)
	return o
}

// RunContext is the read-only configuration passed into every layer call.
// It is built once per run; layers only ever see copies of its contents.
type RunContext struct {
	projectRoot string
	timeout     time.Duration
	layers      map[string]LayerOptions
}

// NewRunContext builds a RunContext. The layer map is copied.
func NewRunContext(projectRoot string, timeout time.Duration, layers map[string]LayerOptions) RunContext {
	copied := make(map[string]LayerOptions, len(layers))
	for name, opts := range layers {
		copied[name] = opts.clone()
	}
	return RunContext{
		projectRoot: projectRoot,
		timeout:     timeout,
		layers:      copied,
	}
}

// ProjectRoot is the absolute project root.
func (c RunContext) ProjectRoot() string { return c.projectRoot }

// Timeout is the per-test timeout.
func (c RunContext) Timeout() time.Duration { return c.timeout }

// LayerOptions returns a copy of the options for the named layer.
func (c RunContext) LayerOptions(name string) (LayerOptions, bool) {
	opts, ok := c.layers[name]
	if !ok {
		return LayerOptions{}, false
	}
	return opts.clone(), true
}

// TimeoutFor returns the layer override if set, else the run timeout.
func (c RunContext) TimeoutFor(name string) time.Duration {
	if opts, ok := c.layers[name]; ok && opts.Timeout > 0 {
		return opts.Timeout
	}
	return c.timeout
}
