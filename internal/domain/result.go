package domain

import (
	"maps"
	"time"
)

// Metadata keys recognized across layers.
const (
	MetaLayer     = "layer"
	MetaExitCode  = "exit_code"
	MetaTestCount = "test_count"
	MetaFailures  = "failures"
	MetaErrors    = "errors"
	MetaTimeout   = "timeout"
	MetaRunner    = "runner"
	MetaDialect   = "dialect"

	// Integration layer
	MetaMockProvider = "mock_provider"
	MetaDatabase     = "database"

	// Contract layer
	MetaRealAPI        = "real_api"
	MetaCacheEnabled   = "cache_enabled"
	MetaAPIKeyProvided = "api_key_provided"

	// Set by the orchestrator when a layer itself faults
	MetaLayerError = "layer_error"
	MetaPhase      = "phase"
)

// Result is the outcome of one test invocation. It is built once through
// NewResult and never modified afterwards.
type Result struct {
	name      string
	success   bool
	duration  time.Duration
	timestamp time.Time
	output    string
	err       string
	metadata  map[string]any
}

// ResultOption customizes a Result at construction time.
type ResultOption func(*Result)

// WithOutput attaches captured child output.
func WithOutput(output string) ResultOption {
	return func(r *Result) { r.output = output }
}

// WithError attaches an error message.
func WithError(msg string) ResultOption {
	return func(r *Result) { r.err = msg }
}

// WithTimestamp overrides the completion timestamp (defaults to time.Now).
func WithTimestamp(ts time.Time) ResultOption {
	return func(r *Result) { r.timestamp = ts }
}

// WithMetadata merges layer specific facts into the result metadata.
// The "layer" key cannot be overridden.
func WithMetadata(meta map[string]any) ResultOption {
	return func(r *Result) {
		for k, v := range meta {
			if k == MetaLayer {
				continue
			}
			r.metadata[k] = v
		}
	}
}

// NewResult builds an immutable Result.
func NewResult(name, layer string, success bool, duration time.Duration, opts ...ResultOption) Result {
	r := Result{
		name:      name,
		success:   success,
		duration:  duration,
		timestamp: time.Now(),
		metadata:  map[string]any{MetaLayer: layer},
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

func (r Result) Name() string            { return r.name }
func (r Result) Success() bool           { return r.success }
func (r Result) Duration() time.Duration { return r.duration }
func (r Result) Timestamp() time.Time    { return r.timestamp }
func (r Result) Output() string          { return r.output }
func (r Result) Error() string           { return r.err }

// Layer returns the tag of the layer that produced the result.
func (r Result) Layer() string {
	layer, _ := r.metadata[MetaLayer].(string)
	return layer
}

// Meta returns a single metadata value.
func (r Result) Meta(key string) (any, bool) {
	v, ok := r.metadata[key]
	return v, ok
}

// MetaBool returns a boolean metadata value, false when absent.
func (r Result) MetaBool(key string) bool {
	b, _ := r.metadata[key].(bool)
	return b
}

// MetaInt returns an integer metadata value, 0 when absent.
func (r Result) MetaInt(key string) int {
	i, _ := r.metadata[key].(int)
	return i
}

// MetadataCopy returns a copy of the metadata map.
func (r Result) MetadataCopy() map[string]any {
	return maps.Clone(r.metadata)
}
