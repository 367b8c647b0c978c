package layer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"layertest/internal/discovery"
	"layertest/internal/domain"
	"layertest/internal/execution"
	"layertest/internal/logging"
	"layertest/internal/parser"
)

// DefaultPython launches the built-in runners.
const DefaultPython = "python3"

// launch describes the layer specific part of a child invocation.
type launch struct {
	env   map[string]string // overrides on top of the ambient environment
	strip []string          // ambient keys never forwarded
	meta  map[string]any
}

// subprocessLayer holds what every built-in layer shares: discovery via the
// scanner and execution via a child process.
type subprocessLayer struct {
	name     string
	exclude  []string
	executor execution.Executor
}

func (l *subprocessLayer) Name() string { return l.name }

func (l *subprocessLayer) options(rc domain.RunContext) (domain.LayerOptions, error) {
	opts, ok := rc.LayerOptions(l.name)
	if !ok {
		return domain.LayerOptions{}, fmt.Errorf("no configuration for layer %s", l.name)
	}
	return opts, nil
}

func (l *subprocessLayer) Discover(rc domain.RunContext) ([]string, error) {
	opts, err := l.options(rc)
	if err != nil {
		return nil, err
	}

	scanner := discovery.NewScanner(opts.SkipDirs)
	tests, err := scanner.Scan(rc.ProjectRoot(), discovery.Spec{
		Root:            opts.Root,
		Patterns:        opts.Patterns,
		ExcludeSegments: l.exclude,
	})
	if err != nil {
		return nil, fmt.Errorf("%s discovery: %w", l.name, err)
	}
	logging.Debug("layer", "%s discovered %d test(s) under %s", l.name, len(tests), opts.Root)
	return tests, nil
}

// run executes id with the layer specific launch settings.
func (l *subprocessLayer) run(ctx context.Context, id string, rc domain.RunContext, spec func(domain.LayerOptions) launch) (result domain.Result) {
	start := time.Now()
	meta := map[string]any{domain.MetaTimeout: false}

	fail := func(msg string, opts ...domain.ResultOption) domain.Result {
		opts = append(opts, domain.WithError(msg), domain.WithMetadata(meta))
		return domain.NewResult(id, l.name, false, time.Since(start), opts...)
	}

	defer func() {
		if r := recover(); r != nil {
			logging.Error("layer", fmt.Errorf("%v", r), "%s panicked running %s", l.name, id)
			result = fail(fmt.Sprintf("panic while running test: %v", r))
		}
	}()

	opts, err := l.options(rc)
	if err != nil {
		return fail(err.Error())
	}

	dialect, err := parser.DialectFor(opts.Runner)
	if err != nil {
		return fail(err.Error())
	}
	meta[domain.MetaRunner] = opts.Runner
	meta[domain.MetaDialect] = dialect.String()

	ls := spec(opts)
	for k, v := range ls.meta {
		meta[k] = v
	}

	path := filepath.Join(rc.ProjectRoot(), filepath.FromSlash(id))
	if _, err := os.Stat(path); err != nil {
		meta[domain.MetaExitCode] = -1
		if errors.Is(err, fs.ErrNotExist) {
			return fail(fmt.Sprintf("test file not found: %s", id))
		}
		return fail(fmt.Sprintf("test file not accessible: %v", err))
	}

	env := execution.FromEnviron(os.Environ()).
		Without(ls.strip...).
		With(ls.env).
		With(opts.Env)

	timeout := rc.TimeoutFor(l.name)
	outcome, err := l.executor.Run(ctx, execution.Command{
		Args:    commandFor(opts, id),
		Dir:     rc.ProjectRoot(),
		Env:     env,
		Timeout: timeout,
	})

	counts := parser.Parse(dialect, outcome.Combined)
	meta[domain.MetaExitCode] = outcome.ExitCode
	meta[domain.MetaTestCount] = counts.Ran
	meta[domain.MetaFailures] = counts.Failures
	meta[domain.MetaErrors] = counts.Errors
	meta[domain.MetaTimeout] = outcome.TimedOut

	output := domain.WithOutput(outcome.Combined)
	switch {
	case err != nil:
		return fail(fmt.Sprintf("failed to run test: %v", err), output)
	case outcome.TimedOut:
		return fail(fmt.Sprintf("test exceeded timeout of %v", timeout), output)
	case outcome.ExitCode != 0:
		msg := strings.TrimSpace(outcome.Combined)
		if msg == "" {
			msg = fmt.Sprintf("exit code %d", outcome.ExitCode)
		}
		return fail(msg, output)
	}

	return domain.NewResult(id, l.name, true, time.Since(start), output, domain.WithMetadata(meta))
}

// commandFor builds the child argv for id. A configured command prefix
// replaces the built-in python launcher.
func commandFor(opts domain.LayerOptions, id string) []string {
	if len(opts.Command) > 0 {
		args := append([]string{}, opts.Command...)
		return append(args, filepath.FromSlash(id))
	}
	if opts.Runner == "pytest" {
		return []string{DefaultPython, "-m", "pytest", filepath.FromSlash(id)}
	}
	return []string{DefaultPython, "-m", "unittest", moduleName(id)}
}

// moduleName turns tests/unit/test_x.py into tests.unit.test_x.
func moduleName(id string) string {
	return strings.ReplaceAll(strings.TrimSuffix(id, ".py"), "/", ".")
}
