package execution

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"layertest/internal/logging"
)

// DefaultWaitDelay bounds how long output pipes are drained after the child
// has been killed or has exited.
const DefaultWaitDelay = 500 * time.Millisecond

// Command describes one child process invocation.
type Command struct {
	Args    []string
	Dir     string
	Env     Env
	Timeout time.Duration
}

// Outcome is what a finished (or killed) child left behind.
type Outcome struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Combined string // stdout and stderr interleaved in write order
	Duration time.Duration
	TimedOut bool
}

// Executor runs a single child process to completion.
type Executor interface {
	Run(ctx context.Context, cmd Command) (Outcome, error)
}

var _ Executor = (*ProcessExecutor)(nil)

// ProcessExecutor runs children in their own process group with empty stdin.
type ProcessExecutor struct {
	waitDelay time.Duration
}

// NewProcessExecutor creates a new ProcessExecutor
func NewProcessExecutor() *ProcessExecutor {
	return &ProcessExecutor{waitDelay: DefaultWaitDelay}
}

// Run starts the child and waits for it to exit or for its timeout to
// expire, in which case the whole process group is killed. A non-nil error
// means the child could not be started or ctx was cancelled; a nonzero exit
// code is not an error.
func (e *ProcessExecutor) Run(ctx context.Context, c Command) (Outcome, error) {
	if len(c.Args) == 0 {
		return Outcome{ExitCode: -1}, fmt.Errorf("command cannot be empty")
	}

	runCtx := ctx
	cancel := func() {}
	if c.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, c.Timeout)
	}
	defer cancel()

	cmd := exec.CommandContext(runCtx, c.Args[0], c.Args[1:]...)
	cmd.Dir = c.Dir
	cmd.Env = c.Env.List()
	cmd.Stdin = strings.NewReader("")
	cmd.WaitDelay = e.waitDelay
	setProcessGroup(cmd)

	var stdout, stderr bytes.Buffer
	combined := &lockedBuffer{}
	cmd.Stdout = io.MultiWriter(&stdout, combined)
	cmd.Stderr = io.MultiWriter(&stderr, combined)

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return Outcome{ExitCode: -1, Duration: time.Since(start)}, fmt.Errorf("failed to start command: %w", err)
	}
	runErr := cmd.Wait()

	out := Outcome{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Combined: combined.String(),
		Duration: time.Since(start),
	}

	if runErr != nil && errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		out.TimedOut = true
		out.ExitCode = -1
		logging.Debug("executor", "killed %s after %v", c.Args[0], c.Timeout)
		return out, nil
	}
	if runErr != nil && ctx.Err() != nil {
		out.ExitCode = -1
		return out, fmt.Errorf("execution cancelled: %w", ctx.Err())
	}

	if runErr != nil {
		exitErr := &exec.ExitError{}
		switch {
		case errors.As(runErr, &exitErr):
			out.ExitCode = exitErr.ExitCode()
		case errors.Is(runErr, exec.ErrWaitDelay) && cmd.ProcessState != nil:
			// the child exited but a descendant kept the pipes open
			out.ExitCode = cmd.ProcessState.ExitCode()
		default:
			out.ExitCode = -1
			return out, fmt.Errorf("failed to execute command: %w", runErr)
		}
	}
	return out, nil
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
