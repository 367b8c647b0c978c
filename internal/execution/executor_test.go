package execution

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shellEnv() Env {
	return Env{"PATH": os.Getenv("PATH")}
}

func TestProcessExecutor_Run(t *testing.T) {
	executor := NewProcessExecutor()
	ctx := context.Background()

	t.Run("captures exit code and output", func(t *testing.T) {
		out, err := executor.Run(ctx, Command{
			Args: []string{"sh", "-c", "echo out; echo err 1>&2; exit 3"},
			Env:  shellEnv(),
		})
		require.NoError(t, err)
		assert.Equal(t, 3, out.ExitCode)
		assert.Equal(t, "out\n", out.Stdout)
		assert.Equal(t, "err\n", out.Stderr)
		assert.Contains(t, out.Combined, "out\n")
		assert.Contains(t, out.Combined, "err\n")
		assert.False(t, out.TimedOut)
	})

	t.Run("runs in the given directory", func(t *testing.T) {
		dir := t.TempDir()
		out, err := executor.Run(ctx, Command{Args: []string{"sh", "-c", "pwd"}, Dir: dir, Env: shellEnv()})
		require.NoError(t, err)
		resolved, err := filepath.EvalSymlinks(dir)
		require.NoError(t, err)
		assert.Contains(t, out.Stdout, resolved)
	})

	t.Run("uses only the explicit environment", func(t *testing.T) {
		t.Setenv("LAYERTEST_AMBIENT_SECRET", "leak")
		env := shellEnv().With(map[string]string{"LAYERTEST_FLAG": "1"})
		out, err := executor.Run(ctx, Command{
			Args: []string{"sh", "-c", `echo "flag=$LAYERTEST_FLAG secret=$LAYERTEST_AMBIENT_SECRET"`},
			Env:  env,
		})
		require.NoError(t, err)
		assert.Equal(t, "flag=1 secret=\n", out.Stdout)
	})

	t.Run("stdin is empty", func(t *testing.T) {
		out, err := executor.Run(ctx, Command{
			Args:    []string{"sh", "-c", "read line; echo done"},
			Env:     shellEnv(),
			Timeout: 5 * time.Second,
		})
		require.NoError(t, err)
		assert.False(t, out.TimedOut)
		assert.Equal(t, "done\n", out.Stdout)
	})

	t.Run("kills the child on timeout", func(t *testing.T) {
		start := time.Now()
		out, err := executor.Run(ctx, Command{
			Args:    []string{"sh", "-c", "echo started; sleep 30"},
			Env:     shellEnv(),
			Timeout: time.Second,
		})
		elapsed := time.Since(start)
		require.NoError(t, err)
		assert.True(t, out.TimedOut)
		assert.Equal(t, -1, out.ExitCode)
		assert.Contains(t, out.Stdout, "started")
		assert.Less(t, elapsed, 2*time.Second)
	})

	t.Run("kills grandchildren holding the pipes", func(t *testing.T) {
		start := time.Now()
		out, err := executor.Run(ctx, Command{
			Args:    []string{"sh", "-c", "sleep 30 & sleep 30"},
			Env:     shellEnv(),
			Timeout: time.Second,
		})
		require.NoError(t, err)
		assert.True(t, out.TimedOut)
		assert.Less(t, time.Since(start), 2*time.Second)
	})

	t.Run("missing binary is an error", func(t *testing.T) {
		out, err := executor.Run(ctx, Command{Args: []string{"/non/existent/binary"}, Env: shellEnv()})
		assert.Error(t, err)
		assert.Equal(t, -1, out.ExitCode)
	})

	t.Run("empty command is an error", func(t *testing.T) {
		_, err := executor.Run(ctx, Command{})
		assert.Error(t, err)
	})

	t.Run("parent cancellation is reported", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		time.AfterFunc(200*time.Millisecond, cancel)
		out, err := executor.Run(cctx, Command{Args: []string{"sh", "-c", "sleep 30"}, Env: shellEnv(), Timeout: 10 * time.Second})
		assert.Error(t, err)
		assert.False(t, out.TimedOut)
	})
}

func TestEnv(t *testing.T) {
	base := FromEnviron([]string{"A=1", "B=x=y", "malformed", "=novalue"})
	assert.Equal(t, Env{"A": "1", "B": "x=y"}, base)

	overlaid := base.With(map[string]string{"A": "2", "C": "3"})
	assert.Equal(t, "1", base["A"], "With must not modify the receiver")
	assert.Equal(t, []string{"A=2", "B=x=y", "C=3"}, overlaid.List())

	trimmed := overlaid.Without("B", "missing")
	assert.Equal(t, []string{"A=2", "C=3"}, trimmed.List())
	assert.Contains(t, overlaid, "B")

	var empty Env
	assert.NotNil(t, empty.List())
	assert.Empty(t, empty.List())
	assert.Equal(t, Env{"K": "v"}, empty.With(map[string]string{"K": "v"}))
}
