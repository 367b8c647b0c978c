package execution

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"layertest/internal/domain"
)

func TestWorkerPool_Execute(t *testing.T) {
	ids := []string{"a", "b", "c", "d", "e"}
	delays := map[string]time.Duration{"a": 50 * time.Millisecond, "b": 0, "c": 30 * time.Millisecond, "d": 0, "e": 10 * time.Millisecond}

	task := func(ctx context.Context, id string) domain.Result {
		time.Sleep(delays[id])
		return domain.NewResult(id, "unit", id != "c", delays[id])
	}

	for _, workers := range []int{0, 1, 3, 10} {
		pool := NewWorkerPool(workers)
		var calls int32
		results := pool.Execute(context.Background(), ids, task, func(domain.Result) {
			atomic.AddInt32(&calls, 1)
		})

		require.Len(t, results, len(ids))
		for i, id := range ids {
			assert.Equal(t, id, results[i].Name(), "results must keep discovery order")
		}
		assert.False(t, results[2].Success())
		assert.Equal(t, int32(len(ids)), calls)
	}
}

func TestWorkerPool_Empty(t *testing.T) {
	pool := NewWorkerPool(4)
	results := pool.Execute(context.Background(), nil, func(context.Context, string) domain.Result {
		t.Fatal("task must not run")
		return domain.Result{}
	}, nil)
	assert.Empty(t, results)
	assert.Equal(t, 4, pool.Workers())
	assert.Equal(t, 1, NewWorkerPool(-2).Workers())
}
