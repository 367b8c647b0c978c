package execution

import (
	"context"
	"sync"

	"layertest/internal/domain"
)

// Task executes one test identifier. It must not panic.
type Task func(ctx context.Context, id string) domain.Result

// WorkerPool runs tasks of one layer with a bounded number of workers.
// Every task still gets its own child process; only dispatch is shared.
type WorkerPool struct {
	workers int
}

// NewWorkerPool creates a new WorkerPool. Fewer than one worker means one.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = 1
	}
	return &WorkerPool{workers: workers}
}

// Workers returns the configured worker count.
func (wp *WorkerPool) Workers() int {
	return wp.workers
}

// Execute runs task for every id and returns the results in the order of
// ids. onResult, if set, is called once per result in completion order and
// never concurrently.
func (wp *WorkerPool) Execute(ctx context.Context, ids []string, task Task, onResult func(domain.Result)) []domain.Result {
	results := make([]domain.Result, len(ids))
	if len(ids) == 0 {
		return results
	}

	if wp.workers == 1 {
		for i, id := range ids {
			results[i] = task(ctx, id)
			if onResult != nil {
				onResult(results[i])
			}
		}
		return results
	}

	type job struct {
		index int
		id    string
	}
	queue := make(chan job, len(ids))
	for i, id := range ids {
		queue <- job{index: i, id: id}
	}
	close(queue)

	workerCount := wp.workers
	if workerCount > len(ids) {
		workerCount = len(ids)
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range queue {
				result := task(ctx, j.id)
				mu.Lock()
				results[j.index] = result
				if onResult != nil {
					onResult(result)
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	return results
}
