package parallel

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWorkerPoolSolvesEveryDispatchedItem(t *testing.T) {
	var solved int64
	pool := NewWorkerPool(4, func(_ context.Context, n int) int {
		atomic.AddInt64(&solved, 1)
		return n * 2
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)

	const total = 50
	results := make([]int, 0, total)
	done := make(chan struct{})
	go func() {
		for i := 0; i < total; i++ {
			results = append(results, <-pool.Solved)
		}
		close(done)
	}()

	for i := 0; i < total; i++ {
		pool.Unsolved <- i
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for all results")
	}

	pool.Shutdown()
	require.EqualValues(t, total, solved)

	sum := 0
	for _, r := range results {
		sum += r
	}
	// sum of 2*i for i in [0,total) = total*(total-1)
	require.Equal(t, total*(total-1), sum)
}

func TestWorkerPoolStopsOnContextCancel(t *testing.T) {
	blocked := make(chan struct{})
	pool := NewWorkerPool(2, func(ctx context.Context, n int) int {
		<-blocked
		return n
	})

	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)

	cancel()
	close(blocked)

	done := make(chan struct{})
	go func() {
		pool.workerWg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("workers did not exit after context cancellation")
	}
}

func TestNewWorkerPoolClampsNonPositiveCount(t *testing.T) {
	pool := NewWorkerPool(0, func(_ context.Context, n int) int { return n })
	require.Equal(t, 1, pool.n)
}
