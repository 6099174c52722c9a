package bnb

import (
	"container/heap"
	"context"

	"github.com/gitrdm/topdubins/internal/parallel"
)

// task is the unit of work a pool worker evaluates for one popped node:
// feasibility, objective value, and children. Bound computation stays
// on the coordinating goroutine so the queue key is known at push time.
type task struct {
	problem Problem
	bound   float64

	feasible bool
	value    float64
	children []Problem
}

// SolveParallel runs best-bound branch-and-bound over root with a fixed
// pool of workers, mirroring pkg/coordinator's dispatch protocol on the
// same rendezvous worker pool: the coordinating goroutine owns the
// queue, the incumbent, and the pending dispatch slot; workers evaluate
// one node at a time and hand it back on the solved channel.
func SolveParallel(ctx context.Context, root Problem, workers int) Result {
	pool := parallel.NewWorkerPool(workers, func(_ context.Context, t *task) *task {
		t.feasible = t.problem.Feasible()
		if t.feasible {
			t.value = t.problem.Value()
		} else {
			t.children = t.problem.Branch()
		}
		return t
	})
	poolCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	pool.Start(poolCtx)

	q := &boundQueue{}
	heap.Init(q)
	nextID := 1

	var res Result
	res.NodesCreated = 1
	best := negInf
	active := 0
	pending := &task{problem: root, bound: root.Bound()}

loop:
	for {
		var dispatchCh chan *task
		if pending != nil {
			dispatchCh = pool.Unsolved
		}

		select {
		case <-ctx.Done():
			break loop

		case dispatchCh <- pending:
			pending = nil
			active++
			if active > res.MaxParallel {
				res.MaxParallel = active
			}

		case t := <-pool.Solved:
			active--
			if t.feasible {
				res.NodesFeasible++
				if t.value > best {
					best = t.value
					res.BestValue = t.value
					res.BestSolution = t.problem
				}
			} else {
				for _, c := range t.children {
					res.NodesCreated++
					if b := c.Bound(); b > best {
						heap.Push(q, &queueItem{problem: c, bound: b, id: nextID})
						nextID++
					}
				}
			}
		}

		for pending == nil && q.Len() > 0 {
			it := heap.Pop(q).(*queueItem)
			if it.bound <= best {
				continue // incumbent moved past this node while it was queued
			}
			pending = &task{problem: it.problem, bound: it.bound}
		}

		if pending == nil && active == 0 && q.Len() == 0 {
			break
		}
	}

	cancel()
	shutdownDone := make(chan struct{})
	go func() {
		pool.Shutdown()
		close(shutdownDone)
	}()
drain:
	for {
		select {
		case <-pool.Solved:
		case <-shutdownDone:
			break drain
		}
	}

	return res
}
