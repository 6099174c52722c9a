// Package parallel implements the bounded worker pool behind
// pkg/coordinator's node dispatch (spec.md §4.6, §5): a fixed number
// of long-lived worker goroutines pulling branch-and-bound nodes from
// one rendezvous channel and returning solved nodes on another.
//
// Narrowed from a dynamic-scaling goal-evaluation WorkerPool (queue-depth
// thresholds, a scaling monitor goroutine, per-task panic recovery and
// latency stats, a deadlock detector) down to the fixed-size, two-channel
// protocol spec.md §5 specifies in full: "bounded thread-level
// parallelism — one coordinator task and N worker tasks communicating
// over two typed message channels (unsolved, solved)... channels are
// rendezvous (unbuffered) so the coordinator cannot run arbitrarily
// ahead of workers." A TOP-Dubins node solve always runs to a definite
// LP/MIP result or a deadline, so the auto-scaling and hang-detection
// machinery built for open-ended goal evaluation has no counterpart
// here (see DESIGN.md).
package parallel

import (
	"context"
	"sync"
)

// SolveFunc solves one node and returns it populated with its
// post-solve attributes (spec.md §4.6 step 2, the worker loop body:
// "receive unsolved node -> preprocess subgraph -> run ColumnGenSolver
// -> send solved node back").
type SolveFunc[Node any] func(ctx context.Context, n Node) Node

// WorkerPool runs a fixed number of workers against a pair of
// rendezvous (unbuffered) channels. Unsolved is the coordinator's node
// dispatch channel; Solved is where workers return results.
type WorkerPool[Node any] struct {
	Unsolved chan Node
	Solved   chan Node

	n        int
	solve    SolveFunc[Node]
	workerWg sync.WaitGroup
}

// NewWorkerPool builds a pool of n workers (n<1 is treated as 1), each
// applying solve to every node it receives on Unsolved.
func NewWorkerPool[Node any](n int, solve SolveFunc[Node]) *WorkerPool[Node] {
	if n < 1 {
		n = 1
	}
	return &WorkerPool[Node]{
		Unsolved: make(chan Node),
		Solved:   make(chan Node),
		n:        n,
		solve:    solve,
	}
}

// Start launches the n worker goroutines. Each runs workerLoop until
// ctx is cancelled or Unsolved is closed and drained.
func (p *WorkerPool[Node]) Start(ctx context.Context) {
	p.workerWg.Add(p.n)
	for i := 0; i < p.n; i++ {
		go p.workerLoop(ctx)
	}
}

func (p *WorkerPool[Node]) workerLoop(ctx context.Context) {
	defer p.workerWg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case node, ok := <-p.Unsolved:
			if !ok {
				return
			}
			solved := p.solve(ctx, node)
			select {
			case p.Solved <- solved:
			case <-ctx.Done():
				return
			}
		}
	}
}

// Shutdown closes Unsolved and blocks until every worker goroutine has
// returned. Callers must stop sending on Unsolved before calling this.
func (p *WorkerPool[Node]) Shutdown() {
	close(p.Unsolved)
	p.workerWg.Wait()
}
