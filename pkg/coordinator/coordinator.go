// Package coordinator implements the parallel best-bound
// branch-and-bound driver of spec.md §4.6/§5: it owns the open-node
// queue, the global bound pair and incumbent, and dispatches nodes to
// a fixed pool of worker solvers over two rendezvous channels.
//
// Grounded on pkg/minikanren/optimize_parallel.go's shared-incumbent
// branch-and-bound (atomic bound updates serialized through a single
// owner, node counting, pruning against the current incumbent) and
// internal/parallel.WorkerPool's fixed-size goroutine-per-worker
// channel protocol.
package coordinator

import (
	"container/heap"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/gitrdm/topdubins/internal/parallel"
	"github.com/gitrdm/topdubins/pkg/branch"
	"github.com/gitrdm/topdubins/pkg/instance"
	"github.com/gitrdm/topdubins/pkg/plumbing"
	"github.com/gitrdm/topdubins/pkg/pricing"
	"github.com/gitrdm/topdubins/pkg/timeguard"
)

const (
	negInf = -1e300
	posInf = 1e300
)

// ErrUpperBoundIncrease reports a spec.md §7 hard-error condition: the
// global upper bound rose beyond tolerance between dispatch cycles.
// Indicates a solver or dominance bug; the run aborts.
type ErrUpperBoundIncrease struct {
	Prev, Curr float64
}

func (e *ErrUpperBoundIncrease) Error() string {
	return fmt.Sprintf("coordinator: upper bound increased %.6f -> %.6f", e.Prev, e.Curr)
}

// Invariant satisfies plumbing.InvariantError.
func (e *ErrUpperBoundIncrease) Invariant() string { return "bound-monotonicity" }

// Result is the final state of a Coordinator run (spec.md §4.6/§6).
type Result struct {
	LowerBound float64
	UpperBound float64 // +Inf means "infinity" (spec.md §6)
	Incumbent  []instance.Route

	NodesCreated  int
	NodesFeasible int
	MaxParallel   int

	OptimalityReached bool

	RootLowerBound float64
	RootUpperBound float64
	RootLPOptimal  bool

	Duration time.Duration
}

// Coordinator runs the branch-and-price search of spec.md §4.6. A
// Coordinator is used for exactly one Run call; construct a new one
// per run.
type Coordinator struct {
	inst   *instance.Instance
	params plumbing.Params

	queue    nodeQueue
	inFlight map[int64]float64 // node id -> bound contributed while unsolved (spec.md §9)

	lowerBound float64
	incumbent  []instance.Route

	nodesCreated  int
	nodesFeasible int
	maxParallel   int

	rootSeen   bool
	rootResult Result

	// logger is an explicit collaborator, never package-level state
	// (SPEC_FULL.md "Ambient Stack / Logging"), threaded through Run so
	// node lifecycle events (dispatch, solve, prune, branch) and
	// terminal state (incumbent improvements, deadline, aborts) carry
	// structured node_id/lp_objective/bound_gap attributes.
	logger *slog.Logger
}

// New builds a Coordinator for inst under params. Call Run to execute
// the search. Logs go to slog.Default() until overridden with SetLogger.
func New(inst *instance.Instance, params plumbing.Params) *Coordinator {
	// The empty solution (no vehicle leaves the depot) is always
	// feasible with score 0, so the lower bound starts there rather
	// than at -infinity.
	return &Coordinator{
		inst:     inst,
		params:   params,
		inFlight: make(map[int64]float64),
		logger:   slog.Default(),
	}
}

// SetLogger overrides the coordinator's logger (SPEC_FULL.md "Ambient
// Stack / Logging"). Passing nil restores a no-op logger.
func (c *Coordinator) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	c.logger = l
}

// pricingConfig derives a pricing.Config from the CLI parameter bundle
// (spec.md §6 flags -c, -i, -rd, -u).
func pricingConfig(p plumbing.Params) pricing.Config {
	return pricing.Config{
		Interleaved:   p.Interleaved,
		RouteCap:      p.ColumnCap,
		MaxTargetsCap: p.NumTargetsCapDim,
		Dominance: pricing.DominanceConfig{
			Strict:        !p.RelaxedDominance,
			UseNumVisited: p.NumTargetsCapDim,
			Epsilon:       1e-9,
		},
	}
}

// Run executes the coordinator protocol of spec.md §4.6 to completion
// (deadline, UB-LB convergence, or queue+in-flight exhaustion) and
// returns the best result observed. A non-nil error reports one of
// spec.md §7's hard-abort conditions surfacing from a worker.
func (c *Coordinator) Run(ctx context.Context) (Result, error) {
	start := time.Now()
	guard := timeguard.NewTimeGuard(c.params.Deadline)

	runCtx, cancel := context.WithCancel(ctx)
	if c.params.Deadline > 0 {
		var deadlineCancel context.CancelFunc
		runCtx, deadlineCancel = context.WithTimeout(runCtx, c.params.Deadline)
		defer deadlineCancel()
	}
	defer cancel()

	cfg := pricingConfig(c.params)
	pool := parallel.NewWorkerPool(c.params.Workers, func(_ context.Context, n *branch.Node) *branch.Node {
		if err := n.Solve(c.inst, cfg, guard); err != nil {
			n.SolveErr = err
		}
		return n
	})
	pool.Start(runCtx)

	root := branch.NewRoot(c.inst)
	c.nodesCreated = 1
	c.inFlight[root.ID] = root.ParentLPObjective
	pendingSend := root // spec.md §4.6 step 1: root enqueued as a virtual in-flight slot

	var runErr error
	active := 0 // nodes actually handed to a worker and not yet returned
	prevUB := posInf
	cancelled := false

loop:
	for {
		var dispatchCh chan *branch.Node
		if pendingSend != nil {
			dispatchCh = pool.Unsolved
		}

		select {
		case <-runCtx.Done():
			c.logger.Info("coordinator: context done, draining", "nodes_created", c.nodesCreated)
			cancelled = true
			break loop

		case dispatchCh <- pendingSend:
			c.logger.Debug("coordinator: dispatched node", "node_id", pendingSend.ID, "parent_lp_objective", pendingSend.ParentLPObjective)
			pendingSend = nil
			active++
			if active > c.maxParallel {
				c.maxParallel = active
			}

		case solved := <-pool.Solved:
			active--
			delete(c.inFlight, solved.ID)
			if solved.SolveErr != nil {
				c.logger.Error("coordinator: worker reported hard error, aborting run", "node_id", solved.ID, "error", solved.SolveErr)
				runErr = solved.SolveErr
				break loop
			}
			c.logger.Debug("coordinator: node solved", "node_id", solved.ID, "lp_feasible", solved.LPFeasible, "lp_objective", solved.LPObjective, "lp_integral", solved.LPIntegral)
			c.recordRoot(solved)
			c.handleSolved(solved)

			// spec.md §4.6 step 4: the recomputed upper bound must be
			// monotonically non-increasing within tolerance.
			if ub := c.upperBound(); ub > prevUB+c.params.Epsilon {
				runErr = &ErrUpperBoundIncrease{Prev: prevUB, Curr: ub}
				c.logger.Error("coordinator: aborting run", "error", runErr)
				break loop
			} else {
				prevUB = ub
			}
		}

		if pendingSend == nil && c.queue.Len() > 0 {
			pendingSend = heap.Pop(&c.queue).(*branch.Node)
			c.inFlight[pendingSend.ID] = pendingSend.ParentLPObjective
		}

		if pendingSend == nil && c.queue.Len() == 0 && len(c.inFlight) == 0 {
			break
		}
		if c.upperBound()-c.lowerBound <= c.params.Epsilon {
			break
		}
	}

	cancel() // stop any worker still mid-solve
	shutdownDone := make(chan struct{})
	go func() {
		pool.Shutdown()
		close(shutdownDone)
	}()
	// Drain Solved while Shutdown waits for workers, so one blocked on
	// sending its result can observe ctx.Done() instead of deadlocking.
	// Results that still made it out are folded into the incumbent and
	// bound pair (spec.md §5: on expiration the coordinator "drains any
	// in-flight result into the incumbent/bound pair"). Safe to stop
	// once Shutdown returns: by then every worker has exited and nothing
	// can send on Solved again.
drain:
	for {
		select {
		case solved := <-pool.Solved:
			c.absorbDrained(solved)
		case <-shutdownDone:
			break drain
		}
	}

	ub := c.upperBound()
	if ub >= posInf {
		ub = math.Inf(1) // never solved a node: no finite bound to report
	}
	converged := runErr == nil && ub-c.lowerBound <= c.params.Epsilon
	// A cancelled run cannot claim exhaustion: the drain may have
	// emptied the in-flight map without the tree having been explored.
	exhausted := runErr == nil && !cancelled && c.queue.Len() == 0 && len(c.inFlight) == 0
	deadlineHit := guard.Expired()

	if deadlineHit && runErr == nil {
		c.logger.Info("coordinator: deadline reached, returning best bounds observed", "lower_bound", c.lowerBound, "upper_bound", ub)
	} else if runErr == nil {
		c.logger.Info("coordinator: run finished", "converged", converged, "exhausted", exhausted, "lower_bound", c.lowerBound, "upper_bound", ub, "nodes_created", c.nodesCreated)
	}

	res := Result{
		LowerBound:        c.lowerBound,
		UpperBound:        ub,
		Incumbent:         c.incumbent,
		NodesCreated:      c.nodesCreated,
		NodesFeasible:     c.nodesFeasible,
		MaxParallel:       c.maxParallel,
		OptimalityReached: !deadlineHit && (converged || exhausted),
		RootLowerBound:    c.rootResult.RootLowerBound,
		RootUpperBound:    c.rootResult.RootUpperBound,
		RootLPOptimal:     c.rootResult.RootLPOptimal,
		Duration:          time.Since(start),
	}

	return res, runErr
}

// absorbDrained folds a solved node that arrived after the dispatch
// loop stopped into the incumbent and bound pair, without branching:
// no further nodes will be dispatched, so only the bounds matter.
func (c *Coordinator) absorbDrained(n *branch.Node) {
	delete(c.inFlight, n.ID)
	if n.SolveErr != nil {
		return
	}
	c.recordRoot(n)
	if !n.LPFeasible {
		return
	}
	c.nodesFeasible++
	if n.MIPObjective > c.lowerBound+c.params.Epsilon {
		c.lowerBound = n.MIPObjective
		c.incumbent = n.MIPSolution
	}
}

func (c *Coordinator) recordRoot(n *branch.Node) {
	if c.rootSeen {
		return
	}
	c.rootSeen = true
	c.rootResult.RootLPOptimal = n.LPOptimal
	if n.LPFeasible {
		c.rootResult.RootUpperBound = n.LPObjective
	} else {
		// An infeasible root never produced a finite LP bound; report
		// "infinity" per spec.md §6.
		c.rootResult.RootUpperBound = math.Inf(1)
	}
	if n.MIPSolution != nil {
		c.rootResult.RootLowerBound = n.MIPObjective
	}
}

// handleSolved applies spec.md §4.6 step 3 to one solved node.
func (c *Coordinator) handleSolved(n *branch.Node) {
	if !n.LPFeasible {
		c.logger.Debug("coordinator: pruned node, LP infeasible", "node_id", n.ID)
		return // pruned: (i) LP infeasible
	}
	c.nodesFeasible++

	if n.MIPObjective > c.lowerBound+c.params.Epsilon {
		c.logger.Info("coordinator: new incumbent", "node_id", n.ID, "lower_bound", n.MIPObjective, "routes", len(n.MIPSolution))
		c.lowerBound = n.MIPObjective
		c.incumbent = n.MIPSolution
		c.purgeBelowLowerBound()
	}

	if n.LPObjective <= c.lowerBound+c.params.Epsilon { // (ii)
		c.logger.Debug("coordinator: pruned node, bound dominated", "node_id", n.ID, "lp_objective", n.LPObjective, "lower_bound", c.lowerBound)
		return
	}
	if n.LPIntegral { // (iii): MIPObjective==LPObjective already adopted above
		c.logger.Debug("coordinator: pruned node, LP integral", "node_id", n.ID)
		return
	}
	if abs(n.LPObjective-n.MIPObjective) <= c.params.Epsilon { // (iv)
		c.logger.Debug("coordinator: pruned node, LP/MIP gap closed", "node_id", n.ID)
		return
	}

	children := n.Branch(c.inst)
	c.logger.Debug("coordinator: branching node", "node_id", n.ID, "lp_objective", n.LPObjective, "bound_gap", n.LPObjective-c.lowerBound, "children", len(children))
	for _, child := range children {
		c.nodesCreated++
		heap.Push(&c.queue, child)
	}
}

// purgeBelowLowerBound drops any queued or in-flight node whose bound
// has fallen at or below the new lower bound (spec.md §4.6 step 3, §9
// "purging in-flight upper-bound contributions that now fall below the
// new lower bound").
func (c *Coordinator) purgeBelowLowerBound() {
	kept := c.queue[:0]
	for _, n := range c.queue {
		if n.ParentLPObjective > c.lowerBound+c.params.Epsilon {
			kept = append(kept, n)
		}
	}
	c.queue = kept
	heap.Init(&c.queue)

	for id, bound := range c.inFlight {
		if bound <= c.lowerBound+c.params.Epsilon {
			delete(c.inFlight, id)
		}
	}
}

// upperBound recomputes spec.md §4.6 step 4: the max of the queue
// head's bound and every in-flight contribution.
func (c *Coordinator) upperBound() float64 {
	ub := c.queue.headBound()
	for _, bound := range c.inFlight {
		if bound > ub {
			ub = bound
		}
	}
	if ub == negInf {
		return c.lowerBound
	}
	return ub
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
