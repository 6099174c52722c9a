// Package branch implements the branch-and-bound Node of spec.md §3/§4.4:
// a copy-on-branch vertex subgraph, the must-visit target and
// target-edge constraint sets a node carries, and the post-solve
// attributes the coordinator reads to prune or branch further.
//
// Grounded on pkg/minikanren/solver.go's copy-on-write state discipline
// (a child never mutates a parent's storage; it starts from an
// independent copy) narrowed from that package's sparse domain-chain
// representation to spec.md §4.5's whole-subgraph copy-on-branch, since
// a Node's graph shrinks by vertex/edge removal only and per-node
// label/bit-set arrays need compact, non-chained storage (spec.md §9).
package branch

import (
	"fmt"
	"sync/atomic"

	"github.com/gitrdm/topdubins/pkg/colgen"
	"github.com/gitrdm/topdubins/pkg/instance"
	"github.com/gitrdm/topdubins/pkg/pricing"
	"github.com/gitrdm/topdubins/pkg/timeguard"
)

// TargetEdge is an ordered pair of target ids naming a required
// immediate traversal (spec.md §3 mustVisitTargetEdges).
type TargetEdge struct {
	From, To int
}

var nextNodeID int64

// Node is one branch-and-bound node (spec.md §3).
type Node struct {
	ID    int64
	Graph *instance.Graph

	// MustVisitTargets is the set of target ids a feasible solution at
	// this node must cover (spec.md §4.4 target branch, child b).
	MustVisitTargets map[int]bool
	// MustVisitTargetEdges is the ordered set of required consecutive
	// target traversals (spec.md §4.4 edge branch).
	MustVisitTargetEdges []TargetEdge

	// ParentLPObjective is the parent's lpObjective: the node's initial
	// upper bound and the monotonicity check target (spec.md §3, §7).
	ParentLPObjective float64

	// Post-solve attributes (spec.md §3), populated by Solve.
	LPFeasible  bool
	LPOptimal   bool
	LPIntegral  bool
	LPObjective float64
	// LPSolution pairs each pooled route with its (possibly
	// fractional) LP weight, in the order colgen.Result.Pool/LPX use.
	LPSolution []RouteWeight

	MIPObjective float64
	MIPSolution  []instance.Route

	// TargetReducedCosts holds the final LP's per-target duals,
	// indexed by target id (spec.md §3); used by §4.4 branching to
	// pick "the least target-reduced-cost" among fractional targets.
	TargetReducedCosts []float64

	// targetVertices is inst.VerticesInTarget, installed by NewRoot
	// and copied into every child by newChild so Branch can resolve which vertices a target
	// branch deletes without Node retaining the whole Instance.
	targetVertices [][]int

	// SolveErr records a hard-error abort from Solve (spec.md §7:
	// bound-monotonicity violation, critical-target cycle, pricing
	// failure). The worker pool carries it back to the coordinator on
	// the node itself since its SolveFunc signature returns no error.
	SolveErr error
}

// RouteWeight pairs a pooled route with its LP weight.
type RouteWeight struct {
	Route  instance.Route
	Weight float64
}

// NewRoot builds the root node: the full instance graph, no forced
// targets or edges, and a parent bound of +infinity (so it is never
// pruned by its own parent check).
func NewRoot(inst *instance.Instance) *Node {
	return &Node{
		ID:                atomic.AddInt64(&nextNodeID, 1) - 1,
		Graph:             inst.Graph.Copy(),
		ParentLPObjective: posInf,
		targetVertices:    inst.VerticesInTarget,
	}
}

const posInf = 1e300
const eps = 1e-6

// Solve preprocesses the node's subgraph (spec.md §4.5) and runs column
// generation over it (spec.md §4.3), populating the node's post-solve
// attributes. LP integrality is decided with the package tolerance eps.
func (n *Node) Solve(inst *instance.Instance, cfg pricing.Config, guard timeguard.TimeGuard) error {
	instance.RoundTripPrune(n.Graph, inst.VerticesInTarget[inst.SourceTarget], inst.VerticesInTarget[inst.DestTarget], inst.Budget)

	engine := pricing.NewEngine(inst, n.Graph, cfg, guard)
	if len(n.MustVisitTargetEdges) > 0 {
		required := make(map[[2]int]bool, len(n.MustVisitTargetEdges))
		for _, e := range n.MustVisitTargetEdges {
			required[[2]int{e.From, e.To}] = true
		}
		engine.SetRequiredEdges(required)
	}

	result, err := colgen.Solve(inst, engine, guard, n.MustVisitTargets)
	if err != nil {
		return err
	}

	n.LPFeasible = result.LPFeasible
	if !result.LPFeasible {
		return nil
	}

	n.LPObjective = result.LPObjective
	if n.LPObjective > n.ParentLPObjective+eps {
		return &ErrBoundMonotonicity{NodeID: n.ID, LPObjective: n.LPObjective, ParentLPObjective: n.ParentLPObjective}
	}
	n.LPOptimal = result.LPOptimal
	n.TargetReducedCosts = result.TargetDual

	n.LPSolution = make([]RouteWeight, len(result.Pool))
	for i, r := range result.Pool {
		w := 0.0
		if i < len(result.LPX) {
			w = result.LPX[i]
		}
		n.LPSolution[i] = RouteWeight{Route: r, Weight: w}
	}
	n.LPIntegral = isIntegral(result.LPX)

	if result.MIPFeasible {
		n.MIPObjective = result.MIPObjective
		n.MIPSolution = result.MIPRoutes
		if n.MIPObjective > n.LPObjective+eps {
			return &ErrBoundMonotonicity{NodeID: n.ID, LPObjective: n.MIPObjective, ParentLPObjective: n.LPObjective}
		}
	}
	return nil
}

func isIntegral(x []float64) bool {
	for _, v := range x {
		if v > eps && v < 1-eps {
			return false
		}
	}
	return true
}

// ErrBoundMonotonicity reports a spec.md §7 hard-error condition: a
// child's lpObjective exceeds its parent's beyond tolerance (or a MIP
// objective exceeds its own node's LP objective). Indicates a solver
// or dominance bug.
type ErrBoundMonotonicity struct {
	NodeID            int64
	LPObjective       float64
	ParentLPObjective float64
}

func (e *ErrBoundMonotonicity) Error() string {
	return fmt.Sprintf("branch: node %d violates bound monotonicity (%.6f > %.6f+eps)", e.NodeID, e.LPObjective, e.ParentLPObjective)
}

// Invariant satisfies plumbing.InvariantError.
func (e *ErrBoundMonotonicity) Invariant() string { return "bound-monotonicity" }
