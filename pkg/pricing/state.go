// Package pricing implements the elementary-shortest-path pricing
// engine (spec.md §4.2): labeled partial paths (State), and the DSSR /
// I-DSSR label-setting search that produces negative-reduced-cost
// routes for a column-generation dual vector.
//
// State is grounded on pkg/minikanren/solver.go's SolverState: a
// copy-on-write chain of immutable nodes linked by parent pointer.
// Each State is an ordinary heap allocation; there is no pool or arena,
// and a search iteration's labels are left to the garbage collector.
package pricing

import "github.com/gitrdm/topdubins/pkg/instance"

// State is a labeled partial path incident to Vertex, summarizing its
// resource consumption and its critical-target visit vector (spec.md §3).
// A State is immutable except for the two flags Extended and Dominated,
// which the owning engine instance flips in place as bookkeeping.
type State struct {
	IsForward bool
	Parent    *State

	Vertex            int
	PathLength        float64
	Score             float64
	ReducedCost       float64
	NumTargetsVisited int

	VisitedCriticalBits     instance.TargetSet
	UnreachableCriticalBits instance.TargetSet

	// SelectionMetric orders labels in the unprocessed priority queue
	// during interleaved search: plain reduced cost, or reduced-cost
	// per unit length ("bang for buck"), per engine configuration.
	SelectionMetric float64

	Extended  bool
	Dominated bool
}

// NewTerminalState builds the empty-path label used to seed the search
// at every vertex of the source target (forward) or destination target
// (backward) — spec.md §4.1 "Terminal construction."
func NewTerminalState(vertex int, isForward bool, numTargets int) *State {
	return &State{
		IsForward:               isForward,
		Vertex:                  vertex,
		NumTargetsVisited:       1,
		VisitedCriticalBits:     instance.NewTargetSet(numTargets),
		UnreachableCriticalBits: instance.NewTargetSet(numTargets),
	}
}

// Extend returns a new state one edge further along the path, with the
// new vertex's contribution folded in and, when the visited target is
// critical, its bit set in VisitedCriticalBits (spec.md §4.1).
func (s *State) Extend(newVertex int, newTarget int, isCriticalTarget bool, edgeLength, vertexScore, reducedCostChange float64) *State {
	child := &State{
		IsForward:               s.IsForward,
		Parent:                  s,
		Vertex:                  newVertex,
		PathLength:              s.PathLength + edgeLength,
		Score:                   s.Score + vertexScore,
		ReducedCost:             s.ReducedCost + reducedCostChange,
		NumTargetsVisited:       s.NumTargetsVisited + 1,
		VisitedCriticalBits:     s.VisitedCriticalBits,
		UnreachableCriticalBits: s.UnreachableCriticalBits,
	}
	if isCriticalTarget {
		child.VisitedCriticalBits = s.VisitedCriticalBits.With(newTarget)
	}
	return child
}

// DominanceConfig selects which dominance rule variant is active for a
// given pricing engine run (spec.md §4.1: relaxed vs. strict "visit
// condition", and the optional NumTargetsVisited dimension).
type DominanceConfig struct {
	// Strict requires A's visited-critical bits to be a (visited |
	// unreachable) subset of B's, in addition to the scalar comparisons.
	Strict bool
	// UseNumVisited additionally requires A.NumTargetsVisited <=
	// B.NumTargetsVisited (spec.md §4.1, parameter -u).
	UseNumVisited bool
	// Epsilon is the tolerance for "<=" scalar comparisons.
	Epsilon float64
}

// Dominates reports whether a dominates b under cfg, assuming both are
// incident to the same vertex (spec.md §4.1). Dominance requires at
// least one strict inequality among the tracked dimensions so that two
// states with identical scalar fields never mutually dominate.
func (a *State) Dominates(b *State, cfg DominanceConfig) bool {
	if a.ReducedCost > b.ReducedCost+cfg.Epsilon {
		return false
	}
	if a.PathLength > b.PathLength+cfg.Epsilon {
		return false
	}
	strictScalar := a.ReducedCost < b.ReducedCost-cfg.Epsilon || a.PathLength < b.PathLength-cfg.Epsilon

	if cfg.UseNumVisited && a.NumTargetsVisited > b.NumTargetsVisited {
		return false
	}

	if cfg.Strict {
		if !instance.SubsetOfNot(a.VisitedCriticalBits, a.UnreachableCriticalBits, b.VisitedCriticalBits, b.UnreachableCriticalBits) {
			return false
		}
		if strictScalar {
			return true
		}
		// Equal scalars but a genuine subset relation on bits still
		// needs a strict witness somewhere to avoid mutual dominance;
		// a strict subset (fewer bits set) qualifies.
		return a.VisitedCriticalBits.Count()+a.UnreachableCriticalBits.Count() < b.VisitedCriticalBits.Count()+b.UnreachableCriticalBits.Count()
	}

	return strictScalar
}
