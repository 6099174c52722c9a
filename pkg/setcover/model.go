// Package setcover implements the per-node set-cover LP/MIP of
// spec.md §4.3: one variable per pooled route, a route-cap constraint,
// and a per-target at-most-one constraint. The LP is solved with
// gonum's revised-simplex implementation (the same library the pack's
// GoMILP branch-and-bound solver builds on); the 0/1 incumbent reuses
// pkg/bnb's generic best-bound branch-and-bound engine rather than a
// second bespoke tree walker.
package setcover

import "github.com/gitrdm/topdubins/pkg/instance"

// Model is the LP/MIP set-cover formulation over a fixed route pool.
type Model struct {
	inst   *instance.Instance
	routes []instance.Route

	// targetRow maps a non-source/destination target id, for every
	// target covered by at least one pooled route, to its row index
	// in the per-target constraint block.
	targetRow map[int]int

	// mustVisit holds target ids whose per-target constraint is an
	// equality (==1) rather than an at-most-one (<=1): spec.md §4.4's
	// target branch adds a target to a node's mustVisitTargets set,
	// and §4.3 says such nodes get "additional equality constraints
	// force presence ... in the chosen columns."
	mustVisit map[int]bool
}

// NewModel builds the model's constraint structure (which targets get
// a covering constraint) from the current route pool. mustVisit names
// targets a feasible solution at this node must cover (node.MustVisitTargets);
// pass nil for an unconstrained node. Call again whenever the pool grows.
func NewModel(inst *instance.Instance, routes []instance.Route, mustVisit map[int]bool) *Model {
	targetRow := make(map[int]int)
	for _, r := range routes {
		for _, t := range r.TargetPath {
			if t == inst.SourceTarget || t == inst.DestTarget {
				continue
			}
			if _, ok := targetRow[t]; !ok {
				targetRow[t] = len(targetRow)
			}
		}
	}
	// A must-visit target not covered by any pooled route still needs
	// a row so the LP can detect infeasibility (empty equality row,
	// b=1, no column can ever satisfy it) rather than silently
	// ignoring the requirement.
	for t := range mustVisit {
		if _, ok := targetRow[t]; !ok {
			targetRow[t] = len(targetRow)
		}
	}
	return &Model{inst: inst, routes: routes, targetRow: targetRow, mustVisit: mustVisit}
}

// Solution is the result of an LP relaxation or MIP solve.
type Solution struct {
	// X holds the (possibly fractional) weight assigned to each route
	// in the pool, same order as Model.routes.
	X         []float64
	Objective float64

	// D0 and TargetDual are populated by SolveLP only (spec.md §4.3
	// "Dual recovery"). TargetDual is indexed by target id and is 0
	// for targets with no covering constraint (including source/dest).
	D0         float64
	TargetDual []float64
}

// Routes returns the route pool the model was built from, in the same
// order as Solution.X.
func (m *Model) Routes() []instance.Route { return m.routes }

func routeVisits(r instance.Route, target int) bool {
	for _, t := range r.TargetPath {
		if t == target {
			return true
		}
	}
	return false
}
