// Package colgen implements the per-node column-generation driver of
// spec.md §4.3: alternate solving the set-cover LP and calling the
// pricing engine until no new negative-reduced-cost route appears,
// then solve the final pool as a 0/1 MIP for the node's incumbent.
package colgen

import (
	"errors"
	"fmt"

	"github.com/gitrdm/topdubins/pkg/instance"
	"github.com/gitrdm/topdubins/pkg/plumbing"
	"github.com/gitrdm/topdubins/pkg/pricing"
	"github.com/gitrdm/topdubins/pkg/setcover"
	"github.com/gitrdm/topdubins/pkg/timeguard"
)

// Result is the outcome of column generation at one branch-and-bound
// node.
type Result struct {
	LPFeasible bool
	// LPOptimal reports that the loop ended because pricing produced no
	// new column — the LP bound is the true relaxation optimum for this
	// node, not a deadline-truncated estimate.
	LPOptimal   bool
	LPObjective float64

	// LPX holds the final LP relaxation's (possibly fractional) route
	// weights, indexed like Pool; pkg/branch's node branching (spec.md
	// §4.4) reads per-target/per-target-pair flow from this vector.
	LPX []float64
	// TargetDual holds the final LP's per-target duals, indexed by
	// target id (0 where no covering constraint exists); used as the
	// "target-reduced-cost" tiebreak in §4.4 branching.
	TargetDual []float64

	// MIPFeasible reports whether the final pool yielded a 0/1
	// incumbent (it can be false even when LPFeasible is true, if the
	// pool has no integer-feasible assignment before the deadline).
	MIPFeasible  bool
	MIPObjective float64
	MIPRoutes    []instance.Route

	Pool []instance.Route
}

// emptyEdgeDuals is shared by every pricing call: must-visit
// target-edge constraints are compiled into pricing-graph surgery by
// the node builder (pkg/branch), not into master LP rows, so the
// master LP never produces a genuine per-target-pair dual (spec.md
// §4.3's optional edge-dual master constraints are intentionally
// unused — see DESIGN.md Open Question #1).
var emptyEdgeDuals = map[[2]int]float64{}

// Solve runs the column-generation loop for one node's subgraph and
// constraint set (spec.md §4.3 steps 1-4). mustVisit names the node's
// mustVisitTargets (pkg/branch.Node): nil for the root node, non-nil
// once a target branch has forced a target's presence.
func Solve(inst *instance.Instance, engine *pricing.Engine, guard timeguard.TimeGuard, mustVisit map[int]bool) (Result, error) {
	zeros := make([]float64, inst.NumTargets)
	engine.SetDuals(0, zeros, emptyEdgeDuals)
	seed, err := engine.Solve()
	if err != nil {
		return Result{}, err
	}
	if len(seed) == 0 {
		return Result{LPFeasible: false}, nil
	}

	pool := dedupAppend(nil, seed)
	lpOptimal := false

	for !guard.Expired() {
		model := setcover.NewModel(inst, pool, mustVisit)
		sol, err := model.SolveLP()
		if err != nil {
			return lpFailure(err, pool, mustVisit)
		}

		engine.SetDuals(sol.D0, sol.TargetDual, emptyEdgeDuals)
		newRoutes, err := engine.Solve()
		if err != nil {
			return Result{}, err
		}

		before := len(pool)
		pool = dedupAppend(pool, newRoutes)
		if len(pool) == before {
			lpOptimal = true // no new column: LP is optimal over the full pricing graph
			break
		}
	}

	// Re-solve the LP once more over the final pool so LPX/TargetDual
	// in Result correspond to exactly the Pool returned (the loop above
	// may have grown the pool after its last LP solve, or the deadline
	// may have fired mid-iteration).
	model := setcover.NewModel(inst, pool, mustVisit)
	finalLP, err := model.SolveLP()
	if err != nil {
		return lpFailure(err, pool, mustVisit)
	}

	mipSol, ok := setcover.SolveMIP(model, guard)
	if !ok {
		return Result{
			LPFeasible:  true,
			LPOptimal:   lpOptimal,
			LPObjective: finalLP.Objective,
			LPX:         finalLP.X,
			TargetDual:  finalLP.TargetDual,
			Pool:        pool,
		}, nil
	}

	var mipRoutes []instance.Route
	for _, idx := range model.SelectedRoutes(mipSol) {
		mipRoutes = append(mipRoutes, pool[idx])
	}

	return Result{
		LPFeasible:   true,
		LPOptimal:    lpOptimal,
		LPObjective:  finalLP.Objective,
		LPX:          finalLP.X,
		TargetDual:   finalLP.TargetDual,
		MIPFeasible:  true,
		MIPObjective: mipSol.Objective,
		MIPRoutes:    mipRoutes,
		Pool:         pool,
	}, nil
}

// lpFailure classifies a master-LP solve error. With must-visit
// constraints present, infeasibility is an ordinary branching outcome
// and the node prunes gracefully. On an unconstrained node the LP has a
// feasible slack assignment by construction, so an infeasibility there
// means the LP could not even be built — spec.md §7's
// "LP-infeasible-at-root" hard abort.
func lpFailure(err error, pool []instance.Route, mustVisit map[int]bool) (Result, error) {
	if errors.Is(err, setcover.ErrInfeasible) {
		if len(mustVisit) == 0 {
			return Result{}, fmt.Errorf("%w: %v", plumbing.ErrLPInfeasibleAtRoot, err)
		}
		return Result{LPFeasible: false, Pool: pool}, nil
	}
	return Result{}, err
}

// dedupAppend appends every route in add whose VertexPath key is not
// already present in pool (spec.md §8 invariant 4: "the column pool at
// any time contains routes that are pairwise distinct by vertexPath").
func dedupAppend(pool []instance.Route, add []instance.Route) []instance.Route {
	seen := make(map[string]struct{}, len(pool))
	for _, r := range pool {
		seen[r.Key()] = struct{}{}
	}
	for _, r := range add {
		if _, ok := seen[r.Key()]; ok {
			continue
		}
		seen[r.Key()] = struct{}{}
		pool = append(pool, r)
	}
	return pool
}
