package pricing

import (
	"math"

	"github.com/gitrdm/topdubins/pkg/instance"
)

const halfWayEpsilon = 1e-9

// halfWayAccept implements spec.md §4.2's half-way rule: accept a join
// between forward label f and backward label b only if it is the
// canonical meeting point for this path, suppressing the duplicate
// joins a bidirectional search would otherwise generate at every
// interior edge.
func halfWayAccept(f, b *State) bool {
	currDiff := math.Abs(f.PathLength - b.PathLength)
	if currDiff <= halfWayEpsilon {
		return true
	}

	longer, shorter := f, b
	if b.PathLength > f.PathLength {
		longer, shorter = b, f
	}

	otherDiff := math.Inf(1)
	if longer.Parent != nil {
		otherDiff = math.Abs(longer.Parent.PathLength - shorter.PathLength)
	}

	if currDiff < otherDiff {
		return true
	}
	if currDiff > otherDiff {
		return false
	}
	return f.PathLength >= b.PathLength // exact tie: prefer the forward-heavier pair
}

// eligibleForExtension reports whether a label may still be grown by one
// more edge (spec.md §4.2 "Budget-half pruning"): a label whose path
// already covers at least half the budget can only be completed by
// joining with an opposite-direction label, not by further extension.
func eligibleForExtension(s *State, budget float64) bool {
	return s.PathLength < budget/2
}

// feasibleExtension implements the per-edge checks of spec.md §4.2
// "Extension feasibility": budget guard, no-revisit, no 2-cycle, and the
// optional numTargetsVisited cap.
func feasibleExtension(inst *instance.Instance, s *State, newVertex int, edgeLength float64, critical instance.TargetSet, capTargets bool) bool {
	if s.PathLength+edgeLength >= inst.Budget {
		return false
	}
	if capTargets && s.NumTargetsVisited >= inst.NumTargets-1 {
		return false
	}

	newTarget := inst.TargetOfVertex[newVertex]

	if s.Parent != nil && inst.TargetOfVertex[s.Parent.Vertex] == newTarget {
		return false // no 2-cycle in targets
	}

	if critical.Has(newTarget) {
		if s.VisitedCriticalBits.Has(newTarget) {
			return false
		}
		return true
	}

	for cur := s; cur != nil; cur = cur.Parent {
		if inst.TargetOfVertex[cur.Vertex] == newTarget {
			return false
		}
	}
	return true
}

// reducedCostChange returns the per-edge reduced-cost contribution of
// adding newVertex's target (worth vertexScore) to a label currently at
// otherVertex, using the per-target dual r[t] and the per-target-pair
// dual e[t,t'] (spec.md §4.3: "initial per-target reduced cost is
// −targetScores[t]", i.e. r[t] − score[t] when duals start at zero).
// forward reports the route order of the pair: true if otherVertex
// precedes newVertex on the final route, false if newVertex precedes
// otherVertex (backward extension, growing the label towards the
// source).
func reducedCostChange(inst *instance.Instance, edgeDual map[[2]int]float64, targetDual []float64, otherVertex, newVertex int, vertexScore float64, forward bool) float64 {
	newTarget := inst.TargetOfVertex[newVertex]
	change := targetDual[newTarget] - vertexScore
	if otherVertex >= 0 {
		otherTarget := inst.TargetOfVertex[otherVertex]
		key := [2]int{otherTarget, newTarget}
		if !forward {
			key = [2]int{newTarget, otherTarget}
		}
		if e, ok := edgeDual[key]; ok {
			change += e
		}
	}
	return change
}

// extendState builds the child label for extending s to newVertex along
// an edge of length edgeLength, folding in the target's score and
// reduced-cost contribution (spec.md §4.1 "Extension").
func extendState(inst *instance.Instance, s *State, newVertex int, edgeLength float64, critical instance.TargetSet, edgeDual map[[2]int]float64, targetDual []float64, metricMode SelectionMetricMode) *State {
	newTarget := inst.TargetOfVertex[newVertex]
	vertexScore := 0.0
	if newTarget != inst.SourceTarget && newTarget != inst.DestTarget {
		vertexScore = inst.TargetScores[newTarget]
	}
	rcChange := reducedCostChange(inst, edgeDual, targetDual, s.Vertex, newVertex, vertexScore, s.IsForward)
	child := s.Extend(newVertex, newTarget, critical.Has(newTarget), edgeLength, vertexScore, rcChange)
	child.SelectionMetric = selectionMetric(child, metricMode)
	return child
}

func selectionMetric(s *State, mode SelectionMetricMode) float64 {
	if mode == MetricReducedCostPerLength && s.PathLength > 0 {
		return s.ReducedCost / s.PathLength
	}
	return s.ReducedCost
}

// joinFeasible implements spec.md §4.2 "Join acceptance" feasibility
// and reduced-cost checks (the half-way rule is evaluated separately by
// the caller, since it needs sibling-label context the two states alone
// don't carry).
func joinFeasible(inst *instance.Instance, f, b *State, edgeLen, d0 float64, edgeDual map[[2]int]float64) (total float64, ok bool) {
	if !instance.Disjoint(f.VisitedCriticalBits, b.VisitedCriticalBits) {
		return 0, false
	}
	if sharesVisitedTarget(inst, f, b) {
		return 0, false
	}
	if f.PathLength+edgeLen+b.PathLength > inst.Budget {
		return 0, false
	}
	fTarget := inst.TargetOfVertex[f.Vertex]
	bTarget := inst.TargetOfVertex[b.Vertex]
	if f.Parent != nil && inst.TargetOfVertex[f.Parent.Vertex] == bTarget {
		return 0, false
	}
	if b.Parent != nil && inst.TargetOfVertex[b.Parent.Vertex] == fTarget {
		return 0, false
	}

	total = d0 + f.ReducedCost + b.ReducedCost
	if e, ok := edgeDual[[2]int{fTarget, bTarget}]; ok {
		total += e
	}
	if total >= 0 {
		return total, false
	}
	return total, true
}

// sharesVisitedTarget reports whether f's and b's full paths (not just
// their critical bits) visit a common target, which the join acceptance
// rule of spec.md §4.2 forbids regardless of criticality.
func sharesVisitedTarget(inst *instance.Instance, f, b *State) bool {
	seen := make(map[int]struct{}, f.NumTargetsVisited)
	for cur := f; cur != nil; cur = cur.Parent {
		seen[inst.TargetOfVertex[cur.Vertex]] = struct{}{}
	}
	for cur := b; cur != nil; cur = cur.Parent {
		if _, ok := seen[inst.TargetOfVertex[cur.Vertex]]; ok {
			return true
		}
	}
	return false
}

// labelsToRoute materializes the vertex/target path and totals for a
// joined forward/backward label pair. reducedCost is the full route
// reduced cost as computed by joinFeasible (d0 + per-edge and
// per-target dual contributions), not merely f.ReducedCost+b.ReducedCost.
func labelsToRoute(inst *instance.Instance, f, b *State, joinLen, reducedCost float64) instance.Route {
	var fwd []int
	for cur := f; cur != nil; cur = cur.Parent {
		fwd = append(fwd, cur.Vertex)
	}
	reverse(fwd)

	var bwd []int
	for cur := b; cur != nil; cur = cur.Parent {
		bwd = append(bwd, cur.Vertex)
	}
	// bwd is already destination-to-join order; append after fwd as-is.

	path := append(fwd, bwd...)
	targets := make([]int, len(path))
	for i, v := range path {
		targets[i] = inst.TargetOfVertex[v]
	}

	return instance.Route{
		VertexPath:  path,
		TargetPath:  targets,
		Score:       f.Score + b.Score,
		Length:      f.PathLength + joinLen + b.PathLength,
		ReducedCost: reducedCost,
	}
}

func reverse(xs []int) {
	for i, j := 0, len(xs)-1; i < j; i, j = i+1, j-1 {
		xs[i], xs[j] = xs[j], xs[i]
	}
}
