package branch

import (
	"sort"
	"sync/atomic"

	"github.com/gitrdm/topdubins/pkg/instance"
)

const fractionalTol = 1e-6

// targetFlow returns, for every target visited by some positive-weight
// route in n.LPSolution, the sum of route weights visiting it
// (spec.md §4.4 "per-target flow").
func (n *Node) targetFlow(inst *instance.Instance) map[int]float64 {
	flow := make(map[int]float64)
	for _, rw := range n.LPSolution {
		if rw.Weight <= 0 {
			continue
		}
		seen := make(map[int]bool, len(rw.Route.TargetPath))
		for _, t := range rw.Route.TargetPath {
			if t == inst.SourceTarget || t == inst.DestTarget || seen[t] {
				continue
			}
			seen[t] = true
			flow[t] += rw.Weight
		}
	}
	return flow
}

// targetEdgeFlow returns the sum of route weights traversing each
// consecutive (from,to) target pair (spec.md §4.4 "per-target-pair
// flow").
func (n *Node) targetEdgeFlow() map[[2]int]float64 {
	flow := make(map[[2]int]float64)
	for _, rw := range n.LPSolution {
		if rw.Weight <= 0 {
			continue
		}
		tp := rw.Route.TargetPath
		seen := make(map[[2]int]bool)
		for i := 0; i+1 < len(tp); i++ {
			pair := [2]int{tp[i], tp[i+1]}
			if seen[pair] {
				continue
			}
			seen[pair] = true
			flow[pair] += rw.Weight
		}
	}
	return flow
}

func isFractional(v float64) bool {
	return v > fractionalTol && v < 1-fractionalTol
}

// Branch computes the children of n per spec.md §4.4: branch on the
// most fractional target with the least target-reduced-cost, else on
// a fractional target-edge, else return nil (n's LP solution is already
// integral and needs no further branching).
func (n *Node) Branch(inst *instance.Instance) []*Node {
	if candidate, ok := n.mostFractionalTarget(inst); ok {
		return []*Node{n.targetBranchDelete(candidate), n.targetBranchForce(candidate)}
	}
	if edge, ok := n.mostFractionalEdge(); ok {
		return n.edgeBranch(edge)
	}
	return nil
}

// mostFractionalTarget finds the target whose flow is farthest from
// 0/1, breaking ties by least target-reduced-cost (spec.md §4.4).
func (n *Node) mostFractionalTarget(inst *instance.Instance) (int, bool) {
	flow := n.targetFlow(inst)
	ids := make([]int, 0, len(flow))
	for t := range flow {
		if n.MustVisitTargets[t] {
			continue // already forced: branching on it again is moot
		}
		if isFractional(flow[t]) {
			ids = append(ids, t)
		}
	}
	if len(ids) == 0 {
		return 0, false
	}
	sort.Ints(ids) // deterministic base order before the fractional-then-cost comparison
	best := ids[0]
	bestFrac := fractionalDistance(flow[best])
	bestCost := n.reducedCostOf(best)
	for _, t := range ids[1:] {
		frac := fractionalDistance(flow[t])
		cost := n.reducedCostOf(t)
		if frac > bestFrac || (frac == bestFrac && cost < bestCost) {
			best, bestFrac, bestCost = t, frac, cost
		}
	}
	return best, true
}

func (n *Node) reducedCostOf(t int) float64 {
	if t < len(n.TargetReducedCosts) {
		return n.TargetReducedCosts[t]
	}
	return 0
}

// fractionalDistance measures how far v is from the nearest integer;
// larger means "more fractional" (spec.md §4.4 "most fractional").
func fractionalDistance(v float64) float64 {
	d := v - 0.5
	if d < 0 {
		d = -d
	}
	return 0.5 - d
}

func (n *Node) mostFractionalEdge() (TargetEdge, bool) {
	flow := n.targetEdgeFlow()
	pairs := make([][2]int, 0, len(flow))
	for p := range flow {
		if n.hasMustVisitEdge(p[0], p[1]) {
			continue
		}
		if isFractional(flow[p]) {
			pairs = append(pairs, p)
		}
	}
	if len(pairs) == 0 {
		return TargetEdge{}, false
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i][0] != pairs[j][0] {
			return pairs[i][0] < pairs[j][0]
		}
		return pairs[i][1] < pairs[j][1]
	})
	best := pairs[0]
	bestFrac := fractionalDistance(flow[best])
	for _, p := range pairs[1:] {
		if f := fractionalDistance(flow[p]); f > bestFrac {
			best, bestFrac = p, f
		}
	}
	return TargetEdge{From: best[0], To: best[1]}, true
}

func (n *Node) hasMustVisitEdge(from, to int) bool {
	for _, e := range n.MustVisitTargetEdges {
		if e.From == from && e.To == to {
			return true
		}
	}
	return false
}

func newChild(parent *Node, graph *instance.Graph) *Node {
	return &Node{
		ID:                   atomic.AddInt64(&nextNodeID, 1) - 1,
		Graph:                graph,
		MustVisitTargets:     cloneTargetSet(parent.MustVisitTargets),
		MustVisitTargetEdges: append([]TargetEdge(nil), parent.MustVisitTargetEdges...),
		ParentLPObjective:    parent.LPObjective,
		targetVertices:       parent.targetVertices,
	}
}

func cloneTargetSet(m map[int]bool) map[int]bool {
	out := make(map[int]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// targetBranchDelete builds child (a) of spec.md §4.4's target branch:
// delete every vertex of the candidate target.
func (n *Node) targetBranchDelete(target int) *Node {
	g := n.Graph.Copy()
	for _, v := range n.verticesOfTarget(target) {
		g.RemoveVertex(v)
	}
	return newChild(n, g)
}

// targetBranchForce builds child (b): add the candidate target to
// mustVisitTargets.
func (n *Node) targetBranchForce(target int) *Node {
	c := newChild(n, n.Graph.Copy())
	c.MustVisitTargets[target] = true
	return c
}

// verticesOfTarget returns the vertex ids belonging to target, from
// the instance's VerticesInTarget membership installed at NewRoot and
// inherited by every descendant.
func (n *Node) verticesOfTarget(target int) []int {
	return n.targetVertices[target]
}

// edgeBranch implements spec.md §4.4's two edge-branch shapes,
// depending on whether fromTarget is already in mustVisitTargets.
func (n *Node) edgeBranch(e TargetEdge) []*Node {
	if n.MustVisitTargets[e.From] {
		// "Edge branch, target already forced": two children.
		deleteEdges := n.Graph.Copy()
		n.removeTargetEdges(deleteEdges, e.From, e.To)
		a := newChild(n, deleteEdges)

		b := newChild(n, n.Graph.Copy())
		b.MustVisitTargetEdges = append(b.MustVisitTargetEdges, e)
		return []*Node{a, b}
	}

	// "Edge branch, target not yet forced": three children.
	deleteVertices := n.Graph.Copy()
	for _, v := range n.verticesOfTarget(e.From) {
		deleteVertices.RemoveVertex(v)
	}
	a := newChild(n, deleteVertices)

	forceDeleteEdge := n.Graph.Copy()
	n.removeTargetEdges(forceDeleteEdge, e.From, e.To)
	b := newChild(n, forceDeleteEdge)
	b.MustVisitTargets[e.From] = true

	c := newChild(n, n.Graph.Copy())
	c.MustVisitTargets[e.From] = true
	c.MustVisitTargetEdges = append(c.MustVisitTargetEdges, e)

	return []*Node{a, b, c}
}

// removeTargetEdges deletes every direct edge from a vertex of
// fromTarget to a vertex of toTarget in g.
func (n *Node) removeTargetEdges(g *instance.Graph, fromTarget, toTarget int) {
	toSet := make(map[int]bool, len(n.verticesOfTarget(toTarget)))
	for _, v := range n.verticesOfTarget(toTarget) {
		toSet[v] = true
	}
	for _, u := range n.verticesOfTarget(fromTarget) {
		g.Successors(u, func(w int, _ float64) {
			if toSet[w] {
				g.RemoveEdge(u, w)
			}
		})
	}
}
