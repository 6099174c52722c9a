package branch

import (
	"testing"
	"time"

	"github.com/gitrdm/topdubins/pkg/instance"
	"github.com/gitrdm/topdubins/pkg/pricing"
	"github.com/gitrdm/topdubins/pkg/timeguard"
	"github.com/stretchr/testify/require"
)

// diamondInstance builds source(0) -> {A(1),B(2)} -> dest(3), so the
// root LP relaxation ties between the two single-target routes when
// only one vehicle is available but both targets score the same.
func diamondInstance() *instance.Instance {
	g := instance.NewGraph(4)
	g.AddEdge(0, 1, 1)
	g.AddEdge(0, 2, 1)
	g.AddEdge(1, 3, 1)
	g.AddEdge(2, 3, 1)

	return &instance.Instance{
		Budget:           10,
		NumVehicles:      1,
		NumTargets:       4,
		NumVertices:      4,
		SourceTarget:     0,
		DestTarget:       3,
		TargetOfVertex:   []int{0, 1, 2, 3},
		VerticesInTarget: [][]int{{0}, {1}, {2}, {3}},
		TargetScores:     []float64{0, 5, 5, 0},
		Graph:            g,
	}
}

func solveNode(t *testing.T, inst *instance.Instance, n *Node) {
	t.Helper()
	guard := timeguard.NewTimeGuard(5 * time.Second)
	cfg := pricing.Config{RouteCap: 32, Dominance: pricing.DominanceConfig{Epsilon: 1e-9}}
	require.NoError(t, n.Solve(inst, cfg, guard))
}

func TestRootSolveReportsFeasibleAndBoundedLP(t *testing.T) {
	inst := diamondInstance()
	root := NewRoot(inst)
	solveNode(t, inst, root)

	require.True(t, root.LPFeasible)
	require.True(t, root.LPOptimal)
	require.InDelta(t, 5.0, root.LPObjective, 1e-6)
	require.True(t, root.MIPObjective <= root.LPObjective+1e-6)
}

func TestTargetBranchChildrenPartitionSearchSpace(t *testing.T) {
	inst := diamondInstance()
	root := NewRoot(inst)
	solveNode(t, inst, root)

	// Force a fractional split by hand (both targets tie, so whichever
	// the LP happens to pick is already integral for a single vehicle;
	// exercise the branch API directly with a synthetic fractional flow).
	root.TargetReducedCosts = []float64{0, -1, -2, 0}
	root.LPSolution = []RouteWeight{
		{Route: instance.Route{VertexPath: []int{0, 1, 3}, TargetPath: []int{0, 1, 3}}, Weight: 0.5},
		{Route: instance.Route{VertexPath: []int{0, 2, 3}, TargetPath: []int{0, 2, 3}}, Weight: 0.5},
	}

	children := root.Branch(inst)
	require.Len(t, children, 2)

	delChild, forceChild := children[0], children[1]
	require.NotEqual(t, delChild.ID, forceChild.ID)
	require.Empty(t, delChild.MustVisitTargets)
	require.True(t, forceChild.MustVisitTargets[2]) // target 2 has the lower (more negative) reduced cost

	// target 2's vertex (the branched-on target) must be gone from the
	// delete child but present in the force child.
	require.False(t, delChild.Graph.HasVertex(2))
	require.True(t, forceChild.Graph.HasVertex(2))

	// Children inherit the parent's LP objective as their bound.
	require.Equal(t, root.LPObjective, delChild.ParentLPObjective)
	require.Equal(t, root.LPObjective, forceChild.ParentLPObjective)
}

func TestEdgeBranchTargetNotYetForcedProducesThreeChildren(t *testing.T) {
	inst := diamondInstance()
	root := NewRoot(inst)
	solveNode(t, inst, root)
	root.LPSolution = []RouteWeight{
		{Route: instance.Route{VertexPath: []int{0, 1, 3}, TargetPath: []int{0, 1, 3}}, Weight: 0.5},
		{Route: instance.Route{VertexPath: []int{0, 2, 3}, TargetPath: []int{0, 2, 3}}, Weight: 0.5},
	}

	children := root.edgeBranch(TargetEdge{From: 1, To: 3})
	require.Len(t, children, 3)

	deleteVertices, forceDeleteEdge, forceBoth := children[0], children[1], children[2]
	require.False(t, deleteVertices.Graph.HasVertex(1))

	require.True(t, forceDeleteEdge.MustVisitTargets[1])
	_, hasEdge := forceDeleteEdge.Graph.Edge(1, 3)
	require.False(t, hasEdge)

	require.True(t, forceBoth.MustVisitTargets[1])
	require.Contains(t, forceBoth.MustVisitTargetEdges, TargetEdge{From: 1, To: 3})
}

func TestEdgeBranchTargetAlreadyForcedProducesTwoChildren(t *testing.T) {
	inst := diamondInstance()
	root := NewRoot(inst)
	root.MustVisitTargets = map[int]bool{1: true}
	solveNode(t, inst, root)
	root.LPSolution = []RouteWeight{
		{Route: instance.Route{VertexPath: []int{0, 1, 3}, TargetPath: []int{0, 1, 3}}, Weight: 0.5},
	}

	children := root.edgeBranch(TargetEdge{From: 1, To: 3})
	require.Len(t, children, 2)

	deleteEdges, addPair := children[0], children[1]
	_, hasEdge := deleteEdges.Graph.Edge(1, 3)
	require.False(t, hasEdge)
	require.Contains(t, addPair.MustVisitTargetEdges, TargetEdge{From: 1, To: 3})
}

func TestBoundMonotonicityViolationIsReported(t *testing.T) {
	inst := diamondInstance()
	root := NewRoot(inst)
	root.ParentLPObjective = 1.0 // lower than the achievable LP objective of 5
	err := root.Solve(inst, pricing.Config{RouteCap: 32, Dominance: pricing.DominanceConfig{Epsilon: 1e-9}}, timeguard.NewTimeGuard(5*time.Second))
	require.Error(t, err)
	var monErr *ErrBoundMonotonicity
	require.ErrorAs(t, err, &monErr)
}
