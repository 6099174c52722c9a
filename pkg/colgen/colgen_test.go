package colgen

import (
	"testing"
	"time"

	"github.com/gitrdm/topdubins/pkg/instance"
	"github.com/gitrdm/topdubins/pkg/pricing"
	"github.com/gitrdm/topdubins/pkg/timeguard"
	"github.com/stretchr/testify/require"
)

// chainInstance builds source(0) -> A(1) -> B(2) -> dest(3), every edge
// length 1, with a budget loose enough for the full chain.
func chainInstance() *instance.Instance {
	g := instance.NewGraph(4)
	g.AddEdge(0, 1, 1)
	g.AddEdge(1, 2, 1)
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
		TargetScores:     []float64{0, 5, 3, 0},
		Graph:            g,
	}
}

func TestSolveConvergesWithFullCoverageIncumbent(t *testing.T) {
	inst := chainInstance()
	guard := timeguard.NewTimeGuard(5 * time.Second)
	cfg := pricing.Config{RouteCap: 16, Dominance: pricing.DominanceConfig{Epsilon: 1e-9}}
	engine := pricing.NewEngine(inst, inst.Graph, cfg, guard)

	result, err := Solve(inst, engine, guard, nil)
	require.NoError(t, err)
	require.True(t, result.LPFeasible)
	require.True(t, result.MIPFeasible)
	require.InDelta(t, 8.0, result.MIPObjective, 1e-6)
	require.NotEmpty(t, result.Pool)

	require.True(t, result.LPOptimal)

	seen := make(map[string]bool, len(result.Pool))
	for _, r := range result.Pool {
		require.True(t, r.IsElementary())
		require.LessOrEqual(t, r.Length, inst.Budget+1e-9)
		require.False(t, seen[r.Key()], "column pool must be pairwise distinct by vertex path")
		seen[r.Key()] = true
	}
}

func TestSolveReportsInfeasibleWhenNoRouteExists(t *testing.T) {
	g := instance.NewGraph(2)
	inst := &instance.Instance{
		Budget:           10,
		NumVehicles:      1,
		NumTargets:       2,
		NumVertices:      2,
		SourceTarget:     0,
		DestTarget:       1,
		TargetOfVertex:   []int{0, 1},
		VerticesInTarget: [][]int{{0}, {1}},
		TargetScores:     []float64{0, 0},
		Graph:            g, // no edges: source and destination are disconnected
	}
	guard := timeguard.NewTimeGuard(5 * time.Second)
	cfg := pricing.Config{RouteCap: 16, Dominance: pricing.DominanceConfig{Epsilon: 1e-9}}
	engine := pricing.NewEngine(inst, inst.Graph, cfg, guard)

	result, err := Solve(inst, engine, guard, nil)
	require.NoError(t, err)
	require.False(t, result.LPFeasible)
}
