package coordinator

import (
	"context"
	"testing"
	"time"

	"github.com/gitrdm/topdubins/pkg/instance"
	"github.com/gitrdm/topdubins/pkg/plumbing"
	"github.com/stretchr/testify/require"
)

// diamondInstance mirrors pkg/branch's fixture: source(0) -> {A(1),B(2)}
// -> dest(3), one vehicle, both targets scoring 5, so the LP root has
// objective 5 and ties between the two single-target routes; only one
// of the two equally-good routes can be taken by the integral MIP.
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

// bothRequiredInstance rewards taking both A and B on a single route:
// the graph is complete (as loaded instances are), the A->B leg is
// cheap, and the budget fits the full chain, so the unique optimal
// integral solution visits every target.
func bothRequiredInstance() *instance.Instance {
	g := instance.NewGraph(4)
	g.AddEdge(0, 1, 1)
	g.AddEdge(1, 2, 1)
	g.AddEdge(2, 3, 1)
	g.AddEdge(0, 2, 2)
	g.AddEdge(1, 3, 2)
	g.AddEdge(0, 3, 3)

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

func testParams() plumbing.Params {
	p := plumbing.DefaultParams()
	p.Workers = 2
	p.Deadline = 5 * time.Second
	p.Epsilon = 1e-4
	return p
}

func TestRunConvergesOnSimpleDiamondInstance(t *testing.T) {
	inst := diamondInstance()
	c := New(inst, testParams())

	res, err := c.Run(context.Background())
	require.NoError(t, err)

	require.True(t, res.OptimalityReached)
	require.InDelta(t, 5.0, res.LowerBound, 1e-6)
	require.InDelta(t, res.LowerBound, res.UpperBound, 1e-3)
	require.GreaterOrEqual(t, res.NodesCreated, 1)
	require.True(t, res.RootLPOptimal)
}

func TestRunFindsFullCoverageWhenRouteVisitsBothTargets(t *testing.T) {
	inst := bothRequiredInstance()
	c := New(inst, testParams())

	res, err := c.Run(context.Background())
	require.NoError(t, err)

	require.True(t, res.OptimalityReached)
	require.InDelta(t, 10.0, res.LowerBound, 1e-6)
	require.Len(t, res.Incumbent, 1)
}

func TestRunInfeasibleBudgetReturnsEmptyIncumbentAfterOneNode(t *testing.T) {
	// Budget below every edge length: no source-to-destination route
	// exists, so the root prices out empty and the run ends after the
	// single root node.
	inst := diamondInstance()
	inst.Budget = 0.5

	c := New(inst, testParams())
	res, err := c.Run(context.Background())
	require.NoError(t, err)

	require.Empty(t, res.Incumbent)
	require.Equal(t, 1, res.NodesCreated)
	require.InDelta(t, 0.0, res.LowerBound, 1e-9)
}

func TestRunDeterministicWithSingleWorker(t *testing.T) {
	params := testParams()
	params.Workers = 1

	run := func() coordinatorSnapshot {
		c := New(diamondInstance(), params)
		res, err := c.Run(context.Background())
		require.NoError(t, err)
		keys := make([]string, len(res.Incumbent))
		for i, r := range res.Incumbent {
			keys[i] = r.Key()
		}
		return coordinatorSnapshot{res.NodesCreated, res.LowerBound, res.UpperBound, keys}
	}

	first := run()
	second := run()
	require.Equal(t, first, second)
}

type coordinatorSnapshot struct {
	nodes  int
	lb, ub float64
	routes []string
}

func TestRunStrictAndRelaxedDominanceAgreeOnFinalLowerBound(t *testing.T) {
	// The objective is dominance-policy-invariant: both settings must
	// land on the same final lower bound, even if they visit a
	// different number of nodes getting there.
	for _, inst := range []*instance.Instance{diamondInstance(), bothRequiredInstance()} {
		relaxedParams := testParams()
		relaxedParams.RelaxedDominance = true
		relaxed, err := New(inst, relaxedParams).Run(context.Background())
		require.NoError(t, err)
		require.True(t, relaxed.OptimalityReached)

		strictParams := testParams()
		strictParams.RelaxedDominance = false
		strict, err := New(inst, strictParams).Run(context.Background())
		require.NoError(t, err)
		require.True(t, strict.OptimalityReached)

		require.InDelta(t, relaxed.LowerBound, strict.LowerBound, 1e-4)
	}
}

func TestRunRespectsContextCancellation(t *testing.T) {
	inst := diamondInstance()
	params := testParams()
	params.Deadline = 0 // unbounded guard; cancellation must still stop the run

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New(inst, params)
	done := make(chan struct{})
	go func() {
		_, _ = c.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}
