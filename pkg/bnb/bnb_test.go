package bnb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestKnapsackSanity is spec.md scenario S1: a branch-and-bound sanity
// check unrelated to the Dubins domain.
func TestKnapsackSanity(t *testing.T) {
	root := NewKnapsack(
		[]float64{24, 2, 20, 4},
		[]float64{8, 1, 5, 4},
		9,
	)

	res := Solve(context.Background(), root)

	require.InDelta(t, 26, res.BestValue, 1e-9)
	require.Greater(t, res.NodesCreated, 1)
	require.LessOrEqual(t, res.NodesFeasible, res.NodesCreated)
}

func TestKnapsackParallelWorkersMatchSequentialOptimum(t *testing.T) {
	root := NewKnapsack(
		[]float64{24, 2, 20, 4},
		[]float64{8, 1, 5, 4},
		9,
	)

	res := SolveParallel(context.Background(), slowProblem{root, 20 * time.Millisecond}, 5)

	require.InDelta(t, 26, res.BestValue, 1e-9)
	require.Greater(t, res.NodesCreated, 1)
	require.LessOrEqual(t, res.NodesFeasible, res.NodesCreated)
	require.Greater(t, res.MaxParallel, 1)
	require.LessOrEqual(t, res.MaxParallel, 5)
}

// slowProblem pads every worker evaluation so concurrent solves overlap
// long enough for MaxParallel to observe them.
type slowProblem struct {
	Problem
	delay time.Duration
}

func (s slowProblem) Feasible() bool {
	time.Sleep(s.delay)
	return s.Problem.Feasible()
}

func (s slowProblem) Branch() []Problem {
	children := s.Problem.Branch()
	out := make([]Problem, len(children))
	for i, c := range children {
		out[i] = slowProblem{c, s.delay}
	}
	return out
}

func TestKnapsackSingleWorkerNeverOverlapsSolves(t *testing.T) {
	root := NewKnapsack(
		[]float64{24, 2, 20, 4},
		[]float64{8, 1, 5, 4},
		9,
	)

	res := SolveParallel(context.Background(), root, 1)

	require.InDelta(t, 26, res.BestValue, 1e-9)
	require.Equal(t, 1, res.MaxParallel)
}

func TestKnapsackInfeasibleRootCapacity(t *testing.T) {
	root := NewKnapsack([]float64{5}, []float64{10}, 0)
	res := Solve(context.Background(), root)
	require.InDelta(t, 0, res.BestValue, 1e-9)
}

func TestBoundNeverIncreasesAfterBranch(t *testing.T) {
	root := NewKnapsack(
		[]float64{24, 2, 20, 4},
		[]float64{8, 1, 5, 4},
		9,
	)
	parentBound := root.Bound()
	for _, c := range root.Branch() {
		require.LessOrEqual(t, c.Bound(), parentBound+1e-9)
	}
}
