package setcover

import (
	"testing"
	"time"

	"github.com/gitrdm/topdubins/pkg/instance"
	"github.com/gitrdm/topdubins/pkg/timeguard"
	"github.com/stretchr/testify/require"
)

func fixtureInstance() *instance.Instance {
	return &instance.Instance{
		Budget:       100,
		NumVehicles:  1,
		NumTargets:   4,
		SourceTarget: 0,
		DestTarget:   3,
		TargetScores: []float64{0, 5, 3, 0},
	}
}

func fixtureRoutes() []instance.Route {
	return []instance.Route{
		{VertexPath: []int{0, 1, 2, 3}, TargetPath: []int{0, 1, 2, 3}, Score: 8, Length: 3, ReducedCost: -8},
		{VertexPath: []int{0, 1, 3}, TargetPath: []int{0, 1, 3}, Score: 5, Length: 2, ReducedCost: -5},
		{VertexPath: []int{0, 2, 3}, TargetPath: []int{0, 2, 3}, Score: 3, Length: 2, ReducedCost: -3},
	}
}

func TestSolveLPPicksHighestScoringRouteUnderCap(t *testing.T) {
	inst := fixtureInstance()
	model := NewModel(inst, fixtureRoutes(), nil)

	sol, err := model.SolveLP()
	require.NoError(t, err)
	require.InDelta(t, 8.0, sol.Objective, 1e-6)
	require.InDelta(t, 1.0, sol.X[0], 1e-6)
	require.InDelta(t, 0.0, sol.X[1], 1e-6)
	require.InDelta(t, 0.0, sol.X[2], 1e-6)
	require.Len(t, sol.TargetDual, inst.NumTargets)
}

func TestSolveLPEmptyPoolIsInfeasible(t *testing.T) {
	inst := fixtureInstance()
	model := NewModel(inst, nil, nil)

	_, err := model.SolveLP()
	require.ErrorIs(t, err, ErrInfeasible)
}

func TestSolveLPMustVisitForcesLowerScoringRoute(t *testing.T) {
	inst := fixtureInstance()
	routes := []instance.Route{
		{VertexPath: []int{0, 1, 3}, TargetPath: []int{0, 1, 3}, Score: 10, Length: 2},
		{VertexPath: []int{0, 2, 3}, TargetPath: []int{0, 2, 3}, Score: 1, Length: 2},
	}
	// Only one vehicle and one route-pair disjoint in target coverage:
	// without mustVisit, route 0 (score 10) wins outright. Forcing
	// target 2's visit excludes it, since only route 1 covers target 2.
	model := NewModel(inst, routes, map[int]bool{2: true})

	sol, err := model.SolveLP()
	require.NoError(t, err)
	require.InDelta(t, 0.0, sol.X[0], 1e-6)
	require.InDelta(t, 1.0, sol.X[1], 1e-6)
	require.InDelta(t, 1.0, sol.Objective, 1e-6)
}

func TestSolveMIPMatchesIntegralLPOptimum(t *testing.T) {
	inst := fixtureInstance()
	model := NewModel(inst, fixtureRoutes(), nil)

	sol, ok := SolveMIP(model, timeguard.NewTimeGuard(5*time.Second))
	require.True(t, ok)
	require.InDelta(t, 8.0, sol.Objective, 1e-6)

	selected := model.SelectedRoutes(sol)
	require.Equal(t, []int{0}, selected)
}
