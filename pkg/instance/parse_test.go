package instance

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "instance.txt")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadSimpleInstance(t *testing.T) {
	body := `targets 3
vehicles 2
budget 100.0
0 0 0
5 0 10
10 0 0
`
	path := writeFixture(t, body)
	inst, err := Load(path, LoadOptions{Discretizations: 1, TurnRadius: 1})
	require.NoError(t, err)

	require.Equal(t, 3, inst.NumTargets)
	require.Equal(t, 2, inst.NumVehicles)
	require.InDelta(t, 100.0, inst.Budget, 1e-9)
	require.Equal(t, 0, inst.SourceTarget)
	require.Equal(t, 2, inst.DestTarget)
	require.InDelta(t, 10.0, inst.TargetScores[1], 1e-9)

	// The source target holds its pseudo vertex first, then the real
	// cluster; travel out of the depot costs the real geometric hop,
	// only the pseudo connector is free.
	require.Len(t, inst.VerticesInTarget[inst.SourceTarget], 2)
	pseudoSrc := inst.VerticesInTarget[inst.SourceTarget][0]
	srcCluster := inst.VerticesInTarget[inst.SourceTarget][1]
	midVertex := inst.VerticesInTarget[1][0]

	w, ok := inst.Graph.Edge(pseudoSrc, srcCluster)
	require.True(t, ok)
	require.InDelta(t, 0, w, 1e-9)

	w, ok = inst.Graph.Edge(srcCluster, midVertex)
	require.True(t, ok)
	require.InDelta(t, 5.0, w, 1e-9)

	_, ok = inst.Graph.Edge(pseudoSrc, midVertex)
	require.False(t, ok, "the pseudo source must reach only its own cluster")
}

func TestLoadRejectsInconsistentHeader(t *testing.T) {
	body := `targets 5
vehicles 1
budget 10
0 0 0
1 0 0
`
	path := writeFixture(t, body)
	_, err := Load(path, LoadOptions{Discretizations: 1, TurnRadius: 1})
	require.ErrorIs(t, err, ErrInconsistentHeader)
}

func TestLoadRejectsMalformedNumber(t *testing.T) {
	body := `targets 2
vehicles 1
budget 10
0 0 0
x y z
`
	path := writeFixture(t, body)
	_, err := Load(path, LoadOptions{Discretizations: 1, TurnRadius: 1})
	require.ErrorIs(t, err, ErrMalformed)
}

func TestRoundTripPruneRemovesUnreachableVertex(t *testing.T) {
	g := NewGraph(3)
	g.AddEdge(0, 1, 50)
	g.AddEdge(1, 2, 60)
	g.AddEdge(0, 2, 5)

	RoundTripPrune(g, []int{0}, []int{2}, 20)

	require.False(t, g.HasVertex(1), "vertex 1's round trip (50+60) exceeds the budget")
	require.True(t, g.HasVertex(0))
	require.True(t, g.HasVertex(2))
}
