package pricing

import (
	"testing"

	"github.com/gitrdm/topdubins/pkg/instance"
	"github.com/stretchr/testify/require"
)

func TestFeasibleExtensionRejectsBudgetOverrun(t *testing.T) {
	inst := linearChainInstance(2)
	s := NewTerminalState(0, true, inst.NumTargets)
	critical := instance.NewTargetSet(inst.NumTargets)

	require.True(t, feasibleExtension(inst, s, 1, 1, critical, false))
	require.False(t, feasibleExtension(inst, s, 2, 2, critical, false))
}

func TestFeasibleExtensionRejectsNonCriticalRevisit(t *testing.T) {
	inst := linearChainInstance(100)
	critical := instance.NewTargetSet(inst.NumTargets)
	_, td, ed := zeroDuals(inst.NumTargets)

	s := NewTerminalState(0, true, inst.NumTargets)
	s1 := extendState(inst, s, 1, 1, critical, ed, td, MetricReducedCost)

	require.False(t, feasibleExtension(inst, s1, 0, 1, critical, false))
}

func TestFeasibleExtensionRejectsTwoCycle(t *testing.T) {
	inst := linearChainInstance(100)
	critical := instance.NewTargetSet(inst.NumTargets)
	_, td, ed := zeroDuals(inst.NumTargets)

	s := NewTerminalState(0, true, inst.NumTargets)
	s1 := extendState(inst, s, 1, 1, critical, ed, td, MetricReducedCost)
	s2 := extendState(inst, s1, 2, 1, critical, ed, td, MetricReducedCost)

	// s2's parent (s1) shares no target with vertex 0, but s1's own
	// parent (s) owns target 0: extending s1 itself back to vertex 0
	// must be rejected.
	require.False(t, feasibleExtension(inst, s1, 0, 1, critical, false))
	require.True(t, feasibleExtension(inst, s2, 3, 1, critical, false))
}

func TestHalfWayRuleAcceptsCloseLengths(t *testing.T) {
	f := &State{PathLength: 1.0}
	b := &State{PathLength: 1.0 + halfWayEpsilon/2}
	require.True(t, halfWayAccept(f, b))
}

func TestHalfWayRuleNoParentTreatsOtherDiffAsInfinite(t *testing.T) {
	f := &State{PathLength: 5.0} // no parent: always wins currDiff < +Inf
	b := &State{PathLength: 1.0}
	require.True(t, halfWayAccept(f, b))
}

func TestHalfWayRuleRejectsFartherFromCanonicalJoin(t *testing.T) {
	parent := &State{PathLength: 4.8}
	f := &State{PathLength: 5.0, Parent: parent}
	b := &State{PathLength: 1.0}
	// currDiff = 4.0; otherDiff = |4.8-1.0| = 3.8 < currDiff -> reject.
	require.False(t, halfWayAccept(f, b))
}
