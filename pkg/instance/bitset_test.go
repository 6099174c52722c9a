package instance

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTargetSetBasics(t *testing.T) {
	s := NewTargetSet(130) // exercises the 3-word boundary case
	require.False(t, s.Has(5))

	s2 := s.With(5).With(129)
	require.True(t, s2.Has(5))
	require.True(t, s2.Has(129))
	require.Equal(t, 2, s2.Count())
	require.False(t, s.Has(5), "With must not mutate the receiver")
}

func TestSubsetOfNot(t *testing.T) {
	a := NewTargetSet(8).With(1).With(2)
	b := NewTargetSet(8).With(1).With(2).With(3)
	require.True(t, SubsetOfNot(a, NewTargetSet(8), b, NewTargetSet(8)))

	c := NewTargetSet(8).With(4)
	require.False(t, SubsetOfNot(a, NewTargetSet(8), c, NewTargetSet(8)))
}

func TestDisjoint(t *testing.T) {
	a := NewTargetSet(8).With(1)
	b := NewTargetSet(8).With(2)
	require.True(t, Disjoint(a, b))

	c := NewTargetSet(8).With(1)
	require.False(t, Disjoint(a, c))
}
