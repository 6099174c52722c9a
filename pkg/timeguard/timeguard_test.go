package timeguard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestZeroValueGuardNeverExpires(t *testing.T) {
	var g TimeGuard
	require.False(t, g.Expired())
	require.Greater(t, g.Remaining(), time.Hour)
}

func TestNonPositiveDeadlineMeansNoDeadline(t *testing.T) {
	g := NewTimeGuard(0)
	require.False(t, g.Expired())

	g = NewTimeGuard(-time.Second)
	require.False(t, g.Expired())
}

func TestGuardExpiresAfterDeadline(t *testing.T) {
	g := NewTimeGuard(time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	require.True(t, g.Expired())
	require.LessOrEqual(t, g.Remaining(), time.Duration(0))
}
