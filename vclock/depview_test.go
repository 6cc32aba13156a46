package vclock

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDepView_AddRemoveHole(t *testing.T) {
	var dv DepView
	dv.Set(0, 5)
	require.True(t, dv.Contains(0, 3))

	dv.AddHole(0, 3)
	require.False(t, dv.Contains(0, 3), "a hole below max must not be contained")
	require.True(t, dv.Contains(0, 4))

	dv.RemoveHole(0, 3)
	require.True(t, dv.Contains(0, 3))
}

func TestDepView_AddHolesInRange(t *testing.T) {
	var dv DepView
	dv.Set(0, 10)
	dv.AddHolesInRange(0, 2, 5)
	for i := 2; i < 5; i++ {
		require.Falsef(t, dv.Contains(0, i), "index %d should be a hole", i)
	}
	require.True(t, dv.Contains(0, 1))
	require.True(t, dv.Contains(0, 5))
}

// TestDepView_MergeHoleIntersection mirrors original_source/src/DepView.cpp's
// DepView::update: a hole survives only if it is a hole in both operands
// (and lies below the new max), or it is a hole in only one operand whose
// index is above the OTHER operand's pre-merge max (i.e. the other
// operand never had an opinion about that index).
func TestDepView_MergeHoleIntersection(t *testing.T) {
	var a, b DepView

	a.Set(0, 5)
	a.AddHole(0, 2) // a's view of thread 0: max=5, hole={2}

	b.Set(0, 5)
	b.AddHole(0, 3) // b's view of thread 0: max=5, hole={3}

	a.MergeWith(&b)

	// Neither 2 nor 3 is a hole in both, and both are <= both maxes, so
	// the intersection is empty and both become non-holes post merge.
	require.True(t, a.Contains(0, 2))
	require.True(t, a.Contains(0, 3))
}

func TestDepView_MergeHoleSurvivesWhenInBoth(t *testing.T) {
	var a, b DepView
	a.Set(0, 5)
	a.AddHole(0, 2)
	b.Set(0, 5)
	b.AddHole(0, 2)

	a.MergeWith(&b)
	require.False(t, a.Contains(0, 2), "hole present in both operands must survive")
}

func TestDepView_MergeExtendsMaxCarriesNewHoles(t *testing.T) {
	var a, b DepView
	a.Set(0, 2) // a knows nothing past index 2
	b.Set(0, 6)
	b.AddHole(0, 4) // b has a hole at 4, which is beyond a's old max

	a.MergeWith(&b)

	require.Equal(t, 6, a.Get(0))
	require.False(t, a.Contains(0, 4), "hole beyond the growing side's old max must carry over")
	require.True(t, a.Contains(0, 3), "non-hole indices must remain contained")
}

func TestDepView_Clone(t *testing.T) {
	var a DepView
	a.Set(0, 5)
	a.AddHole(0, 2)
	c := a.Clone()
	c.RemoveHole(0, 2)

	require.False(t, a.Contains(0, 2))
	require.True(t, c.Contains(0, 2))
}
