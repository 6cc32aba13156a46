package vclock

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestView_SetAndGet(t *testing.T) {
	var v View
	require.Equal(t, -1, v.Get(0))
	v.Set(0, 3)
	v.Set(2, 5)
	require.Equal(t, 3, v.Get(0))
	require.Equal(t, -1, v.Get(1))
	require.Equal(t, 5, v.Get(2))
}

func TestView_SetIsMonotone(t *testing.T) {
	var v View
	v.Set(0, 5)
	v.Set(0, 2) // must not lower an existing max
	require.Equal(t, 5, v.Get(0))
}

func TestView_ContainsMonotoneUnderMerge(t *testing.T) {
	// P4: Contains is monotone under MergeWith.
	var a, b View
	a.Set(0, 2)
	b.Set(0, 1)
	b.Set(1, 4)

	require.True(t, a.Contains(0, 2))
	require.False(t, a.Contains(1, 4))

	a.MergeWith(&b)

	require.True(t, a.Contains(0, 2), "previously contained event must remain contained")
	require.True(t, a.Contains(1, 4), "event contained by the other operand must now be contained")
}

func TestMerged_DoesNotMutateOperands(t *testing.T) {
	var a, b View
	a.Set(0, 1)
	b.Set(0, 9)

	m := Merged(&a, &b)
	require.Equal(t, 9, m.Get(0))
	require.Equal(t, 1, a.Get(0), "a must be untouched")
	require.Equal(t, 9, b.Get(0), "b must be untouched")
}

func TestView_Clone(t *testing.T) {
	var a View
	a.Set(0, 3)
	c := a.Clone()
	c.Set(0, 9)
	require.Equal(t, 3, a.Get(0))
	require.Equal(t, 9, c.Get(0))
}
