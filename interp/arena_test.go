package interp

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sva-lab/wmc/label"
)

func TestArena_AllocDistinctAddressesPerCall(t *testing.T) {
	a := NewArena()
	x := a.Alloc(label.StorageHeap, 0, 8)
	y := a.Alloc(label.StorageHeap, 0, 8)
	require.NotEqual(t, x.Linear(), y.Linear())
}

func TestArena_UninitializedUntilMarkWritten(t *testing.T) {
	a := NewArena()
	addr := a.Alloc(label.StorageHeap, 0, 8).Linear()
	require.False(t, a.IsInitialized(addr))
	a.MarkWritten(addr)
	require.True(t, a.IsInitialized(addr))
}

func TestArena_FreeRejectsNonBaseAddress(t *testing.T) {
	a := NewArena()
	addr := a.Alloc(label.StorageHeap, 0, 8).Linear()
	require.NoError(t, a.Free(addr))
	require.Error(t, a.Free(addr), "double free of the same base must error")
}

func TestArena_UnmallocUndoesAllocation(t *testing.T) {
	a := NewArena()
	addr := a.Alloc(label.StorageHeap, 0, 4).Linear()
	a.MarkWritten(addr)
	a.Unmalloc(addr, 4)
	require.False(t, a.IsInitialized(addr))
	require.Equal(t, uint64(0), a.SizeOf(addr))
}
