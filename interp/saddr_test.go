package interp

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sva-lab/wmc/label"
)

func TestSAddr_LinearDistinguishesStorageThreadAlloc(t *testing.T) {
	a := SAddr{Storage: label.StorageHeap, ThreadID: 1, AllocID: 0}
	b := SAddr{Storage: label.StorageHeap, ThreadID: 2, AllocID: 0}
	c := SAddr{Storage: label.StorageStatic, ThreadID: 1, AllocID: 0}
	require.NotEqual(t, a.Linear(), b.Linear())
	require.NotEqual(t, a.Linear(), c.Linear())
}

func TestSAddr_PlusStaysWithinSameAllocation(t *testing.T) {
	a := SAddr{Storage: label.StorageHeap, ThreadID: 3, AllocID: 5}
	b := a.Plus(8)
	require.Equal(t, a.Linear()+8, b.Linear())
}
