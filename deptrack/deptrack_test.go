package deptrack

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRecordResult_MergesOperandDeps(t *testing.T) {
	tr := New(0)
	tr.RecordResult(1) // reg 1 := some load, bound to its Read below
	tr.BindEvent(1, 2)
	tr.RecordResult(2, 1) // reg 2 := reg1 + const

	deps := tr.DataDepsOf(2)
	require.True(t, deps.Contains(0, 2))
	require.False(t, deps.Contains(0, 3))
}

func TestStampBranch_AccumulatesControlDeps(t *testing.T) {
	tr := New(0)
	tr.RecordResult(5)
	tr.StampMemoryAccess(5, 3)
	tr.RecordResult(6, 5)
	tr.StampBranch(6, 4)

	ctrl := tr.CtrlDeps()
	require.True(t, ctrl.Contains(0, 3))
	require.True(t, ctrl.Contains(0, 4))
}

func TestFork_InheritsParentPrefixes(t *testing.T) {
	parent := New(0)
	parent.RecordResult(1)
	parent.StampMemoryAccess(1, 7)

	child := parent.Fork(1)
	require.True(t, child.AddrPODeps().Contains(0, 7))
}

func TestBindEvent_SeedsSelfDependency(t *testing.T) {
	tr := New(0)
	tr.BindEvent(9, 3)
	deps := tr.DataDepsOf(9)
	require.True(t, deps.Contains(0, 3))
	require.False(t, deps.Contains(0, 4))
}

func TestRecordConstant_ResetsToEmpty(t *testing.T) {
	tr := New(0)
	tr.RecordResult(1)
	tr.BindEvent(1, 2)
	tr.RecordResult(2, 1)
	require.True(t, tr.DataDepsOf(2).Contains(0, 2))

	tr.RecordConstant(2)
	require.False(t, tr.DataDepsOf(2).Contains(0, 2))
}
