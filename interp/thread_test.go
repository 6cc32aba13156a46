package interp

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sva-lab/wmc/deptrack"
	"github.com/sva-lab/wmc/ir"
	"github.com/sva-lab/wmc/label"
)

func simpleModule(fn *ir.Function) *ir.Module {
	mod := ir.NewModule(fn.Name)
	mod.Functions[fn.Name] = fn
	return mod
}

func TestThread_ArithmeticThenRetRunsToCompletionWithoutSuspending(t *testing.T) {
	fn := &ir.Function{
		Name: "main",
		Blocks: []ir.BasicBlock{{Insts: []ir.Instruction{
			{Op: ir.OpAdd, Result: 1, Type: ir.IntType(32),
				Operands: []ir.Value{ir.ConstVal(ir.IntType(32), 2), ir.ConstVal(ir.IntType(32), 3)}},
			{Op: ir.OpRet},
		}}},
	}
	th := NewThread(0, simpleModule(fn), NewArena(), map[string]uint64{}, deptrack.New(0), fn, nil)
	s := th.Start()
	require.True(t, s.Done)
	require.Nil(t, s.Err)
}

func TestThread_LoadFeedsAssertWhichPasses(t *testing.T) {
	fn := &ir.Function{
		Name: "main",
		Blocks: []ir.BasicBlock{{Insts: []ir.Instruction{
			{Op: ir.OpLoad, Result: 1, Type: ir.IntType(32),
				Operands: []ir.Value{ir.ConstVal(ir.IntType(64), 100)}, Ordering: label.Relaxed},
			{Op: ir.OpICmpEq, Result: 2, Type: ir.IntType(1),
				Operands: []ir.Value{ir.RegVal(ir.IntType(32), 1), ir.ConstVal(ir.IntType(32), 42)}},
			{Op: ir.OpCall, Callee: "__VERIFIER_assert", Type: ir.VoidType,
				Args: []ir.Value{ir.RegVal(ir.IntType(1), 2)}},
			{Op: ir.OpRet},
		}}},
	}
	arena := NewArena()
	arena.MarkWritten(100) // an initialized location, so the assert sees the value itself
	th := NewThread(0, simpleModule(fn), arena, map[string]uint64{}, deptrack.New(0), fn, nil)

	s := th.Start()
	require.Equal(t, label.KindRead, s.Kind)
	require.Equal(t, uint64(100), s.Addr)
	require.Equal(t, ir.Reg(1), s.AnnotReg)

	s = th.Resume(42)
	require.True(t, s.Done)
	require.Nil(t, s.Err)
}

func TestThread_LoadFeedsAssertWhichFails(t *testing.T) {
	fn := &ir.Function{
		Name: "main",
		Blocks: []ir.BasicBlock{{Insts: []ir.Instruction{
			{Op: ir.OpLoad, Result: 1, Type: ir.IntType(32),
				Operands: []ir.Value{ir.ConstVal(ir.IntType(64), 100)}, Ordering: label.Relaxed},
			{Op: ir.OpICmpEq, Result: 2, Type: ir.IntType(1),
				Operands: []ir.Value{ir.RegVal(ir.IntType(32), 1), ir.ConstVal(ir.IntType(32), 42)}},
			{Op: ir.OpCall, Callee: "__VERIFIER_assert", Type: ir.VoidType,
				Args: []ir.Value{ir.RegVal(ir.IntType(1), 2)}},
			{Op: ir.OpRet},
		}}},
	}
	arena := NewArena()
	arena.MarkWritten(100) // an initialized location, so the failure comes from the assert itself
	th := NewThread(0, simpleModule(fn), arena, map[string]uint64{}, deptrack.New(0), fn, nil)

	th.Start()
	s := th.Resume(7)
	require.True(t, s.Done)
	require.NotNil(t, s.Err)
}

func TestThread_BranchOnUninitializedLoadReportsPoisonViolation(t *testing.T) {
	fn := &ir.Function{
		Name: "main",
		Blocks: []ir.BasicBlock{
			{Insts: []ir.Instruction{
				{Op: ir.OpLoad, Result: 1, Type: ir.IntType(32),
					Operands: []ir.Value{ir.ConstVal(ir.IntType(64), 200)}, Ordering: label.Relaxed},
				{Op: ir.OpCondBr, Operands: []ir.Value{ir.RegVal(ir.IntType(32), 1)}, Targets: []int{1, 2}},
			}},
			{Insts: []ir.Instruction{{Op: ir.OpRet}}},
			{Insts: []ir.Instruction{{Op: ir.OpRet}}},
		},
	}
	th := NewThread(0, simpleModule(fn), NewArena(), map[string]uint64{}, deptrack.New(0), fn, nil)

	th.Start()
	s := th.Resume(0) // never written: the load's result stays poisoned regardless of the value supplied
	require.True(t, s.Done)
	require.NotNil(t, s.Err)
}

func TestThread_MutexLockRetriesUntilUnlocked(t *testing.T) {
	fn := &ir.Function{
		Name: "main",
		Blocks: []ir.BasicBlock{{Insts: []ir.Instruction{
			{Op: ir.OpCall, Callee: "pthread_mutex_lock", Type: ir.VoidType,
				Args: []ir.Value{ir.ConstVal(ir.IntType(64), 300)}},
			{Op: ir.OpRet},
		}}},
	}
	th := NewThread(0, simpleModule(fn), NewArena(), map[string]uint64{}, deptrack.New(0), fn, nil)

	s := th.Start()
	require.Equal(t, label.KindRead, s.Kind)
	require.Equal(t, label.RMWCas, s.RMW)

	s = th.Resume(1) // held by someone else: retry
	require.Equal(t, label.KindRead, s.Kind)

	s = th.Resume(0) // unlocked: acquire it
	require.Equal(t, label.KindWrite, s.Kind)
	require.Equal(t, uint64(1), s.Val)

	s = th.Resume(0)
	require.True(t, s.Done)
	require.Nil(t, s.Err)
}

func TestThread_PthreadCreateReportsThreadFnAndArg(t *testing.T) {
	fn := &ir.Function{
		Name: "main",
		Blocks: []ir.BasicBlock{{Insts: []ir.Instruction{
			{Op: ir.OpCall, Callee: "pthread_create", ThreadFn: "worker", Type: ir.IntType(32), Result: 1,
				Args: []ir.Value{ir.ConstVal(ir.IntType(64), 7)}},
			{Op: ir.OpRet},
		}}},
	}
	th := NewThread(0, simpleModule(fn), NewArena(), map[string]uint64{}, deptrack.New(0), fn, nil)

	s := th.Start()
	require.Equal(t, label.KindThreadCreate, s.Kind)
	require.Equal(t, "worker", s.ThreadFn)
	require.Equal(t, uint64(7), s.Val)

	s = th.Resume(1)
	require.True(t, s.Done)
}

func TestThread_AssumeFalseEndsThreadWithoutFurtherSteps(t *testing.T) {
	fn := &ir.Function{
		Name: "main",
		Blocks: []ir.BasicBlock{{Insts: []ir.Instruction{
			{Op: ir.OpCall, Callee: "__VERIFIER_assume", Type: ir.VoidType,
				Args: []ir.Value{ir.ConstVal(ir.IntType(32), 0)}},
			// deliberately malformed terminator-less continuation: never reached
			{Op: ir.OpAdd, Result: 9, Type: ir.IntType(32),
				Operands: []ir.Value{ir.ConstVal(ir.IntType(32), 1), ir.ConstVal(ir.IntType(32), 1)}},
		}}},
	}
	th := NewThread(0, simpleModule(fn), NewArena(), map[string]uint64{}, deptrack.New(0), fn, nil)

	s := th.Start()
	require.Equal(t, label.KindAssume, s.Kind)

	s = th.Resume(0)
	require.True(t, s.Done)
	require.Nil(t, s.Err)
}
