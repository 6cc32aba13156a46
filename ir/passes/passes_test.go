package passes

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sva-lab/wmc/ir"
	"github.com/sva-lab/wmc/label"
)

func moduleWithInsts(insts ...ir.Instruction) *ir.Module {
	mod := ir.NewModule("main")
	mod.Functions["main"] = &ir.Function{Name: "main", Blocks: []ir.BasicBlock{{Insts: insts}}}
	return mod
}

func TestVerify_WellFormedModule_OK(t *testing.T) {
	mod := moduleWithInsts(
		ir.Instruction{Op: ir.OpStore, Type: ir.IntType(32), Ordering: label.Release,
			Operands: []ir.Value{ir.ConstVal(ir.IntType(64), 8), ir.ConstVal(ir.IntType(32), 1)}},
		ir.Instruction{Op: ir.OpLoad, Result: 1, Type: ir.IntType(32), Ordering: label.Acquire,
			Operands: []ir.Value{ir.ConstVal(ir.IntType(64), 8)}},
		ir.Instruction{Op: ir.OpCall, Callee: "__VERIFIER_assert", Type: ir.VoidType,
			Args: []ir.Value{ir.RegVal(ir.IntType(1), 1)}},
		ir.Instruction{Op: ir.OpRet},
	)
	require.NoError(t, Verify(mod))
}

func TestVerify_UnknownCallTarget_ReturnsUnsupportedIntrinsic(t *testing.T) {
	mod := moduleWithInsts(
		ir.Instruction{Op: ir.OpCall, Callee: "not_a_real_function", Type: ir.VoidType},
	)
	err := Verify(mod)
	require.Error(t, err)
	te, ok := err.(*ir.TranslationError)
	require.True(t, ok)
	require.Equal(t, ir.UnsupportedIntrinsic, te.Kind)
	require.Equal(t, "main", te.Func)
}

func TestVerify_CallToModuleFunction_OK(t *testing.T) {
	mod := moduleWithInsts(
		ir.Instruction{Op: ir.OpCall, Callee: "helper", Type: ir.VoidType},
	)
	mod.Functions["helper"] = &ir.Function{Name: "helper", Blocks: []ir.BasicBlock{{Insts: []ir.Instruction{{Op: ir.OpRet}}}}}
	require.NoError(t, Verify(mod))
}

func TestVerify_AtomicStoreWithNaOrdering_ReturnsUnsupportedOrdering(t *testing.T) {
	mod := moduleWithInsts(
		ir.Instruction{Op: ir.OpAtomicStore, Type: ir.IntType(32), Ordering: label.Na,
			Operands: []ir.Value{ir.ConstVal(ir.IntType(64), 8), ir.ConstVal(ir.IntType(32), 1)}},
	)
	err := Verify(mod)
	require.Error(t, err)
	te, ok := err.(*ir.TranslationError)
	require.True(t, ok)
	require.Equal(t, ir.UnsupportedOrdering, te.Kind)
}

func TestVerify_AtomicRMWWithNaOrdering_ReturnsUnsupportedOrdering(t *testing.T) {
	mod := moduleWithInsts(
		ir.Instruction{Op: ir.OpAtomicRMW, Type: ir.IntType(32), Ordering: label.Na,
			Operands: []ir.Value{ir.ConstVal(ir.IntType(64), 8), ir.ConstVal(ir.IntType(32), 1)}},
	)
	err := Verify(mod)
	require.Error(t, err)
	te, ok := err.(*ir.TranslationError)
	require.True(t, ok)
	require.Equal(t, ir.UnsupportedOrdering, te.Kind)
}

func TestVerify_CmpXchgWithNonNaOrdering_OK(t *testing.T) {
	mod := moduleWithInsts(
		ir.Instruction{Op: ir.OpCmpXchg, Type: ir.IntType(32), Ordering: label.AcqRel,
			Operands: []ir.Value{ir.ConstVal(ir.IntType(64), 8), ir.ConstVal(ir.IntType(32), 0), ir.ConstVal(ir.IntType(32), 1)}},
	)
	require.NoError(t, Verify(mod))
}

func TestVerify_LoadTaggedRelease_ReturnsUnsupportedOrdering(t *testing.T) {
	mod := moduleWithInsts(
		ir.Instruction{Op: ir.OpLoad, Result: 1, Type: ir.IntType(32), Ordering: label.Release,
			Operands: []ir.Value{ir.ConstVal(ir.IntType(64), 8)}},
	)
	err := Verify(mod)
	require.Error(t, err)
	te, ok := err.(*ir.TranslationError)
	require.True(t, ok)
	require.Equal(t, ir.UnsupportedOrdering, te.Kind)
}

func TestVerify_AtomicLoadTaggedAcqRel_ReturnsUnsupportedOrdering(t *testing.T) {
	mod := moduleWithInsts(
		ir.Instruction{Op: ir.OpAtomicLoad, Result: 1, Type: ir.IntType(32), Ordering: label.AcqRel,
			Operands: []ir.Value{ir.ConstVal(ir.IntType(64), 8)}},
	)
	err := Verify(mod)
	require.Error(t, err)
	te, ok := err.(*ir.TranslationError)
	require.True(t, ok)
	require.Equal(t, ir.UnsupportedOrdering, te.Kind)
}

func TestVerify_StoreTaggedAcquire_ReturnsUnsupportedOrdering(t *testing.T) {
	mod := moduleWithInsts(
		ir.Instruction{Op: ir.OpStore, Type: ir.IntType(32), Ordering: label.Acquire,
			Operands: []ir.Value{ir.ConstVal(ir.IntType(64), 8), ir.ConstVal(ir.IntType(32), 1)}},
	)
	err := Verify(mod)
	require.Error(t, err)
	te, ok := err.(*ir.TranslationError)
	require.True(t, ok)
	require.Equal(t, ir.UnsupportedOrdering, te.Kind)
}

func TestVerify_PlainLoadWithNaOrdering_OK(t *testing.T) {
	// Na is only invalid on instructions explicitly tagged atomic.
	mod := moduleWithInsts(
		ir.Instruction{Op: ir.OpLoad, Result: 1, Type: ir.IntType(32), Ordering: label.Na,
			Operands: []ir.Value{ir.ConstVal(ir.IntType(64), 8)}},
	)
	require.NoError(t, Verify(mod))
}

func TestAnnotateAssumes_WrongArgCount_ReturnsMalformedModule(t *testing.T) {
	mod := moduleWithInsts(
		ir.Instruction{Op: ir.OpCall, Callee: assumeIntrinsic, Type: ir.VoidType},
	)
	err := AnnotateAssumes(mod, ir.NewModuleInfo())
	require.Error(t, err)
	te, ok := err.(*ir.TranslationError)
	require.True(t, ok)
	require.Equal(t, ir.MalformedModule, te.Kind)
}

func TestAnnotateAssumes_TracesLoadThroughComparison(t *testing.T) {
	// r1 = load addr; r2 = (r1 == 42); assume(r2).
	mod := moduleWithInsts(
		ir.Instruction{Op: ir.OpLoad, Result: 1, Type: ir.IntType(32), Ordering: label.Relaxed,
			Operands: []ir.Value{ir.ConstVal(ir.IntType(64), 8)}},
		ir.Instruction{Op: ir.OpICmpEq, Result: 2, Type: ir.IntType(1),
			Operands: []ir.Value{ir.RegVal(ir.IntType(32), 1), ir.ConstVal(ir.IntType(32), 42)}},
		ir.Instruction{Op: ir.OpCall, Callee: assumeIntrinsic, Type: ir.VoidType,
			Args: []ir.Value{ir.RegVal(ir.IntType(1), 2)}},
		ir.Instruction{Op: ir.OpRet},
	)
	info := ir.NewModuleInfo()
	require.NoError(t, AnnotateAssumes(mod, info))

	traced, ok := info.Annotations.Get(1)
	require.True(t, ok)

	v, ok := traced.Eval(map[uint64]uint64{1: 42})
	require.True(t, ok)
	require.Equal(t, uint64(1), v)

	v, ok = traced.Eval(map[uint64]uint64{1: 7})
	require.True(t, ok)
	require.Equal(t, uint64(0), v)
}

func TestAnnotateAssumes_NoAssumeCalls_NoAnnotations(t *testing.T) {
	mod := moduleWithInsts(
		ir.Instruction{Op: ir.OpLoad, Result: 1, Type: ir.IntType(32), Ordering: label.Relaxed,
			Operands: []ir.Value{ir.ConstVal(ir.IntType(64), 8)}},
		ir.Instruction{Op: ir.OpRet},
	)
	info := ir.NewModuleInfo()
	require.NoError(t, AnnotateAssumes(mod, info))
	_, ok := info.Annotations.Get(1)
	require.False(t, ok)
}
