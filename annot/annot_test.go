package annot

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/sva-lab/wmc/deptrack"
)

func TestEval_ConstArithmetic(t *testing.T) {
	e := Add(Const(32, 3), Const(32, 4))
	v, ok := e.Eval(nil)
	require.True(t, ok)
	require.Equal(t, uint64(7), v)
}

func TestEval_DivByZeroIsUnknown(t *testing.T) {
	e := UDiv(Const(32, 1), Const(32, 0))
	_, ok := e.Eval(nil)
	require.False(t, ok)
}

func TestEval_SignedCompare(t *testing.T) {
	// -1 (as u8) slt 1 should be true.
	e := Slt(Const(8, 0xFF), Const(8, 1))
	v, ok := e.Eval(nil)
	require.True(t, ok)
	require.Equal(t, uint64(1), v)
}

func TestEval_LoadLeafRequiresBinding(t *testing.T) {
	const r deptrack.Reg = 9
	e := Eq(Load(32, r), Const(32, 42))

	_, ok := e.Eval(nil)
	require.False(t, ok)

	v, ok := e.Eval(map[uint64]uint64{uint64(r): 42})
	require.True(t, ok)
	require.Equal(t, uint64(1), v)
}

func TestAnnotator_TraceInlinesArithmeticRegisters(t *testing.T) {
	a := NewAnnotator()
	const rTmp deptrack.Reg = 1
	a.Define(rTmp, Add(Const(32, 1), Const(32, 1)))

	cond := Eq(Register(32, rTmp), Const(32, 2))
	traced := a.Trace(cond)

	v, ok := traced.Eval(nil)
	require.True(t, ok)
	require.Equal(t, uint64(1), v)
}

func TestAnnotator_TraceStopsAtAnnotatableLoad(t *testing.T) {
	a := NewAnnotator()
	const rLoaded deptrack.Reg = 2
	a.DefineLoad(rLoaded, Load(32, rLoaded))

	cond := Ult(Register(32, rLoaded), Const(32, 10))
	traced := a.Trace(cond)

	require.Equal(t, KindLoad, traced.n.operands[0].Kind())

	_, ok := traced.Eval(nil)
	require.False(t, ok)
	v, ok := traced.Eval(map[uint64]uint64{uint64(rLoaded): 5})
	require.True(t, ok)
	require.Equal(t, uint64(1), v)
}

func TestExpr_CloneIsIndependent(t *testing.T) {
	orig := Add(Const(32, 1), Register(32, 7))
	clone := orig.Clone()
	require.Equal(t, orig.String(), clone.String())
}
