package interp

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sva-lab/wmc/deptrack"
	"github.com/sva-lab/wmc/ir"
	"github.com/sva-lab/wmc/label"
)

func TestNew_LaysOutGlobalsAsInitializedStatics(t *testing.T) {
	mod := ir.NewModule("main")
	mod.Globals = []ir.Global{
		{Name: "x", Type: ir.IntType(32)},
		{Name: "y", Type: ir.IntType(32)},
	}
	in := New(mod)

	xAddr, ok := in.GlobalAddr("x")
	require.True(t, ok)
	yAddr, ok := in.GlobalAddr("y")
	require.True(t, ok)
	require.NotEqual(t, xAddr, yAddr)
	require.True(t, in.Arena.IsInitialized(xAddr))
	require.True(t, in.Arena.IsInitialized(yAddr))
}

func TestSpawnThread_ReadsFromSharedArena(t *testing.T) {
	mod := ir.NewModule("main")
	mod.Globals = []ir.Global{{Name: "g", Type: ir.IntType(32)}}
	in := New(mod)
	gAddr, _ := in.GlobalAddr("g")

	fn := &ir.Function{
		Name: "main",
		Blocks: []ir.BasicBlock{{Insts: []ir.Instruction{
			{Op: ir.OpLoad, Result: 1, Type: ir.IntType(32),
				Operands: []ir.Value{ir.ConstVal(ir.IntType(64), gAddr)}, Ordering: label.Relaxed},
			{Op: ir.OpRet},
		}}},
	}
	mod.Functions["main"] = fn

	th := in.SpawnThread(0, deptrack.New(0), fn, nil)
	s := th.Start()
	require.Equal(t, label.KindRead, s.Kind)
	require.Equal(t, gAddr, s.Addr)

	s = th.Resume(5)
	require.True(t, s.Done)
}
