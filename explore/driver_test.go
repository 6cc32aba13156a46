package explore

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sva-lab/wmc/config"
	"github.com/sva-lab/wmc/interp"
	"github.com/sva-lab/wmc/ir"
	"github.com/sva-lab/wmc/label"
	"github.com/sva-lab/wmc/verdict"
)

func mustConfig(t *testing.T, opts ...config.Option) config.Config {
	t.Helper()
	cfg, err := config.New(append([]config.Option{config.WithModel(config.ModelRC11)}, opts...)...)
	require.NoError(t, err)
	return cfg
}

// globalAddr lays mod's globals out once (the same deterministic bump
// allocation Driver.runOnce repeats on every replay, see interp/arena.go)
// purely so the test can embed a concrete address constant in the IR it
// hand-builds, the same pattern interp_test.go uses.
func globalAddr(mod *ir.Module, name string) uint64 {
	in := interp.New(mod)
	addr, _ := in.GlobalAddr(name)
	return addr
}

func TestRun_SingleThreadStoreThenLoad_OneExecution(t *testing.T) {
	mod := ir.NewModule("main")
	mod.Globals = []ir.Global{{Name: "x", Type: ir.IntType(32)}}
	xAddr := globalAddr(mod, "x")

	mod.Functions["main"] = &ir.Function{
		Name: "main",
		Blocks: []ir.BasicBlock{{Insts: []ir.Instruction{
			{Op: ir.OpStore, Type: ir.IntType(32), Ordering: label.Relaxed,
				Operands: []ir.Value{ir.ConstVal(ir.IntType(64), xAddr), ir.ConstVal(ir.IntType(32), 7)}},
			{Op: ir.OpLoad, Result: 1, Type: ir.IntType(32), Ordering: label.Relaxed,
				Operands: []ir.Value{ir.ConstVal(ir.IntType(64), xAddr)}},
			{Op: ir.OpRet},
		}}},
	}

	d := NewDriver(mustConfig(t), mod, nil)
	report := d.Run()

	require.False(t, report.Partial)
	require.Equal(t, 1, report.Counters.Explored)
	require.Equal(t, 0, report.Counters.PrunedByBound)
	require.Len(t, report.Executions, 1)
	require.Equal(t, verdict.OK, report.Executions[0].Kind)
}

// TestRun_TwoRacingWrites_EnumeratesBothCoherenceOrders builds the
// simplest write-write race: main spawns a worker that stores 2 to x
// while main itself stores 1, and neither thread ever reads x or joins
// the other. Under ltr scheduling there is exactly one genuine
// nondeterministic decision (the second write's co-anchor, offering
// "after the first write" or "before it") — see DESIGN.md's explore
// entry for why schedule order itself never becomes a decision point
// under ltr (the default policy schedulePick never calls run.choose).
func TestRun_TwoRacingWrites_EnumeratesBothCoherenceOrders(t *testing.T) {
	mod := ir.NewModule("main")
	mod.Globals = []ir.Global{{Name: "x", Type: ir.IntType(32)}}
	xAddr := globalAddr(mod, "x")

	mod.Functions["main"] = &ir.Function{
		Name: "main",
		Blocks: []ir.BasicBlock{{Insts: []ir.Instruction{
			{Op: ir.OpCall, Callee: "pthread_create", ThreadFn: "worker", Type: ir.VoidType,
				Args: []ir.Value{ir.ConstVal(ir.IntType(64), 0)}},
			{Op: ir.OpStore, Type: ir.IntType(32), Ordering: label.Relaxed,
				Operands: []ir.Value{ir.ConstVal(ir.IntType(64), xAddr), ir.ConstVal(ir.IntType(32), 1)}},
			{Op: ir.OpRet},
		}}},
	}
	mod.Functions["worker"] = &ir.Function{
		Name: "worker",
		Blocks: []ir.BasicBlock{{Insts: []ir.Instruction{
			{Op: ir.OpStore, Type: ir.IntType(32), Ordering: label.Relaxed,
				Operands: []ir.Value{ir.ConstVal(ir.IntType(64), xAddr), ir.ConstVal(ir.IntType(32), 2)}},
			{Op: ir.OpRet},
		}}},
	}

	d := NewDriver(mustConfig(t, config.WithSchedulePolicy(config.ScheduleLTR)), mod, nil)
	report := d.Run()

	require.False(t, report.Partial)
	require.Equal(t, 2, report.Counters.Explored)
	require.Len(t, report.Executions, 2)
	for _, e := range report.Executions {
		require.Equal(t, verdict.OK, e.Kind)
	}
}

func TestRun_JoinOnNeverSpawnedThread_ReportsDeadlock(t *testing.T) {
	mod := ir.NewModule("main")

	mod.Functions["main"] = &ir.Function{
		Name: "main",
		Blocks: []ir.BasicBlock{{Insts: []ir.Instruction{
			{Op: ir.OpCall, Callee: "pthread_join", Type: ir.VoidType,
				Args: []ir.Value{ir.ConstVal(ir.IntType(64), 1)}},
			{Op: ir.OpRet},
		}}},
	}

	d := NewDriver(mustConfig(t), mod, nil)
	report := d.Run()

	require.Equal(t, 1, report.Counters.Explored)
	require.Len(t, report.Executions, 1)
	require.Equal(t, verdict.Deadlock, report.Executions[0].Kind)
}
