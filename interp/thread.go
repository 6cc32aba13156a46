// Package interp implements the per-thread interpreter of spec.md §4.H: it
// steps one thread of the compiled IR at a time, suspending at every
// memory access and synchronization point so the driver (package explore)
// can build the corresponding label, consult the graph for candidate
// reads-from targets, and resume the thread with the observed value.
//
// Grounded on eventloop's goroutine-based Promisify coroutine: a
// blocking channel round-trip inside a dedicated goroutine is this
// checker's translation of spec.md §9's "interpreter expressed as a
// resumable state machine, driven by an explicit scheduler rather than
// OS threads" redesign note — the goroutine supplies the "resumable"
// part for free, so the thread's own call stack doubles as the saved
// continuation instead of a hand-written state machine.
package interp

import (
	"fmt"

	"github.com/sva-lab/wmc/deptrack"
	"github.com/sva-lab/wmc/ir"
	"github.com/sva-lab/wmc/label"
	"github.com/sva-lab/wmc/verdict"
)

// frame is one activation record: the function being executed, the
// current basic block/instruction cursor, and this call's register file.
// prevBlock feeds OpPhi's "which predecessor did we arrive from" lookup.
type frame struct {
	fn        *ir.Function
	block     int
	pc        int
	prevBlock int

	regs   map[ir.Reg]uint64
	poison map[ir.Reg]bool // true once a register holds an uninitialized-read value

	hasCallerResult bool
	callerResultReg ir.Reg
}

func newFrame(fn *ir.Function) *frame {
	return &frame{
		fn:        fn,
		prevBlock: -1,
		regs:      make(map[ir.Reg]uint64),
		poison:    make(map[ir.Reg]bool),
	}
}

func (f *frame) val(v ir.Value) uint64 {
	if !v.IsReg {
		return v.Const
	}
	return f.regs[v.Reg]
}

func (f *frame) poisonOf(v ir.Value) bool {
	return v.IsReg && f.poison[v.Reg]
}

func regOf(v ir.Value) deptrack.Reg {
	if v.IsReg {
		return v.Reg
	}
	return 0
}

// Thread executes one thread of the object program to completion,
// suspending at each instruction the driver must observe. One Thread
// exists per live thread of the exploration; Resume/Start are the only
// entry points a driver calls, always from the same goroutine (the
// Thread's own goroutine is the only other party touching its state).
type Thread struct {
	id      int
	mod     *ir.Module
	arena   *Arena
	globals map[string]uint64
	dep     *deptrack.Tracker

	stack     []*frame
	nextIndex int // this thread's own event counter; mirrors the graph's dense per-thread indexing

	out  chan Suspend
	in   chan uint64
	done bool

	openFlags map[uint64]uint64 // fd -> flags passed to open(), for write()'s DskWriteKind choice
	nextFd    uint64
}

// NewThread returns a Thread ready to execute entry with args bound to its
// parameters, reporting its own events under the given thread id. dep is
// the thread's dependency tracker (package deptrack), typically produced
// by Tracker.Fork when spawned from a ThreadCreate.
func NewThread(id int, mod *ir.Module, arena *Arena, globals map[string]uint64, dep *deptrack.Tracker, entry *ir.Function, args []uint64) *Thread {
	f := newFrame(entry)
	for i, reg := range entry.ParamRegs {
		if i < len(args) {
			f.regs[reg] = args[i]
		}
	}
	return &Thread{
		id:      id,
		mod:     mod,
		arena:   arena,
		globals: globals,
		dep:     dep,
		stack:   []*frame{f},
		out:     make(chan Suspend),
		in:      make(chan uint64),
	}
}

// ID returns the thread id this Thread reports its events under.
func (t *Thread) ID() int { return t.id }

// Deps returns this thread's dependency tracker, for the driver to fork
// when handling a ThreadCreate suspend.
func (t *Thread) Deps() *deptrack.Tracker { return t.dep }

// Start begins executing the thread and returns its first Suspend.
func (t *Thread) Start() Suspend {
	go t.run()
	return t.recv()
}

// Resume supplies value as the result of the previous suspend point (the
// observed value for a Read; ignored for every other Kind, but always
// required to unblock the thread's goroutine) and returns the next
// Suspend. Calling Resume after a Done/Err suspend returns a plain
// ThreadFinish Done suspend (without the earlier Err).
func (t *Thread) Resume(value uint64) Suspend {
	if t.done {
		return Suspend{Done: true, Kind: label.KindThreadFinish}
	}
	t.in <- value
	return t.recv()
}

func (t *Thread) recv() Suspend {
	s := <-t.out
	if s.Done || s.Err != nil {
		t.done = true
	}
	return s
}

// suspend hands s to the driver and blocks until Resume supplies a value.
// Every memory/synchronization instruction funnels through here exactly
// once per label it produces (an RMW produces two, back to back).
func (t *Thread) suspend(s Suspend) uint64 {
	t.nextIndex++
	t.out <- s
	return <-t.in
}

// currentIndex is the event index the next suspend call will report —
// needed before the call so Deps can be computed (StampMemoryAccess wants
// "after the label's event is known", and that index is just this
// thread's own running count, since the driver appends exactly one label
// per suspend/resume round trip).
func (t *Thread) currentIndex() int { return t.nextIndex }

func (t *Thread) run() {
	defer func() {
		if r := recover(); r != nil {
			t.out <- Suspend{Done: true, Err: &Violation{
				Kind:    verdict.MalformedModule,
				Message: fmt.Sprintf("interp: thread %d panicked: %v", t.id, r),
			}}
		}
	}()
	for len(t.stack) > 0 {
		f := t.stack[len(t.stack)-1]
		bb := f.fn.Blocks[f.block]
		if f.pc >= len(bb.Insts) {
			t.out <- Suspend{Done: true, Err: &Violation{
				Kind:    verdict.MalformedModule,
				Message: fmt.Sprintf("interp: %s block %d falls off the end without a terminator", f.fn.Name, f.block),
			}}
			return
		}
		inst := bb.Insts[f.pc]
		f.pc++
		if term := t.exec(f, inst); term != nil {
			t.out <- *term
			return
		}
	}
	t.out <- Suspend{Done: true, Kind: label.KindThreadFinish}
}

// exec executes one instruction, returning nil to keep running or a
// non-nil terminal Suspend (Done/Err) to end the thread's goroutine.
// Memory/synchronization instructions call t.suspend internally and
// still return nil — only a genuine stop (pthread_exit, running off a
// Ret with an empty stack, or a violation) is terminal here.
func (t *Thread) exec(f *frame, inst ir.Instruction) *Suspend {
	switch inst.Op {
	case ir.OpAdd, ir.OpSub, ir.OpMul, ir.OpUDiv, ir.OpSDiv, ir.OpURem, ir.OpSRem,
		ir.OpAnd, ir.OpOr, ir.OpXor, ir.OpShl, ir.OpLShr, ir.OpAShr,
		ir.OpICmpEq, ir.OpICmpNe, ir.OpICmpUlt, ir.OpICmpUle, ir.OpICmpSlt, ir.OpICmpSle:
		return t.execBinary(f, inst)

	case ir.OpZExt, ir.OpSExt, ir.OpTrunc:
		a := f.val(inst.Operands[0])
		srcW := inst.Operands[0].Type.Width
		var res uint64
		if inst.Op == ir.OpSExt {
			res = uint64(signExtendW(a, srcW))
		} else {
			res = a
		}
		f.regs[inst.Result] = maskW(res, inst.Type.Width)
		f.poison[inst.Result] = f.poisonOf(inst.Operands[0])
		t.dep.RecordResult(inst.Result, regOf(inst.Operands[0]))
		return nil

	case ir.OpSelect:
		cond, then, els := inst.Operands[0], inst.Operands[1], inst.Operands[2]
		if f.val(cond) != 0 {
			f.regs[inst.Result] = f.val(then)
			f.poison[inst.Result] = f.poisonOf(cond) || f.poisonOf(then)
		} else {
			f.regs[inst.Result] = f.val(els)
			f.poison[inst.Result] = f.poisonOf(cond) || f.poisonOf(els)
		}
		t.dep.RecordResult(inst.Result, regOf(cond), regOf(then), regOf(els))
		return nil

	case ir.OpAlloca:
		addr := t.arena.Alloc(label.StorageAutomatic, t.id, inst.Type.Elem.SizeOf())
		f.regs[inst.Result] = addr.Linear()
		t.dep.RecordConstant(inst.Result)
		return nil

	case ir.OpGEP:
		base := f.val(inst.Operands[0])
		idx := f.val(inst.Operands[1])
		f.regs[inst.Result] = base + idx*inst.Type.Elem.SizeOf()
		f.poison[inst.Result] = f.poisonOf(inst.Operands[0]) || f.poisonOf(inst.Operands[1])
		t.dep.RecordResult(inst.Result, regOf(inst.Operands[0]), regOf(inst.Operands[1]))
		return nil

	case ir.OpLoad, ir.OpAtomicLoad:
		return t.execLoad(f, inst)

	case ir.OpStore, ir.OpAtomicStore:
		return t.execStore(f, inst)

	case ir.OpCmpXchg:
		return t.execCmpXchg(f, inst)

	case ir.OpAtomicRMW:
		return t.execAtomicRMW(f, inst)

	case ir.OpFence:
		t.suspend(Suspend{Kind: label.KindFence, Ordering: inst.Ordering})
		return nil

	case ir.OpSmpFence:
		t.suspend(Suspend{Kind: label.KindSmpFence, SmpFence: inst.SmpFence})
		return nil

	case ir.OpCall:
		return t.execCall(f, inst)

	case ir.OpPhi:
		for _, inc := range inst.Incoming {
			if inc.Block == f.prevBlock {
				f.regs[inst.Result] = f.val(inc.Value)
				f.poison[inst.Result] = f.poisonOf(inc.Value)
				t.dep.RecordResult(inst.Result, regOf(inc.Value))
				return nil
			}
		}
		return &Suspend{Done: true, Err: &Violation{
			Kind:    verdict.MalformedModule,
			Message: fmt.Sprintf("interp: phi in %s has no incoming value for block %d", f.fn.Name, f.prevBlock),
		}}

	case ir.OpBr:
		t.jump(f, inst.Targets[0])
		return nil

	case ir.OpCondBr:
		t.dep.StampBranch(regOf(inst.Operands[0]), t.currentIndex())
		if f.poisonOf(inst.Operands[0]) {
			return &Suspend{Done: true, Err: &Violation{Kind: verdict.UninitializedRead, Message: "interp: branch on uninitialized value"}}
		}
		if f.val(inst.Operands[0]) != 0 {
			t.jump(f, inst.Targets[0])
		} else {
			t.jump(f, inst.Targets[1])
		}
		return nil

	case ir.OpSwitch:
		t.dep.StampBranch(regOf(inst.Operands[0]), t.currentIndex())
		if f.poisonOf(inst.Operands[0]) {
			return &Suspend{Done: true, Err: &Violation{Kind: verdict.UninitializedRead, Message: "interp: switch on uninitialized value"}}
		}
		v := f.val(inst.Operands[0])
		target := inst.Targets[0]
		for _, c := range inst.Cases {
			if c.Value == v {
				target = c.Block
				break
			}
		}
		t.jump(f, target)
		return nil

	case ir.OpRet:
		return t.execRet(f, inst)

	default:
		return &Suspend{Done: true, Err: &Violation{
			Kind:    verdict.MalformedModule,
			Message: fmt.Sprintf("interp: unhandled opcode %d", inst.Op),
		}}
	}
}

func (t *Thread) jump(f *frame, target int) {
	f.prevBlock = f.block
	f.block = target
	f.pc = 0
}

func (t *Thread) execBinary(f *frame, inst ir.Instruction) *Suspend {
	a := f.val(inst.Operands[0])
	b := f.val(inst.Operands[1])
	w := inst.Operands[0].Type.Width
	var res uint64
	switch inst.Op {
	case ir.OpAdd:
		res = a + b
	case ir.OpSub:
		res = a - b
	case ir.OpMul:
		res = a * b
	case ir.OpUDiv:
		if b == 0 {
			return &Suspend{Done: true, Err: &Violation{Kind: verdict.AccessOutOfBounds, Message: "interp: udiv by zero"}}
		}
		res = a / b
	case ir.OpSDiv:
		if b == 0 {
			return &Suspend{Done: true, Err: &Violation{Kind: verdict.AccessOutOfBounds, Message: "interp: sdiv by zero"}}
		}
		res = uint64(signExtendW(a, w) / signExtendW(b, w))
	case ir.OpURem:
		if b == 0 {
			return &Suspend{Done: true, Err: &Violation{Kind: verdict.AccessOutOfBounds, Message: "interp: urem by zero"}}
		}
		res = a % b
	case ir.OpSRem:
		if b == 0 {
			return &Suspend{Done: true, Err: &Violation{Kind: verdict.AccessOutOfBounds, Message: "interp: srem by zero"}}
		}
		res = uint64(signExtendW(a, w) % signExtendW(b, w))
	case ir.OpAnd:
		res = a & b
	case ir.OpOr:
		res = a | b
	case ir.OpXor:
		res = a ^ b
	case ir.OpShl:
		res = a << b
	case ir.OpLShr:
		res = a >> b
	case ir.OpAShr:
		res = uint64(signExtendW(a, w) >> b)
	case ir.OpICmpEq:
		res = boolU(a == b)
	case ir.OpICmpNe:
		res = boolU(a != b)
	case ir.OpICmpUlt:
		res = boolU(a < b)
	case ir.OpICmpUle:
		res = boolU(a <= b)
	case ir.OpICmpSlt:
		res = boolU(signExtendW(a, w) < signExtendW(b, w))
	case ir.OpICmpSle:
		res = boolU(signExtendW(a, w) <= signExtendW(b, w))
	}
	f.regs[inst.Result] = maskW(res, inst.Type.Width)
	f.poison[inst.Result] = f.poisonOf(inst.Operands[0]) || f.poisonOf(inst.Operands[1])
	t.dep.RecordResult(inst.Result, regOf(inst.Operands[0]), regOf(inst.Operands[1]))
	return nil
}

func (t *Thread) execLoad(f *frame, inst ir.Instruction) *Suspend {
	addr := f.val(inst.Operands[0])
	idx := t.currentIndex()
	t.dep.StampMemoryAccess(regOf(inst.Operands[0]), idx)
	deps := label.Deps{Addr: t.dep.AddrPODeps(), Ctrl: t.dep.CtrlDeps()}
	v := t.suspend(Suspend{
		Kind: label.KindRead, Ordering: inst.Ordering, Addr: addr,
		Width: inst.Type.Width, AnnotReg: inst.Result, Deps: deps,
	})
	f.regs[inst.Result] = v
	f.poison[inst.Result] = !t.arena.IsInitialized(addr)
	t.dep.BindEvent(inst.Result, idx)
	return nil
}

func (t *Thread) execStore(f *frame, inst ir.Instruction) *Suspend {
	addr := f.val(inst.Operands[0])
	val := f.val(inst.Operands[1])
	idx := t.currentIndex()
	t.dep.StampMemoryAccess(regOf(inst.Operands[0]), idx)
	deps := label.Deps{
		Addr: t.dep.AddrPODeps(),
		Ctrl: t.dep.CtrlDeps(),
		Data: t.dep.DataDepsOf(regOf(inst.Operands[1])),
	}
	t.suspend(Suspend{
		Kind: label.KindWrite, Ordering: inst.Ordering, Addr: addr, Val: val,
		Width: inst.Type.Width, Deps: deps,
	})
	t.arena.MarkWritten(addr)
	return nil
}

func (t *Thread) execCmpXchg(f *frame, inst ir.Instruction) *Suspend {
	addr := f.val(inst.Operands[0])
	expected := f.val(inst.Operands[1])
	desired := f.val(inst.Operands[2])
	idx := t.currentIndex()
	t.dep.StampMemoryAccess(regOf(inst.Operands[0]), idx)
	deps := label.Deps{Addr: t.dep.AddrPODeps(), Ctrl: t.dep.CtrlDeps()}
	old := t.suspend(Suspend{
		Kind: label.KindRead, RMW: label.RMWCas, Ordering: inst.Ordering, Addr: addr,
		Width: inst.Type.Width, AnnotReg: inst.Result, Deps: deps,
	})
	f.regs[inst.Result] = old
	f.poison[inst.Result] = !t.arena.IsInitialized(addr)
	t.dep.BindEvent(inst.Result, idx)
	if old == expected {
		t.suspend(Suspend{
			Kind: label.KindWrite, RMW: label.RMWCas, Ordering: inst.Ordering, Addr: addr,
			Val: desired, Width: inst.Type.Width,
		})
		t.arena.MarkWritten(addr)
	}
	return nil
}

func (t *Thread) execAtomicRMW(f *frame, inst ir.Instruction) *Suspend {
	addr := f.val(inst.Operands[0])
	operand := f.val(inst.Operands[1])
	idx := t.currentIndex()
	t.dep.StampMemoryAccess(regOf(inst.Operands[0]), idx)
	deps := label.Deps{Addr: t.dep.AddrPODeps(), Ctrl: t.dep.CtrlDeps()}
	old := t.suspend(Suspend{
		Kind: label.KindRead, RMW: label.RMWFai, Ordering: inst.Ordering, Addr: addr,
		Width: inst.Type.Width, AnnotReg: inst.Result, Deps: deps,
	})
	f.regs[inst.Result] = old
	f.poison[inst.Result] = !t.arena.IsInitialized(addr)
	t.dep.BindEvent(inst.Result, idx)
	newVal := maskW(old+operand, inst.Type.Width)
	t.suspend(Suspend{
		Kind: label.KindWrite, RMW: label.RMWFai, Ordering: inst.Ordering, Addr: addr,
		Val: newVal, Width: inst.Type.Width,
	})
	t.arena.MarkWritten(addr)
	return nil
}

func (t *Thread) execRet(f *frame, inst ir.Instruction) *Suspend {
	var retVal uint64
	var retPoison bool
	if len(inst.Operands) > 0 {
		retVal = f.val(inst.Operands[0])
		retPoison = f.poisonOf(inst.Operands[0])
	}
	t.stack = t.stack[:len(t.stack)-1]
	if len(t.stack) > 0 && f.hasCallerResult {
		caller := t.stack[len(t.stack)-1]
		caller.regs[f.callerResultReg] = retVal
		caller.poison[f.callerResultReg] = retPoison
		t.dep.RecordResult(f.callerResultReg) // callee internals are opaque; treat as independent of caller's prior deps
	}
	return nil
}

func (t *Thread) execCall(f *frame, inst ir.Instruction) *Suspend {
	if r := t.execIntrinsic(f, inst); r.handled {
		return r.suspend
	}
	fn, ok := t.mod.Functions[inst.Callee]
	if !ok {
		return &Suspend{Done: true, Err: &Violation{
			Kind:    verdict.UnsupportedIntrinsic,
			Message: fmt.Sprintf("interp: call to unknown function %q", inst.Callee),
		}}
	}
	nf := newFrame(fn)
	for i, reg := range fn.ParamRegs {
		if i < len(inst.Args) {
			nf.regs[reg] = f.val(inst.Args[i])
			nf.poison[reg] = f.poisonOf(inst.Args[i])
		}
	}
	if inst.Type.Kind != ir.TypeVoid {
		nf.hasCallerResult = true
		nf.callerResultReg = inst.Result
	}
	t.stack = append(t.stack, nf)
	return nil
}
