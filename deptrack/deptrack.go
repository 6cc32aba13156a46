// Package deptrack implements the per-thread dependency tracker of
// spec.md §4.I: data, address, and control dependency sets threaded
// through SSA registers as the interpreter executes a thread, then
// stamped onto Read/Write labels for the IMM/LKMM calculators' ppo
// definitions.
//
// Grounded on vclock.DepView for the three dependency sets themselves —
// spec.md §4.I's "forwards-closed addr_po_deps, ctrl_deps" are exactly
// the hole-aware prefixes DepView already models, so this package is a
// thin bookkeeping layer over register-to-DepView maps, not a new
// data structure.
package deptrack

import "github.com/sva-lab/wmc/vclock"

// Reg identifies an SSA register within one thread's activation record.
// It is opaque to this package; package interp assigns register ids.
type Reg uint32

// Tracker accumulates the three dependency views spec.md §4.I names,
// scoped to a single thread. The exploration driver/interpreter owns one
// Tracker per live thread.
type Tracker struct {
	thread int
	data   map[Reg]*vclock.DepView
	addrPO vclock.DepView
	ctrl   vclock.DepView
}

// New returns an empty Tracker for the given thread id.
func New(thread int) *Tracker {
	return &Tracker{thread: thread, data: make(map[Reg]*vclock.DepView)}
}

// DataDepsOf returns the data-dependency set recorded for reg, or an empty
// DepView if reg has never been the result of a tracked instruction (e.g.
// it was produced by a constant).
func (t *Tracker) DataDepsOf(reg Reg) vclock.DepView {
	if dv := t.data[reg]; dv != nil {
		return *dv
	}
	return vclock.DepView{}
}

// RecordResult merges the data-dependency sets of every operand register
// into result's own set (spec.md §4.I: "merges the dependency sets of
// operands into that of the result register"). Pass the empty Reg slice
// for instructions with no register operands (constants, nondet).
func (t *Tracker) RecordResult(result Reg, operands ...Reg) {
	merged := vclock.DepView{}
	for _, op := range operands {
		if dv := t.data[op]; dv != nil {
			merged.MergeWith(dv)
		}
	}
	c := merged
	t.data[result] = &c
}

// RecordConstant gives result an empty dependency set, overwriting any
// prior entry — used when a register is rebound to a literal.
func (t *Tracker) RecordConstant(result Reg) {
	empty := vclock.DepView{}
	t.data[result] = &empty
}

// StampMemoryAccess merges addrReg's data-dependency set into the
// address-dependency view, then bumps that view's own max to the event
// just produced (spec.md §4.I: "on memory-addressing instructions it
// stamps addr_po_deps"). Call this once per Read/Write label, after the
// label's Event is known.
func (t *Tracker) StampMemoryAccess(addrReg Reg, at int) {
	if dv := t.data[addrReg]; dv != nil {
		t.addrPO.MergeWith(dv)
	}
	t.addrPO.Set(t.thread, at)
}

// StampBranch merges condReg's data-dependency set into the control-
// dependency view, then bumps it to the branch's own event (spec.md
// §4.I: "on branches it stamps ctrl_deps").
func (t *Tracker) StampBranch(condReg Reg, at int) {
	if dv := t.data[condReg]; dv != nil {
		t.ctrl.MergeWith(dv)
	}
	t.ctrl.Set(t.thread, at)
}

// BindEvent records that reg's own value originates at (this tracker's
// thread, idx) — called once a Read label's position is known, so
// registers later built from reg carry a data dependency on the Read
// itself rather than an empty set (spec.md §4.I).
func (t *Tracker) BindEvent(reg Reg, idx int) {
	dv := vclock.DepView{}
	dv.Set(t.thread, idx)
	t.data[reg] = &dv
}

// AddrPODeps returns the current address-dependency prefix, copied onto a
// memory-access label.
func (t *Tracker) AddrPODeps() vclock.DepView { return t.addrPO }

// CtrlDeps returns the current control-dependency prefix, copied onto
// every subsequent label in this thread until the next branch.
func (t *Tracker) CtrlDeps() vclock.DepView { return t.ctrl }

// Fork returns a Tracker for a newly-created thread, seeded with the
// parent's current addr/ctrl prefixes (a child thread inherits the
// causal history of the ThreadCreate that spawned it, per the label
// Deps fields attached to every subsequent label in the new thread).
func (t *Tracker) Fork(childThread int) *Tracker {
	c := New(childThread)
	c.addrPO = t.addrPO
	c.ctrl = t.ctrl
	return c
}
