// Package graph implements the execution graph: per-thread label
// sequences plus the rf (reads-from, embedded in Read labels) and co
// (coherence, tracked explicitly per address) bookkeeping, and the prefix
// queries the exploration driver (package explore) consults on every
// step.
//
// The graph owns the global stamp counter (label.Stamp) — append is the
// only place a Label receives its Stamp and Pos — and it is the only
// component that mutates Label.Rf or removes labels (via RestrictToStamp).
// Derived relations (hb, psc, prop, ...) are NOT stored here; they live in
// package calc and are rebuilt on demand from the primary data this
// package exposes.
package graph

import (
	"fmt"
	"sort"

	"github.com/sva-lab/wmc/label"
	"github.com/sva-lab/wmc/vclock"
)

// FreeFunc is invoked when RestrictToStamp deletes a Malloc label, so the
// interpreter's heap arena can release the corresponding region.
type FreeFunc func(addr uint64, size uint64)

// Graph is the mutable execution graph described in spec.md §3/§4.C.
type Graph struct {
	threads [][]label.Label // threads[t][i] is the label at (t,i)
	nextSt  label.Stamp

	co     map[uint64][]label.Event // per-address coherence order, oldest first
	writes map[uint64][]label.Event // per-address insertion-order write list

	onFree FreeFunc
}

// New returns an empty execution graph. onFree may be nil.
func New(onFree FreeFunc) *Graph {
	return &Graph{
		co:     make(map[uint64][]label.Event),
		writes: make(map[uint64][]label.Event),
		onFree: onFree,
	}
}

// NumThreads returns the number of threads with at least one label.
func (g *Graph) NumThreads() int { return len(g.threads) }

// SizeOf returns the number of labels recorded for thread t.
func (g *Graph) SizeOf(t int) int {
	if t < 0 || t >= len(g.threads) {
		return 0
	}
	return len(g.threads[t])
}

// LabelAt returns the label at e, or nil if out of range.
func (g *Graph) LabelAt(e label.Event) *label.Label {
	if e.IsInitializer() {
		return &initializerLabel
	}
	if e.ThreadID < 0 || e.ThreadID >= len(g.threads) {
		return nil
	}
	row := g.threads[e.ThreadID]
	if e.Index < 0 || e.Index >= len(row) {
		return nil
	}
	return &row[e.Index]
}

var initializerLabel = label.Label{Pos: label.Initializer, Kind: label.KindWrite}

// LastOf returns the last label appended to thread t, or nil if thread t
// has no labels yet.
func (g *Graph) LastOf(t int) *label.Label {
	n := g.SizeOf(t)
	if n == 0 {
		return nil
	}
	return &g.threads[t][n-1]
}

// Append attaches lbl to its thread (lbl.Pos.ThreadID), assigning it the
// next dense index and the next global stamp (invariants 3 and 4 of
// spec.md §3). Views (HBView/PorfView) are computed from the thread's
// previous label plus, for Reads, the Rf target's views — the graph does
// this at insertion time so callers never see a label with stale views.
func (g *Graph) Append(l label.Label) label.Event {
	t := l.Pos.ThreadID
	for t >= len(g.threads) {
		g.threads = append(g.threads, nil)
	}
	idx := len(g.threads[t])
	l.Pos = label.Event{ThreadID: t, Index: idx}
	l.Stamp = g.nextSt
	g.nextSt++

	l.HBView, l.PorfView = g.computeViews(l)

	g.threads[t] = append(g.threads[t], l)
	pos := l.Pos

	if l.IsWrite() {
		g.writes[l.Payload.Addr] = append(g.writes[l.Payload.Addr], pos)
	}
	return pos
}

// computeViews derives the hb-view and porf-view of a label about to be
// inserted at l.Pos, from its program-order predecessor plus (for Reads)
// the Rf target's views — spec.md §4.C "the graph stores views on each
// label, computed at insertion time from predecessors' views plus
// dependency inputs".
func (g *Graph) computeViews(l label.Label) (hb, porf *vclock.View) {
	hb = &vclock.View{}
	porf = &vclock.View{}
	if pred := g.poPredecessor(l.Pos); pred != nil {
		hb.MergeWith(pred.HBView)
		porf.MergeWith(pred.PorfView)
	}
	if l.IsRead() && !l.Payload.Rf.IsInitializer() {
		if w := g.LabelAt(l.Payload.Rf); w != nil {
			if l.IsAtLeast(vclockSyncThreshold) && w.IsAtLeast(vclockSyncThreshold) {
				hb.MergeWith(w.HBView)
			}
			porf.MergeWith(w.PorfView)
		}
	}
	hb.UpdateIdx(l.Pos.ThreadID, l.Pos.Index)
	porf.UpdateIdx(l.Pos.ThreadID, l.Pos.Index)
	return hb, porf
}

// vclockSyncThreshold is the ordering at/above which an rf edge
// contributes to the hb-view (acquire on the read side, release on the
// write side; approximated here as "at least Acquire", matching RC11's
// SC-atomics-included synchronizes-with condition closely enough for the
// acceptance criterion this package is responsible for — the full
// synchronizes-with predicate, including fence strengthening, lives in
// package calc's hb calculator, which is free to recompute a more precise
// hb from primary data; this view is only the insertion-time
// over-approximation spec.md §3 invariant 5 requires).
const vclockSyncThreshold = label.Acquire

// poPredecessor returns the label immediately preceding e in its own
// thread, or nil if e is the first label of its thread.
func (g *Graph) poPredecessor(e label.Event) *label.Label {
	if e.Index == 0 {
		return nil
	}
	return g.LabelAt(e.Prev())
}

// WritesTo returns every Write ever inserted to addr, in insertion order.
func (g *Graph) WritesTo(addr uint64) []label.Event {
	out := make([]label.Event, len(g.writes[addr]))
	copy(out, g.writes[addr])
	return out
}

// Addresses returns every address with at least one recorded write, sorted
// ascending — used by package calc to enumerate the per-location relations
// (co, and anything seeded from it) without reaching into the graph's
// internal maps.
func (g *Graph) Addresses() []uint64 {
	out := make([]uint64, 0, len(g.writes))
	for a := range g.writes {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// CoOrder returns the current total coherence order for addr, oldest
// first.
func (g *Graph) CoOrder(addr uint64) []label.Event {
	out := make([]label.Event, len(g.co[addr]))
	copy(out, g.co[addr])
	return out
}

// CoSuccessor returns the write immediately after e in co[addr(e)], or the
// zero Event and false if e is the co-maximal write (or not a write).
func (g *Graph) CoSuccessor(e label.Event) (label.Event, bool) {
	l := g.LabelAt(e)
	if l == nil || !l.IsWrite() {
		return label.Event{}, false
	}
	order := g.co[l.Payload.Addr]
	for i, ev := range order {
		if ev == e {
			if i+1 < len(order) {
				return order[i+1], true
			}
			return label.Event{}, false
		}
	}
	return label.Event{}, false
}

// CoPredecessor returns the write immediately before e in co[addr(e)], or
// INITIALIZER if e is the co-minimal write.
func (g *Graph) CoPredecessor(e label.Event) (label.Event, bool) {
	l := g.LabelAt(e)
	if l == nil || !l.IsWrite() {
		return label.Event{}, false
	}
	order := g.co[l.Payload.Addr]
	for i, ev := range order {
		if ev == e {
			if i == 0 {
				return label.Initializer, true
			}
			return order[i-1], true
		}
	}
	return label.Event{}, false
}

// InsertCo places w into co[addr] immediately after pred (use
// label.Initializer to place it first). w must already be a Write label
// in the graph. Returns an error if pred is not currently in co[addr] (or
// is not the initializer).
func (g *Graph) InsertCo(w label.Event, addr uint64, after label.Event) error {
	order := g.co[addr]
	if after.IsInitializer() {
		g.co[addr] = append([]label.Event{w}, order...)
		return nil
	}
	for i, ev := range order {
		if ev == after {
			newOrder := make([]label.Event, 0, len(order)+1)
			newOrder = append(newOrder, order[:i+1]...)
			newOrder = append(newOrder, w)
			newOrder = append(newOrder, order[i+1:]...)
			g.co[addr] = newOrder
			return nil
		}
	}
	return fmt.Errorf("graph: InsertCo: %s is not co-placed for addr %d", after, addr)
}

// String renders a compact per-thread listing, useful for execution dumps
// (spec.md §6 "Persisted state").
func (g *Graph) String() string {
	s := ""
	for t, row := range g.threads {
		s += fmt.Sprintf("Thread %d:\n", t)
		for _, l := range row {
			s += fmt.Sprintf("  %s %s stamp=%d\n", l.Pos, l.Kind, l.Stamp)
		}
	}
	addrs := make([]uint64, 0, len(g.co))
	for a := range g.co {
		addrs = append(addrs, a)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })
	for _, a := range addrs {
		s += fmt.Sprintf("co[%d]: %v\n", a, g.co[a])
	}
	return s
}
