package graph

import (
	"github.com/sva-lab/wmc/label"
	"github.com/sva-lab/wmc/vclock"
)

// CoherentStores returns the writes to addr that a Read about to be placed
// at pos may legally read from: every write already in the graph, minus
// any write that is co-overwritten by a later write the read's hb-view
// already contains (i.e. a write some other, already-hb-ordered write has
// made stale). INITIALIZER is always included unless it has itself been
// co-overwritten-and-observed.
//
// This is a necessary-condition filter only; package consistency's
// calculators are the final arbiter of whether a given rf choice survives
// (spec.md §4.C: "consulted by the driver", not a complete legality
// oracle).
func (g *Graph) CoherentStores(addr uint64, pos label.Event) []label.Event {
	order := g.co[addr]
	readHB := g.viewAtInsertion(pos)

	// lastObserved is the index of the latest (co-order) write the read's
	// hb-view already contains; writes strictly before it are stale
	// knowledge and cannot be a coherent rf target. -1 means none observed.
	lastObserved := -1
	for i, w := range order {
		if readHB != nil && readHB.Contains(w.ThreadID, w.Index) {
			lastObserved = i
		}
	}

	var out []label.Event
	if lastObserved == -1 {
		out = append(out, label.Initializer)
	}
	start := lastObserved
	if start < 0 {
		start = 0
	}
	out = append(out, order[start:]...)
	return out
}

// viewAtInsertion returns the hb-view a label at pos would have, computed
// from its program-order predecessor — used to pre-filter candidates
// before the label (and its final view) actually exists.
func (g *Graph) viewAtInsertion(pos label.Event) *vclock.View {
	pred := g.poPredecessor(pos)
	if pred == nil {
		return nil
	}
	return pred.HBView
}

// CoherentRevisits returns the already-placed Reads on w's address that
// could be rerouted (backward-revisited) to read from w, now that w has
// been inserted. A Read r qualifies when r and w are porf-incomparable
// (neither's porf-view contains the other's position) — ordered pairs
// already have their relative rf fixed by construction, so only
// concurrent reads are live revisit candidates (a documented
// simplification of GenMC's fuller maximal-extension test; see
// DESIGN.md).
func (g *Graph) CoherentRevisits(w label.Event) []label.Event {
	wl := g.LabelAt(w)
	if wl == nil || !wl.IsWrite() {
		return nil
	}
	var out []label.Event
	for _, r := range g.readsTo(wl.Payload.Addr) {
		rl := g.LabelAt(r)
		if rl == nil {
			continue
		}
		if rl.PorfView.Contains(w.ThreadID, w.Index) {
			continue // r already happens-after w; rf is fixed
		}
		if wl.PorfView.Contains(r.ThreadID, r.Index) {
			continue // w happens-after r; rerouting would be backwards in time
		}
		out = append(out, r)
	}
	return out
}

// readsTo scans every thread for Read labels on addr. Execution graphs in
// this checker are small enough (bounded programs under test) that a
// linear scan is the simplest correct implementation, so no secondary
// index is maintained.
func (g *Graph) readsTo(addr uint64) []label.Event {
	var out []label.Event
	for t, row := range g.threads {
		for i, l := range row {
			if l.IsRead() && l.Payload.Addr == addr {
				out = append(out, label.Event{ThreadID: t, Index: i})
			}
		}
	}
	return out
}

// SetRf retargets the Rf field of the Read at r to w and recomputes r's
// own hb-view and porf-view (spec.md §4.C: "When rf is rewired, only the
// target Read's views ... are recomputed, not the whole graph"). Callers
// are responsible for invalidating any derived relation held by the
// consistency checker.
func (g *Graph) SetRf(r label.Event, w label.Event) {
	l := g.LabelAt(r)
	if l == nil || !l.IsRead() {
		return
	}
	l.Payload.Rf = w
	l.HBView, l.PorfView = g.computeViews(*l)
	g.threads[r.ThreadID][r.Index] = *l
}
