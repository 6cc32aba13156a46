// Package calc implements the model-specific calculators of spec.md §4.E:
// one Go type per derived relation (hb, co, psc, ar, prop, rcu, rcu-fence,
// rcu-link, xb), each exposing the init/step/on_restrict/on_restore
// contract GenMC's Calculator subclasses expose, built on top of package
// relation's generic boolean-matrix primitive. A per-model Registry
// composes an ordered list of these into the fixpoint loop package
// consistency drives.
package calc

import (
	"github.com/sva-lab/wmc/graph"
	"github.com/sva-lab/wmc/label"
	"github.com/sva-lab/wmc/relation"
	"github.com/sva-lab/wmc/vclock"
)

// Calculator is the contract every derived-relation calculator in this
// package implements, mirroring GenMC's Calculator base class
// (initCalc/doCalc/removeAfter/restorePrefix — see
// original_source/src/ARCalculator.cpp).
type Calculator interface {
	// Name identifies the relation this calculator maintains (e.g. "hb",
	// "co", "psc"), used for registry lookups between calculators that
	// depend on each other's output.
	Name() string
	// Relation returns the live relation this calculator maintains.
	Relation() *relation.Relation[label.Event]
	// Init seeds the relation from primary graph data.
	Init(g *graph.Graph)
	// Step extends the relation by one inference round, returning whether
	// anything changed and whether the relation is (still) irreflexive.
	Step(g *graph.Graph) (changed bool, irreflexive bool)
	// OnRestrict is notified when the graph is cut back to a stamp whose
	// surviving porf-prefix is described by preds; calculators that cache
	// state beyond the relation itself use this to drop stale entries.
	OnRestrict(preds *vclock.View)
	// OnRestore is notified when a restricted prefix is replayed back onto
	// a revisited Read.
	OnRestore(read label.Event, prefix []label.Label)
}

// isNonTrivial reports whether l is an atomic memory access or fence — the
// set of events rcu-fence and prop-style calculators propagate constraints
// through, as opposed to plain (non-atomic) accesses which are invisible to
// those relations (see PROPCalculator::isNonTrivial, referenced from
// RCUCalculator.cpp and XBCalculator.cpp).
func isNonTrivial(l *label.Label) bool {
	if l == nil {
		return false
	}
	switch l.Kind {
	case label.KindFence, label.KindSmpFence:
		return true
	case label.KindRead, label.KindWrite:
		return l.Ordering != label.Na
	default:
		return false
	}
}

// collectEvents walks every thread of g and returns the positions of labels
// matching keep, in (thread, index) order — the Go equivalent of
// ExecutionGraph::collectAllEvents, used by every calculator's Init to seed
// its relation's carrier.
func collectEvents(g *graph.Graph, keep func(l *label.Label) bool) []label.Event {
	var out []label.Event
	for t := 0; t < g.NumThreads(); t++ {
		for i := 0; i < g.SizeOf(t); i++ {
			pos := label.Event{ThreadID: t, Index: i}
			if keep(g.LabelAt(pos)) {
				out = append(out, pos)
			}
		}
	}
	return out
}

// seedCarrier registers every event in evs as a carrier member of r without
// adding any edge (mirroring GlobalRelation's constructor-from-elements,
// e.g. ARCalculator::initCalc's `ar = Matrix2D<Event>(std::move(events))`).
func seedCarrier(r *relation.Relation[label.Event], evs []label.Event) {
	for _, e := range evs {
		r.Touch(e)
	}
}
