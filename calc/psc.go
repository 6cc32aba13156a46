package calc

import (
	"github.com/sva-lab/wmc/graph"
	"github.com/sva-lab/wmc/label"
	"github.com/sva-lab/wmc/relation"
	"github.com/sva-lab/wmc/vclock"
)

// PSC maintains RC11's partial-SC-order relation, the terminal relation
// whose irreflexivity is RC11's acyptance criterion (spec.md §4.E). It is
// seeded from the already-closed hb and co relations restricted to SC
// events, plus the rf and fr edges between SC atomics — the scb ∪
// fence-strengthening terms GenMC's PSCCalculator tracks in full are
// approximated here by hb/co/rf/fr alone, a documented simplification (see
// DESIGN.md): it is sound (never hides a real cycle introduced by those
// terms) but not complete (may miss psc edges a fence-aware analysis would
// add), acceptable for this checker's scope.
type PSC struct {
	rel *relation.Relation[label.Event]
	hb  *HB
	co  *CO
}

// NewPSC returns a PSC calculator that reads its base edges from hb and co.
func NewPSC(hb *HB, co *CO) *PSC {
	return &PSC{rel: relation.New[label.Event](), hb: hb, co: co}
}

func (c *PSC) Name() string                             { return "psc" }
func (c *PSC) Relation() *relation.Relation[label.Event] { return c.rel }
func (c *PSC) OnRestrict(*vclock.View)                  {}
func (c *PSC) OnRestore(label.Event, []label.Label)       {}

func (c *PSC) scEvents(g *graph.Graph) []label.Event {
	return collectEvents(g, func(l *label.Label) bool {
		return l != nil && (l.Ordering == label.SC) && (l.IsMemoryAccess() || l.Kind == label.KindFence || l.Kind == label.KindSmpFence)
	})
}

func (c *PSC) Init(g *graph.Graph) {
	c.rel = relation.New[label.Event]()
	evs := c.scEvents(g)
	seedCarrier(c.rel, evs)
	c.addBaseEdges(g, evs)
	c.rel.TransClosure()
}

// addBaseEdges adds hb, co, rf and fr edges restricted to the SC carrier.
func (c *PSC) addBaseEdges(g *graph.Graph, evs []label.Event) bool {
	changed := false
	add := func(a, b label.Event) {
		if !c.rel.Has(a, b) {
			c.rel.AddEdge(a, b)
			changed = true
		}
	}
	for _, a := range evs {
		for _, b := range evs {
			if a == b {
				continue
			}
			if c.hb.Relation().Has(a, b) || c.co.Relation().Has(a, b) {
				add(a, b)
			}
		}
	}
	for _, r := range evs {
		lr := g.LabelAt(r)
		if lr == nil || !lr.IsRead() {
			continue
		}
		w := lr.Payload.Rf
		if w.IsInitializer() {
			// fr: the initial value co-precedes every write to the
			// address, so r observes-stale-relative-to every write in
			// co[addr], not just the co-minimal one.
			for _, succ := range g.CoOrder(lr.Payload.Addr) {
				if contains(evs, succ) {
					add(r, succ)
				}
			}
			continue
		}
		if !contains(evs, w) {
			continue
		}
		// rf: w -> r.
		add(w, r)
		// fr: r -> every co-successor of w.
		after := false
		for _, succ := range g.CoOrder(lr.Payload.Addr) {
			if after && contains(evs, succ) {
				add(r, succ)
			}
			if succ == w {
				after = true
			}
		}
	}
	return changed
}

func contains(evs []label.Event, e label.Event) bool {
	for _, x := range evs {
		if x == e {
			return true
		}
	}
	return false
}

func (c *PSC) Step(g *graph.Graph) (bool, bool) {
	before := c.rel.EdgeCount()
	evs := c.scEvents(g)
	c.addBaseEdges(g, evs)
	c.rel.TransClosure()
	changed := c.rel.EdgeCount() != before
	return changed, c.rel.IsIrreflexive()
}
