package calc

import (
	"github.com/sva-lab/wmc/graph"
	"github.com/sva-lab/wmc/label"
	"github.com/sva-lab/wmc/relation"
	"github.com/sva-lab/wmc/vclock"
)

// XB maintains LKMM's xb relation, the terminal relation whose
// irreflexivity is LKMM's acceptance criterion (spec.md §4.E glossary: "xb
// ... for LKMM"). Ported from XBCalculator.cpp: seeded from prop's
// carrier, extended with ar-lkmm edges (the pb term XBCalculator also
// consults is not modeled separately in this checker — see the RCU type
// doc for the same simplification) and with the rcu-fence po-range
// expansion along rcu-link's adjacency.
type XB struct {
	rel  *relation.Relation[label.Event]
	prop *PROP
	ar   *AR
	rcu  *RCU
}

// NewXB returns an XB calculator sourced from prop, ar-lkmm and rcu.
func NewXB(prop *PROP, ar *AR, rcu *RCU) *XB {
	return &XB{rel: relation.New[label.Event](), prop: prop, ar: ar, rcu: rcu}
}

func (c *XB) Name() string                             { return "xb" }
func (c *XB) Relation() *relation.Relation[label.Event] { return c.rel }
func (c *XB) OnRestrict(*vclock.View)                  {}
func (c *XB) OnRestore(label.Event, []label.Label)       {}

func (c *XB) Init(g *graph.Graph) {
	c.rel = relation.New[label.Event]()
	seedCarrier(c.rel, c.prop.Relation().Carrier())
	c.rel.TransClosure()
}

// addRcuFenceConstraints fans a->b out across the non-trivial events
// surrounding them in program order: every non-trivial event before a links
// to every non-trivial event after b (XBCalculator::addRcuFenceConstraints).
func (c *XB) addRcuFenceConstraints(g *graph.Graph, a, b label.Event) bool {
	changed := false
	for i := 1; i < a.Index; i++ {
		labA := g.LabelAt(label.Event{ThreadID: a.ThreadID, Index: i})
		if !isNonTrivial(labA) {
			continue
		}
		for j := b.Index + 1; j < g.SizeOf(b.ThreadID); j++ {
			posB := label.Event{ThreadID: b.ThreadID, Index: j}
			if !isNonTrivial(g.LabelAt(posB)) {
				continue
			}
			if !c.rel.Has(labA.Pos, posB) {
				c.rel.AddEdge(labA.Pos, posB)
				changed = true
			}
		}
	}
	return changed
}

func (c *XB) addXbConstraints(g *graph.Graph) bool {
	changed := false
	evs := c.prop.Relation().Carrier()
	for _, e1 := range evs {
		for _, e2 := range evs {
			if e1 == e2 || c.rel.Has(e1, e2) {
				continue
			}
			if c.ar.Relation().Has(e1, e2) {
				c.rel.AddEdge(e1, e2)
				changed = true
			}
		}
	}
	rcuElems := c.rcu.Relation().Carrier()
	for _, r := range rcuElems {
		for _, s := range c.rcu.Relation().Successors(r) {
			changed = c.addRcuFenceConstraints(g, r, s) || changed
		}
	}
	return changed
}

func (c *XB) Step(g *graph.Graph) (bool, bool) {
	changed := c.addXbConstraints(g)
	c.rel.TransClosure()
	return changed, c.rel.IsIrreflexive()
}
