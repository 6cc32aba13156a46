package calc

import (
	"github.com/sva-lab/wmc/graph"
	"github.com/sva-lab/wmc/label"
	"github.com/sva-lab/wmc/relation"
	"github.com/sva-lab/wmc/vclock"
)

// PROP maintains LKMM's propagation-order relation, restricted to
// "non-trivial" events (atomics and fences — see isNonTrivial). It is
// seeded from hb and co the same way PSC is, which is a documented
// simplification of LKMM's full prop definition (coi | rfe;fence-style
// per-location propagation terms); see DESIGN.md. XB and rcu-link both
// read prop's carrier and edges (see XBCalculator.cpp, RCUCalculator.cpp).
type PROP struct {
	rel *relation.Relation[label.Event]
	hb  *HB
	co  *CO
}

// NewPROP returns a PROP calculator sourced from hb and co.
func NewPROP(hb *HB, co *CO) *PROP {
	return &PROP{rel: relation.New[label.Event](), hb: hb, co: co}
}

func (c *PROP) Name() string                             { return "prop" }
func (c *PROP) Relation() *relation.Relation[label.Event] { return c.rel }
func (c *PROP) OnRestrict(*vclock.View)                  {}
func (c *PROP) OnRestore(label.Event, []label.Label)       {}

func (c *PROP) events(g *graph.Graph) []label.Event {
	return collectEvents(g, isNonTrivial)
}

func (c *PROP) Init(g *graph.Graph) {
	c.rel = relation.New[label.Event]()
	evs := c.events(g)
	seedCarrier(c.rel, evs)
	c.addEdges(evs)
	c.rel.TransClosure()
}

func (c *PROP) addEdges(evs []label.Event) bool {
	changed := false
	for _, a := range evs {
		for _, b := range evs {
			if a == b {
				continue
			}
			if (c.hb.Relation().Has(a, b) || c.co.Relation().Has(a, b)) && !c.rel.Has(a, b) {
				c.rel.AddEdge(a, b)
				changed = true
			}
		}
	}
	return changed
}

func (c *PROP) Step(g *graph.Graph) (bool, bool) {
	evs := c.events(g)
	changed := c.addEdges(evs)
	c.rel.TransClosure()
	return changed, c.rel.IsIrreflexive()
}
