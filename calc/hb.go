package calc

import (
	"github.com/sva-lab/wmc/graph"
	"github.com/sva-lab/wmc/label"
	"github.com/sva-lab/wmc/relation"
	"github.com/sva-lab/wmc/vclock"
)

// HB maintains the happens-before relation. Unlike the other calculators in
// this package, hb has no fixpoint of its own to run: package graph already
// computes an hb-view on every label at insertion time (Label.HBView), so
// Init simply materializes those views into explicit relation edges and
// Step is a pure recheck — no other calculator feeds hb, and hb never
// contributes new information after the views it was built from stop
// changing (which, on this checker's append-only graph, is never, until the
// next restriction).
type HB struct {
	rel *relation.Relation[label.Event]
}

// NewHB returns an empty HB calculator.
func NewHB() *HB { return &HB{rel: relation.New[label.Event]()} }

func (c *HB) Name() string                                  { return "hb" }
func (c *HB) Relation() *relation.Relation[label.Event]      { return c.rel }
func (c *HB) OnRestrict(*vclock.View)                        {}
func (c *HB) OnRestore(label.Event, []label.Label)            {}

// Init rebuilds hb from scratch: for every memory-access or fence label b, every
// earlier label a whose position is contained in b's hb-view gets an edge
// a->b.
func (c *HB) Init(g *graph.Graph) {
	c.rel = relation.New[label.Event]()
	evs := collectEvents(g, func(l *label.Label) bool {
		return l != nil && (l.IsMemoryAccess() || l.Kind == label.KindFence || l.Kind == label.KindSmpFence)
	})
	seedCarrier(c.rel, evs)
	for _, b := range evs {
		lb := g.LabelAt(b)
		if lb == nil || lb.HBView == nil {
			continue
		}
		for _, a := range evs {
			if a == b {
				continue
			}
			if lb.HBView.Contains(a.ThreadID, a.Index) {
				c.rel.AddEdge(a, b)
			}
		}
	}
}

// Step re-derives nothing new (see the type doc) and simply reports the
// relation's current irreflexivity.
func (c *HB) Step(g *graph.Graph) (bool, bool) {
	return false, c.rel.IsIrreflexive()
}
