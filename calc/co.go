package calc

import (
	"github.com/sva-lab/wmc/graph"
	"github.com/sva-lab/wmc/label"
	"github.com/sva-lab/wmc/relation"
	"github.com/sva-lab/wmc/vclock"
)

// CO maintains the (per-location) coherence order as a single relation over
// all writes, rebuilt wholesale from graph.Graph.CoOrder on every Init/Step
// — the graph is small enough in practice (bounded test programs) that
// there is no value in tracking incremental co edits the way GenMC's
// Matrix2D does; only the driver ever mutates co (via InsertCo), and it
// always does so between fixpoint rounds, so co itself never "changes"
// mid-round the way the inference-driven relations below do.
type CO struct {
	rel *relation.Relation[label.Event]
}

// NewCO returns an empty CO calculator.
func NewCO() *CO { return &CO{rel: relation.New[label.Event]()} }

func (c *CO) Name() string                             { return "co" }
func (c *CO) Relation() *relation.Relation[label.Event] { return c.rel }
func (c *CO) OnRestrict(*vclock.View)                  {}
func (c *CO) OnRestore(label.Event, []label.Label)       {}

func (c *CO) Init(g *graph.Graph) {
	c.rel = relation.New[label.Event]()
	for _, addr := range g.Addresses() {
		order := g.CoOrder(addr)
		for i, e := range order {
			c.rel.Touch(e)
			for j := i + 1; j < len(order); j++ {
				c.rel.AddEdge(e, order[j])
			}
		}
	}
}

func (c *CO) Step(g *graph.Graph) (bool, bool) {
	c.Init(g)
	return false, c.rel.IsIrreflexive()
}
