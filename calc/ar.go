package calc

import (
	"github.com/sva-lab/wmc/graph"
	"github.com/sva-lab/wmc/label"
	"github.com/sva-lab/wmc/relation"
	"github.com/sva-lab/wmc/vclock"
)

// AR maintains a fence-closure relation over a source relation, ported
// directly from ARCalculator::addArConstraints: ar(f1,f2) holds for every
// pair of fences with source(f1,f2). The same shape serves two roles in
// this package — RC11's ar (sourced from psc) and LKMM's ar-lkmm (sourced
// from prop) — since GenMC itself computes both the same way, just against
// different source relations (see XBCalculator.cpp's reference to
// ar_lkmm alongside RC11's ar).
type AR struct {
	rel    *relation.Relation[label.Event]
	source Calculator
	name   string
}

// NewAR returns an AR calculator named name, drawing fence-closure edges
// from source.
func NewAR(name string, source Calculator) *AR {
	return &AR{rel: relation.New[label.Event](), source: source, name: name}
}

func (c *AR) Name() string                             { return c.name }
func (c *AR) Relation() *relation.Relation[label.Event] { return c.rel }
func (c *AR) OnRestrict(*vclock.View)                  {}
func (c *AR) OnRestore(label.Event, []label.Label)       {}

func (c *AR) fences(g *graph.Graph) []label.Event {
	return collectEvents(g, func(l *label.Label) bool {
		return l != nil && (l.Kind == label.KindFence || l.Kind == label.KindSmpFence)
	})
}

func (c *AR) Init(g *graph.Graph) {
	c.rel = relation.New[label.Event]()
	fs := c.fences(g)
	seedCarrier(c.rel, fs)
	c.addArConstraints(fs)
	c.rel.TransClosure()
}

func (c *AR) addArConstraints(fs []label.Event) bool {
	changed := false
	src := c.source.Relation()
	for _, f1 := range fs {
		for _, f2 := range fs {
			if src.Has(f1, f2) && !c.rel.Has(f1, f2) {
				c.rel.AddEdge(f1, f2)
				changed = true
			}
		}
	}
	return changed
}

func (c *AR) Step(g *graph.Graph) (bool, bool) {
	fs := c.fences(g)
	changed := c.addArConstraints(fs)
	c.rel.TransClosure()
	return changed, c.rel.IsIrreflexive()
}
