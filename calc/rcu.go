package calc

import (
	"github.com/sva-lab/wmc/graph"
	"github.com/sva-lab/wmc/label"
	"github.com/sva-lab/wmc/relation"
	"github.com/sva-lab/wmc/vclock"
)

// RCU maintains LKMM's rcu-order relation, plus the private rcu-link
// relation it is derived from (RCUCalculator.hpp: "since rcu-link is not
// seen by any other relations apart from rcu-order, it is stored in a
// private field of this calculator"). rcu-fence is exposed separately by
// XB, which computes its own po-range expansion directly from rcu's
// adjacency (see XBCalculator.cpp) — this type does not duplicate that.
//
// The pb relation GenMC's rcu-link search also consults
// (getPbOptPropPoLinks) is not modeled separately in this checker; rcu-link
// here only follows prop;po chains, a documented narrowing of the full
// pb*;prop;po search (see DESIGN.md).
type RCU struct {
	rcu     *relation.Relation[label.Event]
	rcuLink *relation.Relation[label.Event]
	prop    *PROP
}

// NewRCU returns an RCU calculator sourced from prop.
func NewRCU(prop *PROP) *RCU {
	return &RCU{rcu: relation.New[label.Event](), rcuLink: relation.New[label.Event](), prop: prop}
}

func (c *RCU) Name() string                             { return "rcu" }
func (c *RCU) Relation() *relation.Relation[label.Event] { return c.rcu }
func (c *RCU) RcuLink() *relation.Relation[label.Event]  { return c.rcuLink }
func (c *RCU) OnRestrict(*vclock.View)                  {}
func (c *RCU) OnRestore(label.Event, []label.Label)       {}

func (c *RCU) rcuEvents(g *graph.Graph) []label.Event {
	return collectEvents(g, func(l *label.Label) bool {
		return l != nil && (l.Kind == label.KindRCUSync || l.Kind == label.KindRCULock)
	})
}

func (c *RCU) Init(g *graph.Graph) {
	c.rcu = relation.New[label.Event]()
	c.rcuLink = relation.New[label.Event]()
	evs := c.rcuEvents(g)
	seedCarrier(c.rcu, evs)
	seedCarrier(c.rcuLink, evs)
}

// matchingUnlock finds the RCUUnlock that closes the critical section
// opened by lock, accounting for nesting (RCUCalculator::getMatchingUnlockRCU).
// If none is found before the thread ends, it returns a sentinel event one
// past the thread's last label, so callers treat the critical section as
// extending to the end of the thread.
func (c *RCU) matchingUnlock(g *graph.Graph, lock label.Event) label.Event {
	depth := 0
	for i := lock.Index + 1; i < g.SizeOf(lock.ThreadID); i++ {
		pos := label.Event{ThreadID: lock.ThreadID, Index: i}
		l := g.LabelAt(pos)
		switch l.Kind {
		case label.KindRCULock:
			depth++
		case label.KindRCUUnlock:
			if depth == 0 {
				return pos
			}
			depth--
		}
	}
	return label.Event{ThreadID: lock.ThreadID, Index: g.SizeOf(lock.ThreadID)}
}

// linksTo reports whether e links to r: po-before r if r is a sync point,
// or po-before r's matching unlock if r is a lock (RCUCalculator::linksTo).
func (c *RCU) linksTo(g *graph.Graph, e, r label.Event) bool {
	l := g.LabelAt(r)
	if l == nil {
		return false
	}
	switch l.Kind {
	case label.KindRCUSync:
		return e.ThreadID == r.ThreadID && e.Index < r.Index
	case label.KindRCULock:
		ul := c.matchingUnlock(g, r)
		return e.ThreadID == ul.ThreadID && e.Index < ul.Index
	default:
		return false
	}
}

// pbOptPropPoLinks fetches rcu-link candidates that are prop;po-after e1
// (RCUCalculator::getPbOptPropPoLinks, narrowed to skip the pb* term — see
// the RCU type doc).
func (c *RCU) pbOptPropPoLinks(g *graph.Graph, e1 label.Event, candidates []label.Event) []label.Event {
	var links []label.Event
	for _, e2 := range c.prop.events(g) {
		if !c.prop.Relation().Has(e1, e2) {
			continue
		}
		for _, r := range candidates {
			if c.linksTo(g, e2, r) {
				links = append(links, r)
			}
		}
	}
	return links
}

func (c *RCU) addRcuLinks(g *graph.Graph, e label.Event, candidates []label.Event) bool {
	changed := false
	l := g.LabelAt(e)
	upper := g.SizeOf(e.ThreadID)
	if l.Kind == label.KindRCULock {
		upper = c.matchingUnlock(g, e).Index
	}
	for i := e.Index + 1; i < upper; i++ {
		pos := label.Event{ThreadID: e.ThreadID, Index: i}
		lab := g.LabelAt(pos)
		if !isNonTrivial(lab) {
			continue
		}
		for _, link := range c.pbOptPropPoLinks(g, pos, candidates) {
			if !c.rcuLink.Has(e, link) {
				c.rcuLink.AddEdge(e, link)
				changed = true
			}
		}
	}
	return changed
}

func (c *RCU) addRcuLinkConstraints(g *graph.Graph, evs []label.Event) bool {
	changed := false
	for _, e := range evs {
		changed = c.addRcuLinks(g, e, evs) || changed
	}
	return changed
}

func incRcuCounter(g *graph.Graph, e label.Event, gps, css *int) {
	switch g.LabelAt(e).Kind {
	case label.KindRCUSync:
		*gps++
	case label.KindRCULock:
		*css++
	}
}

func decRcuCounter(g *graph.Graph, e label.Event, gps, css *int) {
	switch g.LabelAt(e).Kind {
	case label.KindRCUSync:
		*gps--
	case label.KindRCULock:
		*css--
	}
}

func (c *RCU) checkAddRcuConstraint(a, b label.Event, gps, css int) bool {
	if gps >= css && !c.rcu.Has(a, b) {
		c.rcu.AddEdge(a, b)
		return true
	}
	return false
}

// addRcuConstraints walks, for every rcu-link source event, the reachable
// subgraph of rcu-link counting grace periods (gps) and critical sections
// (css) along the path, adding an rcu edge whenever gps>=css
// (RCUCalculator::addRcuConstraints/visitReachable, ported onto
// relation.Relation.DFSFrom).
func (c *RCU) addRcuConstraints(g *graph.Graph, evs []label.Event) bool {
	changed := false
	for _, e := range evs {
		gps, css := 0, 0
		incRcuCounter(g, e, &gps, &css)
		c.rcuLink.DFSFrom(e, relation.DFSCallbacks[label.Event]{
			OnTreeEdge: func(_, b label.Event) {
				incRcuCounter(g, b, &gps, &css)
				changed = c.checkAddRcuConstraint(e, b, gps, css) || changed
				decRcuCounter(g, b, &gps, &css)
			},
			OnBackEdge: func(_, b label.Event) {
				changed = c.checkAddRcuConstraint(e, b, gps, css) || changed
			},
			OnForwardOrCrossEdge: func(_, b label.Event) {
				incRcuCounter(g, b, &gps, &css)
				changed = c.checkAddRcuConstraint(e, b, gps, css) || changed
				decRcuCounter(g, b, &gps, &css)
			},
		})
	}
	return changed
}

func (c *RCU) Step(g *graph.Graph) (bool, bool) {
	evs := c.rcuEvents(g)
	changed := c.addRcuLinkConstraints(g, evs)
	if changed {
		c.addRcuConstraints(g, evs)
		c.rcu.TransClosure()
	}
	return changed, c.rcu.IsIrreflexive()
}
