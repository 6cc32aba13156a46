package explore

import (
	"github.com/sva-lab/wmc/consistency"
	"github.com/sva-lab/wmc/graph"
	"github.com/sva-lab/wmc/label"
)

// coAnchors enumerates every legal InsertCo anchor for a write to an
// address whose current coherence order is order (oldest first), ordered
// so index 0 is "append after the current co-maximal write" — the
// uncontroversial default every run takes unless a path vector says
// otherwise — down to index len(order) which is "insert before
// everything" (anchor = the initializer).
func coAnchors(order []label.Event) []label.Event {
	anchors := make([]label.Event, 0, len(order)+1)
	for i := len(order) - 1; i >= 0; i-- {
		anchors = append(anchors, order[i])
	}
	anchors = append(anchors, label.Initializer)
	return anchors
}

// eligibleRevisits narrows CoherentRevisits' candidates to the ones this
// driver can safely reroute without resimulating anything: spec.md §4.G's
// backward revisit reroutes an already-placed Read's rf to a write
// created later, which in a live-interpreter design means that Read's own
// thread already consumed the old value and kept running — rerouting it
// afterward can only be sound if that thread (and every other thread
// whose progress depends on ordering against it) has already finished, so
// no further interpreter decision is still pending on the stale value.
// This is considerably narrower than the full maximal-extension test
// genMC implements (see DESIGN.md): it only fires once the rest of the
// program outran the read entirely, trading completeness for never
// reporting a revisit whose continuation the interpreter never actually
// took.
func eligibleRevisits(candidates []label.Event, finished map[int]bool, writerThread int) []label.Event {
	allOthersDone := true
	for tid, done := range finished {
		if tid == writerThread {
			continue
		}
		if !done {
			allOthersDone = false
			break
		}
	}
	if !allOthersDone {
		return nil
	}
	var out []label.Event
	for _, r := range candidates {
		if finished[r.ThreadID] {
			out = append(out, r)
		}
	}
	return out
}

// performBackwardRevisit reroutes the Read at r to read from the Write at
// w: restrict the graph to just before r, restore the part of w's
// causal history r had not yet observed (spec.md §4.C PrefixNotBefore),
// then re-append r itself targeting w. Every label touched here is a
// copy handed back by the graph, so this never aliases graph-owned state.
func performBackwardRevisit(g *graph.Graph, checker *consistency.Checker, w, r label.Event) label.Event {
	old := *g.LabelAt(r)
	preds := old.PorfView
	prefix := g.PrefixNotBefore(w, r)

	g.RestrictToStamp(old.Stamp - 1)
	checker.OnRestrict(preds)

	for _, pl := range prefix {
		g.Append(pl)
	}

	newLbl := label.Label{Kind: old.Kind, Ordering: old.Ordering, Deps: old.Deps, Payload: old.Payload}
	newLbl.Payload.Rf = w
	newLbl.Payload.Val = valueOfWrite(g, w)
	newLbl.Pos.ThreadID = r.ThreadID
	newPos := g.Append(newLbl)

	checker.OnRestore(newPos, prefix)
	return newPos
}
