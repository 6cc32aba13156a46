package explore

import (
	"github.com/sva-lab/wmc/deptrack"
	"github.com/sva-lab/wmc/graph"
	"github.com/sva-lab/wmc/ir"
	"github.com/sva-lab/wmc/label"
)

// pruneInfeasible drops a candidate rf target when the traced assume
// expression attached to this Read's own register (spec.md §4.J) already
// evaluates to false given everything the driver knows about this
// thread's prior loads plus the candidate's own value — a cheap
// rejection that saves a full backtrack-and-reconsistency-check cycle
// for a branch the annotator already proved infeasible.
//
// info may be nil (no annotation pass ran); env holds every register this
// thread's earlier reads were bound to, keyed by register id, so an
// assume spanning more than one load in the same block can still be
// evaluated once every load it names has actually executed. Eval's own
// contract (spec.md §4.J: "correctness does not depend on completeness")
// means a missing binding just yields "cannot prune", never a false
// prune — this never removes a candidate that is actually reachable.
func pruneInfeasible(candidates []label.Event, g *graph.Graph, addr uint64, annotReg deptrack.Reg, info *ir.ModuleInfo, env map[uint64]uint64) []label.Event {
	if info == nil || annotReg == 0 {
		return candidates
	}
	expr, ok := info.Annotations.Get(annotReg)
	if !ok {
		return candidates
	}
	out := candidates[:0:0]
	for _, c := range candidates {
		v := valueOfWrite(g, c)
		trial := make(map[uint64]uint64, len(env)+1)
		for k, vv := range env {
			trial[k] = vv
		}
		trial[uint64(annotReg)] = v
		if res, ok := expr.Eval(trial); ok && res == 0 {
			continue // the traced assume would reject this value outright
		}
		out = append(out, c)
	}
	if len(out) == 0 {
		// The annotator is a pruning aid, not a legality oracle: never let
		// it reject every candidate, since that would make a branch the
		// full interpreter replay might still take unreachable.
		return candidates
	}
	return out
}

// valueOfWrite returns the value a Read observes from w: 0 for the
// initializer, else the write label's own payload value.
func valueOfWrite(g *graph.Graph, w label.Event) uint64 {
	if w.IsInitializer() {
		return 0
	}
	if l := g.LabelAt(w); l != nil {
		return l.Payload.Val
	}
	return 0
}
