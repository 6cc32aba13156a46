package relation

// DFSCallbacks are invoked by DFS as it classifies every edge of the
// relation, following the standard white/gray/black DFS edge
// classification. This is the primitive RCU/PB/PSC-style calculators use
// to propagate counted constraints along paths (spec.md §4.D).
type DFSCallbacks[K comparable] struct {
	// OnEntry is called when v is first discovered.
	OnEntry func(v K)
	// OnTreeEdge is called for an edge a->b where b is discovered via a.
	OnTreeEdge func(a, b K)
	// OnBackEdge is called for an edge a->b where b is an ancestor of a
	// in the DFS tree (i.e. a cycle through the tree path).
	OnBackEdge func(a, b K)
	// OnForwardOrCrossEdge is called for an edge a->b where b is already
	// finished (black) and is not an ancestor of a.
	OnForwardOrCrossEdge func(a, b K)
	// OnExit is called when v is finished (all its edges explored).
	OnExit func(v K)
}

type dfsColor uint8

const (
	white dfsColor = iota
	gray
	black
)

// DFS walks every carrier key of r in carrier order, invoking cb's
// callbacks as each edge is classified. Unset callbacks are skipped.
func (r *Relation[K]) DFS(cb DFSCallbacks[K]) {
	color := make([]dfsColor, r.n)
	r.dfsAll(color, cb)
}

// DFSFrom walks only the subgraph reachable from the single carrier member
// from, with a fresh white/gray/black coloring of its own. This is the
// per-source reachability primitive RCU-style calculators need: they seed a
// pair of counters per source event and walk outward from it exactly once
// (mirroring visitReachable in the calculators this package's calc
// consumers are grounded on), rather than sharing one DFS coloring across
// every source the way DFS does for SCC-style whole-graph passes.
func (r *Relation[K]) DFSFrom(from K, cb DFSCallbacks[K]) {
	start, ok := r.index[from]
	if !ok {
		return
	}
	color := make([]dfsColor, r.n)
	r.visit(color, start, cb)
}

func (r *Relation[K]) visit(color []dfsColor, v int, cb DFSCallbacks[K]) {
	color[v] = gray
	if cb.OnEntry != nil {
		cb.OnEntry(r.keys[v])
	}
	row := r.adj[v*r.n : v*r.n+r.n]
	for w, edge := range row {
		if !edge {
			continue
		}
		switch color[w] {
		case white:
			if cb.OnTreeEdge != nil {
				cb.OnTreeEdge(r.keys[v], r.keys[w])
			}
			r.visit(color, w, cb)
		case gray:
			if cb.OnBackEdge != nil {
				cb.OnBackEdge(r.keys[v], r.keys[w])
			}
		case black:
			if cb.OnForwardOrCrossEdge != nil {
				cb.OnForwardOrCrossEdge(r.keys[v], r.keys[w])
			}
		}
	}
	color[v] = black
	if cb.OnExit != nil {
		cb.OnExit(r.keys[v])
	}
}

func (r *Relation[K]) dfsAll(color []dfsColor, cb DFSCallbacks[K]) {
	for v := 0; v < r.n; v++ {
		if color[v] == white {
			r.visit(color, v, cb)
		}
	}
}
