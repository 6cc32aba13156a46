// Package relation implements the generic n×n boolean-matrix relation
// primitive shared by every model-specific calculator in package calc:
// edge insertion, membership, transitive closure via iterated boolean
// matrix product, irreflexivity, SCC condensation, and a generic DFS with
// entry/tree-edge/back-edge/forward-edge/exit callbacks.
//
// A Relation's carrier is an arbitrary comparable key (in practice
// label.Event); relations never know about labels, graphs, or memory
// models, which is what lets every calculator in package calc share this
// one implementation.
package relation

// Relation is a boolean adjacency matrix over a carrier of keys of type K.
// The zero value is an empty relation ready to use.
type Relation[K comparable] struct {
	index map[K]int
	keys  []K
	adj   []bool // row-major n*n matrix
	n     int
}

// New returns an empty Relation with no carrier events yet.
func New[K comparable]() *Relation[K] {
	return &Relation[K]{index: make(map[K]int)}
}

// ensure registers k in the carrier if absent, growing the matrix, and
// returns its row/column index.
func (r *Relation[K]) ensure(k K) int {
	if i, ok := r.index[k]; ok {
		return i
	}
	i := r.n
	r.index[k] = i
	r.keys = append(r.keys, k)
	r.n++
	grown := make([]bool, r.n*r.n)
	for row := 0; row < i; row++ {
		copy(grown[row*r.n:row*r.n+i], r.adj[row*i:row*i+i])
	}
	r.adj = grown
	return i
}

// AddEdge adds the edge a->b, growing the carrier to include a and b if
// necessary.
func (r *Relation[K]) AddEdge(a, b K) {
	ia := r.ensure(a)
	ib := r.ensure(b)
	r.adj[ia*r.n+ib] = true
}

// Touch registers k as a carrier member without adding any edge — used by
// calculators that need every event of interest present in, say, SCC
// condensation or carrier iteration even when it has no relation edges of
// its own yet.
func (r *Relation[K]) Touch(k K) { r.ensure(k) }

// Has reports whether the edge a->b is present. Unknown carrier members
// report false rather than panicking, so calculators may freely probe
// pairs that have never been inserted.
func (r *Relation[K]) Has(a, b K) bool {
	ia, ok := r.index[a]
	if !ok {
		return false
	}
	ib, ok := r.index[b]
	if !ok {
		return false
	}
	return r.adj[ia*r.n+ib]
}

// Carrier returns the set of keys currently in the relation's carrier, in
// insertion order.
func (r *Relation[K]) Carrier() []K {
	out := make([]K, len(r.keys))
	copy(out, r.keys)
	return out
}

// Len returns the carrier size.
func (r *Relation[K]) Len() int { return r.n }

// EdgeCount returns the number of edges currently set, used by iterative
// calculators to detect whether a fixpoint round actually added anything
// without needing a structural diff of the whole matrix.
func (r *Relation[K]) EdgeCount() int {
	n := 0
	for _, set := range r.adj {
		if set {
			n++
		}
	}
	return n
}

// Successors returns every b such that a->b holds.
func (r *Relation[K]) Successors(a K) []K {
	ia, ok := r.index[a]
	if !ok {
		return nil
	}
	var out []K
	row := r.adj[ia*r.n : ia*r.n+r.n]
	for j, set := range row {
		if set {
			out = append(out, r.keys[j])
		}
	}
	return out
}

// TransClosure replaces the relation with its transitive closure, computed
// by iterating the boolean matrix product (Warshall's algorithm) until a
// fixpoint — matching spec.md §4.D's "iterated boolean matrix product
// until fixpoint" phrasing exactly (Warshall is the closed-form way to
// reach that fixpoint in O(n^3) rather than repeated squaring).
func (r *Relation[K]) TransClosure() {
	n := r.n
	for k := 0; k < n; k++ {
		for i := 0; i < n; i++ {
			if !r.adj[i*n+k] {
				continue
			}
			for j := 0; j < n; j++ {
				if r.adj[k*n+j] {
					r.adj[i*n+j] = true
				}
			}
		}
	}
}

// IsIrreflexive reports whether no event relates to itself, i.e. the
// relation has no 1-cycles once transitively closed. Callers typically
// call this after TransClosure.
func (r *Relation[K]) IsIrreflexive() bool {
	for i := 0; i < r.n; i++ {
		if r.adj[i*r.n+i] {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of r.
func (r *Relation[K]) Clone() *Relation[K] {
	c := &Relation[K]{
		index: make(map[K]int, len(r.index)),
		keys:  append([]K(nil), r.keys...),
		adj:   append([]bool(nil), r.adj...),
		n:     r.n,
	}
	for k, v := range r.index {
		c.index[k] = v
	}
	return c
}
