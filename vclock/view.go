// Package vclock implements the vector-clock primitives used throughout
// the checker: View (a plain per-thread-maximum vector clock) and DepView
// (a View augmented with per-thread "holes", used wherever a prefix under
// a dependency relation is non-contiguous).
//
// Both types store a sparse, growable per-thread index rather than GenMC's
// llvm::IndexedMap, since Go has no equivalent container in the standard
// library and a plain slice is the idiomatic replacement.
package vclock

import (
	"fmt"
	"sort"
)

// View is a vector v[t] = max index seen from thread t. An event (t,i) is
// "in" the view iff i <= v[t]. The zero value is an empty view (every
// thread maps to -1, i.e. nothing seen).
type View struct {
	max []int // max[t]+1 is the count of (t,_) events contained; absent entries are -1
}

func newMax(n int) []int {
	m := make([]int, n)
	for i := range m {
		m[i] = -1
	}
	return m
}

// ensure grows v.max so index t is addressable.
func (v *View) ensure(t int) {
	if t < len(v.max) {
		return
	}
	grown := newMax(t + 1)
	copy(grown, v.max)
	v.max = grown
}

// Size returns the number of threads this view has an entry for (its
// carrier size, not the number of events contained).
func (v *View) Size() int { return len(v.max) }

// Get returns the max index seen from thread t, or -1 if none.
func (v *View) Get(t int) int {
	if t < 0 || t >= len(v.max) {
		return -1
	}
	return v.max[t]
}

// Set sets the max index seen from thread t to i, growing the view if
// needed. Set never lowers an existing entry below its current value,
// mirroring View::setMax's role as a monotone "bump".
func (v *View) Set(t int, i int) {
	v.ensure(t)
	if i > v.max[t] {
		v.max[t] = i
	}
}

// Contains reports whether e=(t,idx) is in the view, i.e. idx <= v[t].
func (v *View) Contains(t int, idx int) bool { return idx <= v.Get(t) }

// Clone returns a deep copy of v.
func (v *View) Clone() *View {
	c := &View{max: make([]int, len(v.max))}
	copy(c.max, v.max)
	return c
}

// MergeWith composes v with other by pointwise max, mutating v in place.
// Per spec.md §8 P4, Contains is monotone under MergeWith: every event
// contained in either operand is contained in the result.
func (v *View) MergeWith(other *View) {
	if other == nil {
		return
	}
	v.ensure(len(other.max) - 1)
	for t, idx := range other.max {
		if idx > v.max[t] {
			v.max[t] = idx
		}
	}
}

// Merged returns a new view equal to the pointwise max of a and b, without
// mutating either.
func Merged(a, b *View) *View {
	c := a.Clone()
	c.MergeWith(b)
	return c
}

// UpdateIdx bumps the max for thread t to idx if idx is greater than the
// current max (the "makes the maximum event seen in e's thread equal to
// e" operation from View::updateIdx).
func (v *View) UpdateIdx(t, idx int) { v.Set(t, idx) }

func (v *View) String() string {
	if v == nil || len(v.max) == 0 {
		return "[]"
	}
	s := "["
	for t, idx := range v.max {
		if t > 0 {
			s += " "
		}
		s += fmt.Sprintf("%d:%d", t, idx)
	}
	return s + "]"
}

// sortedThreads returns the thread ids with a non-negative entry, sorted.
func (v *View) sortedThreads() []int {
	ts := make([]int, 0, len(v.max))
	for t, idx := range v.max {
		if idx >= 0 {
			ts = append(ts, t)
		}
	}
	sort.Ints(ts)
	return ts
}
