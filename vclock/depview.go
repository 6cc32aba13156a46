package vclock

import (
	"sort"
	"strconv"
)

// DepView is a View plus, per thread, a set of "holes": indices strictly
// below the thread's max that are NOT contained in the view. It is used
// wherever the prefix under a dependency relation (address/data/control)
// is non-contiguous, e.g. IMM/LKMM's ppo tracking.
type DepView struct {
	view  View
	holes []map[int]struct{} // holes[t] == nil means "no holes recorded for t"
}

func (dv *DepView) ensure(t int) {
	dv.view.ensure(t)
	if t >= len(dv.holes) {
		grown := make([]map[int]struct{}, t+1)
		copy(grown, dv.holes)
		dv.holes = grown
	}
}

// Size returns the carrier size (number of threads with an entry).
func (dv *DepView) Size() int { return dv.view.Size() }

// Get returns the max index seen from thread t.
func (dv *DepView) Get(t int) int { return dv.view.Get(t) }

// Set bumps the max for thread t, exactly as View.Set.
func (dv *DepView) Set(t, i int) { dv.view.Set(t, i) }

// Contains reports whether (t,idx) is in the prefix: idx must be at most
// the thread's max, and idx must not be a recorded hole.
func (dv *DepView) Contains(t, idx int) bool {
	if !dv.view.Contains(t, idx) {
		return false
	}
	if t < len(dv.holes) && dv.holes[t] != nil {
		if _, isHole := dv.holes[t][idx]; isHole {
			return false
		}
	}
	return true
}

// AddHole marks (t,idx) as a hole. idx must not exceed the thread's
// current max.
func (dv *DepView) AddHole(t, idx int) {
	dv.ensure(t)
	if dv.holes[t] == nil {
		dv.holes[t] = make(map[int]struct{})
	}
	dv.holes[t][idx] = struct{}{}
}

// RemoveHole clears a previously recorded hole, if any.
func (dv *DepView) RemoveHole(t, idx int) {
	if t < len(dv.holes) && dv.holes[t] != nil {
		delete(dv.holes[t], idx)
	}
}

// AddHolesInRange marks every index in [fromIdx, untilIdx) of thread t as
// a hole.
func (dv *DepView) AddHolesInRange(t, fromIdx, untilIdx int) {
	for i := fromIdx; i < untilIdx; i++ {
		dv.AddHole(t, i)
	}
}

// RemoveAllHoles clears every recorded hole for thread t.
func (dv *DepView) RemoveAllHoles(t int) {
	if t < len(dv.holes) {
		dv.holes[t] = nil
	}
}

// Clone returns a deep copy of dv.
func (dv *DepView) Clone() *DepView {
	c := &DepView{view: *dv.view.Clone()}
	c.holes = make([]map[int]struct{}, len(dv.holes))
	for t, h := range dv.holes {
		if h == nil {
			continue
		}
		nh := make(map[int]struct{}, len(h))
		for idx := range h {
			nh[idx] = struct{}{}
		}
		c.holes[t] = nh
	}
	return c
}

// MergeWith composes dv with other following GenMC's DepView::update: for
// each thread, the new hole set is the intersection of both operands'
// holes, plus whichever operand's holes lie strictly above the OTHER
// operand's pre-merge max for that thread (since those indices are new to
// the view and were never contained by the side that didn't know them —
// ported verbatim from original_source/src/DepView.cpp).
func (dv *DepView) MergeWith(other *DepView) {
	if other == nil || other.Size() == 0 {
		return
	}
	dv.ensure(other.Size() - 1)
	for t := 0; t < other.Size(); t++ {
		selfMax := dv.view.Get(t)
		otherMax := other.view.Get(t)

		isec := intersect(dv.holeSet(t), other.holeSet(t))

		if selfMax < otherMax {
			for idx := range other.holeSet(t) {
				if idx > selfMax {
					isec[idx] = struct{}{}
				}
			}
			dv.view.Set(t, otherMax)
		} else {
			for idx := range dv.holeSet(t) {
				if idx > otherMax {
					isec[idx] = struct{}{}
				}
			}
		}
		if len(isec) == 0 {
			dv.holes[t] = nil
		} else {
			dv.holes[t] = isec
		}
	}
}

func (dv *DepView) holeSet(t int) map[int]struct{} {
	if t >= len(dv.holes) {
		return nil
	}
	return dv.holes[t]
}

func intersect(a, b map[int]struct{}) map[int]struct{} {
	out := make(map[int]struct{})
	small, big := a, b
	if len(big) < len(small) {
		small, big = big, small
	}
	for idx := range small {
		if _, ok := big[idx]; ok {
			out[idx] = struct{}{}
		}
	}
	return out
}

func (dv *DepView) String() string {
	s := "[\n"
	for t := 0; t < dv.Size(); t++ {
		idxs := make([]int, 0, len(dv.holeSet(t)))
		for idx := range dv.holeSet(t) {
			idxs = append(idxs, idx)
		}
		sort.Ints(idxs)
		s += "\t"
		s += strconv.Itoa(t) + ": " + strconv.Itoa(dv.view.Get(t)) + " ( "
		for _, idx := range idxs {
			s += strconv.Itoa(idx) + " "
		}
		s += ")\n"
	}
	return s + "]"
}
