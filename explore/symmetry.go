package explore

import (
	"fmt"

	"github.com/sva-lab/wmc/label"
)

// symmetry tracks which live threads were spawned with an identical entry
// function and argument, the condition spec.md §4.G names for symmetry
// reduction's thread-start quotienting ("two sibling threads ... spawned
// with identical bodies and arguments").
//
// Grounded on spec.md §4.G's own description of the tie-break ("the other
// is deduplicated by a canonical-ordering tie-break on thread id");
// original_source ties this to the creating EnterThread event, which this
// package approximates with a (ThreadFn, arg) key — sufficient for the
// common "spawn N worker threads with the same function and a distinct or
// shared argument" pattern these checkers are usually run against.
type symmetry struct {
	peer     map[int]int    // threadID -> lowest sibling threadID sharing its (fn,arg) class, or itself
	classOf  map[string]int // (fn,arg) key -> first threadID seen in that class
}

func newSymmetry() *symmetry {
	return &symmetry{peer: make(map[int]int), classOf: make(map[string]int)}
}

// register records that tid was spawned running fn with argument arg, and
// returns the symmetry peer this thread was quotiented against (itself, if
// it is the first thread seen in its class).
func (s *symmetry) register(tid int, fn string, arg uint64) int {
	key := fmt.Sprintf("%s|%d", fn, arg)
	first, ok := s.classOf[key]
	if !ok {
		s.classOf[key] = tid
		s.peer[tid] = tid
		return tid
	}
	s.peer[tid] = first
	return first
}

func (s *symmetry) peerOf(tid int) int {
	if p, ok := s.peer[tid]; ok {
		return p
	}
	return tid
}

// filterRotations drops a candidate rf target when a lower-numbered
// symmetric sibling's write at the same per-thread program-order index is
// also present in candidates — spec.md §4.G's "only one of the two rf
// rotations ... is explored" reduction. Only writes are ever filtered;
// the initializer pseudo-event has no thread and is always kept.
func (s *symmetry) filterRotations(candidates []label.Event) []label.Event {
	if len(s.peer) == 0 {
		return candidates
	}
	present := make(map[label.Event]bool, len(candidates))
	for _, c := range candidates {
		present[c] = true
	}
	out := candidates[:0:0]
	for _, c := range candidates {
		if c.IsInitializer() {
			out = append(out, c)
			continue
		}
		peer := s.peerOf(c.ThreadID)
		if peer < c.ThreadID && present[label.Event{ThreadID: peer, Index: c.Index}] {
			continue // a lower-id twin at the same po-index already covers this rotation
		}
		out = append(out, c)
	}
	return out
}
