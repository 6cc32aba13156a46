// Package label implements the typed event/label data model: the
// identifiers events are addressed by, the global creation-order stamp,
// and the tagged-union Label type with its kind-specific payloads.
//
// Labels are created exactly once, by the graph that owns the stamp
// counter (see package graph); this package only defines the data and the
// exhaustive-match accessors over it, it never dispenses stamps itself.
package label

import "fmt"

// Event identifies a point in a program execution by thread id and
// per-thread index. Ordering among events of the same thread is by Index.
type Event struct {
	ThreadID int
	Index    int
}

// Initializer is the pseudo-event that stores the initial value of every
// location. It precedes every real event in every thread.
var Initializer = Event{ThreadID: -1, Index: 0}

// IsInitializer reports whether e is the distinguished initializer event.
func (e Event) IsInitializer() bool { return e == Initializer }

// Less orders events first by thread id (Initializer sorts first) then by
// index; it is a total order suitable for use as a map/slice sort key.
func (e Event) Less(o Event) bool {
	if e.ThreadID != o.ThreadID {
		return e.ThreadID < o.ThreadID
	}
	return e.Index < o.Index
}

// Prev returns the program-order predecessor of e within its own thread.
// It is the caller's responsibility not to call this on index 0.
func (e Event) Prev() Event { return Event{ThreadID: e.ThreadID, Index: e.Index - 1} }

// Next returns the program-order successor of e within its own thread.
func (e Event) Next() Event { return Event{ThreadID: e.ThreadID, Index: e.Index + 1} }

func (e Event) String() string {
	if e.IsInitializer() {
		return "INIT"
	}
	return fmt.Sprintf("(%d,%d)", e.ThreadID, e.Index)
}

// Stamp is a monotonically increasing sequence number assigned by the
// graph when a label is created. It orders label creation globally and is
// independent of program order across threads.
type Stamp uint32
