package label

import "github.com/sva-lab/wmc/vclock"

// Kind tags the variant held by a Label.
type Kind uint8

const (
	KindThreadStart Kind = iota
	KindThreadFinish
	KindThreadCreate
	KindThreadJoin
	KindRead
	KindWrite
	KindFence
	KindSmpFence
	KindRCULock
	KindRCUUnlock
	KindRCUSync
	KindMalloc
	KindFree
	KindLock
	KindUnlock
	KindDskOpen
	KindDskRead
	KindDskWrite
	KindDskFsync
	KindDskSync
	KindDskPbarrier
	KindAssume
	KindBlock
	KindOptional
)

var kindNames = [...]string{
	"ThreadStart", "ThreadFinish", "ThreadCreate", "ThreadJoin",
	"Read", "Write", "Fence", "SmpFence",
	"RCULock", "RCUUnlock", "RCUSync",
	"Malloc", "Free", "Lock", "Unlock",
	"DskOpen", "DskRead", "DskWrite", "DskFsync", "DskSync", "DskPbarrier",
	"Assume", "Block", "Optional",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind?"
}

// SmpFenceKind enumerates LKMM's smp_* fence variants.
type SmpFenceKind uint8

const (
	SmpMB SmpFenceKind = iota
	SmpRMB
	SmpWMB
	SmpBA
	SmpAA
	SmpAS
	SmpAUL
)

// DskWriteKind distinguishes persistency write variants.
type DskWriteKind uint8

const (
	DskWritePlain DskWriteKind = iota
	DskWriteMetadata
	DskWriteDirectory
	DskWriteJournal
)

// StorageDuration classifies an allocation's lifetime/location.
type StorageDuration uint8

const (
	StorageStatic StorageDuration = iota
	StorageAutomatic
	StorageHeap
)

// Label is a tagged-union annotation on an Event. The header fields are
// common to every kind; Payload holds the kind-specific data. Labels are
// created once (by package graph, which owns the Stamp counter) and may
// only be mutated to re-target Rf or to recompute the two view fields —
// see spec.md §3 "Lifecycle".
type Label struct {
	Stamp     Stamp
	Pos       Event
	Kind      Kind
	Ordering  Ordering
	HBView    *vclock.View
	PorfView  *vclock.View
	Deps      Deps
	Attr      Attr
	Payload   Payload
}

// Deps carries the dependency-tracker output attached to Read/Write labels
// for IMM/LKMM ppo calculators (component I).
type Deps struct {
	Addr vclock.DepView
	Data vclock.DepView
	Ctrl vclock.DepView
}

// Payload is the kind-specific data carried by a Label. Exactly one field
// group is meaningful, selected by Label.Kind; accessing the wrong group
// is a programmer error (spec.md §4.A: "payload-mismatch queries are
// programmer errors").
type Payload struct {
	// Memory access (Read/Write)
	Addr    uint64
	Val     uint64
	Rf      Event // Read only: the Write this Read observed
	RMW     RMWKind

	// Thread lifecycle
	ParentCreate Event // ThreadStart: the ThreadCreate that spawned this thread
	SymmetryPeer int   // ThreadStart: sibling thread id with an identical body, or -1
	ChildTID     int   // ThreadCreate: id of the spawned thread
	JoinedTID    int   // ThreadJoin: id of the joined thread

	// Fences
	SmpFence SmpFenceKind

	// Allocation
	Size    uint64
	Storage StorageDuration
	AddrSpc int

	// Disk / persistence
	DskWriteKind DskWriteKind
	File         string
	BlockOff     uint64

	// Flags referenced by spec.md §6 (confirmation/helper/final-write)
	Confirmation bool
	Helper       bool
}

// NewLabel constructs a Label with the given kind, ordering, dependencies
// and payload. Stamp and Pos are left zero; the graph fills them in when
// the label is appended (see graph.Graph.Append), which is the only place
// stamps are dispensed (spec.md §4.A).
func NewLabel(kind Kind, ord Ordering, deps Deps, payload Payload) Label {
	return Label{Kind: kind, Ordering: ord, Deps: deps, Payload: payload}
}

// KindOf returns the label's kind.
func (l *Label) KindOf() Kind { return l.Kind }

// AddrOf returns the address of a memory-access or allocation label.
func (l *Label) AddrOf() uint64 { return l.Payload.Addr }

// ValOf returns the value of a Read or Write label.
func (l *Label) ValOf() uint64 { return l.Payload.Val }

// RfOf returns the reads-from target of a Read label.
func (l *Label) RfOf() Event { return l.Payload.Rf }

// IsAtLeast reports whether this label's ordering is at least as strong as
// ord.
func (l *Label) IsAtLeast(ord Ordering) bool { return l.Ordering.IsAtLeast(ord) }

// IsRMW reports whether this label is one half of a CAS/FAI pair.
func (l *Label) IsRMW() bool { return l.Payload.RMW != RMWNone }

// IsRead reports whether this label is a Read (including the read half of
// an RMW).
func (l *Label) IsRead() bool { return l.Kind == KindRead }

// IsWrite reports whether this label is a Write (including the write half
// of an RMW).
func (l *Label) IsWrite() bool { return l.Kind == KindWrite }

// IsMemoryAccess reports whether this label touches a memory address.
func (l *Label) IsMemoryAccess() bool { return l.IsRead() || l.IsWrite() }
