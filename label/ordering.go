package label

// Ordering is a C11/LKMM-style memory ordering tag. The zero value is Na
// ("non-atomic"), which is also the weakest ordering.
type Ordering uint8

const (
	Na Ordering = iota
	Relaxed
	Acquire
	Release
	AcqRel
	SC
)

var orderingNames = [...]string{"na", "rlx", "acq", "rel", "acq_rel", "sc"}

func (o Ordering) String() string {
	if int(o) < len(orderingNames) {
		return orderingNames[o]
	}
	return "ord?"
}

// strength fixes the total order referenced by spec.md §4.A: na < rlx <
// acq, rel < acq_rel < sc, with acq and rel given equal strength, so each
// IsAtLeast the other (the lattice collapsed to a total order for the
// purposes of the is_at_least query, matching how GenMC's AtomicOrdering
// comparisons are used: always against a single fixed ordering, never
// acq-vs-rel).
var strength = map[Ordering]int{
	Na:      0,
	Relaxed: 1,
	Acquire: 2,
	Release: 2,
	AcqRel:  3,
	SC:      4,
}

// IsAtLeast reports whether o is at least as strong as other in the fixed
// total order na < rlx < {acq,rel} < acq_rel < sc.
func (o Ordering) IsAtLeast(other Ordering) bool {
	return strength[o] >= strength[other]
}

// Attr is a bitmask of label attributes.
type Attr uint8

const (
	AttrNone Attr = 0
	// AttrLocal marks a write as thread-local, i.e. unobservable by other
	// threads because it targets a not-yet-escaped stack/heap region.
	AttrLocal Attr = 1 << 0
	// AttrFinal marks the final write to a location, as expected by
	// persistency and linearizability checks.
	AttrFinal Attr = 1 << 1
	// AttrWWRacy marks a write already known to race with another write
	// (annotated eagerly by the interpreter to avoid redundant reporting).
	AttrWWRacy Attr = 1 << 2
)

func (a Attr) Has(f Attr) bool { return a&f != 0 }

// RMWKind distinguishes the flavor of a read-modify-write pair.
type RMWKind uint8

const (
	RMWNone RMWKind = iota
	RMWCas
	RMWFai
)

func (k RMWKind) String() string {
	switch k {
	case RMWCas:
		return "cas"
	case RMWFai:
		return "fai"
	default:
		return "none"
	}
}
