package interp

import (
	"github.com/sva-lab/wmc/deptrack"
	"github.com/sva-lab/wmc/label"
	"github.com/sva-lab/wmc/verdict"
)

// Suspend is what a Thread hands back to its driver every time it reaches
// one of the "events of interest" spec.md §4.H names: the interpreter step
// returns "event produced" with a handle (spec.md §9's resumable-coroutine
// redesign note), and the driver builds and appends the corresponding
// label, then supplies the observed value back (for Reads) via
// Thread.Resume before the next step.
type Suspend struct {
	Kind     label.Kind
	Ordering label.Ordering
	Addr     uint64
	Val      uint64
	RMW      label.RMWKind
	SmpFence label.SmpFenceKind
	Size     uint64
	Storage  label.StorageDuration
	DskWriteKind label.DskWriteKind
	ChildTID int
	JoinedTID int
	ThreadFn string // pthread_create: entry function of the spawned thread
	Deps     label.Deps
	Width    int
	File     string

	// AnnotReg is valid when Kind == label.KindRead: the SSA register the
	// load's result is bound to, so the driver can attach/resolve the
	// traced annot.Expr for this load before choosing an rf candidate.
	AnnotReg deptrack.Reg

	// Done reports the thread ran off the end of its routine (its entry
	// function returned, or it called pthread_exit). Kind is then
	// label.KindThreadFinish and no other field is meaningful.
	Done bool

	// Err carries a verdict-worthy failure the interpreter hit executing
	// up to this point (assertion failure, poisoned value observed,
	// invalid free) rather than a further event to append. Callers check
	// Err before Kind.
	Err *Violation
}

// Violation is a user-program error verdict.Kind discovered by the
// interpreter itself, as opposed to one discovered by the consistency
// checker or the driver (spec.md §7 "user-program errors").
type Violation struct {
	Kind    verdict.Kind
	Message string
}

func (v *Violation) Error() string { return v.Message }
